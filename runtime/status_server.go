package runtime

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// StatusServer is the ambient status/health HTTP server every Host runs
// alongside its watcher and engine, giving a long-running agent a minimal
// operational surface independent of its pipeline processing.
type StatusServer struct {
	server *http.Server
}

// NewStatusServer exposes /healthz (liveness) and /pipelines (the loaded
// pipeline names, for quick operational inspection).
func NewStatusServer(addr string, pipelines []Pipeline) *StatusServer {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	names := make([]string, 0, len(pipelines))
	for _, p := range pipelines {
		names = append(names, p.Name)
	}
	router.GET("/pipelines", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"pipelines": names})
	})

	return &StatusServer{server: &http.Server{Addr: addr, Handler: router}}
}

// Start runs ListenAndServe in the background; http.ErrServerClosed from a
// graceful Shutdown is not treated as a failure.
func (s *StatusServer) Start(errs chan<- error) {
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errs <- err
		}
	}()
}

func (s *StatusServer) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}
