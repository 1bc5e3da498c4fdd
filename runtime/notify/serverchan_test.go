package notify

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/go-resty/resty/v2"
)

func serverChanAt(ts *httptest.Server, cfg ServerChanConfig) *ServerChan {
	u, _ := url.Parse(ts.URL)
	return &ServerChan{client: resty.New(), url: u.String() + "/" + cfg.Key + ".send", defaultChannel: cfg.Channel}
}

func TestServerChanPublishSendsFormBody(t *testing.T) {
	var gotDesp string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		gotDesp = r.PostForm.Get("desp")
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	s := serverChanAt(ts, ServerChanConfig{Key: "secret"})
	if err := s.Publish(map[string]any{"msg": "report ready"}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if gotDesp != "report ready" {
		t.Errorf("desp field = %q, want 'report ready'", gotDesp)
	}
}

func TestBuildChannelUnknownType(t *testing.T) {
	client := resty.New()
	if _, err := buildChannel(client, ChannelConfig{Name: "x", Type: "carrier-pigeon"}); err == nil {
		t.Error("buildChannel should reject an unknown channel type")
	}
}
