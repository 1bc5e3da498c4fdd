package notify

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/go-resty/resty/v2"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// barkAt builds a Bark pointed at ts instead of api.day.app, for testing
// without a real outbound HTTP call.
func barkAt(ts *httptest.Server, cfg BarkConfig) *Bark {
	u, _ := url.Parse(ts.URL)
	return &Bark{client: resty.New(), url: u.String() + "/" + cfg.Key, defaultGroup: cfg.Group}
}

func TestBarkPublishSendsFormBody(t *testing.T) {
	var gotBody, gotPath string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		r.ParseForm()
		gotBody = r.PostForm.Get("body")
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	b := barkAt(ts, BarkConfig{Key: "secret"})
	if err := b.Publish(map[string]any{"msg": "hello"}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if gotPath != "/secret" {
		t.Errorf("path = %q, want /secret", gotPath)
	}
	if gotBody != "hello" {
		t.Errorf("body field = %q, want hello", gotBody)
	}
}

func TestBarkPublishNonOKIsError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	b := barkAt(ts, BarkConfig{Key: "secret"})
	if err := b.Publish(map[string]any{"msg": "hello"}); err == nil {
		t.Error("a non-200 response should be reported as an error")
	}
}

func TestDispatcherPublishUnknownChannel(t *testing.T) {
	d := &Dispatcher{l: discardLogger(), channels: map[string]Channel{}}
	if err := d.Publish(map[string]any{"msg": "x"}, []string{"missing"}); err == nil {
		t.Error("publishing to an unknown channel name should error")
	}
}

func TestDispatcherPublishAllWhenNamesEmpty(t *testing.T) {
	var calls int
	d := &Dispatcher{l: discardLogger(), channels: map[string]Channel{
		"a": fakeChannel{fn: func(map[string]any) error { calls++; return nil }},
		"b": fakeChannel{fn: func(map[string]any) error { calls++; return nil }},
	}}
	if err := d.Publish(map[string]any{"msg": "x"}, nil); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2 (publish with no names should hit every channel)", calls)
	}
}

type fakeChannel struct {
	fn func(map[string]any) error
}

func (f fakeChannel) Publish(message map[string]any) error { return f.fn(message) }
