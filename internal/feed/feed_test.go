package feed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/matheuskafuri/petitions/internal/config"
	"github.com/matheuskafuri/petitions/internal/petition"
)

const sampleFeed = `{"results":[{"title":"Clean Water","body":"Protect rivers","signatureCount":120},{"title":"Tax Reform","body":"Lower rates","signatureCount":5}]}`

func testServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func sources(base string) []config.Source {
	return []config.Source{
		{Name: "Most Recent", URL: base + "/petitions-1.json"},
		{Name: "Top Rated", URL: base + "/petitions-2.json"},
	}
}

func TestLoadResolvesSource(t *testing.T) {
	var gotPath, gotQuery, gotUA string
	srv := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte(sampleFeed))
	})

	l := NewLoader(sources(srv.URL), 5*time.Second, WithUserAgent("petitions-test"))
	records, err := l.Load(context.Background(), 1)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if gotPath != "/petitions-2.json" {
		t.Errorf("source 1 should hit petitions-2.json, got %s", gotPath)
	}
	if gotQuery != "" {
		t.Errorf("expected no query parameters, got %q", gotQuery)
	}
	if gotUA != "petitions-test" {
		t.Errorf("expected user agent to be sent, got %q", gotUA)
	}
	if len(records) != 2 || records[0].Title != "Clean Water" {
		t.Errorf("unexpected records: %+v", records)
	}
}

func TestLoadUnknownSource(t *testing.T) {
	called := false
	srv := testServer(t, func(w http.ResponseWriter, r *http.Request) { called = true })

	l := NewLoader(sources(srv.URL), time.Second)
	for _, id := range []int{-1, 2} {
		_, err := l.Load(context.Background(), id)
		if !errors.Is(err, ErrUnknownSource) {
			t.Errorf("Load(%d): expected ErrUnknownSource, got %v", id, err)
		}
		var le *LoadError
		if !errors.As(err, &le) || le.Kind != KindNetwork {
			t.Errorf("Load(%d): expected network LoadError, got %v", id, err)
		}
	}
	if called {
		t.Error("no request should be made for an unknown source")
	}
}

func TestLoadNetworkFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"empty body", func(w http.ResponseWriter, r *http.Request) {}},
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}},
		{"not found", func(w http.ResponseWriter, r *http.Request) {
			http.NotFound(w, r)
		}},
	}
	for _, tt := range tests {
		srv := testServer(t, tt.handler)
		l := NewLoader(sources(srv.URL), time.Second)
		records, err := l.Load(context.Background(), 0)
		if records != nil {
			t.Errorf("%s: expected no records, got %d", tt.name, len(records))
		}
		var le *LoadError
		if !errors.As(err, &le) {
			t.Errorf("%s: expected *LoadError, got %v", tt.name, err)
			continue
		}
		if le.Kind != KindNetwork {
			t.Errorf("%s: expected network failure, got %s", tt.name, le.Kind)
		}
	}
}

func TestLoadEmptyBodyIsErrEmptyBody(t *testing.T) {
	srv := testServer(t, func(w http.ResponseWriter, r *http.Request) {})
	l := NewLoader(sources(srv.URL), time.Second)
	if _, err := l.Load(context.Background(), 0); !errors.Is(err, ErrEmptyBody) {
		t.Errorf("expected ErrEmptyBody, got %v", err)
	}
}

func TestLoadUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := srv.URL
	srv.Close()

	l := NewLoader(sources(base), time.Second)
	_, err := l.Load(context.Background(), 0)
	var le *LoadError
	if !errors.As(err, &le) || le.Kind != KindNetwork {
		t.Errorf("expected network LoadError, got %v", err)
	}
}

func TestLoadDecodeFailure(t *testing.T) {
	srv := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[{"title":"only a title"}]}`))
	})

	l := NewLoader(sources(srv.URL), time.Second)
	_, err := l.Load(context.Background(), 0)
	var le *LoadError
	if !errors.As(err, &le) || le.Kind != KindDecode {
		t.Fatalf("expected decode LoadError, got %v", err)
	}
	var de *petition.DecodeError
	if !errors.As(err, &de) {
		t.Errorf("expected wrapped *petition.DecodeError, got %v", err)
	}
}

func TestLoadHonoursCancellation(t *testing.T) {
	release := make(chan struct{})
	srv := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	l := NewLoader(sources(srv.URL), 10*time.Second)

	errc := make(chan error, 1)
	go func() {
		_, err := l.Load(ctx, 0)
		errc <- err
	}()
	cancel()

	select {
	case err := <-errc:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Load did not return after cancel")
	}
}

func TestURLQueryParameters(t *testing.T) {
	l := NewLoader([]config.Source{
		{Name: "Plain", URL: "https://example.com/petitions.json"},
		{Name: "Filtered", URL: "https://example.com/petitions.json", Limit: 100, SignatureCountFloor: 10000},
	}, time.Second)

	plain, err := l.URL(0)
	if err != nil {
		t.Fatalf("URL(0): %v", err)
	}
	if plain != "https://example.com/petitions.json" {
		t.Errorf("URL(0) = %s, want unchanged url", plain)
	}

	raw, err := l.URL(1)
	if err != nil {
		t.Fatalf("URL(1): %v", err)
	}
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parsing %s: %v", raw, err)
	}
	if u.Query().Get("limit") != "100" || u.Query().Get("signatureCountFloor") != "10000" {
		t.Errorf("unexpected query: %s", u.RawQuery)
	}
}

func TestSourcesIsACopy(t *testing.T) {
	l := NewLoader(sources("https://example.com"), time.Second)
	got := l.Sources()
	got[0].Name = "mutated"
	if l.Sources()[0].Name != "Most Recent" {
		t.Error("Sources should return a copy")
	}
}

func TestKindString(t *testing.T) {
	if KindNetwork.String() != "network failure" || KindDecode.String() != "decode failure" {
		t.Errorf("unexpected kind names: %s, %s", KindNetwork, KindDecode)
	}
}
