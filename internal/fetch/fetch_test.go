package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClientConditionalGet(t *testing.T) {
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if r.Header.Get("If-None-Match") == `"v1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		w.Write([]byte(`{"n":42}`))
	}))
	defer server.Close()

	c := &Client{URL: server.URL, HTTP: server.Client()}
	ctx := context.Background()

	var payload struct {
		N int `json:"n"`
	}
	changed, err := c.GetJSON(ctx, &payload)
	if err != nil {
		t.Fatalf("expected fetch, got error: %v", err)
	}
	if !changed || payload.N != 42 {
		t.Fatalf("expected changed payload n=42, got changed=%v n=%d", changed, payload.N)
	}

	payload.N = 0
	changed, err = c.GetJSON(ctx, &payload)
	if err != nil {
		t.Fatalf("expected 304, got error: %v", err)
	}
	if changed {
		t.Error("expected unchanged on matching etag")
	}
	if payload.N != 0 {
		t.Errorf("expected payload untouched on 304, got n=%d", payload.N)
	}
	if hits != 2 {
		t.Errorf("expected 2 requests, got %d", hits)
	}
}

func TestClientStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer server.Close()

	c := &Client{URL: server.URL, HTTP: server.Client()}
	if _, _, err := c.Get(context.Background()); err == nil {
		t.Fatal("expected error on 502")
	}
}

func TestJSONDecodeError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{broken`))
	}))
	defer server.Close()

	var v map[string]any
	if err := JSON(context.Background(), server.Client(), server.URL, &v); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestPostJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected application/json, got %q", ct)
		}
		var req struct {
			Query string `json:"query"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("expected request body to decode: %v", err)
		}
		if req.Query != "ping" {
			t.Errorf("expected query %q, got %q", "ping", req.Query)
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	payload := map[string]string{"query": "ping"}
	var reply struct {
		OK bool `json:"ok"`
	}
	if err := PostJSON(context.Background(), server.Client(), server.URL, payload, &reply); err != nil {
		t.Fatalf("expected post, got error: %v", err)
	}
	if !reply.OK {
		t.Error("expected decoded reply ok=true")
	}
}

func TestJSONUserAgent(t *testing.T) {
	var agent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		agent = r.Header.Get("User-Agent")
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	var v struct{}
	if err := JSON(context.Background(), server.Client(), server.URL, &v); err != nil {
		t.Fatalf("expected fetch, got error: %v", err)
	}
	if agent != UserAgent {
		t.Errorf("expected user agent %q, got %q", UserAgent, agent)
	}
}
