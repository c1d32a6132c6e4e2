package notification

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWebhookNotifier_PostsPayload(t *testing.T) {
	var gotBody []byte
	var gotType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotType = r.Header.Get("Content-Type")
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL)
	err := n.Send(context.Background(), Alert{
		Title:   "Strong Buy AAPL",
		Payload: []byte(`{"symbol":"AAPL","strength":"Strong Buy"}`),
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if gotType != "application/json" {
		t.Errorf("content type = %q", gotType)
	}
	var m map[string]string
	if err := json.Unmarshal(gotBody, &m); err != nil {
		t.Fatalf("body not JSON: %v", err)
	}
	if m["strength"] != "Strong Buy" {
		t.Errorf("body = %s", gotBody)
	}
}

func TestWebhookNotifier_SynthesizesBodyWithoutPayload(t *testing.T) {
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL)
	if err := n.Send(context.Background(), Alert{Title: "t", Message: "m"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	var m map[string]string
	if err := json.Unmarshal(gotBody, &m); err != nil {
		t.Fatalf("body not JSON: %v", err)
	}
	if m["title"] != "t" || m["message"] != "m" {
		t.Errorf("body = %s", gotBody)
	}
}

func TestWebhookNotifier_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL)
	if err := n.Send(context.Background(), Alert{Title: "t"}); err == nil {
		t.Fatal("expected error for HTTP 403")
	}
}
