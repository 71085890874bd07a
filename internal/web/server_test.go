package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mailsift/mailsift/internal/classifier"
	"github.com/mailsift/mailsift/internal/config"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	s, err := NewServer(0, config.Default(), classifier.NewDefault(), nil)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return s
}

func TestAPIClassify(t *testing.T) {
	s := newTestServer(t)
	router := s.setupRouter()

	body := `{
		"emails": [
			{"id": "1", "from": "deals@shop.example", "subject": "Huge sale", "body": "Shop now: https://shop.example/unsubscribe"},
			{"id": "2", "from": "billing@bank.example", "subject": "Your statement", "body": "Your account statement is ready."}
		]
	}`

	req := httptest.NewRequest(http.MethodPost, "/api/classify", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200: %s", w.Code, w.Body.String())
	}

	var output classifier.BatchOutput
	if err := json.Unmarshal(w.Body.Bytes(), &output); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if output.Stats.Total != 2 || output.Stats.Marketing != 1 || output.Stats.Important != 1 {
		t.Errorf("got stats %+v, want 2 total, 1 marketing, 1 important", output.Stats)
	}
	if output.Results[0].Classification != classifier.LabelMarketing {
		t.Errorf("got %q for first email, want marketing", output.Results[0].Classification)
	}
	if output.Results[0].UnsubscribeLink != "https://shop.example/unsubscribe" {
		t.Errorf("got link %q", output.Results[0].UnsubscribeLink)
	}
}

func TestAPIClassifyTruncatesToMaxEmails(t *testing.T) {
	s := newTestServer(t)
	router := s.setupRouter()

	body := `{
		"maxEmails": 1,
		"emails": [
			{"id": "1", "from": "a@example.com", "subject": "sale", "body": ""},
			{"id": "2", "from": "b@example.com", "subject": "invoice", "body": ""}
		]
	}`

	req := httptest.NewRequest(http.MethodPost, "/api/classify", strings.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var output classifier.BatchOutput
	if err := json.Unmarshal(w.Body.Bytes(), &output); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if output.Stats.Total != 1 {
		t.Errorf("got %d results, want 1", output.Stats.Total)
	}
}

func TestAPIClassifyRejectsBadJSON(t *testing.T) {
	s := newTestServer(t)
	router := s.setupRouter()

	req := httptest.NewRequest(http.MethodPost, "/api/classify", strings.NewReader("{not json"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("got status %d, want 400", w.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if resp["error"] == "" {
		t.Error("expected an error message")
	}
}

func TestAPIDemo(t *testing.T) {
	s := newTestServer(t)
	router := s.setupRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/demo?count=3", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200", w.Code)
	}

	var resp struct {
		Emails []classifier.EmailRecord `json:"emails"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Emails) != 3 {
		t.Errorf("got %d demo emails, want 3", len(resp.Emails))
	}
}

func TestLimitFromRequest(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want int
	}{
		{"absent", nil, 50},
		{"number", float64(30), 30},
		{"number above cap", float64(500), 100},
		{"numeric string", "25", 25},
		{"non-numeric string", "lots", 50},
		{"wrong type", true, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := limitFromRequest(tt.in); got != tt.want {
				t.Errorf("limitFromRequest(%v) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)

	if !rl.Allow("k") || !rl.Allow("k") {
		t.Fatal("first two requests should be allowed")
	}
	if rl.Allow("k") {
		t.Error("third request within the window should be denied")
	}
	if !rl.Allow("other") {
		t.Error("a different key should have its own budget")
	}
}

func TestSecurityHeaders(t *testing.T) {
	s := newTestServer(t)
	router := s.setupRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if got := w.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("got X-Frame-Options %q, want DENY", got)
	}
	if got := w.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("got X-Content-Type-Options %q, want nosniff", got)
	}
}
