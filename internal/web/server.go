package web

import (
	"context"
	"crypto/rand"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/csrf"

	"github.com/mailsift/mailsift/internal/classifier"
	"github.com/mailsift/mailsift/internal/config"
	"github.com/mailsift/mailsift/internal/history"
	"github.com/mailsift/mailsift/internal/mailbox"
	"github.com/mailsift/mailsift/internal/unsub"
)

//go:embed static/*
var staticFS embed.FS

//go:embed templates/*
var templatesFS embed.FS

const (
	defaultRateLimit  = 30
	defaultRateWindow = time.Minute
)

type RateLimiter struct {
	mu       sync.Mutex
	requests map[string][]time.Time
	limit    int
	window   time.Duration
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		requests: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
	}
}

func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	windowStart := time.Now().Add(-rl.window)
	recent := rl.requests[key][:0]
	for _, t := range rl.requests[key] {
		if t.After(windowStart) {
			recent = append(recent, t)
		}
	}

	if len(recent) >= rl.limit {
		rl.requests[key] = recent
		return false
	}
	rl.requests[key] = append(recent, time.Now())
	return true
}

type Server struct {
	cfg         *config.Config
	engine      *classifier.Classifier
	store       *history.Store // nil when history is disabled
	templates   map[string]*template.Template
	httpServer  *http.Server
	port        int
	csrfKey     []byte
	rateLimiter *RateLimiter
}

// NewServer wires the classification engine behind a localhost web UI and
// JSON API. store may be nil to run without persistence.
func NewServer(port int, cfg *config.Config, engine *classifier.Classifier, store *history.Store) (*Server, error) {
	csrfKey := make([]byte, 32)
	if _, err := rand.Read(csrfKey); err != nil {
		return nil, fmt.Errorf("failed to generate CSRF key: %w", err)
	}

	s := &Server{
		cfg:         cfg,
		engine:      engine,
		store:       store,
		port:        port,
		csrfKey:     csrfKey,
		rateLimiter: NewRateLimiter(defaultRateLimit, defaultRateWindow),
	}

	templates, err := s.parseTemplates()
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	s.templates = templates
	return s, nil
}

// parseTemplates builds one template set per page so each can define its own
// "content" block against the shared layout.
func (s *Server) parseTemplates() (map[string]*template.Template, error) {
	funcs := template.FuncMap{
		"formatTime": func(t time.Time) string {
			return t.Format("Jan 2, 2006 3:04 PM")
		},
	}

	layout, err := templatesFS.ReadFile("templates/layout.html")
	if err != nil {
		return nil, fmt.Errorf("failed to read layout template: %w", err)
	}

	templates := make(map[string]*template.Template)
	entries, err := templatesFS.ReadDir("templates")
	if err != nil {
		return nil, err
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || name == "layout.html" || !strings.HasSuffix(name, ".html") {
			continue
		}

		content, err := templatesFS.ReadFile("templates/" + name)
		if err != nil {
			return nil, fmt.Errorf("failed to read template %s: %w", name, err)
		}

		page := template.New(name).Funcs(funcs)
		if _, err := page.Parse(string(layout)); err != nil {
			return nil, fmt.Errorf("failed to parse layout for %s: %w", name, err)
		}
		if _, err := page.Parse(string(content)); err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		templates[name] = page
	}

	return templates, nil
}

// Start blocks serving the UI on localhost until Shutdown.
func (s *Server) Start() error {
	router := s.setupRouter()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("127.0.0.1:%d", s.port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	fmt.Printf("Starting Mailsift web UI at http://localhost:%d\n", s.port)
	fmt.Println("Press Ctrl+C to stop")

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) setupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(securityHeaders)

	staticSub, _ := fs.Sub(staticFS, "static")
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticSub))))

	// Browser routes get CSRF protection; the JSON API group below does not
	// (it carries no session, and localhost callers use it programmatically).
	r.Group(func(r chi.Router) {
		csrfMiddleware := csrf.Protect(
			s.csrfKey,
			csrf.Secure(false), // Allow HTTP for localhost
			csrf.Path("/"),
			csrf.HttpOnly(true),
			csrf.SameSite(csrf.SameSiteLaxMode),
			csrf.TrustedOrigins([]string{"localhost", "127.0.0.1", fmt.Sprintf("localhost:%d", s.port), fmt.Sprintf("127.0.0.1:%d", s.port)}),
		)
		r.Use(csrfMiddleware)

		r.Get("/", s.handleDashboard)
		r.Post("/classify", s.handleClassifyForm)
		r.Get("/history", s.handleHistory)
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/classify", s.handleAPIClassify)
		r.Get("/demo", s.handleAPIDemo)
		r.Get("/stats", s.handleAPIStats)
	})

	return r
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Content-Security-Policy",
			"default-src 'self'; style-src 'self'; img-src 'self' data:; frame-ancestors 'none'; form-action 'self'; base-uri 'self'")
		if !strings.HasPrefix(r.URL.Path, "/static/") {
			w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, private")
		}
		next.ServeHTTP(w, r)
	})
}

// classifyBatch runs one batch through the engine and records it. This is
// the single funnel both the form and the API go through.
func (s *Server) classifyBatch(emails []classifier.EmailRecord, autoUnsubscribe bool, limit int, source string) classifier.BatchOutput {
	emails = mailbox.Truncate(mailbox.Normalize(emails), limit)

	results, stats := s.engine.ClassifyBatchConcurrent(emails, autoUnsubscribe, s.cfg.Triage.Concurrency)

	if autoUnsubscribe {
		outcomes := unsub.Run(context.Background(), unsub.Simulator{}, results)
		if len(outcomes) > 0 {
			log.Printf("Simulated %d unsubscribe request(s)", len(outcomes))
		}
	}

	if s.store != nil {
		if _, err := s.store.AddBatch(source, autoUnsubscribe, results, stats); err != nil {
			log.Printf("Warning: failed to record batch: %v", err)
		}
	}

	return classifier.BatchOutput{Results: results, Stats: stats}
}

// Page handlers

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	data := map[string]interface{}{
		"Title":           "Dashboard",
		"MaxEmails":       s.cfg.Triage.MaxEmails,
		"AutoUnsubscribe": s.cfg.Triage.AutoUnsubscribe,
		"Totals":          s.getTotals(),
	}
	s.render(w, r, "dashboard.html", data)
}

func (s *Server) handleClassifyForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Failed to parse form", http.StatusBadRequest)
		return
	}

	autoUnsubscribe := r.FormValue("auto_unsubscribe") == "on"
	limit := mailbox.ParseLimit(r.FormValue("max_emails"))

	var emails []classifier.EmailRecord
	if r.FormValue("demo") != "" {
		emails = mailbox.DemoInbox(limit)
	} else {
		raw := strings.TrimSpace(r.FormValue("emails"))
		if raw == "" {
			s.renderDashboardError(w, r, "Paste a JSON email batch or load the demo inbox.")
			return
		}
		if err := json.Unmarshal([]byte(raw), &emails); err != nil {
			s.renderDashboardError(w, r, "Could not parse the email batch: "+err.Error())
			return
		}
	}

	output := s.classifyBatch(emails, autoUnsubscribe, limit, "web")

	data := map[string]interface{}{
		"Title":           "Results",
		"Results":         output.Results,
		"Stats":           output.Stats,
		"AutoUnsubscribe": autoUnsubscribe,
	}
	s.render(w, r, "results.html", data)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	var batches []history.Batch
	if s.store != nil {
		var err error
		batches, err = s.store.GetRecentBatches(50)
		if err != nil {
			log.Printf("Warning: failed to load history: %v", err)
		}
	}

	data := map[string]interface{}{
		"Title":   "History",
		"Batches": batches,
		"Enabled": s.store != nil,
	}
	s.render(w, r, "history.html", data)
}

// API handlers

type classifyRequest struct {
	Emails          []classifier.EmailRecord `json:"emails"`
	AutoUnsubscribe bool                     `json:"autoUnsubscribe"`
	MaxEmails       any                      `json:"maxEmails"`
}

// limitFromRequest honors the boundary contract: absent or non-numeric
// maxEmails falls back to the default, everything else is clamped.
func limitFromRequest(v any) int {
	switch n := v.(type) {
	case float64:
		return mailbox.ClampLimit(int(n))
	case string:
		return mailbox.ParseLimit(n)
	default:
		return mailbox.DefaultBatchLimit
	}
}

func (s *Server) handleAPIClassify(w http.ResponseWriter, r *http.Request) {
	if !s.rateLimiter.Allow("classify") {
		writeJSONError(w, http.StatusTooManyRequests, "rate limit exceeded, try again shortly")
		return
	}

	var req classifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	output := s.classifyBatch(req.Emails, req.AutoUnsubscribe, limitFromRequest(req.MaxEmails), "api")

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(output)
}

func (s *Server) handleAPIDemo(w http.ResponseWriter, r *http.Request) {
	count := mailbox.ParseLimit(r.URL.Query().Get("count"))
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"emails": mailbox.DemoInbox(count),
	})
}

func (s *Server) handleAPIStats(w http.ResponseWriter, r *http.Request) {
	totals := s.getTotals()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(totals)
}

// Helpers

func (s *Server) getTotals() history.Totals {
	if s.store == nil {
		return history.Totals{}
	}
	totals, err := s.store.GetTotals()
	if err != nil {
		log.Printf("Warning: failed to load totals: %v", err)
		return history.Totals{}
	}
	return totals
}

func (s *Server) renderDashboardError(w http.ResponseWriter, r *http.Request, message string) {
	data := map[string]interface{}{
		"Title":           "Dashboard",
		"MaxEmails":       s.cfg.Triage.MaxEmails,
		"AutoUnsubscribe": s.cfg.Triage.AutoUnsubscribe,
		"Totals":          s.getTotals(),
		"Error":           message,
	}
	s.render(w, r, "dashboard.html", data)
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data map[string]interface{}) {
	tmpl, ok := s.templates[name]
	if !ok {
		http.Error(w, "Template not found", http.StatusInternalServerError)
		return
	}

	data["CSRFField"] = csrf.TemplateField(r)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, name, data); err != nil {
		log.Printf("Warning: failed to render %s: %v", name, err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
