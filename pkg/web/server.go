package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/ritzau/critpath/pkg/analysis"
	"github.com/ritzau/critpath/pkg/criticalpath"
	"github.com/ritzau/critpath/pkg/cycles"
	"github.com/ritzau/critpath/pkg/fixtures"
	"github.com/ritzau/critpath/pkg/logging"
	"github.com/ritzau/critpath/pkg/model"
	"github.com/ritzau/critpath/pkg/pubsub"
)

//go:embed static/*
var staticFiles embed.FS

// CriticalPathResponse is one reduction as served to clients
type CriticalPathResponse struct {
	RunID       string            `json:"runId"`
	Worker      string            `json:"worker"`
	Algorithm   string            `json:"algorithm"`
	Graph       *model.Graph      `json:"graph,omitempty"`
	Statistics  *model.Statistics `json:"statistics,omitempty"`
	Error       string            `json:"error,omitempty"`
	Unsupported bool              `json:"unsupported,omitempty"`
}

// FixtureInfo describes a built-in scenario
type FixtureInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Main        string `json:"main"`
	Unbounded   bool   `json:"unbounded"` // the unbounded algorithm resolves it
}

// VerifyResponse reports a fixture verification
type VerifyResponse struct {
	Fixture  string            `json:"fixture"`
	Verified bool              `json:"verified"`
	Checks   map[string]string `json:"checks"` // algorithm -> "" or mismatch
}

// Server represents the web server
type Server struct {
	router    *mux.Router
	runner    *analysis.Runner
	publisher pubsub.Publisher
	defaults  analysis.Options
}

// NewServer creates a web server over runner. Defaults are the options of
// runs triggered through the API when a request does not override them.
func NewServer(runner *analysis.Runner, publisher pubsub.Publisher, defaults analysis.Options) *Server {
	s := &Server{
		router:    mux.NewRouter(),
		runner:    runner,
		publisher: publisher,
		defaults:  defaults,
	}
	s.setupRoutes()
	return s
}

// Handler returns the server's root handler, request logging included
func (s *Server) Handler() http.Handler {
	return logging.RequestIDMiddleware(s.router)
}

func (s *Server) setupRoutes() {
	// Nothing under /api falls through to the static files
	api := s.router.PathPrefix("/api").Subrouter()
	api.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, fmt.Sprintf("no API endpoint %s", r.URL.Path), http.StatusNotFound)
	})
	api.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, fmt.Sprintf("%s not allowed on %s", r.Method, r.URL.Path), http.StatusMethodNotAllowed)
	})

	// SSE subscription endpoints
	api.HandleFunc("/subscribe/{topic}", s.handleSubscribe).Methods("GET")

	api.HandleFunc("/graph", s.handleGraph).Methods("GET")
	api.HandleFunc("/critical-path", s.handleCriticalPath).Methods("GET")
	api.HandleFunc("/statistics", s.handleStatistics).Methods("GET")
	api.HandleFunc("/cycles", s.handleCycles).Methods("GET")
	api.HandleFunc("/analyze", s.handleAnalyze).Methods("POST")
	api.HandleFunc("/fixtures", s.handleFixtures).Methods("GET")
	api.HandleFunc("/fixtures/{name}/verify", s.handleVerify).Methods("GET")

	// Serve static files
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		logging.Fatal("embedded static files missing", "error", err)
	}
	s.router.PathPrefix("/").Handler(http.FileServer(http.FS(staticFS)))
}

func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	topic := mux.Vars(r)["topic"]
	if topic != pubsub.TopicAnalysisStatus && topic != pubsub.TopicCriticalPath {
		http.Error(w, fmt.Sprintf("unknown topic %q", topic), http.StatusNotFound)
		return
	}

	// No stream bytes before the subscription exists
	sub, err := s.publisher.Subscribe(r.Context(), topic)
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	defer sub.Close()

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	// Initial comment establishes the connection (Safari compatibility)
	fmt.Fprintf(w, ": connected\n\n")
	flush(w)

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-sub.Events():
			if !ok {
				return
			}
			if err := pubsub.WriteSSE(w, event); err != nil {
				logging.WarnContext(r.Context(), "error writing SSE event", "error", err)
				return
			}
			flush(w)
		}
	}
}

func flush(w http.ResponseWriter) {
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
}

// latest returns the current result or answers 503 when no run completed
func (s *Server) latest(w http.ResponseWriter) *analysis.Result {
	res := s.runner.Latest()
	if res == nil {
		http.Error(w, "no analysis available yet", http.StatusServiceUnavailable)
	}
	return res
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	res := s.latest(w)
	if res == nil {
		return
	}
	writeJSON(w, r, http.StatusOK, model.FromGraph(res.Graph))
}

func (s *Server) handleCriticalPath(w http.ResponseWriter, r *http.Request) {
	res := s.latest(w)
	if res == nil {
		return
	}

	algorithm := r.URL.Query().Get("algorithm")
	if algorithm == "" {
		algorithm = res.Algorithm
	}
	red, ok := res.Reductions[algorithm]
	if !ok {
		http.Error(w, fmt.Sprintf("unknown algorithm %q", algorithm), http.StatusBadRequest)
		return
	}

	resp := CriticalPathResponse{RunID: res.RunID, Worker: res.Worker.String(), Algorithm: algorithm}
	if red.Err != nil {
		resp.Error = red.Err.Error()
		resp.Unsupported = errors.Is(red.Err, criticalpath.ErrUnsupported)
		writeJSON(w, r, http.StatusUnprocessableEntity, resp)
		return
	}
	resp.Graph = model.FromGraph(red.Path)
	resp.Statistics = model.FromStatistics(red.Stats)
	writeJSON(w, r, http.StatusOK, resp)
}

func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	res := s.latest(w)
	if res == nil {
		return
	}

	out := map[string]*model.Statistics{"graph": model.FromStatistics(res.Stats)}
	for name, red := range res.Reductions {
		if red.Err == nil {
			out[name] = model.FromStatistics(red.Stats)
		}
	}
	writeJSON(w, r, http.StatusOK, out)
}

func (s *Server) handleCycles(w http.ResponseWriter, r *http.Request) {
	res := s.latest(w)
	if res == nil {
		return
	}
	out := res.Cycles
	if out == nil {
		out = []cycles.Cycle{}
	}
	writeJSON(w, r, http.StatusOK, out)
}

// handleAnalyze triggers a new run. Query parameters worker, algorithm,
// start and end override the defaults.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	opts := s.defaults
	opts.Reason = "requested over HTTP"
	q := r.URL.Query()
	if v := q.Get("worker"); v != "" {
		opts.Worker = v
	}
	if v := q.Get("algorithm"); v != "" {
		opts.Algorithm = v
	}
	for key, dst := range map[string]*int64{"start": &opts.Start, "end": &opts.End} {
		v := q.Get(key)
		if v == "" {
			continue
		}
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			http.Error(w, fmt.Sprintf("invalid %s %q", key, v), http.StatusBadRequest)
			return
		}
		*dst = n
	}

	res, err := s.runner.Run(r.Context(), opts)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, criticalpath.ErrUnsupported), errors.Is(err, criticalpath.ErrInvalidSpan):
			status = http.StatusUnprocessableEntity
		}
		http.Error(w, err.Error(), status)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"runId": res.RunID})
}

func (s *Server) handleFixtures(w http.ResponseWriter, r *http.Request) {
	all := fixtures.All()
	out := make([]FixtureInfo, 0, len(all))
	for _, f := range all {
		out = append(out, FixtureInfo{
			Name:        f.Name,
			Description: f.Description,
			Main:        f.Main.String(),
			Unbounded:   f.Unbounded != nil,
		})
	}
	writeJSON(w, r, http.StatusOK, out)
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if _, ok := fixtures.Lookup(name); !ok {
		http.Error(w, fmt.Sprintf("unknown fixture %q", name), http.StatusNotFound)
		return
	}

	// A private runner: verification must not replace the served result
	res, err := analysis.NewRunner(analysis.FixtureSource{Fixture: name}, nil).
		Run(r.Context(), analysis.Options{End: -1, Verify: true, Reason: "verify " + name})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	resp := VerifyResponse{Fixture: name, Verified: res.Verified(), Checks: make(map[string]string)}
	for _, c := range res.Checks {
		resp.Checks[c.Algorithm] = ""
		if c.Err != nil {
			resp.Checks[c.Algorithm] = c.Err.Error()
		}
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.WarnContext(r.Context(), "failed to encode response", "error", err)
	}
}

// Start serves on port until ctx is done, then shuts down gracefully
func (s *Server) Start(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logging.Info("starting web server", "url", fmt.Sprintf("http://localhost:%d", port))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}
