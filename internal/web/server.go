// Package web serves the results table to a browser. The server keeps no
// per-page state: the browser holds the sort and filter signals and every
// request rebuilds a fresh table view from the stored batch.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/starfederation/datastar-go/datastar"

	"complyview/internal/model"
	"complyview/internal/publish"
	"complyview/internal/store"
	"complyview/internal/table"
)

//go:generate curl -sSfL -o static/datastar.js https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0/bundles/datastar.js

//go:embed templates/*.html static
var assetsFS embed.FS

const maxUploadBytes = 32 << 20

// datastarCDN is the pinned bundle served when static/datastar.js has not
// been vendored with go generate.
const datastarCDN = "https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0/bundles/datastar.js"

// resultsSource is the part of store.Store the server needs.
type resultsSource interface {
	LoadResults(ctx context.Context, batchID string) (store.Results, error)
	Import(ctx context.Context, rs store.ResultSet, opt store.ImportOptions) (model.Batch, error)
}

type ServerConfig struct {
	Addr string
	// BatchID pins the served batch; empty follows the latest import.
	BatchID string
	Product string
	Source  resultsSource
	Log     zerolog.Logger
}

type Server struct {
	cfg  ServerConfig
	tmpl *template.Template
}

func NewServer(cfg ServerConfig) (*Server, error) {
	cfg.Addr = strings.TrimSpace(cfg.Addr)
	cfg.BatchID = strings.TrimSpace(cfg.BatchID)
	cfg.Product = strings.TrimSpace(cfg.Product)
	if cfg.Addr == "" {
		return nil, errors.New("web: addr is empty")
	}
	if cfg.Source == nil {
		return nil, errors.New("web: results source is nil")
	}
	if cfg.Product == "" {
		cfg.Product = store.DefaultProduct
	}

	tmpl, err := template.New("base").Funcs(template.FuncMap{
		"trim": strings.TrimSpace,
	}).ParseFS(assetsFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Server{cfg: cfg, tmpl: tmpl}, nil
}

func (s *Server) Addr() string { return s.cfg.Addr }

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(s.cfg.Log))

	r.Get("/health", s.handleHealth)
	r.Get("/static/datastar.js", s.handleDatastarJS)
	r.Get("/static/app.css", s.handleAppCSS)
	r.Get("/", s.handleIndex)
	r.Get("/table/sort", s.handleSort)
	r.Get("/table/filter", s.handleFilter)
	r.Post("/upload", s.handleUpload)
	r.Get("/report", s.handleReport)
	return r
}

// ListenAndServe serves until ctx is canceled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.cfg.Log.Info().Str("addr", s.cfg.Addr).Msg("web server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
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

func requestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				log.Info().
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Int("status", ww.Status()).
					Dur("duration", time.Since(start)).
					Str("request_id", middleware.GetReqID(r.Context())).
					Msg("request")
			}()
			next.ServeHTTP(ww, r)
		})
	}
}

func (s *Server) renderTemplate(name string, data any) (string, error) {
	var b strings.Builder
	if err := s.tmpl.ExecuteTemplate(&b, name, data); err != nil {
		return "", err
	}
	return b.String(), nil
}

func (s *Server) writeHTMLTemplate(w http.ResponseWriter, name string, data any) {
	html, err := s.renderTemplate(name, data)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, html)
}

// loadResults returns the served batch; ok is false when nothing has been
// imported yet.
func (s *Server) loadResults(ctx context.Context) (store.Results, bool, error) {
	res, err := s.cfg.Source.LoadResults(ctx, s.cfg.BatchID)
	if errors.Is(err, store.ErrNoBatches) {
		return store.Results{}, false, nil
	}
	if err != nil {
		return store.Results{}, false, err
	}
	return res, true, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "ok\n")
}

func (s *Server) handleDatastarJS(w http.ResponseWriter, r *http.Request) {
	b, err := assetsFS.ReadFile("static/datastar.js")
	if err != nil || len(b) == 0 {
		http.Redirect(w, r, datastarCDN, http.StatusTemporaryRedirect)
		return
	}
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

func (s *Server) handleAppCSS(w http.ResponseWriter, r *http.Request) {
	b, err := assetsFS.ReadFile("static/app.css")
	if err != nil || len(b) == 0 {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	res, ok, err := s.loadResults(r.Context())
	if err != nil {
		s.cfg.Log.Error().Err(err).Msg("load results")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	q := r.URL.Query()
	sig := tableSignals{
		SortKey:  q.Get("sort"),
		SortDir:  q.Get("dir"),
		Query:    q.Get("q"),
		Category: q.Get("category"),
	}
	sortState, filterState := sig.state()
	sig = signalsFor(sortState, filterState)

	sigJSON, err := json.Marshal(sig)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	vm := pageVM{
		Product:        s.cfg.Product,
		HasBatch:       ok,
		Batch:          res.Batch,
		SignalsJSON:    string(sigJSON),
		Categories:     categoryOptions(),
		Notice:         strings.TrimSpace(q.Get("notice")),
		StandardParams: res.StandardParams,
		Results:        buildResultsVM(res, ok, sortState, filterState),
	}
	if ok && res.Batch.Product != "" {
		vm.Product = res.Batch.Product
	}
	s.writeHTMLTemplate(w, "index", vm)
}

// readSignals decodes the browser-held table state. Absent signals are the
// zero state.
func readSignals(r *http.Request) (tableSignals, error) {
	var sig tableSignals
	if r.Method == http.MethodGet && r.URL.Query().Get("datastar") == "" {
		return sig, nil
	}
	if err := datastar.ReadSignals(r, &sig); err != nil {
		return tableSignals{}, fmt.Errorf("read signals: %w", err)
	}
	return sig, nil
}

func (s *Server) handleSort(w http.ResponseWriter, r *http.Request) {
	sig, err := readSignals(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	sortState, filterState := sig.state()
	if col, ok := model.ParseColumn(r.URL.Query().Get("col")); ok {
		sortState = table.OnHeaderActivated(sortState, col)
	}
	s.patchResults(w, r, sortState, filterState, true)
}

func (s *Server) handleFilter(w http.ResponseWriter, r *http.Request) {
	sig, err := readSignals(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	sortState, filterState := sig.state()
	s.patchResults(w, r, sortState, filterState, false)
}

func (s *Server) patchResults(w http.ResponseWriter, r *http.Request, sortState table.SortState, filterState table.FilterState, withSortSignals bool) {
	res, ok, err := s.loadResults(r.Context())
	if err != nil {
		s.cfg.Log.Error().Err(err).Msg("load results")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	html, err := s.renderTemplate("results", buildResultsVM(res, ok, sortState, filterState))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	sse := datastar.NewSSE(w, r)
	if withSortSignals {
		sig := signalsFor(sortState, filterState)
		_ = sse.MarshalAndPatchSignals(map[string]any{
			"sortKey": sig.SortKey,
			"sortDir": sig.SortDir,
		})
	}
	_ = sse.PatchElements(html,
		datastar.WithSelector("#results"),
		datastar.WithMode(datastar.ElementPatchModeOuter),
	)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "invalid upload: "+err.Error(), http.StatusBadRequest)
		return
	}
	f, hdr, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing file", http.StatusBadRequest)
		return
	}
	defer f.Close()

	name := filepath.Base(hdr.Filename)
	if !strings.EqualFold(filepath.Ext(name), ".json") {
		http.Error(w, "expected a .json results file", http.StatusBadRequest)
		return
	}
	rs, err := store.ParseResults(f)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	b, err := s.cfg.Source.Import(r.Context(), rs, store.ImportOptions{Source: name, Product: s.cfg.Product})
	if err != nil {
		s.cfg.Log.Error().Err(err).Str("file", name).Msg("import upload")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.cfg.Log.Info().Str("batch", b.ID).Int("entries", b.EntryCount).Str("file", name).Msg("imported upload")
	http.Redirect(w, r, "/?notice="+fmt.Sprintf("Imported+%d+entries", b.EntryCount), http.StatusSeeOther)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	res, ok, err := s.loadResults(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, "no results imported", http.StatusNotFound)
		return
	}

	nonCompliant := false
	switch strings.ToLower(strings.TrimSpace(r.URL.Query().Get("scope"))) {
	case "", "all":
	case "non-compliant", "noncompliant":
		nonCompliant = true
	default:
		http.Error(w, "invalid scope (expected all|non-compliant)", http.StatusBadRequest)
		return
	}

	product := res.Batch.Product
	if product == "" {
		product = s.cfg.Product
	}
	md := publish.RenderMarkdown(publish.Report{
		Product:        product,
		Entries:        res.Entries,
		StandardParams: res.StandardParams,
	}, publish.RenderOptions{NonCompliantOnly: nonCompliant})

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", publish.DefaultFileName(nonCompliant)))
	_, _ = io.WriteString(w, md)
}
