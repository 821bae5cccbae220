// Package api serves analyses over HTTP.
//
// All analysis routes take the package to analyze from the "package" query
// parameter, falling back to the server's default package. Packages are
// always resolved under the server's project path; clients cannot point the
// server at arbitrary directories.
//
//	GET  /healthz
//	GET  /metrics
//	GET  /api/v1/chains                  chains of every class, plus failures
//	GET  /api/v1/chains/{class}          chain of one class
//	GET  /api/v1/trace?class=C&method=M  ancestors defining M, in MRO order
//	GET  /api/v1/plan                    layout plan
//	GET  /api/v1/graph/{format}          rendered graph: dot, svg, png, pdf or json
//	POST /api/v1/analyze                 analyze a manifest sent as the body
package api

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/supermro/pkg/buildinfo"
	mroerrors "github.com/matzehuels/supermro/pkg/errors"
	"github.com/matzehuels/supermro/pkg/hierarchy"
	"github.com/matzehuels/supermro/pkg/observability"
	"github.com/matzehuels/supermro/pkg/pipeline"
	"github.com/matzehuels/supermro/pkg/source"
)

// maxManifestBytes bounds POST /api/v1/analyze bodies.
const maxManifestBytes = 8 << 20

// Config configures a [Server].
type Config struct {
	// Defaults are the analysis options every request starts from. Its
	// ProjectPath is the only directory packages are loaded from.
	Defaults pipeline.Options
	Render   pipeline.RenderOptions
	// Metrics is mounted at /metrics when set.
	Metrics http.Handler
	Logger  *log.Logger
}

// Server answers analysis requests using a shared [pipeline.Runner].
type Server struct {
	runner *pipeline.Runner
	cfg    Config
	logger *log.Logger
}

// New creates a server. The runner must outlive the server.
func New(runner *pipeline.Runner, cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	cfg.Defaults.Logger = logger
	return &Server{runner: runner, cfg: cfg, logger: logger}
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(serverHeader)
	r.Use(instrument)

	r.Get("/healthz", s.health)
	if s.cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.cfg.Metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/chains", s.chains)
		r.Get("/chains/{class}", s.chain)
		r.Get("/trace", s.trace)
		r.Get("/plan", s.plan)
		r.Get("/graph/{format}", s.graph)
		r.Post("/analyze", s.analyzeManifest)
	})
	return r
}

// =============================================================================
// Middleware
// =============================================================================

func serverHeader(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Server", buildinfo.UserAgent())
		next.ServeHTTP(w, r)
	})
}

// instrument reports every request to the HTTP hooks, labelled by route
// pattern rather than path to keep label cardinality bounded.
func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		observability.HTTP().OnRequest(r.Context(), r.Method, r.URL.Path)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		observability.HTTP().OnResponse(r.Context(), r.Method, route, status, time.Since(start))
	})
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": buildinfo.Version})
}

// chainsResponse is the body of /api/v1/chains and /api/v1/analyze.
type chainsResponse struct {
	ID       string           `json:"id"`
	Source   string           `json:"source"`
	Chains   hierarchy.Chains `json:"chains"`
	Failures []failure        `json:"failures"`
	Skipped  []failure        `json:"skipped_modules,omitempty"`
	Stats    stats            `json:"stats"`
}

type failure struct {
	Name    string `json:"name"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type stats struct {
	Classes int  `json:"classes"`
	Modules int  `json:"modules"`
	Failed  int  `json:"failed"`
	Cached  bool `json:"cached"`
}

func newChainsResponse(res *pipeline.Result) chainsResponse {
	out := chainsResponse{
		ID:       res.ID.String(),
		Source:   res.Source,
		Chains:   res.Chains,
		Failures: make([]failure, 0, len(res.Failures)),
		Stats: stats{
			Classes: res.Stats.Classes,
			Modules: res.Stats.Modules,
			Failed:  res.Stats.Failed,
			Cached:  res.CacheInfo.SourceHit,
		},
	}
	for _, f := range res.Failures {
		out.Failures = append(out.Failures, failure{
			Name:    f.Class.String(),
			Code:    string(mroerrors.GetCode(f.Err)),
			Message: mroerrors.UserMessage(f.Err),
		})
	}
	for _, f := range res.LoadFailures {
		out.Skipped = append(out.Skipped, failure{
			Name:    f.Module,
			Code:    string(mroerrors.GetCode(f.Err)),
			Message: mroerrors.UserMessage(f.Err),
		})
	}
	return out
}

func (s *Server) chains(w http.ResponseWriter, r *http.Request) {
	res, err := s.analyze(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newChainsResponse(res))
}

func (s *Server) chain(w http.ResponseWriter, r *http.Request) {
	res, err := s.analyze(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	c, err := res.Registry.Resolve(chi.URLParam(r, "class"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ancestors, ok := res.Chains.Get(c.String())
	if !ok {
		s.writeError(w, r, c.Err())
		return
	}
	writeJSON(w, http.StatusOK, hierarchy.Chain{Class: c.String(), Ancestors: ancestors})
}

func (s *Server) trace(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	class, method := q.Get("class"), q.Get("method")
	if class == "" || method == "" {
		s.writeError(w, r, mroerrors.New(mroerrors.ErrCodeInvalidInput, "class and method are required"))
		return
	}
	res, err := s.analyze(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	t, err := res.Trace(class, method)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) plan(w http.ResponseWriter, r *http.Request) {
	res, err := s.analyze(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res.Plan)
}

var contentTypes = map[string]string{
	pipeline.FormatDOT:  "text/vnd.graphviz; charset=utf-8",
	pipeline.FormatSVG:  "image/svg+xml",
	pipeline.FormatPNG:  "image/png",
	pipeline.FormatPDF:  "application/pdf",
	pipeline.FormatJSON: "application/json",
}

func (s *Server) graph(w http.ResponseWriter, r *http.Request) {
	format := chi.URLParam(r, "format")
	if err := pipeline.ValidateFormat(format); err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.analyze(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	opts := s.cfg.Render
	opts.Formats = []string{format}
	if v := r.URL.Query().Get("detailed"); v != "" {
		opts.Detailed, _ = strconv.ParseBool(v)
	}
	artifacts, hit, err := s.runner.Render(r.Context(), res.Plan, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", contentTypes[format])
	w.Header().Set("X-Cache", cacheStatus(hit))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(artifacts[format])
}

func (s *Server) analyzeManifest(w http.ResponseWriter, r *http.Request) {
	format := source.FormatJSON
	if ct := r.Header.Get("Content-Type"); ct != "" {
		mt, _, err := mime.ParseMediaType(ct)
		if err != nil {
			s.writeError(w, r, mroerrors.Wrap(mroerrors.ErrCodeInvalidInput, err, "bad content type"))
			return
		}
		switch mt {
		case "application/toml":
			format = source.FormatTOML
		case "application/yaml", "application/x-yaml", "text/yaml":
			format = source.FormatYAML
		}
	}

	m, err := source.ReadManifest(io.LimitReader(r.Body, maxManifestBytes), format)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	opts := s.cfg.Defaults
	opts.ProjectPath, opts.Package = "", ""
	opts.Declarations = m.Declarations()
	if opts.Declarations == nil {
		opts.Declarations = []hierarchy.Declaration{}
	}
	applyQuery(&opts, r)

	res, err := s.runner.Analyze(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newChainsResponse(res))
}

// analyze runs the analysis a GET request asks for.
func (s *Server) analyze(r *http.Request) (*pipeline.Result, error) {
	opts := s.cfg.Defaults
	if pkg := r.URL.Query().Get("package"); pkg != "" {
		opts.Package = pkg
	}
	if opts.Package == "" {
		return nil, mroerrors.New(mroerrors.ErrCodeInvalidInput, "package is required")
	}
	applyQuery(&opts, r)
	return s.runner.Analyze(r.Context(), opts)
}

// applyQuery applies the per-request analysis switches.
func applyQuery(opts *pipeline.Options, r *http.Request) {
	q := r.URL.Query()
	if v, err := strconv.ParseBool(q.Get("skip_abstract")); err == nil {
		opts.SkipAbstract = v
	}
	if v, err := strconv.ParseBool(q.Get("private")); err == nil {
		opts.IncludePrivate = v
	}
	if v, err := strconv.ParseBool(q.Get("refresh")); err == nil {
		opts.Refresh = v
	}
}

// =============================================================================
// Responses
// =============================================================================

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// statusFor maps error codes to HTTP statuses.
func statusFor(code mroerrors.Code) int {
	switch code {
	case mroerrors.ErrCodeInvalidInput, mroerrors.ErrCodeInvalidName, mroerrors.ErrCodeInvalidFormat,
		mroerrors.ErrCodeInvalidManifest, mroerrors.ErrCodeInvalidPath, mroerrors.ErrCodeDuplicateClass:
		return http.StatusBadRequest
	case mroerrors.ErrCodeClassNotFound, mroerrors.ErrCodeMethodNotFound, mroerrors.ErrCodePackageNotFound:
		return http.StatusNotFound
	case mroerrors.ErrCodeUnresolvedBase, mroerrors.ErrCodeCyclicInheritance, mroerrors.ErrCodeInconsistentHierarchy:
		return http.StatusUnprocessableEntity
	case mroerrors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		err = errors.New("unknown error")
	}
	code := mroerrors.GetCode(err)
	status := statusFor(code)
	if code == "" {
		code = mroerrors.ErrCodeInternal
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "err", err)
	}
	writeJSON(w, status, errorBody{Error: errorDetail{
		Code:      string(code),
		Message:   mroerrors.UserMessage(err),
		RequestID: middleware.GetReqID(r.Context()),
	}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func cacheStatus(hit bool) string {
	if hit {
		return "HIT"
	}
	return "MISS"
}
