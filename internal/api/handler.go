// Package api provides the HTTP handlers of the graph service.
package api

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"fastcontrol/internal/db/mapper"
	"fastcontrol/internal/domain"
	graphsvc "fastcontrol/internal/service/graph"
)

// DefaultMaxBodyBytes caps request bodies, including pasted schema text.
const DefaultMaxBodyBytes int64 = 32 << 20

// graphService is the subset of *graphsvc.Service used by the handlers.
type graphService interface {
	ListGraphs(ctx context.Context, page domain.PageRequest) ([]domain.Graph, int64, error)
	GetGraph(ctx context.Context, id string) (*domain.Graph, error)
	CreateGraph(ctx context.Context, init domain.GraphInit, id *string) (*domain.Graph, error)
	SaveGraph(ctx context.Context, g *domain.Graph) (*domain.Graph, error)
	DeleteGraph(ctx context.Context, id string) error
	DeleteAllGraphs(ctx context.Context) error
	SeedExamples(ctx context.Context) ([]domain.Graph, error)
	ImportText(ctx context.Context, graphID string, raw domain.RawSchema) (*graphsvc.ImportResult, error)
	ImportDump(ctx context.Context, graphID string) (*graphsvc.ImportResult, error)
	ImportAsNewGraph(ctx context.Context, raw domain.RawSchema, name string) (*graphsvc.ImportResult, error)
	ExportDBML(ctx context.Context, graphID string) (string, error)
}

var _ graphService = (*graphsvc.Service)(nil)

// Handler serves the graph API.
type Handler struct {
	graphs   graphService
	logger   *slog.Logger
	maxBody  int64
	adminMW  func(http.Handler) http.Handler
	readyFns []func(r *http.Request) error
}

// Option configures a Handler.
type Option func(*Handler)

// WithMaxBodyBytes overrides DefaultMaxBodyBytes.
func WithMaxBodyBytes(n int64) Option {
	return func(h *Handler) {
		if n > 0 {
			h.maxBody = n
		}
	}
}

// WithAdminGuard wraps the destructive bulk endpoints (delete all, seed).
func WithAdminGuard(mw func(http.Handler) http.Handler) Option {
	return func(h *Handler) { h.adminMW = mw }
}

// WithReadinessCheck adds a check run by GET /healthz.
func WithReadinessCheck(fn func(r *http.Request) error) Option {
	return func(h *Handler) { h.readyFns = append(h.readyFns, fn) }
}

// NewHandler creates a Handler.
func NewHandler(graphs graphService, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{
		graphs:  graphs,
		logger:  logger.With("component", "api"),
		maxBody: DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Health answers GET /healthz.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	for _, fn := range h.readyFns {
		if err := fn(r); err != nil {
			h.logger.WarnContext(r.Context(), "readiness check failed", "error", err)
			writeError(w, http.StatusServiceUnavailable, "not ready")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// RegisterRoutes mounts the /v1 graph routes on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	admin := h.adminMW
	if admin == nil {
		admin = func(next http.Handler) http.Handler { return next }
	}

	r.Route("/v1/graphs", func(r chi.Router) {
		r.Get("/", h.ListGraphs)
		r.Post("/", h.CreateGraph)
		r.With(admin).Delete("/", h.DeleteAllGraphs)
		r.With(admin).Post("/examples", h.SeedExamples)
		r.Post("/import", h.ImportAsNewGraph)

		r.Route("/{graphID}", func(r chi.Router) {
			r.Get("/", h.GetGraph)
			r.Put("/", h.SaveGraph)
			r.Delete("/", h.DeleteGraph)
			r.Post("/import", h.ImportText)
			r.Post("/import/dump", h.ImportDump)
			r.Get("/dbml", h.ExportDBML)
		})
	})
}

// pageFromQuery extracts a PageRequest from the max_results and page_token
// query parameters.
func pageFromQuery(r *http.Request) (domain.PageRequest, error) {
	p := domain.PageRequest{PageToken: r.URL.Query().Get("page_token")}
	if v := r.URL.Query().Get("max_results"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return p, domain.ErrValidation("max_results must be a non-negative integer")
		}
		p.MaxResults = n
	}
	return p, nil
}

// dialectFromQuery reads the dialect query parameter, defaulting to dbml.
func dialectFromQuery(r *http.Request) (domain.Dialect, error) {
	v := r.URL.Query().Get("dialect")
	if v == "" {
		return domain.DialectDBML, nil
	}
	return domain.ParseDialect(v)
}

// readSchemaText reads the request body as schema text.
func (h *Handler) readSchemaText(w http.ResponseWriter, r *http.Request) (domain.RawSchema, error) {
	dialect, err := dialectFromQuery(r)
	if err != nil {
		return domain.RawSchema{}, err
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBody))
	if err != nil {
		return domain.RawSchema{}, err
	}
	text := string(body)
	if strings.TrimSpace(text) == "" {
		return domain.RawSchema{}, domain.ErrValidation("request body must contain schema text")
	}
	return domain.RawSchema{Text: text, Dialect: dialect}, nil
}

func graphDocuments(gs []domain.Graph) []mapper.GraphDocument {
	out := make([]mapper.GraphDocument, len(gs))
	for i := range gs {
		out[i] = mapper.GraphToDocument(&gs[i])
	}
	return out
}
