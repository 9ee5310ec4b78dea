// Package graph provides the graph lifecycle operations and the schema
// import pipeline on top of the graph store.
package graph

import (
	"context"
	"embed"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"fastcontrol/internal/domain"
	graphops "fastcontrol/internal/graph"
)

//go:embed examples/*.dbml
var exampleFS embed.FS

// Example is a bundled sample graph created by SeedExamples.
type Example struct {
	ID   string
	Name string
	file string
}

// Examples lists the bundled sample graphs in seeding order.
var Examples = []Example{
	{ID: "example-northwind", Name: "Northwind Traders", file: "examples/northwind.dbml"},
	{ID: "example-blog", Name: "Blog", file: "examples/blog.dbml"},
	{ID: "example-spacex", Name: "SpaceX", file: "examples/spacex.dbml"},
}

// Service provides graph lifecycle and import operations.
type Service struct {
	repo       domain.GraphRepository
	source     domain.SchemaSource
	parser     domain.SchemaParser
	normalizer *graphops.Normalizer
	logger     *slog.Logger
	now        func() time.Time

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// New creates a Service. source may be nil, in which case ImportDump fails
// with a *domain.SourceUnavailableError.
func New(repo domain.GraphRepository, source domain.SchemaSource, parser domain.SchemaParser, normalizer *graphops.Normalizer, logger *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		source:     source,
		parser:     parser,
		normalizer: normalizer,
		logger:     logger.With("component", "graph-service"),
		now:        time.Now,
		inFlight:   make(map[string]struct{}),
	}
}

// CreateGraph creates a graph. An empty name becomes "Untitled graph N"
// where N is the number of graphs already stored.
func (s *Service) CreateGraph(ctx context.Context, init domain.GraphInit, id *string) (*domain.Graph, error) {
	if strings.TrimSpace(init.Name) == "" {
		name, err := s.defaultName(ctx)
		if err != nil {
			return nil, err
		}
		init.Name = name
	}
	if err := init.Validate(); err != nil {
		return nil, err
	}
	g, err := s.repo.Create(ctx, init, id)
	if err != nil {
		return nil, fmt.Errorf("create graph: %w", err)
	}
	s.logger.Info("graph created", "graph_id", g.ID, "name", g.Name, "tables", len(g.Tables))
	return g, nil
}

// GetGraph returns a graph by id.
func (s *Service) GetGraph(ctx context.Context, id string) (*domain.Graph, error) {
	return s.repo.Get(ctx, id)
}

// ListGraphs returns a page of graphs, newest first.
func (s *Service) ListGraphs(ctx context.Context, page domain.PageRequest) ([]domain.Graph, int64, error) {
	return s.repo.List(ctx, page)
}

// SaveGraph replaces the stored content of an existing graph. The graph must
// satisfy the referential invariant.
func (s *Service) SaveGraph(ctx context.Context, g *domain.Graph) (*domain.Graph, error) {
	if g == nil || g.ID == "" {
		return nil, domain.ErrValidation("graph id is required")
	}
	if strings.TrimSpace(g.Name) == "" {
		return nil, domain.ErrValidation("graph name is required")
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	out := g.Clone()
	out.UpdatedAt = s.now()
	saved, err := s.repo.Update(ctx, out)
	if err != nil {
		return nil, fmt.Errorf("save graph: %w", err)
	}
	return saved, nil
}

// DeleteGraph removes one graph.
func (s *Service) DeleteGraph(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete graph: %w", err)
	}
	s.logger.Info("graph deleted", "graph_id", id)
	return nil
}

// DeleteAllGraphs removes every graph.
func (s *Service) DeleteAllGraphs(ctx context.Context) error {
	if err := s.repo.DeleteAll(ctx); err != nil {
		return fmt.Errorf("delete all graphs: %w", err)
	}
	s.logger.Info("all graphs deleted")
	return nil
}

// SeedExamples creates the bundled example graphs under their fixed ids.
// Examples that already exist are left alone. It returns the graphs created
// by this call.
func (s *Service) SeedExamples(ctx context.Context) ([]domain.Graph, error) {
	created := make([]*domain.Graph, len(Examples))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, ex := range Examples {
		g.Go(func() error {
			if _, err := s.repo.Get(gctx, ex.ID); err == nil {
				s.logger.Debug("example already present", "graph_id", ex.ID)
				return nil
			} else if !isNotFound(err) {
				return fmt.Errorf("example %s: %w", ex.ID, err)
			}

			init, err := s.buildExample(ex)
			if err != nil {
				return fmt.Errorf("example %s: %w", ex.ID, err)
			}
			id := ex.ID
			out, err := s.repo.Create(gctx, init, &id)
			if err != nil {
				if isConflict(err) {
					return nil // created concurrently
				}
				return fmt.Errorf("example %s: %w", ex.ID, err)
			}
			created[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("seed examples: %w", err)
	}

	out := make([]domain.Graph, 0, len(created))
	for _, c := range created {
		if c != nil {
			out = append(out, *c)
		}
	}
	s.logger.Info("examples seeded", "created", len(out))
	return out, nil
}

func (s *Service) buildExample(ex Example) (domain.GraphInit, error) {
	text, err := exampleFS.ReadFile(ex.file)
	if err != nil {
		return domain.GraphInit{}, err
	}
	res, err := s.build(domain.RawSchema{Text: string(text), Dialect: domain.DialectDBML}, nil)
	if err != nil {
		return domain.GraphInit{}, err
	}
	return domain.GraphInit{Name: ex.Name, Tables: res.Tables, Links: res.Links}, nil
}

func (s *Service) defaultName(ctx context.Context) (string, error) {
	n, err := s.repo.Count(ctx)
	if err != nil {
		return "", fmt.Errorf("count graphs: %w", err)
	}
	return fmt.Sprintf("Untitled graph %d", n), nil
}
