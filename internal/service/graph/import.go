package graph

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"fastcontrol/internal/domain"
	graphops "fastcontrol/internal/graph"
	"fastcontrol/internal/schemaparse"
	"fastcontrol/internal/source"
)

// ImportResult describes the outcome of one import.
type ImportResult struct {
	Graph *domain.Graph
	// Tables are the new tables in schema order.
	Tables []domain.TableNode
	// Links are the new links ordered by id.
	Links       []domain.LinkEdge
	Diagnostics []domain.Diagnostic
}

// ImportDump fetches a schema dump from the configured source and merges it
// into the graph. On any error the stored graph is unchanged.
func (s *Service) ImportDump(ctx context.Context, graphID string) (*ImportResult, error) {
	if s.source == nil {
		return nil, domain.ErrSourceUnavailable(nil, "no dump source configured")
	}
	return s.importInto(ctx, graphID, s.source)
}

// ImportText merges the given schema text into the graph.
func (s *Service) ImportText(ctx context.Context, graphID string, raw domain.RawSchema) (*ImportResult, error) {
	return s.importInto(ctx, graphID, source.TextSource{Text: raw.Text, Dialect: raw.Dialect})
}

// ImportAsNewGraph creates a new graph holding the given schema. Nothing is
// stored unless parsing and normalization succeed.
func (s *Service) ImportAsNewGraph(ctx context.Context, raw domain.RawSchema, name string) (*ImportResult, error) {
	res, err := s.build(raw, nil)
	if err != nil {
		return nil, err
	}
	g, err := s.CreateGraph(ctx, domain.GraphInit{Name: name, Tables: res.Tables, Links: res.Links}, nil)
	if err != nil {
		return nil, err
	}
	out := newImportResult(g, res)
	s.logImport(g.ID, out)
	return out, nil
}

// ExportDBML renders a stored graph as DBML.
func (s *Service) ExportDBML(ctx context.Context, graphID string) (string, error) {
	g, err := s.repo.Get(ctx, graphID)
	if err != nil {
		return "", err
	}
	return schemaparse.FormatDBML(g), nil
}

func (s *Service) importInto(ctx context.Context, graphID string, src domain.SchemaSource) (*ImportResult, error) {
	if err := s.acquire(graphID); err != nil {
		return nil, err
	}
	defer s.release(graphID)

	current, err := s.repo.Get(ctx, graphID)
	if err != nil {
		return nil, err
	}

	raw, err := src.FetchDump(ctx)
	if err != nil {
		return nil, err
	}

	res, err := s.build(raw, current.TableList())
	if err != nil {
		return nil, err
	}

	merged, err := graphops.Merge(current, res.Tables, res.Links, s.now())
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}

	saved, err := s.repo.Update(ctx, merged)
	if err != nil {
		return nil, fmt.Errorf("save graph: %w", err)
	}

	out := newImportResult(saved, res)
	s.logImport(graphID, out)
	return out, nil
}

// build runs the pure stages of the pipeline: parse and normalize.
func (s *Service) build(raw domain.RawSchema, existing []domain.TableNode) (*graphops.NormalizeResult, error) {
	schema, err := s.parser.Parse(raw.Text, raw.Dialect)
	if err != nil {
		return nil, err
	}
	res, err := s.normalizer.Normalize(schema, existing)
	if err != nil {
		return nil, fmt.Errorf("normalize: %w", err)
	}
	return res, nil
}

func (s *Service) acquire(graphID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inFlight[graphID]; busy {
		return domain.ErrConflict("an import into graph %q is already in progress", graphID)
	}
	s.inFlight[graphID] = struct{}{}
	return nil
}

func (s *Service) release(graphID string) {
	s.mu.Lock()
	delete(s.inFlight, graphID)
	s.mu.Unlock()
}

func (s *Service) logImport(graphID string, res *ImportResult) {
	for _, d := range res.Diagnostics {
		s.logger.Warn("import diagnostic", "graph_id", graphID, "kind", d.Kind, "detail", d.String())
	}
	s.logger.Info("schema imported", "graph_id", graphID,
		"tables", len(res.Tables), "links", len(res.Links), "diagnostics", len(res.Diagnostics))
}

func newImportResult(g *domain.Graph, res *graphops.NormalizeResult) *ImportResult {
	out := &ImportResult{Graph: g, Diagnostics: res.Diagnostics}
	for _, id := range res.TableOrder {
		out.Tables = append(out.Tables, res.Tables[id])
	}
	for _, l := range res.Links {
		out.Links = append(out.Links, l)
	}
	sort.Slice(out.Links, func(i, j int) bool { return out.Links[i].ID < out.Links[j].ID })
	return out
}

func isNotFound(err error) bool {
	var nf *domain.NotFoundError
	return errors.As(err, &nf)
}

func isConflict(err error) bool {
	var c *domain.ConflictError
	return errors.As(err, &c)
}
