package app

import (
	"context"
	"log/slog"

	graphsvc "fastcontrol/internal/service/graph"
)

// seedExamples creates the bundled example graphs. Idempotent: examples that
// already exist are skipped by the service.
func seedExamples(ctx context.Context, svc *graphsvc.Service, logger *slog.Logger) error {
	created, err := svc.SeedExamples(ctx)
	if err != nil {
		return err
	}
	for _, g := range created {
		logger.Info("example graph seeded", "graph_id", g.ID, "name", g.Name, "tables", len(g.Tables))
	}
	return nil
}
