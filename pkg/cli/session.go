package cli

import (
	"context"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	internaldb "fastcontrol/internal/db"
	"fastcontrol/internal/db/repository"
	"fastcontrol/internal/domain"
	graphops "fastcontrol/internal/graph"
	"fastcontrol/internal/schemaparse"
	graphsvc "fastcontrol/internal/service/graph"
	"fastcontrol/internal/source"
)

// session is one command's connection to the graph store.
type session struct {
	graphs *graphsvc.Service
	pool   *internaldb.Pool
}

func (s *session) Close() error { return s.pool.Close() }

// openSession opens and migrates the graph store and wires the import
// pipeline. The dump source is configured only when --dump-url is set.
func (s *settings) openSession(cmd *cobra.Command) (*session, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	pool, err := internaldb.Open(s.db, 1)
	if err != nil {
		return nil, fmt.Errorf("open graph store: %w", err)
	}
	if err := internaldb.RunMigrations(ctx, pool.Write); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("migrate graph store: %w", err)
	}

	var dumpSource domain.SchemaSource
	if s.dumpURL != "" {
		dialect, err := domain.ParseDialect(s.dumpDialect)
		if err != nil {
			_ = pool.Close()
			return nil, err
		}
		dumpSource = &source.HTTPDumpProvider{
			URL:     s.dumpURL,
			Dialect: dialect,
			Client:  &http.Client{Timeout: source.DefaultTimeout},
		}
	}

	svc := graphsvc.New(
		repository.NewGraphRepo(pool.Write, pool.Read),
		dumpSource,
		schemaparse.NewParser(),
		graphops.NewNormalizer(domain.UUIDGenerator{}, graphops.DefaultLayout()),
		s.logger(cmd),
	)
	return &session{graphs: svc, pool: pool}, nil
}

// withSession runs fn with an open session and closes it afterwards.
func (s *settings) withSession(cmd *cobra.Command, fn func(ctx context.Context, sess *session) error) error {
	sess, err := s.openSession(cmd)
	if err != nil {
		return err
	}
	defer sess.Close() //nolint:errcheck

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return fn(ctx, sess)
}
