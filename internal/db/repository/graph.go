package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"fastcontrol/internal/db/mapper"
	"fastcontrol/internal/domain"
)

var _ domain.GraphRepository = (*GraphRepo)(nil)

const (
	graphColumns = `id, name, tables_json, links_json, created_at, updated_at`

	insertGraphSQL = `INSERT INTO graphs (` + graphColumns + `) VALUES (?, ?, ?, ?, ?, ?)`
	selectGraphSQL = `SELECT ` + graphColumns + ` FROM graphs WHERE id = ?`
	listGraphsSQL  = `SELECT ` + graphColumns + ` FROM graphs ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	countGraphsSQL = `SELECT count(*) FROM graphs`
	updateGraphSQL = `UPDATE graphs SET name = ?, tables_json = ?, links_json = ?, updated_at = ? WHERE id = ?`
	deleteGraphSQL = `DELETE FROM graphs WHERE id = ?`
	deleteAllSQL   = `DELETE FROM graphs`
)

// GraphRepo implements domain.GraphRepository on SQLite. Each graph is one
// row holding its tables and links as JSON documents. Writes go through the
// single-connection write pool, reads through the read pool.
type GraphRepo struct {
	write *sql.DB
	read  *sql.DB
	now   func() time.Time
}

// NewGraphRepo creates a GraphRepo. read may be nil, in which case the
// write pool serves reads as well.
func NewGraphRepo(write, read *sql.DB) *GraphRepo {
	if read == nil {
		read = write
	}
	return &GraphRepo{write: write, read: read, now: time.Now}
}

// Create inserts a new graph. Created and updated time are set to now.
func (r *GraphRepo) Create(ctx context.Context, init domain.GraphInit, id *string) (*domain.Graph, error) {
	gid := domain.NewID()
	if id != nil {
		if *id == "" {
			return nil, domain.ErrValidation("graph id must not be empty")
		}
		gid = *id
	}
	now := r.timestamp()
	g := &domain.Graph{
		ID:        gid,
		Name:      init.Name,
		Tables:    init.Tables,
		Links:     init.Links,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if g.Tables == nil {
		g.Tables = map[string]domain.TableNode{}
	}
	if g.Links == nil {
		g.Links = map[string]domain.LinkEdge{}
	}

	tables, links, err := encode(g)
	if err != nil {
		return nil, err
	}
	_, err = r.write.ExecContext(ctx, insertGraphSQL,
		g.ID, g.Name, tables, links, mapper.UnixMilli(now), mapper.UnixMilli(now))
	if err != nil {
		err = mapDBError(err)
		if _, ok := err.(*domain.ConflictError); ok {
			return nil, domain.ErrConflict("graph %q already exists", g.ID)
		}
		return nil, err
	}
	return g.Clone(), nil
}

// Get returns the graph with the given id.
func (r *GraphRepo) Get(ctx context.Context, id string) (*domain.Graph, error) {
	g, err := scanGraph(r.read.QueryRowContext(ctx, selectGraphSQL, id))
	if err != nil {
		if _, ok := err.(*domain.NotFoundError); ok {
			return nil, domain.ErrNotFound("graph %q not found", id)
		}
		return nil, err
	}
	return g, nil
}

// List returns a page of graphs, newest first, and the total count.
func (r *GraphRepo) List(ctx context.Context, page domain.PageRequest) ([]domain.Graph, int64, error) {
	total, err := r.Count(ctx)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.read.QueryContext(ctx, listGraphsSQL, page.Limit(), page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list graphs: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var out []domain.Graph
	for rows.Next() {
		g, err := scanGraph(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *g)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list graphs: %w", err)
	}
	return out, total, nil
}

// Update replaces the name, tables and links of an existing graph. A zero
// UpdatedAt is set to now; CreatedAt is never changed.
func (r *GraphRepo) Update(ctx context.Context, g *domain.Graph) (*domain.Graph, error) {
	out := g.Clone()
	if out.UpdatedAt.IsZero() {
		out.UpdatedAt = r.timestamp()
	}
	tables, links, err := encode(out)
	if err != nil {
		return nil, err
	}

	res, err := r.write.ExecContext(ctx, updateGraphSQL,
		out.Name, tables, links, mapper.UnixMilli(out.UpdatedAt), out.ID)
	if err != nil {
		return nil, mapDBError(err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, err
	} else if n == 0 {
		return nil, domain.ErrNotFound("graph %q not found", out.ID)
	}
	return r.Get(ctx, out.ID)
}

// Delete removes one graph.
func (r *GraphRepo) Delete(ctx context.Context, id string) error {
	res, err := r.write.ExecContext(ctx, deleteGraphSQL, id)
	if err != nil {
		return mapDBError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound("graph %q not found", id)
	}
	return nil
}

// DeleteAll removes every graph.
func (r *GraphRepo) DeleteAll(ctx context.Context) error {
	_, err := r.write.ExecContext(ctx, deleteAllSQL)
	return mapDBError(err)
}

// Count returns the number of stored graphs.
func (r *GraphRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.read.QueryRowContext(ctx, countGraphsSQL).Scan(&n); err != nil {
		return 0, fmt.Errorf("count graphs: %w", err)
	}
	return n, nil
}

// timestamp returns now truncated to the stored millisecond precision.
func (r *GraphRepo) timestamp() time.Time {
	return r.now().UTC().Truncate(time.Millisecond)
}

func encode(g *domain.Graph) (tables, links string, err error) {
	tables, err = mapper.MarshalTables(g.Tables)
	if err != nil {
		return "", "", err
	}
	links, err = mapper.MarshalLinks(g.Links)
	if err != nil {
		return "", "", err
	}
	return tables, links, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGraph(row rowScanner) (*domain.Graph, error) {
	var (
		g                  domain.Graph
		tables, links      string
		createdAt, updated int64
	)
	if err := row.Scan(&g.ID, &g.Name, &tables, &links, &createdAt, &updated); err != nil {
		return nil, mapDBError(err)
	}
	var err error
	if g.Tables, err = mapper.UnmarshalTables(tables); err != nil {
		return nil, fmt.Errorf("graph %q: %w", g.ID, err)
	}
	if g.Links, err = mapper.UnmarshalLinks(links); err != nil {
		return nil, fmt.Errorf("graph %q: %w", g.ID, err)
	}
	g.CreatedAt = mapper.FromUnixMilli(createdAt)
	g.UpdatedAt = mapper.FromUnixMilli(updated)
	return &g, nil
}
