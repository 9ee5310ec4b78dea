// Package testutil provides shared mock implementations of domain interfaces
// for use in tests across the codebase.
package testutil

import (
	"context"
	"sync"

	"fastcontrol/internal/domain"
)

// === Graph Repository Mock ===

// MockGraphRepo implements domain.GraphRepository for testing. Methods
// without a function set panic.
type MockGraphRepo struct {
	ListFn      func(ctx context.Context, page domain.PageRequest) ([]domain.Graph, int64, error)
	GetFn       func(ctx context.Context, id string) (*domain.Graph, error)
	CreateFn    func(ctx context.Context, init domain.GraphInit, id *string) (*domain.Graph, error)
	UpdateFn    func(ctx context.Context, g *domain.Graph) (*domain.Graph, error)
	DeleteFn    func(ctx context.Context, id string) error
	DeleteAllFn func(ctx context.Context) error
	CountFn     func(ctx context.Context) (int64, error)

	mu      sync.Mutex
	Updates []*domain.Graph // collected Update arguments for assertions
}

var _ domain.GraphRepository = (*MockGraphRepo)(nil)

// List implements the interface method for testing.
func (m *MockGraphRepo) List(ctx context.Context, page domain.PageRequest) ([]domain.Graph, int64, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, page)
	}
	panic("unexpected call to MockGraphRepo.List")
}

// Get implements the interface method for testing.
func (m *MockGraphRepo) Get(ctx context.Context, id string) (*domain.Graph, error) {
	if m.GetFn != nil {
		return m.GetFn(ctx, id)
	}
	panic("unexpected call to MockGraphRepo.Get")
}

// Create implements the interface method for testing.
func (m *MockGraphRepo) Create(ctx context.Context, init domain.GraphInit, id *string) (*domain.Graph, error) {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, init, id)
	}
	panic("unexpected call to MockGraphRepo.Create")
}

// Update implements the interface method for testing.
func (m *MockGraphRepo) Update(ctx context.Context, g *domain.Graph) (*domain.Graph, error) {
	m.mu.Lock()
	m.Updates = append(m.Updates, g)
	m.mu.Unlock()
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, g)
	}
	panic("unexpected call to MockGraphRepo.Update")
}

// Delete implements the interface method for testing.
func (m *MockGraphRepo) Delete(ctx context.Context, id string) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}
	panic("unexpected call to MockGraphRepo.Delete")
}

// DeleteAll implements the interface method for testing.
func (m *MockGraphRepo) DeleteAll(ctx context.Context) error {
	if m.DeleteAllFn != nil {
		return m.DeleteAllFn(ctx)
	}
	panic("unexpected call to MockGraphRepo.DeleteAll")
}

// Count implements the interface method for testing.
func (m *MockGraphRepo) Count(ctx context.Context) (int64, error) {
	if m.CountFn != nil {
		return m.CountFn(ctx)
	}
	panic("unexpected call to MockGraphRepo.Count")
}

// UpdateCount returns the number of Update calls seen so far.
func (m *MockGraphRepo) UpdateCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Updates)
}

// === Schema Source Mock ===

// MockSchemaSource implements domain.SchemaSource for testing.
type MockSchemaSource struct {
	FetchDumpFn func(ctx context.Context) (domain.RawSchema, error)
	Calls       int
}

var _ domain.SchemaSource = (*MockSchemaSource)(nil)

// FetchDump implements the interface method for testing.
func (m *MockSchemaSource) FetchDump(ctx context.Context) (domain.RawSchema, error) {
	m.Calls++
	if m.FetchDumpFn != nil {
		return m.FetchDumpFn(ctx)
	}
	panic("unexpected call to MockSchemaSource.FetchDump")
}

// StaticSource returns a MockSchemaSource that always yields raw.
func StaticSource(raw domain.RawSchema) *MockSchemaSource {
	return &MockSchemaSource{FetchDumpFn: func(context.Context) (domain.RawSchema, error) { return raw, nil }}
}
