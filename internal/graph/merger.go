package graph

import (
	"time"

	"fastcontrol/internal/domain"
)

// Merge returns a copy of current with the new tables and links added and
// UpdatedAt set to now. Existing entries are never removed, replaced or
// renumbered. A key already present in current yields an
// *domain.IdentifierCollisionError, and a new link that does not resolve in
// the merged graph yields a *domain.DanglingReferenceError. current is never
// modified.
func Merge(current *domain.Graph, tables map[string]domain.TableNode, links map[string]domain.LinkEdge, now time.Time) (*domain.Graph, error) {
	if current == nil {
		return nil, domain.ErrValidation("merge target graph is nil")
	}
	out := current.Clone()

	for id, t := range tables {
		if t.ID != id {
			return nil, domain.ErrValidation("table key %q does not match table id %q", id, t.ID)
		}
		if _, dup := out.Tables[id]; dup {
			return nil, &domain.IdentifierCollisionError{Kind: "table", ID: id}
		}
		t.Fields = append([]domain.FieldEntry(nil), t.Fields...)
		out.Tables[id] = t
	}
	for id, l := range links {
		if l.ID != id {
			return nil, domain.ErrValidation("link key %q does not match link id %q", id, l.ID)
		}
		if _, dup := out.Links[id]; dup {
			return nil, &domain.IdentifierCollisionError{Kind: "link", ID: id}
		}
		out.Links[id] = l
	}
	for _, l := range links {
		if err := out.CheckLink(l); err != nil {
			return nil, err
		}
	}

	out.UpdatedAt = now
	return out, nil
}
