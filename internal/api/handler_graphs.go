package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"fastcontrol/internal/db/mapper"
	"fastcontrol/internal/domain"
	graphsvc "fastcontrol/internal/service/graph"
)

type listGraphsResponse struct {
	Graphs        []mapper.GraphDocument `json:"graphs"`
	Total         int64                  `json:"total"`
	NextPageToken string                 `json:"next_page_token,omitempty"`
}

type createGraphRequest struct {
	ID        *string                         `json:"id,omitempty"`
	Name      string                          `json:"name"`
	TableDict map[string]mapper.TableDocument `json:"tableDict"`
	LinkDict  map[string]mapper.LinkDocument  `json:"linkDict"`
}

type diagnosticResponse struct {
	Kind         domain.DiagnosticKind `json:"kind"`
	Relationship int                   `json:"relationship"`
	Table        string                `json:"table,omitempty"`
	Field        string                `json:"field,omitempty"`
	Message      string                `json:"message"`
}

type importResponse struct {
	Graph       mapper.GraphDocument   `json:"graph"`
	Tables      []mapper.TableDocument `json:"tables"`
	Links       []mapper.LinkDocument  `json:"links"`
	Diagnostics []diagnosticResponse   `json:"diagnostics"`
}

type seedResponse struct {
	Created []mapper.GraphDocument `json:"created"`
}

// ListGraphs answers GET /v1/graphs.
func (h *Handler) ListGraphs(w http.ResponseWriter, r *http.Request) {
	page, err := pageFromQuery(r)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	graphs, total, err := h.graphs.ListGraphs(r.Context(), page)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listGraphsResponse{
		Graphs:        graphDocuments(graphs),
		Total:         total,
		NextPageToken: page.NextPageToken(total),
	})
}

// CreateGraph answers POST /v1/graphs.
func (h *Handler) CreateGraph(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)

	var req createGraphRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	links, err := mapper.LinksFromDocument(req.LinkDict)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	g, err := h.graphs.CreateGraph(r.Context(), domain.GraphInit{
		Name:   req.Name,
		Tables: mapper.TablesFromDocument(req.TableDict),
		Links:  links,
	}, req.ID)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, mapper.GraphToDocument(g))
}

// DeleteAllGraphs answers DELETE /v1/graphs.
func (h *Handler) DeleteAllGraphs(w http.ResponseWriter, r *http.Request) {
	if err := h.graphs.DeleteAllGraphs(r.Context()); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SeedExamples answers POST /v1/graphs/examples.
func (h *Handler) SeedExamples(w http.ResponseWriter, r *http.Request) {
	created, err := h.graphs.SeedExamples(r.Context())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, seedResponse{Created: graphDocuments(created)})
}

// GetGraph answers GET /v1/graphs/{graphID}.
func (h *Handler) GetGraph(w http.ResponseWriter, r *http.Request) {
	g, err := h.graphs.GetGraph(r.Context(), chi.URLParam(r, "graphID"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapper.GraphToDocument(g))
}

// SaveGraph answers PUT /v1/graphs/{graphID}. The body is a full graph
// document; its id, when present, must match the path.
func (h *Handler) SaveGraph(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "graphID")
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)

	var doc mapper.GraphDocument
	if err := decodeJSON(r, &doc); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	if doc.ID != "" && doc.ID != id {
		h.writeDomainError(w, r, domain.ErrValidation("graph id %q does not match path id %q", doc.ID, id))
		return
	}
	doc.ID = id
	g, err := mapper.GraphFromDocument(doc)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	saved, err := h.graphs.SaveGraph(r.Context(), g)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapper.GraphToDocument(saved))
}

// DeleteGraph answers DELETE /v1/graphs/{graphID}.
func (h *Handler) DeleteGraph(w http.ResponseWriter, r *http.Request) {
	if err := h.graphs.DeleteGraph(r.Context(), chi.URLParam(r, "graphID")); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ImportAsNewGraph answers POST /v1/graphs/import?dialect=&name=.
func (h *Handler) ImportAsNewGraph(w http.ResponseWriter, r *http.Request) {
	raw, err := h.readSchemaText(w, r)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	res, err := h.graphs.ImportAsNewGraph(r.Context(), raw, strings.TrimSpace(r.URL.Query().Get("name")))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, importResponseFrom(res))
}

// ImportText answers POST /v1/graphs/{graphID}/import?dialect=.
func (h *Handler) ImportText(w http.ResponseWriter, r *http.Request) {
	raw, err := h.readSchemaText(w, r)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	res, err := h.graphs.ImportText(r.Context(), chi.URLParam(r, "graphID"), raw)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, importResponseFrom(res))
}

// ImportDump answers POST /v1/graphs/{graphID}/import/dump.
func (h *Handler) ImportDump(w http.ResponseWriter, r *http.Request) {
	res, err := h.graphs.ImportDump(r.Context(), chi.URLParam(r, "graphID"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, importResponseFrom(res))
}

// ExportDBML answers GET /v1/graphs/{graphID}/dbml.
func (h *Handler) ExportDBML(w http.ResponseWriter, r *http.Request) {
	text, err := h.graphs.ExportDBML(r.Context(), chi.URLParam(r, "graphID"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(text))
}

func importResponseFrom(res *graphsvc.ImportResult) importResponse {
	out := importResponse{
		Graph:       mapper.GraphToDocument(res.Graph),
		Tables:      make([]mapper.TableDocument, 0, len(res.Tables)),
		Links:       make([]mapper.LinkDocument, 0, len(res.Links)),
		Diagnostics: make([]diagnosticResponse, 0, len(res.Diagnostics)),
	}
	for _, t := range res.Tables {
		out.Tables = append(out.Tables, mapper.TableToDocument(t))
	}
	for _, l := range res.Links {
		out.Links = append(out.Links, mapper.LinkToDocument(l))
	}
	for _, d := range res.Diagnostics {
		out.Diagnostics = append(out.Diagnostics, diagnosticResponse{
			Kind:         d.Kind,
			Relationship: d.Relationship,
			Table:        d.TableName,
			Field:        d.FieldName,
			Message:      d.Message,
		})
	}
	return out
}
