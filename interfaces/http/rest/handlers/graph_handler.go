package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Apanazar/WGE/application/commands"
	"github.com/Apanazar/WGE/application/mediator"
	"github.com/Apanazar/WGE/application/ports"
	"github.com/Apanazar/WGE/application/queries"
	"github.com/Apanazar/WGE/pkg/common"
	pkgerrors "github.com/Apanazar/WGE/pkg/errors"
)

// maxImportBytes caps an imported graph document
const maxImportBytes = 32 << 20

// PanelSource exposes what the presentation surface shows
type PanelSource interface {
	LastPresentation() (ports.Presentation, bool)
}

// PanelView is the body of GET /api/v2/panel
type PanelView struct {
	Open         bool                `json:"open"`
	Presentation *ports.Presentation `json:"presentation,omitempty"`
}

// GraphHandler handles workspace-wide requests
type GraphHandler struct {
	dispatcher
	panel PanelSource
}

// NewGraphHandler creates a new graph handler
func NewGraphHandler(
	m mediator.IMediator,
	panel PanelSource,
	errorHandler *pkgerrors.ErrorHandler,
	logger *zap.Logger,
) *GraphHandler {
	return &GraphHandler{
		dispatcher: dispatcher{mediator: m, errors: errorHandler, logger: logger},
		panel:      panel,
	}
}

// GetGraph handles GET /graph
func (h *GraphHandler) GetGraph(w http.ResponseWriter, r *http.Request) {
	h.query(w, r, &queries.GetGraphQuery{})
}

// Resolve handles GET /resolve?url=
func (h *GraphHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	h.query(w, r, &queries.ResolveURLQuery{URL: r.URL.Query().Get("url")})
}

// NewRoot handles POST /graph/root
func (h *GraphHandler) NewRoot(w http.ResponseWriter, r *http.Request) {
	var cmd commands.NewRootCommand
	if err := decodeJSON(w, r, &cmd); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	h.send(w, r, &cmd, http.StatusCreated)
}

// RandomRoot handles POST /graph/random
func (h *GraphHandler) RandomRoot(w http.ResponseWriter, r *http.Request) {
	var cmd commands.RandomRootCommand
	if err := decodeJSON(w, r, &cmd); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	h.send(w, r, &cmd, http.StatusCreated)
}

// SetLocale handles PUT /graph/locale
func (h *GraphHandler) SetLocale(w http.ResponseWriter, r *http.Request) {
	var cmd commands.SetLanguageCommand
	if err := decodeJSON(w, r, &cmd); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	if _, err := h.mediator.Send(r.Context(), &cmd); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]string{"language": cmd.Language})
}

// ClearSelection handles DELETE /selection
func (h *GraphHandler) ClearSelection(w http.ResponseWriter, r *http.Request) {
	if _, err := h.mediator.Send(r.Context(), &commands.ClearSelectionCommand{}); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetPanel handles GET /panel
func (h *GraphHandler) GetPanel(w http.ResponseWriter, r *http.Request) {
	view := PanelView{}
	if h.panel != nil {
		if p, ok := h.panel.LastPresentation(); ok {
			view.Open = true
			view.Presentation = &p
		}
	}
	common.RespondJSON(w, http.StatusOK, view)
}

// ClosePanel handles DELETE /panel
func (h *GraphHandler) ClosePanel(w http.ResponseWriter, r *http.Request) {
	if _, err := h.mediator.Send(r.Context(), &commands.CloseSurfaceCommand{}); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Export handles GET /export as a file download
func (h *GraphHandler) Export(w http.ResponseWriter, r *http.Request) {
	result, err := h.mediator.Query(r.Context(), &queries.ExportGraphQuery{})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	export, ok := result.(queries.ExportGraphResult)
	if !ok {
		h.errors.Handle(w, r, pkgerrors.NewInternalError("unexpected export result"))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName))
	w.WriteHeader(http.StatusOK)
	w.Write(export.Payload)
}

// Import handles POST /import. The document is the raw body or the "file"
// part of a multipart form.
func (h *GraphHandler) Import(w http.ResponseWriter, r *http.Request) {
	payload, err := readDocument(w, r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	h.send(w, r, &commands.ImportGraphCommand{Payload: payload}, http.StatusOK)
}

// Save handles POST /save
func (h *GraphHandler) Save(w http.ResponseWriter, r *http.Request) {
	h.send(w, r, &commands.SaveGraphCommand{}, http.StatusCreated)
}

// ListSnapshots handles GET /snapshots
func (h *GraphHandler) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	h.query(w, r, &queries.ListSnapshotsQuery{})
}

// SaveSnapshot handles PUT /snapshots/{name}
func (h *GraphHandler) SaveSnapshot(w http.ResponseWriter, r *http.Request) {
	h.send(w, r, &commands.SaveSnapshotCommand{Name: chi.URLParam(r, "name")}, http.StatusOK)
}

// LoadSnapshot handles POST /snapshots/{name}/load
func (h *GraphHandler) LoadSnapshot(w http.ResponseWriter, r *http.Request) {
	h.send(w, r, &commands.LoadSnapshotCommand{Name: chi.URLParam(r, "name")}, http.StatusOK)
}

func readDocument(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportBytes)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, _, err := r.FormFile("file")
		if err != nil {
			return nil, pkgerrors.NewValidationError("file part is required")
		}
		defer file.Close()
		return io.ReadAll(file)
	}

	payload, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, pkgerrors.NewValidationError("failed to read document: " + err.Error())
	}
	return payload, nil
}
