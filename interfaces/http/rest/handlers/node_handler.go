package handlers

import (
	"io"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/Apanazar/WGE/application/commands"
	"github.com/Apanazar/WGE/application/mediator"
	"github.com/Apanazar/WGE/application/ports"
	"github.com/Apanazar/WGE/application/queries"
	"github.com/Apanazar/WGE/domain/core/valueobjects"
	"github.com/Apanazar/WGE/infrastructure/prompt"
	"github.com/Apanazar/WGE/pkg/common"
	pkgerrors "github.com/Apanazar/WGE/pkg/errors"
)

const (
	// maxUploadBytes caps a multipart upload request
	maxUploadBytes = 64 << 20

	// uploadMemory is kept in memory before spilling parts to disk
	uploadMemory = 8 << 20
)

// NodeHandler handles requests on single nodes and edges
type NodeHandler struct {
	dispatcher
}

// NewNodeHandler creates a new node handler
func NewNodeHandler(m mediator.IMediator, errorHandler *pkgerrors.ErrorHandler, logger *zap.Logger) *NodeHandler {
	return &NodeHandler{dispatcher: dispatcher{mediator: m, errors: errorHandler, logger: logger}}
}

// AddURLNodeRequest is the body of POST /nodes/url. Web pages without a
// title are named by the title prompt; DismissPrompt answers it with a
// cancel.
type AddURLNodeRequest struct {
	URL           string                 `json:"url"`
	Title         string                 `json:"title,omitempty"`
	Position      *valueobjects.Position `json:"position,omitempty"`
	DismissPrompt bool                   `json:"dismissPrompt,omitempty"`
}

// AddURLNode handles POST /nodes/url
func (h *NodeHandler) AddURLNode(w http.ResponseWriter, r *http.Request) {
	var req AddURLNodeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	if req.DismissPrompt {
		r = r.WithContext(prompt.WithDismissed(r.Context()))
	}

	cmd := &commands.AddURLNodeCommand{URL: req.URL, Title: req.Title, Position: req.Position}
	result, err := h.mediator.Send(r.Context(), cmd)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	status := http.StatusOK
	if res, ok := result.(commands.AddURLNodeResult); ok && res.Created {
		status = http.StatusCreated
	}
	common.RespondJSON(w, status, result)
}

// AddNotice handles POST /nodes/notice
func (h *NodeHandler) AddNotice(w http.ResponseWriter, r *http.Request) {
	var cmd commands.AddNoticeCommand
	if err := decodeJSON(w, r, &cmd); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	h.send(w, r, &cmd, http.StatusCreated)
}

// Upload handles POST /nodes/upload. Files come in "files" parts; the
// optional x and y fields give the drop point.
func (h *NodeHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(uploadMemory); err != nil {
		h.errors.Handle(w, r, pkgerrors.NewValidationError("invalid multipart form: "+err.Error()))
		return
	}
	defer r.MultipartForm.RemoveAll()

	var center valueobjects.Position
	center.X, _ = strconv.ParseFloat(r.FormValue("x"), 64)
	center.Y, _ = strconv.ParseFloat(r.FormValue("y"), 64)

	headers := r.MultipartForm.File["files"]
	files := make([]ports.UploadedFile, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			h.errors.Handle(w, r, pkgerrors.NewValidationError("unreadable file "+fh.Filename))
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			h.errors.Handle(w, r, pkgerrors.NewValidationError("unreadable file "+fh.Filename))
			return
		}
		files = append(files, ports.UploadedFile{
			Name:      fh.Filename,
			MediaType: fh.Header.Get("Content-Type"),
			Data:      data,
		})
	}

	h.send(w, r, &commands.UploadFilesCommand{Files: files, Center: center}, http.StatusCreated)
}

// GetNode handles GET /nodes/{nodeID}
func (h *NodeHandler) GetNode(w http.ResponseWriter, r *http.Request) {
	id, err := nodeIDParam(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	h.query(w, r, &queries.GetNodeQuery{NodeID: id})
}

// DeleteNode handles DELETE /nodes/{nodeID}
func (h *NodeHandler) DeleteNode(w http.ResponseWriter, r *http.Request) {
	id, err := nodeIDParam(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	h.send(w, r, &commands.DeleteNodeCommand{NodeID: id}, http.StatusOK)
}

// Activate handles POST /nodes/{nodeID}/activate?limit=
func (h *NodeHandler) Activate(w http.ResponseWriter, r *http.Request) {
	id, err := nodeIDParam(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	h.send(w, r, &commands.ActivateNodeCommand{NodeID: id, Limit: limit}, http.StatusOK)
}

// Detach handles POST /nodes/{nodeID}/detach. With ?toggle=true a detached
// node is reattached instead.
func (h *NodeHandler) Detach(w http.ResponseWriter, r *http.Request) {
	id, err := nodeIDParam(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	if toggle, _ := strconv.ParseBool(r.URL.Query().Get("toggle")); toggle {
		h.send(w, r, &commands.ToggleDetachCommand{NodeID: id}, http.StatusOK)
		return
	}
	h.send(w, r, &commands.DetachNodeCommand{NodeID: id}, http.StatusOK)
}

// Reattach handles POST /nodes/{nodeID}/reattach
func (h *NodeHandler) Reattach(w http.ResponseWriter, r *http.Request) {
	id, err := nodeIDParam(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	h.send(w, r, &commands.ReattachNodeCommand{NodeID: id}, http.StatusOK)
}

// EditTitle handles PUT /nodes/{nodeID}/title
func (h *NodeHandler) EditTitle(w http.ResponseWriter, r *http.Request) {
	id, err := nodeIDParam(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	var body struct {
		Title string `json:"title"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	h.send(w, r, &commands.EditTitleCommand{NodeID: id, Title: body.Title}, http.StatusOK)
}

// Move handles PUT /nodes/{nodeID}/position
func (h *NodeHandler) Move(w http.ResponseWriter, r *http.Request) {
	id, err := nodeIDParam(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	var pos valueobjects.Position
	if err := decodeJSON(w, r, &pos); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	h.send(w, r, &commands.MoveNodeCommand{NodeID: id, Position: pos}, http.StatusOK)
}

// UpdateNotice handles PUT /nodes/{nodeID}/notice
func (h *NodeHandler) UpdateNotice(w http.ResponseWriter, r *http.Request) {
	id, err := nodeIDParam(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	var body struct {
		Title string `json:"title"`
		Body  string `json:"body"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	h.send(w, r, &commands.UpdateNoticeCommand{NodeID: id, Title: body.Title, Body: body.Body}, http.StatusOK)
}

// Select handles POST /nodes/{nodeID}/select, one click of the manual
// connection gesture
func (h *NodeHandler) Select(w http.ResponseWriter, r *http.Request) {
	id, err := nodeIDParam(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	h.send(w, r, &commands.ClickNodeCommand{NodeID: id}, http.StatusOK)
}

// Connect handles POST /edges
func (h *NodeHandler) Connect(w http.ResponseWriter, r *http.Request) {
	var cmd commands.ConnectNodesCommand
	if err := decodeJSON(w, r, &cmd); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	h.send(w, r, &cmd, http.StatusOK)
}
