// Package handlers adapts HTTP requests to mediator commands and queries.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	commandbus "github.com/Apanazar/WGE/application/commands/bus"
	"github.com/Apanazar/WGE/application/mediator"
	querybus "github.com/Apanazar/WGE/application/queries/bus"
	"github.com/Apanazar/WGE/domain/core/valueobjects"
	"github.com/Apanazar/WGE/pkg/common"
	pkgerrors "github.com/Apanazar/WGE/pkg/errors"
)

// maxBodyBytes caps JSON request bodies
const maxBodyBytes = 1 << 20

// decodeJSON reads an optional JSON body into v. An empty body leaves v
// untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return pkgerrors.NewValidationError("invalid request body: " + err.Error())
	}
	return nil
}

// nodeIDParam parses the {nodeID} path segment
func nodeIDParam(r *http.Request) (valueobjects.NodeID, error) {
	raw := chi.URLParam(r, "nodeID")
	id, err := valueobjects.ParseNodeID(raw)
	if err != nil || !id.IsAssigned() {
		return valueobjects.UnassignedNodeID, pkgerrors.NewValidationError("invalid node id: " + raw)
	}
	return id, nil
}

// dispatcher sends requests through the mediator and writes the enveloped
// result or the mapped error
type dispatcher struct {
	mediator mediator.IMediator
	errors   *pkgerrors.ErrorHandler
	logger   *zap.Logger
}

func (d dispatcher) send(w http.ResponseWriter, r *http.Request, cmd commandbus.Command, status int) {
	result, err := d.mediator.Send(r.Context(), cmd)
	if err != nil {
		d.errors.Handle(w, r, err)
		return
	}
	if result == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	common.RespondJSON(w, status, result)
}

func (d dispatcher) query(w http.ResponseWriter, r *http.Request, q querybus.Query) {
	result, err := d.mediator.Query(r.Context(), q)
	if err != nil {
		d.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, result)
}
