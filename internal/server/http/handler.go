// Package httpserver exposes the activity pipeline over HTTP.
package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/and161185/activities/internal/api"
	"github.com/and161185/activities/internal/service"
)

const maxBodyBytes = 1 << 20

// Handler maps HTTP requests onto pipeline operations.
type Handler struct {
	p   *service.Pipeline
	log *zap.Logger
}

// NewHandler builds a Handler.
func NewHandler(p *service.Pipeline, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{p: p, log: log}
}

// RegisterRoutes wires activity endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /activities", h.list)
	mux.HandleFunc("POST /activities", h.create)
	mux.HandleFunc("GET /activities/{id}", h.details)
	mux.HandleFunc("PUT /activities/{id}", h.edit)
	mux.HandleFunc("DELETE /activities/{id}", h.delete)
	mux.HandleFunc("GET /healthz", healthz)
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	out, err := service.Dispatch[[]api.ActivityDTO](r.Context(), h.p, service.OpList, service.ListQuery{})
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) details(w http.ResponseWriter, r *http.Request) {
	out, err := service.Dispatch[api.ActivityDTO](r.Context(), h.p, service.OpDetails, service.DetailsQuery{ID: r.PathValue("id")})
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var in api.ActivityDTO
	if err := decode(w, r, &in); err != nil {
		h.writeFailure(w, err)
		return
	}
	if _, err := service.Dispatch[service.Ack](r.Context(), h.p, service.OpCreate, service.CreateCommand{Activity: in}); err != nil {
		h.writeFailure(w, err)
		return
	}
	w.Header().Set("Location", "/activities/"+url.PathEscape(in.ID))
	w.WriteHeader(http.StatusCreated)
}

func (h *Handler) edit(w http.ResponseWriter, r *http.Request) {
	var in api.ActivityDTO
	if err := decode(w, r, &in); err != nil {
		h.writeFailure(w, err)
		return
	}
	cmd := service.EditCommand{ID: r.PathValue("id"), Activity: in}
	if _, err := service.Dispatch[service.Ack](r.Context(), h.p, service.OpEdit, cmd); err != nil {
		h.writeFailure(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	cmd := service.DeleteCommand{ID: r.PathValue("id")}
	if _, err := service.Dispatch[service.Ack](r.Context(), h.p, service.OpDelete, cmd); err != nil {
		h.writeFailure(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// decode reads a JSON body; malformed input becomes a BadRequest failure.
func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return &service.Failure{Kind: api.KindBadRequest, Message: "request body too large"}
		}
		return &service.Failure{Kind: api.KindBadRequest, Message: fmt.Sprintf("invalid request body: %v", err)}
	}
	return nil
}

// StatusFor maps a failure kind to its HTTP status.
func StatusFor(kind api.ErrorKind) int {
	switch kind {
	case api.KindNotFound:
		return http.StatusNotFound
	case api.KindConflict:
		return http.StatusConflict
	case api.KindBadRequest:
		return http.StatusBadRequest
	default:
		return http.StatusServiceUnavailable
	}
}

func (h *Handler) writeFailure(w http.ResponseWriter, err error) {
	f := service.AsFailure(err)
	writeJSON(w, StatusFor(f.Kind), f.Body())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
