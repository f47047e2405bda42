package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/pkg/errors"

	"github.com/Siddarth2230/shortcode/internal/models"
	"github.com/Siddarth2230/shortcode/internal/service"
)

type CodeHandler struct {
	service *service.CodeService
}

func NewCodeHandler(svc *service.CodeService) *CodeHandler {
	return &CodeHandler{service: svc}
}

// POST /code
func (h *CodeHandler) Generate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req models.GenerateRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if req.Data == nil {
		writeError(w, http.StatusBadRequest, "missing field: data")
		return
	}

	rec, err := h.service.Generate(ctx, *req.Data)
	if err != nil {
		// storage failures are already logged by the service
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusCreated, rec)
}

// GET /code?code=...
func (h *CodeHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	code := r.URL.Query().Get("code")
	if code == "" {
		writeError(w, http.StatusBadRequest, "missing query parameter: code")
		return
	}

	rec, err := h.service.Lookup(ctx, code)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCode):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

// GET /healthz
func (h *CodeHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// helper: write JSON response
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// can't write a response now
		slog.Default().Warn("writeJSON encode error", slog.Any("error", err))
	}
}

// helper: write an error message in JSON form { "error": "msg" }
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
