package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-logr/logr"
	gorillaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/paragor/answer-store/pkg/answer"
)

const (
	msgMissingField = "Data field is required"
	msgStored       = "Data received and stored successfully"
	msgInternal     = "Internal server error"
	msgTooLarge     = "Request entity too large"

	maxBodyBytes = 100 << 10
)

// Service is the answer store as seen by the API.
type Service interface {
	Submit(ctx context.Context, value string) error
	FetchLatest(ctx context.Context) (answer.StoredValue, error)
}

type (
	createAnswerRequest struct {
		Data string `json:"data"`
	}

	createAnswerResponse struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}

	errorResponse struct {
		Error string `json:"error"`
	}
)

type apiHandlers struct {
	logr.Logger

	svc     Service
	metrics *metrics
}

func (h *apiHandlers) addHandlers(r *mux.Router, allowedOrigins []string) {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	r.Use(gorillaHandlers.CORS(
		gorillaHandlers.AllowedOrigins(allowedOrigins),
		gorillaHandlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		gorillaHandlers.AllowedHeaders([]string{"Content-Type"}),
	))

	r.HandleFunc("/create-answer", h.createAnswer).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/answer", h.getAnswer).Methods(http.MethodGet, http.MethodOptions)
}

func (h *apiHandlers) createAnswer(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	var req createAnswerRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.V(1).Info("rejecting oversized body", "limit", tooLarge.Limit)
			h.metrics.submissions.WithLabelValues("rejected").Inc()
			writeError(w, http.StatusRequestEntityTooLarge, msgTooLarge)
			return
		}
		h.V(1).Info("rejecting malformed body", "err", err.Error())
		h.metrics.submissions.WithLabelValues("rejected").Inc()
		writeError(w, http.StatusBadRequest, msgMissingField)
		return
	}

	if err := h.svc.Submit(r.Context(), req.Data); err != nil {
		if errors.Is(err, answer.ErrMissingField) {
			h.metrics.submissions.WithLabelValues("rejected").Inc()
			writeError(w, http.StatusBadRequest, msgMissingField)
			return
		}
		h.Error(err, "processing request")
		h.metrics.submissions.WithLabelValues("error").Inc()
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}

	h.metrics.submissions.WithLabelValues("stored").Inc()
	writeJSON(w, http.StatusOK, createAnswerResponse{Success: true, Message: msgStored})
}

func (h *apiHandlers) getAnswer(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	v, err := h.svc.FetchLatest(r.Context())
	if err != nil {
		h.Error(err, "reading data")
		h.metrics.fetches.WithLabelValues("error").Inc()
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}

	h.metrics.fetches.WithLabelValues("ok").Inc()
	writeJSON(w, http.StatusOK, v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
