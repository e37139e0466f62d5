package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"timed-quiz-service/internal/app"
	"timed-quiz-service/internal/domain"
)

// Handler serves the REST boundary: the sanitized question feed and the
// stateless submission endpoint.
type Handler struct {
	service *app.QuizService
}

func NewHandler(service *app.QuizService) *Handler {
	return &Handler{service: service}
}

// Register mounts the REST routes on the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/questions", h.handleQuestions)
	mux.HandleFunc("/submit", h.handleSubmit)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
}

// handleQuestions returns the ordered sanitized question set. The
// response never contains a correctness flag.
func (h *Handler) handleQuestions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	questions, err := h.service.ListQuestions(r.Context())
	if err != nil {
		http.Error(w, "questions unavailable", http.StatusServiceUnavailable)
		return
	}
	if questions == nil {
		questions = []domain.QuizQuestion{}
	}
	writeJSON(w, http.StatusOK, questions)
}

// handleSubmit grades a raw answer payload against the server-held
// ground truth and returns the detailed result.
func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var payload domain.AnswerPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid submission body", http.StatusBadRequest)
		return
	}
	result, err := h.service.Grade(r.Context(), payload)
	switch {
	case errors.Is(err, domain.ErrMalformedAnswer):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, domain.ErrScoringUnavailable):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	case err != nil:
		http.Error(w, "error calculating score", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}
