// Package api is the JSON HTTP surface next to the chat gateways.
package api

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"warfarin-bot/internal/dose"
	"warfarin-bot/internal/records"
)

const maxBody = 64 << 10

// Handler serves the direct INR logging endpoint.
type Handler struct {
	sink records.Sink
}

func NewHandler(sink records.Sink) *Handler {
	return &Handler{sink: sink}
}

// RegisterRoutes mounts POST /log_inr.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/log_inr", h.LogINR)
}

// JSON writes v with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

// Error writes {"error": message}.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

type logRequest struct {
	UserID       string `json:"user_id"`
	Name         string `json:"name"`
	Birthdate    string `json:"birthdate"`
	INR          any    `json:"inr"`
	Bleeding     string `json:"bleeding"`
	Supplement   string `json:"supplement"`
	WarfarinDose string `json:"warfarin_dose"`
}

// LogINR forwards one record to the sink. user_id, name and inr are
// required; the INR may be sent as a number or a numeric string.
func (h *Handler) LogINR(w http.ResponseWriter, r *http.Request) {
	var req logRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBody)).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	req.UserID = strings.TrimSpace(req.UserID)
	req.Name = strings.TrimSpace(req.Name)
	if req.UserID == "" || req.Name == "" || missing(req.INR) {
		Error(w, http.StatusBadRequest, "Missing required fields")
		return
	}
	inr, err := parseINR(req.INR)
	if err != nil {
		Error(w, http.StatusBadRequest, "inr must be a number")
		return
	}

	outcome, err := h.sink.SubmitRecord(r.Context(), records.Record{
		UserID:     req.UserID,
		Name:       req.Name,
		Birthdate:  strings.TrimSpace(req.Birthdate),
		INR:        inr,
		Bleeding:   req.Bleeding,
		Supplement: req.Supplement,
		Doses:      records.ScheduleFromRaw(req.WarfarinDose),
	})
	if err != nil {
		log.Printf("❌ /log_inr submit for %s failed: %v", req.UserID, err)
		JSON(w, http.StatusBadGateway, map[string]string{"status": "failed", "error": err.Error()})
		return
	}
	JSON(w, http.StatusOK, map[string]string{"status": "sent", "google_response": outcome})
}

// missing treats null, zero and blank INR values as absent.
func missing(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case float64:
		return x == 0
	case string:
		return strings.TrimSpace(x) == ""
	}
	return false
}

func parseINR(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case string:
		return dose.ParseNumber(x)
	default:
		return 0, fmt.Errorf("unexpected inr type %T", v)
	}
}
