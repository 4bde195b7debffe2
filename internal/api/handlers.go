// Package api exposes the HTTP handlers for the WildWarden server.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Aman-Sigroha/WildWardenServer/internal/domain"
)

// Pinger reports backing-store connectivity for health checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler coordinates HTTP requests with the case service.
type Handler struct {
	service *domain.Service
	pinger  Pinger
	logger  *zap.Logger
}

// NewHandler builds a Handler.
func NewHandler(service *domain.Service, pinger Pinger, logger *zap.Logger) *Handler {
	return &Handler{service: service, pinger: pinger, logger: logger}
}

// RegisterRoutes wires endpoints to the router. Literal paths are registered
// before parameterised ones so /cases/pending is never captured as an id.
func (h *Handler) RegisterRoutes(r *mux.Router) {
	cases := r.PathPrefix("/api").Subrouter()
	cases.HandleFunc("/cases", h.ingestCase).Methods(http.MethodPost)
	cases.HandleFunc("/cases", h.listAll).Methods(http.MethodGet)
	cases.HandleFunc("/cases/pending", h.listPending).Methods(http.MethodGet)
	cases.HandleFunc("/cases/processed", h.listProcessed).Methods(http.MethodGet)
	cases.HandleFunc("/cases/device/{deviceId}", h.listByDevice).Methods(http.MethodGet)
	cases.HandleFunc("/cases/{id}/accept", h.acceptCase).Methods(http.MethodPost)
	cases.HandleFunc("/cases/{id}/reject", h.rejectCase).Methods(http.MethodPost)
	cases.HandleFunc("/cases/{id}", h.deleteCase).Methods(http.MethodDelete)
	cases.HandleFunc("/buzzer-status", h.buzzerStatus).Methods(http.MethodGet)

	r.HandleFunc("/healthz", h.healthz).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
}

func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	if h.pinger != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.pinger.Ping(ctx); err != nil {
			writeError(w, http.StatusServiceUnavailable, "store unreachable")
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) ingestCase(w http.ResponseWriter, r *http.Request) {
	var req IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "unable to parse body")
		return
	}

	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	c, purged, err := h.service.Ingest(r.Context(), req.toInput())
	if err != nil {
		h.logger.Error("ingest failed", zap.String("deviceId", req.DeviceID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to store case")
		return
	}

	writeJSON(w, http.StatusOK, IngestResponse{
		Message:              "case created",
		CaseID:               c.ID,
		RemovedPreviousCases: purged > 0,
		RemovedCount:         purged,
	})
}

func (h *Handler) listAll(w http.ResponseWriter, r *http.Request) {
	h.writeList(w, r, h.service.ListAll)
}

func (h *Handler) listPending(w http.ResponseWriter, r *http.Request) {
	h.writeList(w, r, h.service.ListPending)
}

func (h *Handler) listProcessed(w http.ResponseWriter, r *http.Request) {
	h.writeList(w, r, h.service.ListProcessed)
}

func (h *Handler) writeList(w http.ResponseWriter, r *http.Request, list func(context.Context) ([]domain.Case, error)) {
	cases, err := list(r.Context())
	if err != nil {
		h.logger.Error("list failed", zap.String("path", r.URL.Path), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list cases")
		return
	}
	writeJSON(w, http.StatusOK, cases)
}

func (h *Handler) listByDevice(w http.ResponseWriter, r *http.Request) {
	deviceID := mux.Vars(r)["deviceId"]
	cases, err := h.service.ListByDevice(r.Context(), deviceID)
	if err != nil {
		h.logger.Error("list by device failed", zap.String("deviceId", deviceID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list cases")
		return
	}
	writeJSON(w, http.StatusOK, cases)
}

func (h *Handler) acceptCase(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Accept, "case accepted")
}

func (h *Handler) rejectCase(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Reject, "case rejected")
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, apply func(context.Context, string) (*domain.Case, error), message string) {
	id := mux.Vars(r)["id"]
	c, err := apply(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrCaseNotFound) {
			writeError(w, http.StatusNotFound, "case not found")
			return
		}
		h.logger.Error("status update failed", zap.String("caseId", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to update case")
		return
	}
	writeJSON(w, http.StatusOK, TransitionResponse{Message: message, Case: *c})
}

func (h *Handler) deleteCase(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.service.Delete(r.Context(), id); err != nil {
		if errors.Is(err, domain.ErrCaseNotFound) {
			writeError(w, http.StatusNotFound, "case not found")
			return
		}
		h.logger.Error("delete failed", zap.String("caseId", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to delete case")
		return
	}
	writeJSON(w, http.StatusOK, DeleteResponse{Message: "case deleted", CaseID: id})
}

func (h *Handler) buzzerStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.service.Buzzer(r.Context())
	if err != nil {
		h.logger.Error("buzzer evaluation failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to read pending cases")
		return
	}
	writeJSON(w, http.StatusOK, BuzzerResponse{
		BuzzerActive:      status.Active,
		PendingCasesCount: len(status.Pending),
		Cases:             status.Pending,
	})
}

// IngestRequest is the payload for POST /api/cases. Numeric vitals use
// pointers so an absent field and a zero value are both rejected, matching
// the tracker firmware contract.
type IngestRequest struct {
	HeartRate     *float64        `json:"heartRate"`
	Temperature   *float64        `json:"temperature"`
	SpO2          *float64        `json:"spo2"`
	GPS           *domain.GPS     `json:"gps"`
	Accelerometer *domain.Vector3 `json:"accelerometer"`
	Gyroscope     *domain.Vector3 `json:"gyroscope"`
	DeviceID      string          `json:"deviceId"`
}

// Validate ensures every required field is present.
func (r IngestRequest) Validate() error {
	if r.HeartRate == nil || *r.HeartRate == 0 {
		return errors.New("heartRate is required")
	}
	if r.Temperature == nil || *r.Temperature == 0 {
		return errors.New("temperature is required")
	}
	if r.SpO2 == nil || *r.SpO2 == 0 {
		return errors.New("spo2 is required")
	}
	if r.GPS == nil {
		return errors.New("gps is required")
	}
	if r.Accelerometer == nil {
		return errors.New("accelerometer is required")
	}
	if r.Gyroscope == nil {
		return errors.New("gyroscope is required")
	}
	if strings.TrimSpace(r.DeviceID) == "" {
		return errors.New("deviceId is required")
	}
	return nil
}

func (r IngestRequest) toInput() domain.IngestInput {
	return domain.IngestInput{
		HeartRate:     *r.HeartRate,
		Temperature:   *r.Temperature,
		SpO2:          *r.SpO2,
		GPS:           *r.GPS,
		Accelerometer: *r.Accelerometer,
		Gyroscope:     *r.Gyroscope,
		DeviceID:      strings.TrimSpace(r.DeviceID),
	}
}

// IngestResponse describes the response body for ingest.
type IngestResponse struct {
	Message              string `json:"message"`
	CaseID               string `json:"caseId"`
	RemovedPreviousCases bool   `json:"removedPreviousCases"`
	RemovedCount         int64  `json:"removedCount"`
}

// TransitionResponse carries the post-update case after accept/reject.
type TransitionResponse struct {
	Message string      `json:"message"`
	Case    domain.Case `json:"case"`
}

// DeleteResponse acknowledges a removal.
type DeleteResponse struct {
	Message string `json:"message"`
	CaseID  string `json:"caseId"`
}

// BuzzerResponse is the derived alert signal for the dispatcher console.
type BuzzerResponse struct {
	BuzzerActive      bool                 `json:"buzzerActive"`
	PendingCasesCount int                  `json:"pendingCasesCount"`
	Cases             []domain.CaseSummary `json:"cases"`
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
