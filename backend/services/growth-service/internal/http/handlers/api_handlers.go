package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"growthwatch/backend/services/growth-service/internal/clients"
	"growthwatch/backend/services/growth-service/internal/growth"
	"growthwatch/backend/services/growth-service/internal/service"
)

// APIHandlers serves the JSON endpoints.
type APIHandlers struct {
	svc    *service.AssessmentService
	logger *zap.Logger
}

// NewAPIHandlers returns handler struct.
func NewAPIHandlers(svc *service.AssessmentService, logger *zap.Logger) *APIHandlers {
	return &APIHandlers{svc: svc, logger: logger}
}

type measurementRequest struct {
	growth.Measurement
	APIKey string `json:"api_key,omitempty"`
}

type classifyResponse struct {
	*service.Classification
	Rows  []growth.Triple `json:"rows"`
	Error string          `json:"error,omitempty"`
}

// Classify handles POST /api/classify.
func (h *APIHandlers) Classify(w http.ResponseWriter, r *http.Request) {
	var req measurementRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	c, err := h.svc.Classify(req.Measurement)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	resp := classifyResponse{Classification: c, Rows: c.Chart.Triples()}
	status := http.StatusOK
	if c.Result.Status == growth.StatusOutOfRange {
		status = http.StatusUnprocessableEntity
		resp.Error = (&growth.NoReferenceDataError{Strategy: c.Result.Strategy, AgeMonths: c.Measurement.AgeMonths}).Error()
	}
	writeJSON(w, status, resp)
}

type recommendationResponse struct {
	Status         growth.Status `json:"status"`
	Label          string        `json:"label"`
	Recommendation string        `json:"recommendation"`
}

// Recommendation handles POST /api/recommendation.
func (h *APIHandlers) Recommendation(w http.ResponseWriter, r *http.Request) {
	var req measurementRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	c, text, err := h.svc.Recommend(r.Context(), req.Measurement, req.APIKey)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recommendationResponse{
		Status:         c.Result.Status,
		Label:          c.Label,
		Recommendation: text,
	})
}

type referenceResponse struct {
	Strategy growth.StrategyName     `json:"strategy"`
	Kind     growth.TableKind        `json:"kind"`
	Points   []growth.ReferencePoint `json:"points"`
	Series   []growth.Series         `json:"series"`
}

// Reference handles GET /api/reference.
func (h *APIHandlers) Reference(w http.ResponseWriter, _ *http.Request) {
	strategy := h.svc.Strategy()
	table := strategy.Reference()
	chart := growth.DeriveChart(table, growth.Measurement{})
	writeJSON(w, http.StatusOK, referenceResponse{
		Strategy: strategy.Name(),
		Kind:     table.Kind(),
		Points:   table.Points(),
		Series:   chart.ReferenceSeries(),
	})
}

// Assessments handles GET /api/assessments.
func (h *APIHandlers) Assessments(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = parsed
	}
	rows, err := h.svc.History(r.Context(), limit)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"assessments": rows})
}

func (h *APIHandlers) writeServiceError(w http.ResponseWriter, err error) {
	var svcErr *clients.ServiceError
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, growth.ErrNoReferenceData):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, clients.ErrMissingCredential):
		writeError(w, http.StatusServiceUnavailable, service.MissingCredentialMessage)
	case errors.As(err, &svcErr):
		writeError(w, http.StatusBadGateway, service.ServiceFailureMessage)
	case errors.Is(err, service.ErrHistoryDisabled):
		writeError(w, http.StatusNotFound, "assessment history is disabled")
	default:
		h.logger.Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
