package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"access-risk-service/internal/config"
	"access-risk-service/internal/model"
	"access-risk-service/internal/service"
	"access-risk-service/internal/util"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// RiskHandler handles HTTP requests for risk scoring operations
type RiskHandler struct {
	predictionService *service.PredictionService
	cfg               *config.Config
	logger            *zap.Logger
}

// NewRiskHandler creates a new risk handler
func NewRiskHandler(predictionService *service.PredictionService, cfg *config.Config, logger *zap.Logger) *RiskHandler {
	return &RiskHandler{
		predictionService: predictionService,
		cfg:               cfg,
		logger:            logger,
	}
}

// Response represents a standard API response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Message string      `json:"message,omitempty"`
}

// successResponse creates a successful response
func successResponse(data interface{}, message string) Response {
	return Response{
		Success: true,
		Data:    data,
		Message: message,
	}
}

// errorResponse creates an error response
func errorResponse(err error, message string) Response {
	return Response{
		Success: false,
		Error:   err.Error(),
		Message: message,
	}
}

// RegisterRoutes registers all risk routes
func (h *RiskHandler) RegisterRoutes(router chi.Router) {
	router.Route("/risk", func(r chi.Router) {
		r.Post("/predict", h.Predict)
		r.Get("/options", h.GetOptions)
		r.Get("/health", h.HealthCheck)
	})
}

// Predict handles risk prediction for a single access event
// @Summary Score an access event
// @Description Derive risk features, score the event and run the temporal model
// @Tags risk
// @Accept json
// @Produce json
// @Param request body model.PredictRequest true "Access event"
// @Success 200 {object} Response
// @Failure 400 {object} Response
// @Failure 404 {object} Response
// @Failure 500 {object} Response
// @Router /risk/predict [post]
func (h *RiskHandler) Predict(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	var req model.PredictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	result, err := h.predictionService.Predict(ctx, req)
	if err != nil {
		statusCode := h.getStatusCode(err)
		h.respondWithError(w, statusCode, err, "Failed to score access event")
		return
	}

	h.respondWithJSON(w, http.StatusOK, successResponse(result, "Access event scored successfully"))
	h.logger.Info("Access event scored via HTTP",
		util.String("user_id", req.UserID),
		util.String("verdict", result.IsRisky),
		util.Duration("duration", time.Since(startTime)),
		util.String("method", "Predict"),
	)
}

// GetOptions handles scoring metadata retrieval
// @Summary Get scoring options
// @Description Get the accepted field enumerations and window length
// @Tags risk
// @Produce json
// @Success 200 {object} Response
// @Router /risk/options [get]
func (h *RiskHandler) GetOptions(w http.ResponseWriter, r *http.Request) {
	enums := h.cfg.Enums
	options := map[string]interface{}{
		"mfa_methods":     enums.MFAMethods,
		"applications":    enums.Applications,
		"browsers":        enums.Browsers,
		"oses":            enums.OSes,
		"units":           enums.Units,
		"titles":          enums.Titles,
		"sequence_length": h.cfg.Risk.SequenceLength,
		"risk_weights":    h.cfg.Risk.Weights,
	}

	h.respondWithJSON(w, http.StatusOK, successResponse(options, "Scoring options retrieved successfully"))
}

// HealthCheck handles service health check
// @Summary Health check
// @Description Check if the scoring pipeline and model endpoint are healthy
// @Tags risk
// @Produce json
// @Success 200 {object} Response
// @Failure 503 {object} Response
// @Router /risk/health [get]
func (h *RiskHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.predictionService.HealthCheck(ctx); err != nil {
		h.respondWithError(w, http.StatusServiceUnavailable, err, "Service unhealthy")
		return
	}

	h.respondWithJSON(w, http.StatusOK, successResponse(nil, "Service is healthy"))
}

// Helper Methods

// respondWithJSON sends a JSON response
func (h *RiskHandler) respondWithJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode JSON response", util.ErrorField(err))
	}
}

// respondWithError sends an error response
func (h *RiskHandler) respondWithError(w http.ResponseWriter, statusCode int, err error, message string) {
	h.logger.Warn("HTTP error response",
		util.ErrorField(err),
		util.Int("status_code", statusCode),
		util.String("message", message),
	)
	h.respondWithJSON(w, statusCode, errorResponse(err, message))
}

// getStatusCode determines the appropriate HTTP status code for an error
func (h *RiskHandler) getStatusCode(err error) int {
	switch {
	case service.IsValidationError(err):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrUnknownUser):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
