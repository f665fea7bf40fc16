package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"Mansoor88-6/interaction-insights/internal/auth"
	"Mansoor88-6/interaction-insights/internal/insight"
	"Mansoor88-6/interaction-insights/internal/models"
	"Mansoor88-6/interaction-insights/internal/validation"

	"go.uber.org/zap"
)

// InsightService is satisfied by *insight.Service
type InsightService interface {
	GenerateInsights(ctx context.Context, userID, integrationID, dateRange string) (string, int, error)
	GenerateSummary(ctx context.Context, userID, integrationID string) error
	Latest(ctx context.Context, userID, integrationID string) (*models.AnalyticsSnapshot, error)
}

type InsightHandler struct {
	service InsightService
	logger  *zap.Logger
}

func NewInsightHandler(service InsightService, logger *zap.Logger) *InsightHandler {
	return &InsightHandler{service: service, logger: logger}
}

func (h *InsightHandler) GenerateInsights(w http.ResponseWriter, r *http.Request) {
	var req models.GenerateInsightsRequest
	if !h.decode(w, r, &req) {
		return
	}
	if !h.authorize(w, r, req.UserID) {
		return
	}

	analyticsID, count, err := h.service.GenerateInsights(r.Context(), req.UserID, req.IntegrationID, req.DateRange)
	if err != nil {
		h.logger.Error("Insights generation error",
			zap.String("integration_id", req.IntegrationID),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "Failed to generate insights", err.Error(), h.logger)
		return
	}

	writeJSON(w, http.StatusOK, models.GenerateInsightsResponse{
		Success:     true,
		AnalyticsID: analyticsID,
		Count:       count,
	}, h.logger)
}

func (h *InsightHandler) GenerateSummary(w http.ResponseWriter, r *http.Request) {
	var req models.GenerateSummaryRequest
	if !h.decode(w, r, &req) {
		return
	}
	if !h.authorize(w, r, req.UserID) {
		return
	}

	err := h.service.GenerateSummary(r.Context(), req.UserID, req.IntegrationID)
	if errors.Is(err, insight.ErrNoAnalytics) {
		writeError(w, http.StatusNotFound, "No analytics data found", "", h.logger)
		return
	}
	if err != nil {
		h.logger.Error("Summary generation error",
			zap.String("integration_id", req.IntegrationID),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "Failed to generate summary", "", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true}, h.logger)
}

// Latest returns the most recent snapshot of ?integrationId=&uid=
func (h *InsightHandler) Latest(w http.ResponseWriter, r *http.Request) {
	integrationID := r.URL.Query().Get("integrationId")
	userID := r.URL.Query().Get("uid")
	if integrationID == "" || userID == "" {
		writeError(w, http.StatusBadRequest, "Missing integrationId or uid parameter", "", h.logger)
		return
	}
	if !h.authorize(w, r, userID) {
		return
	}

	snapshot, err := h.service.Latest(r.Context(), userID, integrationID)
	if errors.Is(err, insight.ErrNoAnalytics) {
		writeError(w, http.StatusNotFound, "No analytics data found", "", h.logger)
		return
	}
	if err != nil {
		h.logger.Error("Failed to read latest insights", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to load insights", "", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, snapshot, h.logger)
}

func (h *InsightHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	return decodeRequest(w, r, dst, h.logger)
}

func (h *InsightHandler) authorize(w http.ResponseWriter, r *http.Request, uid string) bool {
	return authorizeRequest(w, r, uid, h.logger)
}

func decodeRequest(w http.ResponseWriter, r *http.Request, dst any, logger *zap.Logger) bool {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err.Error(), logger)
		return false
	}
	if err := validation.DecodeAndValidate(body, dst); err != nil {
		logger.Debug("Rejected request body", zap.Error(err))
		writeError(w, http.StatusBadRequest, "Invalid request body", err.Error(), logger)
		return false
	}
	return true
}

func authorizeRequest(w http.ResponseWriter, r *http.Request, uid string, logger *zap.Logger) bool {
	if err := auth.Authorize(r.Context(), uid); err != nil {
		writeError(w, http.StatusForbidden, "Forbidden", err.Error(), logger)
		return false
	}
	return true
}
