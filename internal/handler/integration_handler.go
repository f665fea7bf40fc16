package handler

import (
	"context"
	"errors"
	"net/http"

	"Mansoor88-6/interaction-insights/internal/ingest"
	"Mansoor88-6/interaction-insights/internal/models"
	"Mansoor88-6/interaction-insights/internal/repository"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// IntegrationStore is satisfied by *repository.IntegrationRepository
type IntegrationStore interface {
	Create(ctx context.Context, integration *models.Integration) error
	ListByUser(ctx context.Context, userID string) ([]*models.Integration, error)
	SetStatus(ctx context.Context, userID, id string, status bool) (*models.Integration, error)
	Delete(ctx context.Context, userID, id string) (*models.Integration, error)
}

// CacheInvalidator drops cached lookups of an integration
type CacheInvalidator interface {
	Invalidate(integrationID string)
}

type IntegrationHandler struct {
	store       IntegrationStore
	invalidator CacheInvalidator
	logger      *zap.Logger
}

func NewIntegrationHandler(store IntegrationStore, invalidator CacheInvalidator, logger *zap.Logger) *IntegrationHandler {
	return &IntegrationHandler{
		store:       store,
		invalidator: invalidator,
		logger:      logger,
	}
}

func (h *IntegrationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateIntegrationRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}
	if !authorizeRequest(w, r, req.UserID, h.logger) {
		return
	}

	status := true
	if req.Status != nil {
		status = *req.Status
	}

	integration := &models.Integration{
		UserID:  req.UserID,
		URL:     ingest.NormalizeURL(req.URL),
		Status:  status,
		Favicon: req.Favicon,
	}
	if err := h.store.Create(r.Context(), integration); err != nil {
		h.logger.Error("Failed to create integration", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to create integration", "", h.logger)
		return
	}

	h.logger.Info("Integration created",
		zap.String("integration_id", integration.ID),
		zap.String("url", integration.URL),
	)
	writeJSON(w, http.StatusCreated, integration, h.logger)
}

// List returns the integrations of ?uid=
func (h *IntegrationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("uid")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "Missing uid parameter", "", h.logger)
		return
	}
	if !authorizeRequest(w, r, userID, h.logger) {
		return
	}

	integrations, err := h.store.ListByUser(r.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to list integrations", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to list integrations", "", h.logger)
		return
	}
	if integrations == nil {
		integrations = []*models.Integration{}
	}

	writeJSON(w, http.StatusOK, integrations, h.logger)
}

func (h *IntegrationHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req models.UpdateIntegrationStatusRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}
	if !authorizeRequest(w, r, req.UserID, h.logger) {
		return
	}

	integration, err := h.store.SetStatus(r.Context(), req.UserID, id, *req.Status)
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Integration not found", "", h.logger)
		return
	}
	if err != nil {
		h.logger.Error("Failed to update integration", zap.String("integration_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to update integration", "", h.logger)
		return
	}

	h.invalidator.Invalidate(id)
	writeJSON(w, http.StatusOK, integration, h.logger)
}

// Delete removes an integration with its tracking records and analytics
func (h *IntegrationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	userID := r.URL.Query().Get("uid")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "Missing uid parameter", "", h.logger)
		return
	}
	if !authorizeRequest(w, r, userID, h.logger) {
		return
	}

	_, err := h.store.Delete(r.Context(), userID, id)
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Integration not found", "", h.logger)
		return
	}
	if err != nil {
		h.logger.Error("Failed to delete integration", zap.String("integration_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to delete integration", "", h.logger)
		return
	}

	h.invalidator.Invalidate(id)
	h.logger.Info("Integration deleted", zap.String("integration_id", id))
	w.WriteHeader(http.StatusNoContent)
}
