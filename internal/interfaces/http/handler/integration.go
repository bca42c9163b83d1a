package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"
	"go.uber.org/zap"

	app "github.com/uxinsight/backend/internal/application/integration"
	"github.com/uxinsight/backend/internal/infrastructure/auth"
	"github.com/uxinsight/backend/internal/infrastructure/logger"
	"github.com/uxinsight/backend/internal/interfaces/http/dto"
)

// ExportArchiveHeader carries the presigned URL of an archived export
const ExportArchiveHeader = "X-Export-Archive-URL"

// IntegrationHandler serves the /integrations routes
type IntegrationHandler struct {
	BaseHandler
	service      *app.IntegrationService
	orchestrator *app.SyncOrchestrator
	webhooks     *app.WebhookIngestor
}

// NewIntegrationHandler creates a new IntegrationHandler
func NewIntegrationHandler(service *app.IntegrationService, orchestrator *app.SyncOrchestrator, webhooks *app.WebhookIngestor) *IntegrationHandler {
	return &IntegrationHandler{
		service:      service,
		orchestrator: orchestrator,
		webhooks:     webhooks,
	}
}

// WebhookDeliveryHeader carries the provider's delivery id when the body has none
const WebhookDeliveryHeader = "X-Webhook-Delivery"

const maxDeliveryIDLength = 128

type syncRequest struct {
	Force bool `json:"force"`
}

type webhookLogsQuery struct {
	IntegrationID string `form:"integrationId" binding:"required,uuid"`
	Limit         int    `form:"limit" binding:"omitempty,min=1,max=500"`
}

// Create godoc
// @ID           createIntegration
// @Summary      Create integration
// @Description  Validates the provider config, tests the connection and stores the integration
// @Tags         integrations
// @Accept       json
// @Produce      json
// @Param        request body app.CreateIntegrationRequest true "Integration to create"
// @Success      201 {object} dto.Response{data=app.IntegrationResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Failure      502 {object} dto.Response
// @Security     BearerAuth
// @Router       /integrations [post]
func (h *IntegrationHandler) Create(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}
	var req app.CreateIntegrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	resp, err := h.service.Create(c.Request.Context(), userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// List godoc
// @ID           listIntegrations
// @Summary      List integrations
// @Description  Lists the caller's integrations, optionally filtered by type and status
// @Tags         integrations
// @Produce      json
// @Param        type query string false "Provider type" Enums(HOTJAR, MIXPANEL, AMPLITUDE, CUSTOM)
// @Param        status query string false "Status" Enums(ACTIVE, INACTIVE, ERROR, SYNCING)
// @Param        sortBy query string false "Sort field" Enums(createdAt, updatedAt, name, type, status, lastSync)
// @Param        sortOrder query string false "Sort order" Enums(asc, desc)
// @Success      200 {object} dto.Response{data=[]app.IntegrationResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /integrations [get]
func (h *IntegrationHandler) List(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}
	var filter app.ListIntegrationsFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.ValidationError(c, err)
		return
	}

	items, err := h.service.List(c.Request.Context(), userID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, items)
}

// Get godoc
// @ID           getIntegration
// @Summary      Get integration
// @Description  Returns one integration with its latest log entries
// @Tags         integrations
// @Produce      json
// @Param        id path string true "Integration ID" format(uuid)
// @Success      200 {object} dto.Response{data=app.IntegrationDetailResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Security     BearerAuth
// @Router       /integrations/{id} [get]
func (h *IntegrationHandler) Get(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	resp, err := h.service.Get(c.Request.Context(), userID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Update godoc
// @ID           updateIntegration
// @Summary      Update integration
// @Description  Partially updates name, config or status. A changed config is re-tested.
// @Tags         integrations
// @Accept       json
// @Produce      json
// @Param        id path string true "Integration ID" format(uuid)
// @Param        request body app.UpdateIntegrationRequest true "Fields to change"
// @Success      200 {object} dto.Response{data=app.IntegrationResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Security     BearerAuth
// @Router       /integrations/{id} [put]
func (h *IntegrationHandler) Update(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req app.UpdateIntegrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	resp, err := h.service.Update(c.Request.Context(), userID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Delete godoc
// @ID           deleteIntegration
// @Summary      Delete integration
// @Description  Deletes an integration together with its logs and project links
// @Tags         integrations
// @Produce      json
// @Param        id path string true "Integration ID" format(uuid)
// @Success      200 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Security     BearerAuth
// @Router       /integrations/{id} [delete]
func (h *IntegrationHandler) Delete(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), userID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"id": id, "message": "Integration deleted successfully"})
}

// Sync godoc
// @ID           syncIntegration
// @Summary      Sync integration
// @Description  Fetches fresh data from the provider. The body is optional.
// @Tags         sync
// @Accept       json
// @Produce      json
// @Param        id path string true "Integration ID" format(uuid)
// @Param        request body syncRequest false "Sync options"
// @Success      200 {object} dto.Response{data=app.SyncResponse}
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response "Sync already in progress"
// @Failure      502 {object} dto.Response
// @Security     BearerAuth
// @Router       /integrations/{id}/sync [post]
func (h *IntegrationHandler) Sync(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req syncRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.ValidationError(c, err)
			return
		}
	}

	resp, err := h.orchestrator.SyncForUser(c.Request.Context(), userID, id, req.Force)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// SyncStatus godoc
// @ID           getIntegrationSyncStatus
// @Summary      Get sync status
// @Description  Returns the sync snapshot of one integration
// @Tags         sync
// @Produce      json
// @Param        id path string true "Integration ID" format(uuid)
// @Success      200 {object} dto.Response{data=app.SyncStatusResponse}
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Security     BearerAuth
// @Router       /integrations/{id}/sync [get]
func (h *IntegrationHandler) SyncStatus(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	resp, err := h.service.SyncStatus(c.Request.Context(), userID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ScheduledSync godoc
// @ID           runScheduledSync
// @Summary      Run scheduled sync
// @Description  Syncs a batch of integrations. Per-item failures are reported in the results; the call itself succeeds.
// @Tags         scheduled-sync
// @Accept       json
// @Produce      json
// @Param        request body app.BatchSyncRequest true "Integrations to sync"
// @Success      200 {object} dto.Response{data=app.BatchSyncResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Security     SystemToken
// @Router       /integrations/scheduled-sync [post]
func (h *IntegrationHandler) ScheduledSync(c *gin.Context) {
	var req app.BatchSyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}
	h.Success(c, h.orchestrator.BatchSync(c.Request.Context(), req))
}

// ScheduledSyncCandidates godoc
// @ID           listScheduledSyncCandidates
// @Summary      List scheduled-sync candidates
// @Description  Lists integrations eligible for the next scheduled sync
// @Tags         scheduled-sync
// @Produce      json
// @Param        type query string false "Provider type"
// @Param        status query string false "Status"
// @Param        limit query int false "Maximum candidates" minimum(1) maximum(500)
// @Success      200 {object} dto.Response{data=app.CandidatesResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Security     SystemToken
// @Router       /integrations/scheduled-sync [get]
func (h *IntegrationHandler) ScheduledSyncCandidates(c *gin.Context) {
	var filter app.CandidateFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.ValidationError(c, err)
		return
	}

	resp, err := h.service.Candidates(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Test godoc
// @ID           testIntegrationConfig
// @Summary      Test provider config
// @Description  Tries an unsaved config against its provider and returns sample data
// @Tags         integrations
// @Accept       json
// @Produce      json
// @Param        request body app.TestIntegrationRequest true "Config to test"
// @Success      200 {object} dto.Response{data=app.TestIntegrationResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      502 {object} dto.Response
// @Security     BearerAuth
// @Router       /integrations/test [post]
func (h *IntegrationHandler) Test(c *gin.Context) {
	if _, ok := h.requireUser(c); !ok {
		return
	}
	var req app.TestIntegrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	resp, err := h.service.TestConfig(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Export godoc
// @ID           exportIntegration
// @Summary      Export integration
// @Description  Downloads the integration, its logs and current provider data. The body is the bare export document, not the response envelope.
// @Tags         integrations
// @Produce      json
// @Param        id path string true "Integration ID" format(uuid)
// @Success      200 {object} app.ExportDocument
// @Header       200 {string} X-Export-Archive-URL "Presigned URL of the archived copy"
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Security     BearerAuth
// @Router       /integrations/{id}/export [get]
func (h *IntegrationHandler) Export(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	result, err := h.service.Export(c.Request.Context(), userID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+result.Filename+`"`)
	if result.ArchiveURL != "" {
		c.Header(ExportArchiveHeader, result.ArchiveURL)
	}
	c.Data(http.StatusOK, "application/json", result.Body)
}

// Webhook godoc
// @ID           receiveWebhook
// @Summary      Receive provider webhook
// @Description  Applies a provider event. The signature covers the raw body, so it is checked before decoding.
// @Tags         webhooks
// @Accept       json
// @Produce      json
// @Param        X-Webhook-Delivery header string false "Delivery id used when the body carries none"
// @Param        request body app.WebhookEvent true "Webhook event"
// @Success      200 {object} dto.Response{data=app.WebhookResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response "Invalid signature"
// @Failure      404 {object} dto.Response
// @Failure      413 {object} dto.Response
// @Security     WebhookSignature
// @Router       /integrations/webhook [post]
func (h *IntegrationHandler) Webhook(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodeRequestTooLarge, "Request body exceeds maximum allowed size")
			return
		}
		h.BadRequest(c, "Failed to read request body")
		return
	}

	if err := h.webhooks.Verify(c.GetHeader(auth.SignatureHeader), raw); err != nil {
		h.HandleError(c, err)
		return
	}

	var event app.WebhookEvent
	if err := binding.JSON.BindBody(raw, &event); err != nil {
		h.ValidationError(c, err)
		return
	}
	if event.DeliveryID == "" {
		if id := c.GetHeader(WebhookDeliveryHeader); len(id) <= maxDeliveryIDLength {
			event.DeliveryID = id
		}
	}

	resp, err := h.webhooks.Ingest(c.Request.Context(), event)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	logger.GetGinLogger(c).Info("Webhook accepted",
		zap.String("integration_id", event.IntegrationID.String()),
		zap.String("webhook_type", string(event.Type)),
	)
	h.Success(c, resp)
}

// WebhookLogs godoc
// @ID           listWebhookLogs
// @Summary      List webhook logs
// @Description  Returns the most recent log entries of one integration
// @Tags         webhooks
// @Produce      json
// @Param        integrationId query string true "Integration ID" format(uuid)
// @Param        limit query int false "Maximum entries" minimum(1) maximum(500)
// @Success      200 {object} dto.Response{data=[]app.LogResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Security     BearerAuth
// @Router       /integrations/webhook [get]
func (h *IntegrationHandler) WebhookLogs(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}
	var q webhookLogsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.ValidationError(c, err)
		return
	}
	id := uuid.MustParse(q.IntegrationID)

	logs, err := h.service.RecentLogs(c.Request.Context(), userID, id, q.Limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, logs)
}

// Providers godoc
// @ID           listIntegrationProviders
// @Summary      List providers
// @Description  Lists the supported provider types and their required config keys
// @Tags         integrations
// @Produce      json
// @Success      200 {object} dto.Response{data=[]app.ProviderInfo}
// @Failure      401 {object} dto.Response
// @Security     BearerAuth
// @Router       /integrations/providers [get]
func (h *IntegrationHandler) Providers(c *gin.Context) {
	h.Success(c, h.service.Providers())
}

// RunAction godoc
// @ID           runIntegrationAction
// @Summary      Run provider action
// @Description  Runs a provider-specific action such as a recordings query
// @Tags         integrations
// @Accept       json
// @Produce      json
// @Param        id path string true "Integration ID" format(uuid)
// @Param        action path string true "Action name"
// @Param        request body app.RunActionRequest false "Action parameters"
// @Success      200 {object} dto.Response
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      502 {object} dto.Response
// @Security     BearerAuth
// @Router       /integrations/{id}/actions/{action} [post]
func (h *IntegrationHandler) RunAction(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req app.RunActionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.ValidationError(c, err)
			return
		}
	}

	action := c.Param("action")
	result, err := h.service.RunAction(c.Request.Context(), userID, id, action, req.Params)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"action": action, "result": result})
}

