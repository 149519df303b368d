package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/claims-workflow/internal/application/port"
	"github.com/garyjia/claims-workflow/internal/application/service"
	"github.com/garyjia/claims-workflow/internal/domain/entity"
	"github.com/garyjia/claims-workflow/pkg/utils"
)

const (
	// UserIDHeader identifies the acting user. Authentication happens upstream.
	UserIDHeader = "X-User-ID"

	actorKey = "actor"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	claimService service.ClaimService
	logger       Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(claimService service.ClaimService, logger Logger) *Handlers {
	return &Handlers{
		claimService: claimService,
		logger:       logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`

	// ValidationResults lists rejected input fields on a 400
	ValidationResults []entity.ValidationResult `json:"validation_results,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// LockRequest is the body of the lock and unlock endpoints
type LockRequest struct {
	Role string `json:"ROLE" binding:"required"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: HealthResponse{
			Status:    "healthy",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   "1.0.0",
		},
	})
}

// RequireActor rejects requests without a well-formed X-User-ID
func (h *Handlers) RequireActor(c *gin.Context) {
	actor := utils.SanitizeString(c.GetHeader(UserIDHeader))
	if err := utils.ValidateUserID(actor); err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
			Success: false,
			Error:   "missing or invalid " + UserIDHeader,
		})
		return
	}
	c.Set(actorKey, actor)
	c.Next()
}

// SubmitClaims handles POST /api/v1/claims. The body is the JSON array of claims.
func (h *Handlers) SubmitClaims(c *gin.Context) {
	var batch []entity.ClaimSubmission
	if err := c.ShouldBindJSON(&batch); err != nil {
		h.logger.Error("Invalid submission body", "error", err)
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "invalid request body",
		})
		return
	}

	actor := c.GetString(actorKey)
	result, err := h.claimService.Submit(c.Request.Context(), actor, batch)
	if err != nil {
		h.writeError(c, "Submission failed", err)
		return
	}
	if !result.Success {
		c.JSON(http.StatusUnprocessableEntity, Response{
			Success: false,
			Data:    result,
			Error:   "validation failed",
		})
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    result,
	})
}

// GetClaim handles GET /api/v1/claims/:draftId
func (h *Handlers) GetClaim(c *gin.Context) {
	claim, err := h.claimService.GetClaim(c.Request.Context(), c.Param("draftId"))
	if err != nil {
		h.writeError(c, "Failed to get claim", err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    claim,
	})
}

// LockClaim handles POST /api/v1/claims/:draftId/lock
func (h *Handlers) LockClaim(c *gin.Context) {
	h.setLock(c, entity.LockIntentLock)
}

// UnlockClaim handles POST /api/v1/claims/:draftId/unlock
func (h *Handlers) UnlockClaim(c *gin.Context) {
	h.setLock(c, entity.LockIntentUnlock)
}

func (h *Handlers) setLock(c *gin.Context, intent string) {
	var req LockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "ROLE is required",
		})
		return
	}

	draftID := c.Param("draftId")
	err := h.claimService.SetLock(c.Request.Context(), service.LockCommand{
		DraftID: draftID,
		Actor:   c.GetString(actorKey),
		Role:    req.Role,
		Intent:  intent,
	})
	if err != nil {
		h.writeError(c, "Lock change failed", err)
		return
	}

	h.logger.Info("Lock changed", "draft_id", draftID, "intent", intent)
	c.JSON(http.StatusOK, Response{Success: true})
}

// PurgeClaim handles DELETE /api/v1/claims/:draftId
func (h *Handlers) PurgeClaim(c *gin.Context) {
	if err := h.claimService.Purge(c.Request.Context(), c.GetString(actorKey), c.Param("draftId")); err != nil {
		h.writeError(c, "Purge failed", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true})
}

func (h *Handlers) writeError(c *gin.Context, msg string, err error) {
	status := StatusFor(err)
	h.logger.Error(msg, "status", status, "error", err)

	resp := Response{Success: false, Error: err.Error()}
	if status == http.StatusInternalServerError {
		resp.Error = "internal error"
	}

	var inputErr *port.InputError
	if errors.As(err, &inputErr) {
		resp.ValidationResults = []entity.ValidationResult{{
			Field:    inputErr.Field,
			Message:  inputErr.Message,
			Severity: entity.SeverityError,
		}}
	}
	c.JSON(status, resp)
}
