package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"market-agent/internal/actions"
	"market-agent/internal/assembler"
	"market-agent/internal/auth"
	"market-agent/internal/blockchain"
	"market-agent/internal/services"
)

// ActionHandler exposes the action registry over HTTP
type ActionHandler struct {
	registry *actions.Registry
	audit    *services.AuditService
}

// NewActionHandler creates a new ActionHandler
func NewActionHandler(registry *actions.Registry, audit *services.AuditService) *ActionHandler {
	return &ActionHandler{registry: registry, audit: audit}
}

// ListActions returns the registered action names
// GET /api/actions
func (h *ActionHandler) ListActions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"actions": h.registry.Names()})
}

// Dispatch routes one action request to its handler
// POST /api/actions/:name
func (h *ActionHandler) Dispatch(c *gin.Context) {
	name := c.Param("name")

	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}

	result, err := h.registry.Dispatch(c.Request.Context(), name, payload)
	if err != nil {
		h.writeError(c, name, err)
		return
	}

	if out, ok := result.(*assembler.Assembled); ok {
		h.recordAssembly(c, payload, out)
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": result})
}

// writeError maps the error taxonomy onto HTTP statuses. Validation failures
// are the caller's problem; transport failures are ours.
func (h *ActionHandler) writeError(c *gin.Context, name string, err error) {
	var validation *assembler.ValidationError

	switch {
	case errors.Is(err, actions.ErrUnknownAction):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": err.Error()})
	case errors.As(err, &validation):
		body := gin.H{"success": false, "error": validation.Message}
		if validation.Result != nil {
			body["violations"] = validation.Result.Violations
		}
		if validation.Verdict != nil {
			body["violations"] = validation.Verdict.Violations
		}
		c.JSON(http.StatusUnprocessableEntity, body)
	case errors.Is(err, blockchain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": err.Error()})
	case errors.Is(err, blockchain.ErrTransport):
		log.Printf("Action %s failed on RPC transport: %v", name, err)
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "error": "blockchain RPC unavailable"})
	default:
		log.Printf("Action %s failed: %v", name, err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "internal error"})
	}
}

// recordAssembly writes the audit row. Audit failures are logged, never
// surfaced; the assembled transaction is already built.
func (h *ActionHandler) recordAssembly(c *gin.Context, payload []byte, out *assembler.Assembled) {
	if h.audit == nil {
		return
	}

	wallet, _ := auth.GetWalletAddress(c)

	var ref struct {
		MarketID *uint64 `json:"market_id"`
	}
	_ = json.Unmarshal(payload, &ref)

	if err := h.audit.RecordAssembly(wallet, ref.MarketID, out); err != nil {
		log.Printf("Failed to record assembled action %s: %v", out.Action, err)
	}
}
