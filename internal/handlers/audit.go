package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"market-agent/internal/auth"
	"market-agent/internal/services"
)

// AuditHandler exposes the assembly audit trail
type AuditHandler struct {
	audit *services.AuditService
}

// NewAuditHandler creates a new AuditHandler
func NewAuditHandler(audit *services.AuditService) *AuditHandler {
	return &AuditHandler{audit: audit}
}

// MyHistory returns the authenticated wallet's assembled actions
// GET /api/history
func (h *AuditHandler) MyHistory(c *gin.Context) {
	wallet, ok := auth.GetWalletAddress(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	entries, err := h.audit.ListByWallet(wallet, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"history": entries})
}

// MarketHistory returns the assembled actions against one market
// GET /api/markets/:id/history
func (h *AuditHandler) MarketHistory(c *gin.Context) {
	marketID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid market id"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	entries, err := h.audit.ListByMarket(marketID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"history": entries})
}
