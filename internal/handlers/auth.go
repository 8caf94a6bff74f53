package handlers

import (
	"crypto/ed25519"
	"encoding/hex"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mr-tron/base58"

	"market-agent/internal/auth"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct{}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler() *AuthHandler {
	return &AuthHandler{}
}

// WalletLogin authenticates a caller by their Solana wallet address and
// signature over the fixed login message.
// POST /auth/wallet
func (h *AuthHandler) WalletLogin(c *gin.Context) {
	var req struct {
		WalletAddress string `json:"wallet_address" binding:"required"`
		Signature     string `json:"signature" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if len(req.WalletAddress) < 32 || len(req.WalletAddress) > 44 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid wallet address"})
		return
	}

	// TODO: include a server-issued nonce in the message to prevent replay.
	message := []byte("Sign this message to authenticate with the market agent")

	pubKey, err := base58.Decode(req.WalletAddress)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid public key format"})
		return
	}
	// Base58 length alone does not pin the decoded size; Verify panics on
	// anything but a 32-byte key.
	if len(pubKey) != ed25519.PublicKeySize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid public key format"})
		return
	}

	// Wallets return the signature as base58 or hex depending on the client.
	sig, err := base58.Decode(req.Signature)
	if err != nil {
		sig, err = hex.DecodeString(req.Signature)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signature format"})
			return
		}
	}

	if !ed25519.Verify(pubKey, message, sig) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
		return
	}

	token, err := auth.GenerateToken(req.WalletAddress)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":  token,
		"wallet": req.WalletAddress,
	})
}

// Logout handles logout (stateless JWT — client-side only)
// POST /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Successfully logged out",
	})
}
