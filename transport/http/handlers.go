package http

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/amoria-labs/walletauth/core"
	"github.com/amoria-labs/walletauth/service"
)

// AuthHandlers contains HTTP handlers for the wallet auth endpoints. Error
// responses carry only a generic category; detail stays in the server log.
type AuthHandlers struct {
	authService *service.AuthService
	logger      *log.Logger
}

// NewAuthHandlers creates new auth handlers.
func NewAuthHandlers(authService *service.AuthService, logger *log.Logger) *AuthHandlers {
	return &AuthHandlers{
		authService: authService,
		logger:      logger,
	}
}

// Nonce handles the challenge request for a wallet address.
func (h *AuthHandlers) Nonce(c *gin.Context) {
	address := c.Param("walletAddress")

	result, err := h.authService.Challenge(c.Request.Context(), address)
	if err != nil {
		if errors.Is(err, core.ErrInvalidAddress) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid wallet address"})
			return
		}
		h.logger.Printf("challenge failed for %s: %v", address, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create nonce"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"nonce":     result.Nonce,
		"message":   result.Message,
		"expiresAt": result.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

// Verify handles the signed-challenge login request.
func (h *AuthHandlers) Verify(c *gin.Context) {
	var req struct {
		WalletAddress string `json:"walletAddress" binding:"required"`
		Signature     string `json:"signature" binding:"required"`
		Message       string `json:"message" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing or malformed fields"})
		return
	}

	result, err := h.authService.Verify(c.Request.Context(), req.WalletAddress, req.Message, req.Signature)
	if err != nil {
		status, msg := verifyErrorResponse(err)
		if status == http.StatusInternalServerError {
			h.logger.Printf("verify failed for %s: %v", req.WalletAddress, err)
		}
		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"token":         result.Token,
		"userId":        result.UserID,
		"walletAddress": result.Address,
		"isNewUser":     result.IsNewUser,
		"message":       "Wallet verified successfully",
	})
}

// verifyErrorResponse maps a verify failure to the smallest-information HTTP
// response that still lets a legitimate client recover.
func verifyErrorResponse(err error) (int, string) {
	switch {
	case errors.Is(err, core.ErrInvalidAddress):
		return http.StatusBadRequest, "Invalid wallet address"
	case errors.Is(err, core.ErrNonceNotFound),
		errors.Is(err, core.ErrNonceExpired),
		errors.Is(err, core.ErrNonceUsed):
		return http.StatusUnauthorized, "Invalid or expired nonce"
	case errors.Is(err, core.ErrInvalidSignature),
		errors.Is(err, core.ErrAddressMismatch):
		return http.StatusUnauthorized, "Invalid signature"
	default:
		return http.StatusInternalServerError, "Authentication failed"
	}
}

// LinkWallet attaches an additional wallet to an authenticated account.
func (h *AuthHandlers) LinkWallet(c *gin.Context) {
	var req struct {
		WalletAddress string `json:"walletAddress" binding:"required"`
		UserID        string `json:"userId" binding:"required"`
		AuthToken     string `json:"authToken" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing or malformed fields"})
		return
	}

	link, err := h.authService.LinkWallet(c.Request.Context(), req.WalletAddress, req.UserID, req.AuthToken)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrInvalidAddress):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid wallet address"})
		case errors.Is(err, core.ErrTokenExpired), errors.Is(err, core.ErrUnauthorized):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
		case errors.Is(err, core.ErrForbidden):
			c.JSON(http.StatusForbidden, gin.H{"error": "Token does not belong to this user"})
		case errors.Is(err, core.ErrWalletAlreadyLinked):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Wallet is already linked to an account"})
		default:
			h.logger.Printf("link wallet failed for %s: %v", req.WalletAddress, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to link wallet"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"message":       "Wallet linked successfully",
		"walletAddress": link.Address,
	})
}

// Me returns the authenticated session set by the auth middleware.
func (h *AuthHandlers) Me(c *gin.Context) {
	session := MustSession(c)
	c.JSON(http.StatusOK, gin.H{
		"userId":        session.UserID,
		"walletAddress": session.Address,
		"authMethod":    session.AuthMethod,
		"expiresAt":     session.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

// Health is the liveness endpoint.
func (h *AuthHandlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
