package handler

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"hypersip/internal/service"
)

// ExecuteHandler exposes the manual batch trigger. Both routes are gated
// by a shared secret carried in the api_key header.
type ExecuteHandler struct {
	Executor      *service.BatchExecutor
	TriggerSecret string
}

func (h *ExecuteHandler) Register(r *gin.Engine) {
	r.POST("/api/execute", h.executeAll)
	r.POST("/api/execute/user", h.executeUser)
}

func (h *ExecuteHandler) authorized(c *gin.Context) bool {
	if h.TriggerSecret == "" {
		Error(c, http.StatusServiceUnavailable, "trigger secret not configured", nil)
		return false
	}
	key := c.GetHeader("api_key")
	if subtle.ConstantTimeCompare([]byte(key), []byte(h.TriggerSecret)) != 1 {
		Error(c, http.StatusUnauthorized, "invalid api key", nil)
		return false
	}
	return true
}

func (h *ExecuteHandler) executeAll(c *gin.Context) {
	if !h.authorized(c) {
		return
	}
	if h.Executor == nil {
		Error(c, http.StatusServiceUnavailable, "executor unavailable", nil)
		return
	}
	result, err := h.Executor.RunForAllUsers(c.Request.Context())
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, result, nil)
}

type executeUserRequest struct {
	WalletAddress string `json:"wallet_address"`
}

func (h *ExecuteHandler) executeUser(c *gin.Context) {
	if !h.authorized(c) {
		return
	}
	if h.Executor == nil {
		Error(c, http.StatusServiceUnavailable, "executor unavailable", nil)
		return
	}
	var req executeUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	wallet := normalizeWallet(req.WalletAddress)
	if wallet == "" {
		Error(c, http.StatusBadRequest, "wallet_address required", nil)
		return
	}
	result, err := h.Executor.RunForUser(c.Request.Context(), wallet)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, result, nil)
}
