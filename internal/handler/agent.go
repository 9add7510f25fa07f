package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"hypersip/internal/service"
)

type AgentHandler struct {
	Agents *service.AgentService
}

func (h *AgentHandler) Register(r *gin.Engine) {
	group := r.Group("/api/agent")
	group.POST("", h.ensure)
	group.GET("/status", h.status)
	group.POST("/approve", h.approve)

	r.POST("/api/builder/approve", h.approveBuilder)
}

type agentRequest struct {
	WalletAddress string `json:"wallet_address"`
}

func (h *AgentHandler) ensure(c *gin.Context) {
	if h.Agents == nil {
		Error(c, http.StatusInternalServerError, "agent service unavailable", nil)
		return
	}
	var req agentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	wallet := normalizeWallet(req.WalletAddress)
	if wallet == "" {
		Error(c, http.StatusBadRequest, "wallet_address required", nil)
		return
	}
	status, err := h.Agents.EnsureAgent(c.Request.Context(), wallet)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, status, nil)
}

func (h *AgentHandler) status(c *gin.Context) {
	if h.Agents == nil {
		Error(c, http.StatusInternalServerError, "agent service unavailable", nil)
		return
	}
	wallet := normalizeWallet(c.Query("wallet"))
	if wallet == "" {
		Error(c, http.StatusBadRequest, "wallet required", nil)
		return
	}
	status, err := h.Agents.GetAgent(c.Request.Context(), wallet)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if status == nil {
		Error(c, http.StatusNotFound, "agent not found", nil)
		return
	}
	Ok(c, status, nil)
}

func (h *AgentHandler) approve(c *gin.Context) {
	if h.Agents == nil {
		Error(c, http.StatusInternalServerError, "agent service unavailable", nil)
		return
	}
	var req agentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	wallet := normalizeWallet(req.WalletAddress)
	if wallet == "" {
		Error(c, http.StatusBadRequest, "wallet_address required", nil)
		return
	}
	if err := h.Agents.MarkApproved(c.Request.Context(), wallet); err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	status, _ := h.Agents.GetAgent(c.Request.Context(), wallet)
	Ok(c, status, nil)
}

type approveBuilderRequest struct {
	WalletAddress string `json:"wallet_address"`
	// Fee is in tenths of a basis point (1000 = 0.1%).
	Fee int64 `json:"fee"`
}

func (h *AgentHandler) approveBuilder(c *gin.Context) {
	if h.Agents == nil {
		Error(c, http.StatusInternalServerError, "agent service unavailable", nil)
		return
	}
	var req approveBuilderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	wallet := normalizeWallet(req.WalletAddress)
	if wallet == "" {
		Error(c, http.StatusBadRequest, "wallet_address required", nil)
		return
	}
	if err := h.Agents.ApproveBuilderFee(c.Request.Context(), wallet, req.Fee); err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	Ok(c, gin.H{"wallet_address": wallet, "fee": req.Fee}, nil)
}

func normalizeWallet(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}
