package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"hypersip/internal/models"
	"hypersip/internal/service"
)

type SIPHandler struct {
	SIPs *service.SIPService
}

func (h *SIPHandler) Register(r *gin.Engine) {
	group := r.Group("/api/sips")
	group.POST("", h.create)
	group.GET("", h.list)
	group.POST("/:id/pause", h.pause)
	group.POST("/:id/resume", h.resume)
	group.POST("/:id/cancel", h.cancel)
}

type createSIPRequest struct {
	WalletAddress     string `json:"wallet_address"`
	Asset             string `json:"asset"`
	MonthlyAmountUSDC string `json:"monthly_amount_usdc"`
}

func (h *SIPHandler) create(c *gin.Context) {
	if h.SIPs == nil {
		Error(c, http.StatusInternalServerError, "sip service unavailable", nil)
		return
	}
	var req createSIPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	wallet := normalizeWallet(req.WalletAddress)
	if wallet == "" {
		Error(c, http.StatusBadRequest, "wallet_address required", nil)
		return
	}
	asset := strings.TrimSpace(req.Asset)
	if asset == "" {
		Error(c, http.StatusBadRequest, "asset required", nil)
		return
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(req.MonthlyAmountUSDC))
	if err != nil {
		Error(c, http.StatusBadRequest, "invalid monthly_amount_usdc", nil)
		return
	}
	item, err := h.SIPs.Create(c.Request.Context(), service.CreateSIPParams{
		WalletAddress:     wallet,
		AssetName:         asset,
		MonthlyAmountUSDC: amount,
	})
	if err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	Ok(c, item, nil)
}

func (h *SIPHandler) list(c *gin.Context) {
	if h.SIPs == nil {
		Error(c, http.StatusInternalServerError, "sip service unavailable", nil)
		return
	}
	wallet := normalizeWallet(c.Query("wallet"))
	if wallet == "" {
		Error(c, http.StatusBadRequest, "wallet required", nil)
		return
	}
	items, err := h.SIPs.List(c.Request.Context(), wallet)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, nil)
}

func (h *SIPHandler) pause(c *gin.Context) {
	h.setStatus(c, models.SIPStatusPaused)
}

func (h *SIPHandler) resume(c *gin.Context) {
	h.setStatus(c, models.SIPStatusActive)
}

func (h *SIPHandler) cancel(c *gin.Context) {
	h.setStatus(c, models.SIPStatusCancelled)
}

func (h *SIPHandler) setStatus(c *gin.Context, status string) {
	if h.SIPs == nil {
		Error(c, http.StatusInternalServerError, "sip service unavailable", nil)
		return
	}
	id, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil {
		Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}
	item, err := h.SIPs.SetStatus(c.Request.Context(), id, status)
	if err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	Ok(c, item, nil)
}
