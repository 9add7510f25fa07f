package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hypersip/internal/client/hyperliquid"
)

type BalanceHandler struct {
	Info *hyperliquid.InfoClient
}

func (h *BalanceHandler) Register(r *gin.Engine) {
	r.GET("/api/balances", h.balances)
}

func (h *BalanceHandler) balances(c *gin.Context) {
	if h.Info == nil {
		Error(c, http.StatusInternalServerError, "info client unavailable", nil)
		return
	}
	wallet := normalizeWallet(c.Query("wallet"))
	if wallet == "" {
		Error(c, http.StatusBadRequest, "wallet required", nil)
		return
	}
	state, err := h.Info.SpotClearinghouseState(c.Request.Context(), wallet)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, state.Balances, nil)
}
