package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"hypersip/internal/repository"
)

type ExecutionHandler struct {
	Store repository.Store
}

func (h *ExecutionHandler) Register(r *gin.Engine) {
	r.GET("/api/executions", h.list)
}

func (h *ExecutionHandler) list(c *gin.Context) {
	if h.Store == nil {
		Error(c, http.StatusInternalServerError, "store unavailable", nil)
		return
	}
	params := repository.ListExecutionRecordsParams{
		Limit:  intQuery(c, "limit", 50),
		Offset: intQuery(c, "offset", 0),
	}
	if wallet := normalizeWallet(c.Query("wallet")); wallet != "" {
		user, err := h.Store.GetUserByWallet(c.Request.Context(), wallet)
		if err != nil {
			Error(c, http.StatusBadGateway, err.Error(), nil)
			return
		}
		if user == nil {
			Ok(c, []any{}, nil)
			return
		}
		params.UserID = &user.ID
	}
	items, err := h.Store.ListExecutionRecords(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, nil)
}

func intQuery(c *gin.Context, key string, def int) int {
	v := strings.TrimSpace(c.Query(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
