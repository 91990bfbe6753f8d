package crmsync

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"construyo-opshub/pkg/errutil"
	"construyo-opshub/pkg/middleware"
	"construyo-opshub/services/audit"
)

type Handler struct {
	service  *Service
	auditlog *audit.Writer
}

type HandlerParams struct {
	fx.In

	Service *Service
	Audit   *audit.Writer
}

func NewHandler(p HandlerParams) *Handler {
	return &Handler{service: p.Service, auditlog: p.Audit}
}

func (h *Handler) Register(r gin.IRouter) {
	r.POST("/crm/sync", h.sync)
	r.GET("/crm/sync/logs", h.logs)
}

func (h *Handler) sync(c *gin.Context) {
	var req SyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errutil.BadRequest("invalid request body", errutil.WithErr(err)))
		return
	}

	resp, err := h.service.Sync(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) logs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	logs, err := h.auditlog.Recent(c.Request.Context(), middleware.UserID(c), limit)
	if err != nil {
		c.Error(errutil.Internal("failed to list sync logs", errutil.WithErr(err)))
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "logs": logs})
}
