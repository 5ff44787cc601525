package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rhosegym/gymcore/internal/app/service/audit"
	"github.com/rhosegym/gymcore/pkg/response"
	"github.com/rhosegym/gymcore/pkg/types"
)

// RegisterAuditRoutes wires the admin audit trail endpoints.
func RegisterAuditRoutes(r gin.IRouter, svc *audit.Service) {
	r.GET("/audit", func(c *gin.Context) {
		req := &audit.QueryRequest{
			ActorID:  c.Query("actor_id"),
			Action:   types.AuditAction(c.Query("action")),
			Severity: types.Severity(c.Query("severity")),
		}
		if v := c.Query("from"); v != "" {
			if ts, err := time.Parse(time.RFC3339, v); err == nil {
				req.From = &ts
			}
		}
		if v := c.Query("to"); v != "" {
			if ts, err := time.Parse(time.RFC3339, v); err == nil {
				req.To = &ts
			}
		}
		req.Page, _ = strconv.Atoi(c.Query("page"))
		req.Size, _ = strconv.Atoi(c.Query("size"))

		resp, err := svc.Query(c.Request.Context(), req)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(resp))
	})

	r.POST("/audit/purge", func(c *gin.Context) {
		days, err := strconv.Atoi(c.DefaultQuery("older_than_days", "365"))
		if err != nil || days <= 0 {
			c.JSON(http.StatusBadRequest, response.ErrorT(response.APIResponseCodeBadRequest, "older_than_days must be a positive integer"))
			return
		}
		removed, err := svc.Purge(c.Request.Context(), time.Now().AddDate(0, 0, -days))
		if err != nil {
			writeError(c, err)
			return
		}
		actor := currentUser(c)
		svc.Log(c.Request.Context(), audit.Entry{
			Action:      types.AuditActionAuditPurged,
			ActorID:     &actor,
			Description: fmt.Sprintf("purged %d audit entries older than %d days", removed, days),
			Severity:    types.SeverityWarning,
			Meta:        requestMeta(c),
		})
		c.JSON(http.StatusOK, response.OKT(map[string]int64{"removed": removed}))
	})
}
