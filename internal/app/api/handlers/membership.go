package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rhosegym/gymcore/internal/app/service/membership"
	"github.com/rhosegym/gymcore/pkg/response"
)

type subscribeRequest struct {
	PlanID string `json:"plan_id"`
}

// RegisterMembershipAdminRoutes wires the manual expiry sweep.
func RegisterMembershipAdminRoutes(r gin.IRouter, svc *membership.Service) {
	r.POST("/memberships/expire-sweep", func(c *gin.Context) {
		n, err := svc.ExpireSweep(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(map[string]int{"expired": n}))
	})
}

// RegisterMembershipRoutes wires the member-facing membership endpoints.
func RegisterMembershipRoutes(r gin.IRouter, svc *membership.Service) {
	r.POST("/memberships", func(c *gin.Context) {
		var req subscribeRequest
		if !bindJSON(c, &req) {
			return
		}
		m, err := svc.Subscribe(c.Request.Context(), currentUser(c), req.PlanID, requestMeta(c))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, response.OKT(m))
	})

	r.GET("/memberships/current", func(c *gin.Context) {
		m, err := svc.CurrentForUser(c.Request.Context(), currentUser(c))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(m))
	})

	r.POST("/memberships/:id/cancel", func(c *gin.Context) {
		ctx := c.Request.Context()
		m, err := svc.Get(ctx, c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		// Members can only cancel their own membership.
		if m.UserID != currentUser(c) {
			c.JSON(http.StatusForbidden, response.ErrorT(response.APIResponseCodeBadRequest, "not your membership"))
			return
		}
		if err := svc.Cancel(ctx, m.ID, currentUser(c), requestMeta(c)); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT[any](nil))
	})
}
