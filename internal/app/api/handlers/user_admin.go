package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rhosegym/gymcore/internal/app/service/identity"
	"github.com/rhosegym/gymcore/pkg/response"
)

type flagsRequest struct {
	IsSuperuser bool `json:"is_superuser"`
	IsStaff     bool `json:"is_staff"`
}

type activeRequest struct {
	Active bool `json:"active"`
}

// RegisterUserAdminRoutes wires the admin account management endpoints.
func RegisterUserAdminRoutes(r gin.IRouter, svc *identity.Service) {
	r.POST("/staff", func(c *gin.Context) {
		var req identity.RegisterRequest
		if !bindJSON(c, &req) {
			return
		}
		user, err := svc.CreateStaff(c.Request.Context(), &req, currentUser(c), requestMeta(c))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, response.OKT(user))
	})

	r.GET("/users/:id", func(c *gin.Context) {
		user, err := svc.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(user))
	})

	r.PUT("/users/:id/flags", func(c *gin.Context) {
		var req flagsRequest
		if !bindJSON(c, &req) {
			return
		}
		user, err := svc.SetFlags(c.Request.Context(), c.Param("id"), req.IsSuperuser, req.IsStaff, currentUser(c), requestMeta(c))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(user))
	})

	r.POST("/users/:id/sync-role", func(c *gin.Context) {
		user, err := svc.SyncRole(c.Request.Context(), c.Param("id"), currentUser(c), requestMeta(c))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(user))
	})

	r.PUT("/users/:id/active", func(c *gin.Context) {
		var req activeRequest
		if !bindJSON(c, &req) {
			return
		}
		if err := svc.SetActive(c.Request.Context(), c.Param("id"), req.Active, currentUser(c), requestMeta(c)); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT[any](nil))
	})
}
