package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rhosegym/gymcore/internal/app/service/catalog"
	"github.com/rhosegym/gymcore/pkg/response"
)

// RegisterCatalogRoutes wires the public plan and pass listings.
func RegisterCatalogRoutes(r gin.IRouter, svc *catalog.Service) {
	r.GET("/plans", func(c *gin.Context) {
		plans, err := svc.ListActivePlans(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(plans))
	})

	r.GET("/passes", func(c *gin.Context) {
		passes, err := svc.ListActivePasses(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(passes))
	})
}

// RegisterCatalogAdminRoutes wires the catalog mutations.
func RegisterCatalogAdminRoutes(r gin.IRouter, svc *catalog.Service) {
	r.POST("/plans", func(c *gin.Context) {
		var req catalog.ItemRequest
		if !bindJSON(c, &req) {
			return
		}
		plan, err := svc.CreatePlan(c.Request.Context(), &req, currentUser(c), requestMeta(c))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, response.OKT(plan))
	})

	r.PUT("/plans/:id", func(c *gin.Context) {
		var req catalog.ItemRequest
		if !bindJSON(c, &req) {
			return
		}
		plan, err := svc.UpdatePlan(c.Request.Context(), c.Param("id"), &req, currentUser(c), requestMeta(c))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(plan))
	})

	r.POST("/plans/:id/archive", func(c *gin.Context) {
		if err := svc.ArchivePlan(c.Request.Context(), c.Param("id"), currentUser(c), requestMeta(c)); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT[any](nil))
	})

	r.POST("/plans/:id/restore", func(c *gin.Context) {
		if err := svc.RestorePlan(c.Request.Context(), c.Param("id"), currentUser(c), requestMeta(c)); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT[any](nil))
	})

	r.POST("/passes", func(c *gin.Context) {
		var req catalog.ItemRequest
		if !bindJSON(c, &req) {
			return
		}
		pass, err := svc.CreatePass(c.Request.Context(), &req, currentUser(c), requestMeta(c))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, response.OKT(pass))
	})

	r.PUT("/passes/:id", func(c *gin.Context) {
		var req catalog.ItemRequest
		if !bindJSON(c, &req) {
			return
		}
		pass, err := svc.UpdatePass(c.Request.Context(), c.Param("id"), &req, currentUser(c), requestMeta(c))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(pass))
	})

	r.POST("/passes/:id/archive", func(c *gin.Context) {
		if err := svc.ArchivePass(c.Request.Context(), c.Param("id"), currentUser(c), requestMeta(c)); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT[any](nil))
	})

	r.POST("/passes/:id/restore", func(c *gin.Context) {
		if err := svc.RestorePass(c.Request.Context(), c.Param("id"), currentUser(c), requestMeta(c)); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT[any](nil))
	})
}
