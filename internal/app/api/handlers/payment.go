package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rhosegym/gymcore/internal/app/service/payment"
	"github.com/rhosegym/gymcore/pkg/response"
)

type rejectRequest struct {
	Reason string `json:"reason"`
}

// RegisterPaymentRoutes wires the member payment endpoints.
func RegisterPaymentRoutes(r gin.IRouter, svc *payment.Service) {
	r.POST("/payments", func(c *gin.Context) {
		var req payment.CreateRequest
		if !bindJSON(c, &req) {
			return
		}
		p, err := svc.Create(c.Request.Context(), currentUser(c), &req, requestMeta(c))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, response.OKT(p))
	})

	r.GET("/payments", func(c *gin.Context) {
		rows, err := svc.ListForUser(c.Request.Context(), currentUser(c))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(rows))
	})
}

// RegisterPaymentStaffRoutes wires the review queue and counter sales.
func RegisterPaymentStaffRoutes(r gin.IRouter, svc *payment.Service) {
	r.POST("/payments", func(c *gin.Context) {
		var req payment.CreateRequest
		if !bindJSON(c, &req) {
			return
		}
		p, err := svc.CreateOnBehalf(c.Request.Context(), &req, requestMeta(c))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, response.OKT(p))
	})

	r.POST("/payments/scan", func(c *gin.Context) {
		var req payment.ScanPaymentsRequest
		if !bindJSON(c, &req) {
			return
		}
		resp, err := svc.ScanPayments(c.Request.Context(), &req)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(resp))
	})

	r.POST("/payments/:id/approve", func(c *gin.Context) {
		p, err := svc.Approve(c.Request.Context(), c.Param("id"), currentUser(c), requestMeta(c))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(p))
	})

	r.POST("/payments/:id/reject", func(c *gin.Context) {
		var req rejectRequest
		if !bindJSON(c, &req) {
			return
		}
		p, err := svc.Reject(c.Request.Context(), c.Param("id"), currentUser(c), req.Reason, requestMeta(c))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(p))
	})

	r.POST("/walkins", func(c *gin.Context) {
		var req payment.WalkInRequest
		if !bindJSON(c, &req) {
			return
		}
		w, err := svc.CreateWalkIn(c.Request.Context(), &req, currentUser(c), requestMeta(c))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, response.OKT(w))
	})

	r.GET("/reports/daily", func(c *gin.Context) {
		day := time.Now()
		if v := c.Query("date"); v != "" {
			parsed, err := time.ParseInLocation("2006-01-02", v, time.Local)
			if err != nil {
				c.JSON(http.StatusBadRequest, response.ErrorT(response.APIResponseCodeBadRequest, "date must be YYYY-MM-DD"))
				return
			}
			day = parsed
		}
		report, err := svc.ReportDaily(c.Request.Context(), day)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(report))
	})
}
