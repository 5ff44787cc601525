package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/rhosegym/gymcore/internal/app/service/attendance"
	"github.com/rhosegym/gymcore/internal/app/service/identity"
	"github.com/rhosegym/gymcore/pkg/response"
)

type kioskRequest struct {
	PIN string `json:"pin"`
}

// RegisterKioskRoutes wires the unauthenticated kiosk terminal. The PIN is
// the sole credential; responses never reveal whether a PIN exists.
func RegisterKioskRoutes(r gin.IRouter, idSvc *identity.Service, attSvc *attendance.Service) {
	resolve := func(c *gin.Context) (string, bool) {
		var req kioskRequest
		if !bindJSON(c, &req) {
			return "", false
		}
		user, err := idSvc.FindByKioskPIN(c.Request.Context(), req.PIN)
		if err != nil {
			c.JSON(http.StatusUnauthorized, response.ErrorT(response.APIResponseCodeBadRequest, "invalid PIN"))
			return "", false
		}
		return user.ID, true
	}

	r.POST("/kiosk/check-in", func(c *gin.Context) {
		userID, ok := resolve(c)
		if !ok {
			return
		}
		a, err := attSvc.CheckIn(c.Request.Context(), userID, requestMeta(c))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, response.OKT(a))
	})

	r.POST("/kiosk/check-out", func(c *gin.Context) {
		userID, ok := resolve(c)
		if !ok {
			return
		}
		a, err := attSvc.CheckOut(c.Request.Context(), userID, requestMeta(c))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(a))
	})
}

// RegisterAttendanceRoutes wires the member's own attendance views.
func RegisterAttendanceRoutes(r gin.IRouter, svc *attendance.Service) {
	r.GET("/attendance", func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.Query("limit"))
		rows, err := svc.ListForUser(c.Request.Context(), currentUser(c), limit)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(rows))
	})

	r.GET("/attendance/open", func(c *gin.Context) {
		a, err := svc.OpenSession(c.Request.Context(), currentUser(c))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(a))
	})
}

// RegisterAttendanceStaffRoutes wires the staff floor view.
func RegisterAttendanceStaffRoutes(r gin.IRouter, svc *attendance.Service) {
	r.GET("/attendance/open", func(c *gin.Context) {
		rows, err := svc.ListOpenSessions(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(rows))
	})
}
