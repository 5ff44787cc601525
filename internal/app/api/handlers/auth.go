package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rhosegym/gymcore/internal/app/service/identity"
	"github.com/rhosegym/gymcore/internal/models"
	"github.com/rhosegym/gymcore/pkg/response"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// RegisterAuthRoutes wires the public account endpoints.
func RegisterAuthRoutes(r gin.IRouter, idSvc *identity.Service) {
	r.POST("/auth/register", func(c *gin.Context) {
		var req identity.RegisterRequest
		if !bindJSON(c, &req) {
			return
		}
		user, err := idSvc.Register(c.Request.Context(), &req, requestMeta(c))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, response.OKT(user))
	})

	r.POST("/auth/login", func(c *gin.Context) {
		var req loginRequest
		if !bindJSON(c, &req) {
			return
		}
		token, user, err := idSvc.Authenticate(c.Request.Context(), req.Username, req.Password, requestMeta(c))
		if err != nil {
			c.JSON(http.StatusUnauthorized, response.ErrorT(response.APIResponseCodeBadRequest, "invalid credentials"))
			return
		}
		c.JSON(http.StatusOK, response.OKT(&loginResponse{Token: token, User: user}))
	})
}

// RegisterProfileRoutes wires the authenticated self-service endpoints.
func RegisterProfileRoutes(r gin.IRouter, idSvc *identity.Service) {
	r.GET("/me", func(c *gin.Context) {
		user, err := idSvc.Get(c.Request.Context(), currentUser(c))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(user))
	})

	r.PUT("/me", func(c *gin.Context) {
		var req identity.UpdateProfileRequest
		if !bindJSON(c, &req) {
			return
		}
		user, err := idSvc.UpdateProfile(c.Request.Context(), currentUser(c), &req, requestMeta(c))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(user))
	})

	r.POST("/me/kiosk-pin", func(c *gin.Context) {
		pin, err := idSvc.IssueKioskPIN(c.Request.Context(), currentUser(c), requestMeta(c))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(map[string]string{"kiosk_pin": pin}))
	})
}
