package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rhosegym/gymcore/internal/app/service/chatbot"
	"github.com/rhosegym/gymcore/internal/app/service/identity"
	"github.com/rhosegym/gymcore/pkg/response"
)

type chatRequest struct {
	Message string `json:"message"`
}

type chatReply struct {
	Reply string `json:"reply"`
}

// RegisterChatbotRoutes wires the member chat endpoints.
func RegisterChatbotRoutes(r gin.IRouter, svc *chatbot.Service, idSvc *identity.Service) {
	r.POST("/chat", func(c *gin.Context) {
		var req chatRequest
		if !bindJSON(c, &req) {
			return
		}
		user, err := idSvc.Get(c.Request.Context(), currentUser(c))
		if err != nil {
			writeError(c, err)
			return
		}
		reply, err := svc.Chat(c.Request.Context(), user, req.Message)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(&chatReply{Reply: reply}))
	})

	r.GET("/chat/history", func(c *gin.Context) {
		history, err := svc.History(c.Request.Context(), currentUser(c))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(history))
	})

	r.DELETE("/chat/history", func(c *gin.Context) {
		if err := svc.ResetHistory(c.Request.Context(), currentUser(c)); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT[any](nil))
	})
}

// RegisterChatbotAdminRoutes wires the settings endpoints.
func RegisterChatbotAdminRoutes(r gin.IRouter, svc *chatbot.Service) {
	r.GET("/chatbot/settings", func(c *gin.Context) {
		settings, err := svc.Settings(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(settings))
	})

	r.PUT("/chatbot/settings", func(c *gin.Context) {
		var req chatbot.SettingsRequest
		if !bindJSON(c, &req) {
			return
		}
		settings, err := svc.UpdateSettings(c.Request.Context(), &req, currentUser(c), requestMeta(c))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(settings))
	})
}
