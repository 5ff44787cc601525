package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	mw "github.com/rhosegym/gymcore/internal/app/api/middleware"
	"github.com/rhosegym/gymcore/internal/app/service/audit"
	"github.com/rhosegym/gymcore/pkg/apperr"
	"github.com/rhosegym/gymcore/pkg/response"
)

// requestMeta captures the caller's network identity for the audit trail.
func requestMeta(c *gin.Context) *audit.RequestMeta {
	return &audit.RequestMeta{
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
}

// writeError maps service errors onto the response envelope.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		c.JSON(http.StatusNotFound, response.ErrorT(response.APIResponseCodeBadRequest, err.Error()))
	case errors.Is(err, apperr.ErrValidation),
		errors.Is(err, apperr.ErrInvalidStateTransition),
		errors.Is(err, apperr.ErrAlreadyCheckedIn),
		errors.Is(err, apperr.ErrNoOpenSession),
		errors.Is(err, apperr.ErrMembershipRequired):
		c.JSON(http.StatusBadRequest, response.ErrorT(response.APIResponseCodeBadRequest, err.Error()))
	default:
		c.JSON(http.StatusInternalServerError, response.ErrorT[any](response.APIResponseCodeError, nil))
	}
}

func bindJSON(c *gin.Context, dest any) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorT(response.APIResponseCodeBadRequest, "invalid request body"))
		return false
	}
	return true
}

func currentUser(c *gin.Context) string {
	return mw.UserID(c)
}
