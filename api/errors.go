package api

import (
	"net/http"

	"github.com/Domenick1991/frontdesk/internal/domain"
	"github.com/gin-gonic/gin"
)

// statusFor maps an error kind to the HTTP status the front-end branches on.
func statusFor(err error) int {
	switch domain.KindOf(err) {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindTransient, domain.KindPollTransport:
		return http.StatusBadGateway
	case domain.KindRejected:
		return http.StatusUnprocessableEntity
	case domain.KindDomainState:
		return http.StatusConflict
	case domain.KindTimedOut:
		return http.StatusGatewayTimeout
	case domain.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	_ = c.Error(err)
	body := gin.H{"error": err.Error()}
	if kind := domain.KindOf(err); kind != "" {
		body["kind"] = kind
	}
	if fields := domain.FieldsOf(err); len(fields) > 0 {
		body["fields"] = fields
	}
	c.JSON(statusFor(err), body)
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": message})
}
