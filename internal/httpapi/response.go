package httpapi

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/tpmaster/internal/platform/apierr"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

func RespondError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Error: msg})
}

// RespondAPIError writes the status and public message of err. Causes never
// reach the client.
func RespondAPIError(c *gin.Context, err error) {
	ae := apierr.From(err)
	RespondError(c, ae.Status, ae.PublicMessage())
}
