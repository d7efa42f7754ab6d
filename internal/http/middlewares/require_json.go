package middlewares

import (
	"mime"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	MIMEJSON      = "application/json"
	MIMEForm      = "application/x-www-form-urlencoded"
	MIMEMultipart = "multipart/form-data"
)

func RequireJSON() gin.HandlerFunc {
	return RequireContentType(MIMEJSON)
}

// RequireContentType rejects bodies of any other media type on write methods.
func RequireContentType(allowed ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
			if !mediaTypeAllowed(c.GetHeader("Content-Type"), allowed) {
				c.AbortWithStatusJSON(http.StatusUnsupportedMediaType, errorBody(c,
					"unsupported_media_type",
					"Content-Type must be one of: "+strings.Join(allowed, ", "),
				))
				return
			}
		}
		c.Next()
	}
}

func mediaTypeAllowed(header string, allowed []string) bool {
	if header == "" {
		return false
	}

	mt, _, err := mime.ParseMediaType(header)
	if err != nil {
		return false
	}

	for _, a := range allowed {
		if mt == a {
			return true
		}
	}

	return false
}
