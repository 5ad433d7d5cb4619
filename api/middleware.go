package api

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	authorizationHeaderKey  = "Authorization"
	authorizationTypeBearer = "Bearer"
	accessTokenQueryKey     = "access_token"
)

// apiTokenMiddleware checks the shared API token. An empty token disables
// the check. EventSource clients cannot set headers, so the token may also
// come as the access_token query parameter.
func apiTokenMiddleware(apiToken string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if apiToken == "" {
			ctx.Next()
			return
		}

		accessToken := ctx.Query(accessTokenQueryKey)
		if accessToken == "" {
			authorizationHeader := ctx.GetHeader(authorizationHeaderKey)
			if authorizationHeader == "" {
				err := errors.New("authorization header is not provided")
				ctx.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse(err))
				return
			}

			fields := strings.Fields(authorizationHeader)
			if len(fields) != 2 {
				err := errors.New("invalid authorization header format")
				ctx.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse(err))
				return
			}

			if fields[0] != authorizationTypeBearer {
				err := errors.New("unsupported authorization header type")
				ctx.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse(err))
				return
			}
			accessToken = fields[1]
		}

		if subtle.ConstantTimeCompare([]byte(accessToken), []byte(apiToken)) != 1 {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse(ErrInvalidToken))
			return
		}

		ctx.Next()
	}
}
