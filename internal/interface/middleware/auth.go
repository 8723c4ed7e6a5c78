package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-account-service/internal/application"
	"github.com/oksasatya/go-account-service/internal/domain/entity"
	"github.com/oksasatya/go-account-service/pkg/response"
)

const accountKey = "account"

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*entity.Account, error)
}

// Auth resolves "Authorization: Bearer <token>" to the account holding the
// current session and stores it in the Gin context.
func Auth(a Authenticator, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			response.Fail(c, http.StatusUnauthorized, "unauthorized", nil)
			return
		}
		acc, err := a.Authenticate(c.Request.Context(), token)
		if err != nil {
			if application.KindOf(err) == application.KindUnauthorized {
				response.Fail(c, http.StatusUnauthorized, "unauthorized", nil)
				return
			}
			logger.WithError(err).WithField("request_id", RequestIDFrom(c)).Error("authenticate failed")
			response.Fail(c, http.StatusInternalServerError, "internal server error", nil)
			return
		}
		c.Set(accountKey, acc)
		c.Next()
	}
}

// AccountFrom returns the account stored by Auth.
func AccountFrom(c *gin.Context) (*entity.Account, bool) {
	v, ok := c.Get(accountKey)
	if !ok {
		return nil, false
	}
	acc, ok := v.(*entity.Account)
	return acc, ok && acc != nil
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
