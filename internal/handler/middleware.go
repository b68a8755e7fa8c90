package handler

import (
	"net/http"
	"strings"

	"github.com/exception-notifier/backend/internal/model"
	"github.com/exception-notifier/backend/internal/service"
	"github.com/gin-gonic/gin"
)

const authSubjectKey = "auth_subject"

// Bearer 토큰 검증 미들웨어 (verifier가 nil이면 통과)
func AuthMiddleware(verifier service.TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if verifier == nil {
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.JSON(http.StatusUnauthorized, model.ErrorResponse{Error: "unauthorized"})
			c.Abort()
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		if token == "" {
			c.JSON(http.StatusUnauthorized, model.ErrorResponse{Error: "unauthorized"})
			c.Abort()
			return
		}

		subject, err := verifier.Verify(c.Request.Context(), token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, model.ErrorResponse{Error: "unauthorized"})
			c.Abort()
			return
		}

		c.Set(authSubjectKey, subject)
		c.Next()
	}
}

func GetAuthSubject(c *gin.Context) string {
	return c.GetString(authSubjectKey)
}
