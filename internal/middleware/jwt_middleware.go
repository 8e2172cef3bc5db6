package middleware

import (
	"net/http"
	"strings"

	"github.com/annel0/overworld/internal/auth"
	"github.com/gin-gonic/gin"
)

// OperatorKey ключ контекста gin с именем оператора
const OperatorKey = "operator"

// JWTAuth проверяет токен в заголовке "Authorization: Bearer <token>"
func JWTAuth(signer *auth.Signer) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Отсутствует токен авторизации"})
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Неверный формат токена"})
			return
		}

		claims, err := signer.Validate(parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Недействительный токен"})
			return
		}

		c.Set(OperatorKey, claims.Operator)
		c.Next()
	}
}
