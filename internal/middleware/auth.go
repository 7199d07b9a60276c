package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// TokenAuth 共享密钥认证中间件。
//
// 令牌取自 Authorization: Bearer <token> 或 X-Auth-Token 头。
// 服务端未配置密钥时返回 500 而不是放行，避免配置缺失变成未授权访问。
func TokenAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "server misconfigured",
			})
			c.Abort()
			return
		}

		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			token = c.GetHeader("X-Auth-Token")
		}

		if subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "unauthorized",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// bearerToken 提取 Bearer 令牌，非 Bearer 形式返回空串。
func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return header[len(prefix):]
	}
	return ""
}
