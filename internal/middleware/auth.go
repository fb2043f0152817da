// Package middleware 提供 HTTP 请求的中间件
// 包括客服 JWT 认证、CORS 跨域、日志记录等
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"product-chatbot-server/pkg/jwt"
	"product-chatbot-server/pkg/response"
)

// AgentAuthMiddleware 创建客服 JWT 认证中间件
// 验证请求头中的 Bearer Token，并将客服信息存入上下文
// 只有支持侧接口需要认证，面向顾客的聊天接口全部匿名
// 参数:
//   - jwtService: JWT 服务实例，用于解析和验证 Token
//
// 返回:
//   - gin.HandlerFunc: Gin 中间件函数
func AgentAuthMiddleware(jwtService *jwt.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Authorization 格式: "Bearer <token>"
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "请先登录")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, "认证格式错误")
			c.Abort()
			return
		}

		claims, err := jwtService.ValidateToken(parts[1])
		if err != nil {
			response.Unauthorized(c, "Token 无效或已过期")
			c.Abort()
			return
		}

		// 后续 Handler 通过 GetAgentID / GetAgentUsername 读取
		c.Set("agent_id", claims.AgentID)
		c.Set("agent_username", claims.Username)

		c.Next()
	}
}

// GetAgentID 从上下文获取客服 ID 的辅助函数
// 未认证返回 0
func GetAgentID(c *gin.Context) int64 {
	agentID, exists := c.Get("agent_id")
	if !exists {
		return 0
	}
	return agentID.(int64)
}

// GetAgentUsername 从上下文获取客服登录名的辅助函数
func GetAgentUsername(c *gin.Context) string {
	username, exists := c.Get("agent_username")
	if !exists {
		return ""
	}
	return username.(string)
}
