package middleware

import "github.com/gin-gonic/gin"

// Context keys set by the middleware chain
const (
	CtxUserID    = "user_id"
	CtxUserRole  = "user_role"
	CtxSessionID = "session_id"
	CtxRequestID = "request_id"
)

func abort(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": message, "code": code})
}
