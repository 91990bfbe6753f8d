package middleware

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"construyo-opshub/pkg/errutil"
)

const userIDKey = "auth.user_id"

// Auth validates the bearer token issued by the hosted auth service and puts
// the caller's user id on the request context.
func Auth(jwtSecret, issuer string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			abortUnauthorized(c, "missing bearer token")
			return
		}

		tokenString := strings.TrimPrefix(header, "Bearer ")
		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(jwtSecret), nil
		})
		if err != nil || !token.Valid {
			abortUnauthorized(c, "invalid bearer token")
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			abortUnauthorized(c, "invalid token claims")
			return
		}

		if issuer != "" {
			if iss, _ := claims.GetIssuer(); iss != issuer {
				abortUnauthorized(c, "invalid token issuer")
				return
			}
		}

		sub, err := claims.GetSubject()
		if err != nil || sub == "" {
			abortUnauthorized(c, "missing subject claim")
			return
		}

		c.Set(userIDKey, sub)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, msg string) {
	err := errutil.Unauthorized(msg)
	_ = c.Error(err)
	c.Abort()
}

// UserID returns the authenticated caller's id, empty when unauthenticated.
func UserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}
