package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/h91530/sns/model"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SessionCookie carries the signed session token. It is the only channel
// identity is resolved from; client-supplied id headers are never trusted.
const SessionCookie = "session_token"

const sessionMaxAge = 24 * time.Hour

// MakeSessionToken signs a session JWT for a user
func MakeSessionToken(userID string) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"type":    "session",
		"iat":     time.Now().Unix(),
		"exp":     time.Now().Add(sessionMaxAge).Unix(),
	})

	return t.SignedString([]byte(viper.GetString("jwt.secret")))
}

// SetSessionCookie attaches a fresh session cookie to the response
func SetSessionCookie(c *gin.Context, userID string) error {
	token, err := MakeSessionToken(userID)
	if err != nil {
		return err
	}

	c.SetCookie(SessionCookie, token, int(sessionMaxAge.Seconds()), "/", "", viper.GetBool("host.ssl.enabled"), true)
	return nil
}

// ClearSessionCookie removes the session cookie, used after account deletion
func ClearSessionCookie(c *gin.Context) {
	c.SetCookie(SessionCookie, "", -1, "/", "", viper.GetBool("host.ssl.enabled"), true)
}

// NewOptionalSessionMiddleware resolves the caller when a valid session is
// present and stays silent otherwise. Used on public reads that only
// personalize their response (liked flags, is_following).
func NewOptionalSessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, err := c.Cookie(SessionCookie)
		if err != nil || tokenStr == "" {
			if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
				tokenStr = strings.TrimPrefix(h, "Bearer ")
			}
		}

		if tokenStr == "" {
			c.Next()
			return
		}

		token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
			if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
				return nil, fmt.Errorf("unexpected signing method: %s", t.Method.Alg())
			}

			return []byte(viper.GetString("jwt.secret")), nil
		})
		if err != nil || !token.Valid {
			c.Next()
			return
		}

		if claims, ok := token.Claims.(jwt.MapClaims); ok {
			if userID, ok := claims["user_id"].(string); ok && userID != "" {
				c.Set("userID", userID)
			}
		}

		c.Next()
	}
}

// NewSessionMiddleware validates the session token and resolves the caller.
// The token is read from the session cookie or, for non-browser clients,
// from a bearer Authorization header. Both carry the same signed JWT; a raw
// user id is never accepted.
func NewSessionMiddleware(d *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.MustGet("requestID").(string)

		tokenStr, err := c.Cookie(SessionCookie)
		if err != nil || tokenStr == "" {
			if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
				tokenStr = strings.TrimPrefix(h, "Bearer ")
			}
		}

		if tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":     "Login required",
				"requestID": requestID,
			})
			return
		}

		token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
			if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
				return nil, fmt.Errorf("unexpected signing method: %s", t.Method.Alg())
			}

			return []byte(viper.GetString("jwt.secret")), nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":     "Invalid session",
				"requestID": requestID,
			})
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":     "Invalid session",
				"requestID": requestID,
			})
			return
		}

		userID, ok := claims["user_id"].(string)
		if !ok || userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":     "Invalid session",
				"requestID": requestID,
			})
			return
		}

		// A deleted account can still hold a signed token, so the row is
		// checked on every request
		var user model.User
		err = d.Where("id = ?", userID).First(&user).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
					"error":     "User not found",
					"requestID": requestID,
				})
				return
			}

			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error":     "Internal server error",
				"requestID": requestID,
			})

			zap.L().Error("Failed to check if user exists", zap.Error(err), zap.String("requestID", requestID))
			return
		}

		c.Set("userID", userID)
		c.Next()
	}
}
