package middleware

import (
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"webasset/model"
	"webasset/utils"
)

// UserSyncer upserts the user asserted by a validated token.
type UserSyncer interface {
	SyncFromClaims(authentikID, username, email, fullName string) (*model.User, error)
}

// AuthMiddleware validates the bearer token minted by the auth gateway after
// the identity-provider handshake and places the local user id on the
// context. This service never participates in the OAuth flow itself.
func AuthMiddleware(secretKey, issuer string, users UserSyncer) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid token"})
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(secretKey), nil
		})
		if err != nil || !token.Valid {
			utils.TrackError("auth", "invalid_token")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok || claims["sub"] == nil || claims["exp"] == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token claims"})
			c.Abort()
			return
		}

		if exp, ok := claims["exp"].(float64); ok {
			if time.Now().Unix() > int64(exp) {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Token has expired"})
				c.Abort()
				return
			}
		}

		if iss, ok := claims["iss"].(string); ok && issuer != "" && iss != issuer {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token issuer"})
			c.Abort()
			return
		}

		authentikID, ok := claims["sub"].(string)
		if !ok || authentikID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid subject in token"})
			c.Abort()
			return
		}

		email, _ := claims["email"].(string)
		username, _ := claims["preferred_username"].(string)
		fullName, _ := claims["name"].(string)
		if username == "" {
			username = email
		}

		user, err := users.SyncFromClaims(authentikID, username, email, fullName)
		if err != nil {
			log.Printf("Error syncing user %s: %v", authentikID, err)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Failed to resolve user"})
			c.Abort()
			return
		}

		c.Set("user_id", user.UserID)
		c.Set("user_email", user.Email)
		c.Next()
	}
}
