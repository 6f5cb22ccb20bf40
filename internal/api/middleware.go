package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"alcyxob/jogging-api/internal/domain"
	"alcyxob/jogging-api/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Context key for the authenticated caller.
const ContextUserKey = "currentUser"

// AuthMiddleware creates a Gin middleware for JWT authentication.
// The authenticated caller is stored in the request context as a
// *domain.User built from the token claims.
func AuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, err := callerFromHeader(c, jwtSecret)
		if err != nil {
			abortWithError(c, http.StatusUnauthorized, err.Error())
			return
		}
		c.Set(ContextUserKey, caller)
		c.Next()
	}
}

// OptionalAuthMiddleware is AuthMiddleware with a missing Authorization
// header tolerated: the request proceeds anonymously. A header that is
// present but invalid is still rejected. Needed on the user-creation
// route, where anonymous callers may sign up as joggers.
func OptionalAuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.Next()
			return
		}
		caller, err := callerFromHeader(c, jwtSecret)
		if err != nil {
			abortWithError(c, http.StatusUnauthorized, err.Error())
			return
		}
		c.Set(ContextUserKey, caller)
		c.Next()
	}
}

func callerFromHeader(c *gin.Context, jwtSecret string) (*domain.User, error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return nil, errors.New("Authorization header is missing")
	}

	// Expecting "Bearer <token>"
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return nil, errors.New("Authorization header format must be Bearer {token}")
	}
	tokenString := parts[1]

	claims := &service.Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(jwtSecret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, errors.New("Token has expired")
		}
		return nil, fmt.Errorf("Invalid token: %v", err)
	}
	if !token.Valid || claims.UserID == "" {
		return nil, errors.New("Invalid token or missing claims")
	}

	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return nil, errors.New("Invalid user ID in token")
	}

	return &domain.User{
		ID:          userID,
		IsStaff:     claims.IsStaff,
		IsSuperuser: claims.IsSuperuser,
	}, nil
}

// currentUser returns the authenticated caller, or nil for anonymous
// requests behind OptionalAuthMiddleware.
func currentUser(c *gin.Context) *domain.User {
	raw, exists := c.Get(ContextUserKey)
	if !exists {
		return nil
	}
	caller, ok := raw.(*domain.User)
	if !ok {
		return nil
	}
	return caller
}

// Helper to return JSON error response and abort request
func abortWithError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{"error": message})
}
