package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Nusantara-Apps/rutina/internal/db"
)

const tokenTTL = 72 * time.Hour

// TokenClaims is what logout needs to revoke the presented token.
type TokenClaims struct {
	UserID  int
	TokenID string
	Expires time.Time
}

// GenerateJWT signs a token embedding the user in "sub" and a fresh token
// id in "jti" so the token can be revoked individually.
func GenerateJWT(userID int, secret string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID,
		"jti": uuid.NewString(),
		"exp": time.Now().Add(tokenTTL).Unix(),
	})
	return token.SignedString([]byte(secret))
}

// parseToken verifies the JWT and extracts its claims.
func parseToken(tokenString, secret string) (*TokenClaims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("invalid token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid claims")
	}
	sub, ok := claims["sub"].(float64)
	if !ok {
		return nil, errors.New("invalid sub claim")
	}
	jti, ok := claims["jti"].(string)
	if !ok {
		return nil, errors.New("invalid jti claim")
	}
	exp, ok := claims["exp"].(float64)
	if !ok {
		return nil, errors.New("invalid exp claim")
	}
	return &TokenClaims{
		UserID:  int(sub),
		TokenID: jti,
		Expires: time.Unix(int64(exp), 0),
	}, nil
}

// GetTokenClaims retrieves the verified claims of the presented token
// (after JWTMiddleware has run).
func GetTokenClaims(c *gin.Context) (*TokenClaims, bool) {
	v, exists := c.Get("tokenClaims")
	if !exists {
		return nil, false
	}
	claims, ok := v.(*TokenClaims)
	return claims, ok
}

// JWTMiddleware checks "Authorization: Bearer <token>", verifies it,
// rejects revoked tokens, loads the user, and sets "currentUser" and
// "tokenClaims" in the context.
func JWTMiddleware(secret string, store db.Store, denylist TokenDenylist) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "missing auth header"})
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "invalid auth header"})
			return
		}

		claims, err := parseToken(parts[1], secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "invalid token"})
			return
		}

		denied, err := denylist.IsDenied(c.Request.Context(), claims.TokenID)
		if err != nil || denied {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "token revoked"})
			return
		}

		user, err := store.GetUserByID(claims.UserID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "user not found"})
			return
		}
		c.Set("currentUser", user)
		c.Set("tokenClaims", claims)
		c.Next()
	}
}
