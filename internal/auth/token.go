// Package auth is the boundary to the identity collaborator: it only
// reads claims issued elsewhere, it never mints tokens.
package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims carries what the relay needs from the identity provider: who
// the user is and which language they prefer by default.
type Claims struct {
	Name string `json:"name,omitempty"`
	Lang string `json:"lang,omitempty"`
	jwt.RegisteredClaims
}

func ParseToken(secret, raw string) (*Claims, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("%w: unexpected signing method %v", ErrInvalidToken, t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !tok.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Middleware resolves identity from an optional bearer token. A missing
// or bad token degrades to guest identity downstream; it is not an error.
func Middleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if ok && secret != "" {
			claims, err := ParseToken(secret, raw)
			if err != nil {
				log.Debug().Err(err).Str("module", "auth").Msg("ignoring bearer token")
			} else {
				c.Set("user_id", claims.Subject)
				c.Set("user_name", claims.Name)
				c.Set("user_lang", claims.Lang)
			}
		}
		c.Next()
	}
}
