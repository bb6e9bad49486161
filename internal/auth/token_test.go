package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func mintToken(t *testing.T, secret string) string {
	t.Helper()
	claims := Claims{
		Name: "alice",
		Lang: "fr",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return raw
}

func TestParseToken(t *testing.T) {
	req := require.New(t)
	raw := mintToken(t, "s3cret")

	claims, err := ParseToken("s3cret", raw)
	req.NoError(err)
	req.Equal("user-1", claims.Subject)
	req.Equal("alice", claims.Name)
	req.Equal("fr", claims.Lang)

	_, err = ParseToken("wrong-secret", raw)
	req.ErrorIs(err, ErrInvalidToken)

	_, err = ParseToken("s3cret", "not.a.token")
	req.ErrorIs(err, ErrInvalidToken)
}

func TestMiddlewareResolvesClaims(t *testing.T) {
	req := require.New(t)
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(Middleware("s3cret"))
	r.GET("/whoami", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"id":   c.GetString("user_id"),
			"lang": c.GetString("user_lang"),
		})
	})

	// Valid token populates identity.
	w := httptest.NewRecorder()
	httpReq := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	httpReq.Header.Set("Authorization", "Bearer "+mintToken(t, "s3cret"))
	r.ServeHTTP(w, httpReq)
	req.Equal(http.StatusOK, w.Code)
	req.JSONEq(`{"id":"user-1","lang":"fr"}`, w.Body.String())

	// A bad token degrades to anonymous, it does not fail the request.
	w = httptest.NewRecorder()
	httpReq = httptest.NewRequest(http.MethodGet, "/whoami", nil)
	httpReq.Header.Set("Authorization", "Bearer garbage")
	r.ServeHTTP(w, httpReq)
	req.Equal(http.StatusOK, w.Code)
	req.JSONEq(`{"id":"","lang":""}`, w.Body.String())
}
