package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(secret string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/", Auth(secret), func(c *gin.Context) {
		_, ok := c.Get("claims")
		c.JSON(http.StatusOK, gin.H{"claims": ok})
	})
	return r
}

func call(r *gin.Engine, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuth_DisabledWithoutSecret(t *testing.T) {
	w := call(newEngine(""), "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuth_ValidToken(t *testing.T) {
	tok, err := IssueToken("k", "scheduler", time.Minute)
	require.NoError(t, err)

	w := call(newEngine("k"), "Bearer "+tok)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"claims":true}`, w.Body.String())
}

func TestAuth_Rejects(t *testing.T) {
	r := newEngine("k")

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "x",
		"exp": time.Now().Add(-time.Minute).Unix(),
	})
	expiredStr, err := expired.SignedString([]byte("k"))
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "x"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	cases := map[string]struct {
		header string
		msg    string
	}{
		"missing":      {"", "missing token"},
		"not bearer":   {"Basic abc", "invalid header"},
		"garbage":      {"Bearer abc", "invalid token"},
		"expired":      {"Bearer " + expiredStr, "token expired"},
		"alg none":     {"Bearer " + none, "invalid token"},
		"wrong secret": {"Bearer " + mustIssue(t, "other"), "invalid token"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			w := call(r, tc.header)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), tc.msg)
		})
	}
}

func TestIssueToken_RequiresSecret(t *testing.T) {
	_, err := IssueToken("", "x", time.Minute)
	assert.Error(t, err)
}

func mustIssue(t *testing.T, secret string) string {
	t.Helper()
	tok, err := IssueToken(secret, "x", time.Minute)
	require.NoError(t, err)
	return tok
}
