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

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims supabaseClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := tok.SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func validClaims(role string) supabaseClaims {
	c := supabaseClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Role: "authenticated",
	}
	if role != "" {
		c.AppMetadata = map[string]any{"role": role}
	}
	return c
}

func whoami(c *gin.Context) {
	uid, _ := c.Get("user_id")
	role, _ := c.Get("role")
	c.JSON(http.StatusOK, gin.H{"user_id": uid, "role": role})
}

func newEngine(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/x", handlers...)
	return r
}

func get(r http.Handler, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func bearer(tok string) http.Header {
	return http.Header{"Authorization": {"Bearer " + tok}}
}

func TestJWTAuth_DisabledPassesThrough(t *testing.T) {
	r := newEngine(JWTAuth(JWTConfig{}), whoami)

	w := get(r, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":null,"role":null}`, w.Body.String())
}

func TestJWTAuth(t *testing.T) {
	r := newEngine(JWTAuth(JWTConfig{Secret: testSecret, Audience: "authenticated"}), whoami)

	claims := validClaims("admin")
	claims.Audience = jwt.ClaimStrings{"authenticated"}
	w := get(r, bearer(signToken(t, testSecret, claims)))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":"user-1","role":"admin"}`, w.Body.String())

	cases := map[string]http.Header{
		"missing header": nil,
		"empty token":    {"Authorization": {"Bearer  "}},
		"wrong secret":   bearer(signToken(t, "other", claims)),
		"wrong audience": bearer(signToken(t, testSecret, validClaims(""))),
	}
	for name, h := range cases {
		t.Run(name, func(t *testing.T) {
			w := get(r, h)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), `"code":"UNAUTHORIZED"`)
			assert.Contains(t, w.Body.String(), `"success":false`)
		})
	}
}

func TestJWTAuth_DefaultRoleIsUser(t *testing.T) {
	r := newEngine(JWTAuth(JWTConfig{Secret: testSecret}), whoami)

	w := get(r, bearer(signToken(t, testSecret, validClaims(""))))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":"user-1","role":"user"}`, w.Body.String())
}

func TestJWTAuth_ExpiredToken(t *testing.T) {
	r := newEngine(JWTAuth(JWTConfig{Secret: testSecret}), whoami)

	claims := validClaims("")
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	w := get(r, bearer(signToken(t, testSecret, claims)))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireRole(t *testing.T) {
	setRole := func(role string) gin.HandlerFunc {
		return func(c *gin.Context) {
			if role != "" {
				c.Set("role", role)
			}
			c.Next()
		}
	}

	assert.Equal(t, http.StatusOK, get(newEngine(setRole("Admin"), RequireAdmin(), whoami), nil).Code)
	assert.Equal(t, http.StatusForbidden, get(newEngine(setRole("user"), RequireAdmin(), whoami), nil).Code)
	assert.Equal(t, http.StatusForbidden, get(newEngine(setRole(""), RequireAdmin(), whoami), nil).Code)
}

func TestCORS_Preflight(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS([]string{"http://localhost:3000"}))
	r.POST("/query", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/query", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/query", nil)
	req.Header.Set("Origin", "http://evil.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestTimeout_SetsDeadline(t *testing.T) {
	var hasDeadline bool
	r := newEngine(Timeout(time.Second), func(c *gin.Context) {
		_, hasDeadline = c.Request.Context().Deadline()
		c.Status(http.StatusOK)
	})
	get(r, nil)
	assert.True(t, hasDeadline)

	r = newEngine(Timeout(0), func(c *gin.Context) {
		_, hasDeadline = c.Request.Context().Deadline()
		c.Status(http.StatusOK)
	})
	get(r, nil)
	assert.False(t, hasDeadline)
}
