package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func sign(t *testing.T, claims authClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

func newRouter(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw...)
	r.GET("/who", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetString("user_id"), "role": c.GetString("role")})
	})
	return r
}

func TestJWTAuth(t *testing.T) {
	r := newRouter(JWTAuth(JWTConfig{Secret: testSecret, Audience: "authenticated"}))

	valid := sign(t, authClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			Audience:  jwt.ClaimStrings{"authenticated"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		AppMetadata: map[string]any{"role": "admin"},
	})
	wrongAud := sign(t, authClaims{RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1", Audience: jwt.ClaimStrings{"other"}}})
	expired := sign(t, authClaims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "user-1",
		Audience:  jwt.ClaimStrings{"authenticated"},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	}})

	tests := []struct {
		name   string
		url    string
		header string
		status int
	}{
		{"valid header", "/who", "Bearer " + valid, http.StatusOK},
		{"valid query token", "/who?access_token=" + valid, "", http.StatusOK},
		{"missing", "/who", "", http.StatusUnauthorized},
		{"wrong audience", "/who", "Bearer " + wrongAud, http.StatusUnauthorized},
		{"expired", "/who", "Bearer " + expired, http.StatusUnauthorized},
		{"garbage", "/who", "Bearer abc.def.ghi", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				assert.JSONEq(t, `{"user_id":"user-1","role":"admin"}`, w.Body.String())
			}
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	r := newRouter(HeaderAuth(), RequireAdmin())

	req := httptest.NewRequest(http.MethodGet, "/who", nil)
	req.Header.Set("X-User-Id", "u1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	req.Header.Set("X-User-Role", "Admin")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequestLogger(t *testing.T) {
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestLogger(log), HeaderAuth())
	r.GET("/interviews/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	req := httptest.NewRequest(http.MethodGet, "/interviews/s1", nil)
	req.Header.Set("X-User-Id", "u1")
	req.Header.Set("X-Request-Id", "req-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "req-1", w.Header().Get("X-Request-Id"))
	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, "s1", entry.Data["session_id"])
	assert.Equal(t, "u1", entry.Data["user_id"])
	assert.Equal(t, "/interviews/:id", entry.Data["route"])
}
