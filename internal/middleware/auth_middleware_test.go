package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tourdesk/booking-backend/pkg/jwt"
)

func setupTestJWTService() *jwt.Service {
	return jwt.NewService(
		"test-access-secret-key-123456789",
		"test-refresh-secret-key-123456789",
		time.Hour,
		24*time.Hour,
	)
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func setupProtectedRouter(jwtService *jwt.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/protected", AuthMiddleware(jwtService, testLogger()), func(c *gin.Context) {
		userCtx, exists := GetUserContext(c)
		if !exists {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "user_id": userCtx.UserID, "email": userCtx.Email})
	})
	return router
}

func doRequest(router *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware_Success(t *testing.T) {
	jwtService := setupTestJWTService()
	router := setupProtectedRouter(jwtService)

	token, err := jwtService.GenerateAccessToken(12, "staff@example.com")
	require.NoError(t, err)

	w := doRequest(router, "Bearer "+token)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":12`)
	assert.Contains(t, w.Body.String(), "staff@example.com")
}

func TestAuthMiddleware_MissingAuthHeader(t *testing.T) {
	w := doRequest(setupProtectedRouter(setupTestJWTService()), "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "MISSING_AUTH_HEADER")
	assert.Contains(t, w.Body.String(), `"success":false`)
}

func TestAuthMiddleware_InvalidAuthFormat(t *testing.T) {
	router := setupProtectedRouter(setupTestJWTService())

	tests := []struct {
		name   string
		header string
	}{
		{"Missing Bearer", "some-token"},
		{"Wrong prefix", "Basic some-token"},
		{"Empty Bearer", "Bearer   "},
		{"No token", "Bearer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(router, tt.header)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), "INVALID_AUTH_FORMAT")
		})
	}
}

func TestAuthMiddleware_InvalidToken(t *testing.T) {
	router := setupProtectedRouter(setupTestJWTService())
	foreign := jwt.NewService("some-other-secret-key-123456789", "x", time.Hour, time.Hour)
	forged, err := foreign.GenerateAccessToken(12, "staff@example.com")
	require.NoError(t, err)

	for _, token := range []string{"not.a.token", "garbage", forged} {
		w := doRequest(router, "Bearer "+token)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "INVALID_TOKEN", token)
		assert.NotContains(t, w.Body.String(), "TOKEN_EXPIRED", token)
	}
}

func TestAuthMiddleware_ExpiredToken(t *testing.T) {
	jwtService := setupTestJWTService()
	expired := jwt.NewService("test-access-secret-key-123456789", "x", -time.Minute, time.Hour)
	token, err := expired.GenerateAccessToken(12, "staff@example.com")
	require.NoError(t, err)

	w := doRequest(setupProtectedRouter(jwtService), "Bearer "+token)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "TOKEN_EXPIRED")
}

func TestAuthMiddleware_RefreshTokenRejected(t *testing.T) {
	jwtService := setupTestJWTService()
	token, err := jwtService.GenerateRefreshToken(12, "staff@example.com")
	require.NoError(t, err)

	w := doRequest(setupProtectedRouter(jwtService), "Bearer "+token)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_TOKEN")
}

func TestGetUserContext_Missing(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	_, ok := GetUserContext(c)
	assert.False(t, ok)

	c.Set(UserContextKey, "not a user")
	_, ok = GetUserContext(c)
	assert.False(t, ok)
}
