package utils

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext(headers map[string]string) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "192.0.2.10:5555"
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	c.Request = req
	return c
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{"remote addr", nil, "192.0.2.10"},
		{"public real ip", map[string]string{"X-Real-IP": "203.0.113.7"}, "203.0.113.7"},
		{"private real ip ignored", map[string]string{"X-Real-IP": "10.1.2.3"}, "192.0.2.10"},
		{"first public forwarded", map[string]string{"X-Forwarded-For": "10.0.0.1, 198.51.100.4, 203.0.113.9"}, "198.51.100.4"},
		{"all private forwarded", map[string]string{"X-Forwarded-For": "10.0.0.1, 192.168.1.1"}, "10.0.0.1"},
		{"garbage forwarded", map[string]string{"X-Forwarded-For": "nope"}, "192.0.2.10"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClientIP(testContext(tt.headers)))
		})
	}
}

func TestUserAgent(t *testing.T) {
	assert.Equal(t, "Unknown", UserAgent(testContext(nil)))
	assert.Equal(t, "curl/8.0", UserAgent(testContext(map[string]string{"User-Agent": "curl/8.0"})))
}

func TestParseUserAgent(t *testing.T) {
	iphone := "Mozilla/5.0 (iPhone; CPU iPhone OS 16_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.0 Mobile/15E148 Safari/604.1"
	desktop := "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	bot := "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)"

	assert.Equal(t, "mobile", ParseUserAgent(iphone).DeviceType)
	assert.True(t, isTablet("Mozilla/5.0 (iPad; CPU OS 16_0 like Mac OS X)"))

	info := ParseUserAgent(desktop)
	assert.Equal(t, "desktop", info.DeviceType)
	assert.Contains(t, info.Browser, "Chrome")

	assert.True(t, ParseUserAgent(bot).IsBot)
	assert.Equal(t, "unknown", ParseUserAgent("").DeviceType)
}

func TestGenerateSecrets(t *testing.T) {
	s, err := GenerateSecrets()
	require.NoError(t, err)

	assert.Len(t, s.JWTSecret, 64)
	assert.Len(t, s.WebhookSecret, 64)
	assert.NotEqual(t, s.JWTSecret, s.JWTRefreshSecret)
	assert.NotEqual(t, s.JWTSecret, s.WebhookSecret)
}
