package requestid

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, inbound string) (*httptest.ResponseRecorder, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	var seen string
	r.GET("/ping", func(c *gin.Context) {
		seen = Value(c)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	if inbound != "" {
		req.Header.Set(Header, inbound)
	}
	r.ServeHTTP(w, req)
	return w, seen
}

func TestRequestIDGeneratedAndEchoed(t *testing.T) {
	w, seen := serve(t, "")

	require.NotEmpty(t, seen)
	assert.Equal(t, seen, w.Header().Get(Header))
	_, err := uuid.Parse(seen)
	assert.NoError(t, err)
}

func TestRequestIDKeepsUsableInboundValue(t *testing.T) {
	w, seen := serve(t, "client-trace-42")

	assert.Equal(t, "client-trace-42", seen)
	assert.Equal(t, "client-trace-42", w.Header().Get(Header))
}

func TestRequestIDReplacesUnusableInboundValue(t *testing.T) {
	for name, inbound := range map[string]string{
		"oversized":     strings.Repeat("x", 65),
		"control chars": "abc\ndef",
	} {
		_, seen := serve(t, inbound)
		require.NotEqual(t, inbound, seen, name)
		_, err := uuid.Parse(seen)
		assert.NoError(t, err, name)
	}
}
