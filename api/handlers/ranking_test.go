package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func setupIdentityRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.GET("/whoami", RequireUser(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"userId": currentUser(c)})
	})
	return engine
}

// Run tests on the identity middleware outcomes.
func TestRequireUser(t *testing.T) {
	tests := []struct {
		name           string
		header         string
		expectedStatus int
	}{
		{name: "missingHeader", header: "", expectedStatus: http.StatusUnauthorized},
		{name: "invalidHeader", header: "not-a-number", expectedStatus: http.StatusUnauthorized},
		{name: "zeroUser", header: "0", expectedStatus: http.StatusUnauthorized},
		{name: "validUser", header: "42", expectedStatus: http.StatusOK},
	}

	engine := setupIdentityRouter()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tt.header != "" {
				req.Header.Set("X-User-ID", tt.header)
			}

			recorder := httptest.NewRecorder()
			engine.ServeHTTP(recorder, req)

			assert.Equal(t, tt.expectedStatus, recorder.Code)
		})
	}
}
