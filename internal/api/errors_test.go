package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"recogym/internal/apperr"
)

func TestRespondError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name   string
		err    error
		status int
		body   string
	}{
		{"not found", apperr.NotFound("class 3 not found"), http.StatusNotFound, `{"error":"class 3 not found"}`},
		{"conflict", apperr.CapacityExceeded("class is full"), http.StatusConflict, `{"error":"class is full"}`},
		{"internal", errors.New("pq: deadlock detected"), http.StatusInternalServerError, `{"error":"internal server error"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest("GET", "/", nil)

			RespondError(c, tt.err)

			assert.Equal(t, tt.status, w.Code)
			assert.JSONEq(t, tt.body, w.Body.String())
		})
	}
}

func TestBindJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var dst struct {
		Name string `json:"name" binding:"required"`
	}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("POST", "/", strings.NewReader(`{"name":`))
	c.Request.Header.Set("Content-Type", "application/json")

	assert.False(t, BindJSON(c, &dst))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestParamID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	for _, tc := range []struct {
		raw string
		id  int
		ok  bool
	}{
		{"12", 12, true},
		{"0", 0, false},
		{"abc", 0, false},
	} {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Params = gin.Params{{Key: "id", Value: tc.raw}}

		id, ok := ParamID(c, "id")
		assert.Equal(t, tc.id, id)
		assert.Equal(t, tc.ok, ok)
	}
}
