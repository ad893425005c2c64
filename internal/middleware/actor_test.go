package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/maroonxv/travel-sharing/internal/middleware"
)

func TestActorHandler_StoresHeader(t *testing.T) {
	var got string
	var ok bool
	h := middleware.NewActorHandler()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok = middleware.ActorFrom(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/trips", nil)
	req.Header.Set(middleware.ActorHeader, "  u-42 ")
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.True(t, ok)
	assert.Equal(t, "u-42", got)
}

func TestActorHandler_MissingHeader(t *testing.T) {
	ok := true
	h := middleware.NewActorHandler()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok = middleware.ActorFrom(r.Context())
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/trips", nil))

	assert.False(t, ok)
}
