package requesttime

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"equilibrium/pkg/requestcontext"
)

func TestMiddleware(t *testing.T) {
	var seen []time.Time
	h := Middleware(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		pinned, ok := requestcontext.Pinned(r.Context())
		assert.True(t, ok)
		seen = append(seen, pinned)
	}))

	before := time.Now()
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	h.ServeHTTP(httptest.NewRecorder(), req.WithContext(requestcontext.WithTime(req.Context(), fixed)))

	if assert.Len(t, seen, 2) {
		assert.WithinDuration(t, before, seen[0], time.Second)
		assert.Equal(t, fixed, seen[1], "an upstream time is kept")
	}
}
