package testutil

import (
	"net/http"
	"time"

	"equilibrium/pkg/requestcontext"
)

// WithRequestTime pins the request clock, as the requesttime middleware
// would, so handler tests get deterministic timestamps.
func WithRequestTime(req *http.Request, now time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), now))
}
