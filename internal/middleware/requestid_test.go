package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runRequestID sends one request through the middleware and returns the id
// seen by the inner handler plus the recorded response.
func runRequestID(t *testing.T, headerID string) (string, *httptest.ResponseRecorder) {
	t.Helper()

	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/engines", nil)
	if headerID != "" {
		req.Header.Set("X-Request-ID", headerID)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return seen, rec
}

func TestRequestID(t *testing.T) {
	t.Parallel()

	t.Run("generated_when_absent", func(t *testing.T) {
		seen, rec := runRequestID(t, "")

		require.NotEmpty(t, seen)
		assert.Equal(t, seen, rec.Header().Get("X-Request-ID"))
	})

	t.Run("caller_id_kept", func(t *testing.T) {
		seen, rec := runRequestID(t, "dispatch-7f3a_001")

		assert.Equal(t, "dispatch-7f3a_001", seen)
		assert.Equal(t, "dispatch-7f3a_001", rec.Header().Get("X-Request-ID"))
	})

	t.Run("hostile_or_oversized_ids_replaced", func(t *testing.T) {
		cases := map[string]string{
			"newline":  "ok\nlevel=ERROR forged",
			"return":   "ok\rforged",
			"spaces":   "two words",
			"markup":   "<b>id</b>",
			"over_128": strings.Repeat("x", 129),
		}
		for name, headerID := range cases {
			t.Run(name, func(t *testing.T) {
				seen, _ := runRequestID(t, headerID)

				require.NotEmpty(t, seen)
				assert.NotEqual(t, headerID, seen)
			})
		}
	})

	t.Run("128_chars_is_the_limit", func(t *testing.T) {
		id := strings.Repeat("x", 128)
		seen, _ := runRequestID(t, id)
		assert.Equal(t, id, seen)
	})
}

func TestRequestIDFromContext_Bare(t *testing.T) {
	t.Parallel()

	assert.Empty(t, RequestIDFromContext(httptest.NewRequest(http.MethodGet, "/", nil).Context()))
}
