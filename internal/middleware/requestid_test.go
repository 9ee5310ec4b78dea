package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestID(t *testing.T) {
	tests := []struct {
		name     string
		headerID string
		wantNew  bool
	}{
		{name: "absent", headerID: "", wantNew: true},
		{name: "valid with separators", headerID: "abc-123_DEF.9:x", wantNew: false},
		{name: "max length", headerID: strings.Repeat("a", 128), wantNew: false},
		{name: "too long", headerID: strings.Repeat("a", 129), wantNew: true},
		{name: "newline", headerID: "fake\nINJECTED: yes", wantNew: true},
		{name: "spaces", headerID: "id with spaces", wantNew: true},
		{name: "markup", headerID: "id<script>", wantNew: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var captured string
			handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				captured = RequestIDFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.headerID != "" {
				req.Header.Set(RequestIDHeader, tt.headerID)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			require.NotEmpty(t, captured)
			assert.Equal(t, captured, rec.Header().Get(RequestIDHeader))
			if tt.wantNew {
				assert.NotEqual(t, tt.headerID, captured)
			} else {
				assert.Equal(t, tt.headerID, captured)
			}
		})
	}
}

func TestRequestIDFromContext_EmptyWithoutMiddleware(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, RequestIDFromContext(req.Context()))
}
