package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

type staticReadiness bool

func (r staticReadiness) Authorized() bool { return bool(r) }

func TestServer_Handler(t *testing.T) {
	logger := zerolog.Nop()

	tests := []struct {
		name  string
		ready Readiness
		path  string
		want  int
	}{
		{name: "healthz always ok", ready: staticReadiness(false), path: "/healthz", want: http.StatusOK},
		{name: "readyz authorized", ready: staticReadiness(true), path: "/readyz", want: http.StatusOK},
		{name: "readyz not authorized", ready: staticReadiness(false), path: "/readyz", want: http.StatusServiceUnavailable},
		{name: "readyz without reader", ready: nil, path: "/readyz", want: http.StatusServiceUnavailable},
		{name: "metrics", ready: staticReadiness(true), path: "/metrics", want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := NewServer(tt.ready, 0, &logger)
			rec := httptest.NewRecorder()

			srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
