package infra

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/nrad-K/car-catalog/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestImageProber() *imageProber {
	return NewImageProber(config.ImageProbeConfig{
		RequestsPerSecond: 50,
		Burst:             10,
		TimeoutSeconds:    5,
		UserAgent:         "probe-test",
	})
}

func TestImageProber_Probe(t *testing.T) {
	var gets atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "probe-test", r.Header.Get("User-Agent"))
		switch r.URL.Path {
		case "/4435/51234/color_1_360.png":
			w.WriteHeader(http.StatusOK)
		case "/head-not-allowed.png":
			if r.Method == http.MethodHead {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			gets.Add(1)
			w.Write([]byte("png"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	prober := newTestImageProber()
	ctx := context.Background()

	ok, err := prober.Probe(ctx, srv.URL+"/4435/51234/color_1_360.png")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = prober.Probe(ctx, srv.URL+"/missing.png")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = prober.Probe(ctx, srv.URL+"/head-not-allowed.png")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int32(1), gets.Load())
}

func TestImageProber_CanceledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestImageProber().Probe(ctx, srv.URL+"/a.png")
	assert.Error(t, err)
}
