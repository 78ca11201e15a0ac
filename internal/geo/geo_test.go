package geo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistanceKm(t *testing.T) {
	// Delhi to Mumbai, roughly 1150km.
	d := DistanceKm(28.6139, 77.2090, 19.0760, 72.8777)
	assert.InDelta(t, 1150, d, 30)

	// Same point.
	assert.InDelta(t, 0, DistanceKm(28.61, 77.21, 28.61, 77.21), 0.001)

	// Short hop stays small and positive.
	short := DistanceKm(28.6139, 77.2090, 28.6239, 77.2190)
	assert.Greater(t, short, 0.0)
	assert.Less(t, short, 3.0)
}

func TestClientResolve(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "5 Rajpath", r.URL.Query().Get("q"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"latitude": 28.6139, "longitude": 77.2090}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	coords, err := c.Resolve(context.Background(), "5 Rajpath")
	require.NoError(t, err)
	assert.InDelta(t, 28.6139, coords.Latitude, 0.0001)
	assert.InDelta(t, 77.2090, coords.Longitude, 0.0001)
}

func TestClientResolveFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	_, err := c.Resolve(context.Background(), "nowhere in particular")
	assert.Error(t, err, "failures mean coordinates stay unknown")
}
