package geocoder

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func TestGeocodeReturnsRankedResults(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"latitude": 36.20, "longitude": 37.16, "quality": 9, "formatted_address": "Aleppo, Syria"},
			{"latitude": 36.10, "longitude": 37.00, "quality": 4}
		]`))
	}))
	defer srv.Close()

	client := New(srv.URL, "test-key", testLogger())
	results, err := client.Geocode(context.Background(), "Aleppo", "Aleppo Governorate")
	require.NoError(t, err)

	assert.Equal(t, "Aleppo, Aleppo Governorate", gotQuery)
	require.Len(t, results, 2)
	assert.Equal(t, 9.0, results[0].Quality)
	assert.Equal(t, 37.16, results[0].Longitude)
	assert.Equal(t, "Aleppo, Syria", results[0].FormattedAddress)
}

func TestGeocodeEmptyPlaceNameSkipsLookup(t *testing.T) {
	var requests atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
	}))
	defer srv.Close()

	client := New(srv.URL, "", testLogger())
	results, err := client.Geocode(context.Background(), "", "Some Governorate")
	require.NoError(t, err)
	assert.Nil(t, results)
	assert.Equal(t, int64(0), requests.Load())
}

func TestGeocodeNoMatchIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	client := New(srv.URL, "", testLogger())
	results, err := client.Geocode(context.Background(), "Nowhere", "")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestGeocodeServerErrorSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := New(srv.URL, "", testLogger())
	_, err := client.Geocode(context.Background(), "Aleppo", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
	assert.Contains(t, err.Error(), "429")
}

func TestGeocodeMalformedBodySurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"not": "an array"}`))
	}))
	defer srv.Close()

	client := New(srv.URL, "", testLogger())
	_, err := client.Geocode(context.Background(), "Aleppo", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal geocode response")
}
