package weather

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategorize(t *testing.T) {
	tests := []struct {
		conditions string
		want       string
	}{
		{"Clear skies", "CLEAR"},
		{"Sunny", "CLEAR"},
		{"Overcast", "CLOUDY"},
		{"Partially cloudy", "CLOUDY"},
		{"Light rain", "PRECIPITATION"},
		{"Snow showers", "PRECIPITATION"},
		{"Thunderstorm", "PRECIPITATION"},
		{"Fog", "OTHER"},
		{"", "OTHER"},
		// text matching several categories: later categories win
		{"Sunny with rain showers", "PRECIPITATION"},
		{"Clear, becoming cloudy", "CLOUDY"},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, Categorize(tc.conditions), "conditions %q", tc.conditions)
	}
}

func historyBody(location, conditions string) string {
	return fmt.Sprintf(`{"locations":{%q:{"values":[{"conditions":%q}]}}}`, location, conditions)
}

func TestLookup(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "history", r.URL.Query().Get("goal"))
		assert.Equal(t, "Berlin", r.URL.Query().Get("locations"))
		assert.Equal(t, "2020-10-14T08:30:00", r.URL.Query().Get("startDateTime"))
		fmt.Fprint(w, historyBody("Berlin", "Partially cloudy"))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", time.Second)

	got := client.Lookup(context.Background(), "Berlin", "2020-10-14T08:30:00")
	assert.Equal(t, "CLOUDY", got)
	require.Equal(t, 1, calls)

	// second lookup is served from cache
	got = client.Lookup(context.Background(), "Berlin", "2020-10-14T08:30:00")
	assert.Equal(t, "CLOUDY", got)
	assert.Equal(t, 1, calls)
}

func TestLookupEmptyLocation(t *testing.T) {
	client := NewClient("http://weather.invalid", "test-key", time.Second)
	assert.Equal(t, "", client.Lookup(context.Background(), "", "2020-10-14T08:30:00"))
}

func TestLookupUnknownLocation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"errorCode":999,"message":"Location Atlantis could not be found"}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", time.Second)
	assert.Equal(t, "", client.Lookup(context.Background(), "Atlantis", "2020-10-14T08:30:00"))
}

func TestLookupNeverFails(t *testing.T) {
	badResponses := []http.HandlerFunc{
		func(w http.ResponseWriter, r *http.Request) { fmt.Fprint(w, "not json") },
		func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusInternalServerError) },
		func(w http.ResponseWriter, r *http.Request) { fmt.Fprint(w, `{"locations":{}}`) },
		func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"errorCode":105,"message":"invalid api key"}`)
		},
	}

	for i, handler := range badResponses {
		server := httptest.NewServer(handler)
		got := NewClient(server.URL, "test-key", time.Second).
			Lookup(context.Background(), "Berlin", "2020-10-14T08:30:00")
		assert.Equal(t, "", got, "response variant %d", i)
		server.Close()
	}

	// unreachable server
	client := NewClient("http://127.0.0.1:1", "test-key", 100*time.Millisecond)
	assert.Equal(t, "", client.Lookup(context.Background(), "Berlin", "2020-10-14T08:30:00"))
}
