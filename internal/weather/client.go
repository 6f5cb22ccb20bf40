// Package weather looks up the recorded weather for a location and
// timestamp through the Visual Crossing history API and reduces it to one
// of the categories CLEAR, CLOUDY, PRECIPITATION or OTHER.
//
// The lookup contract is deliberately forgiving: any failure (timeout,
// bad response, unknown location) yields an empty string, never an error,
// so saving a session can never fail because the weather service is down.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"
)

// Service is the weather collaborator interface the session service uses.
type Service interface {
	Lookup(ctx context.Context, location, isoTimestamp string) string
}

const (
	oneHour = 60 * 60
	// Historical weather never changes, keep results for a day.
	weatherCacheExpire = oneHour * 24

	defaultRequestTimeout = 5 * time.Second
)

// Client queries the Visual Crossing weather history API.
type Client struct {
	apiURL     string // http://weather.visualcrossing.com/VisualCrossingWebServices/rest/services/weatherdata/history
	apiKey     string
	cache      *freecache.Cache
	httpClient *http.Client
}

func NewClient(apiURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	megabyte := 1024 * 1024
	return &Client{
		apiURL:     apiURL,
		apiKey:     apiKey,
		cache:      freecache.NewCache(10 * megabyte),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Lookup returns the weather category for the location at the given
// timestamp, or an empty string when the location is empty or the lookup
// fails for any reason. A single attempt is made, no retries.
func (c *Client) Lookup(ctx context.Context, location, isoTimestamp string) string {
	if location == "" {
		return ""
	}

	cacheKey := []byte(location + "::" + isoTimestamp)
	if cached, err := c.cache.Get(cacheKey); err == nil {
		log.Tracef("weather for %s@%s served from cache", location, isoTimestamp)
		return string(cached)
	}

	summary, err := c.lookup(ctx, location, isoTimestamp)
	if err != nil {
		log.Warnf("weather lookup for %s@%s failed: %s", location, isoTimestamp, err)
		return ""
	}

	if err := c.cache.Set(cacheKey, []byte(summary), weatherCacheExpire); err != nil {
		log.Debugf("failed to cache weather for %s: %s", location, err)
	}

	return summary
}

// historyResponse is the part of the Visual Crossing payload we read.
type historyResponse struct {
	Locations map[string]struct {
		Values []struct {
			Conditions string `json:"conditions"`
		} `json:"values"`
	} `json:"locations"`
	ErrorCode *int   `json:"errorCode"`
	Message   string `json:"message"`
}

func (c *Client) lookup(ctx context.Context, location, isoTimestamp string) (string, error) {
	queryURL := fmt.Sprintf(
		"%s?goal=history&aggregateHours=24&startDateTime=%s&endDateTime=%s&contentType=json&unitGroup=metric&locations=%s&key=%s",
		c.apiURL, isoTimestamp, isoTimestamp, url.QueryEscape(location), c.apiKey,
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, queryURL, nil)
	if err != nil {
		return "", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("http client do: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read weather api response: %w", err)
	}

	var history historyResponse
	if err := json.Unmarshal(respBytes, &history); err != nil {
		return "", fmt.Errorf("unmarshal weather api response: %w", err)
	}

	if history.ErrorCode != nil {
		if strings.HasSuffix(history.Message, "could not be found") {
			return "", nil // blank for unknown locations
		}
		return "", fmt.Errorf("weather api error %d: %s", *history.ErrorCode, history.Message)
	}

	loc, ok := history.Locations[location]
	if !ok || len(loc.Values) == 0 {
		return "", fmt.Errorf("no weather values for location %q", location)
	}

	return Categorize(loc.Values[0].Conditions), nil
}

// category substrings, checked in declaration order
var categories = []struct {
	name       string
	substrings []string
}{
	{"CLEAR", []string{"sun", "clear"}},
	{"CLOUDY", []string{"cloud", "overcast"}},
	{"PRECIPITATION", []string{"rain", "shower", "storm", "thunder", "snow", "hail"}},
}

// Categorize reduces a free-form conditions text to a weather category.
// Matching is case-insensitive substring matching; when the text matches
// several categories, later categories override earlier matches.
func Categorize(conditions string) string {
	conditions = strings.ToLower(conditions)

	summary := "OTHER"
	for _, cat := range categories {
		for _, substr := range cat.substrings {
			if strings.Contains(conditions, substr) {
				summary = cat.name
			}
		}
	}
	return summary
}
