package jokes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/mitchellh/mapstructure"
	"golang.org/x/time/rate"

	"github.com/saxenaaman628/redis-joke-list/internal/metrics"
	"github.com/saxenaaman628/redis-joke-list/internal/models"
)

const userAgent = "redis-joke-list (https://github.com/saxenaaman628/redis-joke-list)"

var ErrMalformedJoke = errors.New("joke response has no id")

// Source hands out one joke per call.
type Source interface {
	Next(ctx context.Context) (models.Joke, error)
}

type HTTPSource struct {
	url        string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewHTTPSource returns a source that GETs url for every joke, at most rps
// requests per second.
func NewHTTPSource(url string, timeout time.Duration, rps float64) *HTTPSource {
	return &HTTPSource{
		url: url,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}
}

func (s *HTTPSource) Next(ctx context.Context) (models.Joke, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return models.Joke{}, err
	}

	start := time.Now()
	joke, err := s.get(ctx)
	metrics.SourceLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.SourceRequests.WithLabelValues("error").Inc()
		return models.Joke{}, err
	}
	metrics.SourceRequests.WithLabelValues("success").Inc()
	return joke, nil
}

func (s *HTTPSource) get(ctx context.Context) (models.Joke, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return models.Joke{}, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return models.Joke{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.Joke{}, fmt.Errorf("joke api: unexpected status code: %d", resp.StatusCode)
	}

	// {"id": "...", "joke": "...", "status": 200}; status is dropped.
	var body map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return models.Joke{}, fmt.Errorf("joke api: decode: %w", err)
	}

	var joke models.Joke
	if err := mapstructure.Decode(body, &joke); err != nil {
		return models.Joke{}, fmt.Errorf("joke api: decode: %w", err)
	}
	if joke.ID == "" {
		return models.Joke{}, ErrMalformedJoke
	}
	return joke, nil
}
