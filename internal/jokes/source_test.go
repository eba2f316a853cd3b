package jokes

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

func TestHTTPSource(t *testing.T) {
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	t.Run("Next", func(t *testing.T) {
		mux.HandleFunc("/ok", func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "application/json", r.Header.Get("Accept"))
			assert.NotEmpty(t, r.Header.Get("User-Agent"))
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"id":"R7UfaahVfFd","joke":"My dog used to chase people on a bike a lot.","status":200}`)
		})

		src := NewHTTPSource(server.URL+"/ok", time.Second, 1000)
		joke, err := src.Next(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "R7UfaahVfFd", joke.ID)
		assert.Equal(t, "My dog used to chase people on a bike a lot.", joke.Text)
		assert.Zero(t, joke.Votes)
		assert.False(t, joke.Locked)
	})

	t.Run("BadStatus", func(t *testing.T) {
		mux.HandleFunc("/down", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})

		_, err := NewHTTPSource(server.URL+"/down", time.Second, 1000).Next(context.Background())
		assert.ErrorContains(t, err, "503")
	})

	t.Run("MissingID", func(t *testing.T) {
		mux.HandleFunc("/noid", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"joke":"no id here","status":200}`)
		})

		_, err := NewHTTPSource(server.URL+"/noid", time.Second, 1000).Next(context.Background())
		assert.ErrorIs(t, err, ErrMalformedJoke)
	})

	t.Run("NotJSON", func(t *testing.T) {
		mux.HandleFunc("/html", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `<html>dad joke</html>`)
		})

		_, err := NewHTTPSource(server.URL+"/html", time.Second, 1000).Next(context.Background())
		assert.Error(t, err)
	})

	t.Run("Timeout", func(t *testing.T) {
		mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		})

		_, err := NewHTTPSource(server.URL+"/slow", 50*time.Millisecond, 1000).Next(context.Background())
		assert.Error(t, err)
	})

	t.Run("CancelledContext", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := NewHTTPSource(server.URL+"/ok", time.Second, 1000).Next(ctx)
		assert.Error(t, err)
	})
}
