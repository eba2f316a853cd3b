// Package jokes talks to the external joke API and tops a joke list up to a
// target count with distinct jokes.
package jokes

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/saxenaaman628/redis-joke-list/internal/metrics"
	"github.com/saxenaaman628/redis-joke-list/internal/models"
)

var ErrSourceExhausted = errors.New("joke source keeps returning jokes already held")

// Stats describes one run of Fetch.
type Stats struct {
	Requests   int
	Accepted   int
	Duplicates int
}

// Fetcher tops up joke lists from a Source.
type Fetcher struct {
	Source Source
	// MaxConsecutiveDuplicates aborts a run with ErrSourceExhausted after
	// this many duplicates in a row. Zero means no limit.
	MaxConsecutiveDuplicates int
	Log                      *zap.Logger
}

// Fetch requests jokes one at a time until the list holds target jokes.
// The returned list is held followed by the newly accepted jokes in request
// order. Each new joke is seeded from votes, and votes gains a zero entry
// for ids it did not have, so votes must not be nil. On error the partial
// list is discarded.
func (f *Fetcher) Fetch(ctx context.Context, held []models.Joke, target int, votes map[string]int) ([]models.Joke, Stats, error) {
	var stats Stats
	log := f.Log
	if log == nil {
		log = zap.NewNop()
	}

	list := make([]models.Joke, len(held), max(target, len(held)))
	copy(list, held)

	seen := make(map[string]struct{}, cap(list))
	for _, j := range held {
		seen[j.ID] = struct{}{}
	}

	dupRun := 0
	for len(list) < target {
		joke, err := f.Source.Next(ctx)
		stats.Requests++
		if err != nil {
			return nil, stats, fmt.Errorf("fetch joke %d of %d: %w", len(list)+1, target, err)
		}

		if _, ok := seen[joke.ID]; ok {
			stats.Duplicates++
			metrics.DuplicatesSkipped.Inc()
			log.Info("duplicate joke skipped", zap.String("id", joke.ID))
			dupRun++
			if f.MaxConsecutiveDuplicates > 0 && dupRun >= f.MaxConsecutiveDuplicates {
				return nil, stats, fmt.Errorf("%w: %d duplicates in a row", ErrSourceExhausted, dupRun)
			}
			continue
		}
		dupRun = 0

		seen[joke.ID] = struct{}{}
		if _, ok := votes[joke.ID]; !ok {
			votes[joke.ID] = 0
		}
		list = append(list, models.Joke{
			ID:     joke.ID,
			Text:   joke.Text,
			Votes:  votes[joke.ID],
			Locked: false,
		})
		stats.Accepted++
		metrics.JokesFetched.Inc()
	}

	return list, stats, nil
}
