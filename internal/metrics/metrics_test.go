package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordVote(t *testing.T) {
	up := testutil.ToFloat64(VotesCast.WithLabelValues("up"))
	down := testutil.ToFloat64(VotesCast.WithLabelValues("down"))

	RecordVote(1)
	RecordVote(-1)
	RecordVote(-2)
	RecordVote(0)

	assert.Equal(t, up+1, testutil.ToFloat64(VotesCast.WithLabelValues("up")))
	assert.Equal(t, down+3, testutil.ToFloat64(VotesCast.WithLabelValues("down")))
}
