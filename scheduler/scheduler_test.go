package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingScorer struct {
	calls atomic.Int32
	err   error
}

func (c *countingScorer) ScorePending(context.Context) (int, error) {
	c.calls.Add(1)
	return 1, c.err
}

func TestScheduler_RunsSweep(t *testing.T) {
	for _, tt := range []struct {
		name string
		err  error
	}{
		{"Success", nil},
		{"FailureKeepsRunning", errors.New("db down")},
	} {
		t.Run(tt.name, func(t *testing.T) {
			scorer := &countingScorer{err: tt.err}
			s, err := New(scorer, 20*time.Millisecond, zap.NewNop())
			require.NoError(t, err)
			require.NoError(t, s.Start())
			defer func() { assert.NoError(t, s.Stop()) }()

			assert.Eventually(t, func() bool { return scorer.calls.Load() >= 2 }, 2*time.Second, 10*time.Millisecond)
		})
	}
}

func TestNew_RejectsNonPositiveInterval(t *testing.T) {
	_, err := New(&countingScorer{}, 0, zap.NewNop())
	assert.Error(t, err)
}
