package utils

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTruncateForLog(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		limit  int
		expect string
	}{
		{name: "non-positive limit", input: "backend", limit: 0, expect: ""},
		{name: "fits", input: "  Go, Postgres  ", limit: 20, expect: "Go, Postgres"},
		{name: "exact", input: "React", limit: 5, expect: "React"},
		{name: "truncated", input: "Looking for an ML engineer", limit: 11, expect: "Looking for..."},
		{name: "multibyte", input: "Привет мир", limit: 6, expect: "Привет..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.expect, TruncateForLog(tt.input, tt.limit))
		})
	}
}

func TestWaitForReturnsOnCancel(t *testing.T) {
	release := make(chan struct{})
	original := sleep
	sleep = func(time.Duration) { <-release }
	t.Cleanup(func() {
		close(release)
		sleep = original
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, WaitFor(ctx, time.Hour), context.Canceled)
}

func TestWaitForSleeps(t *testing.T) {
	var slept time.Duration
	original := sleep
	sleep = func(d time.Duration) { slept = d }
	t.Cleanup(func() { sleep = original })

	require.NoError(t, WaitFor(context.Background(), 2*time.Second))
	require.Equal(t, 2*time.Second, slept)
	require.NoError(t, WaitFor(context.Background(), 0))
}
