package tail

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vegasq/logq/internal/client"
	"github.com/vegasq/logq/internal/query"
)

func entry(dt string) client.Entry {
	return client.NewEntry(dt, `{"message":"m"}`)
}

// fakeExecutor returns canned batches in call order, then empty batches.
type fakeExecutor struct {
	batches [][]client.Entry
	errs    []error
	calls   []query.Options
}

func (f *fakeExecutor) Execute(ctx context.Context, opts query.Options) ([]client.Entry, error) {
	i := len(f.calls)
	f.calls = append(f.calls, opts)
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	if i < len(f.batches) {
		return f.batches[i], nil
	}
	return nil, nil
}

// newTestTailer wires a tailer that cancels its context after maxTicks
// polling pauses.
func newTestTailer(exec *fakeExecutor, maxTicks int) (*Tailer, context.Context, func([][]client.Entry) [][]client.Entry) {
	ctx, cancel := context.WithCancel(context.Background())

	var emitted [][]client.Entry
	ticks := 0
	t := &Tailer{
		Exec: exec,
		Emit: func(entries []client.Entry) {
			emitted = append(emitted, entries)
		},
		Interval: time.Millisecond,
		Sleep: func(time.Duration) {
			ticks++
			if ticks > maxTicks {
				cancel()
			}
		},
	}
	return t, ctx, func([][]client.Entry) [][]client.Entry { return emitted }
}

func TestTailer_RunOneShot(t *testing.T) {
	exec := &fakeExecutor{batches: [][]client.Entry{
		{entry("2024-03-15 12:00:02"), entry("2024-03-15 12:00:01")},
	}}
	tailer, ctx, emitted := newTestTailer(exec, 0)

	require.NoError(t, tailer.Run(ctx, query.Options{Limit: 10}, false))

	batches := emitted(nil)
	require.Len(t, batches, 1)
	require.Len(t, batches[0], 2)
	require.Len(t, exec.calls, 1, "one-shot mode must not poll")
}

func TestTailer_RunOneShotEmpty(t *testing.T) {
	exec := &fakeExecutor{}
	tailer, ctx, emitted := newTestTailer(exec, 0)

	require.NoError(t, tailer.Run(ctx, query.Options{}, false))
	require.Empty(t, emitted(nil), "empty batches are not emitted")
}

func TestTailer_RunInitialError(t *testing.T) {
	execErr := errors.New("boom")
	exec := &fakeExecutor{errs: []error{execErr}}
	tailer, ctx, _ := newTestTailer(exec, 0)

	require.ErrorIs(t, tailer.Run(ctx, query.Options{}, false), execErr)
}

func TestTailer_FollowAdvancesWatermark(t *testing.T) {
	exec := &fakeExecutor{batches: [][]client.Entry{
		{entry("2024-03-15 12:00:02"), entry("2024-03-15 12:00:01")},
		// Poll returns an overlap with the last batch plus one new row.
		{entry("2024-03-15 12:00:03"), entry("2024-03-15 12:00:02")},
		{entry("2024-03-15 12:00:03")},
	}}
	tailer, ctx, emitted := newTestTailer(exec, 2)

	require.NoError(t, tailer.Run(ctx, query.Options{Limit: 200, Until: "1h", Since: "2h"}, true))

	batches := emitted(nil)
	require.Len(t, batches, 2)
	require.Len(t, batches[1], 1, "already-seen rows must be filtered")
	require.Equal(t, "2024-03-15 12:00:03", batches[1][0].DT)

	require.GreaterOrEqual(t, len(exec.calls), 3)
	poll := exec.calls[1]
	require.Equal(t, "2024-03-15 12:00:02", poll.Since, "poll must anchor on the watermark")
	require.Empty(t, poll.Until, "polls look forward only")
	require.Equal(t, 50, poll.Limit, "poll limit is capped")

	// The second poll returned only the already-seen newest row, so the
	// watermark held and nothing more was emitted.
	require.Equal(t, "2024-03-15 12:00:03", exec.calls[2].Since)
}

func TestTailer_FollowEmptyInitialUsesFallback(t *testing.T) {
	exec := &fakeExecutor{}
	tailer, ctx, _ := newTestTailer(exec, 1)

	require.NoError(t, tailer.Run(ctx, query.Options{}, true))

	require.GreaterOrEqual(t, len(exec.calls), 2)
	require.Equal(t, "1m", exec.calls[1].Since)
}

func TestTailer_FollowPollErrorContinues(t *testing.T) {
	exec := &fakeExecutor{
		batches: [][]client.Entry{
			{entry("2024-03-15 12:00:01")},
			nil,
			{entry("2024-03-15 12:00:02")},
		},
		errs: []error{nil, errors.New("transient"), nil},
	}
	tailer, ctx, emitted := newTestTailer(exec, 2)

	require.NoError(t, tailer.Run(ctx, query.Options{}, true))

	batches := emitted(nil)
	require.Len(t, batches, 2, "the loop must survive a failed tick")
	require.Equal(t, "2024-03-15 12:00:02", batches[1][0].DT)
}

func TestTailer_RunMultiMergesAndAnnotates(t *testing.T) {
	exec := &fakeExecutor{batches: [][]client.Entry{
		{entry("2024-03-15 12:00:03"), entry("2024-03-15 12:00:01")}, // alpha
		{entry("2024-03-15 12:00:02")},                               // beta
	}}
	tailer, ctx, emitted := newTestTailer(exec, 0)

	err := tailer.RunMulti(ctx, query.Options{Limit: 10}, []string{"alpha", "beta"}, false)
	require.NoError(t, err)

	batches := emitted(nil)
	require.Len(t, batches, 1)
	merged := batches[0]
	require.Len(t, merged, 3)

	// Strictly descending by dt across sources.
	for i := 1; i < len(merged); i++ {
		require.GreaterOrEqual(t, merged[i-1].DT, merged[i].DT)
	}
	require.Equal(t, "alpha", merged[0].GetString("source"))
	require.Equal(t, "beta", merged[1].GetString("source"))
	require.Equal(t, "alpha", merged[2].GetString("source"))

	// Each source was queried individually.
	require.Len(t, exec.calls, 2)
	require.Equal(t, "alpha", exec.calls[0].Source)
	require.Equal(t, "beta", exec.calls[1].Source)
}

func TestTailer_RunMultiTruncatesToLimit(t *testing.T) {
	exec := &fakeExecutor{batches: [][]client.Entry{
		{entry("2024-03-15 12:00:04"), entry("2024-03-15 12:00:02")},
		{entry("2024-03-15 12:00:03"), entry("2024-03-15 12:00:01")},
	}}
	tailer, ctx, emitted := newTestTailer(exec, 0)

	err := tailer.RunMulti(ctx, query.Options{Limit: 3}, []string{"a", "b"}, false)
	require.NoError(t, err)

	batches := emitted(nil)
	require.Len(t, batches, 1)
	require.Len(t, batches[0], 3)
	require.Equal(t, "2024-03-15 12:00:02", batches[0][2].DT, "the oldest row drops first")
}

func TestTailer_RunMultiFollowFiltersPerSource(t *testing.T) {
	exec := &fakeExecutor{batches: [][]client.Entry{
		// initial round
		{entry("2024-03-15 12:00:02")}, // alpha
		{entry("2024-03-15 12:00:01")}, // beta
		// first poll round: alpha repeats its newest row, beta has news
		{entry("2024-03-15 12:00:02")},
		{entry("2024-03-15 12:00:03")},
	}}
	tailer, ctx, emitted := newTestTailer(exec, 1)

	err := tailer.RunMulti(ctx, query.Options{Limit: 10}, []string{"alpha", "beta"}, true)
	require.NoError(t, err)

	batches := emitted(nil)
	require.Len(t, batches, 2)
	require.Len(t, batches[1], 1)
	require.Equal(t, "2024-03-15 12:00:03", batches[1][0].DT)
	require.Equal(t, "beta", batches[1][0].GetString("source"))

	// Poll rounds anchor each source on its own watermark.
	require.Len(t, exec.calls, 4)
	require.Equal(t, "2024-03-15 12:00:02", exec.calls[2].Since)
	require.Equal(t, "2024-03-15 12:00:01", exec.calls[3].Since)
}

func TestTailer_RunMultiInitialErrorFails(t *testing.T) {
	execErr := errors.New("down")
	exec := &fakeExecutor{errs: []error{execErr}}
	tailer, ctx, _ := newTestTailer(exec, 0)

	err := tailer.RunMulti(ctx, query.Options{}, []string{"a", "b"}, false)
	require.ErrorIs(t, err, execErr)
}
