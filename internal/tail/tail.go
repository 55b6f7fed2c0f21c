// Package tail implements the follow-mode polling engine.
//
// After an initial fetch, the engine re-queries on a fixed interval with
// the since bound pinned to the most recent timestamp already emitted, so
// each tick only surfaces new rows. Multi-source sessions keep one
// watermark per source and merge each tick's batches by timestamp.
package tail

import (
	"context"
	"log"
	"sort"
	"time"

	"github.com/vegasq/logq/internal/client"
	"github.com/vegasq/logq/internal/query"
)

// Executor runs one query and returns decoded rows, newest first.
type Executor interface {
	Execute(ctx context.Context, opts query.Options) ([]client.Entry, error)
}

const (
	// DefaultInterval is the polling interval used when none is given.
	DefaultInterval = 2 * time.Second

	// pollLimitCap bounds how many rows a single poll may fetch.
	pollLimitCap = 50

	// sinceFallback bounds the first poll when the initial fetch
	// returned nothing to anchor on.
	sinceFallback = "1m"
)

// Tailer polls an executor and emits batches of previously unseen rows.
// Sleep and Now are injectable so the loop can be driven deterministically
// in tests; cancellation is cooperative through the run context.
type Tailer struct {
	Exec     Executor
	Emit     func(entries []client.Entry)
	Interval time.Duration

	// Sleep replaces the inter-tick pause when set.
	Sleep func(d time.Duration)
}

// Run performs the initial fetch for a single source and, when follow is
// set, polls until the context is cancelled. Per-tick errors are logged
// and the loop continues; only the initial fetch can fail the session.
func (t *Tailer) Run(ctx context.Context, opts query.Options, follow bool) error {
	results, err := t.Exec.Execute(ctx, opts)
	if err != nil {
		return err
	}

	var watermark string
	if len(results) > 0 {
		t.Emit(results)
		watermark = results[0].DT
	}

	if !follow {
		return nil
	}
	log.Printf("following logs... (press Ctrl+C to stop)")

	pollLimit := capLimit(opts.Limit)
	fallback := opts.Since
	if fallback == "" {
		fallback = sinceFallback
	}

	for t.pause(ctx) {
		poll := opts
		poll.Sources = nil
		poll.Until = ""
		poll.Limit = pollLimit
		poll.Since = watermark
		if poll.Since == "" {
			poll.Since = fallback
		}

		batch, err := t.Exec.Execute(ctx, poll)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Printf("polling error: %v", err)
			continue
		}
		if len(batch) == 0 {
			continue
		}

		fresh := batch
		if watermark != "" {
			fresh = newerThan(batch, watermark)
		}
		if len(fresh) == 0 {
			continue
		}

		t.Emit(fresh)
		watermark = fresh[0].DT
	}
	return nil
}

// RunMulti merges several sources into one stream. Each source keeps its
// own watermark; every tick fetches the sources sequentially, tags rows
// with their source, and emits the merged batch sorted by timestamp
// descending.
//
// When two sources produce identical timestamps the merge keeps the order
// the sources were enumerated in. That tie-break is an artifact of
// enumeration order, not a guarantee.
func (t *Tailer) RunMulti(ctx context.Context, base query.Options, srcs []string, follow bool) error {
	limit := base.Limit
	if limit <= 0 {
		limit = 100
	}

	combined, latest, err := t.collect(ctx, base, srcs, nil, limit, "")
	if err != nil {
		return err
	}

	watermarks := make(map[string]string, len(srcs))
	for src, dt := range latest {
		watermarks[src] = dt
	}
	if len(combined) > 0 {
		t.Emit(combined)
	}

	if !follow {
		return nil
	}
	log.Printf("following logs... (press Ctrl+C to stop)")

	pollLimit := capLimit(limit)
	fallback := ""
	if base.Since == "" {
		fallback = sinceFallback
	}

	for t.pause(ctx) {
		combined, latest, err := t.collect(ctx, base, srcs, watermarks, pollLimit, fallback)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Printf("polling error: %v", err)
			continue
		}

		var fresh []client.Entry
		for _, entry := range combined {
			src := entry.GetString("source")
			if mark := watermarks[src]; mark == "" || entry.DT > mark {
				fresh = append(fresh, entry)
			}
		}
		if len(fresh) > 0 {
			t.Emit(fresh)
		}

		// Watermarks only ever advance.
		for src, dt := range latest {
			if prev := watermarks[src]; prev == "" || dt > prev {
				watermarks[src] = dt
			}
		}
	}
	return nil
}

// collect fetches every source once, tags rows with their source, merges
// and sorts the result by timestamp descending, and truncates it to the
// per-poll limit.
func (t *Tailer) collect(
	ctx context.Context,
	base query.Options,
	srcs []string,
	since map[string]string,
	limit int,
	fallback string,
) ([]client.Entry, map[string]string, error) {
	if limit < 1 {
		limit = 1
	}

	var combined []client.Entry
	latest := make(map[string]string)

	for _, src := range srcs {
		opts := base
		opts.Source = src
		opts.Sources = nil
		opts.Until = ""
		opts.Limit = limit
		opts.Since = since[src]
		if opts.Since == "" {
			opts.Since = base.Since
		}
		if opts.Since == "" {
			opts.Since = fallback
		}

		batch, err := t.Exec.Execute(ctx, opts)
		if err != nil {
			return nil, nil, err
		}
		if len(batch) == 0 {
			continue
		}

		latest[src] = batch[0].DT
		for _, entry := range batch {
			entry.Set("source", src)
			combined = append(combined, entry)
		}
	}

	sort.SliceStable(combined, func(i, j int) bool {
		return combined[i].DT > combined[j].DT
	})
	if len(combined) > limit {
		combined = combined[:limit]
	}
	return combined, latest, nil
}

// pause waits one polling interval, reporting false once the context is
// cancelled.
func (t *Tailer) pause(ctx context.Context) bool {
	interval := t.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	if t.Sleep != nil {
		t.Sleep(interval)
		return ctx.Err() == nil
	}

	timer := time.NewTimer(interval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// newerThan filters a batch to rows strictly after the watermark.
func newerThan(batch []client.Entry, watermark string) []client.Entry {
	var fresh []client.Entry
	for _, entry := range batch {
		if entry.DT > watermark {
			fresh = append(fresh, entry)
		}
	}
	return fresh
}

func capLimit(limit int) int {
	if limit <= 0 || limit > pollLimitCap {
		return pollLimitCap
	}
	return limit
}
