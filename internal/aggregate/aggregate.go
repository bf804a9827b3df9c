// Package aggregate runs sources concurrently and merges their posts into a
// single round-robin feed.
package aggregate

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/feedweave/internal/source"
)

// Stream is one platform's posts in source order.
type Stream struct {
	Platform source.Platform
	Posts    []source.Post
}

// Entry is a post tagged with the stream it came from.
type Entry struct {
	Source source.Platform
	Post   source.Post
}

// Interleave merges streams round-robin: position 0 of every stream in
// declared order, then position 1, and so on. Exhausted streams are skipped.
func Interleave(streams []Stream) []Entry {
	total, longest := 0, 0
	for _, s := range streams {
		total += len(s.Posts)
		if len(s.Posts) > longest {
			longest = len(s.Posts)
		}
	}

	out := make([]Entry, 0, total)
	for i := 0; i < longest; i++ {
		for _, s := range streams {
			if i < len(s.Posts) {
				out = append(out, Entry{Source: s.Platform, Post: s.Posts[i]})
			}
		}
	}
	return out
}

// Result is the outcome of fetching one source.
type Result struct {
	Platform source.Platform
	Posts    []source.Post
	Err      error
	Elapsed  time.Duration
}

// AuthFailed reports whether the source failed authentication.
func (r Result) AuthFailed() bool {
	return source.IsAuth(r.Err)
}

// Collect fetches all sources concurrently. Each source's error is kept on its
// own Result; a failing source never cancels the others. Results are returned
// in the order of sources.
func Collect(ctx context.Context, sources []source.Source) []Result {
	results := make([]Result, len(sources))

	var g errgroup.Group
	for i, src := range sources {
		g.Go(func() error {
			start := time.Now()
			posts, err := src.Fetch(ctx)
			results[i] = Result{
				Platform: src.Platform(),
				Posts:    posts,
				Err:      err,
				Elapsed:  time.Since(start),
			}
			if err != nil {
				results[i].Posts = nil
				slog.Warn("fetch failed", "platform", src.Platform(), "error", err)
			} else {
				slog.Debug("fetched", "platform", src.Platform(), "posts", len(posts), "elapsed", results[i].Elapsed)
			}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// Streams converts results to interleave input, keeping result order. Failed
// sources contribute an empty stream.
func Streams(results []Result) []Stream {
	streams := make([]Stream, 0, len(results))
	for _, r := range results {
		streams = append(streams, Stream{Platform: r.Platform, Posts: r.Posts})
	}
	return streams
}

// Failures returns the results that carry an error.
func Failures(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if r.Err != nil {
			failed = append(failed, r)
		}
	}
	return failed
}
