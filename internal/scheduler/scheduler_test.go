package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNew_InvalidTimezone(t *testing.T) {
	if _, err := New("Mars/Olympus", 0); err == nil {
		t.Fatal("expected error for invalid timezone")
	}
}

func TestNew_Timezone(t *testing.T) {
	s, err := New("UTC", 0)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if s.Location().String() != "UTC" {
		t.Errorf("location = %q, want UTC", s.Location())
	}

	s, err = New("", 0)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if s.Location() != time.Local {
		t.Errorf("location = %v, want local", s.Location())
	}
}

func TestAddJob(t *testing.T) {
	s, err := New("UTC", 0)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	noop := func(context.Context) error { return nil }

	if err := s.AddJob("feed", "*/30 * * * *", noop); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.AddJob("feed", "*/5 * * * *", noop); err == nil {
		t.Error("expected error for duplicate job name")
	}
	if err := s.AddJob("bad", "not a schedule", noop); err == nil {
		t.Error("expected error for invalid schedule")
	}

	s.Start(context.Background())
	defer s.Stop()

	jobs := s.Jobs()
	if len(jobs) != 1 || jobs[0].Name != "feed" {
		t.Fatalf("jobs = %+v, want [feed]", jobs)
	}
	if jobs[0].NextRun.IsZero() {
		t.Error("next run not set after start")
	}

	s.RemoveJob("feed")
	s.RemoveJob("missing")
	if got := len(s.Jobs()); got != 0 {
		t.Errorf("jobs after remove = %d, want 0", got)
	}
}

func TestRunNow(t *testing.T) {
	s, err := New("UTC", time.Second)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	var hasDeadline bool
	err = s.RunNow("feed", func(ctx context.Context) error {
		_, hasDeadline = ctx.Deadline()
		return nil
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !hasDeadline {
		t.Error("job context has no deadline with positive timeout")
	}

	boom := errors.New("boom")
	if err := s.RunNow("feed", func(context.Context) error { return boom }); !errors.Is(err, boom) {
		t.Errorf("err = %v, want boom", err)
	}
}

func TestRunNow_CancelledBase(t *testing.T) {
	s, err := New("UTC", 0)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	defer s.Stop()
	cancel()

	err = s.RunNow("feed", func(ctx context.Context) error { return ctx.Err() })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestRunNow_NoOverlap(t *testing.T) {
	s, err := New("UTC", 0)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- s.RunNow("feed", func(context.Context) error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	calls := 0
	err = s.RunNow("feed", func(context.Context) error {
		calls++
		return nil
	})
	if !errors.Is(err, ErrRunning) {
		t.Errorf("overlapping run err = %v, want ErrRunning", err)
	}
	if calls != 0 {
		t.Error("overlapping run executed the job")
	}

	if err := s.RunNow("other", func(context.Context) error { return nil }); err != nil {
		t.Errorf("different job blocked: %v", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first run: %v", err)
	}
	if err := s.RunNow("feed", func(context.Context) error { return nil }); err != nil {
		t.Errorf("run after completion: %v", err)
	}
}
