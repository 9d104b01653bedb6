package service

import (
	"testing"
	"time"
)

func TestSchedulerRunsDeferredTask(t *testing.T) {
	s := NewScheduler()
	defer s.Stop()

	done := make(chan struct{})
	s.Schedule("ticket-0001", 10*time.Millisecond, func() { close(done) })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduled task never ran")
	}

	if s.Cancel("ticket-0001") {
		t.Error("Cancel reported a pending task after it fired")
	}
}

func TestSchedulerCancelPreventsRun(t *testing.T) {
	s := NewScheduler()
	defer s.Stop()

	fired := make(chan struct{}, 1)
	s.Schedule("ticket-0001", 20*time.Millisecond, func() { fired <- struct{}{} })

	if !s.Cancel("ticket-0001") {
		t.Fatal("Cancel found no pending task")
	}

	select {
	case <-fired:
		t.Error("cancelled task still ran")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSchedulerReplacesPendingTask(t *testing.T) {
	s := NewScheduler()
	defer s.Stop()

	ran := make(chan string, 2)
	s.Schedule("ticket-0001", time.Hour, func() { ran <- "first" })
	s.Schedule("ticket-0001", 10*time.Millisecond, func() { ran <- "second" })

	select {
	case got := <-ran:
		if got != "second" {
			t.Errorf("task %q ran, want the replacement", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("replacement task never ran")
	}
}
