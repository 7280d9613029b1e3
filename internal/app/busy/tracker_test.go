package busy

import (
	"sync"
	"testing"
	"time"
)

func TestTrackerBoundaryEvents(t *testing.T) {
	tr := NewTracker()
	var (
		mu     sync.Mutex
		events []Event
	)
	cancel := tr.Subscribe(func(ev Event) {
		mu.Lock()
		events = append(events, ev)
		mu.Unlock()
	})
	defer cancel()

	r1 := tr.Acquire()
	r2 := tr.Acquire()
	if !tr.Busy() || tr.InFlight() != 2 {
		t.Fatalf("expected busy with 2 in flight")
	}
	r1()
	r1()
	if tr.InFlight() != 1 {
		t.Fatalf("double release must be a no-op, got %d", tr.InFlight())
	}
	r2()
	if tr.Busy() {
		t.Fatalf("expected idle")
	}

	if len(events) != 2 {
		t.Fatalf("expected exactly two boundary events, got %+v", events)
	}
	if !events[0].Busy || events[1].Busy {
		t.Fatalf("unexpected events %+v", events)
	}
}

func TestTrackerReleaseOnPanicPath(t *testing.T) {
	tr := NewTracker()
	func() {
		defer func() { _ = recover() }()
		release := tr.Acquire()
		defer release()
		panic("boom")
	}()
	if tr.Busy() {
		t.Fatalf("deferred release must run on every exit path")
	}
}

func TestTrackerConcurrent(t *testing.T) {
	tr := NewTracker()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release := tr.Acquire()
			release()
		}()
	}
	wg.Wait()
	if tr.InFlight() != 0 {
		t.Fatalf("expected zero in flight, got %d", tr.InFlight())
	}
}

func TestTrackerDeliversBoundariesInOrder(t *testing.T) {
	tr := NewTracker()
	var (
		mu     sync.Mutex
		events []Event
	)
	paused := make(chan struct{})
	resume := make(chan struct{})
	var once sync.Once
	tr.Subscribe(func(ev Event) {
		if !ev.Busy {
			once.Do(func() {
				close(paused)
				<-resume
			})
		}
		mu.Lock()
		events = append(events, ev)
		mu.Unlock()
	})

	go func() {
		release := tr.Acquire()
		release()
	}()
	<-paused

	acquired := make(chan func())
	go func() { acquired <- tr.Acquire() }()
	// Give the second Acquire time to reach the tracker while the idle
	// event is still being delivered.
	time.Sleep(20 * time.Millisecond)
	close(resume)
	release := <-acquired
	defer release()

	mu.Lock()
	defer mu.Unlock()
	if len(events) != 3 {
		t.Fatalf("events = %+v", events)
	}
	want := []bool{true, false, true}
	for i, ev := range events {
		if ev.Busy != want[i] {
			t.Fatalf("event %d = %+v, want busy=%v (all %+v)", i, ev, want[i], events)
		}
	}
	if last := events[len(events)-1]; last.Busy != tr.Busy() {
		t.Fatalf("last event %+v disagrees with tracker busy=%v", last, tr.Busy())
	}
}
