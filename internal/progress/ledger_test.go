package progress

import (
	"sync"
	"testing"
)

func seedLedger() *Ledger {
	return New([]File{
		{DisplayName: "clip.mp4", Size: 4096},
		{DisplayName: "photo.jpg", Size: 2048},
	})
}

func TestNewSeedsQueuedEntries(t *testing.T) {
	ledger := seedLedger()

	snapshot := ledger.Snapshot()
	if len(snapshot) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(snapshot))
	}
	for i, entry := range snapshot {
		if entry.Index != i {
			t.Fatalf("entry %d has index %d", i, entry.Index)
		}
		if entry.Stage != StageQueued {
			t.Fatalf("entry %d seeded in %q, want queued", i, entry.Stage)
		}
		if entry.Percent != 0 {
			t.Fatalf("entry %d seeded at %v%%", i, entry.Percent)
		}
	}
	if snapshot[0].OriginalSize != 4096 {
		t.Fatalf("original size not recorded: %d", snapshot[0].OriginalSize)
	}
}

func TestForwardTransitions(t *testing.T) {
	ledger := seedLedger()

	if !ledger.Transition(0, StageCompressing, 0) {
		t.Fatalf("queued -> compressing rejected")
	}
	if !ledger.Transition(0, StageUploading, 50) {
		t.Fatalf("compressing -> uploading rejected")
	}
	if !ledger.MarkCompleted(0, 1024) {
		t.Fatalf("uploading -> completed rejected")
	}

	entry, _ := ledger.Entry(0)
	if entry.Stage != StageCompleted || entry.Percent != 100 || entry.CompressedSize != 1024 {
		t.Fatalf("unexpected final entry: %+v", entry)
	}
}

func TestBackwardTransitionsRejected(t *testing.T) {
	ledger := seedLedger()
	ledger.Transition(0, StageUploading, 50)

	if ledger.Transition(0, StageCompressing, 10) {
		t.Fatalf("uploading -> compressing must be rejected")
	}
	entry, _ := ledger.Entry(0)
	if entry.Stage != StageUploading {
		t.Fatalf("stage regressed to %q", entry.Stage)
	}
}

func TestTerminalEntriesAreImmutable(t *testing.T) {
	ledger := seedLedger()
	ledger.Transition(0, StageCompressing, 0)
	ledger.MarkError(0, "compression failed")

	if ledger.Transition(0, StageUploading, 60) {
		t.Fatalf("error entry accepted a transition")
	}
	if ledger.MarkCompleted(0, 10) {
		t.Fatalf("error entry accepted completion")
	}
	if ledger.MarkError(0, "second failure") {
		t.Fatalf("error entry accepted a second error")
	}

	entry, _ := ledger.Entry(0)
	if entry.Error != "compression failed" {
		t.Fatalf("error reason overwritten: %q", entry.Error)
	}
}

func TestErrorReachableFromAnyNonTerminalStage(t *testing.T) {
	for _, stage := range []Stage{StageQueued, StageCompressing, StageUploading} {
		ledger := seedLedger()
		if stage != StageQueued {
			ledger.Transition(0, StageCompressing, 0)
		}
		if stage == StageUploading {
			ledger.Transition(0, StageUploading, 50)
		}
		if !ledger.MarkError(0, "boom") {
			t.Fatalf("error not reachable from %q", stage)
		}
	}
}

func TestErrorNotReachableFromCompleted(t *testing.T) {
	ledger := seedLedger()
	ledger.Transition(0, StageCompressing, 0)
	ledger.Transition(0, StageUploading, 50)
	ledger.MarkCompleted(0, 100)

	if ledger.MarkError(0, "late failure") {
		t.Fatalf("completed entry accepted an error")
	}
}

func TestCancelledOnlyFromQueued(t *testing.T) {
	ledger := seedLedger()

	if !ledger.MarkCancelled(1) {
		t.Fatalf("queued entry refused cancellation")
	}

	ledger.Transition(0, StageCompressing, 0)
	if ledger.MarkCancelled(0) {
		t.Fatalf("in-flight entry accepted cancellation")
	}
}

func TestPercentNeverRegresses(t *testing.T) {
	ledger := seedLedger()
	ledger.Transition(0, StageCompressing, 0)
	ledger.SetPercent(0, 40)

	if ledger.SetPercent(0, 20) {
		t.Fatalf("percent regression accepted")
	}
	entry, _ := ledger.Entry(0)
	if entry.Percent != 40 {
		t.Fatalf("percent changed to %v", entry.Percent)
	}
}

func TestObserverReceivesSnapshots(t *testing.T) {
	ledger := seedLedger()

	var mu sync.Mutex
	var updates int
	ledger.Observe(func(entries []Entry) {
		mu.Lock()
		updates++
		mu.Unlock()
		if len(entries) != 2 {
			t.Errorf("observer snapshot has %d entries", len(entries))
		}
	})

	ledger.Transition(0, StageCompressing, 0)
	ledger.Transition(0, StageUploading, 50)
	// Rejected updates must not notify.
	ledger.Transition(0, StageCompressing, 0)

	mu.Lock()
	defer mu.Unlock()
	if updates != 2 {
		t.Fatalf("expected 2 notifications, got %d", updates)
	}
}

func TestConcurrentReadersAndWriter(t *testing.T) {
	ledger := New([]File{{DisplayName: "a"}, {DisplayName: "b"}, {DisplayName: "c"}})

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < ledger.Len(); i++ {
			ledger.Transition(i, StageCompressing, 0)
			ledger.Transition(i, StageUploading, 50)
			ledger.MarkCompleted(i, 1)
		}
	}()

	for i := 0; i < 100; i++ {
		_ = ledger.Snapshot()
	}
	<-done

	if !ledger.Resolved() {
		t.Fatalf("ledger not resolved after writer finished")
	}
}
