package progress

import "sync"

// Stage represents the lifecycle of one file within a batch.
type Stage string

const (
	StageQueued      Stage = "queued"
	StageCompressing Stage = "compressing"
	StageUploading   Stage = "uploading"
	StageCompleted   Stage = "completed"
	StageError       Stage = "error"
	StageCancelled   Stage = "cancelled"
)

// stageRank orders the forward path. Terminal stages share the top rank so
// no further transition can outrank them.
var stageRank = map[Stage]int{
	StageQueued:      0,
	StageCompressing: 1,
	StageUploading:   2,
	StageCompleted:   3,
	StageError:       3,
	StageCancelled:   3,
}

// IsTerminal reports whether no further transition may occur from the stage.
func (s Stage) IsTerminal() bool {
	switch s {
	case StageCompleted, StageError, StageCancelled:
		return true
	default:
		return false
	}
}

// File seeds one ledger entry.
type File struct {
	DisplayName string
	Size        int64
}

// Entry is the externally visible progress state of one file.
type Entry struct {
	Index          int     `json:"index"`
	DisplayName    string  `json:"name"`
	Stage          Stage   `json:"stage"`
	Percent        float64 `json:"percent"`
	OriginalSize   int64   `json:"originalSize"`
	CompressedSize int64   `json:"compressedSize,omitempty"`
	Error          string  `json:"error,omitempty"`
}

// Ledger tracks per-file progress for one batch. The pipeline is the only
// writer; readers receive copied snapshots and may observe updates through a
// registered callback.
type Ledger struct {
	mu       sync.RWMutex
	entries  []Entry
	onChange func([]Entry)
}

// New seeds a ledger with one queued entry per file.
func New(files []File) *Ledger {
	entries := make([]Entry, len(files))
	for i, f := range files {
		entries[i] = Entry{
			Index:        i,
			DisplayName:  f.DisplayName,
			Stage:        StageQueued,
			OriginalSize: f.Size,
		}
	}
	return &Ledger{entries: entries}
}

// Observe registers a callback invoked with a fresh snapshot after every
// accepted update. Intended for presentation layers; the callback must not
// call back into the ledger's writers.
func (l *Ledger) Observe(fn func([]Entry)) {
	l.mu.Lock()
	l.onChange = fn
	l.mu.Unlock()
}

// Transition moves a file to the given stage with the given percent. Backward
// transitions and writes to terminal entries are ignored and reported false.
func (l *Ledger) Transition(index int, stage Stage, percent float64) bool {
	return l.apply(index, func(e *Entry) bool {
		if !allowed(e.Stage, stage) {
			return false
		}
		e.Stage = stage
		if percent > e.Percent {
			e.Percent = percent
		}
		return true
	})
}

// SetPercent updates the percent of an in-flight entry without changing its
// stage. Regressions are ignored.
func (l *Ledger) SetPercent(index int, percent float64) bool {
	return l.apply(index, func(e *Entry) bool {
		if e.Stage.IsTerminal() || percent <= e.Percent {
			return false
		}
		e.Percent = percent
		return true
	})
}

// MarkCompleted transitions an entry to its successful terminal stage.
func (l *Ledger) MarkCompleted(index int, compressedSize int64) bool {
	return l.apply(index, func(e *Entry) bool {
		if !allowed(e.Stage, StageCompleted) {
			return false
		}
		e.Stage = StageCompleted
		e.Percent = 100
		e.CompressedSize = compressedSize
		return true
	})
}

// MarkError transitions an entry to the error terminal stage with a reason.
func (l *Ledger) MarkError(index int, reason string) bool {
	return l.apply(index, func(e *Entry) bool {
		if !allowed(e.Stage, StageError) {
			return false
		}
		e.Stage = StageError
		e.Error = reason
		return true
	})
}

// MarkCancelled marks a not-yet-started entry as cancelled.
func (l *Ledger) MarkCancelled(index int) bool {
	return l.apply(index, func(e *Entry) bool {
		if !allowed(e.Stage, StageCancelled) {
			return false
		}
		e.Stage = StageCancelled
		return true
	})
}

// SetCompressedSize records the post-compression size for an entry.
func (l *Ledger) SetCompressedSize(index int, size int64) bool {
	return l.apply(index, func(e *Entry) bool {
		if e.Stage.IsTerminal() {
			return false
		}
		e.CompressedSize = size
		return true
	})
}

// Entry returns a copy of a single entry.
func (l *Ledger) Entry(index int) (Entry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if index < 0 || index >= len(l.entries) {
		return Entry{}, false
	}
	return l.entries[index], true
}

// Snapshot returns a copy of all entries in submission order.
func (l *Ledger) Snapshot() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.snapshotLocked()
}

// Len returns the number of tracked files.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Resolved reports whether every entry has reached a terminal stage.
func (l *Ledger) Resolved() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, e := range l.entries {
		if !e.Stage.IsTerminal() {
			return false
		}
	}
	return true
}

func (l *Ledger) apply(index int, mutate func(*Entry) bool) bool {
	l.mu.Lock()
	if index < 0 || index >= len(l.entries) {
		l.mu.Unlock()
		return false
	}
	ok := mutate(&l.entries[index])
	var notify func([]Entry)
	var snapshot []Entry
	if ok && l.onChange != nil {
		notify = l.onChange
		snapshot = l.snapshotLocked()
	}
	l.mu.Unlock()

	if notify != nil {
		notify(snapshot)
	}
	return ok
}

func (l *Ledger) snapshotLocked() []Entry {
	cp := make([]Entry, len(l.entries))
	copy(cp, l.entries)
	return cp
}

// allowed implements the forward-only stage machine. Error is reachable from
// any non-terminal stage; Cancelled only from Queued.
func allowed(from, to Stage) bool {
	if from.IsTerminal() {
		return false
	}
	switch to {
	case StageError:
		return true
	case StageCancelled:
		return from == StageQueued
	default:
		return stageRank[to] > stageRank[from]
	}
}
