package alignment

import (
	"context"
	"sync"
)

// Result is the transient per-project alignment state kept next to, never
// inside, the project record.
type Result struct {
	Text         string
	IsLoading    bool
	Err          error
	HasAttempted bool
}

// Ticket identifies a pending request started with Tracker.Begin.
type Ticket struct {
	projectID string
	epoch     uint64
}

// Tracker is the caller-side table of alignment results keyed by project id.
// It allows one pending request per project and drops all state when the
// viewed project changes.
type Tracker struct {
	mu      sync.Mutex
	current string
	epoch   uint64
	results map[string]Result
}

func NewTracker() *Tracker {
	return &Tracker{results: make(map[string]Result)}
}

// Focus switches the viewed project. Switching to a different project resets
// the table; results still in flight for the old project are discarded when
// they settle.
func (t *Tracker) Focus(projectID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if projectID == t.current {
		return
	}
	t.current = projectID
	t.epoch++
	clear(t.results)
}

// Current returns the focused project id.
func (t *Tracker) Current() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}

// Begin marks a request for projectID as pending. It returns false when the
// project is not focused or a request is already pending for it.
func (t *Tracker) Begin(projectID string) (Ticket, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if projectID == "" || projectID != t.current {
		return Ticket{}, false
	}
	if t.results[projectID].IsLoading {
		return Ticket{}, false
	}

	t.results[projectID] = Result{IsLoading: true, HasAttempted: true}
	return Ticket{projectID: projectID, epoch: t.epoch}, true
}

// Settle stores the outcome of a request. It reports false when the result
// was discarded because the focus moved on in the meantime.
func (t *Tracker) Settle(tk Ticket, text string, err error) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if tk.epoch != t.epoch || tk.projectID != t.current {
		return false
	}

	res := Result{HasAttempted: true, Err: err}
	if err == nil {
		res.Text = text
	}
	t.results[tk.projectID] = res
	return true
}

func (t *Tracker) Result(projectID string) Result {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.results[projectID]
}

// Fetch focuses projectID and runs fn unless a request is already pending.
// The boolean is false when no request was issued or its result was discarded.
func (t *Tracker) Fetch(ctx context.Context, projectID string, fn func(ctx context.Context, projectID string) (string, error)) (Result, bool) {
	t.Focus(projectID)

	tk, ok := t.Begin(projectID)
	if !ok {
		return t.Result(projectID), false
	}

	text, err := fn(ctx, projectID)
	if !t.Settle(tk, text, err) {
		return Result{}, false
	}
	return t.Result(projectID), true
}
