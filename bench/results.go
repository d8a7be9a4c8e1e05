package bench

import "sync"

// ResultTable holds at most one result per system name. A newer result
// for the same system replaces the older one in place.
type ResultTable struct {
	mu    sync.RWMutex
	order []string
	byKey map[string]RunResult
}

func NewResultTable() *ResultTable {
	return &ResultTable{byKey: make(map[string]RunResult)}
}

func (t *ResultTable) Record(r RunResult) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.byKey[r.SystemName]; !ok {
		t.order = append(t.order, r.SystemName)
	}
	t.byKey[r.SystemName] = r
}

func (t *ResultTable) Get(system string) (RunResult, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	r, ok := t.byKey[system]
	return r, ok
}

// Results returns a snapshot in first-recorded order.
func (t *ResultTable) Results() []RunResult {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]RunResult, 0, len(t.order))
	for _, name := range t.order {
		out = append(out, t.byKey[name])
	}
	return out
}

func (t *ResultTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.order)
}

func (t *ResultTable) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.order = nil
	t.byKey = make(map[string]RunResult)
}
