package bench

import (
	"sort"
	"sync"
)

type runHandle struct {
	token  *Token
	done   chan struct{}
	result RunResult
}

// Registry tracks named runs and their cancellation tokens.
// Starting a running id or stopping an idle one is a no-op.
type Registry struct {
	mu   sync.Mutex
	runs map[string]*runHandle
	last map[string]RunResult
}

func NewRegistry() *Registry {
	return &Registry{
		runs: make(map[string]*runHandle),
		last: make(map[string]RunResult),
	}
}

// Start launches fn on its own goroutine under id with a fresh token.
// It returns false when id is already running.
func (r *Registry) Start(id string, fn func(tok *Token) RunResult) bool {
	r.mu.Lock()
	if h, ok := r.runs[id]; ok && !closed(h.done) {
		r.mu.Unlock()
		return false
	}
	h := &runHandle{token: NewToken(), done: make(chan struct{})}
	r.runs[id] = h
	r.mu.Unlock()

	go func() {
		res := fn(h.token)
		r.mu.Lock()
		h.result = res
		r.last[id] = res
		r.mu.Unlock()
		close(h.done)
	}()
	return true
}

// Stop cancels the run under id. It returns false when id is idle.
func (r *Registry) Stop(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.runs[id]
	if !ok || closed(h.done) || h.token.Cancelled() {
		return false
	}
	h.token.Cancel()
	return true
}

func (r *Registry) Running(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.runs[id]
	return ok && !closed(h.done)
}

// Wait blocks until the current run under id finishes and returns its
// result. ok is false when id was never started.
func (r *Registry) Wait(id string) (RunResult, bool) {
	r.mu.Lock()
	h, ok := r.runs[id]
	r.mu.Unlock()
	if !ok {
		return RunResult{}, false
	}
	<-h.done

	r.mu.Lock()
	defer r.mu.Unlock()
	return h.result, true
}

// Last returns the most recent finished result under id.
func (r *Registry) Last(id string) (RunResult, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.last[id]
	return res, ok
}

// CancelAll cancels every running id without waiting for them.
func (r *Registry) CancelAll() { r.cancelAll() }

// StopAll cancels every running id and waits for them to finish.
func (r *Registry) StopAll() {
	for _, done := range r.cancelAll() {
		<-done
	}
}

func (r *Registry) cancelAll() []chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	var pending []chan struct{}
	for _, h := range r.runs {
		if !closed(h.done) {
			h.token.Cancel()
			pending = append(pending, h.done)
		}
	}
	return pending
}

func (r *Registry) Ids() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.runs))
	for id := range r.runs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func closed(ch chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}
