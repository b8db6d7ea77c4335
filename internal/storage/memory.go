package storage

import (
	"context"
	"sync"
)

// Memory is an in-process Backend. It forgets everything on exit.
type Memory struct {
	mu     sync.Mutex
	id     int
	ok     bool
	writes int
	err    error
}

// NewMemory creates an empty memory backend.
func NewMemory() *Memory {
	return &Memory{}
}

// DefaultLayer implements Backend.
func (m *Memory) DefaultLayer(context.Context) (int, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, false, m.err
	}
	return m.id, m.ok, nil
}

// SetDefaultLayer implements Backend.
func (m *Memory) SetDefaultLayer(_ context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.id, m.ok = id, true
	m.writes++
	return nil
}

// Writes returns the number of successful SetDefaultLayer calls.
func (m *Memory) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

// FailWith makes every later call return err. A nil err clears it.
func (m *Memory) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}
