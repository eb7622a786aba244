package store

import (
	"context"
	"sync"
)

// Memory keeps progress in process memory.
// When a seed is configured, a learner with no saved data receives a copy of it
// on the first Load; afterwards Load returns whatever was last saved.
type Memory struct {
	mu     sync.Mutex
	data   map[int64]Progress
	seed   Progress
	seeded map[int64]bool
}

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return NewSeededMemory(nil)
}

// NewSeededMemory creates an in-memory store that seeds new learners from seed
func NewSeededMemory(seed Progress) *Memory {
	return &Memory{
		data:   make(map[int64]Progress),
		seed:   Clone(seed),
		seeded: make(map[int64]bool),
	}
}

func (m *Memory) Load(_ context.Context, learnerID int64) (Progress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if p, ok := m.data[learnerID]; ok {
		return Clone(p), nil
	}
	if len(m.seed) > 0 && !m.seeded[learnerID] {
		m.seeded[learnerID] = true
		m.data[learnerID] = Clone(m.seed)
		return Clone(m.seed), nil
	}
	return Progress{}, nil
}

func (m *Memory) Save(_ context.Context, learnerID int64, progress Progress) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[learnerID] = Clone(progress)
	m.seeded[learnerID] = true
	return nil
}
