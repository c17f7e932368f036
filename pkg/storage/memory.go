package storage

import (
	"sort"
	"sync"

	"github.com/inkforge/contentflow/pkg/models"
	"github.com/pkg/errors"
)

// memoryEntry wraps one workflow with its own lock so read/modify/write on a
// single workflow never contends with unrelated workflows.
type memoryEntry struct {
	mu    sync.Mutex
	state models.WorkflowState
}

// MemoryStore implements Store with process-lifetime in-memory storage.
// Locking granularity is per workflow id; the outer map lock is held only
// long enough to find or insert an entry.
type MemoryStore struct {
	mu        sync.RWMutex
	workflows map[string]*memoryEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{workflows: make(map[string]*memoryEntry)}
}

func (m *MemoryStore) SaveWorkflow(state models.WorkflowState) error {
	if state.WorkflowID == "" {
		return errors.New("workflow id cannot be empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.workflows[state.WorkflowID] = &memoryEntry{state: state.Clone()}
	return nil
}

func (m *MemoryStore) GetWorkflow(id string) (models.WorkflowState, error) {
	m.mu.RLock()
	entry, ok := m.workflows[id]
	m.mu.RUnlock()
	if !ok {
		return models.WorkflowState{}, ErrNotFound
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.state.Clone(), nil
}

func (m *MemoryStore) UpdateWorkflow(id string, mutate func(*models.WorkflowState) error) (models.WorkflowState, error) {
	m.mu.RLock()
	entry, ok := m.workflows[id]
	m.mu.RUnlock()
	if !ok {
		return models.WorkflowState{}, ErrNotFound
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	next := entry.state.Clone()
	if err := mutate(&next); err != nil {
		return models.WorkflowState{}, err
	}
	entry.state = next
	return next.Clone(), nil
}

func (m *MemoryStore) DeleteWorkflow(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.workflows[id]; !ok {
		return ErrNotFound
	}
	delete(m.workflows, id)
	return nil
}

func (m *MemoryStore) ListWorkflows() ([]models.WorkflowState, error) {
	m.mu.RLock()
	entries := make([]*memoryEntry, 0, len(m.workflows))
	for _, entry := range m.workflows {
		entries = append(entries, entry)
	}
	m.mu.RUnlock()

	states := make([]models.WorkflowState, 0, len(entries))
	for _, entry := range entries {
		entry.mu.Lock()
		states = append(states, entry.state.Clone())
		entry.mu.Unlock()
	}
	sort.Slice(states, func(i, j int) bool {
		return states[i].CreatedAt.Before(states[j].CreatedAt)
	})
	return states, nil
}

func (m *MemoryStore) Close() error {
	return nil
}
