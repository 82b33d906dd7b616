package ingest

import (
	"context"
	"errors"
	"sync"

	"github.com/Spok95/curriculum-sync/internal/models"
)

// memStore хранилище в памяти с транзакционной семантикой: записи до
// Commit видны только через эту же сессию, Isolate их отбрасывает.
type memStore struct {
	mu        sync.Mutex
	nextID    int64
	committed map[int64]models.Node
	pending   map[int64]models.Node
	finds     int
	failOn    func(op string, n *models.Node) error
	commits   int
	isolates  int
}

func newMemStore() *memStore {
	return &memStore{committed: map[int64]models.Node{}, pending: map[int64]models.Node{}}
}

func (m *memStore) view() map[int64]models.Node {
	out := make(map[int64]models.Node, len(m.committed)+len(m.pending))
	for id, n := range m.committed {
		out[id] = n
	}
	for id, n := range m.pending {
		out[id] = n
	}
	return out
}

func (m *memStore) FindByNameAndParent(_ context.Context, level models.Level, parentID int64, name string) (*models.Node, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.finds++
	if m.failOn != nil {
		if err := m.failOn("find", &models.Node{Level: level, ParentID: parentID, Name: name}); err != nil {
			return nil, err
		}
	}
	for _, n := range m.view() {
		if n.Level == level && n.ParentID == parentID && n.Name == name {
			cp := n
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memStore) CreateNode(_ context.Context, n *models.Node) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOn != nil {
		if err := m.failOn("create", n); err != nil {
			return err
		}
	}
	for _, ex := range m.view() {
		if ex.Level == n.Level && ex.ParentID == n.ParentID && ex.Name == n.Name {
			return errors.New("unique violation")
		}
	}
	m.nextID++
	n.ID = m.nextID
	if n.UpdatedAt.IsZero() {
		n.UpdatedAt = n.CreatedAt
	}
	m.pending[n.ID] = *n
	return nil
}

func (m *memStore) UpdateNode(_ context.Context, n *models.Node) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOn != nil {
		if err := m.failOn("update", n); err != nil {
			return err
		}
	}
	m.pending[n.ID] = *n
	return nil
}

func (m *memStore) Commit() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commits++
	for id, n := range m.pending {
		m.committed[id] = n
	}
	m.pending = map[int64]models.Node{}
	return nil
}

func (m *memStore) Isolate() (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.isolates++
	dirty := len(m.pending) > 0
	m.pending = map[int64]models.Node{}
	return dirty, nil
}

func (m *memStore) byLevel(level models.Level) []models.Node {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Node
	for _, n := range m.committed {
		if n.Level == level {
			out = append(out, n)
		}
	}
	return out
}
