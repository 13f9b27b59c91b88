package orgchart_test

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	orgnodestore "github.com/dalemusser/organigram/internal/app/store/orgnodes"
	"github.com/dalemusser/organigram/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memStore is an in-memory NodeStore with the same error contract as
// the Mongo store.
type memStore struct {
	mu    sync.Mutex
	nodes map[primitive.ObjectID]models.OrgNode
	seq   int
}

func newMemStore() *memStore {
	return &memStore{nodes: map[primitive.ObjectID]models.OrgNode{}}
}

func (m *memStore) Create(_ context.Context, n models.OrgNode) (models.OrgNode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n.NodeType == models.NodeTypePerson && n.UserID != nil {
		for _, e := range m.nodes {
			if e.NodeType == models.NodeTypePerson && e.UserID != nil && *e.UserID == *n.UserID {
				return models.OrgNode{}, orgnodestore.ErrDuplicatePerson
			}
		}
	}
	if n.ID.IsZero() {
		n.ID = primitive.NewObjectID()
	}
	m.seq++
	n.NameCI = text.Fold(n.Name)
	n.CreatedAt = time.Unix(int64(m.seq), 0).UTC()
	n.UpdatedAt = n.CreatedAt
	m.nodes[n.ID] = n
	return n, nil
}

func (m *memStore) GetByID(_ context.Context, id primitive.ObjectID) (models.OrgNode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.nodes[id]
	if !ok {
		return models.OrgNode{}, orgnodestore.ErrNotFound
	}
	return n, nil
}

func (m *memStore) Exists(_ context.Context, id primitive.ObjectID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.nodes[id]
	return ok, nil
}

func (m *memStore) ParentOf(_ context.Context, id primitive.ObjectID) (*primitive.ObjectID, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.nodes[id]
	if !ok {
		return nil, false, nil
	}
	return n.ParentID, true, nil
}

func (m *memStore) List(context.Context) ([]models.OrgNode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.OrgNode, 0, len(m.nodes))
	for _, n := range m.nodes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *memStore) FindDivisionsByNames(_ context.Context, names []string) ([]models.OrgNode, error) {
	want := map[string]bool{}
	for _, n := range names {
		want[n] = true
	}
	all, _ := m.List(context.Background())
	var out []models.OrgNode
	for _, n := range all {
		if n.NodeType == models.NodeTypeDivision && want[n.Name] {
			out = append(out, n)
		}
	}
	return out, nil
}

func (m *memStore) Save(_ context.Context, n models.OrgNode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.nodes[n.ID]
	if !ok {
		return orgnodestore.ErrNotFound
	}
	n.CreatedAt = old.CreatedAt
	n.CreatedByID = old.CreatedByID
	n.NameCI = text.Fold(n.Name)
	m.nodes[n.ID] = n
	return nil
}

func (m *memStore) Delete(_ context.Context, id primitive.ObjectID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.nodes[id]; !ok {
		return 0, nil
	}
	delete(m.nodes, id)
	return 1, nil
}

func (m *memStore) ReparentChildren(_ context.Context, from primitive.ObjectID, to *primitive.ObjectID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var moved int64
	for id, n := range m.nodes {
		if n.ParentID != nil && *n.ParentID == from {
			n.ParentID = to
			m.nodes[id] = n
			moved++
		}
	}
	return moved, nil
}

func (m *memStore) HasPersonForUser(_ context.Context, userID primitive.ObjectID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.nodes {
		if n.NodeType == models.NodeTypePerson && n.UserID != nil && *n.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) byName(name string) (models.OrgNode, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.nodes {
		if n.Name == name {
			return n, true
		}
	}
	return models.OrgNode{}, false
}

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.nodes)
}

// pausingStore holds one armed List call after it has read the nodes
// until release is closed, so a write can land in between.
type pausingStore struct {
	*memStore
	armed   atomic.Bool
	read    chan struct{}
	release chan struct{}
}

func newPausingStore() *pausingStore {
	return &pausingStore{memStore: newMemStore(), read: make(chan struct{}), release: make(chan struct{})}
}

func (p *pausingStore) List(ctx context.Context) ([]models.OrgNode, error) {
	nodes, err := p.memStore.List(ctx)
	if p.armed.CompareAndSwap(true, false) {
		close(p.read)
		<-p.release
	}
	return nodes, err
}
