package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ayush/collections-app/internal/models"
)

// MemoryStore is an in-process stand-in for PostgresStore with the same
// error semantics: unique emails, cascading collection deletes and
// ErrNotFound on missing rows. Data is lost on restart.
type MemoryStore struct {
	mu          sync.RWMutex
	nextID      int64
	users       map[int64]models.User
	collections map[int64]models.Collection
	tasks       map[int64]models.Task
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:       make(map[int64]models.User),
		collections: make(map[int64]models.Collection),
		tasks:       make(map[int64]models.Task),
	}
}

func (m *MemoryStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *MemoryStore) Ping(context.Context) error { return nil }

func (m *MemoryStore) CreateUser(_ context.Context, username, email, hashedPassword string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Email == email {
			return nil, models.ErrConflict
		}
	}
	u := models.User{ID: m.id(), Username: username, Email: email, Password: hashedPassword, CreatedAt: time.Now()}
	m.users[u.ID] = u
	u.Password = ""
	return &u, nil
}

func (m *MemoryStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, models.ErrNotFound
}

// UserCount returns the number of registered users.
func (m *MemoryStore) UserCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.users)
}

func (m *MemoryStore) ListCollections(_ context.Context, userID int64) ([]models.Collection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var res []models.Collection
	for _, c := range m.collections {
		if c.UserID == userID {
			res = append(res, c)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res, nil
}

func (m *MemoryStore) CreateCollection(_ context.Context, userID int64, name string) (*models.Collection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[userID]; !ok {
		return nil, models.ErrNotFound
	}
	c := models.Collection{ID: m.id(), UserID: userID, Name: name, CreatedAt: time.Now()}
	m.collections[c.ID] = c
	return &c, nil
}

func (m *MemoryStore) DeleteCollection(_ context.Context, id, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.collections[id]
	if !ok || c.UserID != userID {
		return nil
	}
	delete(m.collections, id)
	for tid, t := range m.tasks {
		if t.CollectionID == id {
			delete(m.tasks, tid)
		}
	}
	return nil
}

func (m *MemoryStore) GetCollectionDetail(_ context.Context, id int64) (*models.CollectionDetail, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.collections[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &models.CollectionDetail{Collection: c, OwnerUsername: m.users[c.UserID].Username}, nil
}

func (m *MemoryStore) ListTasks(_ context.Context, collectionID int64) ([]models.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var res []models.Task
	for _, t := range m.tasks {
		if t.CollectionID == collectionID {
			res = append(res, t)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res, nil
}

func (m *MemoryStore) CreateTask(_ context.Context, collectionID int64, name string) (*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.collections[collectionID]; !ok {
		return nil, models.ErrNotFound
	}
	t := models.Task{ID: m.id(), CollectionID: collectionID, Name: name, CreatedAt: time.Now()}
	m.tasks[t.ID] = t
	return &t, nil
}

func (m *MemoryStore) GetTaskOwner(_ context.Context, taskID int64) (*models.TaskOwner, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.tasks[taskID]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &models.TaskOwner{
		TaskID:       taskID,
		CollectionID: t.CollectionID,
		UserID:       m.collections[t.CollectionID].UserID,
	}, nil
}

func (m *MemoryStore) DeleteTask(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.tasks[id]; !ok {
		return models.ErrNotFound
	}
	delete(m.tasks, id)
	return nil
}

func (m *MemoryStore) UpdateTaskDone(_ context.Context, id int64, done bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tasks[id]
	if !ok {
		return models.ErrNotFound
	}
	t.Done = done
	m.tasks[id] = t
	return nil
}
