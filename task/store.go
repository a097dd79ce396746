// ytparser/task/store.go
package task

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/lithammer/shortuuid/v4"
)

// ErrNotFound is returned by Store.Get for unknown (or expired) task ids.
var ErrNotFound = errors.New("task not found")

// Update carries a partial set of fields to merge into an existing record.
// Nil fields are left untouched.
type Update struct {
	Status   *Status
	Progress *float64
	Result   *Result
	Error    *string
}

func (u Update) apply(t *Task) {
	if u.Status != nil {
		t.Status = *u.Status
	}
	if u.Progress != nil {
		t.Progress = *u.Progress
	}
	if u.Result != nil {
		t.Result = u.Result
	}
	if u.Error != nil {
		t.Error = *u.Error
	}
}

// Store is the task persistence contract. All methods must be safe for
// arbitrary concurrent callers. Update is a no-op for unknown ids.
type Store interface {
	Create(ctx context.Context, kind Kind) (*Task, error)
	Get(ctx context.Context, id string) (*Task, error)
	Update(ctx context.Context, id string, u Update) error
}

// MemoryStore keeps tasks in a mutex-guarded map for the process lifetime.
// There is no eviction; restart loses everything.
type MemoryStore struct {
	mu    sync.RWMutex
	tasks map[string]*Task
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tasks: make(map[string]*Task)}
}

func (s *MemoryStore) Create(_ context.Context, kind Kind) (*Task, error) {
	t := &Task{
		ID:        shortuuid.New(),
		Kind:      kind,
		Status:    StatusPending,
		Progress:  0.0,
		CreatedAt: time.Now(),
	}
	s.mu.Lock()
	s.tasks[t.ID] = t
	s.mu.Unlock()

	clone := *t
	return &clone, nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[id]
	if !ok {
		return nil, ErrNotFound
	}
	// Copy so readers never observe a record mid-update.
	clone := *t
	return &clone, nil
}

func (s *MemoryStore) Update(_ context.Context, id string, u Update) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tasks[id]; ok {
		u.apply(t)
	}
	return nil
}
