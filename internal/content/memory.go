package content

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps uploads in a map. Used for local runs without a
// bucket and for tests.
type MemoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		objects: make(map[string][]byte),
		now:     time.Now,
	}
}

func (s *MemoryStore) Upload(ctx context.Context, data []byte, ext string, userID int64) (string, error) {
	name := objectName(userID, ext, s.now())

	s.mu.Lock()
	defer s.mu.Unlock()

	s.objects[name] = append([]byte(nil), data...)
	return "memory://" + name, nil
}

// Object returns a stored object by name. Test helper.
func (s *MemoryStore) Object(name string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.objects[name]
	return data, ok
}

// Len reports the number of stored objects. Test helper.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.objects)
}
