package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"
)

// Store хранит сессии посетителей в памяти процесса.
// Сессии никем не разделяются и удаляются после периода неактивности.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
}

// NewStore создаёт хранилище сессий с указанным временем жизни.
func NewStore(ttl time.Duration) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
	}
}

// Create создаёт новую сессию со случайным идентификатором.
func (st *Store) Create() *Session {
	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	id := hex.EncodeToString(buf)

	s := newSession(id)

	st.mu.Lock()
	st.sessions[id] = s
	st.mu.Unlock()

	return s
}

// Get возвращает сессию по идентификатору и продлевает её время жизни.
func (st *Store) Get(id string) (*Session, bool) {
	st.mu.Lock()
	s, ok := st.sessions[id]
	st.mu.Unlock()

	if ok {
		s.touch()
	}
	return s, ok
}

// StartCleanup запускает фоновое удаление неактивных сессий до отмены контекста.
func (st *Store) StartCleanup(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(st.ttl / 2)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				st.removeExpired()
			}
		}
	}()
}

func (st *Store) removeExpired() {
	deadline := time.Now().Add(-st.ttl)

	st.mu.Lock()
	defer st.mu.Unlock()

	for id, s := range st.sessions {
		s.Lock()
		expired := s.lastSeen.Before(deadline)
		s.Unlock()

		if expired {
			delete(st.sessions, id)
		}
	}
}
