package sessions

import (
	"container/list"
	"context"
	"strconv"
	"sync"
	"time"

	"webchat/pkg/breaker"
	"webchat/pkg/logger"
	"webchat/services/chat"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
)

// Session binds a browser cookie to the signed-in user id
type Session struct {
	SessionID string
	UserID    chat.ID
	LoginTime int64
}

func NewSession(userID chat.ID) *Session {
	return &Session{
		SessionID: uuid.New().String(),
		UserID:    userID,
		LoginTime: time.Now().Unix(),
	}
}

func (s *Session) Marshal() map[string]any {
	return map[string]any{
		"session_id": s.SessionID,
		"user_id":    int64(s.UserID),
		"login_time": s.LoginTime,
	}
}

func (s *Session) Unmarshal(data map[string]string) error {
	s.SessionID = data["session_id"]

	uid, err := strconv.ParseInt(data["user_id"], 10, 64)
	if err != nil {
		return err
	}
	s.UserID = chat.ID(uid)

	s.LoginTime, err = strconv.ParseInt(data["login_time"], 10, 64)
	return err
}

// Store keeps sessions by id. Get returns nil, nil for an unknown or
// expired session.
type Store interface {
	Save(ctx context.Context, s *Session) error
	Get(ctx context.Context, sessionID string) (*Session, error)
	Delete(ctx context.Context, sessionID string) error
}

func key(sessionID string) string {
	return "session:" + sessionID
}

// MemoryStore is a bounded LRU of sessions with a TTL
type MemoryStore struct {
	ttl       time.Duration
	cache     map[string]*list.Element
	evictList *list.List
	capacity  int
	mu        sync.Mutex
	now       func() time.Time
}

func NewMemoryStore(ttl time.Duration, capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = 10000
	}
	return &MemoryStore{
		ttl:       ttl,
		cache:     make(map[string]*list.Element),
		evictList: list.New(),
		capacity:  capacity,
		now:       time.Now,
	}
}

func (m *MemoryStore) Save(ctx context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if elem, ok := m.cache[s.SessionID]; ok {
		m.evictList.MoveToFront(elem)
		elem.Value = s
		return nil
	}

	if m.evictList.Len() >= m.capacity {
		if oldest := m.evictList.Back(); oldest != nil {
			m.evictList.Remove(oldest)
			delete(m.cache, oldest.Value.(*Session).SessionID)
		}
	}

	m.cache[s.SessionID] = m.evictList.PushFront(s)
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, sessionID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	elem, ok := m.cache[sessionID]
	if !ok {
		return nil, nil
	}
	s := elem.Value.(*Session)
	if m.ttl > 0 && m.now().After(time.Unix(s.LoginTime, 0).Add(m.ttl)) {
		m.evictList.Remove(elem)
		delete(m.cache, sessionID)
		return nil, nil
	}
	m.evictList.MoveToFront(elem)
	return s, nil
}

func (m *MemoryStore) Delete(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if elem, ok := m.cache[sessionID]; ok {
		m.evictList.Remove(elem)
		delete(m.cache, sessionID)
	}
	return nil
}

func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.evictList.Len()
}

// RedisStore persists sessions as Redis hashes behind a breaker, keeping a
// local LRU that answers while Redis is unavailable.
type RedisStore struct {
	rdb   *redis.Client
	cb    *gobreaker.CircuitBreaker
	ttl   time.Duration
	local *MemoryStore
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{
		rdb: rdb,
		cb: breaker.New(breaker.Config{
			Name:        "redis-sessions",
			MaxRequests: 5,
			Timeout:     30 * time.Second,
			Threshold:   0.5,
		}),
		ttl:   ttl,
		local: NewMemoryStore(ttl, 10000),
	}
}

// Save caches locally, then persists to Redis in the background
func (r *RedisStore) Save(ctx context.Context, s *Session) error {
	r.local.Save(ctx, s)

	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		_, err := breaker.ExecuteCtx(bgCtx, r.cb, func() (any, error) {
			pipe := r.rdb.Pipeline()
			pipe.HSet(bgCtx, key(s.SessionID), s.Marshal())
			pipe.Expire(bgCtx, key(s.SessionID), r.ttl)
			_, err := pipe.Exec(bgCtx)
			return nil, err
		})
		if err != nil {
			logger.WithFields(map[string]any{
				"session_id": s.SessionID,
				"error":      err.Error(),
			}).Error("Async session persistence to Redis failed (session remains in local cache)")
		}
	}()

	return nil
}

func (r *RedisStore) Get(ctx context.Context, sessionID string) (*Session, error) {
	result, err := breaker.ExecuteCtx(ctx, r.cb, func() (any, error) {
		return r.rdb.HGetAll(ctx, key(sessionID)).Result()
	})
	if err != nil {
		logger.WithError(err).Warn("Session lookup in Redis failed, checking local cache")
		return r.local.Get(ctx, sessionID)
	}

	data := result.(map[string]string)
	if len(data) == 0 {
		return r.local.Get(ctx, sessionID)
	}

	s := &Session{}
	if err := s.Unmarshal(data); err != nil {
		return nil, err
	}
	r.local.Save(ctx, s)
	return s, nil
}

func (r *RedisStore) Delete(ctx context.Context, sessionID string) error {
	r.local.Delete(ctx, sessionID)

	_, err := breaker.ExecuteCtx(ctx, r.cb, func() (any, error) {
		return nil, r.rdb.Del(ctx, key(sessionID)).Err()
	})
	if err != nil {
		logger.WithFields(map[string]any{
			"session_id": sessionID,
			"error":      err.Error(),
		}).Warn("Session delete in Redis failed")
	}
	return nil
}

func (r *RedisStore) BreakerState() string {
	return r.cb.State().String()
}
