package directory

import (
	"context"
	"errors"
	"strings"
	"sync"

	goGate "github.com/MrEthical07/goGate"
)

// User is one directory row.
type User struct {
	UserID   string
	SocialID string
	Nickname string
}

// Memory is a concurrency-safe in-memory directory.
type Memory struct {
	mu         sync.RWMutex
	bySocialID map[string]string
	byNickname map[string]string
}

var _ goGate.UserDirectory = (*Memory)(nil)

func NewMemory(users ...User) (*Memory, error) {
	m := &Memory{
		bySocialID: make(map[string]string, len(users)),
		byNickname: make(map[string]string, len(users)),
	}
	for _, u := range users {
		if err := m.Put(u); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Put adds or replaces u. A nickname already held by another user id is
// rejected.
func (m *Memory) Put(u User) error {
	u.UserID = strings.TrimSpace(u.UserID)
	u.SocialID = strings.TrimSpace(u.SocialID)
	u.Nickname = strings.TrimSpace(u.Nickname)
	if u.UserID == "" || u.SocialID == "" || u.Nickname == "" {
		return errors.New("directory: user id, social id and nickname are required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if owner, ok := m.byNickname[u.Nickname]; ok && owner != u.UserID {
		return errors.New("directory: nickname already taken")
	}
	if old, ok := m.bySocialID[u.SocialID]; ok && old != u.Nickname {
		delete(m.byNickname, old)
	}
	m.bySocialID[u.SocialID] = u.Nickname
	m.byNickname[u.Nickname] = u.UserID
	return nil
}

// Remove forgets the user holding socialID.
func (m *Memory) Remove(socialID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if nick, ok := m.bySocialID[socialID]; ok {
		delete(m.byNickname, nick)
		delete(m.bySocialID, socialID)
	}
}

func (m *Memory) SubjectBySocialID(ctx context.Context, socialID string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	nick, ok := m.bySocialID[socialID]
	if !ok {
		return "", goGate.ErrUserNotFound
	}
	return nick, nil
}

func (m *Memory) UserIDBySubject(ctx context.Context, subject string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byNickname[subject]
	if !ok {
		return "", goGate.ErrUserNotFound
	}
	return id, nil
}
