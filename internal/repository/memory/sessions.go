package memory

import (
	"context"
	"maps"
	"time"

	"github.com/dom/gallery-cms/internal/domain"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type SessionRepo struct {
	db *DB
}

func cloneSession(s *domain.Session) *domain.Session {
	out := &domain.Session{
		ID:        s.ID,
		Token:     s.Token,
		UserID:    copyID(s.UserID),
		ExpiresAt: s.ExpiresAt,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
	if s.Data != nil {
		out.Data = make(datatypes.JSONMap, len(s.Data))
		maps.Copy(out.Data, s.Data)
	}
	return out
}

func (r *SessionRepo) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, s := range r.db.sessions {
		if s.Token == token {
			return cloneSession(s), nil
		}
	}
	return nil, domain.ErrSessionNotFound
}

func (r *SessionRepo) Save(ctx context.Context, session *domain.Session) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	r.db.stamp(&session.CreatedAt, &session.UpdatedAt)
	r.db.sessions[session.ID] = cloneSession(session)
	return nil
}

func (r *SessionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.db.sessions, id)
	return nil
}

func (r *SessionRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var n int64
	for id, s := range r.db.sessions {
		if s.ExpiresAt.Before(now) {
			delete(r.db.sessions, id)
			n++
		}
	}
	return n, nil
}
