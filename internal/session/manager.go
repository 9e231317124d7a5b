// Package session keeps server-side browser sessions. The browser only holds
// a signed cookie naming the session token; everything else lives in a Store.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/dom/gallery-cms/internal/domain"
	"github.com/dom/gallery-cms/internal/logging"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Config struct {
	CookieName string
	TTL        time.Duration
	Secure     bool
	Secret     []byte
}

type Manager struct {
	store  Store
	codec  *CookieCodec
	cfg    Config
	logger *slog.Logger
	now    func() time.Time
}

type Option func(*Manager)

func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

func NewManager(store Store, cfg Config, logger *slog.Logger, opts ...Option) *Manager {
	if cfg.CookieName == "" {
		cfg.CookieName = "cms_session"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	if logger == nil {
		logger = logging.Discard()
	}
	m := &Manager{
		store:  store,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.codec = NewCookieCodec(cfg.Secret, m.now)
	return m
}

func (m *Manager) CookieName() string {
	return m.cfg.CookieName
}

// New returns a fresh anonymous session. It is not persisted until
// something is written to it.
func (m *Manager) New() (*domain.Session, error) {
	token, err := newToken()
	if err != nil {
		return nil, err
	}
	return &domain.Session{
		ID:        uuid.New(),
		Token:     token,
		Data:      datatypes.JSONMap{},
		ExpiresAt: m.now().Add(m.cfg.TTL),
	}, nil
}

// Load returns the session named by the request cookie, or a new anonymous
// one when the cookie is missing, tampered with or points at an expired or
// unknown session. Only store failures are returned as errors.
func (m *Manager) Load(r *http.Request) (*domain.Session, error) {
	c, err := r.Cookie(m.cfg.CookieName)
	if err != nil {
		return m.New()
	}

	token, err := m.codec.Decode(c.Value)
	if err != nil {
		m.logger.Debug("discarding session cookie", logging.Err(err))
		return m.New()
	}

	sess, err := m.store.GetByToken(r.Context(), token)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return m.New()
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	if sess.IsExpired(m.now()) {
		if err := m.store.Delete(r.Context(), sess.ID); err != nil {
			m.logger.Warn("failed to delete expired session", logging.Err(err))
		}
		return m.New()
	}

	// Extend sessions past half their lifetime on the next save.
	if sess.ExpiresAt.Sub(m.now()) < m.cfg.TTL/2 {
		sess.MarkModified()
	}
	return sess, nil
}

// Save persists sess and writes its cookie.
func (m *Manager) Save(ctx context.Context, w http.ResponseWriter, sess *domain.Session) error {
	sess.ExpiresAt = m.now().Add(m.cfg.TTL)
	if err := m.store.Save(ctx, sess); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	value, err := m.codec.Encode(sess.Token, sess.ExpiresAt)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    value,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		MaxAge:   int(m.cfg.TTL.Seconds()),
		HttpOnly: true,
		Secure:   m.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	sess.MarkSaved()
	return nil
}

// Authenticate binds sess to userID and issues it a new token so a token
// seen before login is worthless afterwards.
func (m *Manager) Authenticate(sess *domain.Session, userID uuid.UUID) error {
	token, err := newToken()
	if err != nil {
		return err
	}
	sess.Token = token
	sess.UserID = &userID
	sess.MarkModified()
	return nil
}

// Destroy removes sess from the store and clears the cookie. Every value
// kept in the session, anti-forgery tokens included, goes with it.
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter, sess *domain.Session) error {
	if err := m.store.Delete(ctx, sess.ID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	sess.MarkSaved()
	return nil
}

func newToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
