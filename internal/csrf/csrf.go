// Package csrf issues and checks anti-forgery tokens. Tokens are kept per
// identifier inside the user's session, so pages with several independent
// forms do not invalidate each other.
//
// A token that validates is rotated in place rather than consumed: the
// same slot keeps working for a page that fires several protected actions,
// but the value that was just accepted can never be replayed.
package csrf

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"
)

const (
	// DefaultIdentifier is used when the caller does not name a token slot.
	DefaultIdentifier = "_default"

	// IdentifierField is the form field carrying the token slot name.
	IdentifierField = "csrf_id"

	// HeaderName carries the token for requests without a form body.
	HeaderName = "X-CSRF-Token"

	sessionKey  = "_csrf_tokens"
	secretBytes = 32
)

var (
	ErrOriginMissing   = errors.New("origin header missing")
	ErrOriginMismatch  = errors.New("origin does not match host")
	ErrRefererMissing  = errors.New("referer header missing")
	ErrRefererMismatch = errors.New("referer does not match host")
	ErrTokenMissing    = errors.New("no token issued for identifier")
	ErrTokenExpired    = errors.New("token expired")
	ErrTokenMismatch   = errors.New("token mismatch")
)

// Store is the session-scoped key-value store tokens are kept in.
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string)
}

type Config struct {
	TokenTTL        time.Duration
	MaxTokens       int
	ValidateOrigin  bool
	ValidateReferer bool
	// RequireHeaders turns a missing Origin or Referer into a failure
	// instead of skipping that check.
	RequireHeaders bool
	FieldName      string
}

func DefaultConfig() Config {
	return Config{
		TokenTTL:        time.Hour,
		MaxTokens:       10,
		ValidateOrigin:  true,
		ValidateReferer: true,
		FieldName:       "csrf_token",
	}
}

type record struct {
	Secret    string    `json:"secret"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (r record) expired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}

type Guard struct {
	cfg    Config
	logger *slog.Logger
	now    func() time.Time
	random io.Reader
}

type Option func(*Guard)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(g *Guard) {
		g.now = now
	}
}

// WithRandom replaces crypto/rand as the entropy source.
func WithRandom(r io.Reader) Option {
	return func(g *Guard) {
		g.random = r
	}
}

func New(cfg Config, logger *slog.Logger, opts ...Option) *Guard {
	def := DefaultConfig()
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = def.TokenTTL
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = def.MaxTokens
	}
	if cfg.FieldName == "" {
		cfg.FieldName = def.FieldName
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	g := &Guard{
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
		random: rand.Reader,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Guard) FieldName() string {
	return g.cfg.FieldName
}

// HiddenField renders the form input carrying secret.
func (g *Guard) HiddenField(secret string) template.HTML {
	return template.HTML(fmt.Sprintf(`<input type="hidden" name="%s" value="%s">`,
		template.HTMLEscapeString(g.cfg.FieldName), template.HTMLEscapeString(secret)))
}

// Issue stores a fresh token for identifier and returns its secret. Expired
// tokens are dropped first, then the oldest ones until the new token fits
// within MaxTokens.
func (g *Guard) Issue(s Store, identifier string) (string, error) {
	identifier = normalize(identifier)
	tokens := g.load(s)
	now := g.now()

	for id, t := range tokens {
		if t.expired(now) {
			delete(tokens, id)
		}
	}
	delete(tokens, identifier)
	evictOldest(tokens, g.cfg.MaxTokens-1)

	rec, err := g.newRecord(now)
	if err != nil {
		return "", err
	}
	tokens[identifier] = rec
	g.save(s, tokens)
	return rec.Secret, nil
}

// CurrentOrIssue returns the live secret for identifier, issuing one when
// there is none or it has expired.
func (g *Guard) CurrentOrIssue(s Store, identifier string) (string, error) {
	identifier = normalize(identifier)
	tokens := g.load(s)
	if t, ok := tokens[identifier]; ok && !t.expired(g.now()) {
		return t.Secret, nil
	}
	return g.Issue(s, identifier)
}

// Rotate replaces the secret stored for identifier, restarting its TTL.
func (g *Guard) Rotate(s Store, identifier string) (string, error) {
	identifier = normalize(identifier)
	tokens := g.load(s)
	if _, ok := tokens[identifier]; !ok {
		return g.Issue(s, identifier)
	}

	rec, err := g.newRecord(g.now())
	if err != nil {
		return "", err
	}
	tokens[identifier] = rec
	g.save(s, tokens)
	return rec.Secret, nil
}

// Validate reports whether candidate is the current token for identifier
// and the request comes from this origin. Reasons for a refusal are logged.
func (g *Guard) Validate(r *http.Request, s Store, candidate, identifier string) bool {
	if err := g.Check(r, s, candidate, identifier); err != nil {
		g.logger.WarnContext(r.Context(), "csrf validation failed",
			"reason", err.Error(),
			"identifier", normalize(identifier),
			"path", r.URL.Path,
		)
		return false
	}
	return true
}

// Check is Validate with the refusal reason returned as an error. On
// success the token is rotated.
func (g *Guard) Check(r *http.Request, s Store, candidate, identifier string) error {
	if g.cfg.ValidateOrigin {
		if err := g.checkHeaderHost(r, "Origin", ErrOriginMissing, ErrOriginMismatch); err != nil {
			return err
		}
	}
	if g.cfg.ValidateReferer {
		if err := g.checkHeaderHost(r, "Referer", ErrRefererMissing, ErrRefererMismatch); err != nil {
			return err
		}
	}

	identifier = normalize(identifier)
	tokens := g.load(s)
	t, ok := tokens[identifier]
	if !ok {
		return ErrTokenMissing
	}

	now := g.now()
	if t.expired(now) {
		delete(tokens, identifier)
		g.save(s, tokens)
		return ErrTokenExpired
	}

	if subtle.ConstantTimeCompare([]byte(candidate), []byte(t.Secret)) != 1 {
		return ErrTokenMismatch
	}

	rec, err := g.newRecord(now)
	if err != nil {
		return err
	}
	tokens[identifier] = rec
	g.save(s, tokens)
	return nil
}

func (g *Guard) checkHeaderHost(r *http.Request, header string, missing, mismatch error) error {
	value := r.Header.Get(header)
	if value == "" {
		if g.cfg.RequireHeaders {
			return missing
		}
		return nil
	}

	u, err := url.Parse(value)
	if err != nil || u.Host == "" {
		return mismatch
	}
	if !strings.EqualFold(u.Host, r.Host) {
		return mismatch
	}
	return nil
}

func (g *Guard) newRecord(now time.Time) (record, error) {
	b := make([]byte, secretBytes)
	if _, err := io.ReadFull(g.random, b); err != nil {
		return record{}, fmt.Errorf("failed to generate csrf token: %w", err)
	}
	return record{
		Secret:    hex.EncodeToString(b),
		CreatedAt: now,
		ExpiresAt: now.Add(g.cfg.TokenTTL),
	}, nil
}

func (g *Guard) load(s Store) map[string]record {
	tokens := make(map[string]record)
	raw, ok := s.Get(sessionKey)
	if !ok || raw == "" {
		return tokens
	}
	if err := json.Unmarshal([]byte(raw), &tokens); err != nil {
		g.logger.Warn("discarding unreadable csrf token map", "error", err)
		return make(map[string]record)
	}
	return tokens
}

func (g *Guard) save(s Store, tokens map[string]record) {
	raw, err := json.Marshal(tokens)
	if err != nil {
		// map[string]record always marshals
		g.logger.Error("failed to encode csrf tokens", "error", err)
		return
	}
	s.Set(sessionKey, string(raw))
}

// evictOldest removes tokens by ascending CreatedAt until at most limit remain.
func evictOldest(tokens map[string]record, limit int) {
	if limit < 0 {
		limit = 0
	}
	if len(tokens) <= limit {
		return
	}

	ids := make([]string, 0, len(tokens))
	for id := range tokens {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := tokens[ids[i]], tokens[ids[j]]
		if a.CreatedAt.Equal(b.CreatedAt) {
			return ids[i] < ids[j]
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})

	for _, id := range ids[:len(ids)-limit] {
		delete(tokens, id)
	}
}

func normalize(identifier string) string {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return DefaultIdentifier
	}
	return identifier
}
