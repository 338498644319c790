// internal/infra/session/guest.go
package session

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("session: invalid guest token")
)

// DefaultTTL matches the cart API's guest cart retention window.
const DefaultTTL = 30 * 24 * time.Hour

// Manager mints and verifies the guest-session cookie. The cookie value is
// a signed JWT whose subject is an opaque random session id; the session id
// (not the whole token) keys the snapshot cache, while the token is what
// gets forwarded to the cart API as the ambient credential.
type Manager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewManager(secret string, ttl time.Duration) (*Manager, error) {
	s := strings.TrimSpace(secret)
	if s == "" {
		return nil, errors.New("session: guest session secret is empty")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{secret: []byte(s), ttl: ttl, now: time.Now}, nil
}

// NewManagerWithClock is useful for tests.
func NewManagerWithClock(secret string, ttl time.Duration, now func() time.Time) (*Manager, error) {
	m, err := NewManager(secret, ttl)
	if err != nil {
		return nil, err
	}
	if now != nil {
		m.now = now
	}
	return m, nil
}

// Issue mints a new guest session. Returns the signed cookie value and the
// opaque session id embedded in it.
func (m *Manager) Issue() (token string, sessionID string, err error) {
	sid, err := newSessionID()
	if err != nil {
		return "", "", err
	}

	now := m.now()
	claims := jwt.RegisteredClaims{
		Subject:   sid,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(m.secret)
	if err != nil {
		return "", "", fmt.Errorf("session: sign guest token: %w", err)
	}
	return signed, sid, nil
}

// Verify checks a cookie value and returns the session id inside it.
func (m *Manager) Verify(token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrInvalidToken
	}

	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("session: unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil || !parsed.Valid {
		return "", ErrInvalidToken
	}

	sid := strings.TrimSpace(claims.Subject)
	if sid == "" {
		return "", ErrInvalidToken
	}
	return sid, nil
}

// TTL exposes the configured lifetime (cookie Max-Age).
func (m *Manager) TTL() time.Duration { return m.ttl }

func newSessionID() (string, error) {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", fmt.Errorf("session: generate id: %w", err)
	}
	return hex.EncodeToString(b[:]), nil
}
