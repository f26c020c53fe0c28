package web

import (
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"lunch-menu/internal/app"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	cookieName = "lunch_session"
	sessionTTL = 2 * time.Hour
)

var errInvalidToken = errors.New("invalid session token")

// sessionStore keeps one app.Session per browser. Sessions live in memory
// only; the cookie carries a signed token naming the session id.
type sessionStore struct {
	mu       sync.Mutex
	app      *app.App
	secret   []byte
	sessions map[string]*storedSession
	now      func() time.Time
}

type storedSession struct {
	session  *app.Session
	lastSeen time.Time
}

func newSessionStore(a *app.App, secret string) (*sessionStore, error) {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("failed to generate session secret: %w", err)
		}
	}
	return &sessionStore{
		app:      a,
		secret:   key,
		sessions: make(map[string]*storedSession),
		now:      time.Now,
	}, nil
}

// fresh discards the browser's current session, if any, and starts a new
// one. Page loads use it so state never survives a reload.
func (st *sessionStore) fresh(w http.ResponseWriter, r *http.Request) (*app.Session, error) {
	if id, err := st.idFromRequest(r); err == nil {
		st.mu.Lock()
		delete(st.sessions, id)
		st.mu.Unlock()
	}
	return st.create(w)
}

// load returns the browser's session, creating one when the cookie is
// missing, invalid or expired.
func (st *sessionStore) load(w http.ResponseWriter, r *http.Request) (*app.Session, error) {
	id, err := st.idFromRequest(r)
	if err == nil {
		st.mu.Lock()
		stored, ok := st.sessions[id]
		if ok {
			stored.lastSeen = st.now()
		}
		st.mu.Unlock()
		if ok {
			return stored.session, nil
		}
	}
	return st.create(w)
}

func (st *sessionStore) create(w http.ResponseWriter) (*app.Session, error) {
	id := uuid.NewString()
	token, err := st.sign(id)
	if err != nil {
		return nil, err
	}

	s := st.app.NewSession(id, nil)

	st.mu.Lock()
	st.sweepLocked()
	st.sessions[id] = &storedSession{session: s, lastSeen: st.now()}
	st.mu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(sessionTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return s, nil
}

// sweepLocked drops sessions idle for longer than the TTL.
func (st *sessionStore) sweepLocked() {
	cutoff := st.now().Add(-sessionTTL)
	for id, stored := range st.sessions {
		if stored.lastSeen.Before(cutoff) {
			delete(st.sessions, id)
		}
	}
}

func (st *sessionStore) count() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

func (st *sessionStore) idFromRequest(r *http.Request) (string, error) {
	cookie, err := r.Cookie(cookieName)
	if err != nil {
		return "", err
	}
	return st.parse(cookie.Value)
}

func (st *sessionStore) sign(id string) (string, error) {
	now := st.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   id,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(sessionTTL)),
	})
	signed, err := token.SignedString(st.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

func (st *sessionStore) parse(raw string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return st.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(st.now))
	if err != nil || !token.Valid {
		return "", errInvalidToken
	}
	if _, err := uuid.Parse(claims.Subject); err != nil {
		return "", errInvalidToken
	}
	return claims.Subject, nil
}
