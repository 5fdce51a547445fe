// Package middleware содержит HTTP middleware сервиса приёма заказов.
package middleware

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"github.com/mmeshcher/sweetshop-system/internal/session"
)

type contextKey string

const sessionKey contextKey = "session"

const (
	sessionCookieName = "session_id"
	sessionCookieTTL  = 30 * 24 * time.Hour
)

// SessionMiddleware привязывает посетителя к сессии оформления заказа
// через подписанный cookie. Страница заказов не требует аутентификации:
// cookie идентифицирует только сессию, не личность.
type SessionMiddleware struct {
	secretKey []byte
	store     *session.Store
}

// NewSessionMiddleware создаёт middleware с указанным секретным ключом и хранилищем сессий.
func NewSessionMiddleware(secret string, store *session.Store) *SessionMiddleware {
	key := []byte(secret)
	if len(key) == 0 {
		randomKey := make([]byte, 32)
		if _, err := rand.Read(randomKey); err == nil {
			key = randomKey
		} else {
			key = []byte("default-secret-key")
		}
	}

	return &SessionMiddleware{
		secretKey: key,
		store:     store,
	}
}

// Middleware находит сессию посетителя по cookie или создаёт новую
// и добавляет её в контекст запроса.
func (m *SessionMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var sess *session.Session

		if cookie, err := r.Cookie(sessionCookieName); err == nil {
			if id, ok := m.parseCookie(cookie.Value); ok {
				if existing, found := m.store.Get(id); found {
					sess = existing
				}
			}
		}

		if sess == nil {
			sess = m.store.Create()
			m.setSessionCookie(w, sess.ID)
		}

		ctx := context.WithValue(r.Context(), sessionKey, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *SessionMiddleware) setSessionCookie(w http.ResponseWriter, id string) {
	cookie := &http.Cookie{
		Name:     sessionCookieName,
		Value:    m.sign(id),
		Path:     "/",
		Expires:  time.Now().Add(sessionCookieTTL),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	http.SetCookie(w, cookie)
}

func (m *SessionMiddleware) sign(id string) string {
	mac := hmac.New(sha256.New, m.secretKey)
	mac.Write([]byte(id))
	signature := mac.Sum(nil)
	return id + "." + hex.EncodeToString(signature)
}

func (m *SessionMiddleware) parseCookie(cookieValue string) (string, bool) {
	parts := strings.Split(cookieValue, ".")
	if len(parts) != 2 {
		return "", false
	}

	id := parts[0]
	signature := parts[1]

	mac := hmac.New(sha256.New, m.secretKey)
	mac.Write([]byte(id))
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return "", false
	}

	return id, true
}

// GetSessionFromContext извлекает сессию посетителя из контекста запроса.
func GetSessionFromContext(ctx context.Context) (*session.Session, bool) {
	s, ok := ctx.Value(sessionKey).(*session.Session)
	return s, ok
}
