package services

import (
	"encoding/gob"
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/rs/zerolog/log"

	"circlecalc/internal/models"
)

const (
	SessionName = "circlecalc"
	MaxAge      = 86400 * 30

	userEmailKey = "user_email"
)

func init() {
	gob.Register(models.Flash{})
}

// SessionService keeps the signed-in email and pending flash messages in a signed cookie.
type SessionService interface {
	CurrentUser(r *http.Request) (string, bool)
	SignIn(w http.ResponseWriter, r *http.Request, email string) error
	SignOut(w http.ResponseWriter, r *http.Request) error
	AddFlash(w http.ResponseWriter, r *http.Request, flashes ...models.Flash) error
	Flashes(w http.ResponseWriter, r *http.Request) []models.Flash
}

type sessionService struct {
	store sessions.Store
}

func NewSessionService(secretKey []byte, secure bool) SessionService {
	store := sessions.NewCookieStore(secretKey)
	store.MaxAge(MaxAge)

	store.Options.Path = "/"
	store.Options.HttpOnly = true
	store.Options.Secure = secure
	store.Options.SameSite = http.SameSiteLaxMode

	return &sessionService{store: store}
}

// get never fails outright: a cookie that no longer decodes yields a fresh session.
func (s *sessionService) get(r *http.Request) *sessions.Session {
	session, err := s.store.Get(r, SessionName)
	if err != nil {
		log.Debug().Err(err).Msg("Discarding undecodable session cookie")
	}
	return session
}

func (s *sessionService) CurrentUser(r *http.Request) (string, bool) {
	email, ok := s.get(r).Values[userEmailKey].(string)
	return email, ok && email != ""
}

func (s *sessionService) SignIn(w http.ResponseWriter, r *http.Request, email string) error {
	session := s.get(r)
	session.Values[userEmailKey] = email
	return session.Save(r, w)
}

func (s *sessionService) SignOut(w http.ResponseWriter, r *http.Request) error {
	session := s.get(r)
	delete(session.Values, userEmailKey)
	return session.Save(r, w)
}

func (s *sessionService) AddFlash(w http.ResponseWriter, r *http.Request, flashes ...models.Flash) error {
	session := s.get(r)
	for _, f := range flashes {
		session.AddFlash(f)
	}
	return session.Save(r, w)
}

// Flashes returns and clears the pending flash messages.
func (s *sessionService) Flashes(w http.ResponseWriter, r *http.Request) []models.Flash {
	session := s.get(r)
	raw := session.Flashes()
	if len(raw) == 0 {
		return nil
	}
	if err := session.Save(r, w); err != nil {
		log.Error().Err(err).Msg("Failed to clear flash messages")
	}

	flashes := make([]models.Flash, 0, len(raw))
	for _, v := range raw {
		if f, ok := v.(models.Flash); ok {
			flashes = append(flashes, f)
		}
	}
	return flashes
}
