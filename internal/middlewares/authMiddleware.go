package middlewares

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"

	"circlecalc/internal/models"
	"circlecalc/internal/services"
)

type contextKey string

const userEmailKey contextKey = "userEmail"

// RequireLogin redirects anonymous visitors to the login page and puts the
// signed-in email on the request context for everyone else.
func RequireLogin(sessions services.SessionService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			email, ok := sessions.CurrentUser(r)
			if !ok {
				if err := sessions.AddFlash(w, r, models.ErrorFlash("Please log in first")); err != nil {
					log.Error().Err(err).Msg("Failed to save flash message")
				}
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}

			ctx := context.WithValue(r.Context(), userEmailKey, email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserEmail returns the email placed on the context by RequireLogin.
func UserEmail(ctx context.Context) string {
	email, _ := ctx.Value(userEmailKey).(string)
	return email
}
