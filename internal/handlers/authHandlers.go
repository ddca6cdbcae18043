package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"circlecalc/internal/metrics"
	"circlecalc/internal/models"
	"circlecalc/internal/services"
	"circlecalc/internal/utils"
)

type AuthHandler struct {
	otpService services.OTPService
	sessions   services.SessionService
	renderer   *Renderer
	metrics    *metrics.Metrics
}

func NewAuthHandler(otpService services.OTPService, sessions services.SessionService, renderer *Renderer, m *metrics.Metrics) *AuthHandler {
	return &AuthHandler{otpService: otpService, sessions: sessions, renderer: renderer, metrics: m}
}

func verifyPath(email string) string {
	return "/verify/" + url.PathEscape(email)
}

func (a *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	a.renderer.Render(w, r, http.StatusOK, "login", PageData{})
}

// Login issues a challenge for the posted email. When the email could not be
// sent the code is revealed in a flash so the flow can still be completed.
func (a *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	email := utils.FormValue(r, "email")

	issued, err := a.otpService.IssueChallenge(r.Context(), email)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyIdentifier):
			a.renderer.Render(w, r, http.StatusBadRequest, "login", PageData{}, models.ErrorFlash("Email must not be empty!"))
		case errors.Is(err, services.ErrInvalidFormat):
			a.renderer.Render(w, r, http.StatusBadRequest, "login", PageData{Email: email}, models.ErrorFlash("Invalid email format!"))
		default:
			log.Error().Err(err).Str("email", email).Msg("Error issuing OTP challenge")
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
		return
	}

	var flashes []models.Flash
	if issued.Delivered {
		flashes = []models.Flash{
			models.SuccessFlash(fmt.Sprintf("OTP has been sent to %s", email)),
			models.SuccessFlash("Please check your inbox or spam folder"),
		}
	} else {
		flashes = []models.Flash{
			models.SuccessFlash(fmt.Sprintf("Demo mode: OTP = %s", issued.Code)),
			models.ErrorFlash("Set up email in .env to send OTPs by email"),
		}
	}

	a.renderer.redirect(w, r, verifyPath(email), flashes...)
}

func (a *AuthHandler) VerifyForm(w http.ResponseWriter, r *http.Request) {
	email := mux.Vars(r)["email"]
	a.renderer.Render(w, r, http.StatusOK, "verify", PageData{Email: email, VerifyPath: verifyPath(email)})
}

func (a *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	email := mux.Vars(r)["email"]
	code := utils.FormValue(r, "otp")

	switch a.otpService.VerifyChallenge(r.Context(), email, code) {
	case models.VerifySuccess:
		if err := a.sessions.SignIn(w, r, email); err != nil {
			log.Error().Err(err).Str("email", email).Msg("Error saving session after login")
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		log.Info().Str("email", email).Msg("User logged in")
		a.renderer.redirect(w, r, "/calculator", models.SuccessFlash("Login successful!"))
	case models.VerifyMismatch:
		a.renderer.Render(w, r, http.StatusUnauthorized, "verify",
			PageData{Email: email, VerifyPath: verifyPath(email)},
			models.ErrorFlash("Wrong OTP! Please check it again."))
	default:
		a.renderer.redirect(w, r, "/login",
			models.ErrorFlash("OTP expired or not found!"),
			models.ErrorFlash("Please log in again"))
	}
}

func (a *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := a.sessions.SignOut(w, r); err != nil {
		log.Error().Err(err).Msg("Error clearing session on logout")
	}
	a.metrics.LogoutsTotal.Inc()
	a.renderer.redirect(w, r, "/login", models.SuccessFlash("You have been logged out"))
}
