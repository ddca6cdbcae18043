package handlers

import (
	"net/http"

	"circlecalc/internal/services"
	"circlecalc/internal/utils"
)

type CommonHandler struct {
	sessions services.SessionService
}

func NewCommonHandler(sessions services.SessionService) *CommonHandler {
	return &CommonHandler{sessions: sessions}
}

// Index sends signed-in users to the calculator and everyone else to login.
func (h *CommonHandler) Index(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.sessions.CurrentUser(r); ok {
		http.Redirect(w, r, "/calculator", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *CommonHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "It's healthy"})
}
