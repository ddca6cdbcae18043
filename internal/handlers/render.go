package handlers

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/rs/zerolog/log"

	"circlecalc/internal/models"
	"circlecalc/internal/services"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = []string{"login", "verify", "calculator"}

// PageData is the view model shared by every page.
type PageData struct {
	Flashes    []models.Flash
	Email      string
	VerifyPath string
	UserEmail  string
	Circle     *models.Circle
}

// Renderer executes the page templates, pulling pending flashes from the session.
type Renderer struct {
	sessions services.SessionService
	pages    map[string]*template.Template
}

func NewRenderer(sessions services.SessionService) (*Renderer, error) {
	rd := &Renderer{sessions: sessions, pages: make(map[string]*template.Template, len(pages))}
	for _, name := range pages {
		tpl, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		rd.pages[name] = tpl
	}
	return rd, nil
}

// Render writes page with status. Extra flashes are shown after the ones stored in the session.
func (rd *Renderer) Render(w http.ResponseWriter, r *http.Request, status int, page string, data PageData, extra ...models.Flash) {
	tpl, ok := rd.pages[page]
	if !ok {
		log.Error().Str("page", page).Msg("Unknown page template")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	data.Flashes = append(rd.sessions.Flashes(w, r), extra...)

	var buf bytes.Buffer
	if err := tpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		log.Error().Err(err).Str("page", page).Msg("Error rendering template")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// redirect stores flashes for the next page and sends a 303.
func (rd *Renderer) redirect(w http.ResponseWriter, r *http.Request, url string, flashes ...models.Flash) {
	if len(flashes) > 0 {
		if err := rd.sessions.AddFlash(w, r, flashes...); err != nil {
			log.Error().Err(err).Msg("Failed to save flash message")
		}
	}
	http.Redirect(w, r, url, http.StatusSeeOther)
}
