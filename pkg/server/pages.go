package server

import (
	"net/http"
	"strings"

	"github.com/go-logr/logr"
	"github.com/gorilla/mux"
	"github.com/paragor/answer-store/pkg/page"
)

type pageHandlers struct {
	logr.Logger

	engine *page.Engine
	view   page.View
}

func (h *pageHandlers) addHandlers(r *mux.Router) {
	r.HandleFunc("/", h.render("Deployment Assignment", true)).Methods(http.MethodGet)
	r.HandleFunc("/answer", h.render("Answer Page", false)).Methods(http.MethodGet)
}

// addFallback must be registered last. The path check comes first so that
// unknown API paths never reach the method matcher and stay 404/405.
func (h *pageHandlers) addFallback(r *mux.Router) {
	r.MatcherFunc(outsideAPI).
		Methods(http.MethodGet).
		HandlerFunc(h.render("Answer Page", false))
}

func outsideAPI(r *http.Request, _ *mux.RouteMatch) bool {
	return r.URL.Path != APIPrefix && !strings.HasPrefix(r.URL.Path, APIPrefix+"/")
}

func (h *pageHandlers) render(title string, withForm bool) http.HandlerFunc {
	view := h.view
	view.Title = title
	view.WithForm = withForm

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := h.engine.Render(w, view); err != nil {
			h.Error(err, "rendering page", "path", r.URL.Path)
			http.Error(w, msgInternal, http.StatusInternalServerError)
		}
	}
}
