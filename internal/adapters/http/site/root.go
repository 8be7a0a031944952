// Package site serves the embedded landing page.
package site

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
)

// Error constants
var (
	ErrServe = errors.New("site serve failed")
)

// Register attaches the landing page at exactly / so API routes and 404s
// are unaffected.
func Register(_ context.Context, router *mux.Router) {
	if router == nil {
		panic("router is nil")
	}
	router.HandleFunc("/", NewRootHandler().HandleRoot).Methods(http.MethodGet)
}

// RootHandler serves GET /.
type RootHandler struct {
	files http.FileSystem
}

// NewRootHandler creates a new root handler.
func NewRootHandler() *RootHandler {
	return &RootHandler{files: FS()}
}

// HandleRoot writes the embedded index page.
func (h *RootHandler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	f, err := h.files.Open("index.html")
	if err != nil {
		http.Error(w, ErrServe.Error(), http.StatusInternalServerError)
		return
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		http.Error(w, ErrServe.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	http.ServeContent(w, r, "index.html", info.ModTime(), f)
}
