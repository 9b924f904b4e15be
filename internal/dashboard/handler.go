// Package dashboard serves the embedded web shell. The index page is a
// template rendered per request with the resolved theme, so the correct
// palette is in place before the first paint; static assets come from the
// embedded filesystem, and unknown paths fall back to the shell for
// client-side routing.
package dashboard

import (
	"html/template"
	"io/fs"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/studyhallhq/studyhall/pkg/theme"
)

// DocumentSource resolves the theme document to render for a request.
// Wired to the appearance module; nil renders the built-in light theme.
type DocumentSource interface {
	DocumentFor(r *http.Request) *theme.Document
}

// shellData is the template model for index.html.
type shellData struct {
	RootClass   string
	ColorScheme string
	StyleBlock  template.CSS
}

// Handler serves the shell and its assets.
type Handler struct {
	logger    *zap.Logger
	index     *template.Template
	assets    http.Handler
	documents DocumentSource
}

// New creates the dashboard handler over the embedded UI.
func New(logger *zap.Logger, documents DocumentSource) (*Handler, error) {
	sub, err := fs.Sub(uiFS, "ui")
	if err != nil {
		return nil, err
	}
	index, err := template.ParseFS(sub, "index.html")
	if err != nil {
		return nil, err
	}
	return &Handler{
		logger:    logger,
		index:     index,
		assets:    http.FileServer(http.FS(sub)),
		documents: documents,
	}, nil
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Never shadow the API or operational endpoints.
	if strings.HasPrefix(r.URL.Path, "/api/") ||
		r.URL.Path == "/healthz" ||
		r.URL.Path == "/readyz" ||
		r.URL.Path == "/metrics" {
		http.NotFound(w, r)
		return
	}

	// Static assets are served as-is when present.
	if r.URL.Path != "/" && r.URL.Path != "/index.html" {
		if f, err := uiFS.Open("ui" + r.URL.Path); err == nil {
			f.Close()
			h.assets.ServeHTTP(w, r)
			return
		}
	}

	// Everything else gets the themed shell for client-side routing.
	h.renderShell(w, r)
}

func (h *Handler) renderShell(w http.ResponseWriter, r *http.Request) {
	doc := h.document(r)
	data := shellData{
		RootClass:   doc.RootClass(),
		ColorScheme: doc.ColorScheme(),
		StyleBlock:  template.CSS(doc.StyleBlock()),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := h.index.Execute(w, data); err != nil {
		h.logger.Warn("failed to render shell", zap.Error(err))
	}
}

func (h *Handler) document(r *http.Request) *theme.Document {
	if h.documents != nil {
		return h.documents.DocumentFor(r)
	}
	doc := theme.NewDocument()
	theme.New(nil, nil, doc).Initialize()
	return doc
}
