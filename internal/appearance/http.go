package appearance

import (
	"net/http"

	"github.com/studyhallhq/studyhall/pkg/theme"
)

// clientHintHeader is the client hint carrying the OS color scheme.
const clientHintHeader = "Sec-CH-Prefers-Color-Scheme"

// cookieStorage backs theme.Storage with a request cookie for reads and a
// Set-Cookie response header for writes.
type cookieStorage struct {
	w   http.ResponseWriter
	r   *http.Request
	cfg Config
}

func newCookieStorage(w http.ResponseWriter, r *http.Request, cfg Config) cookieStorage {
	return cookieStorage{w: w, r: r, cfg: cfg}
}

func (s cookieStorage) Get(key string) (string, bool) {
	c, err := s.r.Cookie(key)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}

func (s cookieStorage) Set(key, value string) {
	http.SetCookie(s.w, &http.Cookie{
		Name:     key,
		Value:    value,
		Path:     "/",
		MaxAge:   int(s.cfg.CookieMaxAge.Seconds()),
		Secure:   s.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s cookieStorage) Delete(key string) {
	http.SetCookie(s.w, &http.Cookie{
		Name:     key,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Secure:   s.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// readOnlyCookies reads the preference cookie without a response to write
// to. Used when rendering the shell, where only resolution matters.
type readOnlyCookies struct {
	r *http.Request
}

func (s readOnlyCookies) Get(key string) (string, bool) {
	c, err := s.r.Cookie(key)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}

func (s readOnlyCookies) Set(string, string) {}
func (s readOnlyCookies) Delete(string)      {}

// clientHintSource backs theme.SystemSource with the color-scheme client
// hint. A request without the hint reads as unknown, and there is nothing
// to watch over HTTP.
type clientHintSource struct {
	r *http.Request
}

func (s clientHintSource) PrefersDark() (bool, bool) {
	switch s.r.Header.Get(clientHintHeader) {
	case "dark":
		return true, true
	case "light":
		return false, true
	default:
		return false, false
	}
}

func (s clientHintSource) Watch(func(theme.Theme)) (cancel func()) {
	return func() {}
}

// setClientHintHeaders asks the browser to send the color-scheme hint on
// subsequent requests and keeps caches honest about the dependency.
func setClientHintHeaders(w http.ResponseWriter) {
	w.Header().Add("Accept-CH", clientHintHeader)
	w.Header().Add("Vary", clientHintHeader)
}
