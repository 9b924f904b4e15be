package appearance

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/studyhallhq/studyhall/pkg/theme"
)

func newTestModule(t *testing.T) (*Module, *http.ServeMux) {
	t.Helper()
	m := &Module{
		logger: zap.NewNop(),
		cfg:    DefaultConfig(),
	}
	mux := http.NewServeMux()
	for _, route := range m.Routes() {
		mux.HandleFunc(fmt.Sprintf("%s /api/v1/appearance%s", route.Method, route.Path), route.Handler)
	}
	m.RegisterRoutes(mux)
	return m, mux
}

func do(mux *http.ServeMux, method, path, body string, mutate func(*http.Request)) *httptest.ResponseRecorder {
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, http.NoBody)
	} else {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	if mutate != nil {
		mutate(r)
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, r)
	return w
}

func decodeState(t *testing.T, w *httptest.ResponseRecorder) AppearanceState {
	t.Helper()
	var st AppearanceState
	if err := json.Unmarshal(w.Body.Bytes(), &st); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	return st
}

func withHint(value string) func(*http.Request) {
	return func(r *http.Request) {
		r.Header.Set(clientHintHeader, value)
	}
}

func withCookie(value string) func(*http.Request) {
	return func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: theme.StorageKey, Value: value})
	}
}

func TestGetAppearance_Defaults(t *testing.T) {
	_, mux := newTestModule(t)

	w := do(mux, "GET", "/api/v1/appearance", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	st := decodeState(t, w)
	if st.Preference != theme.PreferenceSystem || st.Resolved != theme.Light || st.System != theme.Light {
		t.Fatalf("unexpected state %+v", st)
	}
	if got := w.Header().Get("Accept-CH"); got != clientHintHeader {
		t.Errorf("Accept-CH = %q", got)
	}
	if got := w.Header().Get("Vary"); got != clientHintHeader {
		t.Errorf("Vary = %q", got)
	}
}

func TestGetAppearance_ClientHint(t *testing.T) {
	_, mux := newTestModule(t)

	st := decodeState(t, do(mux, "GET", "/api/v1/appearance", "", withHint("dark")))
	if st.System != theme.Dark || st.Resolved != theme.Dark {
		t.Fatalf("dark hint state %+v", st)
	}

	// An explicit cookie wins over the hint.
	st = decodeState(t, do(mux, "GET", "/api/v1/appearance", "", func(r *http.Request) {
		withHint("dark")(r)
		withCookie("light")(r)
	}))
	if st.Preference != theme.PreferenceLight || st.Resolved != theme.Light || st.System != theme.Dark {
		t.Fatalf("cookie over hint state %+v", st)
	}
}

func TestGetAppearance_GarbageCookie(t *testing.T) {
	_, mux := newTestModule(t)

	st := decodeState(t, do(mux, "GET", "/api/v1/appearance", "", withCookie("purple")))
	if st.Preference != theme.PreferenceSystem || st.Resolved != theme.Light {
		t.Fatalf("garbage cookie state %+v", st)
	}
}

func TestPutAppearance(t *testing.T) {
	_, mux := newTestModule(t)

	w := do(mux, "PUT", "/api/v1/appearance", `{"preference":"dark"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d, body %s", w.Code, w.Body.String())
	}
	st := decodeState(t, w)
	if st.Preference != theme.PreferenceDark || st.Resolved != theme.Dark {
		t.Fatalf("state %+v", st)
	}

	cookies := w.Result().Cookies()
	var found *http.Cookie
	for _, c := range cookies {
		if c.Name == theme.StorageKey {
			found = c
		}
	}
	if found == nil || found.Value != "dark" {
		t.Fatalf("preference cookie not set: %+v", cookies)
	}
	if found.MaxAge <= 0 {
		t.Errorf("cookie max age = %d", found.MaxAge)
	}

	if w := do(mux, "PUT", "/api/v1/appearance", `{"preference":"purple"}`, nil); w.Code != http.StatusBadRequest {
		t.Errorf("invalid preference: status %d", w.Code)
	}
	if w := do(mux, "PUT", "/api/v1/appearance", `not json`, nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad body: status %d", w.Code)
	}
}

func TestResetAppearance(t *testing.T) {
	_, mux := newTestModule(t)

	w := do(mux, "DELETE", "/api/v1/appearance", "", withCookie("dark"))
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	st := decodeState(t, w)
	if st.Preference != theme.PreferenceSystem {
		t.Fatalf("state %+v", st)
	}

	var cleared bool
	for _, c := range w.Result().Cookies() {
		if c.Name == theme.StorageKey && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Fatalf("preference cookie not cleared")
	}
}

func TestThemeCSS(t *testing.T) {
	_, mux := newTestModule(t)

	w := do(mux, "GET", "/appearance/theme.css", "", withCookie("dark"))
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/css") {
		t.Errorf("content type = %q", ct)
	}
	if cc := w.Header().Get("Cache-Control"); cc != "no-store" {
		t.Errorf("cache control = %q", cc)
	}
	css := w.Body.String()
	if !strings.Contains(css, "color-scheme: dark;") {
		t.Errorf("expected dark scheme, got %q", css)
	}
	if !strings.Contains(css, "--background:") {
		t.Errorf("expected background variable, got %q", css)
	}
}

type fixedPalettes struct {
	palette theme.Palette
}

func (f fixedPalettes) ActivePalette(context.Context, theme.Theme) theme.Palette {
	return f.palette
}

func TestThemeCSS_CustomPalette(t *testing.T) {
	m, mux := newTestModule(t)
	custom := make(theme.Palette, len(theme.LightPalette))
	for role, value := range theme.LightPalette {
		custom[role] = value
	}
	custom[theme.RolePrimary] = "#123456"
	m.SetPaletteProvider(fixedPalettes{palette: custom})

	w := do(mux, "GET", "/appearance/theme.css", "", nil)
	if !strings.Contains(w.Body.String(), "--primary: #123456;") {
		t.Fatalf("custom palette not rendered: %q", w.Body.String())
	}
}
