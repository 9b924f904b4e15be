package theme

import "testing"

func newTestController(sysDark bool) (*Controller, *memStorage, *fakeSystem, *Document) {
	storage := newMemStorage()
	sys := newFakeSystem(sysDark)
	doc := NewDocument()
	c := NewController(New(storage, sys, doc))
	return c, storage, sys, doc
}

func TestControllerInitialState(t *testing.T) {
	c, _, _, doc := newTestController(true)
	defer c.Close()

	st := c.State()
	if st.Preference != PreferenceSystem {
		t.Errorf("Preference = %q, want system", st.Preference)
	}
	if st.Theme != Dark || st.System != Dark {
		t.Errorf("Theme/System = %q/%q, want dark/dark", st.Theme, st.System)
	}
	if !doc.Dark() {
		t.Error("initial theme was not applied to the surface")
	}
}

func TestControllerSetPreference(t *testing.T) {
	c, storage, _, doc := newTestController(true)
	defer c.Close()

	var notified []State
	cancel := c.Subscribe(func(s State) { notified = append(notified, s) })
	defer cancel()

	c.SetPreference(PreferenceLight)

	st := c.State()
	if st.Preference != PreferenceLight || st.Theme != Light {
		t.Errorf("state = %+v, want explicit light", st)
	}
	if doc.Dark() {
		t.Error("surface still dark after SetPreference(light)")
	}
	if raw, _ := storage.Get(StorageKey); raw != "light" {
		t.Errorf("stored preference = %q, want light", raw)
	}
	if len(notified) != 1 || notified[0].Theme != Light {
		t.Errorf("subscriber notifications = %+v, want one light notification", notified)
	}
}

func TestControllerSystemChangeWhileFollowing(t *testing.T) {
	c, _, sys, doc := newTestController(false)
	defer c.Close()

	var notified []State
	cancel := c.Subscribe(func(s State) { notified = append(notified, s) })
	defer cancel()

	sys.flip() // OS goes dark

	st := c.State()
	if st.Theme != Dark || st.System != Dark {
		t.Errorf("state after OS flip = %+v, want dark/dark", st)
	}
	if !doc.Dark() {
		t.Error("surface not re-applied after OS flip")
	}
	if len(notified) != 1 {
		t.Errorf("%d notifications, want 1", len(notified))
	}
}

func TestControllerSystemChangeWithExplicitPreference(t *testing.T) {
	c, _, sys, doc := newTestController(false)
	defer c.Close()

	c.SetPreference(PreferenceLight)

	var notified int
	cancel := c.Subscribe(func(State) { notified++ })
	defer cancel()

	sys.flip() // OS goes dark; explicit light must hold

	st := c.State()
	if st.Theme != Light {
		t.Errorf("Theme = %q, want light despite OS flip", st.Theme)
	}
	if st.System != Dark {
		t.Errorf("System = %q, want dark (still tracked)", st.System)
	}
	if doc.Dark() {
		t.Error("surface went dark despite explicit light preference")
	}
	if notified != 0 {
		t.Errorf("subscribers notified %d times on a no-op change", notified)
	}
}

func TestControllerToggle(t *testing.T) {
	c, storage, _, _ := newTestController(true) // system dark, pref system

	// Toggle acts on the resolved theme: dark now, so toggling goes light.
	c.Toggle()
	if st := c.State(); st.Preference != PreferenceLight || st.Theme != Light {
		t.Fatalf("after first Toggle state = %+v, want explicit light", st)
	}
	if raw, _ := storage.Get(StorageKey); raw != "light" {
		t.Errorf("stored preference = %q, want light", raw)
	}

	c.Toggle()
	if st := c.State(); st.Preference != PreferenceDark || st.Theme != Dark {
		t.Errorf("after second Toggle state = %+v, want explicit dark", st)
	}
	c.Close()
}

func TestControllerSubscribeCancel(t *testing.T) {
	c, _, _, _ := newTestController(false)
	defer c.Close()

	var calls int
	cancel := c.Subscribe(func(State) { calls++ })

	c.SetPreference(PreferenceDark)
	cancel()
	cancel() // second cancel is harmless
	c.SetPreference(PreferenceLight)

	if calls != 1 {
		t.Errorf("subscriber ran %d times, want 1", calls)
	}
}

func TestControllerCloseStopsWatching(t *testing.T) {
	c, _, sys, _ := newTestController(false)

	c.Close()
	c.Close() // idempotent

	if sys.watcherCount() != 0 {
		t.Fatal("system watcher still registered after Close")
	}

	var notified int
	c.Subscribe(func(State) { notified++ })
	sys.flip()
	if notified != 0 {
		t.Error("controller reacted to OS change after Close")
	}

	// Setters still work after Close.
	c.SetPreference(PreferenceDark)
	if st := c.State(); st.Theme != Dark {
		t.Errorf("SetPreference after Close: Theme = %q, want dark", st.Theme)
	}
}

func TestControllerRestoresSavedPreference(t *testing.T) {
	storage := newMemStorage()
	storage.Set(StorageKey, "dark")
	c := NewController(New(storage, newFakeSystem(false), NewDocument()))
	defer c.Close()

	st := c.State()
	if st.Preference != PreferenceDark || st.Theme != Dark {
		t.Errorf("state = %+v, want restored explicit dark", st)
	}
}
