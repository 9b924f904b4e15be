package theme

import "sync"

// State is a snapshot of a controller's appearance state.
type State struct {
	Preference Preference `json:"preference"`
	Theme      Theme      `json:"theme"`  // resolved, never "system"
	System     Theme      `json:"system"` // what the OS currently asks for
}

// Controller owns mutable appearance state for a long-lived surface such as
// the preview CLI. All mutation goes through its setters; reads return value
// snapshots. It initializes the engine on construction and keeps following
// the OS while the preference is "system".
type Controller struct {
	mu      sync.Mutex
	engine  *Engine
	state   State
	subs    map[int]func(State)
	nextSub int
	stop    func()
}

// NewController initializes the engine (applying the startup theme) and
// starts watching the system source. Callers should Close the controller
// when done with it.
func NewController(engine *Engine) *Controller {
	c := &Controller{
		engine: engine,
		subs:   make(map[int]func(State)),
	}
	pref := PreferenceSystem
	if p, ok := engine.Saved(); ok {
		pref = p
	}
	c.state = State{
		Preference: pref,
		Theme:      engine.Initialize(),
		System:     engine.SystemTheme(),
	}
	c.stop = engine.OnSystemChange(c.systemChanged)
	return c
}

// State returns the current snapshot.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SetPreference saves and applies a preference, then notifies subscribers.
func (c *Controller) SetPreference(p Preference) {
	c.mu.Lock()
	c.state.Preference = p
	c.state.System = c.engine.SystemTheme()
	c.state.Theme = c.engine.Resolve(p)
	c.engine.Save(p)
	c.engine.Apply(c.state.Theme)
	subs, st := c.snapshotLocked()
	c.mu.Unlock()

	for _, fn := range subs {
		fn(st)
	}
}

// Toggle flips between light and dark based on the currently resolved
// theme. A "system" preference becomes the explicit opposite of whatever is
// showing right now.
func (c *Controller) Toggle() {
	c.mu.Lock()
	next := PreferenceDark
	if c.state.Theme == Dark {
		next = PreferenceLight
	}
	c.mu.Unlock()
	c.SetPreference(next)
}

// Subscribe registers fn to run after every state change. The returned
// cancel is safe to call more than once.
func (c *Controller) Subscribe(fn func(State)) (cancel func()) {
	if fn == nil {
		return func() {}
	}
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

// Close stops watching the system source. Idempotent. The controller's
// setters keep working afterwards; only OS changes stop arriving.
func (c *Controller) Close() {
	c.mu.Lock()
	stop := c.stop
	c.stop = nil
	c.mu.Unlock()
	if stop != nil {
		stop()
	}
}

// systemChanged is the Watch callback: it re-resolves and re-applies only
// while the active preference is "system". Explicit preferences just record
// the new OS theme without notifying anyone.
func (c *Controller) systemChanged(t Theme) {
	c.mu.Lock()
	c.state.System = t
	if c.state.Preference != PreferenceSystem || c.state.Theme == t {
		c.mu.Unlock()
		return
	}
	c.state.Theme = t
	c.engine.Apply(t)
	subs, st := c.snapshotLocked()
	c.mu.Unlock()

	for _, fn := range subs {
		fn(st)
	}
}

// snapshotLocked copies the subscriber list and state so callbacks run
// without holding the lock. Callers must hold c.mu.
func (c *Controller) snapshotLocked() ([]func(State), State) {
	subs := make([]func(State), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	return subs, c.state
}
