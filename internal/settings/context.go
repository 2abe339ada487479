package settings

import (
	"errors"
	"sync"

	"github.com/verte-zerg/cwkeyer/internal/model"
)

// Context is the process-wide settings record. Components read snapshots
// and write through it; nothing reaches storage until Commit.
type Context struct {
	mu    sync.Mutex
	path  string
	cur   model.Settings
	dirty bool
}

// NewContext returns a context holding defaults, backed by path.
func NewContext(path string, defaults model.Settings) *Context {
	return &Context{path: path, cur: defaults}
}

// Open builds a context and loads path over the defaults. A missing or
// unreadable document is not fatal: the returned error is ErrNotFound or
// a *ParseError and the context keeps its defaults.
func Open(path string) (*Context, error) {
	c := NewContext(path, model.DefaultSettings())
	return c, c.Reload()
}

// Path returns the backing document path.
func (c *Context) Path() string {
	return c.path
}

// Reload replaces the record with the stored document.
func (c *Context) Reload() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	next := c.cur
	if err := LoadInto(c.path, &next); err != nil {
		return err
	}
	next.PotActivated = c.cur.PotActivated
	c.cur = next
	c.dirty = false
	return nil
}

// Snapshot returns a copy of the current record.
func (c *Context) Snapshot() model.Settings {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cur
}

// Update applies fn to the record under the lock and marks it dirty.
func (c *Context) Update(fn func(*model.Settings)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(&c.cur)
	c.dirty = true
}

// Apply sets one field by document key.
func (c *Context) Apply(key string, value int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := Apply(&c.cur, key, value); err != nil {
		return err
	}
	c.dirty = true
	return nil
}

// SetWPM changes the keying speed.
func (c *Context) SetWPM(wpm int) {
	c.Update(func(s *model.Settings) { s.WPM = wpm })
}

// SetPotActivated records that a potentiometer is fitted. The flag is
// not persisted, so it does not dirty the record.
func (c *Context) SetPotActivated(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cur.PotActivated = on
}

// PotActivated reports whether the potentiometer is in use.
func (c *Context) PotActivated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cur.PotActivated
}

// Dirty reports whether the record changed since the last commit or load.
func (c *Context) Dirty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dirty
}

// Commit saves the record when it is dirty and returns the saved
// document, or nil when nothing needed saving. On a *WriteError the record
// stays dirty so the caller may retry.
func (c *Context) Commit() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.dirty {
		return nil, nil
	}
	if c.path == "" {
		return nil, &WriteError{Path: c.path, Err: errors.New("no settings path")}
	}
	if err := Save(c.path, c.cur); err != nil {
		return nil, err
	}
	c.dirty = false
	return Marshal(c.cur)
}
