package snippets

import (
	"sync"
	"time"

	"vsd/internal/providers"
)

// Debouncer coalesces draft edits per snippet: each edit restarts the
// window, and the latest text is committed once the window elapses with no
// further edits. FlushID and FlushAll commit pending text immediately, so
// the final edit is never lost to an in-flight timer.
type Debouncer struct {
	window time.Duration
	commit func(id int64, text string) error
	logger providers.Logger

	mu      sync.Mutex
	seq     uint64
	pending map[int64]string
	timers  map[int64]*time.Timer
	gens    map[int64]uint64
}

func NewDebouncer(window time.Duration, commit func(id int64, text string) error, logger providers.Logger) *Debouncer {
	return &Debouncer{
		window:  window,
		commit:  commit,
		logger:  logger,
		pending: make(map[int64]string),
		timers:  make(map[int64]*time.Timer),
		gens:    make(map[int64]uint64),
	}
}

// Edit records text as the pending draft for id and restarts its window.
// Each restart advances the generation: a timer whose Stop lost the race
// because its callback was already blocked on the lock sees a stale
// generation in fire and commits nothing.
func (d *Debouncer) Edit(id int64, text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seq++
	gen := d.seq
	d.pending[id] = text
	d.gens[id] = gen
	if t, ok := d.timers[id]; ok {
		t.Stop()
	}
	d.timers[id] = time.AfterFunc(d.window, func() { d.fire(id, gen) })
}

func (d *Debouncer) fire(id int64, gen uint64) {
	d.mu.Lock()
	if d.gens[id] != gen {
		d.mu.Unlock()
		return
	}
	text, ok := d.pending[id]
	delete(d.pending, id)
	delete(d.timers, id)
	delete(d.gens, id)
	d.mu.Unlock()
	if !ok {
		return
	}
	if err := d.commit(id, text); err != nil {
		d.logger.Errorf(providers.TypeApp, "Autosave of snippet %d failed: %s", id, err)
	}
}

// FlushID commits the pending draft for id synchronously, if any.
func (d *Debouncer) FlushID(id int64) error {
	d.mu.Lock()
	text, ok := d.pending[id]
	delete(d.pending, id)
	delete(d.gens, id)
	if t, found := d.timers[id]; found {
		t.Stop()
		delete(d.timers, id)
	}
	d.mu.Unlock()
	if !ok {
		return nil
	}
	return d.commit(id, text)
}

// Cancel discards any pending draft for id without committing it.
func (d *Debouncer) Cancel(id int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.pending, id)
	delete(d.gens, id)
	if t, ok := d.timers[id]; ok {
		t.Stop()
		delete(d.timers, id)
	}
}

// FlushAll commits every pending draft. The first error is returned, the
// rest are logged.
func (d *Debouncer) FlushAll() error {
	d.mu.Lock()
	ids := make([]int64, 0, len(d.pending))
	for id := range d.pending {
		ids = append(ids, id)
	}
	d.mu.Unlock()

	var firstErr error
	for _, id := range ids {
		if err := d.FlushID(id); err != nil {
			if firstErr == nil {
				firstErr = err
			} else {
				d.logger.Errorf(providers.TypeApp, "Flush of snippet %d failed: %s", id, err)
			}
		}
	}
	return firstErr
}
