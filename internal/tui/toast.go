package tui

import (
	"sync"
	"time"

	"github.com/Joseda-hg/listkeeper/internal/clock"
	"github.com/Joseda-hg/listkeeper/internal/flash"
)

const toastDuration = 3000 * time.Millisecond

// toast shows one flash message at a time. A newer message replaces the
// visible one and restarts the timer.
type toast struct {
	mu       sync.Mutex
	clock    clock.Clock
	message  flash.Message
	seq      uint64
	timer    clock.Timer
	onChange func()
}

func newToast(c clock.Clock, onChange func()) *toast {
	if c == nil {
		c = clock.Real()
	}
	return &toast{clock: c, onChange: onChange}
}

func (t *toast) show(msg flash.Message) {
	if msg.Empty() {
		return
	}
	t.mu.Lock()
	if t.timer != nil {
		t.timer.Stop()
	}
	t.seq++
	seq := t.seq
	t.message = msg
	t.timer = t.clock.AfterFunc(toastDuration, func() { t.expire(seq) })
	t.mu.Unlock()

	t.changed()
}

func (t *toast) expire(seq uint64) {
	t.mu.Lock()
	if seq != t.seq {
		t.mu.Unlock()
		return
	}
	t.message = flash.Message{}
	t.timer = nil
	t.mu.Unlock()

	t.changed()
}

func (t *toast) current() flash.Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.message
}

// stop cancels the pending dismissal; nothing fires after it returns.
func (t *toast) stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.seq++
	t.message = flash.Message{}
}

func (t *toast) changed() {
	if t.onChange != nil {
		t.onChange()
	}
}
