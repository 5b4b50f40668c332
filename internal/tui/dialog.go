package tui

import (
	"errors"

	"github.com/Joseda-hg/listkeeper/internal/client"
	"github.com/Joseda-hg/listkeeper/internal/model"
)

type dialogState int

const (
	dialogIdle dialogState = iota
	dialogCreating
	dialogEditing
	dialogSubmitting
)

func (s dialogState) String() string {
	switch s {
	case dialogCreating:
		return "creating"
	case dialogEditing:
		return "editing"
	case dialogSubmitting:
		return "submitting"
	default:
		return "idle"
	}
}

type outcome int

const (
	// outcomeIgnored: the response belongs to a closed or reopened dialog.
	outcomeIgnored outcome = iota
	outcomeSaved
	outcomeInvalid
	outcomeFailed
	outcomeGone
)

// phase is the open dialog's state. A nil phase is Idle; only the variants
// below implement it, so an edit target exists exactly while editing.
type phase interface {
	state() dialogState
}

type creating struct{}

type editing struct {
	id int64
}

// submitting remembers the phase to return to when the save is rejected.
type submitting struct {
	from phase
}

func (creating) state() dialogState { return dialogCreating }
func (editing) state() dialogState { return dialogEditing }
func (submitting) state() dialogState { return dialogSubmitting }

// submission is the frozen copy of a form handed to the backend.
type submission[F any] struct {
	gen     uint64
	id      int64
	editing bool
	form    F
}

// dialog is the create/edit state machine for one entity form. F must be a
// value type so snapshots never alias the entity they were taken from.
type dialog[F any] struct {
	phase phase
	form  F
	errs  model.FieldErrors
	gen   uint64
}

func (d *dialog[F]) state() dialogState {
	if d.phase == nil {
		return dialogIdle
	}
	return d.phase.state()
}

// target is the id of the entity being edited, or 0 when creating or idle.
func (d *dialog[F]) target() int64 {
	p := d.phase
	if s, ok := p.(submitting); ok {
		p = s.from
	}
	if e, ok := p.(editing); ok {
		return e.id
	}
	return 0
}

func (d *dialog[F]) openCreate(defaults F) bool {
	return d.start(creating{}, defaults)
}

func (d *dialog[F]) openEdit(id int64, snapshot F) bool {
	return d.start(editing{id: id}, snapshot)
}

func (d *dialog[F]) start(p phase, form F) bool {
	if d.phase != nil {
		return false
	}
	d.gen++
	d.phase = p
	d.form = form
	d.errs = nil
	return true
}

func (d *dialog[F]) open() bool {
	return d.phase != nil
}

func (d *dialog[F]) canSubmit() bool {
	switch d.phase.(type) {
	case creating, editing:
		return true
	}
	return false
}

// edit mutates the form buffer. The buffer is frozen while submitting.
func (d *dialog[F]) edit(fn func(*F)) bool {
	if !d.canSubmit() {
		return false
	}
	fn(&d.form)
	return true
}

// submit moves to Submitting and returns the form to send. It refuses while
// a submission is already in flight.
func (d *dialog[F]) submit() (submission[F], bool) {
	if !d.canSubmit() {
		return submission[F]{}, false
	}
	sub := submission[F]{gen: d.gen, form: d.form}
	if e, ok := d.phase.(editing); ok {
		sub.id, sub.editing = e.id, true
	}
	d.phase = submitting{from: d.phase}
	d.errs = nil
	return sub, true
}

// resolve applies the result of sub. Validation and transport errors return
// to the previous state with the form intact; a missing entity closes it.
func (d *dialog[F]) resolve(sub submission[F], err error) outcome {
	inFlight, ok := d.phase.(submitting)
	if !ok || sub.gen != d.gen {
		return outcomeIgnored
	}

	var invalid *model.ValidationError
	switch {
	case err == nil:
		d.close()
		return outcomeSaved
	case errors.As(err, &invalid):
		d.phase = inFlight.from
		d.errs = invalid.Fields
		return outcomeInvalid
	case errors.Is(err, client.ErrNotFound):
		d.close()
		return outcomeGone
	default:
		d.phase = inFlight.from
		return outcomeFailed
	}
}

// close discards the form buffer from any state.
func (d *dialog[F]) close() {
	var zero F
	d.gen++
	d.phase = nil
	d.form = zero
	d.errs = nil
}
