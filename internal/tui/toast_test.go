package tui

import (
	"testing"
	"time"

	"github.com/Joseda-hg/listkeeper/internal/clock"
	"github.com/Joseda-hg/listkeeper/internal/flash"
)

func TestToastExpiresAfterDuration(t *testing.T) {
	clk := clock.Fake(time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC))
	changes := 0
	tt := newToast(clk, func() { changes++ })

	tt.show(flash.Success("List created successfully."))
	clk.Advance(toastDuration - time.Millisecond)
	if tt.current().Success == "" {
		t.Fatalf("expected toast visible before 3000ms")
	}
	clk.Advance(time.Millisecond)
	if !tt.current().Empty() {
		t.Fatalf("expected toast dismissed at 3000ms")
	}
	if changes != 2 {
		t.Fatalf("expected show and dismiss notifications, got %d", changes)
	}
}

func TestToastReplacementRestartsTimer(t *testing.T) {
	clk := clock.Fake(time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC))
	tt := newToast(clk, nil)

	tt.show(flash.Success("first"))
	clk.Advance(2 * time.Second)
	tt.show(flash.Error("second"))

	clk.Advance(1500 * time.Millisecond)
	if msg := tt.current(); msg.Error != "second" {
		t.Fatalf("expected replacement to survive the first timer, got %+v", msg)
	}
	clk.Advance(1500 * time.Millisecond)
	if !tt.current().Empty() {
		t.Fatalf("expected replacement dismissed 3000ms after it appeared")
	}
	if clk.Pending() != 0 {
		t.Fatalf("expected no pending timers, got %d", clk.Pending())
	}
}

func TestToastStopCancelsTimer(t *testing.T) {
	clk := clock.Fake(time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC))
	fired := 0
	tt := newToast(clk, func() { fired++ })

	tt.show(flash.Success("bye"))
	tt.stop()
	if clk.Pending() != 0 {
		t.Fatalf("expected timer cancelled on stop")
	}
	clk.Advance(toastDuration)
	if fired != 1 {
		t.Fatalf("expected no callback after stop, got %d notifications", fired)
	}

	tt.show(flash.Message{})
	if !tt.current().Empty() || fired != 1 {
		t.Fatalf("expected empty message to be ignored")
	}
}
