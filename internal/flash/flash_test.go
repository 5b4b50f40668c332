package flash

import (
	"sync"
	"testing"
)

func TestPopDeliversAtMostOnce(t *testing.T) {
	store := NewStore()
	store.Set("s1", Success("List created."))

	first := store.Pop("s1")
	if first.Success != "List created." || first.Error != "" {
		t.Fatalf("unexpected first pop %+v", first)
	}
	if second := store.Pop("s1"); !second.Empty() {
		t.Fatalf("expected second pop to be empty, got %+v", second)
	}
}

func TestSetReplacesUnconsumedMessage(t *testing.T) {
	store := NewStore()
	store.Set("s1", Success("Task created."))
	store.Set("s1", Error("Task not found."))

	msg := store.Pop("s1")
	if msg.Error != "Task not found." || msg.Success != "" {
		t.Fatalf("expected last message to win, got %+v", msg)
	}
	if !msg.IsError() || msg.Text() != "Task not found." {
		t.Fatalf("unexpected accessors on %+v", msg)
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	store := NewStore()
	store.Set("s1", Success("mine"))
	store.Set("s2", Message{})

	if msg := store.Pop("s2"); !msg.Empty() {
		t.Fatalf("expected other session to see nothing, got %+v", msg)
	}
	if msg := store.Pop("s1"); msg.Success != "mine" {
		t.Fatalf("expected s1 message, got %+v", msg)
	}
}

func TestConcurrentPopDeliversOnce(t *testing.T) {
	store := NewStore()
	store.Set("s1", Success("once"))

	var wg sync.WaitGroup
	var mu sync.Mutex
	delivered := 0
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if !store.Pop("s1").Empty() {
				mu.Lock()
				delivered++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if delivered != 1 {
		t.Fatalf("expected exactly one delivery, got %d", delivered)
	}
}

func TestDeliverSupersedesPendingAndLeavesNothing(t *testing.T) {
	store := NewStore()
	store.Set("s1", Success("List created."))

	msg := store.Deliver("s1", Error("Task not found."))
	if msg.Error != "Task not found." {
		t.Fatalf("expected delivered message, got %+v", msg)
	}
	if left := store.Pop("s1"); !left.Empty() {
		t.Fatalf("expected nothing left after deliver, got %+v", left)
	}

	store.Set("s1", Success("pending"))
	if msg := store.Deliver("s1", Message{}); msg.Success != "pending" {
		t.Fatalf("expected empty deliver to hand out the pending message, got %+v", msg)
	}
}

func TestDeliverIsNotStolenByConcurrentPop(t *testing.T) {
	store := NewStore()

	var wg sync.WaitGroup
	stop := make(chan struct{})
	stolen := make(chan Message, 1)
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			if msg := store.Pop("s1"); !msg.Empty() {
				select {
				case stolen <- msg:
				default:
				}
			}
		}
	}()

	for range 1000 {
		if msg := store.Deliver("s1", Success("Task updated successfully.")); msg.Success != "Task updated successfully." {
			close(stop)
			wg.Wait()
			t.Fatalf("expected the mutation's own message, got %+v", msg)
		}
	}
	close(stop)
	wg.Wait()

	select {
	case msg := <-stolen:
		t.Fatalf("concurrent pop took %+v", msg)
	default:
	}
}
