package eventbus

import (
	"testing"
)

func TestDispatch_RegistrationOrder(t *testing.T) {
	bus := New()

	var order []int
	bus.Subscribe("vitals_update", func(payload interface{}) { order = append(order, 1) })
	bus.Subscribe("vitals_update", func(payload interface{}) { order = append(order, 2) })
	bus.Subscribe("vitals_update", func(payload interface{}) { order = append(order, 3) })

	bus.Dispatch("vitals_update", nil)

	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Errorf("Expected calls in registration order [1 2 3], got %v", order)
	}
}

func TestDispatch_NoSubscribersIsSilent(t *testing.T) {
	bus := New()
	// Не должно паниковать и не должно буферизовать
	bus.Dispatch("patient_updated", map[string]string{"id": "ICU-001"})

	called := false
	bus.Subscribe("patient_updated", func(payload interface{}) { called = true })
	if called {
		t.Errorf("Late subscriber must not receive earlier events")
	}
}

func TestDispatch_PanicIsolation(t *testing.T) {
	bus := New()

	var called []string
	bus.Subscribe("transfer_request_updated", func(payload interface{}) {
		called = append(called, "first")
		panic("subscriber failure")
	})
	bus.Subscribe("transfer_request_updated", func(payload interface{}) {
		called = append(called, "second")
	})

	bus.Dispatch("transfer_request_updated", nil)

	if len(called) != 2 || called[1] != "second" {
		t.Errorf("Expected second subscriber to run after first panicked, got %v", called)
	}
}

func TestDispatch_PayloadDelivered(t *testing.T) {
	bus := New()

	var got interface{}
	bus.Subscribe("patient_discharged", func(payload interface{}) { got = payload })

	payload := map[string]interface{}{"request_id": 42}
	bus.Dispatch("patient_discharged", payload)

	m, ok := got.(map[string]interface{})
	if !ok || m["request_id"] != 42 {
		t.Errorf("Expected payload to be delivered unchanged, got %v", got)
	}
}

func TestUnsubscribe_RemovesFirstMatch(t *testing.T) {
	bus := New()

	count := 0
	fn := func(payload interface{}) { count++ }

	// Дубликаты разрешены
	bus.Subscribe("vitals_update", fn)
	bus.Subscribe("vitals_update", fn)
	if n := bus.SubscriberCount("vitals_update"); n != 2 {
		t.Fatalf("Expected 2 subscribers, got %d", n)
	}

	bus.Unsubscribe("vitals_update", fn)
	if n := bus.SubscriberCount("vitals_update"); n != 1 {
		t.Errorf("Expected 1 subscriber after unsubscribe, got %d", n)
	}

	bus.Dispatch("vitals_update", nil)
	if count != 1 {
		t.Errorf("Expected remaining subscriber to be called once, got %d", count)
	}
}

func TestUnsubscribe_UnknownCallbackIsNoop(t *testing.T) {
	bus := New()
	bus.Subscribe("vitals_update", func(payload interface{}) {})
	bus.Unsubscribe("vitals_update", func(payload interface{}) {})
	if n := bus.SubscriberCount("vitals_update"); n != 1 {
		t.Errorf("Expected subscriber list untouched, got %d", n)
	}
}
