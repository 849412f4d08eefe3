package sync

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/Krimson/icu-transfer/dashboard/internal/eventbus"
	"github.com/Krimson/icu-transfer/dashboard/internal/transport"
	"github.com/Krimson/icu-transfer/pkg/models"
)

// fakeClient отдает фиксированные коллекции и считает обращения
type fakeClient struct {
	patients []models.Patient
	requests []models.TransferRequest

	patientCalls int64
	requestCalls int64

	patientsErr error
	requestsErr error
}

func (f *fakeClient) ListPatients(ctx context.Context) ([]models.Patient, error) {
	atomic.AddInt64(&f.patientCalls, 1)
	if f.patientsErr != nil {
		return nil, f.patientsErr
	}
	out := make([]models.Patient, len(f.patients))
	copy(out, f.patients)
	return out, nil
}

func (f *fakeClient) ListTransferRequests(ctx context.Context) ([]models.TransferRequest, error) {
	atomic.AddInt64(&f.requestCalls, 1)
	if f.requestsErr != nil {
		return nil, f.requestsErr
	}
	out := make([]models.TransferRequest, len(f.requests))
	copy(out, f.requests)
	return out, nil
}

func icuPatient(id string) models.Patient {
	return models.Patient{
		ID:   id,
		Name: "Test Patient",
		Age:  60,
		Vitals: models.Vitals{
			HeartRate:       80,
			SpO2:            97,
			RespiratoryRate: 15,
			SystolicBP:      120,
			GCS:             15,
			Lactate:         1.1,
		},
	}
}

func vitalsEvent(patientID string, hr float64) *transport.Event {
	return &transport.Event{
		Type: transport.EventVitalsUpdate,
		Vitals: &models.VitalsUpdate{
			PatientID:       patientID,
			HeartRate:       hr,
			SpO2:            95,
			RespiratoryRate: 17,
			SystolicBP:      115,
			Lactate:         1.3,
			GCS:             15,
		},
	}
}

func TestVitalsUpdate_PatchesInPlaceWithoutRefetch(t *testing.T) {
	bus := eventbus.New()
	fake := &fakeClient{patients: []models.Patient{icuPatient("ICU-001")}}
	coord := New(bus, fake)

	if err := coord.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	listCallsAfterRefresh := atomic.LoadInt64(&fake.patientCalls)

	bus.Dispatch(string(transport.EventVitalsUpdate), vitalsEvent("ICU-001", 112))

	patients := coord.Patients()
	if len(patients) != 1 {
		t.Fatalf("Expected 1 patient, got %d", len(patients))
	}
	if patients[0].Vitals.HeartRate != 112 {
		t.Errorf("Expected heart rate patched to 112, got %.1f", patients[0].Vitals.HeartRate)
	}
	if patients[0].LastUpdated == nil {
		t.Errorf("Expected lastUpdated stamped on vitals patch")
	}
	if n := atomic.LoadInt64(&fake.patientCalls); n != listCallsAfterRefresh {
		t.Errorf("vitals_update must not trigger a refetch, calls went %d -> %d", listCallsAfterRefresh, n)
	}
}

func TestVitalsUpdate_UnknownPatientIgnored(t *testing.T) {
	bus := eventbus.New()
	fake := &fakeClient{patients: []models.Patient{icuPatient("ICU-001")}}
	coord := New(bus, fake)
	coord.Refresh(context.Background())

	var callbackFired int64
	coord.SetPatientsCallback(func([]models.Patient) {
		atomic.AddInt64(&callbackFired, 1)
	})

	bus.Dispatch(string(transport.EventVitalsUpdate), vitalsEvent("ICU-999", 140))

	if coord.Patients()[0].Vitals.HeartRate != 80 {
		t.Errorf("Known patient must be untouched by unknown patient update")
	}
	if atomic.LoadInt64(&callbackFired) != 0 {
		t.Errorf("Callback must not fire for unknown patient")
	}
}

func TestPatientDischarged_RefetchesBothCollectionsOnce(t *testing.T) {
	bus := eventbus.New()
	fake := &fakeClient{
		patients: []models.Patient{icuPatient("ICU-001")},
		requests: []models.TransferRequest{{ID: "17", PatientID: "ICU-002", Status: models.StatusCompleted}},
	}
	coord := New(bus, fake)

	bus.Dispatch(string(transport.EventPatientDischarged), &transport.Event{
		Type:      transport.EventPatientDischarged,
		Discharge: &transport.DischargeEvent{PatientID: "ICU-002"},
	})

	if n := atomic.LoadInt64(&fake.patientCalls); n != 1 {
		t.Errorf("Expected exactly 1 patients refetch, got %d", n)
	}
	if n := atomic.LoadInt64(&fake.requestCalls); n != 1 {
		t.Errorf("Expected exactly 1 requests refetch, got %d", n)
	}

	notifications := coord.Notifications()
	if len(notifications) != 1 {
		t.Fatalf("Expected discharge notification, got %d", len(notifications))
	}
	if notifications[0].Type != "discharge" || notifications[0].ID == "" {
		t.Errorf("Unexpected notification: %+v", notifications[0])
	}
}

func TestTransferRequestCreated_RefetchesRequestsOnly(t *testing.T) {
	bus := eventbus.New()
	fake := &fakeClient{requests: []models.TransferRequest{{ID: "21", PatientID: "ICU-005", Status: models.StatusPending}}}
	coord := New(bus, fake)

	bus.Dispatch(string(transport.EventTransferRequestCreated), &transport.Event{
		Type:            transport.EventTransferRequestCreated,
		TransferRequest: &models.TransferRequest{ID: "21", PatientID: "ICU-005", Status: models.StatusPending},
	})

	if n := atomic.LoadInt64(&fake.requestCalls); n != 1 {
		t.Errorf("Expected 1 requests refetch, got %d", n)
	}
	if n := atomic.LoadInt64(&fake.patientCalls); n != 0 {
		t.Errorf("transfer_request_created must not touch patients, got %d refetches", n)
	}

	requests := coord.TransferRequests()
	if len(requests) != 1 || requests[0].ID != "21" {
		t.Errorf("Expected request 21 in snapshot, got %+v", requests)
	}
}

func TestCallbackSlot_LastWriterWins(t *testing.T) {
	bus := eventbus.New()
	fake := &fakeClient{patients: []models.Patient{icuPatient("ICU-001")}}
	coord := New(bus, fake)

	var first, second int64
	coord.SetPatientsCallback(func([]models.Patient) { atomic.AddInt64(&first, 1) })
	coord.SetPatientsCallback(func([]models.Patient) { atomic.AddInt64(&second, 1) })

	bus.Dispatch(string(transport.EventPatientUpdated), &transport.Event{Type: transport.EventPatientUpdated})

	if atomic.LoadInt64(&first) != 0 {
		t.Errorf("Replaced callback must not fire")
	}
	if atomic.LoadInt64(&second) != 1 {
		t.Errorf("Expected current callback to fire once, got %d", atomic.LoadInt64(&second))
	}
}

func TestFailedRefetch_LoggedWithoutRetry(t *testing.T) {
	bus := eventbus.New()
	fake := &fakeClient{
		patients:    []models.Patient{icuPatient("ICU-001")},
		patientsErr: errors.New("backend unavailable"),
	}
	coord := New(bus, fake)

	bus.Dispatch(string(transport.EventPatientUpdated), &transport.Event{Type: transport.EventPatientUpdated})

	if n := atomic.LoadInt64(&fake.patientCalls); n != 1 {
		t.Errorf("Failed refetch must not be retried, got %d calls", n)
	}
	if len(coord.Patients()) != 0 {
		t.Errorf("Snapshot must stay unchanged after failed refetch")
	}

	// Следующее событие снова пробует один раз
	fake.patientsErr = nil
	bus.Dispatch(string(transport.EventPatientUpdated), &transport.Event{Type: transport.EventPatientUpdated})
	if len(coord.Patients()) != 1 {
		t.Errorf("Expected snapshot recovered on next event")
	}
}

func TestNotifications_ClearByIDAndAll(t *testing.T) {
	bus := eventbus.New()
	coord := New(bus, &fakeClient{})

	coord.addNotification("transfer_request", "A", "first")
	coord.addNotification("transfer_request", "B", "second")

	notifications := coord.Notifications()
	if len(notifications) != 2 {
		t.Fatalf("Expected 2 notifications, got %d", len(notifications))
	}

	coord.ClearNotification(notifications[0].ID)
	remaining := coord.Notifications()
	if len(remaining) != 1 || remaining[0].Message != "second" {
		t.Errorf("Expected only second notification left, got %+v", remaining)
	}

	coord.ClearNotifications()
	if len(coord.Notifications()) != 0 {
		t.Errorf("Expected all notifications cleared")
	}
}
