package workflow

import (
	"errors"
	"testing"
	"time"

	"github.com/Krimson/icu-transfer/pkg/models"
)

func TestTransition_FullApprovalPath(t *testing.T) {
	status := models.StatusPending

	status, err := Transition(status, ActionDoctorApprove)
	if err != nil {
		t.Fatalf("doctor approve failed: %v", err)
	}
	if status != models.StatusDoctorApproved {
		t.Errorf("Expected doctor_approved, got %s", status)
	}

	status, err = Transition(status, ActionAdminApprove)
	if err != nil {
		t.Fatalf("admin approve failed: %v", err)
	}
	if status != models.StatusAdminApproved {
		t.Errorf("Expected admin_approved, got %s", status)
	}

	status, err = Transition(status, ActionDischarge)
	if err != nil {
		t.Fatalf("discharge failed: %v", err)
	}
	if status != models.StatusCompleted {
		t.Errorf("Expected completed, got %s", status)
	}
}

func TestTransition_Illegal(t *testing.T) {
	cases := []struct {
		from   models.RequestStatus
		action Action
	}{
		{models.StatusPending, ActionAdminApprove},   // администратор не может одобрить до врача
		{models.StatusPending, ActionDischarge},      // выписка только после admin_approved
		{models.StatusDoctorApproved, ActionDoctorApprove},
		{models.StatusDoctorRejected, ActionAdminApprove},
		{models.StatusCompleted, ActionDoctorApprove},
		{models.StatusAdminRejected, ActionDischarge},
		{models.StatusRejected, ActionDoctorApprove},
	}

	for _, c := range cases {
		if _, err := Transition(c.from, c.action); !errors.Is(err, ErrIllegalTransition) {
			t.Errorf("Expected ErrIllegalTransition for %s + %s, got %v", c.from, c.action, err)
		}
	}
}

func TestTransition_UnknownAction(t *testing.T) {
	if _, err := Transition(models.StatusPending, Action("escalate")); !errors.Is(err, ErrUnknownAction) {
		t.Errorf("Expected ErrUnknownAction, got %v", err)
	}
}

func TestApplyDoctorApprove_StampsFields(t *testing.T) {
	req := &models.TransferRequest{
		ID:        "req-1",
		PatientID: "ICU-001",
		NurseID:   "nurse-7",
		Status:    models.StatusPending,
		CreatedAt: time.Now().Add(-time.Hour),
		UpdatedAt: time.Now().Add(-time.Hour),
	}
	before := req.UpdatedAt

	if err := ApplyDoctorApprove(req, "doctor-3", "General Ward", "stable overnight"); err != nil {
		t.Fatalf("ApplyDoctorApprove failed: %v", err)
	}

	if req.Status != models.StatusDoctorApproved {
		t.Errorf("Expected doctor_approved, got %s", req.Status)
	}
	if req.DoctorID != "doctor-3" {
		t.Errorf("Expected doctor_id=doctor-3, got %s", req.DoctorID)
	}
	if req.TargetDepartment != "General Ward" {
		t.Errorf("Expected target_department=General Ward, got %s", req.TargetDepartment)
	}
	if !req.UpdatedAt.After(before) {
		t.Errorf("Expected updated_at to move forward")
	}
}

func TestApplyAdminReject_TerminatesRequest(t *testing.T) {
	req := &models.TransferRequest{Status: models.StatusDoctorApproved}

	if err := ApplyAdminReject(req, "admin-1", "no beds available"); err != nil {
		t.Fatalf("ApplyAdminReject failed: %v", err)
	}
	if req.Status != models.StatusAdminRejected {
		t.Errorf("Expected admin_rejected, got %s", req.Status)
	}
	if !IsTerminal(req.Status) {
		t.Errorf("admin_rejected must be terminal")
	}
}

func TestIsTerminal(t *testing.T) {
	terminal := []models.RequestStatus{
		models.StatusDoctorRejected,
		models.StatusAdminRejected,
		models.StatusRejected,
		models.StatusCompleted,
	}
	active := []models.RequestStatus{
		models.StatusPending,
		models.StatusDoctorApproved,
		models.StatusAdminApproved,
	}

	for _, s := range terminal {
		if !IsTerminal(s) {
			t.Errorf("Expected %s to be terminal", s)
		}
		if IsActive(s) {
			t.Errorf("Expected %s to be inactive", s)
		}
	}
	for _, s := range active {
		if IsTerminal(s) {
			t.Errorf("Expected %s to be active", s)
		}
	}
}

func TestActiveRequestForPatient(t *testing.T) {
	requests := []models.TransferRequest{
		{ID: "r1", PatientID: "ICU-001", Status: models.StatusCompleted},
		{ID: "r2", PatientID: "ICU-002", Status: models.StatusPending},
		{ID: "r3", PatientID: "ICU-001", Status: models.StatusDoctorApproved},
	}

	req, ok := ActiveRequestForPatient(requests, "ICU-001")
	if !ok {
		t.Fatalf("Expected active request for ICU-001")
	}
	if req.ID != "r3" {
		t.Errorf("Expected r3, got %s", req.ID)
	}

	if _, ok := ActiveRequestForPatient(requests, "ICU-999"); ok {
		t.Errorf("Expected no active request for unknown patient")
	}
}
