package workflow

import (
	"errors"
	"fmt"
	"time"

	"github.com/Krimson/icu-transfer/pkg/models"
)

// Пакет workflow описывает машину состояний заявки на перевод:
// pending -> doctor_approved -> admin_approved -> completed,
// с отклонением врачом или администратором на соответствующем шаге.

// Action представляет действие над заявкой, привязанное к роли
type Action string

const (
	ActionDoctorApprove Action = "doctor_approve"
	ActionDoctorReject  Action = "doctor_reject"
	ActionAdminApprove  Action = "admin_approve"
	ActionAdminReject   Action = "admin_reject"
	ActionDischarge     Action = "discharge"
)

var (
	ErrIllegalTransition = errors.New("illegal status transition")
	ErrUnknownAction     = errors.New("unknown workflow action")
)

// transitions описывает все разрешенные переходы
var transitions = map[models.RequestStatus]map[Action]models.RequestStatus{
	models.StatusPending: {
		ActionDoctorApprove: models.StatusDoctorApproved,
		ActionDoctorReject:  models.StatusDoctorRejected,
	},
	models.StatusDoctorApproved: {
		ActionAdminApprove: models.StatusAdminApproved,
		ActionAdminReject:  models.StatusAdminRejected,
	},
	models.StatusAdminApproved: {
		ActionDischarge: models.StatusCompleted,
	},
}

// Transition возвращает новый статус после действия или ErrIllegalTransition
func Transition(from models.RequestStatus, action Action) (models.RequestStatus, error) {
	switch action {
	case ActionDoctorApprove, ActionDoctorReject, ActionAdminApprove, ActionAdminReject, ActionDischarge:
	default:
		return from, fmt.Errorf("%w: %s", ErrUnknownAction, action)
	}

	next, ok := transitions[from][action]
	if !ok {
		return from, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, from, action)
	}
	return next, nil
}

// IsTerminal сообщает, завершен ли жизненный цикл заявки
func IsTerminal(status models.RequestStatus) bool {
	switch status {
	case models.StatusDoctorRejected, models.StatusAdminRejected, models.StatusRejected, models.StatusCompleted:
		return true
	}
	return false
}

// IsActive - заявка еще в работе
func IsActive(status models.RequestStatus) bool {
	return !IsTerminal(status)
}

// ApplyDoctorApprove переводит заявку в doctor_approved и проставляет
// врача и целевое отделение
func ApplyDoctorApprove(req *models.TransferRequest, doctorID, targetDepartment, notes string) error {
	next, err := Transition(req.Status, ActionDoctorApprove)
	if err != nil {
		return err
	}
	req.Status = next
	req.DoctorID = doctorID
	req.TargetDepartment = targetDepartment
	if notes != "" {
		req.Notes = notes
	}
	req.UpdatedAt = time.Now()
	return nil
}

// ApplyDoctorReject переводит заявку в doctor_rejected
func ApplyDoctorReject(req *models.TransferRequest, doctorID, notes string) error {
	next, err := Transition(req.Status, ActionDoctorReject)
	if err != nil {
		return err
	}
	req.Status = next
	req.DoctorID = doctorID
	if notes != "" {
		req.Notes = notes
	}
	req.UpdatedAt = time.Now()
	return nil
}

// ApplyAdminApprove переводит заявку в admin_approved и проставляет администратора
func ApplyAdminApprove(req *models.TransferRequest, adminID, targetDepartment, notes string) error {
	next, err := Transition(req.Status, ActionAdminApprove)
	if err != nil {
		return err
	}
	req.Status = next
	req.DepartmentAdminID = adminID
	if targetDepartment != "" {
		req.TargetDepartment = targetDepartment
	}
	if notes != "" {
		req.Notes = notes
	}
	req.UpdatedAt = time.Now()
	return nil
}

// ApplyAdminReject переводит заявку в admin_rejected
func ApplyAdminReject(req *models.TransferRequest, adminID, notes string) error {
	next, err := Transition(req.Status, ActionAdminReject)
	if err != nil {
		return err
	}
	req.Status = next
	req.DepartmentAdminID = adminID
	if notes != "" {
		req.Notes = notes
	}
	req.UpdatedAt = time.Now()
	return nil
}

// ApplyDischarge завершает заявку. Пациент после этого снимается с учета,
// а запись о выписке создает вызывающая сторона.
func ApplyDischarge(req *models.TransferRequest, notes string) error {
	next, err := Transition(req.Status, ActionDischarge)
	if err != nil {
		return err
	}
	req.Status = next
	if notes != "" {
		req.Notes = notes
	}
	req.UpdatedAt = time.Now()
	return nil
}

// ActiveRequestForPatient ищет активную заявку пациента в списке.
// Инвариант "не больше одной активной заявки на пациента" обеспечивает
// бекенд, здесь только поиск первой подходящей.
func ActiveRequestForPatient(requests []models.TransferRequest, patientID string) (*models.TransferRequest, bool) {
	for i := range requests {
		if requests[i].PatientID == patientID && IsActive(requests[i].Status) {
			return &requests[i], true
		}
	}
	return nil, false
}
