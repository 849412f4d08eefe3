package store

import (
	"context"
	"errors"

	"github.com/Krimson/icu-transfer/pkg/models"
)

// ErrNotFound возвращается, когда запрошенной записи нет в хранилище
var ErrNotFound = errors.New("record not found")

// ErrActiveRequestExists возвращается при попытке создать вторую
// активную заявку для того же пациента
var ErrActiveRequestExists = errors.New("patient already has an active transfer request")

// Repository определяет контракт персистентного хранилища (Infrastructure Layer)
type Repository interface {
	// Пациенты
	ListPatients(ctx context.Context) ([]models.Patient, error)
	GetPatient(ctx context.Context, patientID string) (*models.Patient, error)
	SavePatient(ctx context.Context, patient *models.Patient) error
	UpdatePatientVitals(ctx context.Context, patientID string, vitals models.Vitals) error
	DeletePatient(ctx context.Context, patientID string) error

	// Заявки на перевод
	ListTransferRequests(ctx context.Context) ([]models.TransferRequest, error)
	GetTransferRequest(ctx context.Context, requestID string) (*models.TransferRequest, error)
	ActiveRequestForPatient(ctx context.Context, patientID string) (*models.TransferRequest, error)
	CreateTransferRequest(ctx context.Context, request *models.TransferRequest) error
	UpdateTransferRequest(ctx context.Context, request *models.TransferRequest) error

	// История выписок
	ListDischarges(ctx context.Context) ([]models.DischargeRecord, error)
	SaveDischarge(ctx context.Context, record *models.DischargeRecord) error
	DeleteDischarge(ctx context.Context, dischargeID string) error

	// Справочники
	ListDepartments(ctx context.Context) ([]models.Department, error)
	ListUsersByRole(ctx context.Context, role string) ([]models.User, error)

	Close() error
}

// CacheStore определяет контракт кэша последних показателей.
// Кэш не источник истины, его потеря не ломает систему.
type CacheStore interface {
	SetVitals(ctx context.Context, update *models.VitalsUpdate) error
	GetVitals(ctx context.Context, patientID string) (*models.VitalsUpdate, error)
	InvalidatePatient(ctx context.Context, patientID string) error
}
