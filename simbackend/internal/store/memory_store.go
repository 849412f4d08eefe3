package store

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/Krimson/icu-transfer/pkg/models"
	"github.com/Krimson/icu-transfer/pkg/workflow"
)

// MemoryStore реализует Repository в памяти. Используется для локальной
// разработки и тестов, когда PostgreSQL недоступен.
type MemoryStore struct {
	mu sync.RWMutex

	patients    map[string]*models.Patient
	requests    map[string]*models.TransferRequest
	discharges  map[string]*models.DischargeRecord
	departments []models.Department
	users       []models.User

	nextRequestID   int
	nextDischargeID int
}

// NewMemoryStore создает пустое хранилище в памяти
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		patients:        make(map[string]*models.Patient),
		requests:        make(map[string]*models.TransferRequest),
		discharges:      make(map[string]*models.DischargeRecord),
		nextRequestID:   1,
		nextDischargeID: 1,
	}
}

// NewSeededMemoryStore создает хранилище с демонстрационным набором данных
func NewSeededMemoryStore() *MemoryStore {
	s := NewMemoryStore()
	s.seed()
	return s
}

func (s *MemoryStore) seed() {
	dia1, dia2 := 72.0, 58.0
	patients := []*models.Patient{
		{
			ID: "ICU-001", Name: "John Martinez", Age: 54, Department: "ICU", Bed: "A-01",
			Vitals: models.Vitals{
				HeartRate: 78, SpO2: 98, RespiratoryRate: 14, SystolicBP: 124,
				DiastolicBP: &dia1, Temperature: 36.8, GCS: 15, Lactate: 0.9,
			},
			ComorbidityScore: 1,
		},
		{
			ID: "ICU-002", Name: "Sarah Chen", Age: 67, Department: "ICU", Bed: "A-02",
			Vitals: models.Vitals{
				HeartRate: 105, SpO2: 91, RespiratoryRate: 24, SystolicBP: 98,
				DiastolicBP: &dia2, Temperature: 38.6, GCS: 13, Lactate: 3.1,
			},
			Comorbidities:    []string{"COPD", "diabetes"},
			ComorbidityScore: 3,
		},
		{
			ID: "ICU-003", Name: "Robert Okafor", Age: 71, Department: "ICU", Bed: "B-01",
			Vitals: models.Vitals{
				HeartRate: 92, SpO2: 94, RespiratoryRate: 19, SystolicBP: 110,
				Temperature: 37.2, GCS: 14, Lactate: 1.8,
			},
			OnPressors:       true,
			ComorbidityScore: 2,
		},
	}
	for _, p := range patients {
		now := time.Now()
		p.LastUpdated = &now
		s.patients[p.ID] = p
	}

	s.departments = []models.Department{
		{ID: 1, Name: "ICU", Capacity: 12, CurrentOccupancy: len(patients)},
		{ID: 2, Name: "General Ward", Capacity: 40, CurrentOccupancy: 28},
		{ID: 3, Name: "Cardiology", Capacity: 20, CurrentOccupancy: 15},
		{ID: 4, Name: "Step-Down Unit", Capacity: 16, CurrentOccupancy: 9},
	}

	s.users = []models.User{
		{ID: 1, Username: "nurse-1", Role: models.RoleNurse, Department: "ICU"},
		{ID: 2, Username: "nurse-2", Role: models.RoleNurse, Department: "ICU"},
		{ID: 3, Username: "doctor-3", Role: models.RoleDoctor, Department: "ICU"},
		{ID: 4, Username: "doctor-4", Role: models.RoleDoctor, Department: "Cardiology"},
		{ID: 5, Username: "admin-1", Role: models.RoleAdmin, Department: "General Ward"},
	}
}

// ===== Пациенты =====

func (s *MemoryStore) ListPatients(ctx context.Context) ([]models.Patient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	patients := make([]models.Patient, 0, len(s.patients))
	for _, p := range s.patients {
		patients = append(patients, *p)
	}
	sort.Slice(patients, func(i, j int) bool { return patients[i].ID < patients[j].ID })
	return patients, nil
}

func (s *MemoryStore) GetPatient(ctx context.Context, patientID string) (*models.Patient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.patients[patientID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *MemoryStore) SavePatient(ctx context.Context, patient *models.Patient) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *patient
	s.patients[patient.ID] = &cp
	return nil
}

func (s *MemoryStore) UpdatePatientVitals(ctx context.Context, patientID string, vitals models.Vitals) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.patients[patientID]
	if !ok {
		return ErrNotFound
	}
	p.Vitals = vitals
	now := time.Now()
	p.LastUpdated = &now
	return nil
}

func (s *MemoryStore) DeletePatient(ctx context.Context, patientID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.patients[patientID]; !ok {
		return ErrNotFound
	}
	delete(s.patients, patientID)
	return nil
}

// ===== Заявки на перевод =====

func (s *MemoryStore) ListTransferRequests(ctx context.Context) ([]models.TransferRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	requests := make([]models.TransferRequest, 0, len(s.requests))
	for _, r := range s.requests {
		requests = append(requests, *r)
	}
	sort.Slice(requests, func(i, j int) bool { return requests[i].CreatedAt.Before(requests[j].CreatedAt) })
	return requests, nil
}

func (s *MemoryStore) GetTransferRequest(ctx context.Context, requestID string) (*models.TransferRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.requests[requestID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *MemoryStore) ActiveRequestForPatient(ctx context.Context, patientID string) (*models.TransferRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.requests {
		if r.PatientID == patientID && workflow.IsActive(r.Status) {
			cp := *r
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

// CreateTransferRequest назначает id и сохраняет заявку. Вторая активная
// заявка на того же пациента отклоняется.
func (s *MemoryStore) CreateTransferRequest(ctx context.Context, request *models.TransferRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.requests {
		if r.PatientID == request.PatientID && workflow.IsActive(r.Status) {
			return ErrActiveRequestExists
		}
	}

	request.ID = strconv.Itoa(s.nextRequestID)
	s.nextRequestID++

	cp := *request
	s.requests[request.ID] = &cp
	return nil
}

func (s *MemoryStore) UpdateTransferRequest(ctx context.Context, request *models.TransferRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.requests[request.ID]; !ok {
		return ErrNotFound
	}
	cp := *request
	s.requests[request.ID] = &cp
	return nil
}

// ===== История выписок =====

func (s *MemoryStore) ListDischarges(ctx context.Context) ([]models.DischargeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]models.DischargeRecord, 0, len(s.discharges))
	for _, d := range s.discharges {
		records = append(records, *d)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].TimeDischarged.Before(records[j].TimeDischarged) })
	return records, nil
}

func (s *MemoryStore) SaveDischarge(ctx context.Context, record *models.DischargeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record.DischargeID = strconv.Itoa(s.nextDischargeID)
	s.nextDischargeID++

	cp := *record
	s.discharges[record.DischargeID] = &cp
	return nil
}

func (s *MemoryStore) DeleteDischarge(ctx context.Context, dischargeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.discharges[dischargeID]; !ok {
		return ErrNotFound
	}
	delete(s.discharges, dischargeID)
	return nil
}

// ===== Справочники =====

func (s *MemoryStore) ListDepartments(ctx context.Context) ([]models.Department, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Department, len(s.departments))
	copy(out, s.departments)
	return out, nil
}

func (s *MemoryStore) ListUsersByRole(ctx context.Context, role string) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.User
	for _, u := range s.users {
		if u.Role == role {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
