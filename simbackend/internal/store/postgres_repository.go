package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/Krimson/icu-transfer/pkg/models"
)

// PostgresRepository реализует Repository для PostgreSQL (Infrastructure Layer)
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository создает репозиторий поверх готового подключения
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// NewPostgresRepositoryFromDSN создает репозиторий из строки подключения
func NewPostgresRepositoryFromDSN(dsn string) (*PostgresRepository, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Проверяем соединение
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Настройки пула соединений
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &PostgresRepository{db: db}, nil
}

// Close закрывает соединение с БД
func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

// ===== Пациенты =====

func (r *PostgresRepository) ListPatients(ctx context.Context) ([]models.Patient, error) {
	query := `
		SELECT id, name, age, department, bed, vitals, lab_values, comorbidities,
			comorbidity_score, on_ventilator, on_pressors, last_updated
		FROM patients
		ORDER BY id ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}
	defer rows.Close()

	var patients []models.Patient

	for rows.Next() {
		patient, err := scanPatient(rows)
		if err != nil {
			continue // Пропускаем поврежденные записи
		}
		patients = append(patients, *patient)
	}

	return patients, nil
}

func (r *PostgresRepository) GetPatient(ctx context.Context, patientID string) (*models.Patient, error) {
	query := `
		SELECT id, name, age, department, bed, vitals, lab_values, comorbidities,
			comorbidity_score, on_ventilator, on_pressors, last_updated
		FROM patients
		WHERE id = $1
	`

	patient, err := scanPatient(r.db.QueryRowContext(ctx, query, patientID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	return patient, nil
}

func (r *PostgresRepository) SavePatient(ctx context.Context, patient *models.Patient) error {
	vitalsJSON, err := json.Marshal(patient.Vitals)
	if err != nil {
		return fmt.Errorf("failed to marshal vitals: %w", err)
	}
	labsJSON, err := json.Marshal(patient.LabValues)
	if err != nil {
		return fmt.Errorf("failed to marshal lab values: %w", err)
	}
	comorbiditiesJSON, err := json.Marshal(patient.Comorbidities)
	if err != nil {
		return fmt.Errorf("failed to marshal comorbidities: %w", err)
	}

	query := `
		INSERT INTO patients (id, name, age, department, bed, vitals, lab_values, comorbidities,
			comorbidity_score, on_ventilator, on_pressors, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			age = EXCLUDED.age,
			department = EXCLUDED.department,
			bed = EXCLUDED.bed,
			vitals = EXCLUDED.vitals,
			lab_values = EXCLUDED.lab_values,
			comorbidities = EXCLUDED.comorbidities,
			comorbidity_score = EXCLUDED.comorbidity_score,
			on_ventilator = EXCLUDED.on_ventilator,
			on_pressors = EXCLUDED.on_pressors,
			last_updated = EXCLUDED.last_updated
	`

	_, err = r.db.ExecContext(ctx, query,
		patient.ID,
		patient.Name,
		patient.Age,
		patient.Department,
		patient.Bed,
		vitalsJSON,
		labsJSON,
		comorbiditiesJSON,
		patient.ComorbidityScore,
		patient.OnVentilator,
		patient.OnPressors,
		time.Now(),
	)

	if err != nil {
		return fmt.Errorf("failed to save patient: %w", err)
	}
	return nil
}

func (r *PostgresRepository) UpdatePatientVitals(ctx context.Context, patientID string, vitals models.Vitals) error {
	vitalsJSON, err := json.Marshal(vitals)
	if err != nil {
		return fmt.Errorf("failed to marshal vitals: %w", err)
	}

	query := `UPDATE patients SET vitals = $2, last_updated = $3 WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, patientID, vitalsJSON, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update vitals: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) DeletePatient(ctx context.Context, patientID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM patients WHERE id = $1`, patientID)
	if err != nil {
		return fmt.Errorf("failed to delete patient: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPatient(row rowScanner) (*models.Patient, error) {
	var patient models.Patient
	var department, bed sql.NullString
	var vitalsJSON, labsJSON, comorbiditiesJSON []byte
	var lastUpdated sql.NullTime

	err := row.Scan(
		&patient.ID,
		&patient.Name,
		&patient.Age,
		&department,
		&bed,
		&vitalsJSON,
		&labsJSON,
		&comorbiditiesJSON,
		&patient.ComorbidityScore,
		&patient.OnVentilator,
		&patient.OnPressors,
		&lastUpdated,
	)
	if err != nil {
		return nil, err
	}

	patient.Department = department.String
	patient.Bed = bed.String
	if lastUpdated.Valid {
		patient.LastUpdated = &lastUpdated.Time
	}

	if err := json.Unmarshal(vitalsJSON, &patient.Vitals); err != nil {
		return nil, fmt.Errorf("failed to unmarshal vitals: %w", err)
	}
	if len(labsJSON) > 0 && string(labsJSON) != "null" {
		var labs models.LabValues
		if err := json.Unmarshal(labsJSON, &labs); err == nil {
			patient.LabValues = &labs
		}
	}
	if len(comorbiditiesJSON) > 0 && string(comorbiditiesJSON) != "null" {
		json.Unmarshal(comorbiditiesJSON, &patient.Comorbidities)
	}

	return &patient, nil
}

// ===== Заявки на перевод =====

const activeStatusesSQL = `('pending', 'doctor_approved', 'admin_approved')`

func (r *PostgresRepository) ListTransferRequests(ctx context.Context) ([]models.TransferRequest, error) {
	query := `
		SELECT id, patient_id, nurse_id, doctor_id, department_admin_id, status,
			target_department, notes, created_at, updated_at, ml_prediction
		FROM transfer_requests
		ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list transfer requests: %w", err)
	}
	defer rows.Close()

	var requests []models.TransferRequest

	for rows.Next() {
		request, err := scanTransferRequest(rows)
		if err != nil {
			continue
		}
		requests = append(requests, *request)
	}

	return requests, nil
}

func (r *PostgresRepository) GetTransferRequest(ctx context.Context, requestID string) (*models.TransferRequest, error) {
	query := `
		SELECT id, patient_id, nurse_id, doctor_id, department_admin_id, status,
			target_department, notes, created_at, updated_at, ml_prediction
		FROM transfer_requests
		WHERE id = $1
	`

	request, err := scanTransferRequest(r.db.QueryRowContext(ctx, query, requestID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get transfer request: %w", err)
	}
	return request, nil
}

func (r *PostgresRepository) ActiveRequestForPatient(ctx context.Context, patientID string) (*models.TransferRequest, error) {
	query := `
		SELECT id, patient_id, nurse_id, doctor_id, department_admin_id, status,
			target_department, notes, created_at, updated_at, ml_prediction
		FROM transfer_requests
		WHERE patient_id = $1 AND status IN ` + activeStatusesSQL + `
		LIMIT 1
	`

	request, err := scanTransferRequest(r.db.QueryRowContext(ctx, query, patientID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get active request: %w", err)
	}
	return request, nil
}

// CreateTransferRequest вставляет заявку и возвращает назначенный id.
// Уникальность активной заявки проверяется в той же транзакции.
func (r *PostgresRepository) CreateTransferRequest(ctx context.Context, request *models.TransferRequest) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var existing int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transfer_requests WHERE patient_id = $1 AND status IN `+activeStatusesSQL,
		request.PatientID,
	).Scan(&existing)
	if err != nil {
		return fmt.Errorf("failed to check active requests: %w", err)
	}
	if existing > 0 {
		return ErrActiveRequestExists
	}

	predictionJSON, err := json.Marshal(request.MLPrediction)
	if err != nil {
		return fmt.Errorf("failed to marshal prediction: %w", err)
	}

	query := `
		INSERT INTO transfer_requests (patient_id, nurse_id, doctor_id, department_admin_id,
			status, target_department, notes, created_at, updated_at, ml_prediction)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`

	err = tx.QueryRowContext(ctx, query,
		request.PatientID,
		request.NurseID,
		nullString(request.DoctorID),
		nullString(request.DepartmentAdminID),
		request.Status,
		nullString(request.TargetDepartment),
		nullString(request.Notes),
		request.CreatedAt,
		request.UpdatedAt,
		predictionJSON,
	).Scan(&request.ID)

	if err != nil {
		return fmt.Errorf("failed to create transfer request: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r *PostgresRepository) UpdateTransferRequest(ctx context.Context, request *models.TransferRequest) error {
	predictionJSON, err := json.Marshal(request.MLPrediction)
	if err != nil {
		return fmt.Errorf("failed to marshal prediction: %w", err)
	}

	query := `
		UPDATE transfer_requests
		SET doctor_id = $2, department_admin_id = $3, status = $4,
			target_department = $5, notes = $6, updated_at = $7, ml_prediction = $8
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		request.ID,
		nullString(request.DoctorID),
		nullString(request.DepartmentAdminID),
		request.Status,
		nullString(request.TargetDepartment),
		nullString(request.Notes),
		request.UpdatedAt,
		predictionJSON,
	)

	if err != nil {
		return fmt.Errorf("failed to update transfer request: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func scanTransferRequest(row rowScanner) (*models.TransferRequest, error) {
	var request models.TransferRequest
	var doctorID, adminID, targetDepartment, notes sql.NullString
	var predictionJSON []byte

	err := row.Scan(
		&request.ID,
		&request.PatientID,
		&request.NurseID,
		&doctorID,
		&adminID,
		&request.Status,
		&targetDepartment,
		&notes,
		&request.CreatedAt,
		&request.UpdatedAt,
		&predictionJSON,
	)
	if err != nil {
		return nil, err
	}

	request.DoctorID = doctorID.String
	request.DepartmentAdminID = adminID.String
	request.TargetDepartment = targetDepartment.String
	request.Notes = notes.String

	if len(predictionJSON) > 0 && string(predictionJSON) != "null" {
		var prediction models.Prediction
		if err := json.Unmarshal(predictionJSON, &prediction); err == nil {
			request.MLPrediction = &prediction
		}
	}

	return &request, nil
}

// ===== История выписок =====

func (r *PostgresRepository) ListDischarges(ctx context.Context) ([]models.DischargeRecord, error) {
	query := `
		SELECT discharge_id, patient_id, name, time_discharged, target_department,
			nurse_id, doctor_id, department_admin_id, transfer_request_id
		FROM discharged_patients
		ORDER BY time_discharged ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list discharges: %w", err)
	}
	defer rows.Close()

	var records []models.DischargeRecord

	for rows.Next() {
		var record models.DischargeRecord
		var nurseID, doctorID, adminID sql.NullString

		err := rows.Scan(
			&record.DischargeID,
			&record.PatientID,
			&record.Name,
			&record.TimeDischarged,
			&record.TargetDepartment,
			&nurseID,
			&doctorID,
			&adminID,
			&record.TransferRequestID,
		)
		if err != nil {
			continue
		}

		record.NurseID = nurseID.String
		record.DoctorID = doctorID.String
		record.DepartmentAdminID = adminID.String
		records = append(records, record)
	}

	return records, nil
}

func (r *PostgresRepository) SaveDischarge(ctx context.Context, record *models.DischargeRecord) error {
	query := `
		INSERT INTO discharged_patients (patient_id, name, time_discharged, target_department,
			nurse_id, doctor_id, department_admin_id, transfer_request_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING discharge_id
	`

	err := r.db.QueryRowContext(ctx, query,
		record.PatientID,
		record.Name,
		record.TimeDischarged,
		record.TargetDepartment,
		nullString(record.NurseID),
		nullString(record.DoctorID),
		nullString(record.DepartmentAdminID),
		record.TransferRequestID,
	).Scan(&record.DischargeID)

	if err != nil {
		return fmt.Errorf("failed to save discharge: %w", err)
	}
	return nil
}

func (r *PostgresRepository) DeleteDischarge(ctx context.Context, dischargeID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM discharged_patients WHERE discharge_id = $1`, dischargeID)
	if err != nil {
		return fmt.Errorf("failed to delete discharge: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ===== Справочники =====

func (r *PostgresRepository) ListDepartments(ctx context.Context) ([]models.Department, error) {
	query := `SELECT id, name, capacity, current_occupancy FROM departments ORDER BY id ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list departments: %w", err)
	}
	defer rows.Close()

	var departments []models.Department

	for rows.Next() {
		var d models.Department
		if err := rows.Scan(&d.ID, &d.Name, &d.Capacity, &d.CurrentOccupancy); err != nil {
			continue
		}
		departments = append(departments, d)
	}

	return departments, nil
}

func (r *PostgresRepository) ListUsersByRole(ctx context.Context, role string) ([]models.User, error) {
	query := `SELECT id, username, role, department FROM users WHERE role = $1 ORDER BY id ASC`

	rows, err := r.db.QueryContext(ctx, query, role)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []models.User

	for rows.Next() {
		var u models.User
		var department sql.NullString
		if err := rows.Scan(&u.ID, &u.Username, &u.Role, &department); err != nil {
			continue
		}
		u.Department = department.String
		users = append(users, u)
	}

	return users, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
