package models

import (
	"time"
)

// Vitals содержит текущие показатели жизнедеятельности пациента.
// Формат полей соответствует JSON, который отдает бекенд.
type Vitals struct {
	HeartRate       float64  `json:"heartRate"`
	SpO2            float64  `json:"spO2"`
	RespiratoryRate float64  `json:"respiratoryRate"`
	SystolicBP      float64  `json:"systolicBP"`
	DiastolicBP     *float64 `json:"diastolicBP,omitempty"`
	MeanBP          *float64 `json:"meanBP,omitempty"`
	CVP             *float64 `json:"cvp,omitempty"`
	Temperature     float64  `json:"temperature,omitempty"`
	GCS             float64  `json:"gcs"`
	Lactate         float64  `json:"lactate"`
}

// LabValues содержит лабораторные показатели (опциональные)
type LabValues struct {
	Bilirubin  float64 `json:"bilirubin,omitempty"`
	Creatinine float64 `json:"creatinine,omitempty"`
	WBC        float64 `json:"wbc,omitempty"`
	Hemoglobin float64 `json:"hemoglobin,omitempty"`
	Platelets  float64 `json:"platelets,omitempty"`
}

// Prediction представляет снимок вердикта о готовности к переводу.
// Confidence всегда в диапазоне 0-1, в проценты переводим только при выводе.
type Prediction struct {
	TransferReady bool       `json:"transferReady"`
	Confidence    float64    `json:"confidence"`
	Reasoning     string     `json:"reasoning"`
	RiskFactors   []string   `json:"riskFactors"`
	Timestamp     *time.Time `json:"timestamp,omitempty"`
}

// Patient представляет пациента ОРИТ. Клиент держит временный кэш по id,
// источником истины всегда остается бекенд.
type Patient struct {
	ID               string      `json:"id"`
	Name             string      `json:"name"`
	Age              int         `json:"age"`
	Department       string      `json:"department,omitempty"`
	Bed              string      `json:"bed,omitempty"`
	Vitals           Vitals      `json:"vitals"`
	LabValues        *LabValues  `json:"labValues,omitempty"`
	Comorbidities    []string    `json:"comorbidities,omitempty"`
	ComorbidityScore float64     `json:"comorbidityScore"`
	OnVentilator     bool        `json:"onVentilator"`
	OnPressors       bool        `json:"onPressors"`
	Prediction       *Prediction `json:"prediction,omitempty"`
	LastUpdated      *time.Time  `json:"lastUpdated,omitempty"`
}

// RequestStatus представляет статус заявки на перевод
type RequestStatus string

const (
	StatusPending        RequestStatus = "pending"
	StatusDoctorApproved RequestStatus = "doctor_approved"
	StatusDoctorRejected RequestStatus = "doctor_rejected"
	StatusAdminApproved  RequestStatus = "admin_approved"
	StatusAdminRejected  RequestStatus = "admin_rejected"
	StatusCompleted      RequestStatus = "completed"

	// StatusRejected - устаревший статус из старых данных, новые переходы
	// его не создают, но в истории он встречается
	StatusRejected RequestStatus = "rejected"
)

// TransferRequest представляет заявку на перевод пациента из ОРИТ
type TransferRequest struct {
	ID                string        `json:"id"`
	PatientID         string        `json:"patient_id"`
	NurseID           string        `json:"nurse_id"`
	DoctorID          string        `json:"doctor_id,omitempty"`
	DepartmentAdminID string        `json:"department_admin_id,omitempty"`
	Status            RequestStatus `json:"status"`
	TargetDepartment  string        `json:"target_department,omitempty"`
	Notes             string        `json:"notes,omitempty"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
	MLPrediction      *Prediction   `json:"ml_prediction,omitempty"`
}

// DischargeRecord представляет запись аудита о завершенном переводе.
// Создается ровно один раз на каждую завершенную заявку, только добавляется.
type DischargeRecord struct {
	DischargeID       string    `json:"discharge_id"`
	PatientID         string    `json:"patient_id"`
	Name              string    `json:"name"`
	TimeDischarged    time.Time `json:"time_discharged"`
	TargetDepartment  string    `json:"target_department"`
	NurseID           string    `json:"nurse_id,omitempty"`
	DoctorID          string    `json:"doctor_id,omitempty"`
	DepartmentAdminID string    `json:"department_admin_id,omitempty"`
	TransferRequestID string    `json:"transfer_request_id"`
}

// Notification - эфемерное клиентское уведомление, живет только в памяти
type Notification struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Department представляет отделение больницы
type Department struct {
	ID               int    `json:"id"`
	Name             string `json:"name"`
	Capacity         int    `json:"capacity"`
	CurrentOccupancy int    `json:"current_occupancy"`
}

// User представляет пользователя системы (медсестра/врач/администратор)
type User struct {
	ID         int    `json:"id"`
	Username   string `json:"username"`
	Role       string `json:"role"`
	Department string `json:"department,omitempty"`
}

// Роли пользователей
const (
	RoleNurse  = "nurse"
	RoleDoctor = "doctor"
	RoleAdmin  = "admin"
)

// VitalsUpdate - формат push-сообщения vitals_update из WebSocket
type VitalsUpdate struct {
	PatientID        string     `json:"patient_id"`
	HeartRate        float64    `json:"heartRate"`
	SpO2             float64    `json:"spO2"`
	RespiratoryRate  float64    `json:"respiratoryRate"`
	SystolicBP       float64    `json:"systolicBP"`
	Lactate          float64    `json:"lactate"`
	GCS              float64    `json:"gcs"`
	StabilityPattern string     `json:"stability_pattern,omitempty"`
	Timestamp        *time.Time `json:"timestamp,omitempty"`
}

// PredictRequest - тело запроса POST /predict в формате ML сервиса
type PredictRequest struct {
	HR               float64 `json:"HR"`
	SpO2             float64 `json:"SpO2"`
	RESP             float64 `json:"RESP"`
	ABPsys           float64 `json:"ABPsys"`
	Lactate          float64 `json:"lactate"`
	GCS              float64 `json:"gcs"`
	Age              float64 `json:"age"`
	ComorbidityScore float64 `json:"comorbidity_score"`
	OnVent           bool    `json:"on_vent"`
	OnPressors       bool    `json:"on_pressors"`
}

// PredictResponse - ответ ML сервиса на POST /predict
type PredictResponse struct {
	Prediction   string   `json:"prediction"` // "Ready" или "Not Ready"
	Probability  float64  `json:"probability"`
	Confidence   float64  `json:"confidence"`
	Explanation  string   `json:"explanation"`
	RiskFactors  []string `json:"risk_factors"`
	ModelVersion string   `json:"model_version"`
	Timestamp    string   `json:"timestamp"`
}

// PredictRequestFromPatient собирает тело запроса предсказания из снимка пациента
func PredictRequestFromPatient(p *Patient) PredictRequest {
	return PredictRequest{
		HR:               p.Vitals.HeartRate,
		SpO2:             p.Vitals.SpO2,
		RESP:             p.Vitals.RespiratoryRate,
		ABPsys:           p.Vitals.SystolicBP,
		Lactate:          p.Vitals.Lactate,
		GCS:              p.Vitals.GCS,
		Age:              float64(p.Age),
		ComorbidityScore: p.ComorbidityScore,
		OnVent:           p.OnVentilator,
		OnPressors:       p.OnPressors,
	}
}

// DischargeResult - ответ бекенда на запрос выписки
type DischargeResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}
