package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/Krimson/icu-transfer/dashboard/internal/config"
	"github.com/Krimson/icu-transfer/pkg/models"
	"github.com/Krimson/icu-transfer/pkg/predict"
)

// Client - типизированные обертки над HTTP API бекенда. Каждый вызов -
// один запрос без повторов и кэширования: отправили, отразили ответ,
// не-2xx превращается в *HTTPError.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// HTTPError - ошибка не-2xx ответа с кодом и телом
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.StatusCode, e.Body)
}

// HealthStatus - ответ GET /health
type HealthStatus struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
	Version     string `json:"version"`
}

// ModelInfo - ответ GET /model-info
type ModelInfo struct {
	ModelType        string   `json:"model_type"`
	FeaturesExpected int      `json:"features_expected"`
	FeatureNames     []string `json:"feature_names"`
}

// New создает клиент бекенда
func New(cfg *config.Config) *Client {
	return &Client{
		baseURL: cfg.BackendBaseURL,
		httpClient: &http.Client{
			Timeout: cfg.HTTPTimeout,
		},
	}
}

// do выполняет один запрос и декодирует JSON ответа в out (если out != nil)
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &HTTPError{StatusCode: resp.StatusCode, Body: string(data)}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// Health опрашивает GET /health
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	var status HealthStatus
	if err := c.do(ctx, http.MethodGet, "/health", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// GetModelInfo опрашивает GET /model-info
func (c *Client) GetModelInfo(ctx context.Context) (*ModelInfo, error) {
	var info ModelInfo
	if err := c.do(ctx, http.MethodGet, "/model-info", nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// ListPatients возвращает актуальный список пациентов
func (c *Client) ListPatients(ctx context.Context) ([]models.Patient, error) {
	var patients []models.Patient
	if err := c.do(ctx, http.MethodGet, "/patients", nil, &patients); err != nil {
		return nil, err
	}
	return patients, nil
}

// GetPatientVitals возвращает текущие показатели пациента
func (c *Client) GetPatientVitals(ctx context.Context, patientID string) (*models.Vitals, error) {
	var vitals models.Vitals
	if err := c.do(ctx, http.MethodGet, "/patient/"+patientID+"/vitals", nil, &vitals); err != nil {
		return nil, err
	}
	return &vitals, nil
}

// AddPatient регистрирует нового пациента
func (c *Client) AddPatient(ctx context.Context, patient *models.Patient) error {
	return c.do(ctx, http.MethodPost, "/add-patient", patient, nil)
}

// PredictReadiness запрашивает вердикт у ML сервиса. При любой ошибке
// транспорта или ответа подставляется локальный резервный оценщик -
// вызов никогда не падает, качество вердикта просто деградирует.
func (c *Client) PredictReadiness(ctx context.Context, patient *models.Patient) models.Prediction {
	var resp models.PredictResponse
	err := c.do(ctx, http.MethodPost, "/predict", models.PredictRequestFromPatient(patient), &resp)
	if err != nil {
		log.Printf("[WARN] ML service unavailable, using local fallback: %v", err)
		return predict.Assess(patient)
	}

	prediction := models.Prediction{
		TransferReady: resp.Prediction == "Ready",
		Confidence:    resp.Confidence,
		Reasoning:     resp.Explanation,
		RiskFactors:   resp.RiskFactors,
	}
	if prediction.Confidence == 0 {
		prediction.Confidence = resp.Probability
	}
	if ts, err := time.Parse(time.RFC3339, resp.Timestamp); err == nil {
		prediction.Timestamp = &ts
	}
	return prediction
}

// ListTransferRequests возвращает все заявки на перевод
func (c *Client) ListTransferRequests(ctx context.Context) ([]models.TransferRequest, error) {
	var requests []models.TransferRequest
	if err := c.do(ctx, http.MethodGet, "/transfer-requests", nil, &requests); err != nil {
		return nil, err
	}
	return requests, nil
}

// CreateTransferRequest создает заявку. Сервер назначает id, ответ
// подмешивается в черновик.
func (c *Client) CreateTransferRequest(ctx context.Context, draft models.TransferRequest) (*models.TransferRequest, error) {
	now := time.Now()
	if draft.CreatedAt.IsZero() {
		draft.CreatedAt = now
	}
	draft.UpdatedAt = now
	if draft.Status == "" {
		draft.Status = models.StatusPending
	}

	var created models.TransferRequest
	if err := c.do(ctx, http.MethodPost, "/transfer-request", draft, &created); err != nil {
		return nil, err
	}

	// Бекенд обязан вернуть id; остальные поля, которые он не эхо-вернул,
	// добираем из черновика
	if created.PatientID == "" {
		created.PatientID = draft.PatientID
	}
	if created.NurseID == "" {
		created.NurseID = draft.NurseID
	}
	if created.Status == "" {
		created.Status = draft.Status
	}
	return &created, nil
}

// RequestUpdate - частичное обновление заявки (PUT /transfer-request/{id})
type RequestUpdate struct {
	Status           models.RequestStatus `json:"status,omitempty"`
	DoctorID         string               `json:"doctor_id,omitempty"`
	AdminID          string               `json:"department_admin_id,omitempty"`
	TargetDepartment string               `json:"target_department,omitempty"`
	Notes            string               `json:"notes,omitempty"`
	UpdatedAt        time.Time            `json:"updated_at"`
}

// UpdateTransferRequest обновляет заявку частичным набором полей.
// updated_at проставляется на клиенте как подсказка монотонности,
// сервер авторитетен и может перезаписать.
func (c *Client) UpdateTransferRequest(ctx context.Context, requestID string, update RequestUpdate) (*models.TransferRequest, error) {
	update.UpdatedAt = time.Now()

	var updated models.TransferRequest
	if err := c.do(ctx, http.MethodPut, "/transfer-request/"+requestID, update, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// approvalBody - тело запросов одобрения/отклонения
type approvalBody struct {
	DoctorID         string    `json:"doctor_id,omitempty"`
	AdminID          string    `json:"department_admin_id,omitempty"`
	TargetDepartment string    `json:"target_department,omitempty"`
	Notes            string    `json:"notes,omitempty"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// ApproveByDoctor - одобрение врачом, статус становится doctor_approved
func (c *Client) ApproveByDoctor(ctx context.Context, requestID, doctorID, targetDepartment, notes string) (*models.TransferRequest, error) {
	body := approvalBody{
		DoctorID:         doctorID,
		TargetDepartment: targetDepartment,
		Notes:            notes,
		UpdatedAt:        time.Now(),
	}
	var updated models.TransferRequest
	if err := c.do(ctx, http.MethodPut, "/transfer-request/"+requestID+"/approve", body, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// RejectByDoctor - отклонение врачом, статус становится doctor_rejected
func (c *Client) RejectByDoctor(ctx context.Context, requestID, doctorID, notes string) (*models.TransferRequest, error) {
	body := approvalBody{
		DoctorID:  doctorID,
		Notes:     notes,
		UpdatedAt: time.Now(),
	}
	var updated models.TransferRequest
	if err := c.do(ctx, http.MethodPut, "/transfer-request/"+requestID+"/reject", body, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// AdminApprove - одобрение администратором отделения
func (c *Client) AdminApprove(ctx context.Context, requestID, adminID, targetDepartment, notes string) (*models.TransferRequest, error) {
	body := approvalBody{
		AdminID:          adminID,
		TargetDepartment: targetDepartment,
		Notes:            notes,
		UpdatedAt:        time.Now(),
	}
	var updated models.TransferRequest
	if err := c.do(ctx, http.MethodPut, "/transfer-request/"+requestID+"/admin-approve", body, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// AdminReject - отклонение администратором. Отдельного эндпоинта нет,
// идем через общий PUT со статусом admin_rejected.
func (c *Client) AdminReject(ctx context.Context, requestID, adminID, notes string) (*models.TransferRequest, error) {
	return c.UpdateTransferRequest(ctx, requestID, RequestUpdate{
		Status:  models.StatusAdminRejected,
		AdminID: adminID,
		Notes:   notes,
	})
}

// dischargeBody - тело POST /transfer-request/{id}/discharge
type dischargeBody struct {
	AdminID   string    `json:"department_admin_id,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Discharge завершает перевод: заявка становится completed, пациент
// снимается с учета, на сервере создается запись о выписке
func (c *Client) Discharge(ctx context.Context, requestID, adminID, notes string) (*models.DischargeResult, error) {
	body := dischargeBody{AdminID: adminID, Notes: notes, UpdatedAt: time.Now()}

	var result models.DischargeResult
	if err := c.do(ctx, http.MethodPost, "/transfer-request/"+requestID+"/discharge", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListDischarged возвращает историю выписок
func (c *Client) ListDischarged(ctx context.Context) ([]models.DischargeRecord, error) {
	var records []models.DischargeRecord
	if err := c.do(ctx, http.MethodGet, "/discharged-patients", nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// DeleteDischargeRecord удаляет запись о выписке (административная операция)
func (c *Client) DeleteDischargeRecord(ctx context.Context, dischargeID string) error {
	return c.do(ctx, http.MethodDelete, "/discharged-patients/"+dischargeID, nil, nil)
}

// ListDepartments возвращает отделения с данными о загруженности
func (c *Client) ListDepartments(ctx context.Context) ([]models.Department, error) {
	var departments []models.Department
	if err := c.do(ctx, http.MethodGet, "/departments", nil, &departments); err != nil {
		return nil, err
	}
	return departments, nil
}

// ListUsersByRole возвращает пользователей с заданной ролью
func (c *Client) ListUsersByRole(ctx context.Context, role string) ([]models.User, error) {
	var users []models.User
	if err := c.do(ctx, http.MethodGet, "/users/"+role, nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}
