package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/Krimson/icu-transfer/pkg/models"
	"github.com/Krimson/icu-transfer/pkg/predict"
	"github.com/Krimson/icu-transfer/pkg/workflow"
	"github.com/Krimson/icu-transfer/simbackend/internal/store"
)

// EventSink получает доменные события для рассылки дашбордам
type EventSink interface {
	BroadcastEvent(eventType string, payload interface{})
}

// HTTPHandler обрабатывает HTTP запросы координации переводов (Presentation Layer)
type HTTPHandler struct {
	repo  store.Repository
	cache store.CacheStore // может быть nil
	sink  EventSink
}

// NewHTTPHandler создает новый HTTP обработчик
func NewHTTPHandler(repo store.Repository, cache store.CacheStore, sink EventSink) *HTTPHandler {
	return &HTTPHandler{
		repo:  repo,
		cache: cache,
		sink:  sink,
	}
}

// RegisterRoutes регистрирует маршруты в роутере
func (h *HTTPHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/health", h.Health).Methods("GET")
	router.HandleFunc("/model-info", h.ModelInfo).Methods("GET")
	router.HandleFunc("/predict", h.Predict).Methods("POST")

	router.HandleFunc("/patients", h.ListPatients).Methods("GET")
	router.HandleFunc("/patient/{id}/vitals", h.GetPatientVitals).Methods("GET")
	router.HandleFunc("/add-patient", h.AddPatient).Methods("POST")

	router.HandleFunc("/transfer-requests", h.ListTransferRequests).Methods("GET")
	router.HandleFunc("/transfer-request", h.CreateTransferRequest).Methods("POST")
	router.HandleFunc("/transfer-request/{id}", h.UpdateTransferRequest).Methods("PUT")
	router.HandleFunc("/transfer-request/{id}/approve", h.DoctorApprove).Methods("PUT")
	router.HandleFunc("/transfer-request/{id}/reject", h.DoctorReject).Methods("PUT")
	router.HandleFunc("/transfer-request/{id}/admin-approve", h.AdminApprove).Methods("PUT")
	router.HandleFunc("/transfer-request/{id}/discharge", h.Discharge).Methods("POST")

	router.HandleFunc("/discharged-patients", h.ListDischarged).Methods("GET")
	router.HandleFunc("/discharged-patients/{id}", h.DeleteDischarge).Methods("DELETE")

	router.HandleFunc("/departments", h.ListDepartments).Methods("GET")
	router.HandleFunc("/users/{role}", h.ListUsersByRole).Methods("GET")
}

// Health проверяет доступность сервиса
// @Summary Проверка здоровья сервиса
// @Tags System
// @Produce json
// @Success 200 {object} map[string]interface{} "Статус сервиса"
// @Router /health [get]
func (h *HTTPHandler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":       "healthy",
		"model_loaded": true,
		"version":      predict.ModelVersion,
	})
}

// ModelInfo возвращает сведения о модели оценки готовности
// @Summary Информация о модели
// @Tags Prediction
// @Produce json
// @Success 200 {object} map[string]interface{} "Описание модели"
// @Router /model-info [get]
func (h *HTTPHandler) ModelInfo(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"model_type":        "rule-based",
		"features_expected": 10,
		"feature_names": []string{
			"HR", "SpO2", "RESP", "ABPsys", "lactate",
			"gcs", "age", "comorbidity_score", "on_vent", "on_pressors",
		},
	})
}

// Predict оценивает готовность пациента к переводу
// @Summary Оценка готовности к переводу
// @Description Принимает показатели пациента и возвращает вердикт о готовности к переводу из ОРИТ
// @Tags Prediction
// @Accept json
// @Produce json
// @Param request body models.PredictRequest true "Показатели пациента"
// @Success 200 {object} models.PredictResponse "Вердикт"
// @Failure 400 {object} map[string]interface{} "Неверный запрос"
// @Router /predict [post]
func (h *HTTPHandler) Predict(w http.ResponseWriter, r *http.Request) {
	var req models.PredictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	patient := &models.Patient{
		Age:              int(req.Age),
		ComorbidityScore: req.ComorbidityScore,
		OnVentilator:     req.OnVent,
		OnPressors:       req.OnPressors,
		Vitals: models.Vitals{
			HeartRate:       req.HR,
			SpO2:            req.SpO2,
			RespiratoryRate: req.RESP,
			SystolicBP:      req.ABPsys,
			Lactate:         req.Lactate,
			GCS:             req.GCS,
		},
	}

	result := predict.Assess(patient)

	verdict := "Not Ready"
	if result.TransferReady {
		verdict = "Ready"
	}

	respondJSON(w, http.StatusOK, models.PredictResponse{
		Prediction:   verdict,
		Probability:  result.Confidence,
		Confidence:   result.Confidence,
		Explanation:  result.Reasoning,
		RiskFactors:  result.RiskFactors,
		ModelVersion: predict.ModelVersion,
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
	})
}

// ListPatients возвращает пациентов ОРИТ со свежими вердиктами
// @Summary Список пациентов
// @Tags Patients
// @Produce json
// @Success 200 {array} models.Patient "Пациенты"
// @Router /patients [get]
func (h *HTTPHandler) ListPatients(w http.ResponseWriter, r *http.Request) {
	patients, err := h.repo.ListPatients(r.Context())
	if err != nil {
		log.Printf("[ERROR] Failed to list patients: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to list patients")
		return
	}

	// Каждому пациенту проставляем актуальный вердикт
	for i := range patients {
		prediction := predict.Assess(&patients[i])
		patients[i].Prediction = &prediction
	}

	respondJSON(w, http.StatusOK, patients)
}

// GetPatientVitals возвращает текущие показатели пациента
// @Summary Показатели пациента
// @Tags Patients
// @Produce json
// @Param id path string true "ID пациента"
// @Success 200 {object} models.Vitals "Показатели"
// @Failure 404 {object} map[string]interface{} "Пациент не найден"
// @Router /patient/{id}/vitals [get]
func (h *HTTPHandler) GetPatientVitals(w http.ResponseWriter, r *http.Request) {
	patientID := mux.Vars(r)["id"]

	// Сначала кэш: там лежит последний push, он свежее записи в БД
	if h.cache != nil {
		if update, err := h.cache.GetVitals(r.Context(), patientID); err == nil {
			respondJSON(w, http.StatusOK, models.Vitals{
				HeartRate:       update.HeartRate,
				SpO2:            update.SpO2,
				RespiratoryRate: update.RespiratoryRate,
				SystolicBP:      update.SystolicBP,
				GCS:             update.GCS,
				Lactate:         update.Lactate,
			})
			return
		}
	}

	patient, err := h.repo.GetPatient(r.Context(), patientID)
	if err != nil {
		respondError(w, http.StatusNotFound, "Patient not found")
		return
	}

	respondJSON(w, http.StatusOK, patient.Vitals)
}

// AddPatient регистрирует нового пациента
// @Summary Добавить пациента
// @Tags Patients
// @Accept json
// @Produce json
// @Param request body models.Patient true "Пациент"
// @Success 201 {object} models.Patient "Созданный пациент"
// @Failure 400 {object} map[string]interface{} "Неверный запрос"
// @Router /add-patient [post]
func (h *HTTPHandler) AddPatient(w http.ResponseWriter, r *http.Request) {
	var patient models.Patient
	if err := json.NewDecoder(r.Body).Decode(&patient); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if patient.ID == "" || patient.Name == "" {
		respondError(w, http.StatusBadRequest, "Patient id and name are required")
		return
	}

	now := time.Now()
	patient.LastUpdated = &now

	if err := h.repo.SavePatient(r.Context(), &patient); err != nil {
		log.Printf("[ERROR] Failed to save patient %s: %v", patient.ID, err)
		respondError(w, http.StatusInternalServerError, "Failed to save patient")
		return
	}

	h.sink.BroadcastEvent("patient_updated", patient)
	respondJSON(w, http.StatusCreated, patient)
}

// ListTransferRequests возвращает все заявки на перевод
// @Summary Список заявок на перевод
// @Tags Transfers
// @Produce json
// @Success 200 {array} models.TransferRequest "Заявки"
// @Router /transfer-requests [get]
func (h *HTTPHandler) ListTransferRequests(w http.ResponseWriter, r *http.Request) {
	requests, err := h.repo.ListTransferRequests(r.Context())
	if err != nil {
		log.Printf("[ERROR] Failed to list transfer requests: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to list transfer requests")
		return
	}

	respondJSON(w, http.StatusOK, requests)
}

// CreateTransferRequest создает заявку на перевод
// @Summary Создать заявку на перевод
// @Description Создает заявку в статусе pending. На пациента допускается только одна активная заявка.
// @Tags Transfers
// @Accept json
// @Produce json
// @Param request body models.TransferRequest true "Черновик заявки"
// @Success 201 {object} models.TransferRequest "Созданная заявка"
// @Failure 400 {object} map[string]interface{} "Неверный запрос"
// @Failure 409 {object} map[string]interface{} "Активная заявка уже существует"
// @Router /transfer-request [post]
func (h *HTTPHandler) CreateTransferRequest(w http.ResponseWriter, r *http.Request) {
	var request models.TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if request.PatientID == "" || request.NurseID == "" {
		respondError(w, http.StatusBadRequest, "patient_id and nurse_id are required")
		return
	}

	if _, err := h.repo.GetPatient(r.Context(), request.PatientID); err != nil {
		respondError(w, http.StatusNotFound, "Patient not found")
		return
	}

	now := time.Now()
	request.Status = models.StatusPending
	if request.CreatedAt.IsZero() {
		request.CreatedAt = now
	}
	request.UpdatedAt = now

	// Прикладываем вердикт на момент подачи заявки
	if request.MLPrediction == nil {
		if patient, err := h.repo.GetPatient(r.Context(), request.PatientID); err == nil {
			prediction := predict.Assess(patient)
			request.MLPrediction = &prediction
		}
	}

	if err := h.repo.CreateTransferRequest(r.Context(), &request); err != nil {
		if errors.Is(err, store.ErrActiveRequestExists) {
			respondError(w, http.StatusConflict, "Patient already has an active transfer request")
			return
		}
		log.Printf("[ERROR] Failed to create transfer request: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to create transfer request")
		return
	}

	h.sink.BroadcastEvent("transfer_request_created", request)
	respondJSON(w, http.StatusCreated, request)
}

// updateRequestBody - тело запросов изменения заявки
type updateRequestBody struct {
	Status           models.RequestStatus `json:"status,omitempty"`
	DoctorID         string               `json:"doctor_id,omitempty"`
	AdminID          string               `json:"department_admin_id,omitempty"`
	TargetDepartment string               `json:"target_department,omitempty"`
	Notes            string               `json:"notes,omitempty"`
}

// UpdateTransferRequest выполняет частичное обновление заявки
// @Summary Обновить заявку
// @Description Меняет статус и атрибуты заявки. Переход должен быть допустим по правилам workflow.
// @Tags Transfers
// @Accept json
// @Produce json
// @Param id path string true "ID заявки"
// @Param request body updateRequestBody true "Изменяемые поля"
// @Success 200 {object} models.TransferRequest "Обновленная заявка"
// @Failure 404 {object} map[string]interface{} "Заявка не найдена"
// @Failure 409 {object} map[string]interface{} "Недопустимый переход"
// @Router /transfer-request/{id} [put]
func (h *HTTPHandler) UpdateTransferRequest(w http.ResponseWriter, r *http.Request) {
	requestID := mux.Vars(r)["id"]

	var body updateRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	request, err := h.repo.GetTransferRequest(r.Context(), requestID)
	if err != nil {
		respondError(w, http.StatusNotFound, "Transfer request not found")
		return
	}

	if body.Status != "" && body.Status != request.Status {
		if !transitionAllowed(request.Status, body.Status) {
			respondError(w, http.StatusConflict, "Illegal status transition")
			return
		}
		request.Status = body.Status
	}
	if body.DoctorID != "" {
		request.DoctorID = body.DoctorID
	}
	if body.AdminID != "" {
		request.DepartmentAdminID = body.AdminID
	}
	if body.TargetDepartment != "" {
		request.TargetDepartment = body.TargetDepartment
	}
	if body.Notes != "" {
		request.Notes = body.Notes
	}
	request.UpdatedAt = time.Now()

	if err := h.repo.UpdateTransferRequest(r.Context(), request); err != nil {
		log.Printf("[ERROR] Failed to update transfer request %s: %v", requestID, err)
		respondError(w, http.StatusInternalServerError, "Failed to update transfer request")
		return
	}

	h.sink.BroadcastEvent("transfer_request_updated", request)
	respondJSON(w, http.StatusOK, request)
}

// transitionAllowed проверяет, достижим ли статус to из from одним действием
func transitionAllowed(from, to models.RequestStatus) bool {
	for _, action := range []workflow.Action{
		workflow.ActionDoctorApprove,
		workflow.ActionDoctorReject,
		workflow.ActionAdminApprove,
		workflow.ActionAdminReject,
		workflow.ActionDischarge,
	} {
		if next, err := workflow.Transition(from, action); err == nil && next == to {
			return true
		}
	}
	return false
}

// DoctorApprove - одобрение заявки врачом
// @Summary Одобрить заявку (врач)
// @Tags Transfers
// @Accept json
// @Produce json
// @Param id path string true "ID заявки"
// @Param request body updateRequestBody true "doctor_id, target_department, notes"
// @Success 200 {object} models.TransferRequest "Обновленная заявка"
// @Failure 409 {object} map[string]interface{} "Недопустимый переход"
// @Router /transfer-request/{id}/approve [put]
func (h *HTTPHandler) DoctorApprove(w http.ResponseWriter, r *http.Request) {
	h.applyWorkflowAction(w, r, func(request *models.TransferRequest, body updateRequestBody) error {
		return workflow.ApplyDoctorApprove(request, body.DoctorID, body.TargetDepartment, body.Notes)
	})
}

// DoctorReject - отклонение заявки врачом
// @Summary Отклонить заявку (врач)
// @Tags Transfers
// @Accept json
// @Produce json
// @Param id path string true "ID заявки"
// @Param request body updateRequestBody true "doctor_id, notes"
// @Success 200 {object} models.TransferRequest "Обновленная заявка"
// @Failure 409 {object} map[string]interface{} "Недопустимый переход"
// @Router /transfer-request/{id}/reject [put]
func (h *HTTPHandler) DoctorReject(w http.ResponseWriter, r *http.Request) {
	h.applyWorkflowAction(w, r, func(request *models.TransferRequest, body updateRequestBody) error {
		return workflow.ApplyDoctorReject(request, body.DoctorID, body.Notes)
	})
}

// AdminApprove - одобрение заявки администратором отделения
// @Summary Одобрить заявку (администратор)
// @Tags Transfers
// @Accept json
// @Produce json
// @Param id path string true "ID заявки"
// @Param request body updateRequestBody true "department_admin_id, target_department, notes"
// @Success 200 {object} models.TransferRequest "Обновленная заявка"
// @Failure 409 {object} map[string]interface{} "Недопустимый переход"
// @Router /transfer-request/{id}/admin-approve [put]
func (h *HTTPHandler) AdminApprove(w http.ResponseWriter, r *http.Request) {
	h.applyWorkflowAction(w, r, func(request *models.TransferRequest, body updateRequestBody) error {
		return workflow.ApplyAdminApprove(request, body.AdminID, body.TargetDepartment, body.Notes)
	})
}

// applyWorkflowAction - общий каркас шагов согласования: загрузить,
// применить действие, сохранить, разослать событие
func (h *HTTPHandler) applyWorkflowAction(w http.ResponseWriter, r *http.Request, apply func(*models.TransferRequest, updateRequestBody) error) {
	requestID := mux.Vars(r)["id"]

	var body updateRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		// Тело опционально для отклонений
		body = updateRequestBody{}
	}

	request, err := h.repo.GetTransferRequest(r.Context(), requestID)
	if err != nil {
		respondError(w, http.StatusNotFound, "Transfer request not found")
		return
	}

	if err := apply(request, body); err != nil {
		respondError(w, http.StatusConflict, err.Error())
		return
	}

	if err := h.repo.UpdateTransferRequest(r.Context(), request); err != nil {
		log.Printf("[ERROR] Failed to update transfer request %s: %v", requestID, err)
		respondError(w, http.StatusInternalServerError, "Failed to update transfer request")
		return
	}

	h.sink.BroadcastEvent("transfer_request_updated", request)
	respondJSON(w, http.StatusOK, request)
}

// Discharge завершает перевод пациента
// @Summary Выписать пациента
// @Description Переводит заявку в completed, снимает пациента с учета и создает запись аудита
// @Tags Transfers
// @Accept json
// @Produce json
// @Param id path string true "ID заявки"
// @Param request body updateRequestBody false "department_admin_id, notes"
// @Success 200 {object} models.DischargeResult "Результат выписки"
// @Failure 404 {object} map[string]interface{} "Заявка не найдена"
// @Failure 409 {object} map[string]interface{} "Недопустимый переход"
// @Router /transfer-request/{id}/discharge [post]
func (h *HTTPHandler) Discharge(w http.ResponseWriter, r *http.Request) {
	requestID := mux.Vars(r)["id"]

	var body updateRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		body = updateRequestBody{}
	}

	request, err := h.repo.GetTransferRequest(r.Context(), requestID)
	if err != nil {
		respondError(w, http.StatusNotFound, "Transfer request not found")
		return
	}

	if err := workflow.ApplyDischarge(request, body.Notes); err != nil {
		respondError(w, http.StatusConflict, err.Error())
		return
	}
	if body.AdminID != "" {
		request.DepartmentAdminID = body.AdminID
	}

	patient, err := h.repo.GetPatient(r.Context(), request.PatientID)
	if err != nil {
		respondError(w, http.StatusNotFound, "Patient not found")
		return
	}

	record := &models.DischargeRecord{
		PatientID:         patient.ID,
		Name:              patient.Name,
		TimeDischarged:    time.Now(),
		TargetDepartment:  request.TargetDepartment,
		NurseID:           request.NurseID,
		DoctorID:          request.DoctorID,
		DepartmentAdminID: request.DepartmentAdminID,
		TransferRequestID: request.ID,
	}
	if err := h.repo.SaveDischarge(r.Context(), record); err != nil {
		log.Printf("[ERROR] Failed to save discharge record: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to save discharge record")
		return
	}

	if err := h.repo.UpdateTransferRequest(r.Context(), request); err != nil {
		log.Printf("[ERROR] Failed to complete transfer request %s: %v", requestID, err)
		respondError(w, http.StatusInternalServerError, "Failed to complete transfer request")
		return
	}

	if err := h.repo.DeletePatient(r.Context(), request.PatientID); err != nil {
		log.Printf("[WARN] Failed to remove discharged patient %s: %v", request.PatientID, err)
	}
	if h.cache != nil {
		if err := h.cache.InvalidatePatient(r.Context(), request.PatientID); err != nil {
			log.Printf("[WARN] Failed to invalidate cache for %s: %v", request.PatientID, err)
		}
	}

	h.sink.BroadcastEvent("patient_discharged", map[string]interface{}{
		"request_id": request.ID,
		"patient_id": request.PatientID,
	})

	respondJSON(w, http.StatusOK, models.DischargeResult{
		Success: true,
		Message: "Patient discharged",
	})
}

// ListDischarged возвращает историю выписок
// @Summary История выписок
// @Tags Discharges
// @Produce json
// @Success 200 {array} models.DischargeRecord "Записи о выписках"
// @Router /discharged-patients [get]
func (h *HTTPHandler) ListDischarged(w http.ResponseWriter, r *http.Request) {
	records, err := h.repo.ListDischarges(r.Context())
	if err != nil {
		log.Printf("[ERROR] Failed to list discharges: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to list discharges")
		return
	}

	respondJSON(w, http.StatusOK, records)
}

// DeleteDischarge удаляет запись о выписке
// @Summary Удалить запись о выписке
// @Tags Discharges
// @Produce json
// @Param id path string true "ID записи"
// @Success 200 {object} map[string]interface{} "Результат"
// @Failure 404 {object} map[string]interface{} "Запись не найдена"
// @Router /discharged-patients/{id} [delete]
func (h *HTTPHandler) DeleteDischarge(w http.ResponseWriter, r *http.Request) {
	dischargeID := mux.Vars(r)["id"]

	if err := h.repo.DeleteDischarge(r.Context(), dischargeID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Discharge record not found")
			return
		}
		log.Printf("[ERROR] Failed to delete discharge %s: %v", dischargeID, err)
		respondError(w, http.StatusInternalServerError, "Failed to delete discharge record")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message":      "Discharge record deleted",
		"discharge_id": dischargeID,
	})
}

// ListDepartments возвращает отделения с загруженностью
// @Summary Список отделений
// @Tags Reference
// @Produce json
// @Success 200 {array} models.Department "Отделения"
// @Router /departments [get]
func (h *HTTPHandler) ListDepartments(w http.ResponseWriter, r *http.Request) {
	departments, err := h.repo.ListDepartments(r.Context())
	if err != nil {
		log.Printf("[ERROR] Failed to list departments: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to list departments")
		return
	}

	respondJSON(w, http.StatusOK, departments)
}

// ListUsersByRole возвращает пользователей с заданной ролью
// @Summary Пользователи по роли
// @Tags Reference
// @Produce json
// @Param role path string true "Роль (nurse, doctor, admin)"
// @Success 200 {array} models.User "Пользователи"
// @Router /users/{role} [get]
func (h *HTTPHandler) ListUsersByRole(w http.ResponseWriter, r *http.Request) {
	role := mux.Vars(r)["role"]

	users, err := h.repo.ListUsersByRole(r.Context(), role)
	if err != nil {
		log.Printf("[ERROR] Failed to list users: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to list users")
		return
	}

	respondJSON(w, http.StatusOK, users)
}

// ===== Утилиты =====

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("[ERROR] Failed to encode JSON response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]interface{}{
		"error":  message,
		"status": status,
	})
}
