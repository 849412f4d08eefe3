package sync

import (
	"context"
	"fmt"
	"log"
	gosync "sync"
	"time"

	"github.com/google/uuid"

	"github.com/Krimson/icu-transfer/dashboard/internal/eventbus"
	"github.com/Krimson/icu-transfer/dashboard/internal/transport"
	"github.com/Krimson/icu-transfer/pkg/models"
)

// DomainClient - часть клиента бекенда, нужная координатору для refetch
type DomainClient interface {
	ListPatients(ctx context.Context) ([]models.Patient, error)
	ListTransferRequests(ctx context.Context) ([]models.TransferRequest, error)
}

// PatientsCallback вызывается после каждого изменения локального списка пациентов
type PatientsCallback func(patients []models.Patient)

// TransferRequestsCallback вызывается после каждого изменения списка заявок
type TransferRequestsCallback func(requests []models.TransferRequest)

// Coordinator держит локальные снимки пациентов и заявок в согласии
// с бекендом. Точечные события (vitals_update) накатываются на месте,
// структурные изменения ведут к перезапросу всей коллекции - истина
// всегда на сервере.
type Coordinator struct {
	client DomainClient

	mu            gosync.Mutex
	patients      []models.Patient
	requests      []models.TransferRequest
	notifications []models.Notification

	// Ровно один слот на коллекцию, повторная установка замещает
	patientsCb PatientsCallback
	requestsCb TransferRequestsCallback
}

// New создает координатор и подписывает его на события шины
func New(bus *eventbus.Bus, client DomainClient) *Coordinator {
	c := &Coordinator{client: client}

	bus.Subscribe(string(transport.EventVitalsUpdate), c.onVitalsUpdate)
	bus.Subscribe(string(transport.EventPatientUpdated), c.onPatientUpdated)
	bus.Subscribe(string(transport.EventPatientDischarged), c.onPatientDischarged)
	bus.Subscribe(string(transport.EventTransferRequestCreated), c.onTransferRequestChanged)
	bus.Subscribe(string(transport.EventTransferRequestUpdated), c.onTransferRequestChanged)

	return c
}

// Refresh перечитывает обе коллекции с бекенда
func (c *Coordinator) Refresh(ctx context.Context) error {
	if err := c.refetchPatients(ctx); err != nil {
		return err
	}
	return c.refetchTransferRequests(ctx)
}

// SetPatientsCallback регистрирует единственный обработчик изменений
// списка пациентов. Повторный вызов замещает предыдущий.
func (c *Coordinator) SetPatientsCallback(cb PatientsCallback) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.patientsCb = cb
}

// SetTransferRequestsCallback регистрирует единственный обработчик
// изменений списка заявок. Повторный вызов замещает предыдущий.
func (c *Coordinator) SetTransferRequestsCallback(cb TransferRequestsCallback) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requestsCb = cb
}

// Patients возвращает копию текущего снимка пациентов
func (c *Coordinator) Patients() []models.Patient {
	c.mu.Lock()
	defer c.mu.Unlock()
	return clonePatients(c.patients)
}

// TransferRequests возвращает копию текущего снимка заявок
func (c *Coordinator) TransferRequests() []models.TransferRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneRequests(c.requests)
}

// Notifications возвращает накопленные уведомления (новые в конце)
func (c *Coordinator) Notifications() []models.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Notification, len(c.notifications))
	copy(out, c.notifications)
	return out
}

// ClearNotification удаляет одно уведомление по id
func (c *Coordinator) ClearNotification(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, n := range c.notifications {
		if n.ID == id {
			c.notifications = append(c.notifications[:i], c.notifications[i+1:]...)
			return
		}
	}
}

// ClearNotifications удаляет все уведомления
func (c *Coordinator) ClearNotifications() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notifications = nil
}

// onVitalsUpdate накатывает показатели на пациента в локальном снимке.
// Неизвестный пациент не повод для refetch - ждем patient_updated.
func (c *Coordinator) onVitalsUpdate(payload interface{}) {
	ev, ok := payload.(*transport.Event)
	if !ok || ev.Vitals == nil {
		return
	}
	update := ev.Vitals

	c.mu.Lock()
	var snapshot []models.Patient
	for i := range c.patients {
		if c.patients[i].ID != update.PatientID {
			continue
		}
		p := &c.patients[i]
		p.Vitals.HeartRate = update.HeartRate
		p.Vitals.SpO2 = update.SpO2
		p.Vitals.RespiratoryRate = update.RespiratoryRate
		p.Vitals.SystolicBP = update.SystolicBP
		p.Vitals.Lactate = update.Lactate
		p.Vitals.GCS = update.GCS

		now := time.Now()
		if update.Timestamp != nil {
			now = *update.Timestamp
		}
		p.LastUpdated = &now

		snapshot = clonePatients(c.patients)
		break
	}
	cb := c.patientsCb
	c.mu.Unlock()

	if snapshot != nil && cb != nil {
		cb(snapshot)
	}
}

func (c *Coordinator) onPatientUpdated(payload interface{}) {
	if err := c.refetchPatients(context.Background()); err != nil {
		log.Printf("[SYNC] Failed to refresh patients after patient_updated: %v", err)
	}
}

// onPatientDischarged инвалидирует обе коллекции: пациент исчезает из
// списка, его заявка становится completed. Ровно один refetch на каждую.
func (c *Coordinator) onPatientDischarged(payload interface{}) {
	ev, _ := payload.(*transport.Event)

	if err := c.refetchPatients(context.Background()); err != nil {
		log.Printf("[SYNC] Failed to refresh patients after discharge: %v", err)
	}
	if err := c.refetchTransferRequests(context.Background()); err != nil {
		log.Printf("[SYNC] Failed to refresh transfer requests after discharge: %v", err)
	}

	message := "Patient discharged from ICU"
	if ev != nil && ev.Discharge != nil && ev.Discharge.PatientID != "" {
		message = fmt.Sprintf("Patient %s discharged from ICU", ev.Discharge.PatientID)
	}
	c.addNotification("discharge", "Transfer completed", message)
}

func (c *Coordinator) onTransferRequestChanged(payload interface{}) {
	if err := c.refetchTransferRequests(context.Background()); err != nil {
		log.Printf("[SYNC] Failed to refresh transfer requests: %v", err)
		return
	}

	ev, _ := payload.(*transport.Event)
	if ev == nil || ev.TransferRequest == nil {
		return
	}
	switch ev.Type {
	case transport.EventTransferRequestCreated:
		c.addNotification("transfer_request", "New transfer request",
			fmt.Sprintf("Transfer requested for patient %s", ev.TransferRequest.PatientID))
	case transport.EventTransferRequestUpdated:
		c.addNotification("transfer_request", "Transfer request updated",
			fmt.Sprintf("Request for patient %s is now %s", ev.TransferRequest.PatientID, ev.TransferRequest.Status))
	}
}

// refetchPatients перечитывает пациентов. Неудача логируется без повтора:
// следующее событие или ручной Refresh догонят состояние.
func (c *Coordinator) refetchPatients(ctx context.Context) error {
	patients, err := c.client.ListPatients(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.patients = patients
	snapshot := clonePatients(c.patients)
	cb := c.patientsCb
	c.mu.Unlock()

	if cb != nil {
		cb(snapshot)
	}
	return nil
}

func (c *Coordinator) refetchTransferRequests(ctx context.Context) error {
	requests, err := c.client.ListTransferRequests(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.requests = requests
	snapshot := cloneRequests(c.requests)
	cb := c.requestsCb
	c.mu.Unlock()

	if cb != nil {
		cb(snapshot)
	}
	return nil
}

func (c *Coordinator) addNotification(kind, title, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notifications = append(c.notifications, models.Notification{
		ID:        uuid.New().String(),
		Type:      kind,
		Title:     title,
		Message:   message,
		Timestamp: time.Now(),
	})
}

func clonePatients(src []models.Patient) []models.Patient {
	out := make([]models.Patient, len(src))
	copy(out, src)
	return out
}

func cloneRequests(src []models.TransferRequest) []models.TransferRequest {
	out := make([]models.TransferRequest, len(src))
	copy(out, src)
	return out
}
