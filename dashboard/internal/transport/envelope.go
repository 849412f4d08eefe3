package transport

import (
	"encoding/json"
	"fmt"

	"github.com/Krimson/icu-transfer/pkg/models"
)

// EventType - тип входящего события в конверте {type, data}
type EventType string

const (
	EventVitalsUpdate           EventType = "vitals_update"
	EventPatientUpdated         EventType = "patient_updated"
	EventPatientDischarged      EventType = "patient_discharged"
	EventTransferRequestCreated EventType = "transfer_request_created"
	EventTransferRequestUpdated EventType = "transfer_request_updated"
)

// envelope - сырой конверт сообщения с сервера
type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// DischargeEvent - полезная нагрузка события patient_discharged
type DischargeEvent struct {
	RequestID json.Number `json:"request_id"`
	PatientID string      `json:"patient_id,omitempty"`
}

// Event - закрытое размеченное объединение входящих событий.
// Для каждого распознанного типа заполнено ровно одно типизированное поле,
// нераспознанные типы несут сырой JSON в Raw (forward-compatible).
type Event struct {
	Type EventType

	Vitals          *models.VitalsUpdate
	Patient         *models.Patient
	Discharge       *DischargeEvent
	TransferRequest *models.TransferRequest

	Raw json.RawMessage
}

// DecodeEnvelope разбирает конверт {type, data} в типизированное событие.
// Ошибка возвращается только при нечитаемом JSON, неизвестный тип - не ошибка.
func DecodeEnvelope(data []byte) (*Event, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to parse envelope: %w", err)
	}
	if env.Type == "" {
		return nil, fmt.Errorf("envelope has empty type")
	}

	ev := &Event{Type: EventType(env.Type), Raw: env.Data}

	switch ev.Type {
	case EventVitalsUpdate:
		var payload models.VitalsUpdate
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			return nil, fmt.Errorf("failed to parse vitals_update payload: %w", err)
		}
		ev.Vitals = &payload

	case EventPatientUpdated:
		var payload models.Patient
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			return nil, fmt.Errorf("failed to parse patient_updated payload: %w", err)
		}
		ev.Patient = &payload

	case EventPatientDischarged:
		var payload DischargeEvent
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			return nil, fmt.Errorf("failed to parse patient_discharged payload: %w", err)
		}
		ev.Discharge = &payload

	case EventTransferRequestCreated, EventTransferRequestUpdated:
		var payload models.TransferRequest
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			return nil, fmt.Errorf("failed to parse transfer request payload: %w", err)
		}
		ev.TransferRequest = &payload
	}

	return ev, nil
}
