package vitalsgen

import (
	"math/rand"
	"sync"
	"time"

	"github.com/Krimson/icu-transfer/pkg/models"
)

// Pattern определяет траекторию показателей пациента
type Pattern string

const (
	PatternStable        Pattern = "stable"
	PatternDeteriorating Pattern = "deteriorating"
	PatternImproving     Pattern = "improving"
	PatternCritical      Pattern = "critical"
)

// Физиологические пределы генерируемых значений
const (
	minHeartRate = 30.0
	maxHeartRate = 200.0
	minSpO2      = 70.0
	maxSpO2      = 100.0
	minResp      = 5.0
	maxResp      = 45.0
	minSystolic  = 60.0
	maxSystolic  = 220.0
	minGCS       = 3.0
	maxGCS       = 15.0
	minLactate   = 0.3
	maxLactate   = 12.0
)

type patientState struct {
	pattern Pattern
	current models.Vitals

	// Накопленный дрейф в долях от полного ухудшения (0..1)
	drift float64
}

// Generator выдает правдоподобные показатели для отслеживаемых пациентов.
// Стабильный пациент колеблется вокруг базовых значений, ухудшающийся
// дрейфует к критическим, улучшающийся - обратно к базовым.
type Generator struct {
	rand *rand.Rand

	mu     sync.Mutex
	states map[string]*patientState
}

// New создает генератор с заданным seed (0 = от текущего времени)
func New(seed int64) *Generator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{
		rand:   rand.New(rand.NewSource(seed)),
		states: make(map[string]*patientState),
	}
}

// Track начинает отслеживать пациента с заданной траекторией
func (g *Generator) Track(patientID string, base models.Vitals, pattern Pattern) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.states[patientID] = &patientState{
		pattern: pattern,
		current: base,
	}
}

// Untrack прекращает отслеживание пациента
func (g *Generator) Untrack(patientID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.states, patientID)
}

// IsTracked сообщает, отслеживается ли пациент
func (g *Generator) IsTracked(patientID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.states[patientID]
	return ok
}

// Tracked возвращает число отслеживаемых пациентов
func (g *Generator) Tracked() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.states)
}

// Next генерирует следующий снимок показателей пациента
func (g *Generator) Next(patientID string) (*models.VitalsUpdate, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	state, ok := g.states[patientID]
	if !ok {
		return nil, false
	}
	return g.step(patientID, state), true
}

// NextAll генерирует снимки для всех отслеживаемых пациентов
func (g *Generator) NextAll() []*models.VitalsUpdate {
	g.mu.Lock()
	defer g.mu.Unlock()

	updates := make([]*models.VitalsUpdate, 0, len(g.states))
	for patientID, state := range g.states {
		updates = append(updates, g.step(patientID, state))
	}
	return updates
}

func (g *Generator) step(patientID string, state *patientState) *models.VitalsUpdate {
	switch state.pattern {
	case PatternDeteriorating:
		state.drift += 0.01
		if state.drift > 1.0 {
			state.drift = 1.0
		}
	case PatternImproving:
		state.drift -= 0.02
		if state.drift < 0 {
			state.drift = 0
		}
	case PatternCritical:
		state.drift = 0.8
	}

	v := &state.current
	drift := state.drift

	hr := clamp(v.HeartRate+drift*40+g.jitter(3), minHeartRate, maxHeartRate)
	spo2 := clamp(v.SpO2-drift*10+g.jitter(1), minSpO2, maxSpO2)
	resp := clamp(v.RespiratoryRate+drift*12+g.jitter(1.5), minResp, maxResp)
	sys := clamp(v.SystolicBP-drift*35+g.jitter(4), minSystolic, maxSystolic)
	gcs := clamp(v.GCS-drift*4, minGCS, maxGCS)
	lactate := clamp(v.Lactate+drift*3.5+g.jitter(0.2), minLactate, maxLactate)

	now := time.Now()
	return &models.VitalsUpdate{
		PatientID:        patientID,
		HeartRate:        round1(hr),
		SpO2:             round1(spo2),
		RespiratoryRate:  round1(resp),
		SystolicBP:       round1(sys),
		GCS:              float64(int(gcs)),
		Lactate:          round1(lactate),
		StabilityPattern: string(state.pattern),
		Timestamp:        &now,
	}
}

// jitter возвращает случайное отклонение в пределах +-amplitude
func (g *Generator) jitter(amplitude float64) float64 {
	return (g.rand.Float64()*2 - 1) * amplitude
}

func clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

func round1(value float64) float64 {
	return float64(int(value*10+0.5)) / 10
}
