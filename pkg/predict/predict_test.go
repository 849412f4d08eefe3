package predict

import (
	"strings"
	"testing"

	"github.com/Krimson/icu-transfer/pkg/models"
)

func floatPtr(v float64) *float64 { return &v }

// stablePatient - пациент со стабильными показателями, готовый к переводу
func stablePatient() *models.Patient {
	return &models.Patient{
		ID:   "ICU-001",
		Name: "Lucas Edwards",
		Age:  54,
		Vitals: models.Vitals{
			HeartRate:       78,
			SpO2:            98,
			RespiratoryRate: 14,
			SystolicBP:      120,
			DiastolicBP:     floatPtr(80),
			Temperature:     36.8,
			GCS:             15,
			Lactate:         1.1,
		},
	}
}

func TestAssess_LifeSupportOverridesEverything(t *testing.T) {
	// Вентиляция или вазопрессоры дают "не готов" с confidence 0.95
	// независимо от остальных показателей
	onVent := stablePatient()
	onVent.OnVentilator = true

	onPressors := stablePatient()
	onPressors.OnPressors = true

	for _, p := range []*models.Patient{onVent, onPressors} {
		verdict := Assess(p)
		if verdict.TransferReady {
			t.Errorf("Expected not ready for patient on life support")
		}
		if verdict.Confidence != 0.95 {
			t.Errorf("Expected confidence 0.95, got %.2f", verdict.Confidence)
		}
	}
}

func TestAssess_HighSOFANotReady(t *testing.T) {
	// SpO2 88 (3 балла) + GCS 9 (3 балла) = 6, без жизнеобеспечения
	p := stablePatient()
	p.Vitals.SpO2 = 88
	p.Vitals.GCS = 9

	verdict := Assess(p)
	if verdict.TransferReady {
		t.Errorf("Expected not ready for SOFA >= 6")
	}
	if verdict.Confidence != 0.90 {
		t.Errorf("Expected confidence 0.90, got %.2f", verdict.Confidence)
	}
}

func TestStabilityScore_MonotoneHeartRate(t *testing.T) {
	// Чем дальше пульс от коридора 60-100, тем меньше стабильность
	hrs := []float64{100, 130, 150}
	prev := 2.0
	for _, hr := range hrs {
		p := stablePatient()
		p.Vitals.HeartRate = hr
		score := stabilityScore(p)
		if score > prev {
			t.Errorf("Stability increased when HR moved to %.0f: %.2f > %.2f", hr, score, prev)
		}
		prev = score
	}
}

func TestStabilityScore_MonotoneSpO2(t *testing.T) {
	spo2s := []float64{96, 92, 85}
	prev := 2.0
	for _, s := range spo2s {
		p := stablePatient()
		p.Vitals.SpO2 = s
		score := stabilityScore(p)
		if score > prev {
			t.Errorf("Stability increased when SpO2 moved to %.0f: %.2f > %.2f", s, score, prev)
		}
		prev = score
	}
}

func TestStabilityScore_FlooredAtZero(t *testing.T) {
	p := stablePatient()
	p.Vitals.HeartRate = 170
	p.Vitals.SpO2 = 80
	p.Vitals.SystolicBP = 60
	p.Vitals.DiastolicBP = floatPtr(35)
	p.Vitals.Temperature = 40.5
	p.Vitals.RespiratoryRate = 38

	if score := stabilityScore(p); score != 0 {
		t.Errorf("Expected stability floored at 0, got %.2f", score)
	}
}

func TestAssess_ElevatedLactateScenario(t *testing.T) {
	// Пациент P1: lactate 5.2, не на вентиляции
	p := stablePatient()
	p.Vitals.Lactate = 5.2

	verdict := Assess(p)
	if verdict.TransferReady {
		t.Errorf("Expected not ready for lactate 5.2")
	}
	if verdict.Confidence != 0.88 {
		t.Errorf("Expected confidence 0.88, got %.2f", verdict.Confidence)
	}
	if !strings.Contains(strings.ToLower(verdict.Reasoning), "lactate") {
		t.Errorf("Expected reasoning to mention lactate, got %q", verdict.Reasoning)
	}

	found := false
	for _, f := range verdict.RiskFactors {
		if f == "Elevated lactate" {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected risk factors to include 'Elevated lactate', got %v", verdict.RiskFactors)
	}
}

func TestAssess_LowGCSNotReady(t *testing.T) {
	p := stablePatient()
	p.Vitals.GCS = 12

	verdict := Assess(p)
	if verdict.TransferReady {
		t.Errorf("Expected not ready for GCS < 13")
	}
	if verdict.Confidence != 0.85 {
		t.Errorf("Expected confidence 0.85, got %.2f", verdict.Confidence)
	}
}

func TestAssess_StablePatientReady(t *testing.T) {
	verdict := Assess(stablePatient())
	if !verdict.TransferReady {
		t.Fatalf("Expected stable patient to be ready, reasoning: %s", verdict.Reasoning)
	}
	// stability 1.0 -> confidence min(0.95, 0.7 + 0.25) = 0.95
	if verdict.Confidence != 0.95 {
		t.Errorf("Expected confidence 0.95, got %.2f", verdict.Confidence)
	}
	if len(verdict.RiskFactors) != 1 || verdict.RiskFactors[0] != "Low risk profile" {
		t.Errorf("Expected ['Low risk profile'], got %v", verdict.RiskFactors)
	}
}

func TestAssess_RiskFactorsCollected(t *testing.T) {
	p := stablePatient()
	p.Age = 81
	p.Vitals.SpO2 = 89
	p.Vitals.GCS = 11
	p.LabValues = &models.LabValues{Creatinine: 3.1}
	p.Comorbidities = []string{"COPD", "CHF", "Diabetes"}

	verdict := Assess(p)
	expected := []string{"Altered mental status", "Renal dysfunction", "Hypoxemia", "Advanced age", "Multiple comorbidities"}
	for _, want := range expected {
		found := false
		for _, got := range verdict.RiskFactors {
			if got == want {
				found = true
			}
		}
		if !found {
			t.Errorf("Expected risk factor %q, got %v", want, verdict.RiskFactors)
		}
	}
}

func TestAssess_NeverPanics(t *testing.T) {
	// Нулевой снимок приводит к панике внутри - наружу выходит
	// консервативный результат
	verdict := Assess(nil)
	if verdict.TransferReady {
		t.Errorf("Expected conservative verdict to be not ready")
	}
	if verdict.Confidence != 0.5 {
		t.Errorf("Expected confidence 0.5, got %.2f", verdict.Confidence)
	}
	if len(verdict.RiskFactors) != 1 || verdict.RiskFactors[0] != "Assessment unavailable" {
		t.Errorf("Expected ['Assessment unavailable'], got %v", verdict.RiskFactors)
	}
}

func TestMeanArterialPressure(t *testing.T) {
	// (120 + 2*80)/3
	v := models.Vitals{SystolicBP: 120, DiastolicBP: floatPtr(80)}
	if moap := meanArterialPressure(v); moap < 93.2 || moap > 93.4 {
		t.Errorf("Expected MAP ~93.3, got %.2f", moap)
	}

	// Диастолическое по умолчанию 60: (120 + 120)/3 = 80
	v = models.Vitals{SystolicBP: 120}
	if moap := meanArterialPressure(v); moap != 80 {
		t.Errorf("Expected MAP 80 with default diastolic, got %.2f", moap)
	}

	// Измеренное meanBP имеет приоритет
	v = models.Vitals{SystolicBP: 120, MeanBP: floatPtr(72)}
	if moap := meanArterialPressure(v); moap != 72 {
		t.Errorf("Expected measured MAP 72, got %.2f", moap)
	}
}
