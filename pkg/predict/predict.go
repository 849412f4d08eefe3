package predict

import (
	"fmt"
	"log"
	"math"
	"time"

	"github.com/Krimson/icu-transfer/pkg/models"
)

// Пакет predict - локальный резервный оценщик готовности к переводу.
// Используется, когда ML сервис недоступен: детерминированное правило
// по снимку пациента, без обращения к сети.

const ModelVersion = "fallback-rules-1.0.0"

// Assess вычисляет вердикт по снимку пациента. Функция тотальная:
// любая внутренняя паника превращается в максимально консервативный
// результат "не готов, confidence 0.5".
func Assess(p *models.Patient) (result models.Prediction) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[PREDICT] Fallback assessment panic recovered: %v", r)
			now := time.Now()
			result = models.Prediction{
				TransferReady: false,
				Confidence:    0.5,
				Reasoning:     "Assessment unavailable - requires clinical evaluation",
				RiskFactors:   []string{"Assessment unavailable"},
				Timestamp:     &now,
			}
		}
	}()
	return assess(p)
}

func assess(p *models.Patient) models.Prediction {
	sofa := sofaScore(p)
	stability := stabilityScore(p)
	risks := riskFactors(p)
	now := time.Now()

	verdict := models.Prediction{
		RiskFactors: risks,
		Timestamp:   &now,
	}

	// Упорядоченный список решений, срабатывает первое подходящее правило
	switch {
	case p.OnVentilator || p.OnPressors:
		verdict.TransferReady = false
		verdict.Confidence = 0.95
		verdict.Reasoning = "Patient is on life support (ventilator/pressors) and requires continued ICU care"

	case sofa >= 6:
		verdict.TransferReady = false
		verdict.Confidence = 0.90
		verdict.Reasoning = fmt.Sprintf("High severity score (SOFA-like %d) indicates multi-organ risk", sofa)

	case p.Vitals.Lactate > 4.0:
		verdict.TransferReady = false
		verdict.Confidence = 0.88
		verdict.Reasoning = fmt.Sprintf("Elevated lactate (%.1f mmol/L) suggests inadequate tissue perfusion", p.Vitals.Lactate)

	case p.Vitals.GCS < 13:
		verdict.TransferReady = false
		verdict.Confidence = 0.85
		verdict.Reasoning = fmt.Sprintf("Reduced consciousness (GCS %.0f) requires ICU-level monitoring", p.Vitals.GCS)

	case stability < 0.7:
		verdict.TransferReady = false
		verdict.Confidence = 0.80
		verdict.Reasoning = fmt.Sprintf("Unstable vital signs (stability %.2f) - transfer not recommended", stability)

	default:
		verdict.TransferReady = true
		verdict.Confidence = math.Min(0.95, 0.7+stability*0.25)
		verdict.Reasoning = fmt.Sprintf("Stable clinical parameters (stability %.2f, SOFA-like %d) - safe for transfer", stability, sofa)
	}

	return verdict
}

// meanArterialPressure считает САД как (sys + 2*dia)/3.
// Если есть измеренное meanBP - берем его, диастолическое по умолчанию 60.
func meanArterialPressure(v models.Vitals) float64 {
	if v.MeanBP != nil {
		return *v.MeanBP
	}
	dia := 60.0
	if v.DiastolicBP != nil {
		dia = *v.DiastolicBP
	}
	return (v.SystolicBP + 2*dia) / 3
}

// sofaScore - упрощенный SOFA-подобный балл тяжести, 0-4 на компонент
func sofaScore(p *models.Patient) int {
	score := 0

	// Дыхание (по SpO2 вместо PaO2/FiO2)
	switch {
	case p.Vitals.SpO2 >= 97:
	case p.Vitals.SpO2 >= 94:
		score += 1
	case p.Vitals.SpO2 >= 90:
		score += 2
	case p.Vitals.SpO2 >= 85:
		score += 3
	default:
		score += 4
	}

	// Гемодинамика: вазопрессоры перекрывают САД
	moap := meanArterialPressure(p.Vitals)
	switch {
	case p.OnPressors:
		score += 4
	case moap < 60:
		score += 2
	case moap < 70:
		score += 1
	}

	if p.LabValues != nil {
		// Печень (билирубин, mg/dL)
		switch b := p.LabValues.Bilirubin; {
		case b < 1.2:
		case b < 2.0:
			score += 1
		case b < 6.0:
			score += 2
		case b < 12.0:
			score += 3
		default:
			score += 4
		}

		// Почки (креатинин, mg/dL)
		switch c := p.LabValues.Creatinine; {
		case c < 1.2:
		case c < 2.0:
			score += 1
		case c < 3.5:
			score += 2
		case c < 5.0:
			score += 3
		default:
			score += 4
		}
	}

	// ЦНС (GCS)
	switch {
	case p.Vitals.GCS >= 15:
	case p.Vitals.GCS >= 13:
		score += 1
	case p.Vitals.GCS >= 10:
		score += 2
	case p.Vitals.GCS >= 6:
		score += 3
	default:
		score += 4
	}

	return score
}

// stabilityScore - балл стабильности витальных показателей: старт 1.0,
// фиксированные штрафы за выход из безопасного коридора, пол 0.
// Штрафы ступенчатые: чем дальше от коридора, тем больше вычет.
func stabilityScore(p *models.Patient) float64 {
	score := 1.0
	v := p.Vitals

	// Пульс, безопасный коридор 60-100
	switch {
	case v.HeartRate >= 60 && v.HeartRate <= 100:
	case v.HeartRate >= 40 && v.HeartRate <= 130:
		score -= 0.2
	default:
		score -= 0.4
	}

	// Сатурация, безопасно >= 94
	switch {
	case v.SpO2 >= 94:
	case v.SpO2 >= 90:
		score -= 0.3
	default:
		score -= 0.5
	}

	// САД, безопасный коридор 65-110
	switch moap := meanArterialPressure(v); {
	case moap >= 65 && moap <= 110:
	case moap >= 55 && moap <= 130:
		score -= 0.2
	default:
		score -= 0.4
	}

	// Температура, 0 трактуем как "не измерена"
	if v.Temperature > 0 {
		switch {
		case v.Temperature >= 36.0 && v.Temperature <= 38.3:
		case v.Temperature >= 35.0 && v.Temperature <= 39.5:
			score -= 0.2
		default:
			score -= 0.3
		}
	}

	// Частота дыхания, безопасный коридор 10-22
	switch {
	case v.RespiratoryRate >= 10 && v.RespiratoryRate <= 22:
	case v.RespiratoryRate >= 8 && v.RespiratoryRate <= 30:
		score -= 0.2
	default:
		score -= 0.4
	}

	if score < 0 {
		score = 0
	}
	return score
}

// riskFactors собирает качественные факторы риска.
// Порядок не несет смысла, пустой список заменяется на "Low risk profile".
func riskFactors(p *models.Patient) []string {
	var factors []string

	if p.OnVentilator {
		factors = append(factors, "Mechanical ventilation")
	}
	if p.OnPressors {
		factors = append(factors, "Vasopressor support")
	}
	if p.Vitals.GCS < 13 {
		factors = append(factors, "Altered mental status")
	}
	if p.Vitals.Lactate > 2.0 {
		factors = append(factors, "Elevated lactate")
	}
	if p.LabValues != nil && p.LabValues.Creatinine > 2.0 {
		factors = append(factors, "Renal dysfunction")
	}
	if p.Vitals.SpO2 < 92 {
		factors = append(factors, "Hypoxemia")
	}
	if p.Age >= 75 {
		factors = append(factors, "Advanced age")
	}
	if len(p.Comorbidities) >= 3 || p.ComorbidityScore >= 3 {
		factors = append(factors, "Multiple comorbidities")
	}

	if len(factors) == 0 {
		factors = []string{"Low risk profile"}
	}
	return factors
}
