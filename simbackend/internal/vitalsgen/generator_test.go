package vitalsgen

import (
	"testing"

	"github.com/Krimson/icu-transfer/pkg/models"
)

func baseVitals() models.Vitals {
	return models.Vitals{
		HeartRate:       80,
		SpO2:            97,
		RespiratoryRate: 15,
		SystolicBP:      120,
		GCS:             15,
		Lactate:         1.0,
	}
}

func TestNext_WithinPhysiologicalLimits(t *testing.T) {
	g := New(42)
	g.Track("ICU-001", baseVitals(), PatternCritical)

	for i := 0; i < 500; i++ {
		update, ok := g.Next("ICU-001")
		if !ok {
			t.Fatalf("Expected update for tracked patient")
		}
		if update.HeartRate < minHeartRate || update.HeartRate > maxHeartRate {
			t.Fatalf("Heart rate out of limits: %.1f", update.HeartRate)
		}
		if update.SpO2 < minSpO2 || update.SpO2 > maxSpO2 {
			t.Fatalf("SpO2 out of limits: %.1f", update.SpO2)
		}
		if update.GCS < minGCS || update.GCS > maxGCS {
			t.Fatalf("GCS out of limits: %.1f", update.GCS)
		}
		if update.Lactate < minLactate || update.Lactate > maxLactate {
			t.Fatalf("Lactate out of limits: %.2f", update.Lactate)
		}
	}
}

func TestDeterioratingPattern_DriftsDownward(t *testing.T) {
	g := New(7)
	g.Track("ICU-002", baseVitals(), PatternDeteriorating)

	first, _ := g.Next("ICU-002")
	var last *models.VitalsUpdate
	for i := 0; i < 100; i++ {
		last, _ = g.Next("ICU-002")
	}

	if last.SpO2 >= first.SpO2 {
		t.Errorf("Expected SpO2 to drift down: first %.1f, after 100 steps %.1f", first.SpO2, last.SpO2)
	}
	if last.Lactate <= first.Lactate {
		t.Errorf("Expected lactate to drift up: first %.2f, after 100 steps %.2f", first.Lactate, last.Lactate)
	}
	if last.StabilityPattern != string(PatternDeteriorating) {
		t.Errorf("Expected pattern tag preserved, got %s", last.StabilityPattern)
	}
}

func TestUntrack(t *testing.T) {
	g := New(1)
	g.Track("ICU-001", baseVitals(), PatternStable)
	g.Track("ICU-002", baseVitals(), PatternStable)

	if n := len(g.NextAll()); n != 2 {
		t.Fatalf("Expected 2 updates, got %d", n)
	}

	g.Untrack("ICU-001")
	if _, ok := g.Next("ICU-001"); ok {
		t.Errorf("Expected no update for untracked patient")
	}
	if n := g.Tracked(); n != 1 {
		t.Errorf("Expected 1 tracked patient, got %d", n)
	}
}
