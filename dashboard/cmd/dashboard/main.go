package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Krimson/icu-transfer/dashboard/internal/backend"
	"github.com/Krimson/icu-transfer/dashboard/internal/config"
	"github.com/Krimson/icu-transfer/dashboard/internal/eventbus"
	appsync "github.com/Krimson/icu-transfer/dashboard/internal/sync"
	"github.com/Krimson/icu-transfer/dashboard/internal/transport"
	"github.com/Krimson/icu-transfer/pkg/models"
)

func main() {
	cfg := config.Load()

	log.Printf("[INFO] Starting ICU transfer dashboard")
	log.Printf("[INFO] Backend: %s", cfg.BackendBaseURL)
	log.Printf("[INFO] WebSocket: %s", cfg.WebSocketURL)
	log.Printf("[INFO] Operator: %s (%s)", cfg.Username, cfg.UserRole)

	bus := eventbus.New()
	client := backend.New(cfg)
	coordinator := appsync.New(bus, client)

	if cfg.RenderSummary {
		coordinator.SetPatientsCallback(renderPatients)
		coordinator.SetTransferRequestsCallback(renderRequests)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTPTimeout)
	if health, err := client.Health(ctx); err != nil {
		log.Printf("[WARN] Backend health check failed, predictions will use local fallback: %v", err)
	} else {
		log.Printf("[INFO] Backend healthy: status=%s model_loaded=%v version=%s",
			health.Status, health.ModelLoaded, health.Version)
	}
	cancel()

	ctx, cancel = context.WithTimeout(context.Background(), cfg.HTTPTimeout)
	if err := coordinator.Refresh(ctx); err != nil {
		log.Printf("[WARN] Initial data load failed: %v", err)
	}
	cancel()

	ws := transport.New(cfg, bus)
	if err := ws.Connect(); err != nil {
		// Переподключение уже запланировано внутри клиента
		log.Printf("[WARN] Initial WebSocket connect failed: %v", err)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Printf("[INFO] Shutting down dashboard...")
	if err := ws.Close(); err != nil {
		log.Printf("[WARN] WebSocket close error: %v", err)
	}
	log.Printf("[INFO] Dashboard stopped")
}

// renderPatients печатает краткую сводку по пациентам после каждого обновления
func renderPatients(patients []models.Patient) {
	ready := 0
	for _, p := range patients {
		if p.Prediction != nil && p.Prediction.TransferReady {
			ready++
		}
	}
	log.Printf("[INFO] Patients updated: %d total, %d flagged transfer-ready", len(patients), ready)
}

// renderRequests печатает сводку по заявкам с разбивкой активные/завершенные
func renderRequests(requests []models.TransferRequest) {
	active := 0
	for _, r := range requests {
		switch r.Status {
		case models.StatusPending, models.StatusDoctorApproved, models.StatusAdminApproved:
			active++
		}
	}
	log.Printf("[INFO] Transfer requests updated: %d total, %d active", len(requests), active)
}
