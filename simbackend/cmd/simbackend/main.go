package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/Krimson/icu-transfer/pkg/models"
	_ "github.com/Krimson/icu-transfer/simbackend/docs"
	"github.com/Krimson/icu-transfer/simbackend/internal/config"
	"github.com/Krimson/icu-transfer/simbackend/internal/handler"
	"github.com/Krimson/icu-transfer/simbackend/internal/hub"
	"github.com/Krimson/icu-transfer/simbackend/internal/store"
	"github.com/Krimson/icu-transfer/simbackend/internal/vitalsgen"
)

// @title ICU Transfer Coordination API
// @version 1.0
// @description Бекенд координации переводов пациентов из ОРИТ: пациенты, заявки, вердикты о готовности, push показателей по WebSocket
// @host localhost:8000
// @BasePath /
func main() {
	log.Printf("[INFO] Starting ICU transfer backend...")

	cfg := config.Load()
	log.Printf("[INFO] Configuration loaded: http_port=%s storage=%s cache=%v",
		cfg.HTTPPort, cfg.StorageBackend, cfg.CacheEnabled)

	repo := buildRepository(cfg)
	defer repo.Close()

	var cache store.CacheStore
	if cfg.CacheEnabled {
		redisStore, err := store.NewRedisStoreFromAddr(context.Background(), cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Printf("[WARN] Redis unavailable, running without cache: %v", err)
		} else {
			cache = redisStore
			log.Printf("[INFO] Redis cache connected: %s", cfg.RedisAddr)
		}
	}

	wsHub := hub.NewHub()
	go wsHub.Run()

	router := mux.NewRouter()
	router.HandleFunc("/ws", wsHub.HandleWebSocket)
	router.PathPrefix("/swagger/").Handler(httpSwagger.WrapHandler)
	handler.NewHTTPHandler(repo, cache, wsHub).RegisterRoutes(router)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPTimeout,
		WriteTimeout: cfg.HTTPTimeout,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.VitalsPushEnabled {
		go runVitalsPump(ctx, cfg, repo, cache, wsHub)
	}

	serverErrChan := make(chan error, 1)
	go func() {
		log.Printf("[INFO] HTTP server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrChan:
		log.Printf("[ERROR] Server error: %v", err)

	case sig := <-shutdownChan:
		log.Printf("[INFO] Received signal %v, starting graceful shutdown...", sig)

		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("[WARN] Graceful shutdown failed, forcing stop: %v", err)
			srv.Close()
		}

		log.Printf("[INFO] Graceful shutdown completed")
	}

	log.Printf("[INFO] Server stopped")
}

// buildRepository выбирает хранилище по конфигурации. При недоступности
// PostgreSQL падаем в память, чтобы локальная разработка не требовала БД.
func buildRepository(cfg *config.Config) store.Repository {
	if cfg.StorageBackend == "postgres" {
		repo, err := store.NewPostgresRepositoryFromDSN(cfg.PostgresDSN)
		if err != nil {
			log.Printf("[WARN] PostgreSQL unavailable, falling back to in-memory store: %v", err)
			return store.NewSeededMemoryStore()
		}
		log.Printf("[INFO] PostgreSQL connected")
		return repo
	}
	return store.NewSeededMemoryStore()
}

// runVitalsPump периодически генерирует показатели для всех пациентов
// и рассылает их дашбордам как vitals_update
func runVitalsPump(ctx context.Context, cfg *config.Config, repo store.Repository, cache store.CacheStore, wsHub *hub.Hub) {
	gen := vitalsgen.New(0)
	trackPatients(ctx, repo, gen)

	ticker := time.NewTicker(cfg.VitalsPushInterval)
	defer ticker.Stop()

	log.Printf("[INFO] Vitals pump started: interval=%s patients=%d", cfg.VitalsPushInterval, gen.Tracked())

	for {
		select {
		case <-ctx.Done():
			log.Printf("[INFO] Vitals pump stopped")
			return
		case <-ticker.C:
			// Пересинхронизируем список: пациенты приходят и уходят
			trackPatients(ctx, repo, gen)

			for _, update := range gen.NextAll() {
				vitals := models.Vitals{
					HeartRate:       update.HeartRate,
					SpO2:            update.SpO2,
					RespiratoryRate: update.RespiratoryRate,
					SystolicBP:      update.SystolicBP,
					GCS:             update.GCS,
					Lactate:         update.Lactate,
				}
				if err := repo.UpdatePatientVitals(ctx, update.PatientID, vitals); err != nil {
					gen.Untrack(update.PatientID)
					continue
				}
				if cache != nil {
					if err := cache.SetVitals(ctx, update); err != nil {
						log.Printf("[WARN] Failed to cache vitals for %s: %v", update.PatientID, err)
					}
				}
				wsHub.BroadcastEvent("vitals_update", update)
			}
		}
	}
}

// trackPatients регистрирует в генераторе пациентов, которых он еще не видел
func trackPatients(ctx context.Context, repo store.Repository, gen *vitalsgen.Generator) {
	patients, err := repo.ListPatients(ctx)
	if err != nil {
		log.Printf("[WARN] Failed to list patients for vitals pump: %v", err)
		return
	}

	for _, p := range patients {
		if gen.IsTracked(p.ID) {
			continue
		}
		pattern := vitalsgen.PatternStable
		if p.OnPressors || p.OnVentilator {
			pattern = vitalsgen.PatternCritical
		} else if p.Vitals.Lactate > 2.5 || p.Vitals.SpO2 < 93 {
			pattern = vitalsgen.PatternDeteriorating
		}
		gen.Track(p.ID, p.Vitals, pattern)
	}
}
