package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Krimson/icu-transfer/pkg/models"
)

// vitalsTTL ограничивает жизнь кэшированных показателей: устаревшие
// данные хуже отсутствующих
const vitalsTTL = 5 * time.Minute

// RedisStore реализует CacheStore для Redis (Infrastructure Layer)
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore создает кэш поверх готового клиента
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// NewRedisStoreFromAddr создает кэш из адреса подключения
func NewRedisStoreFromAddr(ctx context.Context, addr, password string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &RedisStore{client: client}, nil
}

func vitalsKey(patientID string) string {
	return fmt.Sprintf("patient:%s:vitals:current", patientID)
}

func (r *RedisStore) SetVitals(ctx context.Context, update *models.VitalsUpdate) error {
	data, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("failed to marshal vitals: %w", err)
	}

	return r.client.Set(ctx, vitalsKey(update.PatientID), data, vitalsTTL).Err()
}

func (r *RedisStore) GetVitals(ctx context.Context, patientID string) (*models.VitalsUpdate, error) {
	data, err := r.client.Get(ctx, vitalsKey(patientID)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get vitals: %w", err)
	}

	var update models.VitalsUpdate
	if err := json.Unmarshal([]byte(data), &update); err != nil {
		return nil, fmt.Errorf("failed to unmarshal vitals: %w", err)
	}

	return &update, nil
}

// InvalidatePatient удаляет все кэшированные ключи пациента
func (r *RedisStore) InvalidatePatient(ctx context.Context, patientID string) error {
	pattern := fmt.Sprintf("patient:%s:*", patientID)

	iter := r.client.Scan(ctx, 0, pattern, 0).Iterator()
	pipe := r.client.Pipeline()

	for iter.Next(ctx) {
		pipe.Del(ctx, iter.Val())
	}

	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan keys: %w", err)
	}

	_, err := pipe.Exec(ctx)
	return err
}
