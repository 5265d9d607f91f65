package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/saberlights/maimai-SillyTavern-plugin/pkg/history"
	"github.com/saberlights/maimai-SillyTavern-plugin/pkg/preset"
)

const (
	presetKeyPrefix  = "preset:"
	presetIndexKey   = "presets"
	activeStyleKey   = "style:active"
	historyKeyPrefix = "history:"

	// maxHistoryKept bounds each session list; older exchanges are
	// trimmed on append.
	maxHistoryKept = 200
)

// RedisService implements the Storage interface using Redis
type RedisService struct {
	client *redis.Client
	logger *slog.Logger
}

// Ensure RedisService implements Storage interface
var _ Storage = (*RedisService)(nil)

// NewRedisService creates a new Redis storage instance
func NewRedisService(redisURL string, logger *slog.Logger) *RedisService {
	rdb := redis.NewClient(&redis.Options{
		Addr: redisURL,
	})

	return &RedisService{
		client: rdb,
		logger: logger,
	}
}

func (r *RedisService) Ping(ctx context.Context) error {
	cmd := r.client.Ping(ctx)
	if err := cmd.Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisService) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}
	r.logger.Info("Redis connection closed")
	return nil
}

// WaitForConnection waits for Redis to become available (used during startup)
func (r *RedisService) WaitForConnection(ctx context.Context) error {
	maxRetries := 30
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		if err := r.Ping(ctx); err != nil {
			r.logger.Debug("Redis not ready yet", "error", err, "attempt", i+1)

			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled while waiting for redis: %w", ctx.Err())
			case <-time.After(retryDelay):
				continue
			}
		}

		r.logger.Info("Redis connection established")
		return nil
	}

	return fmt.Errorf("redis did not become available after %d attempts", maxRetries)
}

// Preset operations

func (r *RedisService) SavePreset(ctx context.Context, p *preset.Preset) error {
	if p == nil || p.Name == "" {
		return fmt.Errorf("preset must have a name")
	}

	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal preset: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, presetKeyPrefix+p.Name, string(data), 0)
	pipe.SAdd(ctx, presetIndexKey, p.Name)
	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.Error("Failed to save preset", "preset", p.Name, "error", err)
		return fmt.Errorf("failed to save preset: %w", err)
	}
	return nil
}

func (r *RedisService) GetPreset(ctx context.Context, name string) (*preset.Preset, error) {
	cmd := r.client.Get(ctx, presetKeyPrefix+name)
	if err := cmd.Err(); err != nil {
		if err == redis.Nil {
			return nil, nil // Return nil for not found
		}
		r.logger.Error("Failed to load preset", "preset", name, "error", err)
		return nil, fmt.Errorf("failed to load preset: %w", err)
	}

	var p preset.Preset
	if err := json.Unmarshal([]byte(cmd.Val()), &p); err != nil {
		r.logger.Error("Failed to unmarshal preset", "preset", name, "error", err)
		return nil, fmt.Errorf("failed to unmarshal preset: %w", err)
	}
	return &p, nil
}

func (r *RedisService) ListPresets(ctx context.Context) ([]string, error) {
	names, err := r.client.SMembers(ctx, presetIndexKey).Result()
	if err != nil {
		r.logger.Error("Failed to list presets", "error", err)
		return nil, fmt.Errorf("failed to list presets: %w", err)
	}
	return names, nil
}

func (r *RedisService) DeletePreset(ctx context.Context, name string) error {
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, presetKeyPrefix+name)
	pipe.SRem(ctx, presetIndexKey, name)
	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.Error("Failed to delete preset", "preset", name, "error", err)
		return fmt.Errorf("failed to delete preset: %w", err)
	}
	return nil
}

// Active style operations

func (r *RedisService) SetActiveStyle(ctx context.Context, style *preset.ActiveStyle) error {
	if style == nil {
		return fmt.Errorf("style cannot be nil")
	}

	data, err := json.Marshal(style)
	if err != nil {
		return fmt.Errorf("failed to marshal active style: %w", err)
	}

	if err := r.client.Set(ctx, activeStyleKey, string(data), 0).Err(); err != nil {
		r.logger.Error("Failed to set active style", "identifier", style.Identifier, "error", err)
		return fmt.Errorf("failed to set active style: %w", err)
	}
	return nil
}

func (r *RedisService) GetActiveStyle(ctx context.Context) (*preset.ActiveStyle, error) {
	cmd := r.client.Get(ctx, activeStyleKey)
	if err := cmd.Err(); err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		r.logger.Error("Failed to load active style", "error", err)
		return nil, fmt.Errorf("failed to load active style: %w", err)
	}

	var style preset.ActiveStyle
	if err := json.Unmarshal([]byte(cmd.Val()), &style); err != nil {
		return nil, fmt.Errorf("failed to unmarshal active style: %w", err)
	}
	return &style, nil
}

func (r *RedisService) ClearActiveStyle(ctx context.Context) error {
	if err := r.client.Del(ctx, activeStyleKey).Err(); err != nil {
		r.logger.Error("Failed to clear active style", "error", err)
		return fmt.Errorf("failed to clear active style: %w", err)
	}
	return nil
}

// History operations

func (r *RedisService) AppendHistory(ctx context.Context, sessionID string, rec history.Record) error {
	if sessionID == "" {
		return fmt.Errorf("session id cannot be empty")
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal history record: %w", err)
	}

	key := historyKeyPrefix + sessionID
	pipe := r.client.TxPipeline()
	pipe.RPush(ctx, key, string(data))
	pipe.LTrim(ctx, key, -maxHistoryKept, -1)
	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.Error("Failed to append history", "session", sessionID, "error", err)
		return fmt.Errorf("failed to append history: %w", err)
	}
	return nil
}

func (r *RedisService) RecentHistory(ctx context.Context, sessionID string, limit int) ([]history.Record, error) {
	if limit <= 0 {
		return nil, nil
	}

	key := historyKeyPrefix + sessionID
	raw, err := r.client.LRange(ctx, key, int64(-limit), -1).Result()
	if err != nil && err != redis.Nil {
		r.logger.Error("Failed to load history", "session", sessionID, "error", err)
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	records := make([]history.Record, 0, len(raw))
	for _, item := range raw {
		var rec history.Record
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			r.logger.Warn("Skipping malformed history record", "session", sessionID, "error", err)
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}
