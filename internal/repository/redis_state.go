package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"Boardroom/internal/domain/models"

	"github.com/redis/go-redis/v9"
)

const (
	balanceKey   = "boardroom:balance"
	positionsKey = "boardroom:positions"
	configPrefix = "boardroom:config:"
)

// RedisState is the StateStore backed by Redis. Cash lives in a plain string
// key, open positions in a hash keyed by symbol, scheduler markers under a
// config prefix. State survives process restarts, so a redeploy resumes the
// same book.
type RedisState struct {
	client         *redis.Client
	initialCapital float64
}

func NewRedisState(client *redis.Client, initialCapital float64) *RedisState {
	return &RedisState{client: client, initialCapital: initialCapital}
}

// Balance returns the cash balance, seeding the initial capital on first use.
func (s *RedisState) Balance(ctx context.Context) (float64, error) {
	val, err := s.client.Get(ctx, balanceKey).Result()
	if err == redis.Nil {
		if err := s.SetBalance(ctx, s.initialCapital); err != nil {
			return 0, err
		}
		return s.initialCapital, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get balance: %w", err)
	}
	bal, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, fmt.Errorf("parse balance %q: %w", val, err)
	}
	return bal, nil
}

func (s *RedisState) SetBalance(ctx context.Context, balance float64) error {
	if err := s.client.Set(ctx, balanceKey, strconv.FormatFloat(balance, 'f', -1, 64), 0).Err(); err != nil {
		return fmt.Errorf("set balance: %w", err)
	}
	return nil
}

// Positions returns all open positions keyed by symbol.
func (s *RedisState) Positions(ctx context.Context) (map[string]models.Position, error) {
	raw, err := s.client.HGetAll(ctx, positionsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("get positions: %w", err)
	}
	out := make(map[string]models.Position, len(raw))
	for symbol, blob := range raw {
		var pos models.Position
		if err := json.Unmarshal([]byte(blob), &pos); err != nil {
			return nil, fmt.Errorf("decode position %s: %w", symbol, err)
		}
		out[symbol] = pos
	}
	return out, nil
}

func (s *RedisState) SavePosition(ctx context.Context, pos models.Position) error {
	blob, err := json.Marshal(pos)
	if err != nil {
		return fmt.Errorf("encode position %s: %w", pos.Symbol, err)
	}
	if err := s.client.HSet(ctx, positionsKey, pos.Symbol, blob).Err(); err != nil {
		return fmt.Errorf("save position %s: %w", pos.Symbol, err)
	}
	return nil
}

func (s *RedisState) RemovePosition(ctx context.Context, symbol string) error {
	if err := s.client.HDel(ctx, positionsKey, symbol).Err(); err != nil {
		return fmt.Errorf("remove position %s: %w", symbol, err)
	}
	return nil
}

// SetConfig stores a JSON-encoded value under the config prefix.
func (s *RedisState) SetConfig(ctx context.Context, key string, value any) error {
	blob, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode config %s: %w", key, err)
	}
	if err := s.client.Set(ctx, configPrefix+key, blob, 0).Err(); err != nil {
		return fmt.Errorf("set config %s: %w", key, err)
	}
	return nil
}

// GetConfig loads a config value into dest. The boolean reports presence.
func (s *RedisState) GetConfig(ctx context.Context, key string, dest any) (bool, error) {
	blob, err := s.client.Get(ctx, configPrefix+key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get config %s: %w", key, err)
	}
	if err := json.Unmarshal(blob, dest); err != nil {
		return false, fmt.Errorf("decode config %s: %w", key, err)
	}
	return true, nil
}
