package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jhoicas/POS-api/internal/domain/entity"
	"github.com/jhoicas/POS-api/pkg/config"
	"github.com/redis/go-redis/v9"
)

// catalogKey llave compartida por todas las instancias del API.
const catalogKey = "pos:alert_catalog:v1"

// RedisCatalogStore guarda el catálogo en Redis como JSON; el TTL lo aplica Redis.
type RedisCatalogStore struct {
	client *redis.Client
}

// NewRedisClient crea el cliente y verifica la conexión.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("conectar a Redis: %w", err)
	}
	return client, nil
}

// NewRedisCatalogStore usa un cliente existente; el caller es dueño del cliente y lo cierra.
func NewRedisCatalogStore(client *redis.Client) *RedisCatalogStore {
	return &RedisCatalogStore{client: client}
}

type catalogPayload struct {
	Types      map[string]int `json:"types"`
	Priorities map[string]int `json:"priorities"`
}

func (s *RedisCatalogStore) Get(ctx context.Context) (*entity.AlertCatalog, bool, error) {
	val, err := s.client.Get(ctx, catalogKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var p catalogPayload
	if err := json.Unmarshal(val, &p); err != nil {
		return nil, false, err
	}
	return &entity.AlertCatalog{Types: p.Types, Priorities: p.Priorities}, true, nil
}

func (s *RedisCatalogStore) Set(ctx context.Context, catalog *entity.AlertCatalog, ttl time.Duration) error {
	payload, err := json.Marshal(catalogPayload{Types: catalog.Types, Priorities: catalog.Priorities})
	if err != nil {
		return err
	}
	return s.client.Set(ctx, catalogKey, payload, ttl).Err()
}

func (s *RedisCatalogStore) Delete(ctx context.Context) error {
	return s.client.Del(ctx, catalogKey).Err()
}
