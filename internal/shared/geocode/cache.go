package geocode

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// 缓存键前缀与默认 TTL；地址坐标基本不变，TTL 主要用于控制键空间
const (
	cacheKeyPrefix  = "geocode:"
	defaultCacheTTL = 30 * 24 * time.Hour
)

// CachedGeocoder 带 Redis 缓存的地理编码装饰器
//
// 缓存命中直接返回；未命中穿透到内层 Geocoder，成功后回填。
// Redis 故障只记日志，不影响地理编码本身。
type CachedGeocoder struct {
	inner  Geocoder
	client *redis.Client
	ttl    time.Duration
}

// NewCachedGeocoder 创建缓存装饰器
func NewCachedGeocoder(inner Geocoder, client *redis.Client) *CachedGeocoder {
	return &CachedGeocoder{inner: inner, client: client, ttl: defaultCacheTTL}
}

// NewCachedGeocoderFromURL 从 Redis URL 创建缓存装饰器
func NewCachedGeocoderFromURL(inner Geocoder, redisURL string) (*CachedGeocoder, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	log.Printf("[geocode] Redis cache connected to %s", opts.Addr)
	return NewCachedGeocoder(inner, client), nil
}

func (c *CachedGeocoder) Geocode(ctx context.Context, address string) (*Location, error) {
	key := cacheKey(address)

	if raw, err := c.client.Get(ctx, key).Result(); err == nil {
		var loc Location
		if err := json.Unmarshal([]byte(raw), &loc); err == nil {
			return &loc, nil
		}
	} else if err != redis.Nil {
		log.Printf("[geocode] cache get error: %v", err)
	}

	loc, err := c.inner.Geocode(ctx, address)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(loc); err == nil {
		if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
			log.Printf("[geocode] cache set error: %v", err)
		}
	}
	return loc, nil
}

// Close 关闭 Redis 连接
func (c *CachedGeocoder) Close() error {
	return c.client.Close()
}

func cacheKey(address string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(address))))
	return cacheKeyPrefix + hex.EncodeToString(sum[:8])
}
