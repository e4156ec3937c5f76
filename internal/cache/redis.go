package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Domenick1991/frontdesk/config"
	"github.com/Domenick1991/frontdesk/internal/domain"
	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(cfg config.RedisConfig) *RedisCache {
	return &RedisCache{
		client: redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		ttl:    time.Duration(cfg.TTLSeconds) * time.Second,
	}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) GetBooking(ctx context.Context, bookingID int64) (*domain.EnrichedBooking, error) {
	var booking domain.EnrichedBooking
	ok, err := c.get(ctx, BookingKey(bookingID), &booking)
	if err != nil || !ok {
		return nil, err
	}
	return &booking, nil
}

func (c *RedisCache) SetBooking(ctx context.Context, booking *domain.EnrichedBooking) error {
	return c.set(ctx, BookingKey(booking.ID), booking)
}

func (c *RedisCache) GetConversions(ctx context.Context, bookingID int64) (*domain.ConversionsResponse, error) {
	var resp domain.ConversionsResponse
	ok, err := c.get(ctx, ConversionsKey(bookingID), &resp)
	if err != nil || !ok {
		return nil, err
	}
	return &resp, nil
}

func (c *RedisCache) SetConversions(ctx context.Context, bookingID int64, resp *domain.ConversionsResponse) error {
	return c.set(ctx, ConversionsKey(bookingID), resp)
}

func (c *RedisCache) GetRoom(ctx context.Context, roomID int64) (*domain.DetailedRoom, error) {
	var room domain.DetailedRoom
	ok, err := c.get(ctx, RoomKey(roomID), &room)
	if err != nil || !ok {
		return nil, err
	}
	return &room, nil
}

func (c *RedisCache) SetRoom(ctx context.Context, room *domain.DetailedRoom) error {
	return c.set(ctx, RoomKey(room.ID), room)
}

// Invalidate deletes the given keys. A key ending in "*" is a prefix and is
// expanded with SCAN first.
func (c *RedisCache) Invalidate(ctx context.Context, keys ...string) error {
	var exact []string
	for _, key := range keys {
		if !strings.HasSuffix(key, "*") {
			exact = append(exact, key)
			continue
		}
		iter := c.client.Scan(ctx, 0, key, 100).Iterator()
		for iter.Next(ctx) {
			exact = append(exact, iter.Val())
		}
		if err := iter.Err(); err != nil {
			return fmt.Errorf("scan %s: %w", key, err)
		}
	}
	if len(exact) == 0 {
		return nil
	}
	return c.client.Del(ctx, exact...).Err()
}

// AcquireBookingLock stops two operators from running the same action on one
// booking at once.
func (c *RedisCache) AcquireBookingLock(ctx context.Context, bookingID int64, action string, ttl time.Duration) (bool, error) {
	return c.client.SetNX(ctx, bookingLockKey(bookingID, action), "locked", ttl).Result()
}

func (c *RedisCache) ReleaseBookingLock(ctx context.Context, bookingID int64, action string) error {
	return c.client.Del(ctx, bookingLockKey(bookingID, action)).Err()
}

func (c *RedisCache) get(ctx context.Context, key string, out interface{}) (bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, err
	}
	return true, nil
}

func (c *RedisCache) set(ctx context.Context, key string, value interface{}) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, payload, c.ttl).Err()
}

func BookingKey(bookingID int64) string {
	return fmt.Sprintf("cache:booking:%d", bookingID)
}

func ConversionsKey(bookingID int64) string {
	return fmt.Sprintf("cache:booking:%d:conversions", bookingID)
}

func BookingListKey() string {
	return "cache:bookings"
}

func RoomKey(roomID int64) string {
	return fmt.Sprintf("cache:room:%d", roomID)
}

// AvailabilityKey matches every availability entry of a hotel. This service
// never writes them; the contracts still clear them for other readers of the
// shared cache.
func AvailabilityKey(hotelID int64) string {
	return fmt.Sprintf("cache:availability:%d:*", hotelID)
}

func bookingLockKey(bookingID int64, action string) string {
	return fmt.Sprintf("lock:booking:%d:%s", bookingID, action)
}
