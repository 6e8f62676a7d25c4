package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"vgp_platform/internal/platform/config"

	"github.com/redis/go-redis/v9"
)

var RDB *redis.Client

// ErrEmpty is returned by Pop when the wait elapsed without a message.
var ErrEmpty = errors.New("queue empty")

func ConnectRedis() {
	RDB = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := RDB.Ping(ctx).Result(); err != nil {
		log.Fatalf("Could not connect to Redis: %v", err)
	}
	fmt.Println("Successfully connected to Redis!")
}

func CloseRedis() {
	if RDB != nil {
		RDB.Close()
		fmt.Println("Redis connection closed.")
	}
}

// Push LPUSHes v as JSON; Pop takes from the other end so the list is FIFO.
func Push(ctx context.Context, rdb *redis.Client, name string, v interface{}) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode queue message: %w", err)
	}
	if err := rdb.LPush(ctx, name, payload).Err(); err != nil {
		return fmt.Errorf("push to %s: %w", name, err)
	}
	return nil
}

// Pop blocks up to wait for a message and decodes it into v.
func Pop(ctx context.Context, rdb *redis.Client, name string, wait time.Duration, v interface{}) error {
	res, err := rdb.BRPop(ctx, wait, name).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrEmpty
		}
		return err
	}
	// BRPop yields [queueName, value].
	if len(res) < 2 || res[1] == "" {
		return ErrEmpty
	}
	if err := json.Unmarshal([]byte(res[1]), v); err != nil {
		return fmt.Errorf("decode queue message: %w", err)
	}
	return nil
}
