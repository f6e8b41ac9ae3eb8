// internal/transcript/redis.go
package transcript

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// RedisOptions selects the server and retention of the transcript.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Channel  string
	History  int // entries kept per instrument list
}

// RedisSink publishes entries on a pub/sub channel and keeps the most recent
// ones in a capped list per instrument.
type RedisSink struct {
	client  *redis.Client
	channel string
	history int
	log     *logrus.Entry
}

// NewRedisSink connects and pings the server.
func NewRedisSink(ctx context.Context, opts RedisOptions, log *logrus.Entry) (*RedisSink, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", opts.Addr, err)
	}

	log.Infof("transcript connected to redis %s, channel %s", opts.Addr, opts.Channel)

	return &RedisSink{
		client:  client,
		channel: opts.Channel,
		history: opts.History,
		log:     log,
	}, nil
}

// ListKey is the capped history list of one instrument.
func ListKey(instrument string) string {
	return fmt.Sprintf("brewer:%s:exchanges", instrument)
}

// Send implements SendFunc.
func (s *RedisSink) Send(ctx context.Context, e Entry) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode entry: %w", err)
	}

	key := ListKey(e.Instrument)

	pipe := s.client.Pipeline()
	pipe.Publish(ctx, s.channel, payload)
	pipe.LPush(ctx, key, payload)
	if s.history > 0 {
		pipe.LTrim(ctx, key, 0, int64(s.history-1))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("publish entry: %w", err)
	}
	return nil
}

// Close closes the connection.
func (s *RedisSink) Close() error {
	return s.client.Close()
}
