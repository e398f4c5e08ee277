package infra

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// fakeRedis implements the commands the deduper issues.
type fakeRedis struct {
	redis.Cmdable
	keys map[string]time.Duration
	err  error
}

func (f *fakeRedis) Exists(ctx context.Context, keys ...string) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
		return cmd
	}
	var n int64
	for _, k := range keys {
		if _, ok := f.keys[k]; ok {
			n++
		}
	}
	cmd.SetVal(n)
	return cmd
}

func (f *fakeRedis) Set(ctx context.Context, key string, _ interface{}, ttl time.Duration) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
		return cmd
	}
	f.keys[key] = ttl
	cmd.SetVal("OK")
	return cmd
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
		return cmd
	}
	var n int64
	for _, k := range keys {
		if _, ok := f.keys[k]; ok {
			delete(f.keys, k)
			n++
		}
	}
	cmd.SetVal(n)
	return cmd
}

func TestRedisDeduperRemembersEvents(t *testing.T) {
	rdb := &fakeRedis{keys: map[string]time.Duration{}}
	d := NewRedisDeduper(rdb, time.Hour, zerolog.Nop())
	ctx := context.Background()

	if d.Seen(ctx, "e1") {
		t.Fatalf("fresh event should not be seen")
	}
	d.Remember(ctx, "e1")
	if !d.Seen(ctx, "e1") {
		t.Fatalf("remembered event should be seen")
	}
	if ttl := rdb.keys["dedup:notify:e1"]; ttl != time.Hour {
		t.Fatalf("unexpected ttl %v", ttl)
	}
	d.Forget(ctx, "e1")
	if d.Seen(ctx, "e1") {
		t.Fatalf("forgotten event should be processed again")
	}
}

func TestRedisDeduperFailsOpen(t *testing.T) {
	rdb := &fakeRedis{keys: map[string]time.Duration{"dedup:notify:e1": time.Hour}, err: errors.New("connection refused")}
	d := NewRedisDeduper(rdb, 0, zerolog.Nop())
	if d.Seen(context.Background(), "e1") {
		t.Fatalf("redis errors must not suppress processing")
	}
	if d.ttl != 24*time.Hour {
		t.Fatalf("non-positive ttl should fall back to a day, got %v", d.ttl)
	}
	d.Remember(context.Background(), "e2")
}

func TestAMQPPublisherRejectsWhenDisconnected(t *testing.T) {
	p := &AMQPPublisher{exchange: "x"}
	if err := p.PublishJSON(context.Background(), "k", map[string]string{"a": "b"}); !errors.Is(err, ErrPublisherClosed) {
		t.Fatalf("expected ErrPublisherClosed, got %v", err)
	}
	if p.IsConnected() {
		t.Fatalf("publisher without connection must not report connected")
	}
	p.Close()
}
