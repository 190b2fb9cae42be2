package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestRedisSinkSetsPrefixedKey(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	sink, err := NewRedisSink(client, RedisOptions{KeyPrefix: "pages:"})
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}
	if err := sink.Put(context.Background(), "/path/to/blah.html", []byte("hello from origin")); err != nil {
		t.Fatalf("put error: %v", err)
	}

	got, err := mr.Get("pages:/path/to/blah.html")
	if err != nil {
		t.Fatalf("miniredis get: %v", err)
	}
	if got != "hello from origin" {
		t.Fatalf("unexpected value %q", got)
	}
	if ttl := mr.TTL("pages:/path/to/blah.html"); ttl != 0 {
		t.Fatalf("expected no expiry, got %s", ttl)
	}
}

func TestRedisSinkAppliesTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	sink, err := NewRedisSink(client, RedisOptions{TTL: time.Minute})
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}
	if err := sink.Put(context.Background(), "/a.css", []byte("body{}")); err != nil {
		t.Fatalf("put error: %v", err)
	}
	if ttl := mr.TTL("/a.css"); ttl != time.Minute {
		t.Fatalf("expected 1m ttl, got %s", ttl)
	}
}

func TestRedisSinkSurfacesConnectionErrors(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { client.Close() })
	sink, err := NewRedisSink(client, RedisOptions{})
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}

	mr.Close()
	if err := sink.Put(context.Background(), "/a.html", []byte("x")); err == nil {
		t.Fatalf("expected error once redis is gone")
	}
}

func TestNewRedisSinkRequiresClient(t *testing.T) {
	if _, err := NewRedisSink(nil, RedisOptions{}); err == nil {
		t.Fatalf("nil client should fail")
	}
}
