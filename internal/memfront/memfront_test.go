package memfront_test

import (
	"errors"
	"testing"
	"time"

	"github.com/mtorpey/pypersist/internal/memfront"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*memfront.Config)
		wantField string
	}{
		{"defaults are valid", func(*memfront.Config) {}, ""},
		{"zero capacity", func(c *memfront.Config) { c.Capacity = 0 }, "Capacity"},
		{"zero shards", func(c *memfront.Config) { c.NumShards = 0 }, "NumShards"},
		{"zero ttl", func(c *memfront.Config) { c.TTL = 0 }, "TTL"},
		{"eviction too low", func(c *memfront.Config) { c.EvictionPercentage = 0 }, "EvictionPercentage"},
		{"eviction too high", func(c *memfront.Config) { c.EvictionPercentage = 101 }, "EvictionPercentage"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := memfront.DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			var cerr *memfront.ConfigError
			if !errors.As(err, &cerr) {
				t.Fatalf("Validate() = %v, want *ConfigError", err)
			}
			if cerr.Field != tt.wantField {
				t.Errorf("ConfigError.Field = %q, want %q", cerr.Field, tt.wantField)
			}
		})
	}
}

func TestLayer_SetGetDelete(t *testing.T) {
	l, err := memfront.New(memfront.DefaultConfig())
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	if _, ok := l.Get("fp1"); ok {
		t.Error("Get() on empty layer reported a hit")
	}

	l.Set("fp1", int64(9))
	got, ok := l.Get("fp1")
	if !ok {
		t.Fatal("Get() after Set reported a miss")
	}
	if got != int64(9) {
		t.Errorf("Get() = %v, want int64(9)", got)
	}

	l.Delete("fp1")
	if _, ok := l.Get("fp1"); ok {
		t.Error("Get() after Delete reported a hit")
	}
}

func TestLayer_Clear(t *testing.T) {
	l, err := memfront.New(memfront.DefaultConfig())
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	l.Set("a", 1)
	l.Set("b", 2)

	l.Clear()
	for _, fp := range []string{"a", "b"} {
		if _, ok := l.Get(fp); ok {
			t.Errorf("Get(%q) after Clear reported a hit", fp)
		}
	}
}

func TestLayer_Expiry(t *testing.T) {
	cfg := memfront.DefaultConfig()
	cfg.TTL = 10 * time.Millisecond
	l, err := memfront.New(cfg)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	l.Set("fp", "value")
	time.Sleep(30 * time.Millisecond)
	if _, ok := l.Get("fp"); ok {
		t.Error("entry survived past its ttl")
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	if _, err := memfront.New(memfront.Config{}); err == nil {
		t.Error("New(zero config) = nil error, want *ConfigError")
	}
}
