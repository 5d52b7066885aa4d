package persist

import (
	"strings"
	"testing"
	"time"

	"github.com/mtorpey/pypersist/codec"
	"github.com/mtorpey/pypersist/keys"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{
			name: "valid",
			cfg:  Config{Funcname: "triple", Cache: "file://persist"},
		},
		{
			name:    "missing funcname",
			cfg:     Config{Cache: "file://persist"},
			wantErr: "Funcname",
		},
		{
			name:    "unusable funcname",
			cfg:     Config{Funcname: "??", Cache: "file://persist"},
			wantErr: "Funcname",
		},
		{
			name:    "missing cache",
			cfg:     Config{Funcname: "triple"},
			wantErr: "Cache",
		},
		{
			name:    "unknown cache scheme",
			cfg:     Config{Funcname: "triple", Cache: "redis://localhost"},
			wantErr: "Cache",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want mention of %s", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_WithDefaults(t *testing.T) {
	cfg := Config{Funcname: "triple"}.withDefaults()

	if cfg.Cache != DefaultCache {
		t.Errorf("Cache = %q, want %q", cfg.Cache, DefaultCache)
	}
	if cfg.Namespace != DefaultNamespace {
		t.Errorf("Namespace = %q, want %q", cfg.Namespace, DefaultNamespace)
	}
	if _, ok := cfg.Codec.(codec.Msgpack); !ok {
		t.Errorf("Codec = %T, want codec.Msgpack", cfg.Codec)
	}
	if _, ok := cfg.Hasher.(keys.SHA256Hasher); !ok {
		t.Errorf("Hasher = %T, want keys.SHA256Hasher", cfg.Hasher)
	}
}

func TestConfig_WithDefaultsKeepsOverrides(t *testing.T) {
	cfg := Config{
		Funcname:  "triple",
		Cache:     "mongodb://localhost:5000/persist/memos",
		Namespace: "myproject",
		Codec:     codec.JSON{},
		Hasher:    keys.XXHasher{},
	}.withDefaults()

	if cfg.Cache != "mongodb://localhost:5000/persist/memos" {
		t.Errorf("Cache overridden: %q", cfg.Cache)
	}
	if cfg.Namespace != "myproject" {
		t.Errorf("Namespace overridden: %q", cfg.Namespace)
	}
	if _, ok := cfg.Codec.(codec.JSON); !ok {
		t.Errorf("Codec overridden: %T", cfg.Codec)
	}
	if _, ok := cfg.Hasher.(keys.XXHasher); !ok {
		t.Errorf("Hasher overridden: %T", cfg.Hasher)
	}
}

func TestConfig_StoreOptions(t *testing.T) {
	cfg := Config{
		Funcname:  "Compute Triple",
		Namespace: "ns",
		StoreKey:  true,
		Codec:     codec.JSON{},
	}
	opts := cfg.storeOptions()
	if opts.Funcname != "compute_triple" {
		t.Errorf("Funcname = %q, want compute_triple", opts.Funcname)
	}
	if opts.Namespace != "ns" || !opts.StoreKey {
		t.Errorf("options not carried over: %+v", opts)
	}
}

func TestConfig_OpenMemory(t *testing.T) {
	cfg := Config{Funcname: "triple"}
	mem, err := cfg.openMemory()
	if err != nil {
		t.Fatalf("openMemory() error: %v", err)
	}
	if mem != nil {
		t.Error("openMemory() built a layer with Memory unset")
	}

	cfg.Memory = &MemoryConfig{Capacity: 10, TTL: time.Second}
	mem, err = cfg.openMemory()
	if err != nil {
		t.Fatalf("openMemory() error: %v", err)
	}
	if mem == nil {
		t.Error("openMemory() = nil with Memory set")
	}
}
