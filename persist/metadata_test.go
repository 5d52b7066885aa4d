package persist

import (
	"strings"
	"testing"
	"time"
)

func TestTimestampMetadata(t *testing.T) {
	meta := TimestampMetadata()

	if !strings.HasPrefix(meta, TimestampPrefix) {
		t.Fatalf("TimestampMetadata() = %q, want %q prefix", meta, TimestampPrefix)
	}
	if len(meta) != 29 {
		t.Errorf("TimestampMetadata() length = %d, want 29", len(meta))
	}

	stamp, err := time.Parse(time.RFC3339, strings.TrimPrefix(meta, TimestampPrefix))
	if err != nil {
		t.Fatalf("timestamp does not parse as RFC 3339: %v", err)
	}
	if age := time.Since(stamp); age < 0 || age > time.Minute {
		t.Errorf("timestamp %v is not close to now", stamp)
	}
}
