package keys_test

import (
	"regexp"
	"testing"

	"github.com/mtorpey/pypersist/keys"
)

var fingerprintShape = regexp.MustCompile(`^[-_0-9A-Za-z]+$`)

func TestSHA256Hasher(t *testing.T) {
	hasher := keys.SHA256Hasher{}
	key := keys.New(keys.Pair{Name: "x", Value: 3})

	fp, err := hasher.Fingerprint(key)
	if err != nil {
		t.Fatalf("Fingerprint() error: %v", err)
	}
	if len(fp) != 43 {
		t.Errorf("fingerprint length = %d, want 43", len(fp))
	}
	if !fingerprintShape.MatchString(fp) {
		t.Errorf("fingerprint %q contains storage-unsafe characters", fp)
	}

	again, err := hasher.Fingerprint(key)
	if err != nil {
		t.Fatalf("Fingerprint() error: %v", err)
	}
	if again != fp {
		t.Errorf("fingerprint not deterministic: %q vs %q", fp, again)
	}

	// The same logical key built from a widened value must fingerprint
	// identically.
	widened, err := hasher.Fingerprint(keys.New(keys.Pair{Name: "x", Value: int64(3)}))
	if err != nil {
		t.Fatalf("Fingerprint() error: %v", err)
	}
	if widened != fp {
		t.Errorf("equal keys produced different fingerprints: %q vs %q", fp, widened)
	}

	other, err := hasher.Fingerprint(keys.New(keys.Pair{Name: "x", Value: 4}))
	if err != nil {
		t.Fatalf("Fingerprint() error: %v", err)
	}
	if other == fp {
		t.Error("distinct keys produced the same fingerprint")
	}
}

func TestXXHasher(t *testing.T) {
	hasher := keys.XXHasher{}
	key := keys.New(keys.Pair{Name: "x", Value: "hello"})

	fp, err := hasher.Fingerprint(key)
	if err != nil {
		t.Fatalf("Fingerprint() error: %v", err)
	}
	if len(fp) != 11 {
		t.Errorf("fingerprint length = %d, want 11", len(fp))
	}
	if !fingerprintShape.MatchString(fp) {
		t.Errorf("fingerprint %q contains storage-unsafe characters", fp)
	}

	again, err := hasher.Fingerprint(key)
	if err != nil {
		t.Fatalf("Fingerprint() error: %v", err)
	}
	if again != fp {
		t.Errorf("fingerprint not deterministic: %q vs %q", fp, again)
	}
}

func TestFingerprint_UnencodableKey(t *testing.T) {
	key := keys.New(keys.Pair{Name: "f", Value: func() {}})
	if _, err := (keys.SHA256Hasher{}).Fingerprint(key); err == nil {
		t.Error("Fingerprint() succeeded for unencodable key, want error")
	}
}
