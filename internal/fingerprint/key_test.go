package fingerprint_test

import (
	"strings"
	"testing"

	"cardscan/internal/fingerprint"
)

func TestKeyFormats(t *testing.T) {
	tests := []struct {
		name string
		fp   fingerprint.Fingerprint
		want string
	}{
		{"both", fingerprint.Fingerprint{Front: frontA, Back: backA},
			"fpv1:fb:f=0f0f0f0f0f0f0f0f.00ff00ff00ff00ff;b=123456789abcdef0.fedcba9876543210"},
		{"front", fingerprint.Fingerprint{Front: frontA}, "fpv1:f:0f0f0f0f0f0f0f0f.00ff00ff00ff00ff"},
		{"back", fingerprint.Fingerprint{Back: backA}, "fpv1:b:123456789abcdef0.fedcba9876543210"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, ok := fingerprint.Key(tt.fp)
			if !ok || key != tt.want {
				t.Fatalf("Key = %q (%v), want %q", key, ok, tt.want)
			}
			again, _ := fingerprint.Key(tt.fp)
			if again != key {
				t.Fatal("key derivation must be deterministic")
			}
			parsed, err := fingerprint.ParseKey(strings.ToUpper(key))
			if err != nil {
				t.Fatalf("ParseKey: %v", err)
			}
			round, _ := fingerprint.Key(parsed)
			if round != key {
				t.Fatalf("round trip = %q, want %q", round, key)
			}
		})
	}

	if key, ok := fingerprint.Key(fingerprint.Fingerprint{}); ok || key != "" {
		t.Fatalf("empty fingerprint produced key %q", key)
	}
}

func TestParseKeyRejectsMalformed(t *testing.T) {
	for _, bad := range []string{
		"",
		"fpv2:f:0f0f0f0f0f0f0f0f.00ff00ff00ff00ff",
		"fpv1:x:0f0f0f0f0f0f0f0f.00ff00ff00ff00ff",
		"fpv1:f:0f0f0f0f0f0f0f0f",
		"fpv1:fb:f=0f0f0f0f0f0f0f0f.00ff00ff00ff00ff",
		"fpv1",
	} {
		if _, err := fingerprint.ParseKey(bad); err == nil {
			t.Errorf("expected %q to be rejected", bad)
		}
	}
}
