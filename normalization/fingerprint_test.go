package normalization

import (
	"testing"
	"time"
)

func TestFingerprintDeterminism(t *testing.T) {
	ts := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	first := Fingerprint("https://t.example/x", "Printer down", "CN", ts)
	for i := 0; i < 5; i++ {
		if got := Fingerprint("https://t.example/x", "Printer down", "CN", ts); got != first {
			t.Fatalf("Fingerprint not deterministic: %q != %q", got, first)
		}
	}

	if len(first) != 40 {
		t.Errorf("expected 40-char hex digest, got %d chars", len(first))
	}
}

func TestFingerprintSensitivity(t *testing.T) {
	ts := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	base := Fingerprint("https://t.example/x", "Printer down", "CN", ts)

	variants := map[string]string{
		"url":       Fingerprint("https://t.example/y", "Printer down", "CN", ts),
		"subject":   Fingerprint("https://t.example/x", "Printer up", "CN", ts),
		"building":  Fingerprint("https://t.example/x", "Printer down", "EL", ts),
		"timestamp": Fingerprint("https://t.example/x", "Printer down", "CN", ts.Add(time.Second)),
	}

	for component, hash := range variants {
		if hash == base {
			t.Errorf("changing %s did not change the fingerprint", component)
		}
	}
}

// TestFingerprintTimezoneNormalization отпечаток не зависит от зоны представления метки
func TestFingerprintTimezoneNormalization(t *testing.T) {
	utc := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	shifted := utc.In(time.FixedZone("UTC+5", 5*3600))

	if Fingerprint("", "s", "CN", utc) != Fingerprint("", "s", "CN", shifted) {
		t.Error("fingerprint must be invariant under timezone representation")
	}
}

func TestFingerprintEmptyComponents(t *testing.T) {
	ts := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	// Пустые URL и building участвуют в склейке пустыми строками
	noURL := Fingerprint("", "Printer down", "CN", ts)
	withURL := Fingerprint("https://t.example/x", "Printer down", "CN", ts)
	if noURL == withURL {
		t.Error("empty and present URL must produce different fingerprints")
	}
}
