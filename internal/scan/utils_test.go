package scan

import (
	"strings"
	"testing"
)

func TestUniqueStrings(t *testing.T) {
	input := []string{"host1.local.", "host2.local.", "host1.local.", " host3.local."}
	result := uniqueStrings(input)

	if len(result) != 3 {
		t.Fatalf("expected 3 unique strings, got %d: %v", len(result), result)
	}
	for _, s := range result {
		if strings.HasSuffix(s, ".") {
			t.Fatalf("expected no trailing dots, got %s", s)
		}
	}
	for i := 1; i < len(result); i++ {
		if result[i-1] >= result[i] {
			t.Fatalf("expected sorted results, got %v", result)
		}
	}

	if uniqueStrings(nil) != nil {
		t.Fatalf("expected nil for empty input")
	}
}

func TestNormaliseMAC(t *testing.T) {
	input := "8c-85-90-12-34-56"
	want := "8C:85:90:12:34:56"
	if got := normaliseMAC(input); got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
	if normaliseMAC("invalid") != "" {
		t.Fatalf("expected empty result for invalid mac")
	}
	arpLine := "? (10.0.0.5) at 8c:85:90:12:34:56 [ether] on en0"
	if got := normaliseMAC(arpLine); got != want {
		t.Fatalf("expected %s extracted from arp line, got %s", want, got)
	}
}

func TestClamp(t *testing.T) {
	if got := clamp(5, 8, 64); got != 8 {
		t.Fatalf("expected lower bound 8, got %d", got)
	}
	if got := clamp(100, 8, 64); got != 64 {
		t.Fatalf("expected upper bound 64, got %d", got)
	}
	if got := clamp(16, 8, 64); got != 16 {
		t.Fatalf("expected 16, got %d", got)
	}
}
