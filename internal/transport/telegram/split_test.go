package telegram

import (
	"strings"
	"testing"
)

func TestSplitTextShort(t *testing.T) {
	t.Parallel()
	parts := splitText("hello", 100)
	if len(parts) != 1 || parts[0] != "hello" {
		t.Fatalf("parts = %v", parts)
	}
}

func TestSplitTextPrefersNewlines(t *testing.T) {
	t.Parallel()
	text := strings.Repeat("a", 40) + "\n" + strings.Repeat("b", 40)
	parts := splitText(text, 50)
	if len(parts) != 2 {
		t.Fatalf("parts = %d, want 2", len(parts))
	}
	if strings.Contains(parts[0], "b") || strings.Contains(parts[1], "a") {
		t.Fatalf("split did not break at the newline: %q | %q", parts[0], parts[1])
	}
}

func TestSplitTextHardBreak(t *testing.T) {
	t.Parallel()
	text := strings.Repeat("x", 120)
	parts := splitText(text, 50)
	if len(parts) != 3 {
		t.Fatalf("parts = %d, want 3", len(parts))
	}
	var total int
	for _, p := range parts {
		if len(p) > 50 {
			t.Fatalf("part too long: %d", len(p))
		}
		total += len(p)
	}
	if total != 120 {
		t.Fatalf("total = %d, want 120 (no content lost)", total)
	}
}
