package summary

import (
	"strings"
	"testing"
)

func TestBuildInputJoinsWithSeparator(t *testing.T) {
	t.Parallel()
	got, truncated := BuildInput([]string{"first", "second", "third"})
	want := "first\n\n---\n\nsecond\n\n---\n\nthird"
	if got != want {
		t.Fatalf("BuildInput = %q, want %q", got, want)
	}
	if truncated {
		t.Fatal("short input must not be truncated")
	}
}

func TestBuildInputTruncates(t *testing.T) {
	t.Parallel()
	long := strings.Repeat("x", maxInputChars+100)
	got, truncated := BuildInput([]string{long})
	if !truncated {
		t.Fatal("expected truncation")
	}
	if !strings.HasSuffix(got, truncationMark) {
		t.Fatalf("missing truncation mark, tail = %q", got[len(got)-30:])
	}
	if len(got) != maxInputChars+len(truncationMark) {
		t.Fatalf("len = %d, want %d", len(got), maxInputChars+len(truncationMark))
	}
}

func TestBuildInputExactLimit(t *testing.T) {
	t.Parallel()
	exact := strings.Repeat("y", maxInputChars)
	got, truncated := BuildInput([]string{exact})
	if truncated {
		t.Fatal("input at the limit must not be truncated")
	}
	if got != exact {
		t.Fatal("input at the limit must pass through unchanged")
	}
}
