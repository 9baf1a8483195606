package embeddings

import (
	"context"
	"math"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncate(t *testing.T) {
	short := "vitamin D"
	if got := Truncate(short); got != short {
		t.Errorf("short text changed: %q", got)
	}

	long := strings.Repeat("a", maxInputChars+500)
	got := Truncate(long)
	if len(got) != maxInputChars {
		t.Errorf("truncated length: got %d, want %d", len(got), maxInputChars)
	}
}

func TestTruncate_RuneBoundary(t *testing.T) {
	// The leading byte shifts every two-byte umlaut so the cut point
	// lands mid-rune; the cut must back up instead of splitting it.
	long := "x" + strings.Repeat("ä", maxInputChars)
	got := Truncate(long)
	if len(got) > maxInputChars {
		t.Errorf("truncated length: got %d, max %d", len(got), maxInputChars)
	}
	if !utf8.ValidString(got) {
		t.Error("truncation split a multibyte rune")
	}
	if !strings.HasSuffix(got, "ä") {
		t.Errorf("unexpected tail: %q", got[len(got)-4:])
	}
}

func TestNormalize(t *testing.T) {
	vec := Normalize([]float32{3, 4})
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if math.Abs(sum-1) > 1e-6 {
		t.Errorf("norm^2 after Normalize: %v", sum)
	}

	zero := Normalize([]float32{0, 0, 0})
	for i, v := range zero {
		if v != 0 {
			t.Errorf("zero vector changed at %d: %v", i, v)
		}
	}
}

func TestLocalEmbedder(t *testing.T) {
	ctx := context.Background()
	e := NewLocalEmbedder(0)
	if e.Dimensions() != DefaultLocalDimensions {
		t.Errorf("default dimensions: got %d, want %d", e.Dimensions(), DefaultLocalDimensions)
	}

	vectors, err := e.Embed(ctx, []string{
		"vitamin D regulates calcium",
		"vitamin D regulates calcium",
		"magnesium and sleep",
	})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vectors) != 3 {
		t.Fatalf("got %d vectors, want 3", len(vectors))
	}
	for i, vec := range vectors {
		if len(vec) != DefaultLocalDimensions {
			t.Errorf("vector %d has %d dimensions", i, len(vec))
		}
	}

	// Deterministic: identical texts embed identically.
	for i := range vectors[0] {
		if vectors[0][i] != vectors[1][i] {
			t.Fatal("identical texts produced different vectors")
		}
	}

	// Unit length, so inner product is cosine similarity.
	var sum float64
	for _, v := range vectors[0] {
		sum += float64(v) * float64(v)
	}
	if math.Abs(sum-1) > 1e-5 {
		t.Errorf("vector not normalized: norm^2 = %v", sum)
	}

	// Shared vocabulary scores higher than disjoint vocabulary.
	dotAB := dot(vectors[0], vectors[2])
	same := dot(vectors[0], vectors[1])
	if dotAB >= same {
		t.Errorf("unrelated text scored %v, identical text %v", dotAB, same)
	}
}

func TestLocalEmbedder_CustomDimensions(t *testing.T) {
	e := NewLocalEmbedder(64)
	vectors, err := e.Embed(context.Background(), []string{"zinc"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vectors[0]) != 64 {
		t.Errorf("vector has %d dimensions, want 64", len(vectors[0]))
	}
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
