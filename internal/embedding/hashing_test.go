package embedding

import (
	"context"
	"math"
	"testing"
)

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func TestHashingEmbedder(t *testing.T) {
	ctx := context.Background()
	h := NewHashingEmbedder(256)

	if h.Model() != "hashing-256" {
		t.Errorf("Model = %q", h.Model())
	}

	a, err := h.Embed(ctx, "Senior Go developer with Kubernetes experience")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(a) != 256 {
		t.Fatalf("len = %d, want 256", len(a))
	}
	if n := math.Sqrt(dot(a, a)); math.Abs(n-1) > 1e-5 {
		t.Errorf("vector norm = %f, want 1", n)
	}

	again, _ := h.Embed(ctx, "senior go developer, with kubernetes experience!")
	if d := dot(a, again); math.Abs(d-1) > 1e-5 {
		t.Errorf("case and punctuation should not change the vector, dot = %f", d)
	}

	related, _ := h.Embed(ctx, "Go developer experienced with Kubernetes")
	unrelated, _ := h.Embed(ctx, "Pastry chef baking sourdough bread")
	if dot(a, related) <= dot(a, unrelated) {
		t.Errorf("related text should score higher: related=%f unrelated=%f", dot(a, related), dot(a, unrelated))
	}
}

func TestHashingEmbedderEmptyText(t *testing.T) {
	v, err := NewHashingEmbedder(0).Embed(context.Background(), "...")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(v) != DefaultHashingDimensions {
		t.Fatalf("len = %d, want %d", len(v), DefaultHashingDimensions)
	}
	for _, x := range v {
		if x != 0 {
			t.Fatal("expected zero vector")
		}
	}
}

func TestHashingEmbedderCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewHashingEmbedder(8).Embed(ctx, "text"); err == nil {
		t.Error("expected context error")
	}
}
