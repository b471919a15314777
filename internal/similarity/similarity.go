// Package similarity scores how close two texts are in embedding space.
package similarity

import (
	"context"
	stderrors "errors"
	"math"
	"strings"
	"time"

	"resumatch/internal/embedding"
	"resumatch/internal/errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// DefaultTimeout bounds encoding when no timeout is configured.
const DefaultTimeout = 30 * time.Second

// Comparator computes semantic similarity between two texts. It is safe for
// concurrent use as long as its Embedder is.
type Comparator struct {
	embedder embedding.Embedder
	timeout  time.Duration
	logger   *errors.Logger
}

// NewComparator returns a Comparator encoding through embedder. A zero
// timeout uses DefaultTimeout.
func NewComparator(embedder embedding.Embedder, timeout time.Duration, logger *errors.Logger) *Comparator {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Comparator{embedder: embedder, timeout: timeout, logger: logger}
}

// Embedder returns the embedder in use.
func (c *Comparator) Embedder() embedding.Embedder { return c.embedder }

// Similarity returns the cosine similarity of a and b scaled to [0, 100]
// with two decimals. An empty text scores 0 without calling the embedder.
func (c *Comparator) Similarity(ctx context.Context, a, b string) (float64, error) {
	if strings.TrimSpace(a) == "" || strings.TrimSpace(b) == "" {
		return 0, nil
	}

	ctx, span := otel.Tracer("resumatch.similarity").Start(ctx, "similarity.compare")
	defer span.End()
	span.SetAttributes(attribute.String("embedding.model", c.embedder.Model()))

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var va, vb []float32
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		va, err = c.embedder.Embed(gctx, a)
		return err
	})
	g.Go(func() error {
		var err error
		vb, err = c.embedder.Embed(gctx, b)
		return err
	})

	// Embedders that ignore cancellation must not hold the caller past the deadline.
	done := make(chan error, 1)
	go func() { done <- g.Wait() }()

	select {
	case err := <-done:
		if err != nil {
			span.RecordError(err)
			return 0, c.encodingFailure(ctx, err)
		}
	case <-ctx.Done():
		span.RecordError(ctx.Err())
		return 0, c.encodingFailure(ctx, ctx.Err())
	}

	score := Score(Cosine(va, vb))
	span.SetAttributes(attribute.Float64("similarity.score", score))
	return score, nil
}

func (c *Comparator) encodingFailure(ctx context.Context, err error) error {
	if appErr, ok := errors.As(err); ok && appErr.Type == errors.ErrorTypeEncoding {
		return appErr
	}

	code := errors.ErrCodeEncodingFailed
	message := "failed to encode text"
	if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
		code = errors.ErrCodeEncodingTimeout
		message = "text encoding exceeded the configured timeout"
	}
	c.logger.LogError(err, "Semantic comparison failed",
		"model", c.embedder.Model(),
		"timeout", c.timeout)
	return errors.NewEncodingError(code, message, err).
		WithContext("model", c.embedder.Model())
}

// Cosine returns the cosine of the angle between a and b. Vectors of
// different lengths or with zero magnitude give 0.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Score maps a cosine value to a percentage: negatives become 0 and the
// result is clamped to [0, 100] and rounded to two decimals.
func Score(cosine float64) float64 {
	if math.IsNaN(cosine) || cosine < 0 {
		return 0
	}
	return Round2(math.Min(cosine*100, 100))
}

// Round2 rounds x to two decimal places, halves away from zero.
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}
