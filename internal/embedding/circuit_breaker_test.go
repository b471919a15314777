package embedding

import (
	"errors"
	"testing"
	"time"

	"resumatch/internal/config"

	"github.com/sony/gobreaker/v2"
)

func TestCircuitBreakerTripsAfterFailures(t *testing.T) {
	cfg := config.CircuitBreakerConfig{
		Enabled:          true,
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          time.Minute,
		MinRequests:      2,
		FailureThreshold: 0.5,
	}
	cb := NewCircuitBreaker[[]float32]("Test", cfg, nil)

	stats := cb.Stats()
	if name := stats["name"]; name != "Embedding-Test" {
		t.Errorf("Expected circuit breaker name 'Embedding-Test', got '%v'", name)
	}
	if state := stats["state"]; state != "closed" {
		t.Errorf("Expected initial state 'closed', got '%v'", state)
	}

	upstream := errors.New("upstream unavailable")
	calls := 0
	fail := func() ([]float32, error) {
		calls++
		return nil, upstream
	}

	for i := 0; i < 2; i++ {
		if _, err := cb.Execute(fail); !errors.Is(err, upstream) {
			t.Fatalf("call %d: expected upstream error, got %v", i, err)
		}
	}

	if cb.IsHealthy() {
		t.Error("Expected breaker to be open after two failures")
	}

	_, err := cb.Execute(fail)
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("Expected ErrOpenState, got %v", err)
	}
	if !isBreakerRejection(err) {
		t.Error("open state error should count as a breaker rejection")
	}
	if calls != 2 {
		t.Errorf("open breaker should not call through, got %d calls", calls)
	}
}

func TestCircuitBreakerDisabled(t *testing.T) {
	cb := NewCircuitBreaker[int]("Disabled", config.CircuitBreakerConfig{Enabled: false}, nil)
	if cb != nil {
		t.Fatal("Expected nil circuit breaker when disabled")
	}

	got, err := cb.Execute(func() (int, error) { return 42, nil })
	if err != nil || got != 42 {
		t.Errorf("Execute on nil breaker = %d, %v", got, err)
	}
	if enabled := cb.Stats()["enabled"]; enabled != false {
		t.Errorf("Expected enabled=false, got %v", enabled)
	}
	if !cb.IsHealthy() {
		t.Error("Nil breaker should be healthy")
	}
}
