package rag

import (
	"context"
	"fmt"
	"testing"

	"github.com/vidquest/engine/engine/semantic"
)

func TestHealth_AllHealthy(t *testing.T) {
	svc := New(
		&mockSearcher{results: []semantic.SearchResult{backpropHit()}},
		&mockGenerator{answer: "pong"},
		nil, nil,
	)

	report := svc.Health(context.Background())
	if report.Status != StatusHealthy {
		t.Errorf("expected healthy, got %s", report.Status)
	}
	if report.Components["search"] != StatusHealthy || report.Components["generation"] != StatusHealthy {
		t.Errorf("unexpected components: %v", report.Components)
	}
	if report.Errors != nil {
		t.Errorf("no errors expected: %v", report.Errors)
	}
}

func TestHealth_SearchDown(t *testing.T) {
	svc := New(
		&mockSearcher{err: fmt.Errorf("qdrant unreachable")},
		&mockGenerator{answer: "pong"},
		nil, nil,
	)

	report := svc.Health(context.Background())
	if report.Status != StatusUnhealthy {
		t.Errorf("expected unhealthy overall, got %s", report.Status)
	}
	if report.Components["search"] != StatusUnhealthy {
		t.Errorf("search should be unhealthy: %v", report.Components)
	}
	if report.Components["generation"] != StatusHealthy {
		t.Errorf("generation probe is independent: %v", report.Components)
	}
	if report.Errors["search"] == "" {
		t.Error("probe failure must be reflected, not raised")
	}
}

func TestHealth_BothDown(t *testing.T) {
	svc := New(
		&mockSearcher{err: fmt.Errorf("down")},
		&mockGenerator{err: fmt.Errorf("down")},
		nil, nil,
	)

	report := svc.Health(context.Background())
	if report.Status != StatusUnhealthy {
		t.Errorf("expected unhealthy, got %s", report.Status)
	}
	if len(report.Errors) != 2 {
		t.Errorf("expected both errors recorded: %v", report.Errors)
	}
}
