package services_test

import (
	"context"
	"testing"

	"github.com/Kanjirito/mokuro/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRunID(ctx, "run-123")
	ctx = services.WithVolume(ctx, "/manga/vol1")
	ctx = services.WithVolumeIndex(ctx, 3)

	if id, ok := services.RunIDFromContext(ctx); !ok || id != "run-123" {
		t.Fatalf("unexpected run id: %v %v", id, ok)
	}
	if vol, ok := services.VolumeFromContext(ctx); !ok || vol != "/manga/vol1" {
		t.Fatalf("unexpected volume: %v %v", vol, ok)
	}
	if idx, ok := services.VolumeIndexFromContext(ctx); !ok || idx != 3 {
		t.Fatalf("unexpected volume index: %v %v", idx, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRunID(ctx, "")
	ctx = services.WithVolume(ctx, "")
	ctx = services.WithVolumeIndex(ctx, 0)

	if _, ok := services.RunIDFromContext(ctx); ok {
		t.Fatal("expected no run id value")
	}
	if _, ok := services.VolumeFromContext(ctx); ok {
		t.Fatal("expected no volume value")
	}
	if _, ok := services.VolumeIndexFromContext(ctx); ok {
		t.Fatal("expected no volume index value")
	}
}
