package services_test

import (
	"context"
	"testing"

	"takeoutsync/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRunID(ctx, "20240101-000000-abcd1234")
	ctx = services.WithAlbum(ctx, "Trip to Rome")
	ctx = services.WithStage(ctx, "matching")
	ctx = services.WithRequestID(ctx, "req-123")

	if id, ok := services.RunIDFromContext(ctx); !ok || id != "20240101-000000-abcd1234" {
		t.Fatalf("unexpected run id: %v %v", id, ok)
	}
	if album, ok := services.AlbumFromContext(ctx); !ok || album != "Trip to Rome" {
		t.Fatalf("unexpected album: %v %v", album, ok)
	}
	if stage, ok := services.StageFromContext(ctx); !ok || stage != "matching" {
		t.Fatalf("unexpected stage: %v %v", stage, ok)
	}
	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-123" {
		t.Fatalf("unexpected request id: %v %v", rid, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithStage(ctx, "")
	ctx = services.WithAlbum(ctx, "")
	if _, ok := services.StageFromContext(ctx); ok {
		t.Fatal("expected no stage value")
	}
	if _, ok := services.AlbumFromContext(ctx); ok {
		t.Fatal("expected no album value")
	}
}
