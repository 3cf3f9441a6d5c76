package category

import (
	"context"
	"testing"

	"marketplace/internal/dbtest"
	"marketplace/internal/domain"
)

func TestPostgres_UpsertAndList(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(ctx, t)

	repo := NewPostgres(pool)
	cat, err := repo.Upsert(ctx, domain.Category{Name: "Groceries", Icon: "🛒"})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if cat.ID == "" || cat.Name != "Groceries" {
		t.Fatalf("unexpected category %+v", cat)
	}
	if _, err := repo.Upsert(ctx, domain.Category{Name: "Books"}); err != nil {
		t.Fatalf("upsert books: %v", err)
	}

	list, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].Name != "Books" {
		t.Fatalf("unexpected list %+v", list)
	}
}

func TestPostgres_UpsertKeepsExistingFields(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(ctx, t)

	repo := NewPostgres(pool)
	first, err := repo.Upsert(ctx, domain.Category{Name: "Crafts", Description: "Handmade", Icon: "🧶"})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	second, err := repo.Upsert(ctx, domain.Category{Name: "Crafts"})
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected same id, got %s and %s", first.ID, second.ID)
	}
	if second.Description != "Handmade" || second.Icon != "🧶" {
		t.Fatalf("expected stored fields preserved, got %+v", second)
	}
}
