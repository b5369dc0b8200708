package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/draftloop/draftloop-backend/internal/types"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, cookieID string) *types.User {
	tb.Helper()
	now := time.Now().UTC()
	u := &types.User{
		ID:        uuid.New(),
		CookieID:  cookieID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedProject(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, name string) *types.Project {
	tb.Helper()
	now := time.Now().UTC()
	p := &types.Project{
		ID:        uuid.New(),
		UserID:    userID,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed project: %v", err)
	}
	return p
}

func SeedChat(tb testing.TB, ctx context.Context, tx *gorm.DB, projectID uuid.UUID, title string) *types.Chat {
	tb.Helper()
	now := time.Now().UTC()
	c := &types.Chat{
		ID:           uuid.New(),
		ProjectID:    projectID,
		Title:        title,
		DocumentType: "PRD",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed chat: %v", err)
	}
	return c
}

func SeedDocument(tb testing.TB, ctx context.Context, tx *gorm.DB, chatID uuid.UUID, version int, content string) *types.Document {
	tb.Helper()
	d := &types.Document{
		ID:        uuid.New(),
		ChatID:    chatID,
		Version:   version,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	if err := tx.WithContext(ctx).Create(d).Error; err != nil {
		tb.Fatalf("seed document: %v", err)
	}
	return d
}

func SeedContextItem(tb testing.TB, ctx context.Context, tx *gorm.DB, scope types.Scope, content string, userID, projectID, chatID *uuid.UUID) *types.ContextItem {
	tb.Helper()
	now := time.Now().UTC()
	item := &types.ContextItem{
		ID:        uuid.New(),
		Scope:     scope,
		Title:     "item",
		Content:   content,
		UserID:    userID,
		ProjectID: projectID,
		ChatID:    chatID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := tx.WithContext(ctx).Create(item).Error; err != nil {
		tb.Fatalf("seed context item: %v", err)
	}
	return item
}
