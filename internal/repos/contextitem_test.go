package repos

import (
	"context"
	"testing"
	"time"

	"github.com/draftloop/draftloop-backend/internal/repos/testutil"
	"github.com/draftloop/draftloop-backend/internal/types"
)

func TestContextItemRepoFilters(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()

	repo := NewContextItemRepo(db, testutil.Logger(t))

	user := testutil.SeedUser(t, ctx, tx, "ctx-repo-cookie")
	other := testutil.SeedUser(t, ctx, tx, "ctx-repo-other")
	project := testutil.SeedProject(t, ctx, tx, user.ID, "p")
	chat := testutil.SeedChat(t, ctx, tx, project.ID, "c")

	testutil.SeedContextItem(t, ctx, tx, types.ScopeGlobal, "global item", nil, nil, nil)
	testutil.SeedContextItem(t, ctx, tx, types.ScopeUser, "user item", &user.ID, nil, nil)
	testutil.SeedContextItem(t, ctx, tx, types.ScopeUser, "other user item", &other.ID, nil, nil)
	testutil.SeedContextItem(t, ctx, tx, types.ScopeProject, "project item", &user.ID, &project.ID, nil)
	testutil.SeedContextItem(t, ctx, tx, types.ScopeChat, "chat item", &user.ID, &project.ID, &chat.ID)

	userScope := types.ScopeUser
	items, total, err := repo.List(ctx, tx, ContextItemFilter{Scope: &userScope, UserID: &user.ID}, 50, 0)
	if err != nil {
		t.Fatalf("List (user scope): %v", err)
	}
	if total != 1 || len(items) != 1 || items[0].Content != "user item" {
		t.Fatalf("List (user scope): expected exactly the caller's item, got total=%d items=%+v", total, items)
	}

	chatScope := types.ScopeChat
	all, err := repo.GetAllByScope(ctx, tx, ContextItemFilter{Scope: &chatScope, ProjectID: &project.ID, ChatID: &chat.ID})
	if err != nil {
		t.Fatalf("GetAllByScope: %v", err)
	}
	if len(all) != 1 || all[0].Content != "chat item" {
		t.Fatalf("GetAllByScope: expected the chat item, got %+v", all)
	}
}

func TestContextItemRepoGetAllByScopeOrdering(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()

	repo := NewContextItemRepo(db, testutil.Logger(t))

	user := testutil.SeedUser(t, ctx, tx, "ctx-order-cookie")
	project := testutil.SeedProject(t, ctx, tx, user.ID, "p")

	base := time.Now().UTC().Add(-time.Hour)
	for i, content := range []string{"first", "second", "third"} {
		item := testutil.SeedContextItem(t, ctx, tx, types.ScopeProject, content, &user.ID, &project.ID, nil)
		item.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		if err := tx.Save(item).Error; err != nil {
			t.Fatalf("adjust created_at: %v", err)
		}
	}

	scope := types.ScopeProject
	items, err := repo.GetAllByScope(ctx, tx, ContextItemFilter{Scope: &scope, ProjectID: &project.ID})
	if err != nil {
		t.Fatalf("GetAllByScope: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("GetAllByScope: expected 3 items, got %d", len(items))
	}
	for i, want := range []string{"first", "second", "third"} {
		if items[i].Content != want {
			t.Fatalf("GetAllByScope: expected %q at index %d, got %q", want, i, items[i].Content)
		}
	}
}

func TestContextItemRepoDelete(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()

	repo := NewContextItemRepo(db, testutil.Logger(t))

	item := testutil.SeedContextItem(t, ctx, tx, types.ScopeGlobal, "to delete", nil, nil, nil)

	if err := repo.Delete(ctx, tx, item.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	got, err := repo.GetByID(ctx, tx, item.ID)
	if err != nil {
		t.Fatalf("GetByID after delete: %v", err)
	}
	if got != nil {
		t.Fatalf("GetByID after delete: expected nil, got %+v", got)
	}
}
