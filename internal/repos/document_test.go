package repos

import (
	"context"
	"testing"

	"github.com/draftloop/draftloop-backend/internal/repos/testutil"
)

func TestDocumentRepoVersionLineage(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()

	repo := NewDocumentRepo(db, testutil.Logger(t))

	user := testutil.SeedUser(t, ctx, tx, "doc-repo-cookie")
	project := testutil.SeedProject(t, ctx, tx, user.ID, "p")
	chat := testutil.SeedChat(t, ctx, tx, project.ID, "c")

	latest, err := repo.GetLatest(ctx, tx, chat.ID)
	if err != nil {
		t.Fatalf("GetLatest (empty): %v", err)
	}
	if latest != nil {
		t.Fatalf("GetLatest (empty): expected nil, got v%d", latest.Version)
	}

	for v := 1; v <= 3; v++ {
		testutil.SeedDocument(t, ctx, tx, chat.ID, v, "content")
	}

	latest, err = repo.GetLatest(ctx, tx, chat.ID)
	if err != nil {
		t.Fatalf("GetLatest: %v", err)
	}
	if latest == nil || latest.Version != 3 {
		t.Fatalf("GetLatest: expected v3, got %+v", latest)
	}

	docs, err := repo.ListByChat(ctx, tx, chat.ID)
	if err != nil {
		t.Fatalf("ListByChat: %v", err)
	}
	if len(docs) != 3 {
		t.Fatalf("ListByChat: expected 3 documents, got %d", len(docs))
	}
	for i, want := range []int{3, 2, 1} {
		if docs[i].Version != want {
			t.Fatalf("ListByChat: expected version %d at index %d, got %d", want, i, docs[i].Version)
		}
	}
}
