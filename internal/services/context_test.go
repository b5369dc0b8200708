package services

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/draftloop/draftloop-backend/internal/apperr"
	"github.com/draftloop/draftloop-backend/internal/repos"
	"github.com/draftloop/draftloop-backend/internal/repos/testutil"
	"github.com/draftloop/draftloop-backend/internal/types"
)

func TestContextIngestAssociationValidation(t *testing.T) {
	projectID := uuid.New()
	chatID := uuid.New()

	cases := []struct {
		name  string
		input IngestContextInput
	}{
		{"invalid scope", IngestContextInput{Scope: "team", Title: "t", Content: "c"}},
		{"empty title", IngestContextInput{Scope: types.ScopeGlobal, Title: "  ", Content: "c"}},
		{"empty content", IngestContextInput{Scope: types.ScopeGlobal, Title: "t", Content: ""}},
		{"global with project", IngestContextInput{Scope: types.ScopeGlobal, Title: "t", Content: "c", ProjectID: &projectID}},
		{"user with chat", IngestContextInput{Scope: types.ScopeUser, Title: "t", Content: "c", ChatID: &chatID}},
		{"project without project", IngestContextInput{Scope: types.ScopeProject, Title: "t", Content: "c"}},
		{"project with chat", IngestContextInput{Scope: types.ScopeProject, Title: "t", Content: "c", ProjectID: &projectID, ChatID: &chatID}},
		{"chat without chat", IngestContextInput{Scope: types.ScopeChat, Title: "t", Content: "c", ProjectID: &projectID}},
		{"chat without project", IngestContextInput{Scope: types.ScopeChat, Title: "t", Content: "c", ChatID: &chatID}},
	}

	gemini := &fakeGemini{vector: []float32{1}}
	svc := NewContextService(nil, &fakeAuthorizer{}, gemini, &fakeItemRepo{}, &fakeEmbeddingRepo{}, testLogger(t))

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Ingest(context.Background(), uuid.New(), tc.input)
			if !apperr.IsValidation(err) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
	if gemini.batchCalls != 0 {
		t.Fatalf("validation failures must not reach the embedding provider, got %d calls", gemini.batchCalls)
	}
}

func TestContextIngestDeniedBeforeEmbedding(t *testing.T) {
	projectID := uuid.New()
	authz := &fakeAuthorizer{err: apperr.AccessDenied("project_access_denied", "not yours")}
	gemini := &fakeGemini{vector: []float32{1}}
	svc := NewContextService(nil, authz, gemini, &fakeItemRepo{}, &fakeEmbeddingRepo{}, testLogger(t))

	_, err := svc.Ingest(context.Background(), uuid.New(), IngestContextInput{
		Scope:     types.ScopeProject,
		Title:     "t",
		Content:   "c",
		ProjectID: &projectID,
	})
	if !apperr.IsAccessDenied(err) {
		t.Fatalf("expected access denied, got %v", err)
	}
	if gemini.batchCalls != 0 {
		t.Fatalf("denied ingestion must not reach the embedding provider")
	}
}

func TestContextIngestAndDeleteLifecycle(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	log := testLogger(t)

	itemRepo := repos.NewContextItemRepo(db, log)
	embeddingRepo := repos.NewContextEmbeddingRepo(db, log)
	gemini := &fakeGemini{vector: make([]float32, types.EmbeddingDim)}
	svc := NewContextService(db, &fakeAuthorizer{}, gemini, itemRepo, embeddingRepo, log)

	userID := uuid.New()
	content := strings.Repeat("Sentence one is here. ", 120) // > one chunk

	result, err := svc.Ingest(ctx, userID, IngestContextInput{
		Scope:   types.ScopeUser,
		Title:   "notes",
		Content: content,
	})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if result.ChunksCreated < 2 {
		t.Fatalf("expected multiple chunks for %d chars, got %d", len(content), result.ChunksCreated)
	}
	if result.EmbeddingsCreated != result.ChunksCreated {
		t.Fatalf("expected one embedding per chunk, got %d/%d", result.EmbeddingsCreated, result.ChunksCreated)
	}
	if result.Item.UserID == nil || *result.Item.UserID != userID {
		t.Fatalf("user scope item must carry the caller identity")
	}
	if gemini.batchCalls != 1 {
		t.Fatalf("expected a single batch embedding call, got %d", gemini.batchCalls)
	}

	rows, err := embeddingRepo.GetByContextItem(ctx, nil, result.Item.ID)
	if err != nil {
		t.Fatalf("GetByContextItem: %v", err)
	}
	if len(rows) != result.ChunksCreated {
		t.Fatalf("expected %d embedding rows, got %d", result.ChunksCreated, len(rows))
	}

	// Someone else cannot delete it.
	err = svc.Delete(ctx, uuid.New(), result.Item.ID)
	if !apperr.IsAccessDenied(err) {
		t.Fatalf("expected access denied for non-owner, got %v", err)
	}

	if err := svc.Delete(ctx, userID, result.Item.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	rows, err = embeddingRepo.GetByContextItem(ctx, nil, result.Item.ID)
	if err != nil {
		t.Fatalf("GetByContextItem after delete: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("embeddings must cascade with the item, %d rows left", len(rows))
	}

	err = svc.Delete(ctx, userID, result.Item.ID)
	if !apperr.IsNotFound(err) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestContextListPreview(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	log := testLogger(t)

	itemRepo := repos.NewContextItemRepo(db, log)
	embeddingRepo := repos.NewContextEmbeddingRepo(db, log)
	gemini := &fakeGemini{vector: make([]float32, types.EmbeddingDim)}
	svc := NewContextService(db, &fakeAuthorizer{}, gemini, itemRepo, embeddingRepo, log)

	userID := uuid.New()
	if _, err := svc.Ingest(ctx, userID, IngestContextInput{
		Scope:   types.ScopeUser,
		Title:   "long",
		Content: strings.Repeat("x", 500),
	}); err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	scope := types.ScopeUser
	items, total, err := svc.List(ctx, userID, &scope, nil, nil, 50, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 1 || len(items) != 1 {
		t.Fatalf("expected exactly one item, got total=%d len=%d", total, len(items))
	}
	if len(items[0].ContentPreview) != contextPreviewChars {
		t.Fatalf("expected %d-char preview, got %d", contextPreviewChars, len(items[0].ContentPreview))
	}

	// Another caller sees no user-scoped items.
	_, total, err = svc.List(ctx, uuid.New(), &scope, nil, nil, 50, 0)
	if err != nil {
		t.Fatalf("List (other caller): %v", err)
	}
	if total != 0 {
		t.Fatalf("expected other caller to see 0 items, got %d", total)
	}
}

func TestContextIngestFile(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	log := testLogger(t)

	itemRepo := repos.NewContextItemRepo(db, log)
	embeddingRepo := repos.NewContextEmbeddingRepo(db, log)
	gemini := &fakeGemini{vector: make([]float32, types.EmbeddingDim)}
	svc := NewContextService(db, &fakeAuthorizer{}, gemini, itemRepo, embeddingRepo, log)

	userID := uuid.New()
	result, err := svc.IngestFile(ctx, userID, IngestFileInput{
		Scope:    types.ScopeUser,
		FileName: "release-notes.md",
		Data:     []byte("# Release\n\nShipped the importer."),
	})
	if err != nil {
		t.Fatalf("IngestFile: %v", err)
	}
	t.Cleanup(func() {
		_ = svc.Delete(ctx, userID, result.Item.ID)
	})
	if result.Item.FileType == nil || *result.Item.FileType != "md" {
		t.Fatalf("expected file type md, got %v", result.Item.FileType)
	}
	if result.Item.FileURL == nil || *result.Item.FileURL != "release-notes.md" {
		t.Fatalf("expected original filename kept, got %v", result.Item.FileURL)
	}
	if result.Item.Title != "release-notes" {
		t.Fatalf("expected title derived from filename, got %q", result.Item.Title)
	}
	if result.Item.Content != "# Release\n\nShipped the importer." {
		t.Fatalf("file bytes must become the content, got %q", result.Item.Content)
	}
	if result.EmbeddingsCreated == 0 {
		t.Fatalf("uploaded content must be embedded")
	}
}

func TestContextIngestFileRejections(t *testing.T) {
	cases := []struct {
		name  string
		input IngestFileInput
	}{
		{"empty file", IngestFileInput{Scope: types.ScopeUser, FileName: "a.txt"}},
		{"unsupported extension", IngestFileInput{Scope: types.ScopeUser, FileName: "a.pdf", Data: []byte("x")}},
		{"no extension", IngestFileInput{Scope: types.ScopeUser, FileName: "notes", Data: []byte("x")}},
		{"invalid utf-8", IngestFileInput{Scope: types.ScopeUser, FileName: "a.txt", Data: []byte{0xff, 0xfe, 0x01}}},
		{"oversize", IngestFileInput{Scope: types.ScopeUser, FileName: "a.txt", Data: make([]byte, maxUploadBytes+1)}},
	}

	gemini := &fakeGemini{vector: []float32{1}}
	svc := NewContextService(nil, &fakeAuthorizer{}, gemini, &fakeItemRepo{}, &fakeEmbeddingRepo{}, testLogger(t))

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.IngestFile(context.Background(), uuid.New(), tc.input)
			if !apperr.IsValidation(err) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
	if gemini.batchCalls != 0 {
		t.Fatalf("rejected uploads must not reach the embedding provider, got %d calls", gemini.batchCalls)
	}
}

func TestContextListUnscopedIncludesGlobal(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	log := testLogger(t)

	itemRepo := repos.NewContextItemRepo(db, log)
	embeddingRepo := repos.NewContextEmbeddingRepo(db, log)
	gemini := &fakeGemini{vector: make([]float32, types.EmbeddingDim)}
	svc := NewContextService(db, &fakeAuthorizer{}, gemini, itemRepo, embeddingRepo, log)

	callerID := uuid.New()
	otherID := uuid.New()

	globalItem := testutil.SeedContextItem(t, ctx, db, types.ScopeGlobal, "shared guidance", nil, nil, nil)
	t.Cleanup(func() {
		_ = itemRepo.Delete(ctx, nil, globalItem.ID)
	})
	mine, err := svc.Ingest(ctx, callerID, IngestContextInput{Scope: types.ScopeUser, Title: "mine", Content: "my notes"})
	if err != nil {
		t.Fatalf("Ingest (caller): %v", err)
	}
	t.Cleanup(func() {
		_ = svc.Delete(ctx, callerID, mine.Item.ID)
	})
	theirs, err := svc.Ingest(ctx, otherID, IngestContextInput{Scope: types.ScopeUser, Title: "theirs", Content: "other notes"})
	if err != nil {
		t.Fatalf("Ingest (other): %v", err)
	}
	t.Cleanup(func() {
		_ = svc.Delete(ctx, otherID, theirs.Item.ID)
	})

	items, _, err := svc.List(ctx, callerID, nil, nil, nil, 100, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	seen := map[uuid.UUID]bool{}
	for _, item := range items {
		seen[item.ID] = true
	}
	if !seen[globalItem.ID] {
		t.Fatalf("unscoped list must include global items")
	}
	if !seen[mine.Item.ID] {
		t.Fatalf("unscoped list must include the caller's items")
	}
	if seen[theirs.Item.ID] {
		t.Fatalf("unscoped list must not include other users' items")
	}
}

func TestContextDeleteGlobalDenied(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	log := testLogger(t)

	itemRepo := repos.NewContextItemRepo(db, log)
	embeddingRepo := repos.NewContextEmbeddingRepo(db, log)
	svc := NewContextService(db, &fakeAuthorizer{}, &fakeGemini{vector: []float32{1}}, itemRepo, embeddingRepo, log)

	item := testutil.SeedContextItem(t, ctx, db, types.ScopeGlobal, "shared", nil, nil, nil)
	t.Cleanup(func() {
		_ = itemRepo.Delete(ctx, nil, item.ID)
	})

	err := svc.Delete(ctx, uuid.New(), item.ID)
	if !apperr.IsAccessDenied(err) {
		t.Fatalf("expected access denied for global item, got %v", err)
	}
}
