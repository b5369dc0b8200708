package services

import (
	"context"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/draftloop/draftloop-backend/internal/apperr"
	"github.com/draftloop/draftloop-backend/internal/logger"
	"github.com/draftloop/draftloop-backend/internal/repos"
	"github.com/draftloop/draftloop-backend/internal/types"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

type fakeAuthorizer struct {
	chat      *types.Chat
	project   *types.Project
	err       error
	chatCalls int
	projCalls int
}

func (f *fakeAuthorizer) AuthorizeProject(ctx context.Context, tx *gorm.DB, projectID, userID uuid.UUID) (*types.Project, error) {
	f.projCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.project, nil
}

func (f *fakeAuthorizer) AuthorizeChat(ctx context.Context, tx *gorm.DB, chatID, userID uuid.UUID) (*types.Chat, *types.Project, error) {
	f.chatCalls++
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.chat, f.project, nil
}

type fakeGemini struct {
	vector     []float32
	embedCalls int
	batchCalls int
}

func (f *fakeGemini) Embed(ctx context.Context, input string) ([]float32, error) {
	f.embedCalls++
	return f.vector, nil
}

func (f *fakeGemini) EmbedBatch(ctx context.Context, inputs []string) ([][]float32, error) {
	f.batchCalls++
	out := make([][]float32, len(inputs))
	for i := range inputs {
		out[i] = f.vector
	}
	return out, nil
}

type fakeItemRepo struct {
	mu         sync.Mutex
	byScope    map[types.Scope][]*types.ContextItem
	scopeCalls int
}

func (f *fakeItemRepo) Create(ctx context.Context, tx *gorm.DB, item *types.ContextItem) (*types.ContextItem, error) {
	return item, nil
}

func (f *fakeItemRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ContextItem, error) {
	return nil, nil
}

func (f *fakeItemRepo) List(ctx context.Context, tx *gorm.DB, filter repos.ContextItemFilter, limit, offset int) ([]*types.ContextItem, int64, error) {
	return nil, 0, nil
}

func (f *fakeItemRepo) GetAllByScope(ctx context.Context, tx *gorm.DB, filter repos.ContextItemFilter) ([]*types.ContextItem, error) {
	f.mu.Lock()
	f.scopeCalls++
	f.mu.Unlock()
	if filter.Scope == nil {
		return nil, nil
	}
	return f.byScope[*filter.Scope], nil
}

func (f *fakeItemRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	return nil
}

type fakeEmbeddingRepo struct {
	mu          sync.Mutex
	byScope     map[types.Scope][]repos.VectorSearchResult
	searchCalls int
	lastLimit   int
}

func (f *fakeEmbeddingRepo) CreateBatch(ctx context.Context, tx *gorm.DB, embeddings []*types.ContextEmbedding) ([]*types.ContextEmbedding, error) {
	return embeddings, nil
}

func (f *fakeEmbeddingRepo) GetByContextItem(ctx context.Context, tx *gorm.DB, contextItemID uuid.UUID) ([]*types.ContextEmbedding, error) {
	return nil, nil
}

func (f *fakeEmbeddingRepo) DeleteByContextItem(ctx context.Context, tx *gorm.DB, contextItemID uuid.UUID) error {
	return nil
}

func (f *fakeEmbeddingRepo) VectorSearch(ctx context.Context, tx *gorm.DB, query []float32, scope types.Scope, userID *uuid.UUID, limit int) ([]repos.VectorSearchResult, error) {
	f.mu.Lock()
	f.searchCalls++
	f.lastLimit = limit
	f.mu.Unlock()
	results := f.byScope[scope]
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func newTestRetrieval(t *testing.T, authz Authorizer, gemini GeminiClient, items repos.ContextItemRepo, embeddings repos.ContextEmbeddingRepo) RetrievalService {
	t.Helper()
	return NewRetrievalService(authz, gemini, items, embeddings, testLogger(t))
}

func TestScopeBudgetsSumToMax(t *testing.T) {
	for _, maxTokens := range []int{50000, 1000, 100, 7, 1} {
		budgets := scopeBudgets(maxTokens)
		sum := 0
		for _, b := range budgets {
			sum += b
		}
		if sum > maxTokens || maxTokens-sum > 3 {
			t.Fatalf("maxTokens=%d: budgets sum %d outside tolerance", maxTokens, sum)
		}
	}
	budgets := scopeBudgets(50000)
	if budgets[types.ScopeGlobal] != 5000 || budgets[types.ScopeUser] != 10000 ||
		budgets[types.ScopeProject] != 17500 || budgets[types.ScopeChat] != 17500 {
		t.Fatalf("unexpected budget split for 50000: %+v", budgets)
	}
}

func TestTruncateToBudget(t *testing.T) {
	t.Run("respects budget", func(t *testing.T) {
		items := []string{strings.Repeat("a", 300), strings.Repeat("b", 300), strings.Repeat("c", 300)}
		out := truncateToBudget(items, 100) // 400 chars
		total := 0
		for _, s := range out {
			total += len(s)
		}
		if total > 400 {
			t.Fatalf("truncated total %d exceeds 400 chars", total)
		}
	})

	t.Run("keeps whole items then partial", func(t *testing.T) {
		items := []string{strings.Repeat("a", 300), strings.Repeat("b", 300)}
		out := truncateToBudget(items, 100) // 400 chars
		if len(out) != 2 {
			t.Fatalf("expected 2 items, got %d", len(out))
		}
		if len(out[0]) != 300 || len(out[1]) != 100 {
			t.Fatalf("expected 300+100 chars, got %d+%d", len(out[0]), len(out[1]))
		}
	})

	t.Run("drops tiny remainder", func(t *testing.T) {
		items := []string{strings.Repeat("a", 350), strings.Repeat("b", 300)}
		out := truncateToBudget(items, 100) // 400 chars, 50 remaining < 100
		if len(out) != 1 {
			t.Fatalf("expected remainder dropped, got %d items", len(out))
		}
	})

	t.Run("stops at first overflow", func(t *testing.T) {
		items := []string{strings.Repeat("a", 390), strings.Repeat("b", 300), "tiny"}
		out := truncateToBudget(items, 100)
		// "tiny" fits on its own but order is a relevance proxy; nothing
		// after the first overflow survives.
		if len(out) != 1 {
			t.Fatalf("expected 1 item, got %d: %q", len(out), out)
		}
	})

	t.Run("preserves ordering", func(t *testing.T) {
		items := []string{"first", "second", "third"}
		out := truncateToBudget(items, 1000)
		if len(out) != 3 {
			t.Fatalf("expected all items, got %d", len(out))
		}
		for i := range items {
			if out[i] != items[i] {
				t.Fatalf("order changed at %d: %q", i, out[i])
			}
		}
	})

	t.Run("empty input", func(t *testing.T) {
		out := truncateToBudget(nil, 100)
		if len(out) != 0 {
			t.Fatalf("expected empty output, got %q", out)
		}
	})
}

func TestTruncateToBudgetRuneBoundary(t *testing.T) {
	// 26 tokens = 104 chars; a 3-byte rune straddles that cut.
	got := truncateToBudget([]string{strings.Repeat("中", 400)}, 26)
	if len(got) != 1 {
		t.Fatalf("expected one truncated item, got %d", len(got))
	}
	if !utf8.ValidString(got[0]) {
		t.Fatalf("truncated item is not valid UTF-8: %q", got[0])
	}
	if len(got[0]) > 26*charsPerToken {
		t.Fatalf("truncated item exceeds allowance: %d bytes", len(got[0]))
	}
}

func TestRetrieveAccessDeniedMakesNoCalls(t *testing.T) {
	authz := &fakeAuthorizer{err: apperr.AccessDenied("project_access_denied", "not yours")}
	gemini := &fakeGemini{vector: []float32{1}}
	items := &fakeItemRepo{}
	embeddings := &fakeEmbeddingRepo{}

	svc := newTestRetrieval(t, authz, gemini, items, embeddings)

	_, err := svc.Retrieve(context.Background(), uuid.New(), uuid.New(), "query", 0)
	if !apperr.IsAccessDenied(err) {
		t.Fatalf("expected access denied, got %v", err)
	}
	if gemini.embedCalls != 0 || embeddings.searchCalls != 0 || items.scopeCalls != 0 {
		t.Fatalf("denied retrieval must not touch collaborators: embed=%d search=%d list=%d",
			gemini.embedCalls, embeddings.searchCalls, items.scopeCalls)
	}
}

func TestRetrieveNotFound(t *testing.T) {
	authz := &fakeAuthorizer{err: apperr.NotFound("chat_not_found", "missing")}
	svc := newTestRetrieval(t, authz, &fakeGemini{vector: []float32{1}}, &fakeItemRepo{}, &fakeEmbeddingRepo{})

	_, err := svc.Retrieve(context.Background(), uuid.New(), uuid.New(), "query", 0)
	if !apperr.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRetrieveAssemblesBundle(t *testing.T) {
	userID := uuid.New()
	projectID := uuid.New()
	chatID := uuid.New()

	authz := &fakeAuthorizer{
		chat:    &types.Chat{ID: chatID, ProjectID: projectID},
		project: &types.Project{ID: projectID, UserID: userID},
	}
	gemini := &fakeGemini{vector: []float32{0.1, 0.2}}
	items := &fakeItemRepo{byScope: map[types.Scope][]*types.ContextItem{
		types.ScopeProject: {{Content: "project context"}},
		types.ScopeChat:    {{Content: "chat context"}},
	}}
	embeddings := &fakeEmbeddingRepo{byScope: map[types.Scope][]repos.VectorSearchResult{
		types.ScopeGlobal: {{Content: "global hit", Similarity: 0.9}},
		types.ScopeUser:   {{Content: "user hit", Similarity: 0.8}},
	}}

	svc := newTestRetrieval(t, authz, gemini, items, embeddings)

	bundle, err := svc.Retrieve(context.Background(), chatID, userID, "query", 0)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if gemini.embedCalls != 1 {
		t.Fatalf("query must be embedded exactly once, got %d", gemini.embedCalls)
	}
	if embeddings.searchCalls != 2 || items.scopeCalls != 2 {
		t.Fatalf("expected 2 vector searches and 2 listings, got %d/%d", embeddings.searchCalls, items.scopeCalls)
	}
	want := map[types.Scope]string{
		types.ScopeGlobal:  "global hit",
		types.ScopeUser:    "user hit",
		types.ScopeProject: "project context",
		types.ScopeChat:    "chat context",
	}
	for scope, content := range want {
		if len(bundle[scope]) != 1 || bundle[scope][0] != content {
			t.Fatalf("scope %s: expected [%q], got %q", scope, content, bundle[scope])
		}
	}
}

func TestRetrieveGlobalScopeBoundedByLimitAndBudget(t *testing.T) {
	userID := uuid.New()
	projectID := uuid.New()
	chatID := uuid.New()

	authz := &fakeAuthorizer{
		chat:    &types.Chat{ID: chatID, ProjectID: projectID},
		project: &types.Project{ID: projectID, UserID: userID},
	}
	// 50 global items exist; vector search caps at 10.
	globalResults := make([]repos.VectorSearchResult, 50)
	for i := range globalResults {
		globalResults[i] = repos.VectorSearchResult{Content: strings.Repeat("g", 100)}
	}
	embeddings := &fakeEmbeddingRepo{byScope: map[types.Scope][]repos.VectorSearchResult{
		types.ScopeGlobal: globalResults,
	}}

	svc := newTestRetrieval(t, authz, &fakeGemini{vector: []float32{1}}, &fakeItemRepo{}, embeddings)

	bundle, err := svc.Retrieve(context.Background(), chatID, userID, "query", 1000)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if embeddings.lastLimit != DefaultVectorSearchLimit {
		t.Fatalf("expected vector search limit %d, got %d", DefaultVectorSearchLimit, embeddings.lastLimit)
	}
	if len(bundle[types.ScopeGlobal]) > 10 {
		t.Fatalf("expected at most 10 global results, got %d", len(bundle[types.ScopeGlobal]))
	}
	total := 0
	for _, s := range bundle[types.ScopeGlobal] {
		total += len(s)
	}
	// global budget for 1000 tokens is 100 tokens = 400 chars
	if total > 400 {
		t.Fatalf("global scope exceeds its budget: %d chars", total)
	}
}

func TestRetrieveProjectItemTruncatedToBudget(t *testing.T) {
	userID := uuid.New()
	projectID := uuid.New()
	chatID := uuid.New()

	authz := &fakeAuthorizer{
		chat:    &types.Chat{ID: chatID, ProjectID: projectID},
		project: &types.Project{ID: projectID, UserID: userID},
	}
	items := &fakeItemRepo{byScope: map[types.Scope][]*types.ContextItem{
		types.ScopeProject: {{Content: strings.Repeat("p", 5000)}},
	}}

	svc := newTestRetrieval(t, authz, &fakeGemini{vector: []float32{1}}, items, &fakeEmbeddingRepo{})

	// project budget for 1000 tokens is 350 tokens = 1400 chars
	bundle, err := svc.Retrieve(context.Background(), chatID, userID, "query", 1000)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	project := bundle[types.ScopeProject]
	if len(project) != 1 {
		t.Fatalf("expected single truncated item, got %d", len(project))
	}
	if len(project[0]) != 1400 {
		t.Fatalf("expected 1400-char prefix, got %d chars", len(project[0]))
	}
}
