package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/draftloop/draftloop-backend/internal/logger"
	"github.com/draftloop/draftloop-backend/internal/repos"
	"github.com/draftloop/draftloop-backend/internal/types"
	"github.com/draftloop/draftloop-backend/internal/utils"
)

const (
	// DefaultRetrievalMaxTokens bounds the whole assembled context bundle.
	DefaultRetrievalMaxTokens = 50000

	// DefaultVectorSearchLimit caps vector-search hits for the global and
	// user scopes. Deliberately uncorrelated with the token budget.
	DefaultVectorSearchLimit = 10

	// charsPerToken approximates token counts at 1 token per 4 characters.
	// Not a real tokenizer; exact accounting is out of scope.
	charsPerToken = 4

	// minUsefulChars is the smallest partial-item prefix worth keeping when
	// an item overflows its scope budget.
	minUsefulChars = 100
)

// Budget fractions per scope. Global/user material is supporting background;
// project/chat material is the immediate working context and gets the bulk,
// split evenly.
const (
	globalBudgetFraction  = 0.10
	userBudgetFraction    = 0.20
	projectBudgetFraction = 0.35
	chatBudgetFraction    = 0.35
)

// RetrievalService assembles the token-budgeted, scope-partitioned context
// bundle handed to document generation.
type RetrievalService interface {
	Retrieve(ctx context.Context, chatID, userID uuid.UUID, query string, maxTokens int) (map[types.Scope][]string, error)
}

type retrievalService struct {
	authz          Authorizer
	gemini         GeminiClient
	contextItems   repos.ContextItemRepo
	embeddings     repos.ContextEmbeddingRepo
	log            *logger.Logger
	vectorLimit    int
	perCallTimeout time.Duration
}

func NewRetrievalService(
	authz Authorizer,
	gemini GeminiClient,
	contextItems repos.ContextItemRepo,
	embeddings repos.ContextEmbeddingRepo,
	baseLog *logger.Logger,
) RetrievalService {
	log := baseLog.With("service", "RetrievalService")
	vectorLimit := utils.GetEnvAsInt("RETRIEVAL_VECTOR_LIMIT", DefaultVectorSearchLimit, log)
	if vectorLimit <= 0 {
		vectorLimit = DefaultVectorSearchLimit
	}
	timeoutSec := utils.GetEnvAsInt("RETRIEVAL_CALL_TIMEOUT_SECONDS", 15, log)
	if timeoutSec <= 0 {
		timeoutSec = 15
	}
	return &retrievalService{
		authz:          authz,
		gemini:         gemini,
		contextItems:   contextItems,
		embeddings:     embeddings,
		log:            log,
		vectorLimit:    vectorLimit,
		perCallTimeout: time.Duration(timeoutSec) * time.Second,
	}
}

// scopeBudgets partitions maxTokens into the four per-scope token budgets.
func scopeBudgets(maxTokens int) map[types.Scope]int {
	return map[types.Scope]int{
		types.ScopeGlobal:  int(float64(maxTokens) * globalBudgetFraction),
		types.ScopeUser:    int(float64(maxTokens) * userBudgetFraction),
		types.ScopeProject: int(float64(maxTokens) * projectBudgetFraction),
		types.ScopeChat:    int(float64(maxTokens) * chatBudgetFraction),
	}
}

// truncateToBudget walks items in order, keeping whole items while their
// cumulative length fits within budgetTokens * charsPerToken. The first item
// that would overflow is kept as a trimmed prefix when the remaining
// allowance exceeds minUsefulChars, otherwise dropped; everything after the
// first overflow is discarded. Input order is a relevance/recency proxy and
// is never changed to pack more items in.
func truncateToBudget(items []string, budgetTokens int) []string {
	maxChars := budgetTokens * charsPerToken
	out := []string{}
	used := 0
	for _, item := range items {
		if used+len(item) <= maxChars {
			out = append(out, item)
			used += len(item)
			continue
		}
		remaining := maxChars - used
		if remaining > minUsefulChars {
			cut := alignRuneStart(item, remaining)
			out = append(out, strings.TrimSpace(item[:cut]))
		}
		break
	}
	return out
}

func (s *retrievalService) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.perCallTimeout)
}

func (s *retrievalService) Retrieve(ctx context.Context, chatID, userID uuid.UUID, query string, maxTokens int) (map[types.Scope][]string, error) {
	if maxTokens <= 0 {
		maxTokens = DefaultRetrievalMaxTokens
	}

	// Authorization happens before any store or provider call; a denied
	// caller causes zero collaborator traffic.
	chat, _, err := s.authz.AuthorizeChat(ctx, nil, chatID, userID)
	if err != nil {
		return nil, err
	}

	budgets := scopeBudgets(maxTokens)

	embedCtx, cancelEmbed := s.callCtx(ctx)
	queryVec, err := s.gemini.Embed(embedCtx, query)
	cancelEmbed()
	if err != nil {
		return nil, err
	}

	// The four per-scope fetches are mutually independent; run them
	// concurrently. Any single failure aborts the whole retrieval rather
	// than degrading to partial results.
	var globalContents, userContents, projectContents, chatContents []string

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		callCtx, cancel := s.callCtx(gctx)
		defer cancel()
		results, err := s.embeddings.VectorSearch(callCtx, nil, queryVec, types.ScopeGlobal, nil, s.vectorLimit)
		if err != nil {
			return err
		}
		globalContents = make([]string, 0, len(results))
		for _, r := range results {
			globalContents = append(globalContents, r.Content)
		}
		return nil
	})

	g.Go(func() error {
		callCtx, cancel := s.callCtx(gctx)
		defer cancel()
		results, err := s.embeddings.VectorSearch(callCtx, nil, queryVec, types.ScopeUser, &userID, s.vectorLimit)
		if err != nil {
			return err
		}
		userContents = make([]string, 0, len(results))
		for _, r := range results {
			userContents = append(userContents, r.Content)
		}
		return nil
	})

	g.Go(func() error {
		callCtx, cancel := s.callCtx(gctx)
		defer cancel()
		scope := types.ScopeProject
		items, err := s.contextItems.GetAllByScope(callCtx, nil, repos.ContextItemFilter{
			Scope:     &scope,
			UserID:    &userID,
			ProjectID: &chat.ProjectID,
		})
		if err != nil {
			return err
		}
		projectContents = make([]string, 0, len(items))
		for _, item := range items {
			projectContents = append(projectContents, item.Content)
		}
		return nil
	})

	g.Go(func() error {
		callCtx, cancel := s.callCtx(gctx)
		defer cancel()
		scope := types.ScopeChat
		items, err := s.contextItems.GetAllByScope(callCtx, nil, repos.ContextItemFilter{
			Scope:     &scope,
			UserID:    &userID,
			ProjectID: &chat.ProjectID,
			ChatID:    &chatID,
		})
		if err != nil {
			return err
		}
		chatContents = make([]string, 0, len(items))
		for _, item := range items {
			chatContents = append(chatContents, item.Content)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	fetched := map[types.Scope][]string{
		types.ScopeGlobal:  globalContents,
		types.ScopeUser:    userContents,
		types.ScopeProject: projectContents,
		types.ScopeChat:    chatContents,
	}

	bundle := make(map[types.Scope][]string, len(fetched))
	for _, scope := range types.Scopes() {
		truncated := truncateToBudget(fetched[scope], budgets[scope])
		bundle[scope] = truncated
		s.log.Debug("Scope context assembled",
			"chat_id", chatID.String(),
			"scope", scope.String(),
			"budget_tokens", budgets[scope],
			"fetched", len(fetched[scope]),
			"kept", len(truncated),
		)
	}

	return bundle, nil
}
