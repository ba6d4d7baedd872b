package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"ticket-agent/internal/domain"
)

const (
	defaultPreviewChars = 800
	// DynamoDB items cap at 400KB; leave headroom for the other attributes.
	defaultMaxAttachmentBytes = 350 << 10
)

// ParamGetter reads runtime configuration from the parameter store.
type ParamGetter interface {
	GetParameter(ctx context.Context, name string) (string, error)
}

// ChatBackend is a text-generation service consumed by the classifier and
// the policy handler.
type ChatBackend interface {
	Complete(ctx context.Context, model string, messages []domain.ChatMessage) (string, error)
}

// SentimentBackend scores a piece of text. Score is in [-1, 1]; magnitude
// is non-negative.
type SentimentBackend interface {
	Score(ctx context.Context, text string) (score, magnitude float64, err error)
}

// ExtractionBackend runs structured extraction over a raw PDF document.
// pdf may be nil when only the prompt carries context.
type ExtractionBackend interface {
	Extract(ctx context.Context, prompt string, pdf []byte) (string, error)
}

// PreviewExtractor derives a bounded text preview from raw document bytes.
// Best effort: it returns "" rather than an error on unreadable input.
type PreviewExtractor interface {
	Preview(ctx context.Context, data []byte, maxChars int) string
}

// ConversationStore persists one conversation per thread id.
type ConversationStore interface {
	Load(ctx context.Context, threadID string) (*domain.Conversation, bool, error)
	Save(ctx context.Context, threadID string, conv *domain.Conversation) error
}

// TicketService routes an incoming support ticket through one full cycle:
// classify, dispatch to exactly one handler, merge the reply back into the
// thread's history. The cycle per thread is strictly sequential; cycles on
// different threads run in parallel.
type TicketService struct {
	params     ParamGetter
	chat       ChatBackend
	sentiment  SentimentBackend
	extraction ExtractionBackend
	previews   PreviewExtractor
	store      ConversationStore

	paramPrefix        string
	previewChars       int
	maxAttachmentBytes int
	logger             *slog.Logger

	locks *threadLocks

	cacheMu         sync.RWMutex
	cacheLoaded     bool
	policyContext   string
	classifierModel string
	policyModel     string
}

type SubmitInput struct {
	Message    string
	ThreadID   string
	Attachment []byte
}

type SubmitOutput struct {
	Response string
	ThreadID string
}

func NewTicketService(
	p ParamGetter,
	chat ChatBackend,
	sentiment SentimentBackend,
	extraction ExtractionBackend,
	previews PreviewExtractor,
	store ConversationStore,
	paramPrefix string,
	previewChars, maxAttachmentBytes int,
	logger *slog.Logger,
) (*TicketService, error) {
	if p == nil {
		return nil, errors.New("usecase: param getter must not be nil")
	}
	if chat == nil {
		return nil, errors.New("usecase: chat backend must not be nil")
	}
	if sentiment == nil {
		return nil, errors.New("usecase: sentiment backend must not be nil")
	}
	if extraction == nil {
		return nil, errors.New("usecase: extraction backend must not be nil")
	}
	if previews == nil {
		return nil, errors.New("usecase: preview extractor must not be nil")
	}
	if store == nil {
		return nil, errors.New("usecase: conversation store must not be nil")
	}
	paramPrefix = strings.TrimRight(strings.TrimSpace(paramPrefix), "/")
	if paramPrefix == "" {
		return nil, errors.New("usecase: parameter prefix must not be empty")
	}
	if previewChars <= 0 {
		previewChars = defaultPreviewChars
	}
	if maxAttachmentBytes <= 0 {
		maxAttachmentBytes = defaultMaxAttachmentBytes
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TicketService{
		params:             p,
		chat:               chat,
		sentiment:          sentiment,
		extraction:         extraction,
		previews:           previews,
		store:              store,
		paramPrefix:        paramPrefix,
		previewChars:       previewChars,
		maxAttachmentBytes: maxAttachmentBytes,
		logger:             logger,
		locks:              newThreadLocks(),
	}, nil
}

// Submit runs one routing cycle for a ticket. The message may be empty (a
// "PDF only" ticket is valid input); a previously unseen thread id starts a
// fresh conversation. Only storage failures surface as errors; every
// backend failure is contained in the returned response text.
func (s *TicketService) Submit(ctx context.Context, in SubmitInput) (SubmitOutput, error) {
	if len(in.Attachment) > s.maxAttachmentBytes {
		return SubmitOutput{}, newError(ErrorInvalidInput, "attachment_too_large", nil)
	}
	if err := s.ensureConfig(ctx); err != nil {
		return SubmitOutput{}, newError(ErrorInternal, "ssm_load_error", err)
	}

	threadID := strings.TrimSpace(in.ThreadID)
	if threadID == "" {
		threadID = newUUID()
	}

	release := s.locks.acquire(threadID)
	defer release()

	conv, found, err := s.store.Load(ctx, threadID)
	if err != nil {
		return SubmitOutput{}, newError(ErrorStorage, "conversation_load_error", err)
	}
	if !found {
		conv = domain.NewConversation()
	}

	conv.Append(domain.Message{Role: domain.RoleUser, Content: in.Message})

	if len(in.Attachment) > 0 {
		conv.SetAttachment(&domain.Attachment{
			Data:    in.Attachment,
			Preview: s.previews.Preview(ctx, in.Attachment, s.previewChars),
		})
	}

	cls := &classifier{backend: s.chat, model: s.classifierModel, logger: s.logger}
	decision := cls.classify(ctx, conv)
	conv.SetLastRoute(decision)

	// Attachment bytes must never reach a handler other than design, nor
	// leak into later turns.
	if decision != domain.RouteDesign {
		conv.ClearAttachment()
	}

	reply := s.handlerFor(decision).handle(ctx, conv)
	conv.Append(reply)

	if err := s.store.Save(ctx, threadID, conv); err != nil {
		return SubmitOutput{}, newError(ErrorStorage, "conversation_save_error", err)
	}

	s.logger.Info("ticket routed",
		"thread_id", threadID,
		"route", string(decision),
		"messages", conv.Len(),
	)

	return SubmitOutput{
		Response: reply.Content,
		ThreadID: threadID,
	}, nil
}

// handlerFor maps a routing decision onto its leaf handler. The dispatch
// target is the decision itself; there is no further transformation.
func (s *TicketService) handlerFor(decision domain.RoutingDecision) handler {
	switch decision {
	case domain.RouteSentiment:
		return &sentimentHandler{backend: s.sentiment, logger: s.logger}
	case domain.RouteDesign:
		return &designHandler{backend: s.extraction, logger: s.logger}
	default:
		return &policyHandler{
			backend:       s.chat,
			model:         s.policyModel,
			policyContext: s.policyContext,
			logger:        s.logger,
		}
	}
}

func (s *TicketService) ensureConfig(ctx context.Context) error {
	s.cacheMu.RLock()
	if s.cacheLoaded {
		s.cacheMu.RUnlock()
		return nil
	}
	s.cacheMu.RUnlock()

	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	if s.cacheLoaded {
		return nil
	}

	policyContext, classifierModel, policyModel, err := s.loadSSMParams(ctx)
	if err != nil {
		return err
	}

	s.policyContext = policyContext
	s.classifierModel = classifierModel
	s.policyModel = policyModel
	s.cacheLoaded = true
	return nil
}

func (s *TicketService) loadSSMParams(ctx context.Context) (policyContext, classifierModel, policyModel string, err error) {
	prefix := strings.TrimRight(s.paramPrefix, "/")

	policyContext, err = s.params.GetParameter(ctx, prefix+"/policy_context")
	if err != nil {
		return "", "", "", fmt.Errorf("usecase: load policy context: %w", err)
	}
	classifierModel, err = s.params.GetParameter(ctx, prefix+"/config/classifier_model")
	if err != nil {
		return "", "", "", fmt.Errorf("usecase: load classifier model: %w", err)
	}
	policyModel, err = s.params.GetParameter(ctx, prefix+"/config/policy_model")
	if err != nil {
		return "", "", "", fmt.Errorf("usecase: load policy model: %w", err)
	}
	return policyContext, classifierModel, policyModel, nil
}

var newUUID = func() string {
	return uuid.NewString()
}
