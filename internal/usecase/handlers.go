package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"ticket-agent/internal/domain"
)

// handler is one leaf of the dispatch fan-out. Implementations produce
// exactly one assistant message per invocation and never return an error:
// backend failures are converted into a failure-describing reply, so the
// dispatcher's write-back always has a response to append. Handlers never
// touch the attachment slot; its lifetime is the dispatcher's concern.
type handler interface {
	handle(ctx context.Context, conv *domain.Conversation) domain.Message
}

// Sentiment label thresholds over the backend's score in [-1, 1].
const (
	positiveThreshold = 0.25
	negativeThreshold = -0.25
)

type sentimentHandler struct {
	backend SentimentBackend
	logger  *slog.Logger
}

func (h *sentimentHandler) handle(ctx context.Context, conv *domain.Conversation) domain.Message {
	text := conv.LastUserMessage()

	score, magnitude, err := h.backend.Score(ctx, text)
	if err != nil {
		h.logger.Warn("sentiment backend failed", "err", err)
		return assistantMessage(fmt.Sprintf("Sentiment analysis is currently unavailable: %v", err))
	}

	return assistantMessage(fmt.Sprintf(
		"Sentiment analysis result: Score=%.2f, Magnitude=%.2f, Classified as %s",
		score, magnitude, sentimentLabel(score),
	))
}

func sentimentLabel(score float64) string {
	switch {
	case score >= positiveThreshold:
		return "Positive"
	case score <= negativeThreshold:
		return "Negative"
	default:
		return "Neutral"
	}
}

type designHandler struct {
	backend ExtractionBackend
	logger  *slog.Logger
}

func (h *designHandler) handle(ctx context.Context, conv *domain.Conversation) domain.Message {
	var doc []byte
	if att := conv.Attachment(); att != nil {
		doc = att.Data
	}

	if len(doc) == 0 {
		// No document this cycle; fall back to whatever context the
		// transcript carries.
		transcript := strings.TrimSpace(conv.Transcript())
		if transcript == "" {
			return assistantMessage("No PDF document found in the state to extract from.")
		}
		extracted, err := h.backend.Extract(ctx, designExtractionPrompt()+"\n\nDocument description:\n"+transcript, nil)
		if err != nil {
			h.logger.Warn("design backend failed", "err", err)
			return assistantMessage(fmt.Sprintf("Failed to extract data: %v", err))
		}
		return assistantMessage("Extracted Data:\n" + extracted)
	}

	extracted, err := h.backend.Extract(ctx, designExtractionPrompt(), doc)
	if err != nil {
		h.logger.Warn("design backend failed", "err", err, "doc_bytes", len(doc))
		return assistantMessage(fmt.Sprintf("Failed to extract data: %v", err))
	}
	return assistantMessage("Extracted Data:\n" + extracted)
}

type policyHandler struct {
	backend       ChatBackend
	model         string
	policyContext string
	logger        *slog.Logger
}

func (h *policyHandler) handle(ctx context.Context, conv *domain.Conversation) domain.Message {
	reply, err := h.backend.Complete(ctx, h.model, buildPolicyMessages(h.policyContext, conv.LastUserMessage()))
	if err != nil {
		h.logger.Warn("policy backend failed", "err", err)
		return assistantMessage(fmt.Sprintf("I could not look up the policy information right now: %v", err))
	}
	return assistantMessage(reply)
}

func assistantMessage(content string) domain.Message {
	return domain.Message{Role: domain.RoleAssistant, Content: content}
}
