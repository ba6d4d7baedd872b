package usecase

import (
	"context"
	"log/slog"

	"ticket-agent/internal/domain"
)

// classifier turns a conversation into a routing decision. The backend's
// reply is free text; anything outside the label vocabulary, including a
// transport failure reaching the backend at all, falls back to the policy
// route so the ticket still lands on the most conservative handler.
type classifier struct {
	backend ChatBackend
	model   string
	logger  *slog.Logger
}

func (c *classifier) classify(ctx context.Context, conv *domain.Conversation) domain.RoutingDecision {
	preview := ""
	if att := conv.Attachment(); att != nil {
		preview = att.Preview
	}

	raw, err := c.backend.Complete(ctx, c.model, buildClassifierMessages(conv.Transcript(), preview))
	if err != nil {
		c.logger.Warn("classifier backend failed, routing to policy", "err", err)
		return domain.RoutePolicy
	}

	decision, ok := domain.ParseRoutingDecision(raw)
	if !ok {
		c.logger.Warn("classifier returned unknown label, routing to policy", "label", raw)
		return domain.RoutePolicy
	}
	return decision
}
