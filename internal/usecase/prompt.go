package usecase

import (
	"fmt"
	"strings"

	"ticket-agent/internal/domain"
)

// buildClassifierMessages assembles the single-shot routing prompt from the
// full transcript and the attachment preview (empty when no attachment is
// pending).
func buildClassifierMessages(transcript, attachmentPreview string) []domain.ChatMessage {
	return []domain.ChatMessage{
		{Role: "user", Content: buildClassifierPrompt(transcript, attachmentPreview)},
	}
}

func buildClassifierPrompt(transcript, attachmentPreview string) string {
	return strings.Join([]string{
		"You are a routing classifier for customer tickets.",
		"Each ticket includes:",
		"- A user message (text input, can be empty)",
		"- An optional PDF document (text extracted from PDF)",
		"",
		"Classify the request into one of three categories:",
		"- 'sentiment' -> if the user is giving a review, complaint, or feedback (including if a review is written in a PDF)",
		"- 'design' -> if the content involves technical drawings, architectural schematics, or CAD-like documents",
		"- 'policy' -> if the content involves warranty, refunds, or product policy",
		"",
		"Rules:",
		classifierRules(),
		"",
		"Here is the full chat so far:",
		transcript,
		"",
		"PDF text preview:",
		fmt.Sprintf("%q", attachmentPreview),
	}, "\n")
}

func classifierRules() string {
	return strings.Join([]string{
		"- Do NOT assume that every PDF is a design document.",
		"- If the user message is empty, classify based on PDF content.",
		"- If the PDF text or user message looks like feedback or a review, classify as 'sentiment'.",
		"- If the PDF looks like warranty or refund documentation, classify as 'policy'.",
		"- Respond with exactly one word: sentiment, design, or policy.",
	}, "\n")
}

// buildPolicyMessages pairs the retail policy knowledge context with the
// customer's most recent message.
func buildPolicyMessages(policyContext, userMessage string) []domain.ChatMessage {
	return []domain.ChatMessage{
		{Role: "system", Content: strings.TrimSpace(policyContext)},
		{Role: "user", Content: userMessage},
	}
}

// designExtractionPrompt is sent to the document backend alongside the raw
// attachment bytes.
func designExtractionPrompt() string {
	return strings.Join([]string{
		"You are an expert document extraction assistant.",
		"Extract structured data such as the table of contents, border details,",
		"and bill of materials from the PDF document provided. Return ONLY valid JSON.",
	}, "\n")
}
