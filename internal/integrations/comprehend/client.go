// Package comprehend scores text sentiment with AWS Comprehend. The
// per-class scores from DetectSentiment are folded into the single
// score/magnitude pair the ticket service works with: score is the
// positive-negative balance in [-1, 1], magnitude the total emotional
// weight.
package comprehend

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/comprehend"
	"github.com/aws/aws-sdk-go-v2/service/comprehend/types"
)

// comprehendAPI is the minimal Comprehend interface required by Client.
// *comprehend.Client from aws-sdk-go-v2 satisfies this interface.
type comprehendAPI interface {
	DetectSentiment(ctx context.Context, in *comprehend.DetectSentimentInput, optFns ...func(*comprehend.Options)) (*comprehend.DetectSentimentOutput, error)
}

// Client wraps AWS Comprehend for sentiment scoring.
type Client struct {
	api comprehendAPI
}

// New creates a Client with the given Comprehend API implementation.
func New(api comprehendAPI) (*Client, error) {
	if api == nil {
		return nil, errors.New("comprehend: api must not be nil")
	}
	return &Client{api: api}, nil
}

// Score analyzes the sentiment of text. Empty input is neutral by
// definition; Comprehend rejects it, so it never leaves the process.
func (c *Client) Score(ctx context.Context, text string) (float64, float64, error) {
	if strings.TrimSpace(text) == "" {
		return 0, 0, nil
	}

	out, err := c.api.DetectSentiment(ctx, &comprehend.DetectSentimentInput{
		Text:         aws.String(text),
		LanguageCode: types.LanguageCodeEn,
	})
	if err != nil {
		return 0, 0, fmt.Errorf("comprehend: detect sentiment: %w", err)
	}
	if out == nil || out.SentimentScore == nil {
		return 0, 0, errors.New("comprehend: response missing sentiment score")
	}

	positive := float32Value(out.SentimentScore.Positive)
	negative := float32Value(out.SentimentScore.Negative)

	score := positive - negative
	magnitude := positive + negative
	return score, magnitude, nil
}

func float32Value(v *float32) float64 {
	if v == nil {
		return 0
	}
	return float64(*v)
}
