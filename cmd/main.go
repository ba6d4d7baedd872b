package main

import (
	"context"
	"log/slog"
	"os"
	"strconv"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	awscomprehend "github.com/aws/aws-sdk-go-v2/service/comprehend"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"
	"google.golang.org/api/option"

	"ticket-agent/handler"
	"ticket-agent/internal/extract"
	"ticket-agent/internal/integrations/comprehend"
	"ticket-agent/internal/integrations/gemini"
	"ticket-agent/internal/integrations/openai"
	"ticket-agent/internal/integrations/paramstore"
	"ticket-agent/internal/repository"
	"ticket-agent/internal/usecase"
)

func main() {
	ctx := context.Background()
	logger := slog.Default()

	// ---- Configuration (read only here) ----
	stateTable := mustEnv("STATE_TABLE")
	paramPrefix := mustEnv("PARAM_PREFIX")
	previewChars := envInt("PREVIEW_MAX_CHARS", 800)
	maxAttachmentBytes := envInt("MAX_ATTACHMENT_BYTES", 350<<10)

	// ---- AWS SDK config ----
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		logger.Error("failed to load AWS config", "err", err)
		os.Exit(1)
	}

	// ---- Clients ----
	ssmClient, err := paramstore.New(awsssm.NewFromConfig(cfg))
	if err != nil {
		logger.Error("failed to create SSM client", "err", err)
		os.Exit(1)
	}
	store, err := repository.New(awsdynamodb.NewFromConfig(cfg), stateTable)
	if err != nil {
		logger.Error("failed to create conversation store", "err", err)
		os.Exit(1)
	}
	chatClient, err := openai.NewClient(ssmClient, paramPrefix)
	if err != nil {
		logger.Error("failed to create OpenAI client", "err", err)
		os.Exit(1)
	}
	sentimentClient, err := comprehend.New(awscomprehend.NewFromConfig(cfg))
	if err != nil {
		logger.Error("failed to create Comprehend client", "err", err)
		os.Exit(1)
	}
	extractionClient, err := gemini.NewClient(ssmClient, paramPrefix)
	if err != nil {
		logger.Error("failed to create Gemini client", "err", err)
		os.Exit(1)
	}
	extractor := extract.New(nil, logger)
	if visionClient := newVisionClient(ctx, logger); visionClient != nil {
		extractor = extract.New(visionClient, logger)
	}

	// ---- Handler ----
	tickets, err := usecase.NewTicketService(
		ssmClient,
		chatClient,
		sentimentClient,
		extractionClient,
		extractor,
		store,
		paramPrefix,
		previewChars,
		maxAttachmentBytes,
		logger,
	)
	if err != nil {
		logger.Error("failed to create ticket service", "err", err)
		os.Exit(1)
	}

	h, err := handler.NewHandler(tickets)
	if err != nil {
		logger.Error("failed to create handler", "err", err)
		os.Exit(1)
	}

	lambda.Start(h.Handle)
}

// newVisionClient creates the OCR client for scanned attachments. OCR is a
// best-effort fallback, so a missing client only degrades previews; it
// never blocks startup.
func newVisionClient(ctx context.Context, logger *slog.Logger) *vision.ImageAnnotatorClient {
	var opts []option.ClientOption
	if creds := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); creds != "" {
		opts = append(opts, option.WithCredentialsFile(creds))
	}
	client, err := vision.NewImageAnnotatorClient(ctx, opts...)
	if err != nil {
		logger.Warn("vision client unavailable, OCR fallback disabled", "err", err)
		return nil
	}
	return client
}

func mustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		slog.Error("required environment variable is not set", "key", key)
		os.Exit(1)
	}
	return v
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
