package vision

import (
	"context"
	"encoding/base64"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"

	"github.com/d-melnychenko/jobwatch/constants"
	"github.com/d-melnychenko/jobwatch/internal/common"
	"github.com/d-melnychenko/jobwatch/internal/entity"
)

// Result is the normalized outcome of one vision call. Failures are values,
// not errors: every outcome must reach the extraction store.
type Result struct {
	Status     constants.ExtractionStatus
	Text       string
	Diagnostic string
	Usage      entity.TokenUsage
}

type Config struct {
	Model       string
	APIKey      string
	BaseURL     string
	Prompt      string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

// Client calls the external vision service and maps its responses onto the
// disjoint outcome set. It performs no retries and no persistence.
type Client struct {
	api *openai.Client
	cfg Config
	log *slog.Logger
}

func NewClient(cfg Config, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	if cfg.Prompt == "" {
		cfg.Prompt = common.DefaultVisionPrompt
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1000
	}
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	return &Client{
		api: openai.NewClientWithConfig(clientConfig),
		cfg: cfg,
		log: log,
	}
}

// ExtractText sends the image with the fixed OCR instruction and returns the
// extracted text verbatim or a typed failure. Empty input fails fast with no
// network call; that is the only error return.
func (c *Client) ExtractText(ctx context.Context, image []byte) (Result, error) {
	if len(image) == 0 {
		return Result{}, common.NewAppError("VISION_INPUT", "image bytes are empty", common.ErrInvalidInput)
	}

	rid := uuid.New().String()
	start := time.Now()
	c.log.Info("vision.extract.start",
		"req_id", rid, "model", c.cfg.Model, "image_bytes", len(image))

	callCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model:       c.cfg.Model,
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: c.cfg.Prompt},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    dataURL(image),
							Detail: openai.ImageURLDetailAuto,
						},
					},
				},
			},
		},
	}

	resp, err := c.api.CreateChatCompletion(callCtx, req)
	if err != nil {
		c.log.Error("vision.extract.http_error",
			"req_id", rid, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return Result{
			Status:     constants.StatusTransportError,
			Diagnostic: err.Error(),
		}, nil
	}

	usage := entity.TokenUsage{
		Input:  resp.Usage.PromptTokens,
		Output: resp.Usage.CompletionTokens,
		Total:  resp.Usage.TotalTokens,
	}

	if len(resp.Choices) == 0 {
		c.log.Warn("vision.extract.no_choices", "req_id", rid,
			"elapsed_ms", time.Since(start).Milliseconds())
		return Result{
			Status:     constants.StatusEmptyResult,
			Diagnostic: "no choices in response",
			Usage:      usage,
		}, nil
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		c.log.Warn("vision.extract.empty_content", "req_id", rid,
			"elapsed_ms", time.Since(start).Milliseconds())
		return Result{
			Status:     constants.StatusEmptyResult,
			Diagnostic: "empty content",
			Usage:      usage,
		}, nil
	}

	if looksLikeRefusal(content) {
		c.log.Warn("vision.extract.policy_refused", "req_id", rid,
			"content_len", len(content), "elapsed_ms", time.Since(start).Milliseconds())
		return Result{
			Status:     constants.StatusPolicyRefused,
			Diagnostic: content,
			Usage:      usage,
		}, nil
	}

	c.log.Info("vision.extract.ok",
		"req_id", rid, "text_len", len(content), "total_tokens", usage.Total,
		"elapsed_ms", time.Since(start).Milliseconds())
	return Result{
		Status: constants.StatusSuccess,
		Text:   content,
		Usage:  usage,
	}, nil
}

func dataURL(image []byte) string {
	mt := http.DetectContentType(image)
	if !strings.HasPrefix(mt, "image/") {
		mt = "image/jpeg"
	}
	return "data:" + mt + ";base64," + base64.StdEncoding.EncodeToString(image)
}
