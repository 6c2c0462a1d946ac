package jobfact

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	openai "github.com/sashabaranov/go-openai"
)

type Config struct {
	Model       string
	APIKey      string
	BaseURL     string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
	CacheTTL    time.Duration
}

// Client implements Extractor against an OpenAI-compatible chat endpoint.
// Results are memoized by text hash: re-invoking with the same text is
// expected to be safe and should not spend tokens twice.
type Client struct {
	api   *openai.Client
	cfg   Config
	cache *gocache.Cache
	log   *slog.Logger
}

func NewClient(cfg Config, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 300
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Hour
	}
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	return &Client{
		api:   openai.NewClientWithConfig(clientConfig),
		cfg:   cfg,
		cache: gocache.New(cfg.CacheTTL, 2*cfg.CacheTTL),
		log:   log,
	}
}

// ExtractCurrentJob pulls the structured current-employment fact out of free
// text. Transport and structural failures both come back as Found=false with
// ParseError set; they are recorded by the caller, never escalated.
func (c *Client) ExtractCurrentJob(ctx context.Context, text string) Result {
	if strings.TrimSpace(text) == "" {
		return Result{Found: false, ParseError: "empty input"}
	}

	key := textKey(text)
	if v, ok := c.cache.Get(key); ok {
		res := v.(Result)
		c.log.Debug("fact.extract.cache_hit", "key", key)
		return res
	}

	rid := uuid.New().String()
	start := time.Now()
	c.log.Info("fact.extract.start",
		"req_id", rid, "model", c.cfg.Model, "text_len", len(text))

	callCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	resp, err := c.api.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
		Model:       c.cfg.Model,
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(text)},
		},
	})
	if err != nil {
		c.log.Error("fact.extract.http_error",
			"req_id", rid, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		// transport failures are not cached: the next attempt may succeed
		return Result{Found: false, ParseError: "transport: " + err.Error()}
	}
	if len(resp.Choices) == 0 {
		c.log.Error("fact.extract.no_choices", "req_id", rid,
			"elapsed_ms", time.Since(start).Milliseconds())
		return Result{Found: false, ParseError: "no choices in response"}
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	res := c.parseContent(rid, content)
	c.cache.Set(key, res, gocache.DefaultExpiration)

	c.log.Info("fact.extract.done",
		"req_id", rid, "found", res.Found, "company", res.Company, "position", res.Position,
		"parse_error", res.ParseError, "elapsed_ms", time.Since(start).Milliseconds())
	return res
}

// parseContent unwraps, validates and decodes the model output. The original
// content is always preserved in Raw so a failed parse stays auditable.
func (c *Client) parseContent(rid, content string) Result {
	unwrapped, strategy := Unwrap(content)
	if strategy != "" {
		c.log.Debug("fact.extract.unwrapped", "req_id", rid, "strategy", strategy)
	}

	schema := BuildJobJSONSchema()
	body := []byte(unwrapped)
	if err := ValidateJSONAgainstSchema(schema, body); err != nil {
		cleaned, dropped, sErr := NormalizeAndSanitizeJSON(body, c.log)
		if sErr != nil {
			c.log.Warn("fact.extract.parse_failed", "req_id", rid, "error", sErr)
			return Result{Found: false, ParseError: "parse: " + sErr.Error(), Raw: content}
		}
		if vErr := ValidateJSONAgainstSchema(schema, cleaned); vErr != nil {
			c.log.Warn("fact.extract.schema_validation_failed", "req_id", rid, "error", vErr)
			return Result{Found: false, ParseError: "schema: " + vErr.Error(), Raw: content}
		}
		c.log.Warn("fact.extract.lenient_sanitize_applied", "req_id", rid, "dropped", dropped)
		body = cleaned
	}

	var p payload
	if err := json.Unmarshal(body, &p); err != nil {
		return Result{Found: false, ParseError: "unmarshal: " + err.Error(), Raw: content}
	}

	res := Result{Found: p.Found, Raw: content}
	if p.CurrentJob != nil {
		res.Company = strings.TrimSpace(p.CurrentJob.Company)
		res.Position = strings.TrimSpace(p.CurrentJob.Position)
		res.Period = strings.TrimSpace(p.CurrentJob.Period)
		res.IsCurrent = p.CurrentJob.IsCurrent
	}
	// never report found with nothing to compare on
	if res.Found && res.Company == "" && res.Position == "" {
		res.Found = false
		res.ParseError = "found without company or position"
	}
	return res
}

func textKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
