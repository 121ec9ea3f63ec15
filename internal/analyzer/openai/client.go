// Package openai implements the analyzer interface over the OpenAI vision
// API.
package openai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/safesight/safesight/internal/analyzer"
	"github.com/safesight/safesight/internal/domain"
)

const (
	// DefaultModel is the default vision-capable model.
	DefaultModel = "gpt-4o"

	maxTokens = 2048
)

// Config contains configuration for the OpenAI provider.
type Config struct {
	APIKey         string
	Model          string
	RequestTimeout time.Duration
}

// Client implements analyzer.Analyzer using OpenAI chat completions with
// image input.
type Client struct {
	api    *openai.Client
	model  string
	logger *slog.Logger
}

// NewClient creates an OpenAI analyzer client.
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.RequestTimeout > 0 {
		clientCfg.HTTPClient = &http.Client{Timeout: cfg.RequestTimeout}
	}

	return &Client{
		api:    openai.NewClientWithConfig(clientCfg),
		model:  model,
		logger: logger,
	}, nil
}

// findingsEnvelope is the JSON shape the prompt instructs the model to emit.
type findingsEnvelope struct {
	Findings []analyzer.Finding `json:"findings"`
}

// AnalyzePhoto sends the photo and prompt to the model and parses the
// returned findings.
func (c *Client) AnalyzePhoto(ctx context.Context, params analyzer.AnalyzePhotoParams) (*analyzer.Result, error) {
	if len(params.ImageData) == 0 || params.ContentType == "" {
		return nil, analyzer.ErrInvalidImage
	}

	imageURL := fmt.Sprintf("data:%s;base64,%s",
		params.ContentType, base64.StdEncoding.EncodeToString(params.ImageData))

	req := openai.ChatCompletionRequest{
		Model: c.model,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: params.Prompt,
					},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    imageURL,
							Detail: openai.ImageURLDetailAuto,
						},
					},
				},
			},
		},
	}
	// Reasoning models reject MaxTokens and require MaxCompletionTokens.
	if strings.HasPrefix(c.model, "o1") || strings.HasPrefix(c.model, "o3") ||
		strings.HasPrefix(c.model, "o4") || strings.HasPrefix(c.model, "gpt-5") {
		req.MaxCompletionTokens = maxTokens
	} else {
		req.MaxTokens = maxTokens
	}

	start := time.Now()
	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, c.mapError(err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: empty response", analyzer.ErrUnavailable)
	}

	content := resp.Choices[0].Message.Content

	var envelope findingsEnvelope
	if err := json.Unmarshal([]byte(content), &envelope); err != nil {
		return nil, fmt.Errorf("parse analyzer response: %w", err)
	}

	findings := make([]analyzer.Finding, 0, len(envelope.Findings))
	for _, f := range envelope.Findings {
		if f.Description == "" {
			continue
		}
		f.RiskLevel = domain.ParseRiskLevel(string(f.RiskLevel))
		findings = append(findings, f)
	}

	c.logger.Debug("analyzed photo",
		"photo_id", params.PhotoID,
		"inspection_id", params.InspectionID,
		"model", resp.Model,
		"findings", len(findings),
		"duration", time.Since(start),
	)

	return &analyzer.Result{
		Findings: findings,
		Model:    resp.Model,
		Raw:      json.RawMessage(content),
	}, nil
}

// mapError converts OpenAI API errors to the analyzer error taxonomy.
func (c *Client) mapError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", analyzer.ErrTimeout, err)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: %v", analyzer.ErrUnauthorized, err)
		case http.StatusTooManyRequests:
			return fmt.Errorf("%w: %v", analyzer.ErrRateLimit, err)
		case http.StatusBadRequest:
			return fmt.Errorf("%w: %v", analyzer.ErrInvalidImage, err)
		}
		if apiErr.HTTPStatusCode >= 500 {
			return fmt.Errorf("%w: %v", analyzer.ErrUnavailable, err)
		}
	}

	return fmt.Errorf("openai request failed: %w", err)
}
