package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

// GeminiClient calls the Google generative-language REST API. It implements
// Generator for any model name in the roster.
type GeminiClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client

	usageMu sync.Mutex
	usage   ClientUsage
}

// ClientUsage tracks request statistics across all models served by one
// client.
type ClientUsage struct {
	RequestCount int64     `json:"request_count"`
	TotalTokens  int64     `json:"total_tokens"`
	ErrorCount   int64     `json:"error_count"`
	LastUsed     time.Time `json:"last_used"`
}

type geminiRequest struct {
	Contents         []geminiContent  `json:"contents"`
	GenerationConfig *geminiGenConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenConfig struct {
	Temperature     float32 `json:"temperature,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
			Role string `json:"role"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

// NewGeminiClient creates a generation client with the given per-call
// transport timeout.
func NewGeminiClient(apiKey string, timeout time.Duration) *GeminiClient {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &GeminiClient{
		apiKey:  apiKey,
		baseURL: "https://generativelanguage.googleapis.com/v1beta/models",
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Generate implements Generator. Quota and rate-limit responses are mapped to
// ErrRateLimited; everything else surfaces as a generic error.
func (g *GeminiClient) Generate(ctx context.Context, model Candidate, prompt string) (string, error) {
	geminiReq := &geminiRequest{
		Contents: []geminiContent{
			{
				Role: "user",
				Parts: []geminiPart{
					{Text: prompt},
				},
			},
		},
		GenerationConfig: &geminiGenConfig{
			Temperature: 0.4,
		},
	}

	url := fmt.Sprintf("%s/%s:generateContent?key=%s", g.baseURL, model, g.apiKey)
	resp, err := g.makeRequest(ctx, url, geminiReq)
	if err != nil {
		g.recordError()
		return "", err
	}

	g.recordSuccess(resp.UsageMetadata.TotalTokenCount)

	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("model %s returned no content", model)
	}
	return resp.Candidates[0].Content.Parts[0].Text, nil
}

func (g *GeminiClient) makeRequest(ctx context.Context, url string, req *geminiRequest) (*geminiResponse, error) {
	jsonData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		switch resp.StatusCode {
		case http.StatusTooManyRequests:
			return nil, fmt.Errorf("%w: status 429", ErrRateLimited)
		case http.StatusForbidden:
			if bytes.Contains(body, []byte("quota")) || bytes.Contains(body, []byte("QUOTA")) {
				return nil, fmt.Errorf("%w: quota exhausted", ErrRateLimited)
			}
			return nil, fmt.Errorf("access denied: check API key permissions")
		case http.StatusUnauthorized:
			return nil, fmt.Errorf("invalid API key")
		case http.StatusInternalServerError, http.StatusBadGateway,
			http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return nil, fmt.Errorf("generation service temporarily unavailable (status %d)", resp.StatusCode)
		default:
			return nil, fmt.Errorf("generation request failed with status %d: %s", resp.StatusCode, string(body))
		}
	}

	var geminiResp geminiResponse
	if err := json.Unmarshal(body, &geminiResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if geminiResp.Error != nil {
		if geminiResp.Error.Status == "RESOURCE_EXHAUSTED" {
			return nil, fmt.Errorf("%w: %s", ErrRateLimited, geminiResp.Error.Message)
		}
		return nil, fmt.Errorf("generation API error: %s", geminiResp.Error.Message)
	}

	return &geminiResp, nil
}

// Usage returns a copy of the accumulated usage statistics.
func (g *GeminiClient) Usage() ClientUsage {
	g.usageMu.Lock()
	defer g.usageMu.Unlock()
	return g.usage
}

func (g *GeminiClient) recordSuccess(totalTokens int) {
	g.usageMu.Lock()
	defer g.usageMu.Unlock()
	g.usage.RequestCount++
	g.usage.TotalTokens += int64(totalTokens)
	g.usage.LastUsed = time.Now()
}

func (g *GeminiClient) recordError() {
	g.usageMu.Lock()
	defer g.usageMu.Unlock()
	g.usage.ErrorCount++
	g.usage.LastUsed = time.Now()
}
