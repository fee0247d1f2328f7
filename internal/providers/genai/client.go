// Package genai is a lightweight client for the Gemini generateContent API,
// covering the two call shapes the service needs: free-form text generation
// with tool (function) calling, and JSON-constrained generation.
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel   = "gemini-2.0-flash"
	defaultTimeout = 60 * time.Second

	defaultMaxSteps = 4
)

// Options controls how the Gemini client is configured.
type Options struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
}

// Client calls the Gemini generateContent endpoint over plain HTTP.
type Client struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

// Schema is the subset of the OpenAPI schema dialect Gemini accepts for
// function parameter declarations.
type Schema struct {
	Type        string             `json:"type,omitempty"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Required    []string           `json:"required,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
}

// ToolFunc executes one tool invocation requested by the model. The raw JSON
// arguments come straight from the functionCall part.
type ToolFunc func(ctx context.Context, args json.RawMessage) (any, error)

// Tool declares a callable function the model may invoke during generation.
type Tool struct {
	Name        string
	Description string
	Parameters  *Schema
	Execute     ToolFunc
}

// TextRequest describes a text generation call.
type TextRequest struct {
	System   string
	Prompt   string
	Tools    []Tool
	MaxSteps int
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text             string            `json:"text,omitempty"`
	FunctionCall     *functionCall     `json:"functionCall,omitempty"`
	FunctionResponse *functionResponse `json:"functionResponse,omitempty"`
}

type functionCall struct {
	Name string          `json:"name"`
	Args json.RawMessage `json:"args,omitempty"`
}

type functionResponse struct {
	Name     string `json:"name"`
	Response any    `json:"response"`
}

type functionDeclaration struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Parameters  *Schema `json:"parameters,omitempty"`
}

type toolDeclaration struct {
	FunctionDeclarations []functionDeclaration `json:"functionDeclarations,omitempty"`
}

type generationConfig struct {
	Temperature      float64 `json:"temperature,omitempty"`
	CandidateCount   int     `json:"candidateCount,omitempty"`
	ResponseMimeType string  `json:"responseMimeType,omitempty"`
}

type generateContentRequest struct {
	SystemInstruction *content          `json:"systemInstruction,omitempty"`
	Contents          []content         `json:"contents"`
	Tools             []toolDeclaration `json:"tools,omitempty"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
}

type candidate struct {
	Content      content `json:"content"`
	FinishReason string  `json:"finishReason,omitempty"`
}

type generateContentResponse struct {
	Candidates []candidate `json:"candidates"`
}

type apiErrorResponse struct {
	Error struct {
		Code    int    `json:"code,omitempty"`
		Message string `json:"message,omitempty"`
	} `json:"error"`
}

// NewClient constructs a Gemini client. The API key is required.
func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("gemini api key is required")
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultModel
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		apiKey:  strings.TrimSpace(opts.APIKey),
		baseURL: baseURL,
		model:   model,
		client:  client,
	}, nil
}

// Model returns the configured model identifier.
func (c *Client) Model() string {
	return c.model
}

// GenerateText runs a generateContent call, resolving tool invocations until
// the model produces a final text answer or the step budget is exhausted.
func (c *Client) GenerateText(ctx context.Context, req TextRequest) (string, error) {
	maxSteps := req.MaxSteps
	if maxSteps <= 0 {
		maxSteps = defaultMaxSteps
	}

	tools := make(map[string]Tool, len(req.Tools))
	var declarations []functionDeclaration
	for _, tool := range req.Tools {
		tools[tool.Name] = tool
		declarations = append(declarations, functionDeclaration{
			Name:        tool.Name,
			Description: tool.Description,
			Parameters:  tool.Parameters,
		})
	}

	payload := generateContentRequest{
		Contents: []content{{
			Role:  "user",
			Parts: []part{{Text: req.Prompt}},
		}},
	}
	if req.System != "" {
		payload.SystemInstruction = &content{Parts: []part{{Text: req.System}}}
	}
	if len(declarations) > 0 {
		payload.Tools = []toolDeclaration{{FunctionDeclarations: declarations}}
	}

	for step := 0; step < maxSteps; step++ {
		var response generateContentResponse
		if err := c.invoke(ctx, payload, &response); err != nil {
			return "", err
		}
		if len(response.Candidates) == 0 {
			return "", errors.New("gemini returned no candidates")
		}

		modelContent := response.Candidates[0].Content
		call := firstFunctionCall(modelContent)
		if call == nil {
			text := collectText(modelContent)
			if text == "" {
				return "", errors.New("gemini returned no text content")
			}
			return text, nil
		}

		tool, ok := tools[call.Name]
		if !ok {
			return "", fmt.Errorf("gemini requested unknown tool %q", call.Name)
		}
		result, err := tool.Execute(ctx, call.Args)
		if err != nil {
			return "", fmt.Errorf("tool %s: %w", call.Name, err)
		}

		modelContent.Role = "model"
		payload.Contents = append(payload.Contents,
			modelContent,
			content{
				Role: "user",
				Parts: []part{{FunctionResponse: &functionResponse{
					Name:     call.Name,
					Response: map[string]any{"output": result},
				}}},
			},
		)
	}

	return "", fmt.Errorf("tool loop did not converge within %d steps", maxSteps)
}

// GenerateJSON runs a JSON-constrained generateContent call and decodes the
// model output into out.
func (c *Client) GenerateJSON(ctx context.Context, prompt string, out any) error {
	payload := generateContentRequest{
		Contents: []content{{
			Role:  "user",
			Parts: []part{{Text: prompt}},
		}},
		GenerationConfig: &generationConfig{
			CandidateCount:   1,
			ResponseMimeType: "application/json",
		},
	}

	var response generateContentResponse
	if err := c.invoke(ctx, payload, &response); err != nil {
		return err
	}
	if len(response.Candidates) == 0 {
		return errors.New("gemini returned no candidates")
	}
	text := collectText(response.Candidates[0].Content)
	if text == "" {
		return errors.New("gemini returned no text content")
	}
	if err := json.Unmarshal([]byte(text), out); err != nil {
		return fmt.Errorf("decode structured output: %w", err)
	}
	return nil
}

func (c *Client) invoke(ctx context.Context, payload generateContentRequest, out *generateContentResponse) error {
	endpoint := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, url.PathEscape(c.model))
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("invoke gemini: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr apiErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error.Message != "" {
			return fmt.Errorf("gemini status %d: %s", resp.StatusCode, apiErr.Error.Message)
		}
		data, _ := io.ReadAll(resp.Body)
		if len(data) > 0 {
			return fmt.Errorf("gemini status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
		}
		return fmt.Errorf("gemini status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode gemini response: %w", err)
	}
	return nil
}

func firstFunctionCall(c content) *functionCall {
	for _, p := range c.Parts {
		if p.FunctionCall != nil {
			return p.FunctionCall
		}
	}
	return nil
}

func collectText(c content) string {
	var b strings.Builder
	for _, p := range c.Parts {
		b.WriteString(p.Text)
	}
	return strings.TrimSpace(b.String())
}
