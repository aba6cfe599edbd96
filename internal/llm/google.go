package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strings"
)

const googleAPIBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// GoogleProvider implements Provider and Streamer using the Google Gemini
// API via direct HTTP.
type GoogleProvider struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// NewGoogleProvider creates a new Google Gemini provider.
func NewGoogleProvider(apiKey string, model string) *GoogleProvider {
	return &GoogleProvider{
		apiKey:  apiKey,
		model:   model,
		baseURL: googleAPIBaseURL,
		client:  &http.Client{},
	}
}

// WithBaseURL points the provider at a different API root.
func (p *GoogleProvider) WithBaseURL(u string) *GoogleProvider {
	p.baseURL = strings.TrimRight(u, "/")
	return p
}

func (p *GoogleProvider) Name() string {
	return "google"
}

type geminiRequest struct {
	Contents          []geminiContent         `json:"contents"`
	SystemInstruction *geminiContent          `json:"systemInstruction,omitempty"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenerationConfig struct {
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
	Temperature     float64 `json:"temperature"`
}

type geminiResponse struct {
	Candidates    []geminiCandidate    `json:"candidates"`
	UsageMetadata *geminiUsageMetadata `json:"usageMetadata"`
	Error         *geminiError         `json:"error,omitempty"`
}

type geminiCandidate struct {
	Content      *geminiContent `json:"content"`
	FinishReason string         `json:"finishReason"`
}

type geminiUsageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

type geminiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

func (r *geminiResponse) text() string {
	var sb strings.Builder
	if len(r.Candidates) > 0 && r.Candidates[0].Content != nil {
		for _, part := range r.Candidates[0].Content.Parts {
			sb.WriteString(part.Text)
		}
	}
	return sb.String()
}

func (p *GoogleProvider) buildRequest(req CompletionRequest) (string, geminiRequest) {
	model := req.Model
	if model == "" {
		model = p.model
	}

	// Build system instruction and conversation contents.
	var systemParts []geminiPart
	var contents []geminiContent

	for _, msg := range req.Messages {
		switch msg.Role {
		case RoleSystem:
			systemParts = append(systemParts, geminiPart{Text: msg.Content})
		case RoleUser:
			contents = append(contents, geminiContent{
				Role:  "user",
				Parts: []geminiPart{{Text: msg.Content}},
			})
		case RoleAssistant:
			contents = append(contents, geminiContent{
				Role:  "model",
				Parts: []geminiPart{{Text: msg.Content}},
			})
		}
	}

	// Ensure there's at least one content entry.
	if len(contents) == 0 {
		contents = append(contents, geminiContent{
			Role:  "user",
			Parts: []geminiPart{{Text: ""}},
		})
	}

	apiReq := geminiRequest{
		Contents: contents,
		GenerationConfig: &geminiGenerationConfig{
			Temperature: req.Temperature,
		},
	}
	if len(systemParts) > 0 {
		apiReq.SystemInstruction = &geminiContent{Parts: systemParts}
	}
	if req.MaxTokens > 0 {
		apiReq.GenerationConfig.MaxOutputTokens = req.MaxTokens
	}
	return model, apiReq
}

func (p *GoogleProvider) post(ctx context.Context, endpoint string, apiReq geminiRequest) (*http.Response, error) {
	body, err := json.Marshal(apiReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal gemini request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", p.apiKey)

	httpResp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}
	return httpResp, nil
}

func (p *GoogleProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	model, apiReq := p.buildRequest(req)

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", p.baseURL, model)
	httpResp, err := p.post(ctx, endpoint, apiReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read gemini response: %w", err)
	}

	var apiResp geminiResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal gemini response: %w", err)
	}

	if apiResp.Error != nil {
		return nil, fmt.Errorf("gemini API error (%s): %s", apiResp.Error.Status, apiResp.Error.Message)
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gemini returned status %d: %s", httpResp.StatusCode, string(respBody))
	}

	var finishReason string
	if len(apiResp.Candidates) > 0 {
		finishReason = apiResp.Candidates[0].FinishReason
	}

	var inputTokens, outputTokens int
	if apiResp.UsageMetadata != nil {
		inputTokens = apiResp.UsageMetadata.PromptTokenCount
		outputTokens = apiResp.UsageMetadata.CandidatesTokenCount
	}

	return &CompletionResponse{
		Content:      apiResp.text(),
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		Model:        model,
		FinishReason: finishReason,
	}, nil
}

func (p *GoogleProvider) Stream(ctx context.Context, req CompletionRequest) (Stream, error) {
	model, apiReq := p.buildRequest(req)

	endpoint := fmt.Sprintf("%s/models/%s:streamGenerateContent?alt=sse", p.baseURL, model)
	httpResp, err := p.post(ctx, endpoint, apiReq)
	if err != nil {
		return nil, err
	}
	if httpResp.StatusCode != http.StatusOK {
		defer httpResp.Body.Close()
		respBody, _ := io.ReadAll(httpResp.Body)
		return nil, fmt.Errorf("gemini returned status %d: %s", httpResp.StatusCode, string(respBody))
	}
	return &geminiStream{sse: newSSEReader(httpResp.Body)}, nil
}

// geminiStream only accepts the end of the body after a chunk carried a
// finishReason; anything else is a truncated answer.
type geminiStream struct {
	sse      *sseReader
	finished bool
}

func (s *geminiStream) Recv() (string, error) {
	for {
		data, err := s.sse.Next()
		if errors.Is(err, io.EOF) {
			if s.finished {
				return "", io.EOF
			}
			return "", fmt.Errorf("gemini stream: %w", io.ErrUnexpectedEOF)
		}
		if err != nil {
			return "", err
		}
		if data == "" {
			continue
		}
		var chunk geminiResponse
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return "", fmt.Errorf("decoding gemini stream chunk: %w", err)
		}
		if chunk.Error != nil {
			return "", fmt.Errorf("gemini API error (%s): %s", chunk.Error.Status, chunk.Error.Message)
		}
		if len(chunk.Candidates) > 0 && chunk.Candidates[0].FinishReason != "" {
			s.finished = true
		}
		if text := chunk.text(); text != "" {
			return text, nil
		}
	}
}

func (s *geminiStream) Close() error {
	return s.sse.Close()
}

// GeminiModel describes a model returned by the models endpoint.
type GeminiModel struct {
	Name                       string   `json:"name"`
	DisplayName                string   `json:"displayName"`
	SupportedGenerationMethods []string `json:"supportedGenerationMethods"`
}

// ListModels returns the models available to the API key that support the
// given generation method ("generateContent", "embedContent"). An empty
// method returns every model.
func (p *GoogleProvider) ListModels(ctx context.Context, method string) ([]GeminiModel, error) {
	var models []GeminiModel
	pageToken := ""
	for {
		query := url.Values{"pageSize": {"100"}}
		if pageToken != "" {
			query.Set("pageToken", pageToken)
		}
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/models?"+query.Encode(), nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		httpReq.Header.Set("x-goog-api-key", p.apiKey)

		httpResp, err := p.client.Do(httpReq)
		if err != nil {
			return nil, fmt.Errorf("listing gemini models: %w", err)
		}
		respBody, err := io.ReadAll(httpResp.Body)
		httpResp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read gemini response: %w", err)
		}
		if httpResp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("gemini returned status %d: %s", httpResp.StatusCode, string(respBody))
		}

		var page struct {
			Models        []GeminiModel `json:"models"`
			NextPageToken string        `json:"nextPageToken"`
		}
		if err := json.Unmarshal(respBody, &page); err != nil {
			return nil, fmt.Errorf("failed to unmarshal gemini models: %w", err)
		}
		for _, m := range page.Models {
			if method == "" || slices.Contains(m.SupportedGenerationMethods, method) {
				models = append(models, m)
			}
		}
		if page.NextPageToken == "" {
			return models, nil
		}
		pageToken = page.NextPageToken
	}
}
