// internal/llm/providers/openrouter/openrouter.go
package openrouter

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Corphon/CurriculumDesigner/internal/llm"
)

const (
	defaultBaseURL = "https://openrouter.ai/api/v1"
	defaultModel   = "anthropic/claude-sonnet-4"
	defaultAppName = "Curriculum Designer"
)

func init() {
	llm.Register("openrouter", func() llm.Provider {
		return &Provider{
			recommendedModels: []string{
				"anthropic/claude-sonnet-4",
				"anthropic/claude-3.5-haiku",
				"openai/gpt-4o",
				"google/gemini-2.5-pro",
				"meta-llama/llama-3.3-70b-instruct",
			},
			baseURL: defaultBaseURL,
		}
	})
}

// Provider talks to OpenRouter's OpenAI-compatible chat completions API.
// base_url points it at any other server speaking the same protocol.
type Provider struct {
	apiKey            string
	baseURL           string
	client            *http.Client
	defaultModel      string
	maxTokens         int
	recommendedModels []string
	availableModels   []string
	httpReferer       string
	appName           string
}

func (p *Provider) Initialize(config map[string]string) error {
	apiKey := config["api_key"]
	if apiKey == "" {
		return errors.New("openrouter api key not configured")
	}

	p.apiKey = apiKey
	p.client = &http.Client{Timeout: 10 * time.Minute}
	p.defaultModel = defaultModel
	p.appName = defaultAppName

	if model := config["default_model"]; model != "" {
		p.defaultModel = model
	}
	if baseURL := config["base_url"]; baseURL != "" {
		p.baseURL = strings.TrimRight(baseURL, "/")
	}
	if appName := config["app_name"]; appName != "" {
		p.appName = appName
	}
	p.httpReferer = config["http_referer"]
	if n, err := strconv.Atoi(config["max_tokens"]); err == nil && n > 0 {
		p.maxTokens = n
	}
	if customModels := config["custom_models"]; customModels != "" {
		var models []string
		if err := json.Unmarshal([]byte(customModels), &models); err == nil && len(models) > 0 {
			p.availableModels = models
		}
	}
	return nil
}

func (p *Provider) GetName() string {
	return "OpenRouter"
}

func (p *Provider) GetSupportedModels() []string {
	if len(p.availableModels) > 0 {
		return p.availableModels
	}
	return p.recommendedModels
}

// FetchAvailableModels replaces the model list with the server's catalogue.
func (p *Provider) FetchAvailableModels(ctx context.Context) error {
	if p.apiKey == "" {
		return errors.New("openrouter api key not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/models", nil)
	if err != nil {
		return err
	}
	p.setHeaders(req)

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("openrouter list models (%d): %s", resp.StatusCode, string(body))
	}

	var response struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return err
	}

	p.availableModels = make([]string, 0, len(response.Data))
	for _, model := range response.Data {
		p.availableModels = append(p.availableModels, model.ID)
	}
	return nil
}

func (p *Provider) SetCustomModels(models []string) {
	if len(models) > 0 {
		p.availableModels = models
	}
}

func (p *Provider) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("X-Title", p.appName)
	if p.httpReferer != "" {
		req.Header.Set("HTTP-Referer", p.httpReferer)
	}
}

func (p *Provider) requestBody(req llm.CompletionRequest, stream bool) map[string]interface{} {
	model := req.Model
	if model == "" {
		model = p.defaultModel
	}

	messages := []map[string]string{{"role": "user", "content": req.Prompt}}
	if req.SystemPrompt != "" {
		messages = append([]map[string]string{{"role": "system", "content": req.SystemPrompt}}, messages...)
	}

	body := map[string]interface{}{
		"model":    model,
		"messages": messages,
	}
	if stream {
		body["stream"] = true
	}
	if req.Temperature > 0 {
		body["temperature"] = req.Temperature
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = p.maxTokens
	}
	if maxTokens > 0 {
		body["max_tokens"] = maxTokens
	}
	if req.TopP > 0 {
		body["top_p"] = req.TopP
	}
	if len(req.StopWords) > 0 {
		body["stop"] = req.StopWords
	}
	for k, v := range req.ExtraParams {
		body[k] = v
	}
	return body
}

func (p *Provider) post(ctx context.Context, body map[string]interface{}, stream bool) (*http.Response, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if stream {
		httpReq.Header.Set("Accept", "text/event-stream")
	}
	p.setHeaders(httpReq)

	httpResp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	if httpResp.StatusCode != http.StatusOK {
		defer httpResp.Body.Close()
		msg, _ := io.ReadAll(io.LimitReader(httpResp.Body, 4096))
		return nil, fmt.Errorf("openrouter api error (%d): %s", httpResp.StatusCode, string(msg))
	}
	return httpResp, nil
}

func (p *Provider) CompleteText(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	httpResp, err := p.post(ctx, p.requestBody(req, false), false)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	var response struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
			FinishReason string `json:"finish_reason"`
		} `json:"choices"`
		Usage struct {
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
			TotalTokens      int `json:"total_tokens"`
		} `json:"usage"`
		Model string `json:"model"`
	}
	if err := json.NewDecoder(httpResp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode openrouter response: %w", err)
	}
	if len(response.Choices) == 0 {
		return nil, errors.New("openrouter returned no choices")
	}

	return &llm.CompletionResponse{
		Text:         response.Choices[0].Message.Content,
		FinishReason: response.Choices[0].FinishReason,
		TokensUsed:   response.Usage.TotalTokens,
		PromptTokens: response.Usage.PromptTokens,
		OutputTokens: response.Usage.CompletionTokens,
		ModelName:    response.Model,
		ProviderName: p.GetName(),
	}, nil
}

// StreamCompletion relays the SSE deltas. A stream that ends without a
// finish reason or [DONE] is reported through Err.
func (p *Provider) StreamCompletion(ctx context.Context, req llm.CompletionRequest) (<-chan llm.StreamResponse, error) {
	httpResp, err := p.post(ctx, p.requestBody(req, true), true)
	if err != nil {
		return nil, err
	}

	respChan := make(chan llm.StreamResponse)
	go func() {
		defer httpResp.Body.Close()
		defer close(respChan)

		send := func(r llm.StreamResponse) bool {
			select {
			case respChan <- r:
				return true
			case <-ctx.Done():
				return false
			}
		}

		scanner := bufio.NewScanner(httpResp.Body)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		var modelName string
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, ":") {
				continue
			}
			data, ok := strings.CutPrefix(line, "data:")
			if !ok {
				continue
			}
			data = strings.TrimSpace(data)
			if data == "[DONE]" {
				send(llm.StreamResponse{FinishReason: "stop", ModelName: modelName, Done: true})
				return
			}

			var chunk struct {
				Model   string `json:"model"`
				Choices []struct {
					Delta struct {
						Content string `json:"content"`
					} `json:"delta"`
					FinishReason *string `json:"finish_reason"`
				} `json:"choices"`
				Error *struct {
					Message string `json:"message"`
				} `json:"error"`
			}
			if err := json.Unmarshal([]byte(data), &chunk); err != nil {
				continue
			}
			if chunk.Error != nil {
				send(llm.StreamResponse{Done: true, Err: fmt.Errorf("openrouter stream error: %s", chunk.Error.Message)})
				return
			}
			if chunk.Model != "" && modelName == "" {
				modelName = chunk.Model
			}
			if len(chunk.Choices) == 0 {
				continue
			}
			if content := chunk.Choices[0].Delta.Content; content != "" {
				if !send(llm.StreamResponse{Text: content, ModelName: modelName}) {
					return
				}
			}
			if reason := chunk.Choices[0].FinishReason; reason != nil && *reason != "" {
				send(llm.StreamResponse{FinishReason: *reason, ModelName: modelName, Done: true})
				return
			}
		}

		err := scanner.Err()
		if err == nil {
			err = io.ErrUnexpectedEOF
		}
		send(llm.StreamResponse{Done: true, Err: fmt.Errorf("openrouter stream interrupted: %w", err)})
	}()

	return respChan, nil
}
