package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/oratio-labs/oratio-svc/types"
)

// AzureConfig holds Azure OpenAI embeddings settings. Deployment is the
// embeddings model deployment (text-embedding-3-large by default).
type AzureConfig struct {
	Endpoint   string        `yaml:"endpoint" json:"endpoint"`
	APIKey     string        `yaml:"api_key" json:"-"`
	APIVersion string        `yaml:"api_version" json:"api_version"`
	Deployment string        `yaml:"deployment" json:"deployment"`
	Dimensions int           `yaml:"dimensions" json:"dimensions"`
	Timeout    time.Duration `yaml:"timeout" json:"timeout"`
}

// AzureProvider implements Provider against the Azure OpenAI embeddings API.
type AzureProvider struct {
	cfg    AzureConfig
	client *http.Client
}

// NewAzureProvider creates an Azure OpenAI embedding provider.
func NewAzureProvider(cfg AzureConfig) *AzureProvider {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = "2023-05-15"
	}
	if cfg.Deployment == "" {
		cfg.Deployment = "text-embedding-3-large"
	}
	if cfg.Dimensions == 0 {
		cfg.Dimensions = 3072
	}
	return &AzureProvider{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

func (p *AzureProvider) Name() string    { return "azure-embeddings" }
func (p *AzureProvider) Dimensions() int { return p.cfg.Dimensions }

type embeddingRequestBody struct {
	Input []string `json:"input"`
}

type embeddingResponseBody struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// EmbedQuery embeds a single query string.
func (p *AzureProvider) EmbedQuery(ctx context.Context, text string) ([]float64, error) {
	payload, _ := json.Marshal(embeddingRequestBody{Input: []string{text}})

	endpoint := fmt.Sprintf("%s/openai/deployments/%s/embeddings?api-version=%s",
		strings.TrimRight(p.cfg.Endpoint, "/"), p.cfg.Deployment, p.cfg.APIVersion)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, types.NewError(types.ErrInvalidRequest, "build embedding request").WithCause(err).WithProvider(p.Name())
	}
	httpReq.Header.Set("api-key", p.cfg.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, types.NewError(types.ErrUpstreamError, "embedding request failed").
			WithCause(err).WithRetryable(true).WithProvider(p.Name())
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, types.NewError(types.ErrUpstreamError, "read embedding response").WithCause(err).WithProvider(p.Name())
	}

	var body embeddingResponseBody
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, types.NewError(types.ErrUpstreamError, "decode embedding response").WithCause(err).WithProvider(p.Name())
	}

	if resp.StatusCode >= 400 {
		msg := fmt.Sprintf("embedding request returned status %d", resp.StatusCode)
		if body.Error != nil {
			msg = body.Error.Message
		}
		return nil, types.NewError(types.ErrUpstreamError, msg).
			WithHTTPStatus(resp.StatusCode).WithRetryable(resp.StatusCode >= 500).WithProvider(p.Name())
	}
	if len(body.Data) == 0 {
		return nil, types.NewError(types.ErrUpstreamError, "no embeddings returned").WithProvider(p.Name())
	}
	return body.Data[0].Embedding, nil
}
