package similar

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

// Embedder turns a game document into a unit-length vector.
type Embedder interface {
	Model() string
	Dimensions() int
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

// OpenAIConfig configures an OpenAI-compatible embeddings endpoint. Any host
// speaking the /embeddings protocol works; only Model is provider-specific.
type OpenAIConfig struct {
	BaseURL    string
	APIKey     string
	Model      string
	Dimensions int // 0 means provider default
	Timeout    time.Duration
}

// OpenAIEmbedder calls an OpenAI-compatible embeddings API.
type OpenAIEmbedder struct {
	client     *openai.Client
	model      string
	dimensions int
}

func NewOpenAIEmbedder(cfg OpenAIConfig) (*OpenAIEmbedder, error) {
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, fmt.Errorf("model is required")
	}
	openaiCfg := openai.DefaultConfig(cfg.APIKey)
	if strings.TrimSpace(cfg.BaseURL) != "" {
		openaiCfg.BaseURL = cfg.BaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	openaiCfg.HTTPClient = &http.Client{Timeout: timeout}
	return &OpenAIEmbedder{
		client:     openai.NewClientWithConfig(openaiCfg),
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
	}, nil
}

func (e *OpenAIEmbedder) Model() string   { return e.model }
func (e *OpenAIEmbedder) Dimensions() int { return e.dimensions }

func (e *OpenAIEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	req := openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(e.model),
	}
	if e.dimensions > 0 {
		req.Dimensions = e.dimensions
	}

	resp, err := e.client.CreateEmbeddings(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(resp.Data) != 1 {
		return nil, fmt.Errorf("expected 1 embedding, got %d", len(resp.Data))
	}

	vec := make([]float32, len(resp.Data[0].Embedding))
	copy(vec, resp.Data[0].Embedding)
	l2Normalize(vec)
	return vec, nil
}

// l2Normalize scales vec to unit length in place so cosine distance and inner
// product agree. Zero vectors are left untouched.
func l2Normalize(vec []float32) {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	norm := float32(math.Sqrt(sum))
	for i := range vec {
		vec[i] /= norm
	}
}
