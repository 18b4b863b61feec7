// Package openai adapts the OpenAI API to the collaborator interfaces the
// pipeline consumes: vision captioning, caption review, structured JSON
// generation and text embeddings.
package openai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const (
	DefaultCaptionModel = openai.GPT4o
	DefaultQAModel      = openai.GPT4oMini
	DefaultEmbedModel   = openai.SmallEmbedding3
)

var (
	// ErrNoChoices is returned when the API reply carries no completion.
	ErrNoChoices = errors.New("no completion choices returned")
	// ErrNoEmbeddings is returned when the API reply carries no vectors.
	ErrNoEmbeddings = errors.New("no embedding data returned")
)

// Alt-text prompts, kept in French: the captions become part of the ingested
// document text and the corpus is French.
const (
	imageSystemPrompt = "Tu es un assistant qui génère des textes alternatifs pour des images, qui seront utilisés par des lecteurs d'écran."
	imageUserPrompt   = "Génère le texte alternatif adapté aux lecteurs d'écran. Assure-toi que la phrase est complète et descriptive. Donne directement le texte."

	iconSystemPrompt = "Tu es un assistant qui génère des textes alternatifs pour des icônes et boutons inclus dans une documentation en ligne afin de la rendre accessible au screen reader."
	iconUserPrompt   = "Décris l'icône de façon adaptée aux lecteurs d'écran. Donne directement le texte."

	reviewSystemPrompt = "Tu es un assistant qui relit les textes alternatifs générés pour des images ou des boutons et les nettoie des mots superflus ou reformule si nécessaire pour les rendre adaptés aux lecteurs d'écran."
)

// chatAPI is the slice of the OpenAI client the adapter uses, extracted so
// tests can substitute a double.
type chatAPI interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
	CreateEmbeddings(ctx context.Context, conv openai.EmbeddingRequestConverter) (openai.EmbeddingResponse, error)
}

// Config holds model selection for the adapter.
type Config struct {
	APIKey       string
	CaptionModel string
	QAModel      string
	EmbedModel   openai.EmbeddingModel
}

// Client wraps the OpenAI API behind pipeline-shaped methods.
type Client struct {
	api          chatAPI
	captionModel string
	qaModel      string
	embedModel   openai.EmbeddingModel
}

// NewClient creates a Client for the given API key using default models.
func NewClient(apiKey string) *Client {
	return NewClientWithConfig(Config{APIKey: apiKey})
}

// NewClientWithConfig creates a Client with explicit model configuration.
func NewClientWithConfig(cfg Config) *Client {
	if cfg.CaptionModel == "" {
		cfg.CaptionModel = DefaultCaptionModel
	}
	if cfg.QAModel == "" {
		cfg.QAModel = DefaultQAModel
	}
	if cfg.EmbedModel == "" {
		cfg.EmbedModel = DefaultEmbedModel
	}
	return &Client{
		api:          openai.NewClient(cfg.APIKey),
		captionModel: cfg.CaptionModel,
		qaModel:      cfg.QAModel,
		embedModel:   cfg.EmbedModel,
	}
}

func imageDataURL(imageBytes []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(imageBytes)
}

func (c *Client) captionWithPrompts(ctx context.Context, imageBytes []byte, system, user string, maxTokens int) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.captionModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: user},
					{
						Type:     openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{URL: imageDataURL(imageBytes)},
					},
				},
			},
		},
		MaxTokens: maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("caption request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrNoChoices
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// CaptionImage generates alt-text for a screenshot-sized image within the
// given token budget.
func (c *Client) CaptionImage(ctx context.Context, imageBytes []byte, maxTokens int) (string, error) {
	return c.captionWithPrompts(ctx, imageBytes, imageSystemPrompt, imageUserPrompt, maxTokens)
}

// CaptionIcon generates alt-text for an icon or button within the given token
// budget.
func (c *Client) CaptionIcon(ctx context.Context, imageBytes []byte, maxTokens int) (string, error) {
	return c.captionWithPrompts(ctx, imageBytes, iconSystemPrompt, iconUserPrompt, maxTokens)
}

// ReviewCaption passes a generated caption through a style-correction pass so
// it reads naturally for a screen reader.
func (c *Client) ReviewCaption(ctx context.Context, caption string, maxTokens int) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.captionModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: reviewSystemPrompt},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: "Nettoie le texte alternatif suivant pour qu'il soit adapté aux lecteurs d'écran : " + caption,
			},
		},
		MaxTokens: maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("review request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrNoChoices
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// GenerateJSON requests a completion constrained to a single JSON object and
// returns the raw content. Parsing is the caller's concern: replies are not
// guaranteed to be valid JSON despite the response format hint.
func (c *Client) GenerateJSON(ctx context.Context, system, user string, temperature float32) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.qaModel,
		Temperature: temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return "", fmt.Errorf("generation request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrNoChoices
	}
	return resp.Choices[0].Message.Content, nil
}

// EmbedTexts returns one embedding per input text, used by the chunker's
// boundary detection.
func (c *Client) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := c.api.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: c.embedModel,
	})
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, ErrNoEmbeddings
	}

	out := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		out[i] = d.Embedding
	}
	return out, nil
}
