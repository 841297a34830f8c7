// Package textgen is the seam to the text-generation service used for AI
// community members. Output is untrusted: it is reduced to plain text and
// rejected when nothing is left.
package textgen

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dalemusser/circlehub/internal/app/system/htmlsanitize"
	"google.golang.org/genai"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.5-flash"

// MaxBioRunes bounds a generated member bio.
const MaxBioRunes = 500

// ErrEmptyOutput is returned when generation produced no usable text.
var ErrEmptyOutput = errors.New("textgen: empty output")

// Generator produces text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GenAI generates text with Google's Gemini API.
type GenAI struct {
	client *genai.Client
	model  string
}

// NewGenAI creates a Gemini-backed generator.
func NewGenAI(ctx context.Context, apiKey, model string) (*GenAI, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}
	if model == "" {
		model = DefaultModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GenAI{client: client, model: model}, nil
}

func (g *GenAI) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("textgen: generate: %w", err)
	}
	return resp.Text(), nil
}

// Static returns fixed text. It backs development setups without an API key
// and tests.
type Static struct {
	Text string
	Err  error
}

func (s Static) Generate(ctx context.Context, prompt string) (string, error) {
	if s.Err != nil {
		return "", s.Err
	}
	return s.Text, ctx.Err()
}

// MemberBio asks gen for a short bio of an AI community member and returns it
// as sanitized plain text.
func MemberBio(ctx context.Context, gen Generator, name, persona, community string) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Write a friendly two-sentence bio, in plain text without markup, for %q", name)
	if community != "" {
		fmt.Fprintf(&b, ", a member of the community %q", community)
	}
	if persona != "" {
		fmt.Fprintf(&b, ". Persona: %s", persona)
	}
	b.WriteString(".")

	out, err := gen.Generate(ctx, b.String())
	if err != nil {
		return "", err
	}
	bio := htmlsanitize.Truncate(htmlsanitize.PlainText(out), MaxBioRunes)
	if bio == "" {
		return "", ErrEmptyOutput
	}
	return bio, nil
}
