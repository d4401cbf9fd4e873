package internal

import (
	"context"
	"fmt"
	"time"
)

// DefaultProviderTimeout bounds a single analysis or embedding call to
// the local model server. Local VLMs on modest hardware can take well
// over a minute per page.
const DefaultProviderTimeout = 2 * time.Minute

const maxAnalyzedText = 8000

// pageAnalysis is the structured output requested from the model.
type pageAnalysis struct {
	Title      string  `json:"title"`
	Summary    string  `json:"summary"`
	Synthesis  string  `json:"synthesis"`
	Confidence float32 `json:"confidence"`
}

// CaptureAnalyzer turns raw page text (or an OCR/vision transcript)
// into the structured text analysis the RecordBuilder consumes. It is
// optional: captures arriving with analysis already attached bypass it.
type CaptureAnalyzer struct {
	provider Provider
	timeout  time.Duration
}

func NewCaptureAnalyzer(provider Provider, timeout time.Duration) *CaptureAnalyzer {
	if timeout <= 0 {
		timeout = DefaultProviderTimeout
	}
	return &CaptureAnalyzer{
		provider: provider,
		timeout:  timeout,
	}
}

// Analyze asks the model for a structured description of the page. The
// second return value is the model's self-reported confidence.
func (a *CaptureAnalyzer) Analyze(ctx context.Context, pageURL, pageText string) (*TextAnalysis, float32, error) {
	if a.provider == nil {
		return nil, 0, fmt.Errorf("no analysis provider configured")
	}

	if len(pageText) > maxAnalyzedText {
		pageText = pageText[:maxAnalyzedText]
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	prompt := fmt.Sprintf(
		"You are describing a web page for a personal browsing memory.\n"+
			"URL: %s\n\nPage content:\n%s\n\n"+
			"Produce a short title, a two-sentence summary, a one-paragraph "+
			"synthesis of what the user was looking at, and your confidence "+
			"between 0 and 1.",
		pageURL, pageText,
	)

	var out pageAnalysis
	if err := a.provider.GenerateObject(ctx, prompt, &out); err != nil {
		return nil, 0, fmt.Errorf("analyze page: %w", err)
	}

	return &TextAnalysis{
		Title:     out.Title,
		Summary:   out.Summary,
		Synthesis: out.Synthesis,
	}, out.Confidence, nil
}
