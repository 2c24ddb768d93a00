package corrector

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/nguyentantai21042004/subtitle-ocr/internal/transcript"
	"google.golang.org/genai"
)

const correctionPrompt = `You are an expert subtitle proofreader. The following lines come from consecutive subtitles that were recognized by OCR. Fix spelling, OCR mistakes and punctuation while keeping the original meaning and language.

Rules:
1. Keep proper names and honorifics exactly as written.
2. Keep the tone consistent across all lines.
3. Reply as a list in the format "LINE <NUMBER>: <CORRECTED TEXT>" for every line you receive.
4. You MUST return exactly the same number of lines you received. If a line needs no change, repeat it unchanged.
5. Keep every "%s" marker, it separates lines of one subtitle.
6. Do NOT add any other text.

Lines to correct:
%s`

const lineBreak = "<br>"

var reLine = regexp.MustCompile(`^\s*LINE\s+(\d+)\s*:\s?(.*)$`)

var errEmptyResponse = errors.New("empty response from Gemini")

// Correct sends the texts in batches. A batch that keeps failing, or whose
// reply is incomplete, falls back to the original lines.
func (c *implCorrector) Correct(ctx context.Context, entries []transcript.Entry) ([]transcript.Entry, error) {
	if len(c.apiKeys) == 0 {
		return nil, errors.New("no Gemini API keys configured")
	}

	out := make([]transcript.Entry, len(entries))
	copy(out, entries)

	batches := (len(entries) + c.batchSize - 1) / c.batchSize
	for b := 0; b < batches; b++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		start := b * c.batchSize
		end := min(start+c.batchSize, len(entries))

		texts := make([]string, end-start)
		for i := range texts {
			texts[i] = entries[start+i].Text
		}

		c.logger.Info(ctx, "Correcting batch %d/%d (%d lines)", b+1, batches, len(texts))
		corrected, err := c.correctBatch(ctx, texts)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.logger.Warn(ctx, "Batch %d kept original text: %v", b+1, err)
			continue
		}
		for i, t := range corrected {
			out[start+i].Text = t
		}
	}
	return out, nil
}

func (c *implCorrector) correctBatch(ctx context.Context, texts []string) ([]string, error) {
	prompt := buildPrompt(texts)

	var lastErr error
	for attempt := 1; attempt <= batchAttempts; attempt++ {
		reply, err := c.callGemini(ctx, prompt)
		if err == nil {
			corrected, missing := parseResponse(reply, texts)
			if missing > 0 {
				c.logger.Warn(ctx, "Gemini returned %d of %d lines, filled the rest with the originals", len(texts)-missing, len(texts))
			}
			return corrected, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if attempt < batchAttempts {
			c.logger.Warn(ctx, "Correction attempt %d/%d failed: %v", attempt, batchAttempts, err)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.retryDelay):
			}
		}
	}
	return nil, fmt.Errorf("correct batch: %w", lastErr)
}

// callGemini tries each key once, rotating on 429 / quota errors.
func (c *implCorrector) callGemini(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for range len(c.apiKeys) {
		text, err := c.generate(ctx, c.apiKeys[c.currentKey], c.model, prompt)
		if err == nil {
			return text, nil
		}
		if isQuotaError(err) {
			c.logger.Warn(ctx, "Key %d rate limited, rotating...", c.currentKey+1)
			c.rotateKey()
			lastErr = err
			continue
		}
		return "", err
	}
	return "", fmt.Errorf("all API keys exhausted: %w", lastErr)
}

func (c *implCorrector) rotateKey() {
	c.currentKey = (c.currentKey + 1) % len(c.apiKeys)
}

func generateGemini(ctx context.Context, apiKey, model, prompt string) (string, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return "", fmt.Errorf("create client: %w", err)
	}

	result, err := client.Models.GenerateContent(ctx, model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	if result != nil && len(result.Candidates) > 0 && result.Candidates[0].Content != nil {
		var text string
		for _, part := range result.Candidates[0].Content.Parts {
			if part.Text != "" {
				text += part.Text
			}
		}
		if text != "" {
			return text, nil
		}
	}
	return "", errEmptyResponse
}

func isQuotaError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "429") || strings.Contains(msg, "quota") || strings.Contains(msg, "RESOURCE_EXHAUSTED")
}

func buildPrompt(texts []string) string {
	var b strings.Builder
	for i, t := range texts {
		fmt.Fprintf(&b, "LINE %d: %s\n", i, strings.ReplaceAll(t, "\n", lineBreak))
	}
	return fmt.Sprintf(correctionPrompt, lineBreak, b.String())
}

// parseResponse maps "LINE n: text" replies back onto texts. Lines the reply
// misses keep their original text; missing reports how many.
func parseResponse(reply string, texts []string) ([]string, int) {
	out := make([]string, len(texts))
	seen := make([]bool, len(texts))

	for _, line := range strings.Split(reply, "\n") {
		m := reLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		idx, err := strconv.Atoi(m[1])
		if err != nil || idx < 0 || idx >= len(texts) {
			continue
		}
		text := strings.TrimSpace(m[2])
		if text == "" {
			continue
		}
		out[idx] = restoreBreaks(text)
		seen[idx] = true
	}

	missing := 0
	for i, ok := range seen {
		if !ok {
			out[i] = texts[i]
			missing++
		}
	}
	return out, missing
}

func restoreBreaks(s string) string {
	parts := strings.Split(s, lineBreak)
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return strings.Join(parts, "\n")
}
