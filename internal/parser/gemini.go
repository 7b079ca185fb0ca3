package parser

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const extractionPrompt = "You are a financial statement parser.\n\n" +
	"Task:\n" +
	"- Parse ALL transactions in the statement text below.\n" +
	"- Output STRICT JSON only (no comments, no trailing commas, no extra text).\n" +
	"- Output a JSON array of objects.\n\n" +
	"Each object must have these fields:\n" +
	"- \"type\": string, one of \"expense\", \"income\", \"deposit\", \"transfer\"\n" +
	"- \"amount\": number (always positive, in major currency units)\n" +
	"- \"date\": string, ISO format \"YYYY-MM-DD\"\n" +
	"- \"currency\": string ISO 4217 code (e.g. \"EUR\")\n" +
	"- \"category\": string (e.g. \"Groceries\", \"Transport\", \"Salary\")\n" +
	"- \"description\": string\n" +
	"- \"merchant\": string (empty unless type is \"expense\")\n" +
	"- \"sender\": string (empty unless type is \"transfer\")\n" +
	"- \"receiver\": string (empty unless type is \"transfer\")\n\n" +
	"Rules:\n" +
	"- Money leaving the account at a merchant is an \"expense\".\n" +
	"- Salary and similar recurring credits are \"income\".\n" +
	"- Cash or cheque deposits are \"deposit\".\n" +
	"- Person-to-person movements are \"transfer\"; keep placeholder tokens\n" +
	"  such as [NAME_1] exactly as they appear in the text.\n" +
	"- Return ONLY valid raw JSON.\n" +
	"- Do NOT wrap the response in code fences.\n" +
	"- Output must begin with \"[\" and end with \"]\".\n\n" +
	"Statement text:\n"

// GeminiParser extracts transactions from statement text using the Gemini API.
type GeminiParser struct {
	client *genai.Client
	model  string
}

// NewGeminiParser creates a parser backed by the given Gemini model.
func NewGeminiParser(ctx context.Context, apiKey, model string) (*GeminiParser, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GeminiParser{client: client, model: model}, nil
}

// Parse sends the statement text to the model and decodes the JSON response.
func (p *GeminiParser) Parse(ctx context.Context, text string) ([]ParsedTransaction, error) {
	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: extractionPrompt + text},
			},
		},
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}

	raw := resp.Text()
	if raw == "" {
		return nil, fmt.Errorf("empty response from model")
	}

	var txs []ParsedTransaction
	if err := json.Unmarshal([]byte(cleanModelJSON(raw)), &txs); err != nil {
		return nil, fmt.Errorf("unmarshal model response: %w", err)
	}
	return txs, nil
}

// cleanModelJSON strips Markdown fences and surrounding junk in case the
// model ignored the formatting instructions.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		// Drop the first line (``` or ```json).
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}

	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}

	s = strings.TrimSpace(s)

	// Keep only from the first '[' to the last ']' if junk remains.
	if start := strings.Index(s, "["); start != -1 {
		if end := strings.LastIndex(s, "]"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}

	return s
}
