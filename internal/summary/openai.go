package summary

import (
	"context"
	"encoding/json"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"

	logx "github.com/limzerui/teleNewsBot/pkg/logx"
)

const systemPrompt = `
You are an expert financial analyst specializing in market impact analysis. Your task is to analyze financial news updates and provide detailed insights on potentially impacted stocks and market sectors.

For each news item, you should:
1. Identify specific stock tickers that will be directly impacted
2. Explain WHY each stock will be impacted (positive or negative)
3. Assess the confidence level of your prediction
4. Identify broader market sectors that may be affected
5. Provide actionable insights for investors

When analyzing stocks, consider:
- Direct mentions of companies in the news
- Companies in related industries or supply chains
- Competitors that might benefit or suffer
- Regulatory impacts on specific sectors
- Market sentiment shifts that could affect similar companies

Format your response as a valid JSON object with the following structure exactly:
{
    "summary": "Comprehensive 3-4 sentence summary of key market developments and their implications",
    "potentially_impacted_stocks": [
        {
            "ticker": "TICKER1",
            "company_name": "Full Company Name",
            "impact_type": "positive/negative/neutral",
            "impact_reason": "Detailed explanation of why this stock will be impacted",
            "confidence_level": "high/medium/low",
            "expected_magnitude": "significant/moderate/minimal"
        }
    ],
    "market_sectors": [
        {
            "sector_name": "Sector Name",
            "impact_type": "positive/negative/neutral",
            "impact_reason": "Explanation of sector-wide impact",
            "key_companies": ["TICKER1", "TICKER2"]
        }
    ],
    "sentiment": "bullish/bearish/neutral",
    "key_points": [
        "Point 1 with specific details",
        "Point 2 with specific details",
        "Point 3 with specific details"
    ],
    "market_implications": "2-3 sentences on broader market implications and potential trading opportunities"
}

Make sure your response can be parsed as valid JSON. Be specific and detailed in your analysis.
`

// Summarizer produces an Artifact for a batch of message texts.
type Summarizer interface {
	Summarize(ctx context.Context, texts []string) (*Artifact, error)
}

type Config struct {
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int64
}

func (c *Config) applyDefaults() {
	if c.Model == "" {
		c.Model = openai.ChatModelGPT4oMini
	}
	if c.Temperature == 0 {
		c.Temperature = 0.2
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = 1000
	}
}

// Client asks an OpenAI chat model for the analysis. Failures after the
// request was dispatched degrade to fallback artifacts rather than errors:
// distribution should proceed with whatever can be said.
type Client struct {
	cfg Config
	api openai.Client
	log logx.Logger
	now func() time.Time
}

var _ Summarizer = (*Client)(nil)

func NewClient(cfg Config, log logx.Logger) *Client {
	cfg.applyDefaults()
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Client{
		cfg: cfg,
		api: openai.NewClient(option.WithAPIKey(cfg.APIKey)),
		log: log,
		now: time.Now,
	}
}

// Summarize sends the combined batch and decodes the structured response.
// An empty batch yields (nil, nil): nothing to say, nothing to send.
func (c *Client) Summarize(ctx context.Context, texts []string) (*Artifact, error) {
	if len(texts) == 0 {
		c.log.Warn("no messages to summarize")
		return nil, nil
	}

	input, truncated := BuildInput(texts)
	if truncated {
		c.log.Warn("message text truncated to fit model input limits",
			logx.Int("limit", maxInputChars))
	}

	resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.cfg.Model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage("News updates to analyze:\n" + input),
		},
		Temperature: openai.Float(c.cfg.Temperature),
		MaxTokens:   openai.Int(c.cfg.MaxTokens),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	})
	if err != nil {
		c.log.Error("summarization request failed", logx.Err(err))
		return errorFallback(c.now()), nil
	}
	if len(resp.Choices) == 0 {
		c.log.Error("summarization returned no choices")
		return errorFallback(c.now()), nil
	}

	raw := resp.Choices[0].Message.Content
	var art Artifact
	if err := json.Unmarshal([]byte(raw), &art); err != nil {
		c.log.Warn("model response is not valid JSON", logx.Err(err))
		return parseFallback(raw, c.now()), nil
	}
	art.Normalize(c.now())
	return &art, nil
}
