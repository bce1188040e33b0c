// Package summary turns a batch of channel messages into a structured
// market analysis artifact and renders it for delivery.
package summary

import "time"

// StockImpact describes one ticker the analysis flags.
type StockImpact struct {
	Ticker            string `json:"ticker"`
	CompanyName       string `json:"company_name"`
	ImpactType        string `json:"impact_type"`
	ImpactReason      string `json:"impact_reason"`
	ConfidenceLevel   string `json:"confidence_level"`
	ExpectedMagnitude string `json:"expected_magnitude"`
}

// SectorImpact describes a sector-wide effect.
type SectorImpact struct {
	SectorName   string   `json:"sector_name"`
	ImpactType   string   `json:"impact_type"`
	ImpactReason string   `json:"impact_reason"`
	KeyCompanies []string `json:"key_companies"`
}

// Artifact is the fixed-schema analysis result. Field names follow the
// JSON the model is instructed to emit.
type Artifact struct {
	Summary            string         `json:"summary"`
	ImpactedStocks     []StockImpact  `json:"potentially_impacted_stocks"`
	MarketSectors      []SectorImpact `json:"market_sectors"`
	Sentiment          string         `json:"sentiment"`
	KeyPoints          []string       `json:"key_points"`
	MarketImplications string         `json:"market_implications"`

	GeneratedAt time.Time `json:"-"`
}

// Normalize fills defaults so downstream rendering never has to nil-check.
func (a *Artifact) Normalize(now time.Time) {
	if a.ImpactedStocks == nil {
		a.ImpactedStocks = []StockImpact{}
	}
	if a.MarketSectors == nil {
		a.MarketSectors = []SectorImpact{}
	}
	if a.KeyPoints == nil {
		a.KeyPoints = []string{}
	}
	if a.Sentiment == "" {
		a.Sentiment = "neutral"
	}
	if a.GeneratedAt.IsZero() {
		a.GeneratedAt = now
	}
}

// parseFallback wraps a raw response that could not be decoded. The raw
// head is embedded so the failure is diagnosable from the delivered text.
func parseFallback(raw string, now time.Time) *Artifact {
	head := raw
	if len(head) > 500 {
		head = head[:500]
	}
	a := &Artifact{
		Summary:   "Summary could not be generated in the correct format. Here's the raw output: " + head + "...",
		Sentiment: "neutral",
		KeyPoints: []string{"Error: Unable to parse structured data"},
	}
	a.Normalize(now)
	return a
}

// errorFallback is delivered when the analysis request itself failed.
func errorFallback(now time.Time) *Artifact {
	a := &Artifact{
		Summary:   "Error generating summary",
		Sentiment: "neutral",
		KeyPoints: []string{"Failed to analyze news due to an error"},
	}
	a.Normalize(now)
	return a
}
