package summary

import (
	"strings"
	"testing"
	"time"
)

func sampleArtifact() *Artifact {
	a := &Artifact{
		Summary:   "Markets rallied on rate cut hopes.",
		Sentiment: "bullish",
		KeyPoints: []string{"one", "two", "three", "four"},
		ImpactedStocks: []StockImpact{
			{
				Ticker:            "ACME",
				CompanyName:       "Acme Corp",
				ImpactType:        "positive",
				ImpactReason:      "strong earnings",
				ConfidenceLevel:   "high",
				ExpectedMagnitude: "significant",
			},
		},
		MarketSectors: []SectorImpact{
			{
				SectorName:   "Semiconductors",
				ImpactType:   "negative",
				ImpactReason: "export controls",
				KeyCompanies: []string{"CHIP", "FAB"},
			},
		},
		MarketImplications: "Expect rotation into rate-sensitive names.",
		GeneratedAt:        time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC),
	}
	return a
}

func TestRenderTopThreeKeyPoints(t *testing.T) {
	t.Parallel()
	out := Render(sampleArtifact(), time.UTC)
	if !strings.Contains(out, "- three\n") {
		t.Fatal("third key point missing")
	}
	if strings.Contains(out, "- four") {
		t.Fatal("only the first three key points should render")
	}
}

func TestRenderSections(t *testing.T) {
	t.Parallel()
	out := Render(sampleArtifact(), time.UTC)

	for _, want := range []string{
		"📊 **Financial News Summary**",
		"Markets rallied on rate cut hopes.",
		"**Market Sentiment:** bullish",
		"🟢 **ACME** (Acme Corp)",
		"Impact: Positive (significant)",
		"Confidence: 🟢 High",
		"🔴 **Semiconductors** (Negative)",
		"Key Companies: CHIP, FAB",
		"**💡 Market Implications:**",
		"Generated at 2025-06-01 09:30:00",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("rendered output missing %q\n%s", want, out)
		}
	}
}

func TestRenderOmitsEmptySections(t *testing.T) {
	t.Parallel()
	a := &Artifact{Summary: "quiet day", GeneratedAt: time.Now()}
	a.Normalize(time.Now())
	out := Render(a, time.UTC)

	if strings.Contains(out, "Potentially Impacted Stocks") {
		t.Fatal("stock section must be omitted when empty")
	}
	if strings.Contains(out, "Affected Sectors") {
		t.Fatal("sector section must be omitted when empty")
	}
	if strings.Contains(out, "Market Implications") {
		t.Fatal("implications section must be omitted when empty")
	}
}

func TestRenderDeterministic(t *testing.T) {
	t.Parallel()
	a := sampleArtifact()
	if Render(a, time.UTC) != Render(a, time.UTC) {
		t.Fatal("render must be deterministic for equal artifacts")
	}
}

func TestImpactEmoji(t *testing.T) {
	t.Parallel()
	tests := []struct {
		impact string
		want   string
	}{
		{"positive", "🟢"},
		{"negative", "🔴"},
		{"neutral", "🟡"},
		{"", "🟡"},
	}
	for _, tt := range tests {
		if got := impactEmoji(tt.impact); got != tt.want {
			t.Fatalf("impactEmoji(%q) = %s, want %s", tt.impact, got, tt.want)
		}
	}
}
