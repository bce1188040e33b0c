package summary

import (
	"fmt"
	"strings"
	"time"
)

// titleCase uppercases only the first letter; good enough for the fixed
// impact/confidence vocabulary.
func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func impactEmoji(impact string) string {
	switch impact {
	case "positive":
		return "🟢"
	case "negative":
		return "🔴"
	default:
		return "🟡"
	}
}

func confidenceEmoji(level string) string {
	switch level {
	case "high":
		return "🟢"
	case "medium":
		return "🟡"
	default:
		return "🔴"
	}
}

// Render produces the Markdown delivery text for an artifact. Layout is
// fixed so two artifacts with equal content render identically.
func Render(a *Artifact, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}

	var b strings.Builder
	b.WriteString("\n📊 **Financial News Summary**\n\n")
	b.WriteString(a.Summary)
	b.WriteString("\n\n**Key Points:**\n")

	points := a.KeyPoints
	if len(points) > 3 {
		points = points[:3]
	}
	for _, p := range points {
		fmt.Fprintf(&b, "- %s\n", p)
	}

	fmt.Fprintf(&b, "\n**Market Sentiment:** %s\n", a.Sentiment)

	if len(a.ImpactedStocks) > 0 {
		b.WriteString("\n**📈 Potentially Impacted Stocks:**\n")
		for _, s := range a.ImpactedStocks {
			fmt.Fprintf(&b, "%s **%s** (%s)\n", impactEmoji(s.ImpactType), s.Ticker, s.CompanyName)
			fmt.Fprintf(&b, "   • Impact: %s (%s)\n", titleCase(s.ImpactType), s.ExpectedMagnitude)
			fmt.Fprintf(&b, "   • Reason: %s\n", s.ImpactReason)
			fmt.Fprintf(&b, "   • Confidence: %s %s\n\n", confidenceEmoji(s.ConfidenceLevel), titleCase(s.ConfidenceLevel))
		}
	}

	if len(a.MarketSectors) > 0 {
		b.WriteString("\n**🏭 Affected Sectors:**\n")
		for _, s := range a.MarketSectors {
			fmt.Fprintf(&b, "%s **%s** (%s)\n", impactEmoji(s.ImpactType), s.SectorName, titleCase(s.ImpactType))
			fmt.Fprintf(&b, "   • Impact: %s\n", s.ImpactReason)
			if len(s.KeyCompanies) > 0 {
				fmt.Fprintf(&b, "   • Key Companies: %s\n", strings.Join(s.KeyCompanies, ", "))
			}
			b.WriteString("\n")
		}
	}

	if a.MarketImplications != "" {
		fmt.Fprintf(&b, "\n**💡 Market Implications:**\n%s\n", a.MarketImplications)
	}

	at := a.GeneratedAt
	if at.IsZero() {
		at = time.Now()
	}
	fmt.Fprintf(&b, "\nGenerated at %s", at.In(loc).Format("2006-01-02 15:04:05"))
	return b.String()
}
