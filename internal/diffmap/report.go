package diffmap

import (
	"fmt"
	"strings"
	"time"
)

// BuildExport produces the one externally persisted shape. Everything in it
// is strings, numbers, booleans, lists, or string-keyed mappings, so it
// round-trips through JSON without loss.
func BuildExport(state PipelineState) Export {
	return Export{
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
		Competitors:    state.Competitors,
		Strategy:       state.Strategy,
		FeatureMatrix:  state.FeatureMatrix,
		Visualizations: state.Visualizations,
	}
}

func BuildReportMarkdown(state PipelineState) string {
	var b strings.Builder
	buildHeader(&b, state)
	if state.Error != "" {
		fmt.Fprintf(&b, "## Run Aborted\n\n%s\n", state.Error)
		return b.String()
	}
	buildCompetitorSection(&b, state)
	buildStrategySection(&b, state)
	buildGapSection(&b, state)
	return b.String()
}

func buildHeader(b *strings.Builder, state PipelineState) {
	fmt.Fprintf(b, "# Competitive Positioning Report\n\n")
	fmt.Fprintf(b, "- Startup idea: %s\n", state.StartupIdea)
	fmt.Fprintf(b, "- Date: %s\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(b, "- Competitors found: %d\n\n", len(state.Competitors))
}

func buildCompetitorSection(b *strings.Builder, state PipelineState) {
	fmt.Fprintf(b, "## Competitors\n\n")
	if len(state.Competitors) == 0 {
		fmt.Fprintf(b, "No competitors were discovered for this idea.\n\n")
		return
	}
	for _, comp := range state.Competitors {
		fmt.Fprintf(b, "### %s\n\n", comp.Name)
		fmt.Fprintf(b, "- Website: %s\n", comp.Website)
		fmt.Fprintf(b, "- Source: %s\n", comp.Platform)
		fmt.Fprintf(b, "- Pricing: %s\n", comp.PricingModel)
		fmt.Fprintf(b, "- Audience: %s\n", comp.TargetAudience)
		fmt.Fprintf(b, "- USP: %s\n", comp.USP)
		fmt.Fprintf(b, "- Market share: %s\n", comp.MarketShare)
		fmt.Fprintf(b, "\n%s\n\n", comp.Description)
		if len(comp.Features) > 0 {
			fmt.Fprintf(b, "Features:\n\n")
			for _, feature := range comp.Features {
				fmt.Fprintf(b, "- %s\n", feature)
			}
			b.WriteString("\n")
		}
	}
}

func buildStrategySection(b *strings.Builder, state PipelineState) {
	s := state.Strategy
	fmt.Fprintf(b, "## Differentiation Strategy\n\n")

	fmt.Fprintf(b, "### Positioning\n\n")
	fmt.Fprintf(b, "- Market position: %s\n", orUnresolved(s.Positioning.MarketPosition))
	fmt.Fprintf(b, "- Value proposition: %s\n", orUnresolved(s.Positioning.ValueProposition))
	fmt.Fprintf(b, "- Target audience: %s\n", orUnresolved(s.Positioning.TargetAudience))
	fmt.Fprintf(b, "- Brand positioning: %s\n\n", orUnresolved(s.Positioning.BrandPositioning))
	if len(s.Positioning.KeyDifferentiators) > 0 {
		fmt.Fprintf(b, "Key differentiators:\n\n")
		for _, d := range s.Positioning.KeyDifferentiators {
			fmt.Fprintf(b, "- %s\n", d)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(b, "### Whitespace Opportunities\n\n")
	for _, opp := range s.Whitespace {
		fmt.Fprintf(b, "- %s (%s)\n", opp.Description, opp.Type)
	}
	if len(s.Whitespace) == 0 {
		fmt.Fprintf(b, "None identified.\n")
	}
	b.WriteString("\n")

	writeCategoryList(b, "Innovation Areas", s.InnovationAreas)
	writeCategoryList(b, "Pricing Opportunities", s.PricingOpportunities)
	writeCategoryList(b, "Niche Opportunities", s.NicheOpportunities)

	fmt.Fprintf(b, "### Competitive Advantages\n\n")
	for _, adv := range s.CompetitiveAdvantages {
		fmt.Fprintf(b, "- %s (%s)\n", adv.Advantage, adv.Category)
	}
	if len(s.CompetitiveAdvantages) == 0 {
		fmt.Fprintf(b, "None identified.\n")
	}
	b.WriteString("\n")
}

func writeCategoryList(b *strings.Builder, title string, items []CategoryOpportunity) {
	fmt.Fprintf(b, "### %s\n\n", title)
	for _, item := range items {
		fmt.Fprintf(b, "- %s (%s)\n", item.Opportunity, item.Category)
	}
	if len(items) == 0 {
		fmt.Fprintf(b, "None identified.\n")
	}
	b.WriteString("\n")
}

func buildGapSection(b *strings.Builder, state PipelineState) {
	gaps := state.Visualizations.FeatureGapMap.Data.Gaps
	fmt.Fprintf(b, "## Feature Gaps\n\n")
	if len(gaps) == 0 {
		fmt.Fprintf(b, "No feature gaps detected.\n")
		return
	}
	for _, gap := range gaps {
		switch gap.Type {
		case GapComplete:
			fmt.Fprintf(b, "- **%s** (%s): no competitor offers this\n", gap.Feature, gap.Category)
		case GapPartial:
			fmt.Fprintf(b, "- **%s** (%s): only %s\n", gap.Feature, gap.Category, strings.Join(gap.CompetitorsWithFeature, ", "))
		}
	}
}

func orUnresolved(v string) string {
	if strings.TrimSpace(v) == "" {
		return Unresolved
	}
	return v
}
