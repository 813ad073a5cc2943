package diffmap

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
)

// StrategyStage produces the six-part differentiation strategy. Each
// sub-analysis is one completion call with its own prompt and reshape logic,
// fault-isolated from the other five: a provider failure or malformed JSON
// yields the empty default for that key only.
type StrategyStage struct {
	llm *completer
}

func NewStrategyStage(caller LLMCaller) *StrategyStage {
	var c *completer
	if caller != nil {
		c = newCompleter(caller)
	}
	return &StrategyStage{llm: c}
}

func (s *StrategyStage) Generate(ctx context.Context, idea string, competitors []Competitor, matrix FeatureMatrix) (Strategy, error) {
	strategy := Strategy{
		Whitespace:            []WhitespaceOpportunity{},
		InnovationAreas:       []CategoryOpportunity{},
		PricingOpportunities:  []CategoryOpportunity{},
		NicheOpportunities:    []CategoryOpportunity{},
		CompetitiveAdvantages: []CompetitiveAdvantage{},
	}
	if s.llm == nil {
		return strategy, ctx.Err()
	}

	pricingModels := map[string]string{}
	audiences := map[string]string{}
	for _, comp := range competitors {
		pricingModels[comp.Name] = comp.PricingModel
		audiences[comp.Name] = comp.TargetAudience
	}

	// The six sub-analyses read only the already-frozen competitors and
	// matrix, so they run concurrently and join before the merge.
	var wg sync.WaitGroup
	run := func(fn func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn()
		}()
	}

	run(func() { strategy.Whitespace = s.identifyWhitespace(ctx, matrix) })
	run(func() { strategy.InnovationAreas = s.categoryOpportunities(ctx, "innovation_areas", innovationPrompt(idea, competitors)) })
	run(func() { strategy.PricingOpportunities = s.categoryOpportunities(ctx, "pricing_opportunities", pricingPrompt(pricingModels)) })
	run(func() { strategy.NicheOpportunities = s.categoryOpportunities(ctx, "niche_opportunities", nichePrompt(audiences)) })
	run(func() { strategy.Positioning = s.generatePositioning(ctx, idea, competitors) })
	run(func() { strategy.CompetitiveAdvantages = s.identifyAdvantages(ctx, idea, competitors) })
	wg.Wait()

	return strategy, ctx.Err()
}

// runSub is the shared micro-protocol: one completion, then brace-scanning
// JSON extraction. Callers reshape the parsed mapping themselves.
func (s *StrategyStage) runSub(ctx context.Context, name, prompt string) (map[string]any, bool) {
	raw, err := s.llm.complete(ctx, name, prompt)
	if err != nil {
		log.Printf("diffmapper warning sub_analysis_failed name=%s err=%q", name, err.Error())
		return nil, false
	}
	parsed, err := ExtractJSONObject(raw)
	if err != nil {
		log.Printf("diffmapper warning sub_analysis_parse_failed name=%s err=%q", name, err.Error())
		return nil, false
	}
	return parsed, true
}

func (s *StrategyStage) identifyWhitespace(ctx context.Context, matrix FeatureMatrix) []WhitespaceOpportunity {
	out := []WhitespaceOpportunity{}
	prompt := fmt.Sprintf(`Based on the following competitors and their features, identify potential whitespace opportunities in the market.

Competitors and Features:
%s

Return the response in JSON format with the following structure:
{
    "feature_gaps": ["List of potential feature gaps"],
    "market_gaps": ["List of potential market gaps"],
    "opportunity_areas": ["List of opportunity areas"]
}`, mustJSON(matrix))

	parsed, ok := s.runSub(ctx, "whitespace_opportunities", prompt)
	if !ok {
		return out
	}
	for _, group := range []struct {
		key  string
		kind string
	}{
		{"feature_gaps", "feature_gap"},
		{"market_gaps", "market_gap"},
		{"opportunity_areas", "opportunity"},
	} {
		for _, gap := range asStringSlice(parsed[group.key]) {
			out = append(out, WhitespaceOpportunity{Type: group.kind, Description: gap})
		}
	}
	return out
}

// categoryOpportunities reshapes a category→list response into the flat
// {category, opportunity} record list shared by three sub-analyses.
func (s *StrategyStage) categoryOpportunities(ctx context.Context, name, prompt string) []CategoryOpportunity {
	out := []CategoryOpportunity{}
	parsed, ok := s.runSub(ctx, name, prompt)
	if !ok {
		return out
	}
	for _, category := range sortedKeys(parsed) {
		for _, opp := range asStringSlice(parsed[category]) {
			out = append(out, CategoryOpportunity{Category: category, Opportunity: opp})
		}
	}
	return out
}

func innovationPrompt(idea string, competitors []Competitor) string {
	return fmt.Sprintf(`Based on the startup idea '%s' and these competitors:
%s

Identify potential areas for innovation in the following categories:
1. Technical Innovation
2. Feature Innovation
3. Business Model Innovation
4. User Experience Innovation

Return the response in JSON format with categories as keys and lists of innovation opportunities as values.`, idea, mustJSON(competitors))
}

func pricingPrompt(pricingModels map[string]string) string {
	return fmt.Sprintf(`Based on these competitor pricing models:
%s

Identify potential pricing opportunities and disruptions in the following areas:
1. Pricing Model Innovation
2. Value-Based Pricing Opportunities
3. Market Positioning Opportunities
4. Revenue Model Innovation

Return the response in JSON format with categories as keys and lists of opportunities as values.`, mustJSON(pricingModels))
}

func nichePrompt(audiences map[string]string) string {
	return fmt.Sprintf(`Based on these competitor target audiences:
%s

Identify potential niche market opportunities in the following areas:
1. Underserved Segments
2. Emerging Markets
3. Specialized Use Cases
4. Geographic Opportunities

Return the response in JSON format with categories as keys and lists of opportunities as values.`, mustJSON(audiences))
}

// generatePositioning expects a flat record, so the parsed JSON is merged
// onto a zero-valued default rather than iterated into list items.
func (s *StrategyStage) generatePositioning(ctx context.Context, idea string, competitors []Competitor) PositioningStrategy {
	positioning := PositioningStrategy{KeyDifferentiators: []string{}}
	prompt := fmt.Sprintf(`Based on the startup idea '%s' and these competitors:
%s

Generate a strategic positioning strategy in the following JSON format:
{
    "market_position": "Clear market position statement",
    "value_proposition": "Compelling value proposition",
    "key_differentiators": ["List of key differentiators"],
    "target_audience": "Specific target audience description",
    "brand_positioning": "Brand positioning statement"
}`, idea, mustJSON(competitors))

	parsed, ok := s.runSub(ctx, "positioning_strategy", prompt)
	if !ok {
		return positioning
	}
	if v := asText(parsed["market_position"]); v != "" {
		positioning.MarketPosition = v
	}
	if v := asText(parsed["value_proposition"]); v != "" {
		positioning.ValueProposition = v
	}
	if v := asStringSlice(parsed["key_differentiators"]); len(v) > 0 {
		positioning.KeyDifferentiators = v
	}
	if v := asText(parsed["target_audience"]); v != "" {
		positioning.TargetAudience = v
	}
	if v := asText(parsed["brand_positioning"]); v != "" {
		positioning.BrandPositioning = v
	}
	return positioning
}

func (s *StrategyStage) identifyAdvantages(ctx context.Context, idea string, competitors []Competitor) []CompetitiveAdvantage {
	out := []CompetitiveAdvantage{}
	prompt := fmt.Sprintf(`Based on the startup idea '%s' and these competitors:
%s

Identify potential competitive advantages in the following areas:
1. Technical Advantages
2. Feature Advantages
3. Market Advantages
4. Operational Advantages
5. Strategic Advantages

Return the response in JSON format with categories as keys and lists of advantages as values.`, idea, mustJSON(competitors))

	parsed, ok := s.runSub(ctx, "competitive_advantages", prompt)
	if !ok {
		return out
	}
	for _, category := range sortedKeys(parsed) {
		for _, adv := range asStringSlice(parsed[category]) {
			out = append(out, CompetitiveAdvantage{Category: category, Advantage: adv})
		}
	}
	return out
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
