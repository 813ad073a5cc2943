package diffmap

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// MapVisualizations derives the four presentation-ready projections from the
// three prior stage outputs. Pure: no provider calls, no new facts.
func MapVisualizations(competitors []Competitor, matrix FeatureMatrix, strategy Strategy) VisualizationBundle {
	return VisualizationBundle{
		FeatureGapMap:        buildFeatureGapMap(competitors, matrix),
		MarketOpportunityMap: buildOpportunityMap(strategy),
		CompetitiveLandscape: buildLandscape(competitors),
		InnovationRadar:      buildInnovationRadar(strategy),
	}
}

func buildFeatureGapMap(competitors []Competitor, matrix FeatureMatrix) FeatureGapMap {
	gapMap := FeatureGapMap{
		Type: "feature_gap_map",
		Data: FeatureGapData{Categories: []string{}, Features: []GapFeature{}, Gaps: []GapEntry{}},
	}

	for _, category := range FeatureCategories {
		gapMap.Data.Categories = append(gapMap.Data.Categories, category)
		for _, feature := range matrix.Features[category] {
			holders := []string{}
			for _, comp := range competitors {
				if hasFeature(comp, feature) {
					holders = append(holders, comp.Name)
				}
			}
			gapMap.Data.Features = append(gapMap.Data.Features, GapFeature{Name: feature, Category: category, Competitors: holders})
		}
	}

	// A feature held by fewer than half of all competitors is a partial gap;
	// strict less-than with real division, so 1 of 4 is partial, 2 of 4 is not.
	half := float64(len(competitors)) / 2.0
	for _, feature := range gapMap.Data.Features {
		switch {
		case len(feature.Competitors) == 0:
			gapMap.Data.Gaps = append(gapMap.Data.Gaps, GapEntry{Feature: feature.Name, Category: feature.Category, Type: GapComplete})
		case float64(len(feature.Competitors)) < half:
			gapMap.Data.Gaps = append(gapMap.Data.Gaps, GapEntry{Feature: feature.Name, Category: feature.Category, Type: GapPartial, CompetitorsWithFeature: feature.Competitors})
		}
	}
	return gapMap
}

// buildOpportunityMap flattens the three strategy opportunity lists into one
// uniform record shape. Entries without a description are dropped; a missing
// category defaults to "Uncategorized".
func buildOpportunityMap(strategy Strategy) MarketOpportunityMap {
	m := MarketOpportunityMap{
		Type: "market_opportunity_map",
		Data: OpportunityMapData{Opportunities: []OpportunityPoint{}, Categories: []string{}},
	}

	add := func(kind, description, category string) {
		if strings.TrimSpace(description) == "" {
			return
		}
		if strings.TrimSpace(category) == "" {
			category = "Uncategorized"
		}
		m.Data.Opportunities = append(m.Data.Opportunities, OpportunityPoint{Type: kind, Description: description, Category: category})
	}

	for _, opp := range strategy.Whitespace {
		add(opp.Type, opp.Description, "whitespace")
	}
	for _, opp := range strategy.InnovationAreas {
		add("innovation", opp.Opportunity, opp.Category)
	}
	for _, opp := range strategy.NicheOpportunities {
		add("niche", opp.Opportunity, opp.Category)
	}

	categories := make([]string, 0, len(m.Data.Opportunities))
	for _, opp := range m.Data.Opportunities {
		categories = append(categories, opp.Category)
	}
	m.Data.Categories = uniqueSorted(categories)
	return m
}

func buildLandscape(competitors []Competitor) CompetitiveLandscape {
	landscape := CompetitiveLandscape{
		Type: "competitive_landscape",
		Data: LandscapeData{
			Competitors: []LandscapePoint{},
			Dimensions:  []string{"market_share", "feature_richness", "pricing", "target_audience"},
		},
	}
	for _, comp := range competitors {
		landscape.Data.Competitors = append(landscape.Data.Competitors, LandscapePoint{
			Name: comp.Name,
			Position: LandscapePosition{
				MarketShare:     NormalizeMarketShare(comp.MarketShare),
				FeatureRichness: len(comp.Features),
				Pricing:         NormalizePricing(comp.PricingModel),
				TargetAudience:  CategorizeAudience(comp.TargetAudience),
			},
			Metadata: LandscapeMetadata{Website: comp.Website, Description: comp.Description, USP: comp.USP},
		})
	}
	return landscape
}

func buildInnovationRadar(strategy Strategy) InnovationRadar {
	radar := InnovationRadar{
		Type: "innovation_radar",
		Data: RadarData{Categories: []string{}, Innovations: []RadarInnovation{}},
	}
	for _, opp := range strategy.InnovationAreas {
		radar.Data.Innovations = append(radar.Data.Innovations, RadarInnovation{
			Category:    opp.Category,
			Description: opp.Opportunity,
			Impact:      AssessInnovationImpact(opp.Opportunity),
		})
	}
	categories := make([]string, 0, len(radar.Data.Innovations))
	for _, innovation := range radar.Data.Innovations {
		categories = append(categories, innovation.Category)
	}
	radar.Data.Categories = uniqueSorted(categories)
	return radar
}

var numberRe = regexp.MustCompile(`(\d+(?:\.\d+)?)`)

// NormalizeMarketShare extracts a percentage-like number from free text and
// scales it to [0,1]. No match means 0.0.
func NormalizeMarketShare(marketShare string) float64 {
	m := numberRe.FindStringSubmatch(marketShare)
	if m == nil {
		return 0.0
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0.0
	}
	return v / 100.0
}

var priceRe = regexp.MustCompile(`\$?(\d+(?:\.\d+)?)`)

// NormalizePricing extracts the first dollar-like number from free text.
// "Free" and anything else without a number yield 0.0.
func NormalizePricing(pricing string) float64 {
	m := priceRe.FindStringSubmatch(pricing)
	if m == nil {
		return 0.0
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0.0
	}
	return v
}

var audienceBuckets = []struct {
	bucket   string
	keywords []string
}{
	{AudienceEnterprise, []string{"enterprise", "large", "corporation"}},
	{AudienceSMB, []string{"small", "medium", "sme", "startup"}},
	{AudienceConsumer, []string{"individual", "personal", "consumer"}},
}

// CategorizeAudience buckets a free-text audience description. First matching
// bucket wins; the test is a case-insensitive substring match.
func CategorizeAudience(audience string) string {
	lower := strings.ToLower(audience)
	for _, b := range audienceBuckets {
		for _, kw := range b.keywords {
			if strings.Contains(lower, kw) {
				return b.bucket
			}
		}
	}
	return AudienceOther
}

var impactClasses = []struct {
	level    string
	keywords []string
}{
	{ImpactHigh, []string{"revolutionary", "breakthrough", "transformative"}},
	{ImpactMedium, []string{"significant", "major", "substantial"}},
}

// AssessInnovationImpact maps an innovation description to an impact level via
// keyword heuristic. First matching keyword class wins.
func AssessInnovationImpact(innovation string) string {
	lower := strings.ToLower(innovation)
	for _, c := range impactClasses {
		for _, kw := range c.keywords {
			if strings.Contains(lower, kw) {
				return c.level
			}
		}
	}
	return ImpactLow
}

func uniqueSorted(all []string) []string {
	seen := map[string]struct{}{}
	out := []string{}
	for _, s := range all {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
