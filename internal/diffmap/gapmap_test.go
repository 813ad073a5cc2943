package diffmap

import (
	"reflect"
	"testing"
)

func TestBuildFeatureGapMapThresholds(t *testing.T) {
	competitors := []Competitor{
		{Name: "A", Features: []string{"Shared", "Common", "Majority"}},
		{Name: "B", Features: []string{"Common", "Majority"}},
		{Name: "C", Features: []string{"Majority"}},
		{Name: "D", Features: []string{"Rare"}},
	}
	matrix := FeatureMatrix{Features: map[string][]string{
		"Core Features": {"Missing", "Rare", "Common", "Majority"},
	}}

	gapMap := buildFeatureGapMap(competitors, matrix)
	gaps := map[string]GapEntry{}
	for _, gap := range gapMap.Data.Gaps {
		gaps[gap.Feature] = gap
	}

	// 0 of 4 holders: complete gap.
	if gaps["Missing"].Type != GapComplete {
		t.Errorf("Missing = %+v", gaps["Missing"])
	}
	// 1 of 4 holders: partial gap, holders listed.
	rare, ok := gaps["Rare"]
	if !ok || rare.Type != GapPartial {
		t.Fatalf("Rare = %+v", rare)
	}
	if !reflect.DeepEqual(rare.CompetitorsWithFeature, []string{"D"}) {
		t.Errorf("Rare holders = %v", rare.CompetitorsWithFeature)
	}
	// 2 of 4 holders: exactly half is not a gap.
	if _, ok := gaps["Common"]; ok {
		t.Error("Common held by exactly half must not be a gap")
	}
	// 3 of 4 holders: no gap.
	if _, ok := gaps["Majority"]; ok {
		t.Error("Majority must not be a gap")
	}
}

func TestBuildFeatureGapMapCategoriesOrdered(t *testing.T) {
	gapMap := buildFeatureGapMap(nil, FeatureMatrix{Features: map[string][]string{}})
	if !reflect.DeepEqual(gapMap.Data.Categories, FeatureCategories) {
		t.Errorf("categories = %v", gapMap.Data.Categories)
	}
	if gapMap.Data.Features == nil || gapMap.Data.Gaps == nil {
		t.Error("lists must be empty, not nil")
	}
}

func TestBuildOpportunityMap(t *testing.T) {
	strategy := Strategy{
		Whitespace: []WhitespaceOpportunity{
			{Type: "feature_gap", Description: "No offline mode"},
			{Type: "market_gap", Description: "   "},
		},
		InnovationAreas: []CategoryOpportunity{
			{Category: "Technical Innovation", Opportunity: "On-device inference"},
			{Category: "", Opportunity: "Something uncategorized"},
		},
		NicheOpportunities: []CategoryOpportunity{
			{Category: "Underserved Segments", Opportunity: "Field technicians"},
		},
	}

	m := buildOpportunityMap(strategy)
	if len(m.Data.Opportunities) != 4 {
		t.Fatalf("opportunities = %v", m.Data.Opportunities)
	}
	if m.Data.Opportunities[0].Type != "feature_gap" || m.Data.Opportunities[0].Category != "whitespace" {
		t.Errorf("first opportunity = %+v", m.Data.Opportunities[0])
	}
	if m.Data.Opportunities[1].Category != "Technical Innovation" || m.Data.Opportunities[1].Type != "innovation" {
		t.Errorf("second opportunity = %+v", m.Data.Opportunities[1])
	}
	want := []string{"Technical Innovation", "Uncategorized", "Underserved Segments", "whitespace"}
	if !reflect.DeepEqual(m.Data.Categories, want) {
		t.Errorf("categories = %v, want %v", m.Data.Categories, want)
	}
}

func TestBuildOpportunityMapDefaultsCategory(t *testing.T) {
	strategy := Strategy{
		InnovationAreas: []CategoryOpportunity{{Category: "", Opportunity: "Idea"}},
	}
	m := buildOpportunityMap(strategy)
	if len(m.Data.Opportunities) != 1 || m.Data.Opportunities[0].Category != "Uncategorized" {
		t.Fatalf("opportunities = %v", m.Data.Opportunities)
	}
}

func TestBuildLandscape(t *testing.T) {
	competitors := []Competitor{{
		Name:           "Acme",
		Website:        "https://acme.io",
		Description:    "Does things",
		USP:            "Fast",
		MarketShare:    "roughly 35% of the market",
		PricingModel:   "$199/month",
		TargetAudience: "Enterprise IT departments",
		Features:       []string{"A", "B", "C"},
	}}

	landscape := buildLandscape(competitors)
	if !reflect.DeepEqual(landscape.Data.Dimensions, []string{"market_share", "feature_richness", "pricing", "target_audience"}) {
		t.Errorf("dimensions = %v", landscape.Data.Dimensions)
	}
	point := landscape.Data.Competitors[0]
	if point.Position.MarketShare != 0.35 {
		t.Errorf("market share = %v", point.Position.MarketShare)
	}
	if point.Position.Pricing != 199.0 {
		t.Errorf("pricing = %v", point.Position.Pricing)
	}
	if point.Position.FeatureRichness != 3 {
		t.Errorf("feature richness = %d", point.Position.FeatureRichness)
	}
	if point.Position.TargetAudience != AudienceEnterprise {
		t.Errorf("audience = %q", point.Position.TargetAudience)
	}
	if point.Metadata.Website != "https://acme.io" || point.Metadata.USP != "Fast" {
		t.Errorf("metadata = %+v", point.Metadata)
	}
}

func TestBuildInnovationRadar(t *testing.T) {
	strategy := Strategy{InnovationAreas: []CategoryOpportunity{
		{Category: "Technical Innovation", Opportunity: "A breakthrough approach to sync"},
		{Category: "Feature Innovation", Opportunity: "A significant upgrade to search"},
		{Category: "Technical Innovation", Opportunity: "Minor tweak"},
	}}

	radar := buildInnovationRadar(strategy)
	if len(radar.Data.Innovations) != 3 {
		t.Fatalf("innovations = %v", radar.Data.Innovations)
	}
	if radar.Data.Innovations[0].Impact != ImpactHigh {
		t.Errorf("impact = %q", radar.Data.Innovations[0].Impact)
	}
	if radar.Data.Innovations[1].Impact != ImpactMedium {
		t.Errorf("impact = %q", radar.Data.Innovations[1].Impact)
	}
	if radar.Data.Innovations[2].Impact != ImpactLow {
		t.Errorf("impact = %q", radar.Data.Innovations[2].Impact)
	}
	if !reflect.DeepEqual(radar.Data.Categories, []string{"Feature Innovation", "Technical Innovation"}) {
		t.Errorf("categories = %v", radar.Data.Categories)
	}
}

func TestNormalizeMarketShare(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"35%", 0.35},
		{"around 12.5 percent", 0.125},
		{"unknown", 0.0},
		{"", 0.0},
	}
	for _, tc := range cases {
		if got := NormalizeMarketShare(tc.in); got != tc.want {
			t.Errorf("NormalizeMarketShare(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestNormalizePricing(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"$199/month", 199.0},
		{"49.99 per seat", 49.99},
		{"Free", 0.0},
		{"Contact sales", 0.0},
	}
	for _, tc := range cases {
		if got := NormalizePricing(tc.in); got != tc.want {
			t.Errorf("NormalizePricing(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestCategorizeAudience(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Enterprise IT", AudienceEnterprise},
		{"Large corporations", AudienceEnterprise},
		{"small and medium businesses", AudienceSMB},
		{"startups", AudienceSMB},
		{"individual creators", AudienceConsumer},
		{"government agencies", AudienceOther},
		{"", AudienceOther},
	}
	for _, tc := range cases {
		if got := CategorizeAudience(tc.in); got != tc.want {
			t.Errorf("CategorizeAudience(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestAssessInnovationImpact(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"A revolutionary take on scheduling", ImpactHigh},
		{"Transformative pricing", ImpactHigh},
		{"A major improvement", ImpactMedium},
		{"A nice-to-have", ImpactLow},
	}
	for _, tc := range cases {
		if got := AssessInnovationImpact(tc.in); got != tc.want {
			t.Errorf("AssessInnovationImpact(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestMapVisualizationsEmptyInputs(t *testing.T) {
	bundle := MapVisualizations(nil, FeatureMatrix{Features: map[string][]string{}}, Strategy{})
	if bundle.FeatureGapMap.Type != "feature_gap_map" {
		t.Errorf("type = %q", bundle.FeatureGapMap.Type)
	}
	if bundle.MarketOpportunityMap.Data.Opportunities == nil {
		t.Error("opportunities must be an empty list")
	}
	if bundle.CompetitiveLandscape.Data.Competitors == nil {
		t.Error("landscape competitors must be an empty list")
	}
	if bundle.InnovationRadar.Data.Innovations == nil {
		t.Error("radar innovations must be an empty list")
	}
}
