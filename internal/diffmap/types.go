package diffmap

// Unresolved is the placeholder for a competitor field whose real value could
// not be determined after every enrichment attempt. The transient "N/A"
// marker used by upstream data sources is normalized to this value and never
// appears in final output.
const Unresolved = "Information not available"

const (
	DefaultLLMModel    = "claude-sonnet-4-20250514"
	DefaultSimilarityK = 3
	MaxIdeaChars       = 4000
)

// FeatureCategories is the closed set of feature-matrix categories. The keys
// of FeatureMatrix.Features are always exactly these seven, in this order.
var FeatureCategories = []string{
	"Core Features",
	"User Experience",
	"Technical Capabilities",
	"Integration Features",
	"Security & Privacy",
	"Analytics & Reporting",
	"Mobile & Remote Access",
}

type Platform struct {
	Name    string
	BaseURL string
}

// DiscoveryPlatforms are queried in order during discovery.
var DiscoveryPlatforms = []Platform{
	{Name: "product_hunt", BaseURL: "https://www.producthunt.com/search?q="},
	{Name: "crunchbase", BaseURL: "https://www.crunchbase.com/search/companies?q="},
	{Name: "g2", BaseURL: "https://www.g2.com/search?q="},
}

// aggregatorBlocklist filters out comparison/review sites; hits whose URL
// contains any of these substrings never become competitors.
var aggregatorBlocklist = []string{"capterra", "softwareworld", "alternatives", "comparison", "review"}

type Competitor struct {
	Name              string              `json:"name"`
	Website           string              `json:"website"`
	Description       string              `json:"description"`
	Platform          string              `json:"platform"`
	Features          []string            `json:"features"`
	PricingModel      string              `json:"pricing_model"`
	TargetAudience    string              `json:"target_audience"`
	USP               string              `json:"usp"`
	MarketShare       string              `json:"market_share"`
	FundingStatus     string              `json:"funding_status"`
	UserRating        string              `json:"user_rating"`
	FeatureCategories map[string][]string `json:"feature_categories"`
}

type FeatureComparison struct {
	ByCategory   map[string]map[string][]string `json:"by_category"`
	ByCompetitor map[string]map[string][]string `json:"by_competitor"`
}

type FeatureMatrix struct {
	Features          map[string][]string `json:"features"`
	PricingComparison map[string]string   `json:"pricing_comparison"`
	AudienceSegments  map[string]string   `json:"audience_segments"`
	USPs              map[string]string   `json:"usps"`
	FeatureComparison FeatureComparison   `json:"feature_comparison"`
}

type WhitespaceOpportunity struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

type CategoryOpportunity struct {
	Category    string `json:"category"`
	Opportunity string `json:"opportunity"`
}

type CompetitiveAdvantage struct {
	Category  string `json:"category"`
	Advantage string `json:"advantage"`
}

type PositioningStrategy struct {
	MarketPosition     string   `json:"market_position"`
	ValueProposition   string   `json:"value_proposition"`
	KeyDifferentiators []string `json:"key_differentiators"`
	TargetAudience     string   `json:"target_audience"`
	BrandPositioning   string   `json:"brand_positioning"`
}

// Strategy holds the six sub-analysis results. Each is produced by an
// independent completion call; a failed sub-analysis leaves its key at the
// empty default and a partial strategy is valid output.
type Strategy struct {
	Whitespace            []WhitespaceOpportunity `json:"whitespace_opportunities"`
	InnovationAreas       []CategoryOpportunity   `json:"innovation_areas"`
	PricingOpportunities  []CategoryOpportunity   `json:"pricing_opportunities"`
	NicheOpportunities    []CategoryOpportunity   `json:"niche_opportunities"`
	Positioning           PositioningStrategy     `json:"positioning_strategy"`
	CompetitiveAdvantages []CompetitiveAdvantage  `json:"competitive_advantages"`
}

const (
	GapComplete = "complete_gap"
	GapPartial  = "partial_gap"
)

type GapFeature struct {
	Name        string   `json:"name"`
	Category    string   `json:"category"`
	Competitors []string `json:"competitors"`
}

type GapEntry struct {
	Feature                string   `json:"feature"`
	Category               string   `json:"category"`
	Type                   string   `json:"type"`
	CompetitorsWithFeature []string `json:"competitors_with_feature,omitempty"`
}

type FeatureGapData struct {
	Categories []string     `json:"categories"`
	Features   []GapFeature `json:"features"`
	Gaps       []GapEntry   `json:"gaps"`
}

type FeatureGapMap struct {
	Type string         `json:"type"`
	Data FeatureGapData `json:"data"`
}

type OpportunityPoint struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

type OpportunityMapData struct {
	Opportunities []OpportunityPoint `json:"opportunities"`
	Categories    []string           `json:"categories"`
}

type MarketOpportunityMap struct {
	Type string             `json:"type"`
	Data OpportunityMapData `json:"data"`
}

const (
	AudienceEnterprise = "Enterprise"
	AudienceSMB        = "SMB"
	AudienceConsumer   = "Consumer"
	AudienceOther      = "Other"
)

type LandscapePosition struct {
	MarketShare     float64 `json:"market_share"`
	FeatureRichness int     `json:"feature_richness"`
	Pricing         float64 `json:"pricing"`
	TargetAudience  string  `json:"target_audience"`
}

type LandscapeMetadata struct {
	Website     string `json:"website"`
	Description string `json:"description"`
	USP         string `json:"usp"`
}

type LandscapePoint struct {
	Name     string            `json:"name"`
	Position LandscapePosition `json:"position"`
	Metadata LandscapeMetadata `json:"metadata"`
}

type LandscapeData struct {
	Competitors []LandscapePoint `json:"competitors"`
	Dimensions  []string         `json:"dimensions"`
}

type CompetitiveLandscape struct {
	Type string        `json:"type"`
	Data LandscapeData `json:"data"`
}

const (
	ImpactHigh   = "High"
	ImpactMedium = "Medium"
	ImpactLow    = "Low"
)

type RadarInnovation struct {
	Category    string `json:"category"`
	Description string `json:"description"`
	Impact      string `json:"impact"`
}

type RadarData struct {
	Categories  []string          `json:"categories"`
	Innovations []RadarInnovation `json:"innovations"`
}

type InnovationRadar struct {
	Type string    `json:"type"`
	Data RadarData `json:"data"`
}

// VisualizationBundle is a pure function of the three prior stage outputs;
// it introduces no new facts, only reshaping and normalization.
type VisualizationBundle struct {
	FeatureGapMap        FeatureGapMap        `json:"feature_gap_map"`
	MarketOpportunityMap MarketOpportunityMap `json:"market_opportunity_map"`
	CompetitiveLandscape CompetitiveLandscape `json:"competitive_landscape"`
	InnovationRadar      InnovationRadar      `json:"innovation_radar"`
}

// PipelineState is the single record threaded through the orchestrator.
// Each stage populates exactly one field; no stage mutates a field owned by
// an earlier stage. Error, once set, stops the run.
type PipelineState struct {
	StartupIdea    string              `json:"startup_idea"`
	Competitors    []Competitor        `json:"competitors"`
	FeatureMatrix  FeatureMatrix       `json:"feature_matrix"`
	Strategy       Strategy            `json:"strategy"`
	Visualizations VisualizationBundle `json:"visualizations"`
	Error          string              `json:"error,omitempty"`
}

// Export is the one externally persisted shape. It must round-trip through
// JSON encode/decode without loss.
type Export struct {
	Timestamp      string              `json:"timestamp"`
	Competitors    []Competitor        `json:"competitors"`
	Strategy       Strategy            `json:"differentiation_strategy"`
	FeatureMatrix  FeatureMatrix       `json:"feature_matrix"`
	Visualizations VisualizationBundle `json:"visualizations"`
}
