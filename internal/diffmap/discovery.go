package diffmap

import (
	"context"
	"fmt"
	"log"
	"strings"

	"golang.org/x/sync/errgroup"
)

// SimilarityStore is the similarity-search capability used during competitor
// enrichment. Returned records share the Competitor shape; fields the store
// does not know carry the unresolved sentinel (or "N/A" from older records).
type SimilarityStore interface {
	SimilarQuery(ctx context.Context, key string, k int) ([]Competitor, error)
}

const defaultEnrichConcurrency = 4

// DiscoveryStage discovers competitors for a startup idea via platform-scoped
// web searches and enriches them from the similarity store and one completion
// call per competitor. Every sub-query failure degrades to partial results;
// only context cancellation aborts the stage.
type DiscoveryStage struct {
	search      Searcher
	llm         *completer
	store       SimilarityStore
	concurrency int
}

func NewDiscoveryStage(search Searcher, caller LLMCaller, store SimilarityStore) *DiscoveryStage {
	var c *completer
	if caller != nil {
		c = newCompleter(caller)
	}
	return &DiscoveryStage{search: search, llm: c, store: store, concurrency: defaultEnrichConcurrency}
}

func (d *DiscoveryStage) Discover(ctx context.Context, idea string) ([]Competitor, error) {
	competitors := []Competitor{}
	seen := map[string]struct{}{}

	collect := func(results []SearchResult, platform string) {
		for _, hit := range results {
			comp, ok := extractCompetitor(hit, platform)
			if !ok {
				continue
			}
			key := NormalizeName(comp.Name)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			competitors = append(competitors, comp)
		}
	}

	for _, platform := range DiscoveryPlatforms {
		if err := ctx.Err(); err != nil {
			return competitors, err
		}
		query := fmt.Sprintf("%s site:%s", idea, platform.BaseURL)
		results, err := d.search.Search(ctx, query)
		if err != nil {
			log.Printf("diffmapper warning search_failed platform=%s err=%q", platform.Name, err.Error())
			continue
		}
		collect(results, platform.Name)
	}

	if len(competitors) == 0 {
		results, err := d.search.Search(ctx, fmt.Sprintf("top %s competitors alternatives", idea))
		if err != nil {
			log.Printf("diffmapper warning broad_search_failed err=%q", err.Error())
		} else {
			collect(results, "general")
		}
	}

	if err := d.enrichAll(ctx, competitors, idea); err != nil {
		return competitors, err
	}
	for i := range competitors {
		finalizeCompetitor(&competitors[i])
	}
	return competitors, nil
}

func extractCompetitor(hit SearchResult, platform string) (Competitor, bool) {
	if blockedURL(hit.URL) {
		return Competitor{}, false
	}
	names := ExtractCompetitorNames(hit.Title, hit.Content)
	if len(names) == 0 {
		return Competitor{}, false
	}
	website := hit.URL
	if website == "" {
		website = Unresolved
	}
	return Competitor{
		Name:              names[0],
		Website:           website,
		Description:       clampDescription(hit.Content),
		Platform:          platform,
		Features:          []string{},
		PricingModel:      Unresolved,
		TargetAudience:    Unresolved,
		USP:               Unresolved,
		MarketShare:       Unresolved,
		FundingStatus:     Unresolved,
		UserRating:        Unresolved,
		FeatureCategories: map[string][]string{},
	}, true
}

func (d *DiscoveryStage) enrichAll(ctx context.Context, competitors []Competitor, idea string) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.concurrency)
	for i := range competitors {
		comp := &competitors[i]
		g.Go(func() error {
			d.enrich(gctx, comp, idea)
			return gctx.Err()
		})
	}
	return g.Wait()
}

// enrich fills unresolved fields, first from the similarity store, then with
// one completion asking for exactly the still-missing fields. All failures
// here are swallowed; the fields stay unresolved.
func (d *DiscoveryStage) enrich(ctx context.Context, comp *Competitor, idea string) {
	if d.store != nil {
		records, err := d.store.SimilarQuery(ctx, comp.Name, DefaultSimilarityK)
		if err != nil {
			log.Printf("diffmapper warning similarity_query_failed competitor=%q err=%q", comp.Name, err.Error())
		} else {
			for _, rec := range records {
				mergeRecord(comp, rec)
			}
		}
	}
	if d.llm == nil {
		return
	}
	missing := missingFields(comp)
	if len(missing) == 0 {
		return
	}
	prompt := fmt.Sprintf(`Based on the following information about %s, generate realistic and plausible information for the missing fields: %s.

Company Information:
%s

Startup Idea: %s

Please generate information that would be realistic for this type of company. Return the response in JSON format with only the missing fields.`,
		comp.Name, strings.Join(missing, ", "), mustJSON(comp), idea)

	raw, err := d.llm.complete(ctx, "enrich:"+comp.Name, prompt)
	if err != nil {
		log.Printf("diffmapper warning enrich_completion_failed competitor=%q err=%q", comp.Name, err.Error())
		return
	}
	parsed, err := ExtractJSONObject(raw)
	if err != nil {
		log.Printf("diffmapper warning enrich_parse_failed competitor=%q err=%q", comp.Name, err.Error())
		return
	}
	applyGenerated(comp, missing, parsed)
}

type stringField struct {
	key string
	get func(*Competitor) string
	set func(*Competitor, string)
}

// enrichableStringFields lists the free-text fields eligible for enrichment,
// in the order they are reported as missing.
var enrichableStringFields = []stringField{
	{"website", func(c *Competitor) string { return c.Website }, func(c *Competitor, v string) { c.Website = v }},
	{"description", func(c *Competitor) string { return c.Description }, func(c *Competitor, v string) { c.Description = v }},
	{"pricing_model", func(c *Competitor) string { return c.PricingModel }, func(c *Competitor, v string) { c.PricingModel = v }},
	{"target_audience", func(c *Competitor) string { return c.TargetAudience }, func(c *Competitor, v string) { c.TargetAudience = v }},
	{"usp", func(c *Competitor) string { return c.USP }, func(c *Competitor, v string) { c.USP = v }},
	{"market_share", func(c *Competitor) string { return c.MarketShare }, func(c *Competitor, v string) { c.MarketShare = v }},
	{"funding_status", func(c *Competitor) string { return c.FundingStatus }, func(c *Competitor, v string) { c.FundingStatus = v }},
	{"user_rating", func(c *Competitor) string { return c.UserRating }, func(c *Competitor, v string) { c.UserRating = v }},
}

// isUnresolved treats the sentinel, the transient "N/A" marker, and the empty
// string as "still needs enrichment".
func isUnresolved(v string) bool {
	v = strings.TrimSpace(v)
	return v == "" || v == "N/A" || v == Unresolved
}

// mergeRecord copies into comp every record field whose current value is
// unresolved. Name and platform are provenance and never merged.
func mergeRecord(comp *Competitor, rec Competitor) {
	for _, f := range enrichableStringFields {
		if isUnresolved(f.get(comp)) && !isUnresolved(f.get(&rec)) {
			f.set(comp, f.get(&rec))
		}
	}
	if len(comp.Features) == 0 && len(rec.Features) > 0 {
		comp.Features = dedupeStrings(rec.Features)
	}
	if len(comp.FeatureCategories) == 0 && len(rec.FeatureCategories) > 0 {
		comp.FeatureCategories = rec.FeatureCategories
	}
}

func missingFields(comp *Competitor) []string {
	var missing []string
	for _, f := range enrichableStringFields {
		if isUnresolved(f.get(comp)) {
			missing = append(missing, f.key)
		}
	}
	if len(comp.Features) == 0 {
		missing = append(missing, "features")
	}
	if len(comp.FeatureCategories) == 0 {
		missing = append(missing, "feature_categories")
	}
	return missing
}

// applyGenerated fills only the requested fields from a parsed completion.
func applyGenerated(comp *Competitor, requested []string, parsed map[string]any) {
	for _, key := range requested {
		v, ok := parsed[key]
		if !ok {
			continue
		}
		switch key {
		case "features":
			if features := asStringSlice(v); len(features) > 0 {
				comp.Features = dedupeStrings(features)
			}
		case "feature_categories":
			if cats := asCategoryMap(v); len(cats) > 0 {
				comp.FeatureCategories = cats
			}
		default:
			text := asText(v)
			if text == "" {
				continue
			}
			for _, f := range enrichableStringFields {
				if f.key == key {
					f.set(comp, text)
					break
				}
			}
		}
	}
}

func asCategoryMap(v any) map[string][]string {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	out := map[string][]string{}
	for category, features := range m {
		out[category] = asStringSlice(features)
	}
	return out
}

func dedupeStrings(in []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// finalizeCompetitor normalizes transient markers so "N/A" never reaches
// final output.
func finalizeCompetitor(comp *Competitor) {
	for _, f := range enrichableStringFields {
		if isUnresolved(f.get(comp)) {
			f.set(comp, Unresolved)
		}
	}
	if comp.Features == nil {
		comp.Features = []string{}
	}
	if comp.FeatureCategories == nil {
		comp.FeatureCategories = map[string][]string{}
	}
}
