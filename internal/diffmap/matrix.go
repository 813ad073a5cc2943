package diffmap

import (
	"context"
	"fmt"
	"log"
	"strings"
)

// MatrixStage aggregates competitor features into the categorized feature
// matrix. Build never aborts on a categorization failure; it returns the
// partially-built matrix instead.
type MatrixStage struct {
	llm *completer
}

func NewMatrixStage(caller LLMCaller) *MatrixStage {
	var c *completer
	if caller != nil {
		c = newCompleter(caller)
	}
	return &MatrixStage{llm: c}
}

func (m *MatrixStage) Build(ctx context.Context, competitors []Competitor) (FeatureMatrix, error) {
	matrix := emptyMatrix()

	var allFeatures []string
	seen := map[string]struct{}{}
	for _, comp := range competitors {
		for _, feature := range comp.Features {
			if _, ok := seen[feature]; ok {
				continue
			}
			seen[feature] = struct{}{}
			allFeatures = append(allFeatures, feature)
		}
		matrix.PricingComparison[comp.Name] = comp.PricingModel
		matrix.AudienceSegments[comp.Name] = comp.TargetAudience
		matrix.USPs[comp.Name] = comp.USP
	}

	if err := m.categorize(ctx, allFeatures, matrix.Features); err != nil {
		if ctx.Err() != nil {
			return matrix, ctx.Err()
		}
		log.Printf("diffmapper warning categorize_failed err=%q", err.Error())
	}

	matrix.FeatureComparison = buildComparison(competitors, matrix.Features)
	return matrix, nil
}

// emptyMatrix returns a matrix with all seven category keys present and every
// container initialized, so empty input still yields the full shape.
func emptyMatrix() FeatureMatrix {
	features := make(map[string][]string, len(FeatureCategories))
	for _, category := range FeatureCategories {
		features[category] = []string{}
	}
	return FeatureMatrix{
		Features:          features,
		PricingComparison: map[string]string{},
		AudienceSegments:  map[string]string{},
		USPs:              map[string]string{},
		FeatureComparison: FeatureComparison{
			ByCategory:   map[string]map[string][]string{},
			ByCompetitor: map[string]map[string][]string{},
		},
	}
}

// categorize asks for a category→features mapping in a single completion and
// overwrites only categories in the fixed set; unknown labels from the
// response are silently dropped.
func (m *MatrixStage) categorize(ctx context.Context, features []string, categorized map[string][]string) error {
	if m.llm == nil || len(features) == 0 {
		return nil
	}
	prompt := fmt.Sprintf(`Categorize the following features into these categories: %s

Features to categorize:
%s

Return the response in JSON format with categories as keys and lists of features as values.`,
		strings.Join(FeatureCategories, ", "), mustJSON(features))

	raw, err := m.llm.complete(ctx, "categorize_features", prompt)
	if err != nil {
		return err
	}
	parsed, err := ExtractJSONObject(raw)
	if err != nil {
		return err
	}
	for category, v := range parsed {
		if _, known := categorized[category]; !known {
			continue
		}
		features := asStringSlice(v)
		if features == nil {
			features = []string{}
		}
		categorized[category] = features
	}
	return nil
}

// buildComparison derives the two projections of the (competitor, category,
// feature) relation. Feature names match by exact string equality; a feature
// the categorization call renamed simply matches no competitor.
func buildComparison(competitors []Competitor, categorized map[string][]string) FeatureComparison {
	cmp := FeatureComparison{
		ByCategory:   map[string]map[string][]string{},
		ByCompetitor: map[string]map[string][]string{},
	}

	for _, category := range FeatureCategories {
		cmp.ByCategory[category] = map[string][]string{}
		for _, feature := range categorized[category] {
			holders := []string{}
			for _, comp := range competitors {
				if hasFeature(comp, feature) {
					holders = append(holders, comp.Name)
				}
			}
			cmp.ByCategory[category][feature] = holders
		}
	}

	for _, comp := range competitors {
		byCat := map[string][]string{}
		for _, category := range FeatureCategories {
			held := []string{}
			for _, feature := range categorized[category] {
				if hasFeature(comp, feature) {
					held = append(held, feature)
				}
			}
			byCat[category] = held
		}
		cmp.ByCompetitor[comp.Name] = byCat
	}
	return cmp
}

func hasFeature(comp Competitor, feature string) bool {
	for _, f := range comp.Features {
		if f == feature {
			return true
		}
	}
	return false
}
