// Package companystore persists competitor records between analysis runs and
// serves similarity lookups during enrichment. Records written back after one
// run fill unresolved fields on later runs that rediscover the same company.
package companystore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/joelkehle/diffmapper/internal/diffmap"
)

const schema = `
CREATE TABLE IF NOT EXISTS companies (
	name               TEXT PRIMARY KEY,
	website            TEXT NOT NULL DEFAULT '',
	description        TEXT NOT NULL DEFAULT '',
	platform           TEXT NOT NULL DEFAULT '',
	features           TEXT NOT NULL DEFAULT '[]',
	pricing_model      TEXT NOT NULL DEFAULT '',
	target_audience    TEXT NOT NULL DEFAULT '',
	usp                TEXT NOT NULL DEFAULT '',
	market_share       TEXT NOT NULL DEFAULT '',
	funding_status     TEXT NOT NULL DEFAULT '',
	user_rating        TEXT NOT NULL DEFAULT '',
	feature_categories TEXT NOT NULL DEFAULT '{}',
	updated_at         TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_companies_name_nocase ON companies (name COLLATE NOCASE);
`

type Store struct {
	db *sqlx.DB
}

func Open(dbPath string) (*Store, error) {
	db, err := sqlx.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

type companyRow struct {
	Name              string `db:"name"`
	Website           string `db:"website"`
	Description       string `db:"description"`
	Platform          string `db:"platform"`
	Features          string `db:"features"`
	PricingModel      string `db:"pricing_model"`
	TargetAudience    string `db:"target_audience"`
	USP               string `db:"usp"`
	MarketShare       string `db:"market_share"`
	FundingStatus     string `db:"funding_status"`
	UserRating        string `db:"user_rating"`
	FeatureCategories string `db:"feature_categories"`
}

// SimilarQuery returns up to k stored records whose names resemble the key.
// Exact-name matches sort first, then case-insensitive substring matches.
func (s *Store) SimilarQuery(ctx context.Context, key string, k int) ([]diffmap.Competitor, error) {
	key = strings.TrimSpace(key)
	if key == "" || k <= 0 {
		return nil, nil
	}
	const q = `
SELECT name, website, description, platform, features, pricing_model,
       target_audience, usp, market_share, funding_status, user_rating, feature_categories
FROM companies
WHERE name = ? OR name LIKE ? COLLATE NOCASE
ORDER BY (name = ?) DESC, name ASC
LIMIT ?`
	var rows []companyRow
	if err := s.db.SelectContext(ctx, &rows, q, key, "%"+key+"%", key, k); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("similar query: %w", err)
	}
	out := make([]diffmap.Competitor, 0, len(rows))
	for _, row := range rows {
		out = append(out, rowToCompetitor(row))
	}
	return out, nil
}

// Upsert writes one competitor record through to SQLite, overwriting any
// existing record with the same name.
func (s *Store) Upsert(ctx context.Context, comp diffmap.Competitor) error {
	name := strings.TrimSpace(comp.Name)
	if name == "" {
		return errors.New("competitor name is required")
	}
	features, err := json.Marshal(comp.Features)
	if err != nil {
		return fmt.Errorf("marshal features: %w", err)
	}
	categories, err := json.Marshal(comp.FeatureCategories)
	if err != nil {
		return fmt.Errorf("marshal feature categories: %w", err)
	}
	const q = `
INSERT INTO companies (name, website, description, platform, features, pricing_model,
	target_audience, usp, market_share, funding_status, user_rating, feature_categories, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, datetime('now'))
ON CONFLICT(name) DO UPDATE SET
	website = excluded.website,
	description = excluded.description,
	platform = excluded.platform,
	features = excluded.features,
	pricing_model = excluded.pricing_model,
	target_audience = excluded.target_audience,
	usp = excluded.usp,
	market_share = excluded.market_share,
	funding_status = excluded.funding_status,
	user_rating = excluded.user_rating,
	feature_categories = excluded.feature_categories,
	updated_at = datetime('now')`
	_, err = s.db.ExecContext(ctx, q,
		name, comp.Website, comp.Description, comp.Platform, string(features),
		comp.PricingModel, comp.TargetAudience, comp.USP, comp.MarketShare,
		comp.FundingStatus, comp.UserRating, string(categories))
	if err != nil {
		return fmt.Errorf("upsert company: %w", err)
	}
	return nil
}

// UpsertAll records every competitor from a completed run.
func (s *Store) UpsertAll(ctx context.Context, competitors []diffmap.Competitor) error {
	for _, comp := range competitors {
		if err := s.Upsert(ctx, comp); err != nil {
			return err
		}
	}
	return nil
}

func rowToCompetitor(row companyRow) diffmap.Competitor {
	comp := diffmap.Competitor{
		Name:              row.Name,
		Website:           row.Website,
		Description:       row.Description,
		Platform:          row.Platform,
		Features:          []string{},
		PricingModel:      row.PricingModel,
		TargetAudience:    row.TargetAudience,
		USP:               row.USP,
		MarketShare:       row.MarketShare,
		FundingStatus:     row.FundingStatus,
		UserRating:        row.UserRating,
		FeatureCategories: map[string][]string{},
	}
	// Stored JSON may predate the current schema; bad blobs degrade to empty.
	var features []string
	if err := json.Unmarshal([]byte(row.Features), &features); err == nil && features != nil {
		comp.Features = features
	}
	var categories map[string][]string
	if err := json.Unmarshal([]byte(row.FeatureCategories), &categories); err == nil && categories != nil {
		comp.FeatureCategories = categories
	}
	return comp
}
