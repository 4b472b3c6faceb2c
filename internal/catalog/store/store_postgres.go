package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"countrycatalog/internal/catalog/models"
	"countrycatalog/pkg/platform/sentinel"
	"countrycatalog/pkg/requestcontext"
)

//go:embed schema.sql
var schemaSQL string

const countryColumns = `id, name, capital, region, population, currency_code, exchange_rate,
	estimated_gdp, flag_url, last_refreshed_at, created_at, updated_at`

var orderClauses = map[models.SortOrder]string{
	models.SortDefault:        "lower(name) ASC, id ASC",
	models.SortNameAsc:        "lower(name) ASC, id ASC",
	models.SortNameDesc:       "lower(name) DESC, id ASC",
	models.SortGDPDesc:        "estimated_gdp DESC NULLS LAST, id ASC",
	models.SortGDPAsc:         "estimated_gdp ASC NULLS LAST, id ASC",
	models.SortPopulationDesc: "population DESC, id ASC",
}

// PostgresStore persists countries in PostgreSQL. Every write is a single
// statement, so each upsert is atomic per record.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgres constructs a PostgreSQL-backed catalog store.
func NewPostgres(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema creates the countries table and its indexes if missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("ensure catalog schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) Upsert(ctx context.Context, country models.Country) (*models.Country, error) {
	now := requestcontext.Now(ctx)
	rows, err := s.pool.Query(ctx, `
		INSERT INTO countries (name, capital, region, population, currency_code, exchange_rate,
			estimated_gdp, flag_url, last_refreshed_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
		ON CONFLICT (name) DO UPDATE SET
			capital = EXCLUDED.capital,
			region = EXCLUDED.region,
			population = EXCLUDED.population,
			currency_code = EXCLUDED.currency_code,
			exchange_rate = EXCLUDED.exchange_rate,
			estimated_gdp = EXCLUDED.estimated_gdp,
			flag_url = EXCLUDED.flag_url,
			last_refreshed_at = EXCLUDED.last_refreshed_at,
			updated_at = EXCLUDED.updated_at
		RETURNING `+countryColumns,
		country.Name, country.Capital, country.Region, country.Population, country.CurrencyCode,
		country.ExchangeRate, country.EstimatedGDP, country.FlagURL, country.LastRefreshedAt, now,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert country %q: %w", country.Name, err)
	}
	stored, err := collectOne(rows)
	if err != nil {
		return nil, fmt.Errorf("upsert country %q: %w", country.Name, err)
	}
	return stored, nil
}

func (s *PostgresStore) FindByName(ctx context.Context, name string) (*models.Country, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+countryColumns+` FROM countries WHERE lower(name) = lower($1) ORDER BY id LIMIT 1`, name)
	if err != nil {
		return nil, fmt.Errorf("find country by name: %w", err)
	}
	return collectOne(rows)
}

func (s *PostgresStore) FindByNameContains(ctx context.Context, substr string) (*models.Country, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+countryColumns+` FROM countries
		WHERE name ILIKE '%' || $1 || '%' ESCAPE '\'
		ORDER BY id LIMIT 1`, escapeLike(substr))
	if err != nil {
		return nil, fmt.Errorf("find country by substring: %w", err)
	}
	return collectOne(rows)
}

func (s *PostgresStore) DeleteByName(ctx context.Context, name string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM countries WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("delete country: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) TopByEstimatedGDP(ctx context.Context, n int) ([]*models.Country, error) {
	if n <= 0 {
		return []*models.Country{}, nil
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+countryColumns+` FROM countries ORDER BY estimated_gdp DESC NULLS LAST, id ASC LIMIT $1`, n)
	if err != nil {
		return nil, fmt.Errorf("top countries by gdp: %w", err)
	}
	return collectAll(rows)
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM countries`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count countries: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) MaxLastRefreshedAt(ctx context.Context) (*time.Time, error) {
	var latest *time.Time
	if err := s.pool.QueryRow(ctx, `SELECT max(last_refreshed_at) FROM countries`).Scan(&latest); err != nil {
		return nil, fmt.Errorf("max last refreshed at: %w", err)
	}
	return latest, nil
}

func (s *PostgresStore) List(ctx context.Context, filter models.ListFilter) ([]*models.Country, error) {
	order, ok := orderClauses[filter.Sort]
	if !ok {
		return nil, fmt.Errorf("unsupported sort %q", filter.Sort)
	}

	var (
		where []string
		args  []any
	)
	if filter.Region != "" {
		args = append(args, filter.Region)
		where = append(where, fmt.Sprintf("lower(region) = lower($%d)", len(args)))
	}
	if filter.Currency != "" {
		args = append(args, filter.Currency)
		where = append(where, fmt.Sprintf("lower(currency_code) = lower($%d)", len(args)))
	}

	query := `SELECT ` + countryColumns + ` FROM countries`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY ` + order

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list countries: %w", err)
	}
	return collectAll(rows)
}

func collectOne(rows pgx.Rows) (*models.Country, error) {
	c, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[models.Country])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func collectAll(rows pgx.Rows) ([]*models.Country, error) {
	list, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[models.Country])
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []*models.Country{}
	}
	return list, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
