package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/fuzfriend/products-api/pkg/predicate"
	"github.com/fuzfriend/products-api/pkg/product"
)

// Schema is the table layout PostgresStore reads. Schema management lives
// outside this service; the statement is exported for tests and tooling.
const Schema = `
CREATE TABLE IF NOT EXISTS products (
	id           SERIAL PRIMARY KEY,
	title        TEXT NOT NULL,
	description  TEXT,
	brand        TEXT NOT NULL,
	category     TEXT NOT NULL,
	color        TEXT,
	size         TEXT,
	price        NUMERIC(12,2) NOT NULL DEFAULT 0,
	rating       DOUBLE PRECISION NOT NULL DEFAULT 0,
	on_promotion BOOLEAN NOT NULL DEFAULT FALSE
);
CREATE TABLE IF NOT EXISTS product_image_urls (
	product_id INTEGER NOT NULL REFERENCES products(id) ON DELETE CASCADE,
	image_url  TEXT NOT NULL
);`

var columns = map[predicate.Field]string{
	predicate.FieldID:          "id",
	predicate.FieldTitle:       "title",
	predicate.FieldDescription: "description",
	predicate.FieldBrand:       "brand",
	predicate.FieldCategory:    "category",
	predicate.FieldColour:      "color",
	predicate.FieldSize:        "size",
	predicate.FieldPrice:       "price",
	predicate.FieldRating:      "rating",
	predicate.FieldOnPromotion: "on_promotion",
}

const selectProduct = `SELECT p.id, p.title, COALESCE(p.description, ''), p.brand, p.category,
	COALESCE(p.color, ''), COALESCE(p.size, ''), p.price::text, p.rating, p.on_promotion,
	ARRAY(SELECT u.image_url FROM product_image_urls u WHERE u.product_id = p.id)
FROM products p`

// PostgresStore reads products from PostgreSQL through a pgx pool.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewPostgresStore connects to the database at dsn and verifies the
// connection.
func NewPostgresStore(ctx context.Context, dsn string, logger zerolog.Logger) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &PostgresStore{pool: pool, logger: logger}, nil
}

// Close releases the pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Find implements Store.
func (s *PostgresStore) Find(ctx context.Context, where predicate.Predicate, order Order, offset, limit int) ([]product.Product, error) {
	orderBy, err := orderClause(order)
	if err != nil {
		return nil, err
	}

	var b sqlBuilder
	cond, err := b.compile(where)
	if err != nil {
		return nil, err
	}
	sql := fmt.Sprintf("%s WHERE %s ORDER BY %s OFFSET %s LIMIT %s",
		selectProduct, cond, orderBy, b.arg(max(offset, 0)), b.arg(max(limit, 0)))

	start := time.Now()
	products, err := s.findRows(ctx, sql, b.args)
	s.observe("find", start, err)
	return products, err
}

func (s *PostgresStore) findRows(ctx context.Context, sql string, args []any) ([]product.Product, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	products := []product.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return products, nil
}

// orderClause sorts text columns by code point (COLLATE "C") so that
// PostgresStore and MemoryStore order mixed-case values the same way.
func orderClause(order Order) (string, error) {
	col, ok := columns[order.Field]
	if !ok || order.Field == predicate.FieldDescription || order.Field == predicate.FieldOnPromotion {
		return "", fmt.Errorf("%w: order by %q", ErrUnsupportedPredicate, order.Field)
	}
	expr := "p." + col
	if isTextField(order.Field) {
		expr += ` COLLATE "C"`
	}
	dir := "ASC"
	if order.Descending {
		dir = "DESC"
	}
	return expr + " " + dir + ", p.id ASC", nil
}

// observe logs failed queries at Error and completed ones at Debug.
func (s *PostgresStore) observe(op string, start time.Time, err error) {
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		s.logger.Error().Err(err).Str("store_op", op).Dur("elapsed", time.Since(start)).Msg("Store query failed")
		return
	}
	s.logger.Debug().Str("store_op", op).Dur("elapsed", time.Since(start)).Msg("Store query")
}

// Count implements Store.
func (s *PostgresStore) Count(ctx context.Context, where predicate.Predicate) (int, error) {
	var b sqlBuilder
	cond, err := b.compile(where)
	if err != nil {
		return 0, err
	}

	var n int
	start := time.Now()
	err = s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM products p WHERE "+cond, b.args...).Scan(&n)
	s.observe("count", start, err)
	if err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return n, nil
}

// GroupCount implements Store.
func (s *PostgresStore) GroupCount(ctx context.Context, where predicate.Predicate, field predicate.Field) (map[string]int, error) {
	col, ok := columns[field]
	if !ok || !isTextField(field) {
		return nil, fmt.Errorf("%w: group by %q", ErrUnsupportedPredicate, field)
	}

	var b sqlBuilder
	cond, err := b.compile(where)
	if err != nil {
		return nil, err
	}
	sql := fmt.Sprintf(
		"SELECT p.%[1]s, COUNT(*) FROM products p WHERE %[2]s AND p.%[1]s IS NOT NULL AND p.%[1]s <> '' GROUP BY p.%[1]s",
		col, cond)

	start := time.Now()
	counts, err := s.groupRows(ctx, sql, b.args)
	s.observe("group_count", start, err)
	if err != nil {
		return nil, fmt.Errorf("group products by %s: %w", col, err)
	}
	return counts, nil
}

func (s *PostgresStore) groupRows(ctx context.Context, sql string, args []any) (map[string]int, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			value string
			n     int
		)
		if err := rows.Scan(&value, &n); err != nil {
			return nil, fmt.Errorf("scan group row: %w", err)
		}
		counts[value] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate group rows: %w", err)
	}
	return counts, nil
}

// PriceBounds implements Store.
func (s *PostgresStore) PriceBounds(ctx context.Context, where predicate.Predicate) (decimal.Decimal, decimal.Decimal, error) {
	var b sqlBuilder
	cond, err := b.compile(where)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	var lo, hi string
	sql := "SELECT COALESCE(MIN(p.price), 0)::text, COALESCE(MAX(p.price), 0)::text FROM products p WHERE " + cond
	start := time.Now()
	err = s.pool.QueryRow(ctx, sql, b.args...).Scan(&lo, &hi)
	s.observe("price_bounds", start, err)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("query price bounds: %w", err)
	}

	minPrice, err := decimal.NewFromString(lo)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("parse min price: %w", err)
	}
	maxPrice, err := decimal.NewFromString(hi)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("parse max price: %w", err)
	}
	return minPrice, maxPrice, nil
}

// DistinctRatings implements Store.
func (s *PostgresStore) DistinctRatings(ctx context.Context, where predicate.Predicate) ([]float64, error) {
	var b sqlBuilder
	cond, err := b.compile(where)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	ratings, err := s.ratingRows(ctx, "SELECT DISTINCT p.rating FROM products p WHERE "+cond+" ORDER BY p.rating", b.args)
	s.observe("distinct_ratings", start, err)
	if err != nil {
		return nil, fmt.Errorf("query ratings: %w", err)
	}
	return ratings, nil
}

func (s *PostgresStore) ratingRows(ctx context.Context, sql string, args []any) ([]float64, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[float64])
}

// Get implements Store.
func (s *PostgresStore) Get(ctx context.Context, id int64) (*product.Product, error) {
	start := time.Now()
	p, err := scanProduct(s.pool.QueryRow(ctx, selectProduct+" WHERE p.id = $1", id))
	s.observe("get", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, product.ErrNotFound
	}
	return p, err
}

func scanProduct(row pgx.Row) (*product.Product, error) {
	var (
		p     product.Product
		price string
	)
	err := row.Scan(&p.ID, &p.Title, &p.Description, &p.Brand, &p.Category,
		&p.Colour, &p.Size, &price, &p.Rating, &p.OnPromotion, &p.ImageURLs)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan product: %w", err)
	}

	p.Price, err = decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("parse price of product %d: %w", p.ID, err)
	}
	return &p, nil
}

func isTextField(f predicate.Field) bool {
	switch f {
	case predicate.FieldTitle, predicate.FieldDescription, predicate.FieldBrand,
		predicate.FieldCategory, predicate.FieldColour, predicate.FieldSize:
		return true
	}
	return false
}

// sqlBuilder compiles predicates into a WHERE clause with positional
// arguments.
type sqlBuilder struct {
	args []any
}

func (b *sqlBuilder) arg(v any) string {
	b.args = append(b.args, v)
	return fmt.Sprintf("$%d", len(b.args))
}

func (b *sqlBuilder) compile(p predicate.Predicate) (string, error) {
	switch p := p.(type) {
	case nil:
		return "TRUE", nil
	case predicate.And:
		if len(p) == 0 {
			return "TRUE", nil
		}
		parts := make([]string, 0, len(p))
		for _, child := range p {
			part, err := b.compile(child)
			if err != nil {
				return "", err
			}
			parts = append(parts, part)
		}
		return "(" + strings.Join(parts, " AND ") + ")", nil
	case predicate.Eq:
		if p.Field != predicate.FieldOnPromotion {
			return "", fmt.Errorf("%w: eq on %q", ErrUnsupportedPredicate, p.Field)
		}
		return "p.on_promotion = " + b.arg(p.Value), nil
	case predicate.In:
		if p.Field == predicate.FieldID {
			return "p.id = ANY(" + b.arg(p.IDs) + ")", nil
		}
		if !isTextField(p.Field) {
			return "", fmt.Errorf("%w: in on %q", ErrUnsupportedPredicate, p.Field)
		}
		return "p." + columns[p.Field] + " = ANY(" + b.arg(p.Strings) + ")", nil
	case predicate.PriceRange:
		parts := []string{"TRUE"}
		if p.Min != nil {
			parts = append(parts, "p.price >= "+b.arg(p.Min.String())+"::numeric")
		}
		if p.Max != nil {
			parts = append(parts, "p.price <= "+b.arg(p.Max.String())+"::numeric")
		}
		return "(" + strings.Join(parts, " AND ") + ")", nil
	case predicate.RatingRange:
		return "p.rating >= " + b.arg(p.Min), nil
	case predicate.ContainsAny:
		if len(p.Fields) == 0 {
			return "FALSE", nil
		}
		pattern := b.arg("%" + escapeLike(p.Text) + "%")
		parts := make([]string, 0, len(p.Fields))
		for _, f := range p.Fields {
			if !isTextField(f) {
				return "", fmt.Errorf("%w: text match on %q", ErrUnsupportedPredicate, f)
			}
			parts = append(parts, "p."+columns[f]+" ILIKE "+pattern)
		}
		return "(" + strings.Join(parts, " OR ") + ")", nil
	default:
		return "", fmt.Errorf("%w: %T", ErrUnsupportedPredicate, p)
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
