package refdata

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	// Registered drivers: "pgx" and "postgres".
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
)

const (
	defaultBondsTable = "bond_data"
	defaultCurveTable = "zero_curve"
)

// DBTX is the subset of *sql.DB and *sql.Tx the repository needs.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// OpenDB opens a Postgres handle with the pgx ("pgx") or lib/pq ("postgres") driver.
func OpenDB(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	switch driver {
	case "", "pgx":
		driver = "pgx"
	case "postgres":
	default:
		return nil, fmt.Errorf("OpenDB: unsupported driver %q", driver)
	}
	if dsn == "" {
		return nil, errors.New("OpenDB: empty dsn")
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("OpenDB: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("OpenDB: %w", err)
	}
	return db, nil
}

// Repository reads and writes reference data tables in Postgres.
type Repository struct {
	db         DBTX
	bondsTable string
	curveTable string
}

// Option configures the repository.
type Option func(*Repository)

// WithBondsTable overrides the default bond table name.
func WithBondsTable(table string) Option {
	return func(r *Repository) {
		if table != "" {
			r.bondsTable = table
		}
	}
}

// WithCurveTable overrides the default zero curve table name.
func WithCurveTable(table string) Option {
	return func(r *Repository) {
		if table != "" {
			r.curveTable = table
		}
	}
}

// NewRepository constructs a repository.
func NewRepository(db DBTX, opts ...Option) *Repository {
	repo := &Repository{db: db, bondsTable: defaultBondsTable, curveTable: defaultCurveTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// EnsureSchema creates both tables when they do not exist.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if r == nil || r.db == nil {
		return errors.New("refdata repo: nil db")
	}
	stmts := []string{
		fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	bond_id INTEGER PRIMARY KEY,
	settlement_days INTEGER NOT NULL,
	face_value DOUBLE PRECISION NOT NULL,
	issue_date DATE NOT NULL,
	bond_term INTEGER NOT NULL,
	maturity_date DATE NOT NULL,
	tenor TEXT NOT NULL,
	coupon_rate DOUBLE PRECISION NOT NULL,
	z_spread DOUBLE PRECISION NOT NULL
)`, r.bondsTable),
		fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	position INTEGER PRIMARY KEY,
	duration TEXT NOT NULL,
	rate DOUBLE PRECISION NOT NULL
)`, r.curveTable),
	}
	for _, stmt := range stmts {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("refdata repo: ensure schema: %w", err)
		}
	}
	return nil
}

// Load reads both tables and validates them into a store.
func (r *Repository) Load(ctx context.Context) (*Store, error) {
	bonds, err := r.LoadBonds(ctx)
	if err != nil {
		return nil, err
	}
	points, err := r.LoadZeroCurve(ctx)
	if err != nil {
		return nil, err
	}
	return NewStore(bonds, points)
}

// LoadBonds reads the bond table ordered by id.
func (r *Repository) LoadBonds(ctx context.Context) ([]Bond, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("refdata repo: nil db")
	}
	query := fmt.Sprintf(`
SELECT bond_id, settlement_days, face_value, issue_date, bond_term, maturity_date, tenor, coupon_rate, z_spread
FROM %s
ORDER BY bond_id`, r.bondsTable)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, &LoadError{Source: r.bondsTable, Err: err}
	}
	defer rows.Close()

	var bonds []Bond
	for rows.Next() {
		var b Bond
		if err := rows.Scan(
			&b.ID,
			&b.SettlementDays,
			&b.FaceValue,
			&b.IssueDate,
			&b.BondTerm,
			&b.MaturityDate,
			&b.Tenor,
			&b.CouponRate,
			&b.ZSpread,
		); err != nil {
			return nil, &LoadError{Source: r.bondsTable, Row: len(bonds) + 1, Err: err}
		}
		b.IssueDate = b.IssueDate.UTC()
		b.MaturityDate = b.MaturityDate.UTC()
		bonds = append(bonds, b)
	}
	if err := rows.Err(); err != nil {
		return nil, &LoadError{Source: r.bondsTable, Err: err}
	}
	return bonds, nil
}

// LoadZeroCurve reads the curve table in position order.
func (r *Repository) LoadZeroCurve(ctx context.Context) ([]ZeroPoint, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("refdata repo: nil db")
	}
	query := fmt.Sprintf(`
SELECT duration, rate
FROM %s
ORDER BY position`, r.curveTable)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, &LoadError{Source: r.curveTable, Err: err}
	}
	defer rows.Close()

	var points []ZeroPoint
	for rows.Next() {
		var p ZeroPoint
		if err := rows.Scan(&p.Duration, &p.Rate); err != nil {
			return nil, &LoadError{Source: r.curveTable, Row: len(points) + 1, Err: err}
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, &LoadError{Source: r.curveTable, Err: err}
	}
	return points, nil
}

// Save upserts every bond and replaces the zero curve.
func (r *Repository) Save(ctx context.Context, s *Store) error {
	if r == nil || r.db == nil {
		return errors.New("refdata repo: nil db")
	}
	if s == nil {
		return errors.New("refdata repo: nil store")
	}

	upsert := fmt.Sprintf(`
INSERT INTO %s (
	bond_id,
	settlement_days,
	face_value,
	issue_date,
	bond_term,
	maturity_date,
	tenor,
	coupon_rate,
	z_spread
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8, $9
)
ON CONFLICT (bond_id)
DO UPDATE SET
	settlement_days = EXCLUDED.settlement_days,
	face_value = EXCLUDED.face_value,
	issue_date = EXCLUDED.issue_date,
	bond_term = EXCLUDED.bond_term,
	maturity_date = EXCLUDED.maturity_date,
	tenor = EXCLUDED.tenor,
	coupon_rate = EXCLUDED.coupon_rate,
	z_spread = EXCLUDED.z_spread`, r.bondsTable)

	for _, b := range s.Bonds() {
		if _, err := r.db.ExecContext(ctx, upsert,
			b.ID,
			b.SettlementDays,
			b.FaceValue,
			b.IssueDate,
			b.BondTerm,
			b.MaturityDate,
			b.Tenor,
			b.CouponRate,
			b.ZSpread,
		); err != nil {
			return fmt.Errorf("refdata repo: save bond %d: %w", b.ID, err)
		}
	}

	if _, err := r.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s`, r.curveTable)); err != nil {
		return fmt.Errorf("refdata repo: clear curve: %w", err)
	}
	insert := fmt.Sprintf(`INSERT INTO %s (position, duration, rate) VALUES ($1, $2, $3)`, r.curveTable)
	for i, p := range s.ZeroCurve() {
		if _, err := r.db.ExecContext(ctx, insert, i+1, p.Duration, p.Rate); err != nil {
			return fmt.Errorf("refdata repo: save curve point %s: %w", p.Duration, err)
		}
	}
	return nil
}
