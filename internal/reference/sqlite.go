package reference

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"invoiceaudit/internal/logger"
	"invoiceaudit/pkg/models"
)

// identPattern restricts table names to plain identifiers; table names end
// up in the query text, so anything else is rejected up front.
var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLiteSource reads reference records from a ledger table in a SQLite
// database. The table must expose the columns reference_id, invoice_number,
// vendor_name, invoice_date and total_amount; dates and amounts are parsed
// with the same normalization the CSV source uses.
type SQLiteSource struct {
	path  string
	table string
	opts  Options
	log   zerolog.Logger
}

func NewSQLite(path, table string, opts Options) (*SQLiteSource, error) {
	if !identPattern.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &SQLiteSource{
		path:  path,
		table: table,
		opts:  opts,
		log:   logger.WithComponent("reference-sqlite"),
	}, nil
}

func (s *SQLiteSource) Name() string { return s.path + "#" + s.table }

func (s *SQLiteSource) Load(ctx context.Context) ([]models.ReferenceRecord, error) {
	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open reference database: %w", err)
	}
	defer db.Close()

	query := fmt.Sprintf(
		"SELECT reference_id, invoice_number, vendor_name, invoice_date, total_amount FROM %s",
		s.table,
	)
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query reference table %s: %w", s.table, err)
	}
	defer rows.Close()

	var records []models.ReferenceRecord
	total, skipped := 0, 0
	for rows.Next() {
		total++
		var id, number, vendor, date, amount sql.NullString
		if err := rows.Scan(&id, &number, &vendor, &date, &amount); err != nil {
			skipped++
			s.log.Warn().Err(err).Int("row", total).Msg("skipping unreadable reference row")
			continue
		}

		record, err := buildRecord(id.String, number.String, vendor.String, date.String, amount.String, s.Name(), s.opts)
		if err != nil {
			skipped++
			s.log.Warn().Err(err).Int("row", total).Msg("skipping malformed reference row")
			continue
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read reference table %s: %w", s.table, err)
	}

	s.log.Info().
		Int("total_rows", total).
		Int("loaded", len(records)).
		Int("skipped", skipped).
		Str("table", s.table).
		Msg("reference table loaded")

	return records, nil
}
