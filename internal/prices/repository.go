package prices

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/wonny/qstudy/internal/contracts"
)

// fieldColumns maps price fields to data.daily_prices columns
// ⭐ SSOT: 쿼리에 들어가는 컬럼명은 이 allowlist에서만
var fieldColumns = map[contracts.Field]string{
	contracts.FieldOpen:        "open_price",
	contracts.FieldHigh:        "high_price",
	contracts.FieldLow:         "low_price",
	contracts.FieldClose:       "adj_close",
	contracts.FieldActualClose: "close_price",
	contracts.FieldVolume:      "volume",
}

func columnFor(f contracts.Field) (string, error) {
	col, ok := fieldColumns[f]
	if !ok {
		return "", fmt.Errorf("unknown price field %q", f)
	}
	return col, nil
}

// Repository implements contracts.PriceProvider over PostgreSQL
// ⭐ SSOT: 가격 데이터 조회는 여기서만
type Repository struct {
	pool *pgxpool.Pool
	log  zerolog.Logger
}

// NewRepository creates a new price repository
func NewRepository(pool *pgxpool.Pool, log zerolog.Logger) *Repository {
	return &Repository{
		pool: pool,
		log:  log.With().Str("component", "prices.repository").Logger(),
	}
}

// GetAlignedPrices loads fields for symbols in [start, end] and aligns them on one calendar
func (r *Repository) GetAlignedPrices(ctx context.Context, symbols []contracts.Symbol, start, end time.Time, fields []contracts.Field) (contracts.PriceData, error) {
	query, err := buildPriceQuery(fields)
	if err != nil {
		return nil, err
	}

	codes := make([]string, len(symbols))
	for i, s := range symbols {
		codes[i] = string(s)
	}

	rows, err := r.pool.Query(ctx, query, codes, start, end)
	if err != nil {
		return nil, fmt.Errorf("query prices: %w", err)
	}
	defer rows.Close()

	var out []Row
	values := make([]*float64, len(fields))
	for rows.Next() {
		var code string
		var date time.Time
		dest := make([]any, 0, len(fields)+2)
		dest = append(dest, &code, &date)
		for i := range values {
			values[i] = nil
			dest = append(dest, &values[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan price row: %w", err)
		}

		row := Row{
			Symbol: contracts.Symbol(code),
			Date:   date,
			Values: make(map[contracts.Field]float64, len(fields)),
		}
		for i, f := range fields {
			if values[i] != nil {
				row.Values[f] = *values[i]
			} else {
				row.Values[f] = math.NaN()
			}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate price rows: %w", err)
	}

	r.log.Debug().
		Int("symbols", len(symbols)).
		Int("rows", len(out)).
		Str("from", start.Format("2006-01-02")).
		Str("to", end.Format("2006-01-02")).
		Msg("prices loaded")

	return AlignPanels(out, symbols, fields)
}

// SymbolsFromList returns the members of a named symbol list (e.g. "sp5002012")
func (r *Repository) SymbolsFromList(ctx context.Context, listName string) ([]contracts.Symbol, error) {
	query := `
		SELECT stock_code
		FROM data.symbol_lists
		WHERE list_name = $1
		ORDER BY stock_code ASC
	`

	rows, err := r.pool.Query(ctx, query, listName)
	if err != nil {
		return nil, fmt.Errorf("query symbol list: %w", err)
	}
	defer rows.Close()

	var symbols []contracts.Symbol
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		symbols = append(symbols, contracts.Symbol(code))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(symbols) == 0 {
		return nil, fmt.Errorf("symbol list %q is empty or unknown", listName)
	}
	return symbols, nil
}

func buildPriceQuery(fields []contracts.Field) (string, error) {
	if len(fields) == 0 {
		return "", fmt.Errorf("no fields requested")
	}

	cols := make([]string, len(fields))
	for i, f := range fields {
		col, err := columnFor(f)
		if err != nil {
			return "", err
		}
		cols[i] = col + "::float8"
	}

	return fmt.Sprintf(`
		SELECT stock_code, trade_date, %s
		FROM data.daily_prices
		WHERE stock_code = ANY($1) AND trade_date BETWEEN $2 AND $3
		ORDER BY trade_date ASC, stock_code ASC
	`, strings.Join(cols, ", ")), nil
}
