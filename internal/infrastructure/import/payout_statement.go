package csvimport

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/evmarket/backend/internal/domain/settlement"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payout statement columns
const (
	ColSettlementID    = "settlement_id"
	ColPayoutReference = "payout_reference"
	ColAmount          = "amount"
	ColPaidAt          = "paid_at"
)

// RequiredPayoutColumns must all be present in a statement header
var RequiredPayoutColumns = []string{ColSettlementID, ColPayoutReference, ColAmount, ColPaidAt}

// DefaultMaxStatementRows bounds a single statement file
const DefaultMaxStatementRows = 100_000

// StatementOptions configures ParsePayoutStatement
type StatementOptions struct {
	Delimiter rune
	MaxRows   int
	MaxErrors int
	// Location is used for paid_at values without an offset
	Location *time.Location
}

// ParsePayoutStatement reads a bank payout statement. Rows that fail
// validation are skipped and reported in the returned collection. The error
// is non-nil only when the file itself cannot be read.
func ParsePayoutStatement(r io.Reader, opts StatementOptions) ([]settlement.PayoutLine, *ErrorCollection, error) {
	if opts.Delimiter == 0 {
		opts.Delimiter = ','
	}
	if opts.MaxRows == 0 {
		opts.MaxRows = DefaultMaxStatementRows
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}

	parser, err := NewCSVParser(r, WithDelimiter(opts.Delimiter), WithMaxRows(opts.MaxRows))
	if err != nil {
		return nil, nil, err
	}
	if err := parser.ParseHeader(); err != nil {
		return nil, nil, err
	}
	if missing := parser.ValidateHeaders(RequiredPayoutColumns); len(missing) > 0 {
		return nil, nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}

	errs := NewErrorCollection(opts.MaxErrors)
	var lines []settlement.PayoutLine
	firstSeen := make(map[string]int)

	for {
		row, err := parser.ReadRow()
		if err == io.EOF {
			break
		}
		var rowErr RowError
		if errors.As(err, &rowErr) {
			errs.Add(rowErr)
			continue
		}
		if err != nil {
			return nil, nil, err
		}
		if row.IsEmpty() {
			continue
		}

		line, ok := parsePayoutRow(row, opts.Location, errs)
		if !ok {
			continue
		}
		if first, dup := firstSeen[line.PayoutReference]; dup {
			errs.AddDuplicateError(row.LineNumber, ColPayoutReference, line.PayoutReference, first)
			continue
		}
		firstSeen[line.PayoutReference] = row.LineNumber
		lines = append(lines, line)
	}
	return lines, errs, nil
}

func parsePayoutRow(row *Row, loc *time.Location, errs *ErrorCollection) (settlement.PayoutLine, bool) {
	line := settlement.PayoutLine{Line: row.LineNumber}
	ok := true

	if raw := row.Get(ColSettlementID); raw == "" {
		errs.AddRequiredError(row.LineNumber, ColSettlementID)
		ok = false
	} else if id, err := uuid.Parse(raw); err != nil {
		errs.AddFormatError(row.LineNumber, ColSettlementID, "uuid", raw)
		ok = false
	} else {
		line.SettlementID = id
	}

	line.PayoutReference = row.Get(ColPayoutReference)
	if line.PayoutReference == "" {
		errs.AddRequiredError(row.LineNumber, ColPayoutReference)
		ok = false
	}

	if raw := row.Get(ColAmount); raw == "" {
		errs.AddRequiredError(row.LineNumber, ColAmount)
		ok = false
	} else if amount, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", "")); err != nil {
		errs.AddFormatError(row.LineNumber, ColAmount, "decimal", raw)
		ok = false
	} else if !amount.IsPositive() {
		errs.Add(RowError{Row: row.LineNumber, Column: ColAmount, Code: ErrCodeInvalidRange,
			Message: "amount must be positive", Value: raw})
		ok = false
	} else {
		line.Amount = amount
	}

	if raw := row.Get(ColPaidAt); raw == "" {
		errs.AddRequiredError(row.LineNumber, ColPaidAt)
		ok = false
	} else if paidAt, err := parsePaidAt(raw, loc); err != nil {
		errs.AddFormatError(row.LineNumber, ColPaidAt, "YYYY-MM-DD or RFC 3339", raw)
		ok = false
	} else {
		line.PaidAt = paidAt
	}

	return line, ok
}

func parsePaidAt(raw string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.ParseInLocation("2006-01-02", raw, loc)
}
