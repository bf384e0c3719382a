package csvimport

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRowError(t *testing.T) {
	assert.Equal(t, "row 5, column 'amount': invalid format, expected decimal",
		RowError{Row: 5, Column: "amount", Message: "invalid format, expected decimal"}.Error())
	assert.Equal(t, "row 10: malformed row", RowError{Row: 10, Message: "malformed row"}.Error())
}

func TestErrorCollection(t *testing.T) {
	t.Run("Helper methods", func(t *testing.T) {
		ec := NewErrorCollection(10)
		ec.AddRequiredError(2, "amount")
		ec.AddFormatError(3, "paid_at", "YYYY-MM-DD", "yesterday")
		ec.AddDuplicateError(4, "payout_reference", "PAY-1", 2)

		errs := ec.Errors()
		assert.Len(t, errs, 3)
		assert.Equal(t, ErrCodeRequiredField, errs[0].Code)
		assert.Equal(t, ErrCodeInvalidFormat, errs[1].Code)
		assert.Equal(t, "yesterday", errs[1].Value)
		assert.Equal(t, ErrCodeDuplicateInFile, errs[2].Code)
		assert.Equal(t, "duplicate of row 2", errs[2].Message)
	})

	t.Run("Errors beyond the limit are counted, not kept", func(t *testing.T) {
		ec := NewErrorCollection(3)
		for i := 1; i <= 5; i++ {
			ec.AddRequiredError(i, "amount")
		}
		assert.Len(t, ec.Errors(), 3)
		assert.Equal(t, 5, ec.TotalCount())
		assert.True(t, ec.IsTruncated())
		assert.Contains(t, ec.String(), "5 error(s) found (showing first 3)")
	})

	t.Run("Empty collection", func(t *testing.T) {
		ec := NewErrorCollection(0)
		assert.False(t, ec.HasErrors())
		assert.Equal(t, "no errors", ec.String())
	})
}
