package csvimport

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCSVParser(t *testing.T) {
	t.Run("UTF-8 BOM is stripped", func(t *testing.T) {
		parser, err := NewCSVParser(strings.NewReader("\xEF\xBB\xBFsettlement_id,amount\nabc,10"))
		require.NoError(t, err)
		require.NoError(t, parser.ParseHeader())
		assert.Equal(t, "settlement_id", parser.Headers()[0])
	})

	t.Run("Empty file returns error", func(t *testing.T) {
		parser, err := NewCSVParser(strings.NewReader(""))
		assert.Nil(t, parser)
		assert.ErrorIs(t, err, ErrEmptyFile)
	})

	t.Run("Invalid UTF-8 is rejected", func(t *testing.T) {
		_, err := NewCSVParser(strings.NewReader("amount\n\xff\xfe10"))
		assert.ErrorIs(t, err, ErrInvalidEncoding)
	})

	t.Run("Multi-byte rune across the peek window", func(t *testing.T) {
		content := strings.Repeat("a", 4095) + "é\n"
		_, err := NewCSVParser(strings.NewReader(content))
		assert.NoError(t, err)
	})

	t.Run("Custom delimiter", func(t *testing.T) {
		parser, err := NewCSVParser(strings.NewReader("a;b;c\n1;2;3"), WithDelimiter(';'))
		require.NoError(t, err)
		require.NoError(t, parser.ParseHeader())
		assert.Equal(t, []string{"a", "b", "c"}, parser.Headers())
	})
}

func TestParseHeader(t *testing.T) {
	parser, err := NewCSVParser(strings.NewReader(" Settlement_ID , AMOUNT \n"))
	require.NoError(t, err)
	require.NoError(t, parser.ParseHeader())

	assert.Equal(t, []string{"settlement_id", "amount"}, parser.Headers())
	assert.True(t, parser.HasHeader("amount"))
	assert.Equal(t, []string{"paid_at"}, parser.ValidateHeaders([]string{"amount", "paid_at"}))
	assert.Equal(t, 1, parser.CurrentRow())
}

func TestReadRow(t *testing.T) {
	parser, err := NewCSVParser(strings.NewReader("ref,amount,note\nPAY-1, 10.00 ,\"a, b\"\nPAY-2\n"))
	require.NoError(t, err)
	require.NoError(t, parser.ParseHeader())

	row, err := parser.ReadRow()
	require.NoError(t, err)
	assert.Equal(t, 2, row.LineNumber)
	assert.Equal(t, "10.00", row.Get("amount"))
	assert.Equal(t, "a, b", row.Get("note"))

	row, err = parser.ReadRow()
	require.NoError(t, err)
	assert.Equal(t, 3, row.LineNumber)
	assert.Equal(t, "", row.Get("amount"), "short rows are padded")
	assert.False(t, row.IsEmpty())

	_, err = parser.ReadRow()
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, 2, parser.TotalRows())
}

func TestReadRow_MaxRows(t *testing.T) {
	parser, err := NewCSVParser(strings.NewReader("a\n1\n2\n3\n"), WithMaxRows(2))
	require.NoError(t, err)
	require.NoError(t, parser.ParseHeader())

	for i := 0; i < 2; i++ {
		_, err := parser.ReadRow()
		require.NoError(t, err)
	}
	_, err = parser.ReadRow()
	assert.ErrorIs(t, err, ErrTooManyRows)
}

func TestRow_IsEmpty(t *testing.T) {
	assert.True(t, (&Row{Data: map[string]string{"a": "", "b": ""}}).IsEmpty())
	assert.False(t, (&Row{Data: map[string]string{"a": "x"}}).IsEmpty())
}
