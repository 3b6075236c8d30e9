package humidity

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeEmptyTable(t *testing.T) {
	_, err := Sanitize(nil)
	assert.ErrorIs(t, err, ErrEmptyTable)

	_, err = Sanitize([]Sample{})
	assert.ErrorIs(t, err, ErrEmptyTable)
}

func TestSanitizeCoercesRows(t *testing.T) {
	nan := math.NaN()
	inf := math.Inf(1)

	raw := []Sample{
		{Code: "BR-5300108", Name: "  Brasília ", UF: " DF", Date: "2024-01-02T00:00:00", RHmin: Float(18)},
		{Code: "123", Name: "Alfa", UF: "SP", Date: "02/01/2024", RHmin: &nan},
		{Code: "123", Name: "Alfa", UF: "SP", Date: "not-a-date", RHmin: &inf},
	}

	clean, err := Sanitize(raw)
	require.NoError(t, err)
	require.Len(t, clean, 3)

	// Unparseable date becomes "" and sorts first within its municipality.
	assert.Equal(t, "0000123", clean[0].Code)
	assert.Equal(t, "", clean[0].Date)
	assert.Nil(t, clean[0].RHmin)

	assert.Equal(t, "0000123", clean[1].Code)
	assert.Equal(t, "2024-01-02", clean[1].Date)
	assert.Nil(t, clean[1].RHmin)

	assert.Equal(t, "5300108", clean[2].Code)
	assert.Equal(t, "Brasília", clean[2].Name)
	assert.Equal(t, "DF", clean[2].UF)
	assert.Equal(t, "2024-01-02", clean[2].Date)
	require.NotNil(t, clean[2].RHmin)
	assert.Equal(t, 18.0, *clean[2].RHmin)
}

func TestSanitizeDoesNotMutateInput(t *testing.T) {
	raw := []Sample{{Code: "br 42", Date: "2024-01-01"}}
	_, err := Sanitize(raw)
	require.NoError(t, err)
	assert.Equal(t, "br 42", raw[0].Code)
}

func TestSanitizeIsIdempotent(t *testing.T) {
	raw := []Sample{
		{Code: "3550308", Name: "São Paulo", UF: "SP", Date: "2024-06-02", RHmin: Float(35)},
		{Code: "3550308", Name: "São Paulo", UF: "SP", Date: "2024-06-01", RHmin: Float(55)},
		{Code: "3304557", Name: "Rio de Janeiro", UF: "RJ", Date: "2024-06-01"},
	}

	once, err := Sanitize(raw)
	require.NoError(t, err)
	twice, err := Sanitize(once)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
}

func TestSanitizeSortOrder(t *testing.T) {
	raw := []Sample{
		{Code: "2", Date: "2024-01-01"},
		{Code: "1", Date: "2024-01-02"},
		{Code: "1", Date: "2024-01-01"},
	}

	clean, err := Sanitize(raw)
	require.NoError(t, err)
	require.Len(t, clean, 3)
	assert.Equal(t, "0000001", clean[0].Code)
	assert.Equal(t, "2024-01-01", clean[0].Date)
	assert.Equal(t, "0000001", clean[1].Code)
	assert.Equal(t, "2024-01-02", clean[1].Date)
	assert.Equal(t, "0000002", clean[2].Code)
}

func TestCanonicalCode(t *testing.T) {
	assert.Equal(t, "5300108", CanonicalCode("5300108"))
	assert.Equal(t, "5300108", CanonicalCode("5300108.0"))
	assert.Equal(t, "0000042", CanonicalCode("42"))
	assert.Equal(t, "5300108", CanonicalCode("ibge-5300108"))
	assert.Equal(t, "", CanonicalCode("no digits"))
	assert.Equal(t, "", CanonicalCode(""))
}

func TestTargetDates(t *testing.T) {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	require.NoError(t, err)

	now := time.Date(2024, 6, 1, 23, 30, 0, 0, loc)
	dates := TargetDates(now)
	assert.Equal(t, []string{
		"2024-06-01", "2024-06-02", "2024-06-03", "2024-06-04", "2024-06-05",
	}, dates)

	// Month rollover.
	dates = TargetDates(time.Date(2024, 1, 30, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, []string{
		"2024-01-30", "2024-01-31", "2024-02-01", "2024-02-02", "2024-02-03",
	}, dates)
}
