package report

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormatter_Money(t *testing.T) {
	f := NewFormatter("")

	assert.Equal(t, "$40,000.00", f.Money(decimal.NewFromInt(40000)))
	assert.Equal(t, "$1,234,567.89", f.Money(decimal.RequireFromString("1234567.89")))
	assert.Equal(t, "$0.00", f.Money(decimal.Zero))
	assert.Equal(t, "$0.01", f.Money(decimal.RequireFromString("0.005")))
	assert.Equal(t, "-$1,500.50", f.Money(decimal.RequireFromString("-1500.5")))

	assert.Equal(t, "FJ$12.00", NewFormatter("FJ$").Money(decimal.NewFromInt(12)))

	// beyond float64's exact integer range
	assert.Equal(t, "$12,345,678,901,234,567.89", f.Money(decimal.RequireFromString("12345678901234567.89")))
	assert.Equal(t, "$999.99", f.Money(decimal.RequireFromString("999.99")))
	assert.Equal(t, "$100,000.00", f.Money(decimal.NewFromInt(100000)))
	assert.Equal(t, "$0.00", f.Money(decimal.RequireFromString("-0.004")))
}

func TestFormatter_Scalars(t *testing.T) {
	f := NewFormatter("$")

	assert.Equal(t, "1,234", f.Count(1234))
	assert.Equal(t, "60.0%", f.Percent(60))
	assert.Equal(t, "33.3%", f.Percent(100.0/3))
	assert.Equal(t, "05 Mar 2024", f.Date(time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "-", f.Date(time.Time{}))
	assert.Equal(t, "Active", f.Label("ACTIVE"))
	assert.Equal(t, "Cancelled", f.Label("cancelled"))
	assert.Equal(t, "-", f.Text(" "))
	assert.Equal(t, "Levuka", f.Text("Levuka"))
}

func TestGroupThousands(t *testing.T) {
	for in, want := range map[string]string{
		"0":       "0",
		"123":     "123",
		"1234":    "1,234",
		"123456":  "123,456",
		"1234567": "1,234,567",
	} {
		assert.Equal(t, want, groupThousands(in), in)
	}
}
