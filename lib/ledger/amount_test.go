package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		input string
		want  Amount
	}{
		{"50000", 5000000},
		{"1500.5", 150050},
		{"1500,5", 150050},
		{"1 500,25", 150025},
		{"  42  ", 4200},
		{".5", 50},
		{"+7", 700},
		{"-20.25", -2025},
		{"0", 0},
		{"0.004", 0},
		{"0.005", 1},
		{"19.999", 2000},
		{"007", 700},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseAmount(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseAmount_Invalid(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		"abc",
		"12abc",
		"1e3",
		"NaN",
		"inf",
		"5.",
		"1.2.3",
		"1,500.25",
		"-",
		"--5",
		"1234567890123456",
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			_, err := ParseAmount(input)
			assert.ErrorIs(t, err, ErrInvalidAmount)
		})
	}
}

func TestAmountString(t *testing.T) {
	assert.Equal(t, "0.00", Amount(0).String())
	assert.Equal(t, "0.05", Amount(5).String())
	assert.Equal(t, "1500.00", Amount(150000).String())
	assert.Equal(t, "-150.50", Amount(-15050).String())
	assert.Equal(t, "12.30 руб.", Amount(1230).Format("руб."))
	assert.Equal(t, "12.30", Amount(1230).Format(""))
}

func TestAddRequestValidate(t *testing.T) {
	valid := AddRequest{UserID: 1, Kind: KindExpense, Amount: 100, Category: "Еда"}
	assert.NoError(t, valid.Validate())

	bad := valid
	bad.Kind = "transfer"
	assert.ErrorIs(t, bad.Validate(), ErrInvalidKind)

	bad = valid
	bad.Amount = 0
	assert.ErrorIs(t, bad.Validate(), ErrNonPositiveAmount)

	bad = valid
	bad.Amount = -5
	assert.ErrorIs(t, bad.Validate(), ErrNonPositiveAmount)
	assert.ErrorIs(t, bad.Validate(), ErrInvalidAmount)

	bad = valid
	bad.Category = "  "
	assert.ErrorIs(t, bad.Validate(), ErrInvalidCategory)
}
