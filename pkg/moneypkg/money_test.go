package moneypkg

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/go-pool/pool-bank/internal/domain"
)

func TestParseAmount(t *testing.T) {
	testCases := []struct {
		name    string
		input   string
		want    int64
		wantErr error
	}{
		{name: "Integer", input: "100", want: 10000},
		{name: "TwoDecimals", input: "125.50", want: 12550},
		{name: "OneDecimal", input: "0.5", want: 50},
		{name: "Smallest", input: "0.01", want: 1},
		{name: "Zero", input: "0", wantErr: domain.ErrInvalidAmount},
		{name: "Negative", input: "-10", wantErr: domain.ErrInvalidAmount},
		{name: "TooPrecise", input: "1.001", wantErr: domain.ErrInvalidAmount},
		{name: "Garbage", input: "!@#$", wantErr: domain.ErrInvalidAmount},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseAmount(tc.input)

			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}

			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestParseNonNegativeAmount(t *testing.T) {
	got, err := ParseNonNegativeAmount("0")
	require.NoError(t, err)
	require.Equal(t, int64(0), got)

	_, err = ParseNonNegativeAmount("-0.01")
	require.ErrorIs(t, err, domain.ErrInvalidAmount)
}

func TestFormat(t *testing.T) {
	require.Equal(t, "125.50", Format(12550))
	require.Equal(t, "0.01", Format(1))
	require.Equal(t, "0.00", Format(0))
}
