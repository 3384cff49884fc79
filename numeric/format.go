package numeric

import (
	"fmt"
	"math/big"
	"time"

	"github.com/shopspring/decimal"
)

// FormatAmount renders an atomic amount as a display string at the fixed
// 10^7 token scale. This is the only place atomic units become decimals.
func FormatAmount(atomic *big.Int) string {
	if atomic == nil {
		atomic = new(big.Int)
	}
	return decimal.NewFromBigInt(atomic, -TokenDecimals).String()
}

// ParseDisplayAmount converts a user-entered display amount to atomic units,
// rounding to the nearest atomic unit. Unlike the normalizer, bad user input
// here is an error the caller should surface, not a silent zero.
func ParseDisplayAmount(s string) (*big.Int, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return d.Shift(TokenDecimals).Round(0).BigInt(), nil
}

// FormatProgress renders progress basis points (0..10000) as a percentage
// with one decimal place.
func FormatProgress(bps int64) string {
	return decimal.NewFromInt(bps).Div(decimal.NewFromInt(100)).StringFixed(1) + "%"
}

// FormatTimestamp renders a ledger timestamp (seconds since epoch) in local
// display time.
func FormatTimestamp(sec uint64) string {
	if sec == 0 {
		return ""
	}
	return time.Unix(int64(sec), 0).Local().Format("2006-01-02 15:04:05")
}

// FormatDuration renders a number of seconds as a compact d/h/m/s string.
func FormatDuration(seconds uint64) string {
	d := time.Duration(seconds) * time.Second
	if d >= 24*time.Hour {
		days := d / (24 * time.Hour)
		rem := (d % (24 * time.Hour)) / time.Hour
		return fmt.Sprintf("%dd %dh", days, rem)
	}
	if d >= time.Hour {
		return fmt.Sprintf("%dh %dm", d/time.Hour, (d%time.Hour)/time.Minute)
	}
	if d >= time.Minute {
		return fmt.Sprintf("%dm %ds", d/time.Minute, (d%time.Minute)/time.Second)
	}
	return fmt.Sprintf("%ds", d/time.Second)
}
