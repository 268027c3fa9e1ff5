package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wonny/gem/internal/contracts"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

const rule = "═══════════════════════════════════════════════════════════"

// PrintHeader prints a formatted command header
func PrintHeader(title string, lines ...string) {
	fmt.Println()
	fmt.Println(rule)
	fmt.Printf("  %s\n", title)
	if len(lines) > 0 {
		fmt.Println("───────────────────────────────────────────────────────────")
		for _, line := range lines {
			fmt.Printf("  %s\n", line)
		}
	}
	fmt.Println(rule)
}

// PrintSnapshot prints the three trailing returns of a snapshot
func PrintSnapshot(s *contracts.SignalSnapshot) {
	fmt.Printf("📊 Momentum (%d days, as of %s)\n", s.LookbackDays, contracts.DateKey(s.Date))
	for _, r := range []contracts.ReturnResult{s.Cash, s.Domestic, s.International} {
		fmt.Printf("  %-5s %+8.2f%%  (%s)\n", r.Instrument, r.Value, r.TimeRange)
	}
}

// formatMoney formats a decimal amount with thousands separators
func formatMoney(d decimal.Decimal) string {
	s := d.StringFixed(2)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}

	intPart, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}

	var b strings.Builder
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	return sign + b.String() + frac
}

// formatDuration formats a duration in seconds
func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%.2fs", d.Seconds())
}

// PrintCompletion prints a completion message
func PrintCompletion(what string, d time.Duration) {
	fmt.Println()
	fmt.Printf("✅ %s completed in %s\n", what, formatDuration(d))
}
