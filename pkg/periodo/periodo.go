// Package periodo manipulates eSocial competência tokens in the "YYYY-MM"
// format used by periodic events and validity windows.
package periodo

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var tokenRe = regexp.MustCompile(`^\d{4}-\d{2}$`)

// Valid reports whether p is a well-formed competência between 1900 and 2100.
func Valid(p string) bool {
	if !tokenRe.MatchString(p) {
		return false
	}
	year, month := split(p)
	if year < 1900 || year > 2100 {
		return false
	}
	return month >= 1 && month <= 12
}

// Compare orders two competência tokens. Negative when a precedes b, zero
// when equal, positive when a follows b.
func Compare(a, b string) int {
	yearA, monthA := split(a)
	yearB, monthB := split(b)
	if yearA != yearB {
		return yearA - yearB
	}
	return monthA - monthB
}

// Previous returns the competência of the month before p. An S-1010 inclusion
// that supersedes an open validity window closes the prior window at this
// month.
func Previous(p string) string {
	year, month := split(p)
	if month <= 1 {
		return fmt.Sprintf("%04d-12", year-1)
	}
	return fmt.Sprintf("%04d-%02d", year, month-1)
}

// Current returns the competência of now.
func Current(now time.Time) string {
	return Format(now.Year(), int(now.Month()))
}

// MonthsAgo returns the competência n months before now. The audit engine
// defaults its analysis window to 60 months.
func MonthsAgo(now time.Time, n int) string {
	shifted := now.AddDate(0, -n, 0)
	return Format(shifted.Year(), int(shifted.Month()))
}

// Format builds a competência token from a year and 1-based month.
func Format(year, month int) string {
	return fmt.Sprintf("%04d-%02d", year, month)
}

// Split breaks a competência into year and month. Malformed input yields
// (0, 0); callers that need validation use Valid first.
func Split(p string) (year, month int) {
	return split(p)
}

func split(p string) (int, int) {
	parts := strings.SplitN(p, "-", 2)
	if len(parts) != 2 {
		return 0, 0
	}
	year, _ := strconv.Atoi(parts[0])
	month, _ := strconv.Atoi(parts[1])
	return year, month
}
