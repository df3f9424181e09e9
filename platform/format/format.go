// Package format renders numbers and dates for display.
package format

import (
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// Number renders v with thousands separators and the given number of decimals.
func Number(v float64, decimals int) string {
	if decimals < 0 {
		decimals = 0
	}
	return printer.Sprintf("%."+strconv.Itoa(decimals)+"f", v)
}

// Currency renders v as US dollars with two decimals, e.g. "$1,250,000.00".
func Currency(v float64) string {
	if v < 0 {
		return "-$" + Number(-v, 2)
	}
	return "$" + Number(v, 2)
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05.000-0700",
	"2006-01-02T15:04:05.000Z0700",
	"2006-01-02",
}

// Date renders a Salesforce date or datetime string as "Jan 02, 2006".
// Empty input gives "N/A"; unparseable input is returned unchanged.
func Date(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "N/A"
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("Jan 02, 2006")
		}
	}
	return raw
}
