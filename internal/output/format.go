package output

import (
	"strconv"
	"strings"
	"time"

	"github.com/mergestat/timediff"
	"github.com/muesli/reflow/truncate"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/crimson-sun/preflight/internal/model"
)

// ShortWidth is the width long text is cut to in tables.
const ShortWidth = 50

// Missing is shown for absent text values.
const Missing = "N/A"

var printer = message.NewPrinter(language.English)

// timeLayouts are the timestamp layouts seen across the services.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Cell renders the values of col in r as one string. Values of several keys
// are joined with a space.
func Cell(r model.RawRecord, col model.Column) string {
	if col.Format == model.FormatMoney {
		return Money(firstValue(r, col.Keys))
	}

	parts := make([]string, 0, len(col.Keys))
	for _, key := range col.Keys {
		if s := r.String(key); s != "" {
			parts = append(parts, s)
		}
	}
	s := strings.Join(parts, " ")
	if s == "" {
		return Missing
	}

	switch col.Format {
	case model.FormatShort:
		return Short(s)
	case model.FormatTime:
		return Age(s)
	default:
		return s
	}
}

func firstValue(r model.RawRecord, keys []string) any {
	for _, key := range keys {
		if v, ok := r.Get(key); ok && v != nil {
			return v
		}
	}
	return nil
}

// Money renders an amount with thousands separators and no fraction digits.
// Missing or non-numeric amounts render as $0.
func Money(v any) string {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case string:
		f, _ = strconv.ParseFloat(strings.TrimSpace(t), 64)
	}
	return "$" + printer.Sprint(number.Decimal(f, number.MaxFractionDigits(0)))
}

// Short cuts s to ShortWidth characters, marking the cut with "...".
func Short(s string) string {
	if len([]rune(s)) <= ShortWidth {
		return s
	}
	return truncate.StringWithTail(s, ShortWidth+3, "...")
}

// Age appends a relative age to a timestamp it can parse.
func Age(s string) string {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return s + " (" + timediff.TimeDiff(t) + ")"
		}
	}
	return s
}
