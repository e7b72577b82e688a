package records

import (
	"fmt"
	"time"
)

var monthsID = [...]string{"Jan", "Feb", "Mar", "Apr", "Mei", "Jun", "Jul", "Agu", "Sep", "Okt", "Nov", "Des"}

// FormatTimestamp renders t the way Indonesian clinical notes mark entries,
// e.g. "24 Okt 14.05".
func FormatTimestamp(t time.Time) string {
	return fmt.Sprintf("%d %s %02d.%02d", t.Day(), monthsID[t.Month()-1], t.Hour(), t.Minute())
}
