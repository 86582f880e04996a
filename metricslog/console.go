package metricslog

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const separatorWidth = 40

// Format renders a record as the console table printed by Log.
// Names are left-justified to the longest name; the width is counted in runes.
func Format(rec Record) string {
	maxLen := 0
	for _, f := range rec {
		if n := utf8.RuneCountInString(f.Name); n > maxLen {
			maxLen = n
		}
	}

	separator := strings.Repeat("=", separatorWidth)
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(separator + "\n")
	for _, f := range rec {
		fmt.Fprintf(&b, "%-*s : %s\n", maxLen, f.Name, f.Value)
	}
	b.WriteString(separator + "\n")
	b.WriteString("\n")
	return b.String()
}

func (l *Logger) print(rec Record) error {
	if _, err := fmt.Fprint(l.out, Format(rec)); err != nil {
		return fmt.Errorf("metricslog: failed to print record: %w", err)
	}
	return nil
}
