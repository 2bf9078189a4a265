package report

import (
	"fmt"
	"io"
	"strings"
)

// MaxErrLen caps error messages on the console.
const MaxErrLen = 100

// Separator is a rule line for console sections.
var Separator = strings.Repeat("=", 50)

// Section prints a titled section header.
func Section(w io.Writer, title string) {
	fmt.Fprintf(w, "\n%s\n%s\n%s\n", Separator, title, Separator)
}

// Summary prints a line per host and the success ratio against total.
// It returns the number of successful hosts.
func Summary(w io.Writer, results []Result, total int) int {
	Section(w, "SUMMARY")

	ok := 0
	for _, r := range results {
		if r.OK {
			ok++
			fmt.Fprintf(w, "✅ %s\n", r.Host)
			continue
		}

		fmt.Fprintf(w, "❌ %s: %s\n", r.Host, ErrText(r.Err))
	}

	fmt.Fprintf(w, "\n✅ %d/%d backups successful\n", ok, total)

	return ok
}

// ErrText renders err truncated to MaxErrLen runes.
func ErrText(err error) string {
	if err == nil {
		return "unknown error"
	}

	return Truncate(err.Error(), MaxErrLen)
}

func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}

	return string(r[:n])
}
