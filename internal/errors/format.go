package errors

import (
	"fmt"
	"os"
	"strings"
)

const (
	ansiReset = "\033[0m"
	ansiRed   = "\033[1;31m"
	ansiBold  = "\033[1m"
	ansiCyan  = "\033[36m"
	ansiDim   = "\033[2m"
)

// detailWidth is the column at which detail text wraps.
const detailWidth = 72

// Format renders the error for a terminal. Colors are dropped when NO_COLOR
// is set.
func (e *FeedError) Format() string {
	return e.render(os.Getenv("NO_COLOR") == "")
}

// Plain renders the error like Format, without colors.
func (e *FeedError) Plain() string {
	return e.render(false)
}

func (e *FeedError) render(color bool) string {
	paint := func(style, s string) string {
		if !color {
			return s
		}
		return style + s + ansiReset
	}

	var b strings.Builder
	head := "error"
	if e.Code != "" {
		head += " " + e.Code
	}
	fmt.Fprintf(&b, "\n%s %s\n", paint(ansiRed, head+":"), paint(ansiBold, e.Message))
	if e.Field != "" {
		fmt.Fprintf(&b, "  %s %s\n", paint(ansiDim, "field:"), e.Field)
	}
	for _, line := range wrapText(e.Detail, detailWidth) {
		fmt.Fprintf(&b, "  %s\n", line)
	}
	if e.Wrapped != nil {
		fmt.Fprintf(&b, "  %s %v\n", paint(ansiDim, "cause:"), e.Wrapped)
	}
	if e.Suggestion != "" {
		fmt.Fprintf(&b, "  %s %s\n", paint(ansiCyan, "hint:"), e.Suggestion)
	}
	return b.String()
}

// wrapText breaks text into lines no longer than width, except for single
// words that are longer.
func wrapText(text string, width int) []string {
	var (
		lines []string
		line  strings.Builder
	)
	for _, word := range strings.Fields(text) {
		if line.Len() > 0 && line.Len()+1+len(word) > width {
			lines = append(lines, line.String())
			line.Reset()
		}
		if line.Len() > 0 {
			line.WriteByte(' ')
		}
		line.WriteString(word)
	}
	if line.Len() > 0 {
		lines = append(lines, line.String())
	}
	return lines
}
