// Package consoleui formats the small amount of human-facing text
// mutgosdb prints outside its structured logger, grounded on the
// teacher's console.Title banner helper.
package consoleui

import (
	"fmt"
	"strings"
)

// DefaultLineSize is the line width Title banners are centered within.
const DefaultLineSize = 80

// Line returns a size-character dashed line.
func Line(size int) string {
	return strings.Repeat("-", size)
}

// DoubleLine returns a size-character double-dashed line.
func DoubleLine(size int) string {
	return strings.Repeat("=", size)
}

// Title centers title inside a DefaultLineSize-wide double-dashed banner.
func Title(title string) string {
	title = fmt.Sprintf(" %s ", title)
	startIndex := (DefaultLineSize / 2) - (len(title) / 2)
	delta := len(title) % 2

	return fmt.Sprintf("%s%s%s",
		DoubleLine(startIndex),
		title,
		DoubleLine(startIndex-delta))
}
