package ui

import (
	"strings"
	"unicode/utf8"
)

// Tree hierarchy symbols using box drawing characters
const (
	TreeBranch     = "├── "
	TreeLastBranch = "└── "
	TreeContinue   = "│   " // ancestor has more siblings below
	TreeIndent     = "    " // ancestor was the last sibling

	BoxTopLeft     = "┌"
	BoxTopRight    = "┐"
	BoxBottomLeft  = "└"
	BoxBottomRight = "┘"
	BoxVertical    = "│"
	BoxHorizontal  = "─"
	BoxTeeRight    = "├"
	BoxTeeLeft     = "┤"
)

// BuildTreePrefix returns the connector drawn before a node at depth. isLast
// tells whether the node is the last of its siblings; parentIsLast holds the
// same flag for each ancestor from depth 1 downwards.
func BuildTreePrefix(depth int, isLast bool, parentIsLast []bool) string {
	if depth <= 0 {
		return ""
	}

	var b strings.Builder
	for i := 0; i < depth-1; i++ {
		if i < len(parentIsLast) && parentIsLast[i] {
			b.WriteString(TreeIndent)
		} else {
			b.WriteString(TreeContinue)
		}
	}
	if isLast {
		b.WriteString(TreeLastBranch)
	} else {
		b.WriteString(TreeBranch)
	}
	return b.String()
}

// BuildBoxHeader creates a box header with the given title and width
func BuildBoxHeader(title string, width int) string {
	titleLen := utf8.RuneCountInString(title)
	if width < titleLen+4 {
		width = titleLen + 4
	}
	padding := width - 4 - titleLen

	return BoxTopLeft + repeat(BoxHorizontal, width-2) + BoxTopRight + "\n" +
		BoxVertical + " " + title + repeat(" ", padding+1) + BoxVertical + "\n" +
		BoxTeeRight + repeat(BoxHorizontal, width-2) + BoxTeeLeft + "\n"
}

// BuildBoxFooter creates a box footer with the given width
func BuildBoxFooter(width int) string {
	return BoxBottomLeft + repeat(BoxHorizontal, width-2) + BoxBottomRight + "\n"
}

// BuildBoxLine creates a content line within a box, truncating content that
// does not fit.
func BuildBoxLine(content string, width int) string {
	maxLen := width - 4
	contentLen := utf8.RuneCountInString(content)
	if contentLen > maxLen {
		runes := []rune(content)
		content = string(runes[:maxLen-3]) + "..."
		contentLen = maxLen
	}
	return BoxVertical + " " + content + repeat(" ", maxLen-contentLen+1) + BoxVertical + "\n"
}

func repeat(s string, n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat(s, n)
}
