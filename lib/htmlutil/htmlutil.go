package htmlutil

import (
	"bytes"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// GetText returns the text content of a node. Text nodes are joined
// with a space so that adjacent elements never run together, even in
// minified markup with no whitespace between tags.
func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return CollapseSpace(buffer.String())
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		buffer.WriteByte(' ')
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

var innerWhitespace = regexp.MustCompile(`  +`)

// FlattenText returns the text content of a selection with sibling text
// nodes joined by single spaces, whitespace collapsed, and
// non-printable characters removed.
func FlattenText(sel *goquery.Selection) string {
	var buffer bytes.Buffer
	for _, node := range sel.Nodes {
		getTextRecursive(node, &buffer)
	}
	return CollapseSpace(buffer.String())
}

// CollapseSpace maps every whitespace run (spaces, tabs, newlines) to a
// single space and drops the remaining non-printable characters.
func CollapseSpace(s string) string {
	var b strings.Builder
	for _, c := range s {
		switch {
		case unicode.IsSpace(c):
			b.WriteByte(' ')
		case unicode.IsPrint(c):
			b.WriteRune(c)
		}
	}
	collapsed := innerWhitespace.ReplaceAllString(b.String(), " ")
	return strings.TrimSpace(collapsed)
}

// markupFragment recognizes leftover tags and entities in free text.
// The cleaner strips against this pattern and the validator reports
// against the same one, so the two never disagree on what counts as
// residual markup.
var markupFragment = regexp.MustCompile(`<[a-zA-Z/!][^>]*>|&[a-z]+;|&#\d+;`)

// ContainsMarkup reports whether free text still carries HTML
// fragments.
func ContainsMarkup(s string) bool {
	return markupFragment.MatchString(s)
}

var entityReplacer = strings.NewReplacer(
	"&amp;", "&",
	"&quot;", `"`,
	"&#39;", "'",
	"&nbsp;", " ",
)

// StripMarkup removes tags and entities from free text and collapses
// the whitespace left behind. Decoded entities never include &lt; or
// &gt;, so decoding cannot reintroduce anything the validator would
// flag.
func StripMarkup(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return CollapseSpace(s)
	}
	s = entityReplacer.Replace(s)
	s = markupFragment.ReplaceAllString(s, " ")
	return CollapseSpace(s)
}
