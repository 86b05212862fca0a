package content

import (
	"fmt"
	"strings"
)

// IssueKind classifies a structural finding.
type IssueKind string

const (
	KindNone           IssueKind = "none"
	KindEmpty          IssueKind = "empty"
	KindMissingTag     IssueKind = "missing_tag"
	KindUnbalancedTags IssueKind = "unbalanced_tags"
)

// Issue is one structural finding about an HTML body.
type Issue struct {
	Kind   IssueKind `json:"kind"`
	Detail string    `json:"detail"`
}

func (i Issue) String() string { return i.Detail }

// NoIssues is the sentinel returned alone when nothing was flagged.
var NoIssues = Issue{Kind: KindNone, Detail: "✓ No major issues detected"}

var requiredTags = []struct {
	needle string
	detail string
}{
	{"<html", "Missing <html> tag"},
	{"<body", "Missing <body> tag"},
	{"</html>", "Missing closing </html> tag"},
	{"</body>", "Missing closing </body> tag"},
}

// CheckTagBalance flags missing document tags and a mismatch between the
// number of opening and closing tags. The result is never empty: when
// nothing is wrong it holds only NoIssues.
func CheckTagBalance(body string) []Issue {
	if strings.TrimSpace(body) == "" {
		return []Issue{{Kind: KindEmpty, Detail: "HTML code is empty"}}
	}

	var issues []Issue
	lower := strings.ToLower(body)
	for _, tag := range requiredTags {
		if !strings.Contains(lower, tag.needle) {
			issues = append(issues, Issue{Kind: KindMissingTag, Detail: tag.detail})
		}
	}

	open, closed := CountTags(body)
	if open != closed {
		issues = append(issues, Issue{
			Kind:   KindUnbalancedTags,
			Detail: fmt.Sprintf("Possible unbalanced tags (Open: %d, Close: %d)", open, closed),
		})
	}

	if len(issues) == 0 {
		return []Issue{NoIssues}
	}
	return issues
}

// CountTags returns the number of opening and closing tags in body.
func CountTags(body string) (open, closed int) {
	return len(openPattern.FindAllStringIndex(body, -1)), len(closePattern.FindAllStringIndex(body, -1))
}

// Valid reports whether issues is the no-issues result.
func Valid(issues []Issue) bool {
	return len(issues) > 0 && issues[0].Kind == KindNone
}

// Elements counts common element openings in a body.
type Elements struct {
	Divs       int `json:"divs"`
	Paragraphs int `json:"paragraphs"`
	Anchors    int `json:"anchors"`
	Images     int `json:"images"`
}

// CountElements counts element openings by substring, so "<p" also matches
// "<pre" and similar.
func CountElements(body string) Elements {
	return Elements{
		Divs:       strings.Count(body, "<div"),
		Paragraphs: strings.Count(body, "<p"),
		Anchors:    strings.Count(body, "<a "),
		Images:     strings.Count(body, "<img"),
	}
}

// Add returns the element-wise sum of e and o.
func (e Elements) Add(o Elements) Elements {
	return Elements{
		Divs:       e.Divs + o.Divs,
		Paragraphs: e.Paragraphs + o.Paragraphs,
		Anchors:    e.Anchors + o.Anchors,
		Images:     e.Images + o.Images,
	}
}
