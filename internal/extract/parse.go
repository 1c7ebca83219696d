package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Parse locates the selector inside an already-fetched HTML document and
// builds the extraction result. Shared by every provider so the itemCount
// semantics stay identical regardless of how the page was fetched.
func Parse(html, selector string) (*Result, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	sel := doc.Find(selector)
	if sel.Length() == 0 {
		return nil, &ElementNotFoundError{Selector: selector}
	}

	first := sel.First()

	fragment, err := first.Html()
	if err != nil {
		return nil, fmt.Errorf("render element html: %w", err)
	}

	return &Result{
		HTMLContent: fragment,
		TextContent: strings.TrimSpace(first.Text()),
		ItemCount:   countListItems(first),
	}, nil
}

// countListItems decides whether the element is list-shaped. The count is
// non-nil only when the element has more than 2 direct children and every
// direct child shares the same tag name. Anything else is "not a list".
func countListItems(sel *goquery.Selection) *int {
	children := sel.Children()
	if children.Length() <= 2 {
		return nil
	}

	firstTag := goquery.NodeName(children.First())
	allSame := true
	children.Each(func(_ int, child *goquery.Selection) {
		if goquery.NodeName(child) != firstTag {
			allSame = false
		}
	})

	if !allSame {
		return nil
	}

	count := children.Length()
	return &count
}
