package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Summary is a compact text view of a page.
type Summary struct {
	Title string `json:"title"`
	Text  string `json:"text"`
	Links []Link `json:"links"`
}

// Link is one hyperlink kept in a Summary.
type Link struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

// Summarize reduces raw HTML to its readable text and links. A non-empty
// selector limits the summary to the matching subtree; maxLinks caps the
// link list, zero keeps them all.
func Summarize(rawHTML, selector string, maxLinks int) (*Summary, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	summary := &Summary{
		Title: strings.TrimSpace(doc.Find("title").First().Text()),
	}

	root := doc.Find("body")
	if selector != "" {
		root = doc.Find(selector)
	}
	root.Find("script, style, noscript").Remove()

	summary.Text = collapseWhitespace(root.Text())

	root.Find("a[href]").EachWithBreak(func(i int, sel *goquery.Selection) bool {
		if maxLinks > 0 && len(summary.Links) >= maxLinks {
			return false
		}
		href, _ := sel.Attr("href")
		if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") {
			return true
		}
		summary.Links = append(summary.Links, Link{
			Text: collapseWhitespace(sel.Text()),
			URL:  href,
		})
		return true
	})

	return summary, nil
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
