package scraper

import (
	"fmt"
	"io"
	"strings"

	"cfscaffold/internal/logging"
	"cfscaffold/internal/types"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

const (
	sampleSelector = ".sample-test"
	inputSelector  = ".input pre"
	outputSelector = ".output pre"
)

// Extract returns the sample tests of a problem page in document order.
// Inside each sample block the i-th input is paired with the i-th output;
// sections without a partner are dropped. With keepMarkup the raw inner HTML
// of each <pre> is returned, otherwise it is decoded to plain text.
func Extract(r io.Reader, keepMarkup bool) ([]types.SampleTest, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}
	doc := goquery.NewDocumentFromNode(root)

	var (
		samples []types.SampleTest
		walkErr error
	)
	doc.Find(sampleSelector).EachWithBreak(func(block int, sel *goquery.Selection) bool {
		inputs := sel.Find(inputSelector)
		outputs := sel.Find(outputSelector)

		n := inputs.Length()
		if outputs.Length() != n {
			logging.ScrapeWarn("sample block %d has %d input(s) and %d output(s), keeping %d pair(s)",
				block, inputs.Length(), outputs.Length(), min(n, outputs.Length()))
			n = min(n, outputs.Length())
		}

		for i := 0; i < n; i++ {
			in, err := sectionText(inputs.Eq(i), keepMarkup)
			if err != nil {
				walkErr = err
				return false
			}
			out, err := sectionText(outputs.Eq(i), keepMarkup)
			if err != nil {
				walkErr = err
				return false
			}
			samples = append(samples, types.SampleTest{Input: in, Output: out})
		}
		return true
	})
	if walkErr != nil {
		return nil, walkErr
	}

	return samples, nil
}

func sectionText(sel *goquery.Selection, keepMarkup bool) (string, error) {
	if keepMarkup {
		markup, err := sel.Html()
		if err != nil {
			return "", fmt.Errorf("failed to render sample markup: %w", err)
		}
		return markup, nil
	}

	var sb strings.Builder
	for _, n := range sel.Nodes {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			writeText(c, &sb, 0)
		}
	}
	return sb.String(), nil
}

// writeText flattens a <pre> subtree. Each line wrapper (<div>, <p>) and
// each <br> ends exactly one line, so empty wrappers keep blank lines. The
// parser has already unescaped entities in text nodes.
func writeText(n *html.Node, sb *strings.Builder, depth int) {
	if depth > 32 {
		return
	}

	switch n.Type {
	case html.TextNode:
		sb.WriteString(n.Data)
		return
	case html.ElementNode:
		switch n.Data {
		case "br":
			sb.WriteByte('\n')
			return
		case "script", "style":
			return
		}
	default:
		return
	}

	start := sb.Len()
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeText(c, sb, depth+1)
	}

	// Every line wrapper is one line, empty ones included.
	if n.Data == "div" || n.Data == "p" {
		if line := sb.String()[start:]; !strings.HasSuffix(line, "\n") {
			sb.WriteByte('\n')
		}
	}
}
