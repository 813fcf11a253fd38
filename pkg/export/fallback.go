package export

import (
	"strings"

	"golang.org/x/net/html"
)

// FallbackDocument wraps a report fragment into a complete, self-contained
// HTML document with minimal styling, used when the PDF endpoint is
// unavailable. The fragment is embedded verbatim.
func FallbackDocument(fragment string) string {
	title := fragmentTitle(fragment)
	if title == "" {
		title = "Shopee竞品评价分析报告"
	}

	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html lang=\"zh-CN\">\n<head>\n")
	b.WriteString("<meta charset=\"UTF-8\">\n")
	b.WriteString("<meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	b.WriteString("<title>")
	b.WriteString(html.EscapeString(title))
	b.WriteString("</title>\n<style>\n")
	b.WriteString(`body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", "Microsoft YaHei", "SimHei", Arial, sans-serif; margin: 0; padding: 20px; background: #f5f5f5; }
.report-content { max-width: 1200px; margin: 0 auto; background: #fff; padding: 24px; border-radius: 8px; }
.chart-container img { max-width: 100%; }
`)
	b.WriteString("</style>\n</head>\n<body>\n<div class=\"report-content\">\n")
	b.WriteString(fragment)
	b.WriteString("\n</div>\n</body>\n</html>\n")
	return b.String()
}

// fragmentTitle picks the first heading out of the fragment for the document
// title.
func fragmentTitle(fragment string) string {
	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return ""
	}
	return findHeading(doc)
}

func findHeading(n *html.Node) string {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "h1", "h2":
			if n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
				return strings.TrimSpace(n.FirstChild.Data)
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if title := findHeading(c); title != "" {
			return title
		}
	}
	return ""
}
