// Package report injects backend-produced report markup into a document and
// triggers chart activation over it. The markup is trusted verbatim; the
// only change is the wrapping container.
package report

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/shopeetools/revscope/pkg/chart"
)

// ContainerClass wraps every rendered report fragment.
const ContainerClass = "report-content"

type Renderer struct {
	engine *chart.Engine
}

func NewRenderer(engine *chart.Engine) *Renderer {
	return &Renderer{engine: engine}
}

// Render wraps the markup fragment in the report container, activates the
// charts inside it, and returns the resulting document body along with the
// number of charts activated.
func (r *Renderer) Render(htmlReport string) (string, int, error) {
	wrapped := `<div class="` + ContainerClass + `">` + htmlReport + `</div>`
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(wrapped))
	if err != nil {
		return "", 0, fmt.Errorf("报告解析失败: %w", err)
	}

	charts := 0
	if r.engine != nil {
		charts = r.engine.Activate(doc)
	}

	out, err := doc.Find("body").Html()
	if err != nil {
		return "", charts, err
	}
	return out, charts, nil
}
