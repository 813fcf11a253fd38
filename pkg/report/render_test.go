package report

import (
	"strings"
	"testing"

	"github.com/shopeetools/revscope/pkg/chart"
)

func TestRenderWrapsVerbatim(t *testing.T) {
	r := NewRenderer(chart.NewEngine(chart.NewHeadlessRenderer(), nil))
	fragment := `<h1>分析报告</h1><p class="x">第 1 段 &amp; 第 2 段</p>`

	out, charts, err := r.Render(fragment)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if charts != 0 {
		t.Fatalf("charts = %d, want 0", charts)
	}
	if !strings.Contains(out, `<div class="report-content">`) {
		t.Fatal("missing report container")
	}
	if !strings.Contains(out, fragment) {
		t.Fatalf("fragment not preserved verbatim:\n%s", out)
	}
}

func TestRenderActivatesCharts(t *testing.T) {
	r := NewRenderer(chart.NewEngine(chart.NewHeadlessRenderer(), nil))
	fragment := `<div id="c1" data-echarts-chart="{&quot;series&quot;:[{&quot;type&quot;:&quot;pie&quot;}]}"></div>`

	out, charts, err := r.Render(fragment)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if charts != 1 {
		t.Fatalf("charts = %d, want 1", charts)
	}
	if !strings.Contains(out, chart.OptionAttr) {
		t.Fatal("activated chart should carry the corrected option attribute")
	}
}

func TestRenderNilEngine(t *testing.T) {
	r := NewRenderer(nil)
	out, charts, err := r.Render("<p>ok</p>")
	if err != nil || charts != 0 || !strings.Contains(out, "<p>ok</p>") {
		t.Fatalf("out=%q charts=%d err=%v", out, charts, err)
	}
}
