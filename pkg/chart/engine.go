package chart

import (
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Logger abstracts logging so callers can pass the activity log, logrus, or
// anything else satisfying it.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}

const (
	// DefaultRetryDelay is the single best-effort wait for the renderer to
	// become available.
	DefaultRetryDelay = 100 * time.Millisecond

	// DefaultReissueDelay is the pause before a suppressed multi-entry
	// tooltip is re-issued for its first entry.
	DefaultReissueDelay = 50 * time.Millisecond

	// Tag attributes added next to the original placeholder attribute: the
	// corrected option and the name of the matched formatter template. The
	// original serialized specification is left untouched.
	OptionAttr       = "data-chart-option"
	FormatterTagAttr = "data-tooltip-template"
	errorHTML        = `<div class="chart-error">图表加载失败</div>`
	defaultFormatTag = "default"
)

// Engine turns serialized chart placeholders in a rendered report into live
// widgets, correcting multi-series tooltip leakage on radar charts.
type Engine struct {
	renderer     Renderer
	log          Logger
	RetryDelay   time.Duration
	ReissueDelay time.Duration

	widgets []*Widget
}

func NewEngine(renderer Renderer, log Logger) *Engine {
	if log == nil {
		log = nopLogger{}
	}
	return &Engine{
		renderer:     renderer,
		log:          log,
		RetryDelay:   DefaultRetryDelay,
		ReissueDelay: DefaultReissueDelay,
	}
}

// Activate processes every placeholder in doc and returns the number of
// charts brought up. Activating a new report disposes the widgets of the
// previous one. A failure in one placeholder never aborts its siblings.
func (e *Engine) Activate(doc *goquery.Document) int {
	if !e.available() {
		time.Sleep(e.RetryDelay)
		if !e.available() {
			e.log.Warnf("图表库未加载，跳过图表渲染")
			return 0
		}
	}

	e.DisposeAll()

	count := 0
	doc.Find("[" + Attr + "]").Each(func(i int, sel *goquery.Selection) {
		if e.activateOne(i, sel) {
			count++
		}
	})
	if count > 0 {
		e.log.Infof("已渲染 %d 个交互式图表", count)
	}
	return count
}

func (e *Engine) available() bool {
	return e.renderer != nil && e.renderer.Available()
}

func (e *Engine) activateOne(i int, sel *goquery.Selection) (activated bool) {
	// Containment: nothing escaping one placeholder may reach its siblings.
	defer func() {
		if r := recover(); r != nil {
			e.log.Errorf("图表渲染异常: %v", r)
			activated = false
		}
	}()

	raw, ok := sel.Attr(Attr)
	if !ok || strings.TrimSpace(raw) == "" {
		return false
	}

	spec, err := ParseSpec(raw)
	if err != nil {
		e.log.Warnf("%s", err)
		sel.ReplaceWithHtml(errorHTML)
		return false
	}

	id, ok := sel.Attr("id")
	if !ok || id == "" {
		id = fmt.Sprintf("chart-%d", i)
	}

	formatter, tag := e.reconstruct(spec)

	inst := e.renderer.Init(id)
	w := newWidget(id, spec, formatter, inst, e.ReissueDelay)

	if spec.HasRadarSeries() {
		e.correctRadarTooltip(spec, w)
	}

	inst.SetOption(spec.Option)

	// The original serialized spec stays as-is; the corrected copy and the
	// matched template ride along for downstream consumers.
	if encoded, err := spec.MarshalOption(); err == nil {
		sel.SetAttr(OptionAttr, encoded)
	}
	if tag != "" {
		sel.SetAttr(FormatterTagAttr, tag)
	}

	e.widgets = append(e.widgets, w)
	return true
}

// reconstruct rebuilds the tooltip formatter when the spec carries one as
// text. Reconstruction failure degrades to the default formatter, never to a
// failed chart.
func (e *Engine) reconstruct(spec *Spec) (Formatter, string) {
	src, ok := spec.FormatterSource()
	if !ok {
		return nil, ""
	}

	f, tag, err := ReconstructFormatter(src)
	if err != nil {
		e.log.Warnf("tooltip formatter 解析失败，使用默认格式")
		f, tag = DefaultFormatter, defaultFormatTag
	}
	if spec.HasRadarSeries() {
		f = WrapRadarFirstEntry(f)
	}
	return f, tag
}

// correctRadarTooltip forces per-item triggering and first-entry-only
// rendering, and watches tooltip-show events so an axis-grouped multi-entry
// tooltip is suppressed and re-issued for its first entry.
func (e *Engine) correctRadarTooltip(spec *Spec, w *Widget) {
	tooltip := spec.tooltipMap()
	tooltip["trigger"] = "item"
	tooltip["confine"] = true
	axisPointer, ok := tooltip["axisPointer"].(map[string]interface{})
	if !ok {
		axisPointer = map[string]interface{}{}
		tooltip["axisPointer"] = axisPointer
	}
	axisPointer["type"] = "none"

	w.mu.Lock()
	w.formatter = radarCorrectionFormatter(w.formatter)
	w.mu.Unlock()

	w.inst.On("showTip", w.onTooltipShow)
}

// Resize re-lays-out every live widget (viewport change).
func (e *Engine) Resize() {
	for _, w := range e.widgets {
		w.Resize()
	}
}

// Widgets returns the widgets of the current activation.
func (e *Engine) Widgets() []*Widget {
	return append([]*Widget{}, e.widgets...)
}

// DisposeAll releases every widget and its subscriptions.
func (e *Engine) DisposeAll() {
	for _, w := range e.widgets {
		w.Dispose()
	}
	e.widgets = nil
}
