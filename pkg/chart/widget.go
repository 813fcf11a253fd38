package chart

import (
	"sync"
	"time"
)

// Action is a command dispatched to a chart instance.
type Action struct {
	Type        string // "showTip" or "hideTip"
	SeriesIndex int
	DataIndex   int
}

// Instance is one live chart bound to a placeholder element.
type Instance interface {
	SetOption(option map[string]interface{})
	On(event string, handler func(params []Params))
	DispatchAction(a Action)
	Resize()
	Dispose()
}

// Renderer binds decoded chart options to a drawing surface. Serve mode
// bridges to a browser-side library; the CLI and tests use the headless
// renderer. Availability models the library not having loaded yet.
type Renderer interface {
	Available() bool
	Init(elementID string) Instance
}

// Widget is an activated chart: the corrected in-memory spec, its
// reconstructed formatter, and the live instance.
type Widget struct {
	ID   string
	Spec *Spec

	inst         Instance
	reissueDelay time.Duration

	mu        sync.Mutex
	formatter Formatter
	reissuing bool
	disposed  bool
}

func newWidget(id string, spec *Spec, f Formatter, inst Instance, reissueDelay time.Duration) *Widget {
	return &Widget{
		ID:           id,
		Spec:         spec,
		inst:         inst,
		formatter:    f,
		reissueDelay: reissueDelay,
	}
}

// Formatter invokes the widget's tooltip formatter.
func (w *Widget) Formatter(params []Params) string {
	w.mu.Lock()
	f := w.formatter
	w.mu.Unlock()
	if f == nil {
		return ""
	}
	return f(params)
}

// onTooltipShow suppresses multi-entry tooltips and re-issues a show scoped
// to the first entry's series/data index after a short delay. The reissuing
// flag keeps overlapping show events from cascading.
func (w *Widget) onTooltipShow(params []Params) {
	if len(params) <= 1 {
		return
	}
	w.mu.Lock()
	if w.reissuing || w.disposed {
		w.mu.Unlock()
		return
	}
	w.reissuing = true
	first := params[0]
	w.mu.Unlock()

	w.inst.DispatchAction(Action{Type: "hideTip"})

	time.AfterFunc(w.reissueDelay, func() {
		w.mu.Lock()
		disposed := w.disposed
		w.reissuing = false
		w.mu.Unlock()
		if disposed {
			return
		}
		w.inst.DispatchAction(Action{
			Type:        "showTip",
			SeriesIndex: first.SeriesIndex,
			DataIndex:   first.DataIndex,
		})
	})
}

func (w *Widget) Resize() {
	w.mu.Lock()
	disposed := w.disposed
	w.mu.Unlock()
	if !disposed {
		w.inst.Resize()
	}
}

// Dispose releases the instance; further resize or tooltip events are
// ignored.
func (w *Widget) Dispose() {
	w.mu.Lock()
	if w.disposed {
		w.mu.Unlock()
		return
	}
	w.disposed = true
	w.mu.Unlock()
	w.inst.Dispose()
}
