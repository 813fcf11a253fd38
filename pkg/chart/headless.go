package chart

import "sync"

// HeadlessRenderer is the in-process Renderer used by the CLI and tests. It
// records options and dispatched actions and can replay events to handlers.
type HeadlessRenderer struct{}

func NewHeadlessRenderer() *HeadlessRenderer { return &HeadlessRenderer{} }

func (r *HeadlessRenderer) Available() bool { return true }

func (r *HeadlessRenderer) Init(elementID string) Instance {
	return &HeadlessInstance{ElementID: elementID}
}

type HeadlessInstance struct {
	ElementID string

	mu       sync.Mutex
	option   map[string]interface{}
	handlers map[string][]func(params []Params)
	actions  []Action
	resizes  int
	disposed bool
}

func (h *HeadlessInstance) SetOption(option map[string]interface{}) {
	h.mu.Lock()
	h.option = option
	h.mu.Unlock()
}

func (h *HeadlessInstance) On(event string, handler func(params []Params)) {
	h.mu.Lock()
	if h.handlers == nil {
		h.handlers = make(map[string][]func(params []Params))
	}
	h.handlers[event] = append(h.handlers[event], handler)
	h.mu.Unlock()
}

// Emit replays an event to the registered handlers (test hook).
func (h *HeadlessInstance) Emit(event string, params []Params) {
	h.mu.Lock()
	hs := append([]func(params []Params){}, h.handlers[event]...)
	h.mu.Unlock()
	for _, fn := range hs {
		fn(params)
	}
}

func (h *HeadlessInstance) DispatchAction(a Action) {
	h.mu.Lock()
	h.actions = append(h.actions, a)
	h.mu.Unlock()
}

func (h *HeadlessInstance) Actions() []Action {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Action{}, h.actions...)
}

func (h *HeadlessInstance) Option() map[string]interface{} {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.option
}

func (h *HeadlessInstance) Resizes() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.resizes
}

func (h *HeadlessInstance) Resize() {
	h.mu.Lock()
	h.resizes++
	h.mu.Unlock()
}

func (h *HeadlessInstance) Dispose() {
	h.mu.Lock()
	h.disposed = true
	h.mu.Unlock()
}

func (h *HeadlessInstance) Disposed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.disposed
}
