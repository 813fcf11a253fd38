package client

import (
	"sync"

	"github.com/tidwall/gjson"
)

// Result is the analysis payload returned by the backend. It is kept as the
// raw response body and treated as immutable; fields are read through gjson
// paths so unknown parts of the payload pass through untouched.
type Result struct {
	raw []byte
}

func NewResult(raw []byte) *Result {
	return &Result{raw: raw}
}

func (r *Result) Raw() []byte { return r.raw }

func (r *Result) TotalReviews() int64 {
	return gjson.GetBytes(r.raw, "analysis.rating.total_reviews").Int()
}

func (r *Result) AverageRating() float64 {
	return gjson.GetBytes(r.raw, "analysis.rating.average_rating").Float()
}

// ratingDisplay returns the rating fields exactly as the backend wrote them,
// for log display ("4.3" stays "4.3", never "4.30").
func (r *Result) ratingDisplay() (total, avg string) {
	return gjson.GetBytes(r.raw, "analysis.rating.total_reviews").String(),
		gjson.GetBytes(r.raw, "analysis.rating.average_rating").String()
}

func (r *Result) HTMLReport() string {
	return gjson.GetBytes(r.raw, "html_report").String()
}

// Site and ProductID come from the backend's filename parse and feed the
// export filename. product_id may arrive as a string or a number.
func (r *Result) Site() string {
	return gjson.GetBytes(r.raw, "file_info.site").String()
}

func (r *Result) ProductID() string {
	return gjson.GetBytes(r.raw, "file_info.product_id").String()
}

// Holder owns the current result. Exactly one result is held at a time;
// a later successful analysis replaces it wholesale.
type Holder struct {
	mu  sync.Mutex
	cur *Result
}

func (h *Holder) Replace(r *Result) {
	h.mu.Lock()
	h.cur = r
	h.mu.Unlock()
}

func (h *Holder) Current() *Result {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cur
}
