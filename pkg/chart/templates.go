package chart

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// The backend ships tooltip rendering rules as source text in a small closed
// set of shapes. Classification maps a canonical body onto the matching
// template; nothing is ever evaluated as code.

func classify(body string) (Formatter, string, error) {
	hasScatter := strings.Contains(body, "'scatter'") || strings.Contains(body, `"scatter"`)
	hasRadar := strings.Contains(body, "'radar'") || strings.Contains(body, `"radar"`)

	switch {
	case hasScatter && strings.Contains(body, "data[0]") && strings.Contains(body, "data[1]"):
		return scatterXYFormatter(), "scatter-xy", nil
	case hasRadar:
		if data, ok := extractRadarData(body); ok {
			return radarEmbeddedFormatter(data), "radar-embedded-data", nil
		}
		return radarNamedValueFormatter(), "radar-named-value", nil
	}
	return nil, "", errUnknownFormatter
}

// scatterXYFormatter reproduces the scatter tooltip: series name as the
// variant, then the point's x (price) and y (review count), with the
// original's falsy-to-N/A display rule.
func scatterXYFormatter() Formatter {
	return func(params []Params) string {
		if len(params) == 0 {
			return ""
		}
		p := params[0]
		if p.SeriesType != "scatter" || len(p.Data) < 2 {
			return ""
		}
		return "变体：" + p.SeriesName +
			"<br/>价格：" + truthyValue(p.Data[0]) +
			"<br/>评论数：" + truthyValue(p.Data[1])
	}
}

// radarNamedValueFormatter is the plain radar rule: hovered indicator name
// and its value.
func radarNamedValueFormatter() Formatter {
	return func(params []Params) string {
		if len(params) == 0 {
			return ""
		}
		p := params[0]
		if p.SeriesType != "radar" || p.Name == "" {
			return ""
		}
		return nameValue(p)
	}
}

// radarData holds the per-indicator arrays the backend inlines into the
// radar formatter source.
type radarData struct {
	categories []string
	values     []float64
	avgRatings []float64
}

var (
	radarCategoriesRe = regexp.MustCompile(`var\s+categories\s*=\s*(\[.*?\])\s*;`)
	radarValuesRe     = regexp.MustCompile(`var\s+values\s*=\s*(\[.*?\])\s*;`)
	radarAvgRe        = regexp.MustCompile(`var\s+avgRatings\s*=\s*(\[.*?\])\s*;`)
)

// extractRadarData pulls the inlined categories/values/avgRatings arrays out
// of a radar formatter body. All three must be present and array-valued.
func extractRadarData(body string) (radarData, bool) {
	var d radarData

	m := radarCategoriesRe.FindStringSubmatch(body)
	if m == nil {
		return d, false
	}
	for _, v := range gjson.Parse(m[1]).Array() {
		d.categories = append(d.categories, v.String())
	}

	m = radarValuesRe.FindStringSubmatch(body)
	if m == nil {
		return d, false
	}
	for _, v := range gjson.Parse(m[1]).Array() {
		d.values = append(d.values, v.Float())
	}

	m = radarAvgRe.FindStringSubmatch(body)
	if m == nil {
		return d, false
	}
	for _, v := range gjson.Parse(m[1]).Array() {
		d.avgRatings = append(d.avgRatings, v.Float())
	}

	if len(d.categories) == 0 || len(d.values) != len(d.categories) || len(d.avgRatings) != len(d.categories) {
		return d, false
	}
	return d, true
}

// radarEmbeddedFormatter reproduces the data-carrying radar tooltip: variant
// name, review count and the average rating clamped to [1,5] with one
// decimal, keyed by the hovered indicator's name.
func radarEmbeddedFormatter(d radarData) Formatter {
	return func(params []Params) string {
		if len(params) == 0 {
			return ""
		}
		p := params[0]
		if p.SeriesType != "radar" || p.Name == "" {
			return ""
		}
		idx := -1
		for i, c := range d.categories {
			if c == p.Name {
				idx = i
				break
			}
		}
		if idx < 0 || idx >= len(d.values) || idx >= len(d.avgRatings) {
			return ""
		}
		rating := d.avgRatings[idx]
		if rating < 1 {
			rating = 1
		}
		if rating > 5 {
			rating = 5
		}
		return "变体名称：" + p.Name +
			"<br/>评论数量：" + strconv.FormatFloat(d.values[idx], 'f', -1, 64) +
			"<br/>平均星级：" + strconv.FormatFloat(rating, 'f', 1, 64)
	}
}

var tokenRe = regexp.MustCompile(`\{[abcd]\}`)

// isTokenTemplate reports whether text is a plain ECharts token template
// such as "{b}: {c} ({d}%)", as opposed to function source.
func isTokenTemplate(text string) bool {
	if !tokenRe.MatchString(text) {
		return false
	}
	return !strings.Contains(text, "return") &&
		!strings.Contains(text, "params") &&
		!strings.Contains(text, "function")
}

// tokenTemplateFormatter expands {a} {b} {c} {d} from the first entry.
func tokenTemplateFormatter(tmpl string) Formatter {
	return func(params []Params) string {
		if len(params) == 0 {
			return ""
		}
		p := params[0]
		out := strings.ReplaceAll(tmpl, "{a}", p.SeriesName)
		out = strings.ReplaceAll(out, "{b}", p.Name)
		out = strings.ReplaceAll(out, "{c}", formatValue(p.Value))
		out = strings.ReplaceAll(out, "{d}", strconv.FormatFloat(p.Percent, 'f', -1, 64))
		return out
	}
}
