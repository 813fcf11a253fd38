package chart

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Params mirrors the argument a charting library passes to a tooltip
// formatter for one hovered series entry.
type Params struct {
	SeriesName  string
	SeriesType  string
	SeriesIndex int
	DataIndex   int
	Name        string
	Value       interface{}
	Data        []interface{}
	Percent     float64
}

// Formatter renders tooltip text for a hovered point. A single entry is a
// one-element slice; axis-triggered tooltips pass one entry per series.
type Formatter func(params []Params) string

var errUnknownFormatter = errors.New("无法识别的 tooltip formatter")

// ReconstructFormatter turns serialized formatter source into a live
// Formatter. The source arrives double-encoded: HTML entities from the
// attribute embedding, then literal escape sequences from JSON stringing.
// After both decodes, the source is matched against the closed set of
// formatter templates the backend emits instead of being evaluated as code.
// The returned tag names the matched template.
func ReconstructFormatter(src string) (Formatter, string, error) {
	text := DecodeEntities(src)
	text = UnescapeLiterals(text)

	f, tag, err := compile(text)
	if err != nil {
		// Entity decoding alone may not have surfaced the escapes; force the
		// literal conversion and dispatch once more.
		f, tag, err = compile(literalEscapes.Replace(text))
	}
	if err != nil {
		return nil, "", err
	}
	return f, tag, nil
}

// compile dispatches on the leading token: a function definition is treated
// as a parenthesized expression, an opening paren or brace directly, and
// anything else as a return-wrapped expression. The resulting canonical body
// is then classified against the template set.
func compile(text string) (Formatter, string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, "", errUnknownFormatter
	}

	var body string
	switch {
	case strings.HasPrefix(trimmed, "function"):
		body = functionBody(trimmed)
	case strings.HasPrefix(trimmed, "(") || strings.HasPrefix(trimmed, "{"):
		if isTokenTemplate(trimmed) {
			return tokenTemplateFormatter(trimmed), "token", nil
		}
		body = functionBody(trimmed)
	default:
		if isTokenTemplate(trimmed) {
			return tokenTemplateFormatter(trimmed), "token", nil
		}
		body = "return " + trimmed
	}

	return classify(body)
}

// functionBody isolates the statement body of a function-shaped source:
// everything between the first opening brace and its matching close. Arrow
// bodies without braces fall through unchanged.
func functionBody(src string) string {
	if idx := strings.Index(src, "=>"); idx >= 0 {
		src = strings.TrimSpace(src[idx+2:])
	}
	open := strings.Index(src, "{")
	end := strings.LastIndex(src, "}")
	if open >= 0 && end > open {
		return src[open+1 : end]
	}
	return src
}

// formatValue renders a JSON-decoded scalar for tooltip display.
func formatValue(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return "N/A"
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprintf("%v", x)
	}
}

// truthyValue mirrors the original formatters' `x || 'N/A'` display rule:
// zero and empty values render as N/A.
func truthyValue(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return "N/A"
	case string:
		if x == "" {
			return "N/A"
		}
		return x
	case float64:
		if x == 0 {
			return "N/A"
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return formatValue(v)
	}
}

func nameValue(p Params) string {
	return p.Name + ": " + formatValue(p.Value)
}

// DefaultFormatter is used when reconstruction fails entirely. It covers the
// two chart families whose tooltips the backend customizes.
func DefaultFormatter(params []Params) string {
	if len(params) == 0 {
		return ""
	}
	p := params[0]
	switch p.SeriesType {
	case "scatter":
		if len(p.Data) >= 2 && isNumeric(p.Data[0]) && isNumeric(p.Data[1]) {
			return "变体：" + p.SeriesName +
				"<br/>价格：" + formatValue(p.Data[0]) +
				"<br/>评论数：" + formatValue(p.Data[1])
		}
	case "radar":
		return nameValue(p)
	}
	return ""
}

func isNumeric(v interface{}) bool {
	_, ok := v.(float64)
	return ok
}

// WrapRadarFirstEntry passes only the first entry through when the formatter
// is invoked with a collection. Radar series share a category axis, so the
// library otherwise reports every series under the hovered point.
func WrapRadarFirstEntry(f Formatter) Formatter {
	return func(params []Params) string {
		if len(params) > 1 {
			params = params[:1]
		}
		return f(params)
	}
}

// radarCorrectionFormatter renders from the first entry only, delegating to
// prev when it exists and the point is radar-type.
func radarCorrectionFormatter(prev Formatter) Formatter {
	return func(params []Params) string {
		if len(params) == 0 {
			return ""
		}
		p := params[0]
		if prev != nil && p.SeriesType == "radar" {
			return prev(params[:1])
		}
		return nameValue(p)
	}
}
