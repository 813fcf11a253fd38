package chart

import (
	"encoding/json"
	"fmt"
)

// Attr is the placeholder attribute carrying the serialized chart option.
const Attr = "data-echarts-chart"

// Spec is a decoded chart specification. The DOM-embedded original is never
// touched; all corrections apply to this in-memory copy.
type Spec struct {
	Option map[string]interface{}
}

// ParseSpec decodes a serialized specification: entity decode first, then
// JSON. The serialized text is read-only input.
func ParseSpec(serialized string) (*Spec, error) {
	decoded := DecodeEntities(serialized)

	var option map[string]interface{}
	if err := json.Unmarshal([]byte(decoded), &option); err != nil {
		return nil, fmt.Errorf("图表配置解析失败: %w", err)
	}
	return &Spec{Option: option}, nil
}

// FormatterSource returns the tooltip formatter field when it is present and
// serialized as text. A missing or non-text field reports false.
func (s *Spec) FormatterSource() (string, bool) {
	tooltip, ok := s.Option["tooltip"].(map[string]interface{})
	if !ok {
		return "", false
	}
	src, ok := tooltip["formatter"].(string)
	return src, ok
}

// HasRadarSeries reports whether any series in the specification is
// radar-type.
func (s *Spec) HasRadarSeries() bool {
	switch series := s.Option["series"].(type) {
	case []interface{}:
		for _, item := range series {
			if m, ok := item.(map[string]interface{}); ok {
				if t, _ := m["type"].(string); t == "radar" {
					return true
				}
			}
		}
	case map[string]interface{}:
		if t, _ := series["type"].(string); t == "radar" {
			return true
		}
	}
	return false
}

// tooltipMap returns the tooltip sub-object, creating it if needed.
func (s *Spec) tooltipMap() map[string]interface{} {
	tooltip, ok := s.Option["tooltip"].(map[string]interface{})
	if !ok {
		tooltip = map[string]interface{}{}
		s.Option["tooltip"] = tooltip
	}
	return tooltip
}

// MarshalOption serializes the (possibly corrected) option back to JSON.
func (s *Spec) MarshalOption() (string, error) {
	b, err := json.Marshal(s.Option)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
