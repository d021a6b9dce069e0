// internal/migrate/migrate.go
package migrate

import (
	"encoding/json"
	"fmt"
)

// CurrentVersion is the schema version written by this build.
const CurrentVersion = 5

// Step upgrades a state from one version to the next. Steps only backfill
// absent fields, so applying a step twice is the same as applying it once.
type Step func(state map[string]any) map[string]any

// Steps is keyed by the version a step upgrades from.
var Steps = map[int]Step{
	0: v0ToV1,
	1: v1ToV2,
	2: v2ToV3,
	3: v3ToV4,
	4: v4ToV5,
}

// Run applies every step from version `from` up to CurrentVersion. The input
// map is not modified. States newer than CurrentVersion are returned as is.
func Run(state map[string]any, from int) (map[string]any, int) {
	out := deepCopy(state)
	if from < 0 {
		from = 0
	}
	for v := from; v < CurrentVersion; v++ {
		out = Steps[v](out)
	}
	if from > CurrentVersion {
		return out, from
	}
	return out, CurrentVersion
}

// Decode migrates raw JSON state and unmarshals it into dst.
func Decode(raw []byte, from int, dst any) (int, error) {
	var state map[string]any
	if err := json.Unmarshal(raw, &state); err != nil {
		return from, fmt.Errorf("decode state: %w", err)
	}
	if state == nil {
		state = map[string]any{}
	}
	migrated, version := Run(state, from)
	data, err := json.Marshal(migrated)
	if err != nil {
		return from, fmt.Errorf("encode migrated state: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return from, fmt.Errorf("decode migrated state: %w", err)
	}
	return version, nil
}

// v0 → v1: structured research fields and the module shape.
func v0ToV1(s map[string]any) map[string]any {
	setDefault(s, "topicLandscapeStructured", nil)
	setDefault(s, "suggestedModulesStructured", nil)

	mods, _ := s["modules"].([]any)
	out := make([]any, 0, len(mods))
	for _, item := range mods {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		for _, k := range []string{"proposal", "content", "prerequisites", "coreConcepts", "lessonPlan"} {
			setDefault(m, k, nil)
		}
		if _, ok := m["status"]; !ok {
			m["status"] = "pending"
		}
		out = append(out, m)
	}
	s["modules"] = out
	return s
}

// v1 → v2: mode and the enhance-mode fields.
func v1ToV2(s map[string]any) map[string]any {
	setDefault(s, "mode", "create")
	setDefault(s, "analysisReportRaw", nil)
	setDefault(s, "analysisReportStructured", nil)
	setDefault(s, "whatsNewContent", nil)
	setDefault(s, "enhancementProposals", []any{})
	setDefault(s, "changes", []any{})
	setDefault(s, "changelog", []any{})
	setDefault(s, "enhancePhase", float64(0))
	return s
}

// v2 → v3: gap and strength actions, whatsNewItems.
func v2ToV3(s map[string]any) map[string]any {
	setDefault(s, "whatsNewItems", nil)
	report, ok := s["analysisReportStructured"].(map[string]any)
	if !ok {
		return s
	}
	eachObject(report["gaps"], func(g map[string]any) { setDefault(g, "action", "include") })
	eachObject(report["strengths"], func(st map[string]any) { setDefault(st, "action", "keep") })
	return s
}

// v3 → v4: included flags on landscape items.
func v3ToV4(s map[string]any) map[string]any {
	landscape, ok := s["topicLandscapeStructured"].(map[string]any)
	if !ok {
		return s
	}
	for _, key := range []string{"trends", "tools", "resources"} {
		eachObject(landscape[key], func(item map[string]any) {
			if _, isBool := item["included"].(bool); !isBool {
				item["included"] = true
			}
		})
	}
	return s
}

// v4 → v5: lesson order and enabled flags, change feedback and status.
func v4ToV5(s map[string]any) map[string]any {
	mods, _ := s["modules"].([]any)
	for _, item := range mods {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		plan, ok := m["lessonPlan"].(map[string]any)
		if !ok {
			continue
		}
		lessons, _ := plan["lessons"].([]any)
		for i, l := range lessons {
			lesson, ok := l.(map[string]any)
			if !ok {
				continue
			}
			if _, isNum := lesson["order"].(float64); !isNum {
				lesson["order"] = float64(i + 1)
			}
			if _, isBool := lesson["enabled"].(bool); !isBool {
				lesson["enabled"] = true
			}
		}
		eachObject(plan["activities"], func(a map[string]any) {
			if _, isBool := a["enabled"].(bool); !isBool {
				a["enabled"] = true
			}
		})
	}

	eachObject(s["changes"], func(c map[string]any) {
		setDefault(c, "feedback", "")
		if st, _ := c["status"].(string); st == "" {
			c["status"] = "pending"
		}
	})
	return s
}

// setDefault sets key when it is absent. Present null values are kept.
func setDefault(m map[string]any, key string, value any) {
	if _, ok := m[key]; !ok {
		m[key] = value
	}
}

func eachObject(v any, fn func(map[string]any)) {
	list, _ := v.([]any)
	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			fn(m)
		}
	}
}

func deepCopy(state map[string]any) map[string]any {
	if state == nil {
		return map[string]any{}
	}
	return copyValue(state).(map[string]any)
}

func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = copyValue(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = copyValue(val)
		}
		return out
	default:
		return v
	}
}
