package logging

import (
	"log/slog"
	"strings"
)

type infoField struct {
	label string
	value string
}

// Keys rendered first, in this order, when present.
var infoHighlightKeys = []string{
	FieldEventType,
	"error",
	FieldErrorHint,
	FieldImpact,
	"image",
	"transcription",
	"manifest",
	"target",
	"lines",
	"skipped",
	"images",
	"directories",
	"elapsed",
}

// selectFields orders attributes for display. Debug-only keys such as the run
// ID are only rendered for debug records.
func selectFields(attrs []kv, includeDebug bool) []infoField {
	if len(attrs) == 0 {
		return nil
	}
	used := make([]bool, len(attrs))
	result := make([]infoField, 0, len(attrs))

	for _, key := range infoHighlightKeys {
		for idx, attr := range attrs {
			if used[idx] || attr.key != key {
				continue
			}
			used[idx] = true
			if !includeDebug && isDebugOnlyKey(attr.key) {
				break
			}
			result = append(result, infoField{label: displayLabel(attr.key), value: formatValueForKey(attr.value)})
			break
		}
	}

	for idx, attr := range attrs {
		if used[idx] || attr.key == "" {
			continue
		}
		if !includeDebug && isDebugOnlyKey(attr.key) {
			continue
		}
		result = append(result, infoField{label: displayLabel(attr.key), value: formatValueForKey(attr.value)})
	}
	return result
}

func formatValueForKey(v slog.Value) string {
	v = v.Resolve()
	if v.Kind() == slog.KindBool {
		if v.Bool() {
			return "yes"
		}
		return "no"
	}
	return formatValue(v)
}

func isDebugOnlyKey(key string) bool {
	return key == FieldRunID || strings.HasSuffix(key, "_id")
}

func displayLabel(key string) string {
	switch key {
	case FieldEventType:
		return "Event"
	case FieldErrorHint:
		return "Hint"
	case FieldRunID:
		return "Run"
	default:
		return titleizeKey(key)
	}
}

func titleizeKey(key string) string {
	if key == "" {
		return ""
	}
	parts := strings.FieldsFunc(key, func(r rune) bool {
		return r == '_' || r == '-' || r == '.'
	})
	for i, part := range parts {
		parts[i] = capitalizeASCII(part)
	}
	return strings.Join(parts, " ")
}

func capitalizeASCII(value string) string {
	switch len(value) {
	case 0:
		return ""
	case 1:
		return strings.ToUpper(value)
	default:
		lower := strings.ToLower(value)
		return strings.ToUpper(lower[:1]) + lower[1:]
	}
}
