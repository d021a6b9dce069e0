// internal/blocks/codec.go
package blocks

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Tags emitted by the generation prompts.
const (
	TagLandscape = "landscape"
	TagModules   = "modules"
	TagAnalysis  = "analysis"
	TagWhatsNew  = "whatsnew"
	TagChange    = "change"
)

// KnownTags is the fixed block vocabulary.
var KnownTags = []string{TagLandscape, TagModules, TagAnalysis, TagWhatsNew, TagChange}

var (
	// the empty-body alternative comes first so an empty block never runs
	// on into a later fence
	anyFence  = regexp.MustCompile("(?is)```json-[a-z0-9_-]+[ \\t]*\\r?\\n(?:```|.*?\\n```)")
	anyMarker = regexp.MustCompile(`(?is)<!--\s*json-[a-z0-9_-]+\s*-->`)
	tagName   = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
)

func fenceFor(tag string) *regexp.Regexp {
	return regexp.MustCompile("(?is)```json-" + regexp.QuoteMeta(tag) + "[ \\t]*\\r?\\n(?:```|(.*?)\\n```)")
}

func markerFor(tag string) *regexp.Regexp {
	return regexp.MustCompile(`(?is)<!--\s*json-` + regexp.QuoteMeta(tag) + `\s*-->`)
}

// Extract returns the parsed JSON payload of the first json-<tag> block.
// A fenced block wins over the marker-comment form; a fenced block with an
// unparsable body yields (nil, false) without trying the marker.
func Extract(markdown, tag string) (any, bool) {
	if !tagName.MatchString(tag) {
		return nil, false
	}

	if m := fenceFor(tag).FindStringSubmatch(markdown); m != nil {
		return decode(m[1])
	}

	loc := markerFor(tag).FindStringIndex(markdown)
	if loc == nil {
		return nil, false
	}
	body := markdown[loc[1]:]
	if end := strings.Index(body, "<!--"); end >= 0 {
		body = body[:end]
	}
	return decode(body)
}

func decode(body string) (any, bool) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, false
	}
	var v any
	if err := json.Unmarshal([]byte(body), &v); err != nil {
		return nil, false
	}
	return v, true
}

// Strip removes every json-* fenced block and every marker-comment block
// (the marker through the next "<!--" or end of text), then trims.
func Strip(markdown string) string {
	out := anyFence.ReplaceAllString(markdown, "")

	for {
		loc := anyMarker.FindStringIndex(out)
		if loc == nil {
			break
		}
		rest := out[loc[1]:]
		end := len(out)
		if i := strings.Index(rest, "<!--"); i >= 0 {
			end = loc[1] + i
		}
		out = out[:loc[0]] + out[end:]
	}
	return strings.TrimSpace(out)
}

// Split is Strip plus Extract for one tag.
func Split(markdown, tag string) (display string, payload any, ok bool) {
	payload, ok = Extract(markdown, tag)
	return Strip(markdown), payload, ok
}

var firstObject = regexp.MustCompile(`(?s)\{.*\}`)

// ParseJSONObject decodes the first "{...}" span of a non-streaming reply.
func ParseJSONObject(text string) (map[string]any, bool) {
	span := firstObject.FindString(text)
	if span == "" {
		return nil, false
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(span), &obj); err != nil {
		return nil, false
	}
	return obj, true
}
