// internal/blocks/text.go
package blocks

import (
	"regexp"
	"strings"
)

var (
	numberedLine  = regexp.MustCompile(`^\d+\.\s*\*?\*?([^*\n-]+)`)
	modulePrefix  = regexp.MustCompile(`(?i)^Module\s+\d+:\s*`)
	sectionTwo    = regexp.MustCompile(`(?i)## SECTION 2:`)
	sectionOneHdr = regexp.MustCompile(`(?i)## SECTION 1:\s*`)
)

// ParseModuleNames reads module names from a numbered markdown list. It is
// the fallback when a reply carried no json-modules block. A "Module N:"
// prefix is dropped and the name is cut at the first colon.
func ParseModuleNames(text string) []string {
	var names []string
	for _, line := range strings.Split(text, "\n") {
		m := numberedLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		name := strings.TrimSpace(m[1])
		name = modulePrefix.ReplaceAllString(name, "")
		if i := strings.Index(name, ":"); i > 0 && i < len(name)-1 {
			name = strings.TrimSpace(name[:i])
		}
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}

// SplitResearch separates the display text of a research reply into the
// landscape section and the suggested-modules section.
func SplitResearch(display string) (landscape, modules string) {
	parts := sectionTwo.Split(display, 2)
	landscape = strings.TrimSpace(sectionOneHdr.ReplaceAllString(parts[0], ""))
	if len(parts) > 1 {
		modules = strings.TrimSpace(parts[1])
	}
	return landscape, modules
}
