package http

import (
	"strings"
)

// ParseLinkHeader parses an RFC 8288 Link header into a map from relation to
// target URL. Entries that are not of the form <url>; rel="..." are skipped.
// A link with several space separated relations is recorded under each.
func ParseLinkHeader(header string) map[string]string {
	links := make(map[string]string)

	for _, part := range splitLinks(header) {
		segments := strings.Split(part, ";")

		target := strings.TrimSpace(segments[0])
		if len(target) < 2 || target[0] != '<' || target[len(target)-1] != '>' {
			continue
		}

		target = strings.TrimSpace(target[1 : len(target)-1])
		if target == "" {
			continue
		}

		for _, param := range segments[1:] {
			key, value, ok := strings.Cut(strings.TrimSpace(param), "=")
			if !ok || !strings.EqualFold(strings.TrimSpace(key), "rel") {
				continue
			}

			value = strings.Trim(strings.TrimSpace(value), `"`)
			for _, rel := range strings.Fields(value) {
				rel = strings.ToLower(rel)
				if _, seen := links[rel]; !seen {
					links[rel] = target
				}
			}
		}
	}

	return links
}

// splitLinks splits on commas outside angle brackets; URLs may contain commas.
func splitLinks(header string) []string {
	var (
		parts []string
		depth int
		start int
	)

	for i, r := range header {
		switch r {
		case '<':
			depth++
		case '>':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				parts = append(parts, header[start:i])
				start = i + 1
			}
		}
	}

	if rest := header[start:]; strings.TrimSpace(rest) != "" {
		parts = append(parts, rest)
	}

	return parts
}
