package intent

import "strings"

// Canonical service labels, in display order.
const (
	ServiceHaircut = "Corte"
	ServiceBeard   = "Barba"
	ServiceBrows   = "Cejas"
)

var serviceOrder = []string{ServiceHaircut, ServiceBeard, ServiceBrows}

var serviceKeywords = map[string][]string{
	ServiceHaircut: {"corte", "cabello", "pelo"},
	ServiceBeard:   {"barba"},
	ServiceBrows:   {"ceja"},
}

// DetectServices returns the canonical services mentioned in s.
func DetectServices(s string) map[string]bool {
	low := fold(s)
	found := map[string]bool{}
	for label, kws := range serviceKeywords {
		for _, kw := range kws {
			if strings.Contains(low, kw) {
				found[label] = true
				break
			}
		}
	}
	return found
}

// ServiceLabel joins a service set in canonical order ("Corte + Barba").
func ServiceLabel(set map[string]bool) string {
	parts := make([]string, 0, len(set))
	for _, s := range serviceOrder {
		if set[s] {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " + ")
}

// mergeService combines a newly observed label with the stored one. Known
// keywords accumulate into a combined label; a label without keywords is
// stored verbatim.
func mergeService(prev, observed string) string {
	found := DetectServices(observed)
	if len(found) == 0 {
		return observed
	}
	for s := range DetectServices(prev) {
		found[s] = true
	}
	return ServiceLabel(found)
}
