package matching

import (
	"regexp"
	"strings"
)

var (
	memorySpecPattern       = regexp.MustCompile(`\b(DDR[45](?:-\d+)?|[0-9]+GB|[0-9]+TB)\b`)
	connectivitySpecPattern = regexp.MustCompile(`\b(USB\s*[0-9.]+|WI-?FI\s*[0-9A-Z]*|BLUETOOTH\s*[0-9.]*|HDMI|DISPLAYPORT|PCIE?\s*[0-9.]*)\b`)
	performanceSpecPattern  = regexp.MustCompile(`\b([0-9]+\s*GHZ|[0-9]+\s*MHZ|[0-9]+\s*RPM)\b`)
	physicalSpecPattern     = regexp.MustCompile(`\b([0-9]+"\s*|[0-9]+W\s*|[0-9]+V\s*)\b`)
	modelSpecPattern        = regexp.MustCompile(`\b([A-Z]{2,4}\d{2,}[A-Z0-9]*)\b`)

	keyTermPattern = regexp.MustCompile(`\b[A-Z0-9]{3,}\b`)
	digitsOnly     = regexp.MustCompile(`^\d+$`)
)

var termStopWords = map[string]bool{
	"THE": true, "AND": true, "OR": true, "WITH": true, "FOR": true,
	"IN": true, "ON": true, "AT": true, "TO": true, "A": true, "AN": true,
}

// ExtractSpecs pulls normalized technical tokens (memory, connectivity,
// clock speeds, physical ratings, model numbers) out of a description
func ExtractSpecs(description string) map[string]bool {
	specs := make(map[string]bool)
	if description == "" {
		return specs
	}
	upper := strings.ToUpper(description)

	for _, m := range memorySpecPattern.FindAllString(upper, -1) {
		specs[m] = true
	}
	for _, m := range connectivitySpecPattern.FindAllString(upper, -1) {
		specs[strings.ReplaceAll(m, " ", "")] = true
	}
	for _, m := range performanceSpecPattern.FindAllString(upper, -1) {
		specs[strings.ReplaceAll(m, " ", "")] = true
	}
	for _, m := range physicalSpecPattern.FindAllString(upper, -1) {
		specs[strings.ReplaceAll(m, " ", "")] = true
	}
	for _, m := range modelSpecPattern.FindAllString(upper, -1) {
		specs[m] = true
	}

	return specs
}

// KeyTerms extracts meaningful uppercase terms from a product name,
// dropping stop words and bare numbers
func KeyTerms(name string) map[string]bool {
	terms := make(map[string]bool)
	if name == "" {
		return terms
	}
	for _, t := range keyTermPattern.FindAllString(strings.ToUpper(name), -1) {
		if termStopWords[t] || digitsOnly.MatchString(t) {
			continue
		}
		terms[t] = true
	}
	return terms
}

// SpecSimilarity scores the overlap between two spec sets as overlap/union,
// with a 1.2x bonus when three or more specs match, capped at 1.0
func SpecSimilarity(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}
	overlap := 0
	for spec := range a {
		if b[spec] {
			overlap++
		}
	}
	union := len(a) + len(b) - overlap
	if union == 0 {
		return 0.0
	}
	similarity := float64(overlap) / float64(union)
	if overlap >= 3 {
		similarity *= specOverlapBonus
	}
	if similarity > 1.0 {
		return 1.0
	}
	return similarity
}

func termOverlap(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}
	overlap := 0
	for t := range a {
		if b[t] {
			overlap++
		}
	}
	union := len(a) + len(b) - overlap
	if union == 0 {
		return 0.0
	}
	return float64(overlap) / float64(union)
}
