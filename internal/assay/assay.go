package assay

import "strings"

// Mapping ties an assay code to the test-name substrings that select it.
type Mapping struct {
	Code     string
	Patterns []string
}

// Table is the built-in assay mapping, checked in order. Order matters:
// a test name matching patterns from two mappings goes to the earlier
// one (e.g. "Listeria monocytogenes" contains "Listeria" and lands on
// LIS, not LMO). Do not reorder entries without checking the overlaps.
var Table = []Mapping{
	{Code: "SLM", Patterns: []string{"Salmonella", "Sal-PCR GeneUp-375g v.3", "Sal-PCR GeneUp-FP v.3"}},
	{Code: "ECO", Patterns: []string{"EC0157", "ECO157"}},
	{Code: "EH1", Patterns: []string{"EHEC", "STEC"}},
	{Code: "LIS", Patterns: []string{"LIS-PCR GeneUp-ENV(BM) v.1", "LIS-PCR GeneUp-FP v.3", "Listeria"}},
	{Code: "LMO", Patterns: []string{"Listeria monocytogenes", "LM-PCR GeneUp-FP v.3"}},
}

// Classify returns the assay code for a test name, matching
// case-sensitively against Table in order. The second return is false
// when no pattern matches.
func Classify(testName string) (string, bool) {
	if testName == "" {
		return "", false
	}
	for _, m := range Table {
		for _, p := range m.Patterns {
			if strings.Contains(testName, p) {
				return m.Code, true
			}
		}
	}
	return "", false
}
