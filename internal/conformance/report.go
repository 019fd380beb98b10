package conformance

import (
	"fmt"
	"strings"
)

// GenerateReport summarizes Results, replacing the teacher's
// W3CTestRunner.GenerateReport with per-kind (rather than only
// per-schema/instance) breakdowns.
func (r *Runner) GenerateReport() string {
	total := len(r.Results)
	if total == 0 {
		return "No conformance cases ran.\n"
	}

	passed, failed := 0, 0
	byKind := map[string][2]int{} // kind -> [passed, total]
	var failures []Result

	for _, result := range r.Results {
		counts := byKind[result.Kind]
		counts[1]++
		if result.Passed {
			passed++
			counts[0]++
		} else {
			failed++
			failures = append(failures, result)
		}
		byKind[result.Kind] = counts
	}

	var b strings.Builder
	b.WriteString("Conformance Results\n")
	b.WriteString("===================\n\n")
	fmt.Fprintf(&b, "Total Cases:  %d\n", total)
	fmt.Fprintf(&b, "Passed:       %d (%.1f%%)\n", passed, pct(passed, total))
	fmt.Fprintf(&b, "Failed:       %d (%.1f%%)\n\n", failed, pct(failed, total))

	for _, kind := range []string{"xsd-schema", "xsd-instance", "schematron", "signature", "json-schema", "json-wellformed"} {
		counts, ok := byKind[kind]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "%-16s %d/%d passed (%.1f%%)\n", kind, counts[0], counts[1], pct(counts[0], counts[1]))
	}

	if len(failures) > 0 {
		b.WriteString("\nFailed Cases:\n-------------\n")
		for i, f := range failures {
			if i >= 20 {
				fmt.Fprintf(&b, "... and %d more\n", len(failures)-20)
				break
			}
			fmt.Fprintf(&b, "%s/%s (%s): expected=%s, actual=%s\n", f.Group, f.Name, f.Kind, f.Expected, f.Actual)
		}
	}

	return b.String()
}

func pct(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) * 100 / float64(total)
}
