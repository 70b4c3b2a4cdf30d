package viz

import "fmt"

// Insight returns the canned sentence shown under a chart. It performs no
// analysis of the data.
func Insight(kind Kind, x, y string) string {
	return fmt.Sprintf("Based on the %s, the data shows trends between %s and %s.", kind, x, y)
}
