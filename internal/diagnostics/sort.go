package diagnostics

import "sort"

// SortWarnings orders warnings by (path, primary_start_byte, vex_id,
// message) for stable output (spec §4.7 step 4, testable property 1).
func SortWarnings(warnings []Warning) {
	sort.SliceStable(warnings, func(i, j int) bool {
		a, b := warnings[i], warnings[j]
		if a.Primary.Path != b.Primary.Path {
			return a.Primary.Path < b.Primary.Path
		}
		if a.Primary.StartByte != b.Primary.StartByte {
			return a.Primary.StartByte < b.Primary.StartByte
		}
		if a.VexID != b.VexID {
			return a.VexID < b.VexID
		}
		return a.Message < b.Message
	})
}
