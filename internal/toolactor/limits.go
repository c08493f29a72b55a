package toolactor

// MaxResultBytes caps a tool result's text content before it is appended to
// history. The original design described two different caps for foreground
// and background tool output; this repo unifies them into the single 64 KiB
// limit documented here (see DESIGN.md's Open Question decisions).
const MaxResultBytes = 64 * 1024

// truncationSuffix is appended to content cut by MaxResultBytes, so a
// consumer reading history can tell truncated output from output that
// happened to end at exactly the limit.
const truncationSuffix = "\n...[truncated]"

// Truncate caps s to MaxResultBytes, appending truncationSuffix when it cuts
// anything.
func Truncate(s string) string {
	if len(s) <= MaxResultBytes {
		return s
	}
	return s[:MaxResultBytes] + truncationSuffix
}
