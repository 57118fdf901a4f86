package scan

import "strings"

const (
	contextPad    = "  "
	contextTarget = "→ "
)

// ContextWindow renders the lines around lines[idx]. It looks at most n lines
// before and after by index; blank lines in that range are left out and the
// range is not widened to make up for them. The target line is marked with
// an arrow.
func ContextWindow(lines []string, idx, n int) string {
	if idx < 0 || idx >= len(lines) {
		return ""
	}
	if n < 0 {
		n = 0
	}

	from := max(0, idx-n)
	to := min(len(lines), idx+n+1)

	out := make([]string, 0, to-from)
	for i := from; i < idx; i++ {
		if line := strings.TrimSpace(lines[i]); line != "" {
			out = append(out, contextPad+line)
		}
	}
	out = append(out, contextTarget+strings.TrimSpace(lines[idx]))
	for i := idx + 1; i < to; i++ {
		if line := strings.TrimSpace(lines[i]); line != "" {
			out = append(out, contextPad+line)
		}
	}
	return strings.Join(out, "\n")
}
