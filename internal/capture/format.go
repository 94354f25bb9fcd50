package capture

import (
	"fmt"
	"strings"
)

const blockRule = "-----------------------------"

// Format renders each exception followed by its inner chain as delimited
// text blocks. Exceptions without frames render a placeholder line.
func Format(exceptions []CapturedException) string {
	var b strings.Builder
	for i := range exceptions {
		if i > 0 {
			b.WriteString("\n")
		}
		title := "Top-level Exception"
		if len(exceptions) > 1 {
			title = fmt.Sprintf("Exception %d", i+1)
		}
		writeBlock(&b, title, &exceptions[i])

		n := 0
		for inner := exceptions[i].Inner; inner != nil; inner = inner.Inner {
			n++
			b.WriteString("\n")
			writeBlock(&b, fmt.Sprintf("Inner Exception %d", n), inner)
		}
	}
	return b.String()
}

func writeBlock(b *strings.Builder, title string, e *CapturedException) {
	fmt.Fprintf(b, "%s\n%s\n", title, blockRule)
	fmt.Fprintf(b, "Type:    %s\n", e.TypeName)
	fmt.Fprintf(b, "Message: %s\n", e.Message)
	b.WriteString("Stack Trace:\n")
	if len(e.Frames) == 0 {
		b.WriteString("  (no stack trace)\n")
		return
	}
	for _, f := range e.Frames {
		if f.File == "" {
			fmt.Fprintf(b, "  at %s\n", f.Function)
			continue
		}
		fmt.Fprintf(b, "  at %s in %s:line %d\n", f.Function, f.File, f.Line)
	}
}
