package executor

import "strings"

// Quote wraps s in single quotes for a POSIX shell. Embedded single quotes
// are written as '\'' so the value can never end its quoting early.
func Quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// CommandLine renders interpreter, script and args as one shell line with
// every element quoted.
func CommandLine(interpreter, script string, args []string) string {
	parts := make([]string, 0, len(args)+2)
	parts = append(parts, Quote(interpreter), Quote(script))
	for _, arg := range args {
		parts = append(parts, Quote(arg))
	}
	return strings.Join(parts, " ")
}
