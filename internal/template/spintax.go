package template

import "strings"

// maxSpintaxDepth caps recursion so adversarial nesting cannot turn
// expansion into a runaway loop. Text beyond the cap is kept literal.
const maxSpintaxDepth = 100

// ExpandSpintax replaces every balanced {a|b|c} group with one
// alternative chosen by pick (uniform over the pipe-separated options).
// Groups may nest; inner groups are resolved before the enclosing
// group's alternatives are split. Unbalanced braces stay literal.
func ExpandSpintax(text string, pick func(n int) int) string {
	return expand(text, 0, pick)
}

func expand(s string, depth int, pick func(n int) int) string {
	if depth > maxSpintaxDepth {
		return s
	}

	var b strings.Builder
	for i := 0; i < len(s); {
		if s[i] == '{' {
			if j := matchBrace(s, i); j >= 0 {
				inner := expand(s[i+1:j], depth+1, pick)
				alts := strings.Split(inner, "|")
				b.WriteString(alts[pick(len(alts))])
				i = j + 1
				continue
			}
		}
		b.WriteByte(s[i])
		i++
	}
	return b.String()
}

// matchBrace returns the index of the brace closing the group opened at
// i, or -1 when the group never closes.
func matchBrace(s string, i int) int {
	depth := 0
	for j := i; j < len(s); j++ {
		switch s[j] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return j
			}
		}
	}
	return -1
}
