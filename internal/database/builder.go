package database

import "strings"

// Builder accumulates WHERE predicates together with their bound arguments.
// Predicates are fixed SQL fragments with ? placeholders; values only ever travel as arguments.
type Builder struct {
	preds []string
	args  []any
}

// Where appends a predicate joined to the others with AND.
func (b *Builder) Where(pred string, args ...any) *Builder {
	b.preds = append(b.preds, pred)
	b.args = append(b.args, args...)
	return b
}

// WhereIf appends the predicate only when cond holds.
func (b *Builder) WhereIf(cond bool, pred string, args ...any) *Builder {
	if cond {
		return b.Where(pred, args...)
	}
	return b
}

// Clause renders " WHERE a AND b", or "" when no predicate was added.
func (b *Builder) Clause() string {
	if len(b.preds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(b.preds, " AND ")
}

// Args returns a fresh slice of the bound arguments followed by extra.
func (b *Builder) Args(extra ...any) []any {
	out := make([]any, 0, len(b.args)+len(extra))
	out = append(out, b.args...)
	return append(out, extra...)
}

// Len is the number of predicates added so far.
func (b *Builder) Len() int {
	return len(b.preds)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Contains turns s into a LIKE pattern matching any value containing s literally.
// Use it with `LIKE ? ESCAPE '\'`.
func Contains(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}
