// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Atrium Contributors

package menu

import (
	"fmt"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/samber/oops"
)

// MaxNestingDepth bounds condition nesting so a hostile script cannot blow
// the evaluator stack.
const MaxNestingDepth = 32

// condLexer tokenizes the option condition language. Multi-character
// operators need explicit rules; the default scanner would split them.
var condLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "String", Pattern: `"[^"]*"`},
	{Name: "OpEq", Pattern: `==`},
	{Name: "OpNe", Pattern: `!=`},
	{Name: "OpAnd", Pattern: `&&`},
	{Name: "OpOr", Pattern: `\|\|`},
	{Name: "Bang", Pattern: `!`},
	{Name: "Ident", Pattern: `[a-zA-Z_]\w*`},
	{Name: "Punct", Pattern: `[()]`},
	{Name: "whitespace", Pattern: `\s+`},
})

// Condition is the root of a parsed option condition.
//
// Grammar: or-expression over and-expressions over terms; a term is a
// negation, a parenthesized condition, or an attribute comparison.
type Condition struct {
	Pos lexer.Position `parser:""`
	Or  []*AndClause   `parser:"@@ (OpOr @@)*"`
}

// AndClause is a conjunction of terms.
type AndClause struct {
	Pos   lexer.Position `parser:""`
	Terms []*Term        `parser:"@@ (OpAnd @@)*"`
}

// Term is one operand of a conjunction.
type Term struct {
	Pos     lexer.Position `parser:""`
	Negated *Term          `parser:"  Bang @@"`
	Group   *Condition     `parser:"| '(' @@ ')'"`
	Cmp     *Comparison    `parser:"| @@"`
}

// Comparison tests an environment attribute against a string literal.
type Comparison struct {
	Pos   lexer.Position `parser:""`
	Attr  string         `parser:"@Ident"`
	Op    string         `parser:"@(OpEq | OpNe)"`
	Value string         `parser:"@String"`
}

var condParser = participle.MustBuild[Condition](
	participle.Lexer(condLexer),
	participle.Unquote("String"),
)

// ParseCondition parses a condition string into its AST.
func ParseCondition(text string) (*Condition, error) {
	c, err := condParser.ParseString("", text)
	if err != nil {
		return nil, oops.In("menu").
			Code("INVALID_CONDITION").
			With("condition", text).
			Wrapf(err, "parsing option condition")
	}
	if err := checkDepth(c, 0); err != nil {
		return nil, oops.In("menu").Code("INVALID_CONDITION").With("condition", text).Wrap(err)
	}
	return c, nil
}

func checkDepth(c *Condition, depth int) error {
	if depth > MaxNestingDepth {
		return fmt.Errorf("nesting depth exceeds maximum of %d", MaxNestingDepth)
	}
	for _, and := range c.Or {
		for _, term := range and.Terms {
			if err := checkTermDepth(term, depth); err != nil {
				return err
			}
		}
	}
	return nil
}

func checkTermDepth(t *Term, depth int) error {
	switch {
	case t.Negated != nil:
		return checkTermDepth(t.Negated, depth+1)
	case t.Group != nil:
		return checkDepth(t.Group, depth+1)
	default:
		return nil
	}
}

// Env supplies attribute values for condition evaluation. Missing
// attributes read as the empty string.
type Env map[string]string

// Eval evaluates the condition against env.
func (c *Condition) Eval(env Env) bool {
	for _, and := range c.Or {
		if and.eval(env) {
			return true
		}
	}
	return false
}

func (a *AndClause) eval(env Env) bool {
	for _, t := range a.Terms {
		if !t.eval(env) {
			return false
		}
	}
	return true
}

func (t *Term) eval(env Env) bool {
	switch {
	case t.Negated != nil:
		return !t.Negated.eval(env)
	case t.Group != nil:
		return t.Group.Eval(env)
	case t.Cmp != nil:
		got := env[t.Cmp.Attr]
		if t.Cmp.Op == "==" {
			return got == t.Cmp.Value
		}
		return got != t.Cmp.Value
	default:
		return false
	}
}
