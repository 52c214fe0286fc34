/*
SPDX-License-Identifier: Apache-2.0

Copyright 2026 The Hierarchia Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    https://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package filtering evaluates filtering expression trees against rows and
// applies them to record trees, keeping the ancestors of matching records
// so that matches stay reachable.
package filtering

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/google/hierarchia/core/columns"
)

// Logic joins the nodes of a Tree.
type Logic int

const (
	And Logic = iota
	Or
)

func (l Logic) String() string {
	if l == Or {
		return "or"
	}
	return "and"
}

// Operand filters one field with one condition.
type Operand struct {
	Field      string
	Condition  string
	Search     any
	IgnoreCase bool
	// Text matches against the formatted cell text with the string
	// conditions, whatever the column type.
	Text bool
	// Negate inverts the result.
	Negate bool
}

// Tree combines operands and nested trees. An empty tree matches every row.
type Tree struct {
	Logic    Logic
	Operands []Operand
	Trees    []*Tree
}

// NewTree creates a tree from operands.
func NewTree(logic Logic, operands ...Operand) *Tree {
	return &Tree{Logic: logic, Operands: operands}
}

// Add appends nested trees and returns t.
func (t *Tree) Add(trees ...*Tree) *Tree {
	t.Trees = append(t.Trees, trees...)
	return t
}

// Empty reports whether the tree has nothing to evaluate.
func (t *Tree) Empty() bool {
	if t == nil {
		return true
	}
	if len(t.Operands) > 0 {
		return false
	}
	for _, sub := range t.Trees {
		if !sub.Empty() {
			return false
		}
	}
	return true
}

// Matcher is a compiled filter.
type Matcher func(row map[string]any) bool

// Compile resolves every operand against the column metadata. Columns the
// provider does not know are treated as strings.
func (t *Tree) Compile(p columns.Provider) (Matcher, error) {
	if t.Empty() {
		return func(map[string]any) bool { return true }, nil
	}

	var parts []Matcher
	for _, op := range t.Operands {
		m, err := op.compile(p)
		if err != nil {
			return nil, err
		}
		parts = append(parts, m)
	}
	for _, sub := range t.Trees {
		if sub.Empty() {
			continue
		}
		m, err := sub.Compile(p)
		if err != nil {
			return nil, err
		}
		parts = append(parts, m)
	}

	if t.Logic == Or {
		return func(row map[string]any) bool {
			for _, m := range parts {
				if m(row) {
					return true
				}
			}
			return false
		}, nil
	}
	return func(row map[string]any) bool {
		for _, m := range parts {
			if !m(row) {
				return false
			}
		}
		return true
	}, nil
}

func (op Operand) compile(p columns.Provider) (Matcher, error) {
	if op.Field == "" {
		return nil, errors.New("filtering operand has no field")
	}
	def, hasDef := columns.Lookup(p, op.Field)
	dt := columns.TypeString
	if hasDef && !op.Text {
		dt = def.DataType()
	}
	cond, err := LookupCondition(dt, op.Condition)
	if err != nil {
		return nil, errors.Wrapf(err, "field %q", op.Field)
	}

	value := func(row map[string]any) any { return row[op.Field] }
	if op.Text && hasDef {
		value = func(row map[string]any) any { return def.FormatValue(row[op.Field]) }
	}
	return func(row map[string]any) bool {
		return cond.Match(value(row), op.Search, op.IgnoreCase) != op.Negate
	}, nil
}

// Parse builds a tree from the quick filter syntax applied to one field:
//
//	"CLOSED"          exact match
//	'CLOSED'          contains
//	CLOSED            exact match
//	!'CLOSED'         does not contain
//	'a'&'b'|"c"       & binds tighter than |
//
// Quoted search text may contain & and |. Parentheses are not supported.
// Matching is done on the formatted cell text.
func Parse(field, filter string, ignoreCase bool) (*Tree, error) {
	alternatives, err := splitFilter(filter)
	if err != nil {
		return nil, errors.Wrapf(err, "filter %q", filter)
	}
	root := &Tree{Logic: Or}
	for _, terms := range alternatives {
		group := &Tree{Logic: And}
		for _, term := range terms {
			op, ok, err := parseTerm(field, strings.TrimSpace(term), ignoreCase)
			if err != nil {
				return nil, errors.Wrapf(err, "filter %q", filter)
			}
			if ok {
				group.Operands = append(group.Operands, op)
			}
		}
		if len(group.Operands) > 0 {
			root.Trees = append(root.Trees, group)
		}
	}
	return root, nil
}

// splitFilter cuts a quick filter into its | alternatives of & terms. A
// quote opens a literal only at the start of a term, after an optional !.
func splitFilter(filter string) ([][]string, error) {
	var (
		alternatives [][]string
		terms        []string
		term         strings.Builder
		quote        byte
	)
	start := true
	for i := 0; i < len(filter); i++ {
		c := filter[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case start && (c == '"' || c == '\''):
			quote, start = c, false
		case c == '&' || c == '|':
			terms = append(terms, term.String())
			term.Reset()
			start = true
			if c == '|' {
				alternatives = append(alternatives, terms)
				terms = nil
			}
			continue
		case c != ' ' && c != '\t' && c != '!':
			start = false
		}
		term.WriteByte(c)
	}
	if quote != 0 {
		return nil, errors.Errorf("unterminated quote in %s", strings.TrimSpace(term.String()))
	}
	terms = append(terms, term.String())
	return append(alternatives, terms), nil
}

func parseTerm(field, term string, ignoreCase bool) (Operand, bool, error) {
	op := Operand{Field: field, Condition: "equals", Text: true, IgnoreCase: ignoreCase}
	if strings.HasPrefix(term, "!") {
		op.Negate = true
		term = strings.TrimSpace(term[1:])
	}
	switch {
	case term == "":
		return op, false, nil
	case term[0] == '"' || term[0] == '\'':
		quote := term[0]
		if len(term) < 2 || term[len(term)-1] != quote {
			return op, false, errors.Errorf("unterminated quote in %s", term)
		}
		if quote == '\'' {
			op.Condition = "contains"
		}
		term = term[1 : len(term)-1]
	}
	op.Search = term
	return op, true, nil
}
