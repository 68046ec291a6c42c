package main

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Assignment is one parsed "block.field=value" token. Field is a parameter
// name, or one of the reserved names "type" and "enabled".
type Assignment struct {
	Block BlockKey
	Field string
	Value string
}

// ParseAssignments splits text on whitespace, ',', ';' and '|' and parses
// every token, e.g. "drive.enabled=on drive.type=fuzz drive.gain=70".
func ParseAssignments(text string) ([]Assignment, error) {
	tokens := strings.FieldsFunc(text, func(r rune) bool {
		return unicode.IsSpace(r) || r == ',' || r == ';' || r == '|'
	})
	if len(tokens) == 0 {
		return nil, fmt.Errorf("no assignments provided")
	}

	out := make([]Assignment, 0, len(tokens))
	for _, tok := range tokens {
		a, err := parseAssignmentToken(tok)
		if err != nil {
			return nil, fmt.Errorf("invalid assignment %q: %w", tok, err)
		}
		out = append(out, a)
	}
	return out, nil
}

func parseAssignmentToken(tok string) (Assignment, error) {
	lhs, rhs, ok := strings.Cut(tok, "=")
	if !ok {
		return Assignment{}, fmt.Errorf("missing '='")
	}
	block, field, ok := strings.Cut(lhs, ".")
	if !ok {
		return Assignment{}, fmt.Errorf("left side must be block.field")
	}

	block = strings.ToLower(strings.TrimSpace(block))
	field = strings.TrimSpace(field)
	rhs = strings.TrimSpace(rhs)
	if block == "" || field == "" {
		return Assignment{}, fmt.Errorf("empty block or field")
	}
	if rhs == "" {
		return Assignment{}, fmt.Errorf("missing value")
	}
	return Assignment{Block: BlockKey(block), Field: field, Value: rhs}, nil
}

// Apply returns a copy of c with the assignments applied in order. A block
// the chain lacks is added disabled before the assignment is applied.
func (l *Layout) Apply(c Chain, as []Assignment) (Chain, error) {
	out := c.Clone()
	for _, a := range as {
		def, ok := l.Block(a.Block)
		if !ok {
			return Chain{}, &ChainError{Block: a.Block, Detail: "unknown block"}
		}
		b, ok := out.Block(a.Block)
		if !ok {
			b = Block{Key: a.Block}
		}

		switch strings.ToLower(a.Field) {
		case "enabled":
			on, err := parseSwitch(a.Value)
			if err != nil {
				return Chain{}, fmt.Errorf("%s.enabled: %w", a.Block, err)
			}
			b.Enabled = on
		case "type":
			if _, err := l.Variant(a.Block, a.Value); err != nil {
				return Chain{}, err
			}
			b.Type = a.Value
		default:
			if !def.exposes(a.Field) {
				return Chain{}, &ChainError{Block: a.Block, Detail: fmt.Sprintf("no type of this block has a %q parameter", a.Field)}
			}
			v, err := strconv.ParseFloat(a.Value, 64)
			if err != nil {
				return Chain{}, fmt.Errorf("%s.%s: %w", a.Block, a.Field, err)
			}
			if b.Params == nil {
				b.Params = make(map[string]float64)
			}
			b.Params[a.Field] = v
		}
		out.set(b)
	}
	return out, nil
}

func (d BlockDef) exposes(param string) bool {
	for _, v := range d.Variants {
		for _, p := range v.Params {
			if p.Name == param {
				return true
			}
		}
	}
	return false
}

func parseSwitch(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "true", "yes", "1":
		return true, nil
	case "off", "false", "no", "0":
		return false, nil
	}
	return false, fmt.Errorf("%q is not on/off", s)
}
