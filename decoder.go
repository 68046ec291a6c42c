package main

import (
	"fmt"
	"strings"
)

// ParseTransportString reads a transport string back into a patch. Every
// triplet must be three decimal digits no greater than 255.
func ParseTransportString(s string) (Patch, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Patch{}, &PatchError{Offset: -1, Detail: "empty transport string"}
	}
	if len(s)%3 != 0 {
		return Patch{}, &PatchError{Offset: -1, Detail: fmt.Sprintf("length %d is not a multiple of 3", len(s))}
	}

	data := make([]byte, len(s)/3)
	for i := range data {
		chunk := s[3*i : 3*i+3]
		n := 0
		for _, c := range chunk {
			if c < '0' || c > '9' {
				return Patch{}, &PatchError{Offset: -1, Detail: fmt.Sprintf("triplet %d (%q) is not decimal", i, chunk)}
			}
			n = n*10 + int(c-'0')
		}
		if n > 255 {
			return Patch{}, &PatchError{Offset: i, Value: n, Detail: "byte value above 255"}
		}
		data[i] = byte(n)
	}
	return Patch{data: data}, nil
}

// Decode reads a patch back into a chain with the default layout.
func Decode(p Patch) (Chain, error) {
	return NewEncoder(DefaultLayout()).Decode(p)
}

// Decode is the inverse of Encode. Disabled blocks come back with their
// default type and no parameters, since the patch does not store them.
// Re-encoding the result reproduces p byte for byte.
func (e *Encoder) Decode(p Patch) (Chain, error) {
	if p.Len() != e.layout.Length() {
		return Chain{}, &PatchError{Offset: -1, Detail: fmt.Sprintf("patch is %d bytes, layout %s needs %d", p.Len(), e.layout.Name(), e.layout.Length())}
	}
	for i, v := range p.data {
		if v == 0 {
			continue
		}
		if _, ok := e.layout.Owner(i); !ok {
			return Chain{}, &PatchError{Offset: i, Value: int(v), Detail: "reserved byte is not zero"}
		}
	}

	mask := e.layout.def.EnableMask
	chain := Chain{Blocks: make([]Block, 0, len(e.layout.def.Blocks))}
	for _, def := range e.layout.def.Blocks {
		head := p.data[def.Head]
		if head == 0 {
			for _, s := range def.Slots {
				if p.data[s] != 0 {
					return Chain{}, &PatchError{Offset: s, Value: int(p.data[s]), Detail: fmt.Sprintf("disabled %s block carries parameter data", def.Key)}
				}
			}
			chain.Blocks = append(chain.Blocks, Block{Key: def.Key, Type: def.Variants[0].Name})
			continue
		}

		if head&mask == 0 {
			return Chain{}, &PatchError{Offset: def.Head, Value: int(head), Detail: "header lacks the enable flag"}
		}
		v, ok := e.layout.VariantByID(def.Key, head&^mask)
		if !ok {
			return Chain{}, &PatchError{Offset: def.Head, Value: int(head), Detail: fmt.Sprintf("unknown %s type id %d", def.Key, head&^mask)}
		}

		b := Block{Key: def.Key, Enabled: true, Type: v.Name, Params: make(map[string]float64, len(v.Params))}
		used := make(map[int]bool, len(v.Params))
		for _, pd := range v.Params {
			off := def.Slots[pd.Slot]
			used[pd.Slot] = true
			val, ok := pd.Rule.Logical(p.data[off])
			if !ok {
				return Chain{}, &PatchError{Offset: off, Value: int(p.data[off]), Detail: fmt.Sprintf("%s.%s cannot hold this value", def.Key, pd.Name)}
			}
			b.Params[pd.Name] = val
		}
		for i, s := range def.Slots {
			if !used[i] && p.data[s] != 0 {
				return Chain{}, &PatchError{Offset: s, Value: int(p.data[s]), Detail: fmt.Sprintf("%s type %s does not use this slot", def.Key, v.Name)}
			}
		}
		chain.Blocks = append(chain.Blocks, b)
	}
	return chain, nil
}

// DebugPatch lists the non-zero bytes of an already encoded patch, resolving
// field names through the types its headers select.
func (e *Encoder) DebugPatch(p Patch) (DebugReport, error) {
	chain, err := e.Decode(p)
	if err != nil {
		return DebugReport{}, err
	}
	_, fields, err := e.encode(chain)
	if err != nil {
		return DebugReport{}, err
	}
	return debugReport(p.data, fields)
}
