package main

import (
	"fmt"
	"math"
	"sync"

	"go.uber.org/multierr"
)

// Role says what a field stores.
type Role int

const (
	// RoleHeader is the per-block byte carrying the enable flag and the variant id.
	RoleHeader Role = iota
	// RoleParameter is one scaled parameter value.
	RoleParameter
)

func (r Role) String() string {
	if r == RoleHeader {
		return "header"
	}
	return "parameter"
}

// RuleKind selects how a logical value becomes a raw byte.
type RuleKind int

const (
	RuleLinear RuleKind = iota
	RuleEnum
)

// Rule maps a logical parameter value onto a raw byte.
//
// Linear rules scale [Min, Max] onto [RawMin, RawMax] and round to the nearest
// step. Enum rules take an integer index into Values.
type Rule struct {
	Kind   RuleKind
	Min    float64
	Max    float64
	RawMin byte
	RawMax byte
	Values []byte
	Unit   string
}

func linear(min, max float64, rawMin, rawMax byte, unit string) Rule {
	return Rule{Kind: RuleLinear, Min: min, Max: max, RawMin: rawMin, RawMax: rawMax, Unit: unit}
}

func percent() Rule {
	return linear(0, 100, 0, 100, "%")
}

func enum(values ...byte) Rule {
	return Rule{Kind: RuleEnum, Values: values}
}

// Bounds returns the legal logical domain.
func (r Rule) Bounds() (float64, float64) {
	if r.Kind == RuleEnum {
		return 0, float64(len(r.Values) - 1)
	}
	return r.Min, r.Max
}

// Legal reports whether v can be encoded without clamping.
func (r Rule) Legal(v float64) bool {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return false
	}
	min, max := r.Bounds()
	if v < min || v > max {
		return false
	}
	if r.Kind == RuleEnum {
		return v == math.Trunc(v)
	}
	return true
}

// Clamp pulls a finite v into the legal domain.
func (r Rule) Clamp(v float64) float64 {
	min, max := r.Bounds()
	if r.Kind == RuleEnum {
		v = math.Round(v)
	}
	return math.Max(min, math.Min(max, v))
}

// Raw encodes a legal logical value.
func (r Rule) Raw(v float64) byte {
	if r.Kind == RuleEnum {
		return r.Values[int(v)]
	}
	span := float64(r.RawMax) - float64(r.RawMin)
	return byte(float64(r.RawMin) + math.Round((v-r.Min)*span/(r.Max-r.Min)))
}

// Logical decodes a raw byte. It reports false when raw is not a value the
// rule can produce.
func (r Rule) Logical(raw byte) (float64, bool) {
	if r.Kind == RuleEnum {
		for i, v := range r.Values {
			if v == raw {
				return float64(i), true
			}
		}
		return 0, false
	}
	if raw < r.RawMin || raw > r.RawMax {
		return 0, false
	}
	span := float64(r.RawMax) - float64(r.RawMin)
	v := r.Min + float64(raw-r.RawMin)*(r.Max-r.Min)/span
	return math.Round(v*100) / 100, true
}

func (r Rule) check() string {
	switch r.Kind {
	case RuleLinear:
		if !(r.Max > r.Min) {
			return "linear rule needs Max > Min"
		}
		if r.RawMax <= r.RawMin {
			return "linear rule needs RawMax > RawMin"
		}
	case RuleEnum:
		if len(r.Values) == 0 {
			return "enum rule has no values"
		}
		seen := make(map[byte]bool, len(r.Values))
		for _, v := range r.Values {
			if seen[v] {
				return fmt.Sprintf("enum rule repeats raw value %d", v)
			}
			seen[v] = true
		}
	default:
		return fmt.Sprintf("unknown rule kind %d", r.Kind)
	}
	return ""
}

// ParamDef binds a parameter name of one variant to one of the block's slots.
type ParamDef struct {
	Name string
	Slot int
	Rule Rule
}

// VariantDef is one selectable effect type. ID is the value multiplexed into the header byte.
type VariantDef struct {
	ID     byte
	Name   string
	Params []ParamDef
}

// BlockDef describes where a block lives in the patch. Slots are absolute byte
// offsets; variants bind their parameters to slot indexes so that no variant
// ever owns an offset outside its block.
type BlockDef struct {
	Key      BlockKey
	Head     int
	Slots    []int
	Variants []VariantDef
}

// LayoutDef is the declarative table for one device format.
type LayoutDef struct {
	Name       string
	Length     int
	EnableMask byte
	Blocks     []BlockDef
}

// FieldSpec is a resolved field: one byte of the patch and how to fill it.
type FieldSpec struct {
	Block  BlockKey
	Role   Role
	Param  string
	Offset int
	Width  int
	Rule   Rule
}

// Description names the field the way the debug listing does.
func (f FieldSpec) Description() string {
	if f.Role == RoleHeader {
		return headName(f.Block)
	}
	return string(f.Block) + "." + f.Param
}

func headName(key BlockKey) string {
	return "Head_" + string(key)
}

// Layout is a validated, read-only LayoutDef with lookup indexes.
type Layout struct {
	def    LayoutDef
	blocks map[BlockKey]int
	owners map[int]BlockKey
}

// NewLayout validates def and builds its indexes.
func NewLayout(def LayoutDef) (*Layout, error) {
	if err := def.validate(); err != nil {
		return nil, err
	}
	l := &Layout{
		def:    def,
		blocks: make(map[BlockKey]int, len(def.Blocks)),
		owners: make(map[int]BlockKey),
	}
	for i, b := range def.Blocks {
		l.blocks[b.Key] = i
		l.owners[b.Head] = b.Key
		for _, s := range b.Slots {
			l.owners[s] = b.Key
		}
	}
	return l, nil
}

var (
	defaultLayout     *Layout
	defaultLayoutOnce sync.Once
)

// DefaultLayout returns the process-wide layout of the device format. A table
// that fails validation is a programming error and panics on first use.
func DefaultLayout() *Layout {
	defaultLayoutOnce.Do(func() {
		l, err := NewLayout(plugProLayout)
		if err != nil {
			panic(fmt.Sprintf("nuxqr: invalid built-in layout: %v", err))
		}
		defaultLayout = l
	})
	return defaultLayout
}

// Name returns the device format name.
func (l *Layout) Name() string { return l.def.Name }

// Length is the number of bytes in an encoded patch.
func (l *Layout) Length() int { return l.def.Length }

// Blocks lists block keys in patch order.
func (l *Layout) Blocks() []BlockKey {
	keys := make([]BlockKey, len(l.def.Blocks))
	for i, b := range l.def.Blocks {
		keys[i] = b.Key
	}
	return keys
}

// Block returns the definition of key.
func (l *Layout) Block(key BlockKey) (BlockDef, bool) {
	i, ok := l.blocks[key]
	if !ok {
		return BlockDef{}, false
	}
	return l.def.Blocks[i], true
}

// Owner reports which block claims offset. Reserved offsets have no owner.
func (l *Layout) Owner(offset int) (BlockKey, bool) {
	k, ok := l.owners[offset]
	return k, ok
}

// Variant resolves a variant by name; the empty name selects the block's default.
func (l *Layout) Variant(key BlockKey, name string) (VariantDef, error) {
	def, ok := l.Block(key)
	if !ok {
		return VariantDef{}, &ChainError{Block: key, Detail: "unknown block"}
	}
	if name == "" {
		return def.Variants[0], nil
	}
	for _, v := range def.Variants {
		if v.Name == name {
			return v, nil
		}
	}
	return VariantDef{}, &ChainError{Block: key, Variant: name, Detail: "unknown type"}
}

// VariantByID resolves the variant multiplexed into a header byte.
func (l *Layout) VariantByID(key BlockKey, id byte) (VariantDef, bool) {
	def, ok := l.Block(key)
	if !ok {
		return VariantDef{}, false
	}
	for _, v := range def.Variants {
		if v.ID == id {
			return v, true
		}
	}
	return VariantDef{}, false
}

// Fields resolves every FieldSpec governing b: the header first, then one
// field per parameter of the block's current type.
func (l *Layout) Fields(b Block) ([]FieldSpec, error) {
	def, ok := l.Block(b.Key)
	if !ok {
		return nil, &ChainError{Block: b.Key, Detail: "unknown block"}
	}
	v, err := l.Variant(b.Key, b.Type)
	if err != nil {
		return nil, err
	}
	fields := make([]FieldSpec, 0, len(v.Params)+1)
	fields = append(fields, FieldSpec{Block: b.Key, Role: RoleHeader, Offset: def.Head, Width: 1})
	for _, p := range v.Params {
		fields = append(fields, FieldSpec{
			Block:  b.Key,
			Role:   RoleParameter,
			Param:  p.Name,
			Offset: def.Slots[p.Slot],
			Width:  1,
			Rule:   p.Rule,
		})
	}
	return fields, nil
}

// header multiplexes the enable flag and the variant id into one byte.
// Disabled blocks always encode as zero.
func (l *Layout) header(enabled bool, v VariantDef) byte {
	if !enabled {
		return 0
	}
	return l.def.EnableMask | v.ID
}

func (d LayoutDef) validate() error {
	var err error
	fail := func(block BlockKey, field string, offset int, format string, args ...any) {
		err = multierr.Append(err, &SchemaIntegrityError{
			Block:  block,
			Field:  field,
			Offset: offset,
			Detail: fmt.Sprintf(format, args...),
		})
	}

	if d.Length <= 0 {
		fail("", "", -1, "patch length %d must be positive", d.Length)
	}
	if d.EnableMask == 0 {
		fail("", "", -1, "enable mask must be non-zero")
	}

	claimed := make(map[int]string)
	claim := func(block BlockKey, field string, offset int) {
		if offset < 0 || offset >= d.Length {
			fail(block, field, offset, "outside patch of %d bytes", d.Length)
			return
		}
		if prev, ok := claimed[offset]; ok {
			fail(block, field, offset, "offset already claimed by %s", prev)
			return
		}
		claimed[offset] = string(block) + "." + field
	}

	keys := make(map[BlockKey]bool, len(d.Blocks))
	for _, b := range d.Blocks {
		if keys[b.Key] {
			fail(b.Key, "", -1, "block defined twice")
			continue
		}
		keys[b.Key] = true

		claim(b.Key, headName(b.Key), b.Head)
		for i, s := range b.Slots {
			claim(b.Key, fmt.Sprintf("slot%d", i), s)
		}

		if len(b.Variants) == 0 {
			fail(b.Key, "", -1, "block has no variants")
		}
		ids := make(map[byte]bool)
		names := make(map[string]bool)
		for _, v := range b.Variants {
			if v.ID == 0 || v.ID >= d.EnableMask {
				fail(b.Key, v.Name, -1, "variant id %d outside 1..0x%02X", v.ID, d.EnableMask-1)
			}
			if ids[v.ID] || names[v.Name] {
				fail(b.Key, v.Name, -1, "variant id %d or name defined twice", v.ID)
			}
			ids[v.ID], names[v.Name] = true, true

			params := make(map[string]bool)
			slots := make(map[int]bool)
			for _, p := range v.Params {
				if p.Slot < 0 || p.Slot >= len(b.Slots) {
					fail(b.Key, p.Name, -1, "variant %s binds missing slot %d", v.Name, p.Slot)
					continue
				}
				if params[p.Name] || slots[p.Slot] {
					fail(b.Key, p.Name, b.Slots[p.Slot], "variant %s binds a parameter or slot twice", v.Name)
				}
				params[p.Name], slots[p.Slot] = true, true
				if msg := p.Rule.check(); msg != "" {
					fail(b.Key, p.Name, b.Slots[p.Slot], "%s", msg)
				}
			}
		}
	}
	return err
}
