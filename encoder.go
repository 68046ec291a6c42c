package main

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"
)

// RangePolicy decides what happens to a parameter outside its rule's domain.
type RangePolicy string

const (
	RangeClamp  RangePolicy = "clamp"
	RangeReject RangePolicy = "reject"
)

// MissingBlockPolicy decides what happens to layout slots the chain omits.
type MissingBlockPolicy string

const (
	// MissingFill encodes an omitted slot as a disabled block of its default type.
	MissingFill   MissingBlockPolicy = "fill"
	MissingReject MissingBlockPolicy = "reject"
)

// Policy bundles the recoverable-error policies of an Encoder.
type Policy struct {
	OutOfRange    RangePolicy        `yaml:"out_of_range" json:"out_of_range"`
	MissingBlocks MissingBlockPolicy `yaml:"missing_blocks" json:"missing_blocks"`
}

// DefaultPolicy clamps values and fills missing slots.
func DefaultPolicy() Policy {
	return Policy{OutOfRange: RangeClamp, MissingBlocks: MissingFill}
}

// Validate rejects unknown policy names.
func (p Policy) Validate() error {
	switch p.OutOfRange {
	case RangeClamp, RangeReject:
	default:
		return fmt.Errorf("unknown out_of_range policy %q (want %q or %q)", p.OutOfRange, RangeClamp, RangeReject)
	}
	switch p.MissingBlocks {
	case MissingFill, MissingReject:
	default:
		return fmt.Errorf("unknown missing_blocks policy %q (want %q or %q)", p.MissingBlocks, MissingFill, MissingReject)
	}
	return nil
}

// Patch is an encoded chain in the device's patch memory format. It is never
// modified after the encoder returns it.
type Patch struct {
	data []byte
}

// NewPatch copies raw into a Patch.
func NewPatch(raw []byte) Patch {
	return Patch{data: append([]byte(nil), raw...)}
}

// Len is the patch length in bytes.
func (p Patch) Len() int { return len(p.data) }

// At returns the byte at index i.
func (p Patch) At(i int) byte { return p.data[i] }

// Bytes returns a copy of the patch bytes.
func (p Patch) Bytes() []byte { return append([]byte(nil), p.data...) }

// Equal reports whether both patches hold the same bytes.
func (p Patch) Equal(o Patch) bool { return string(p.data) == string(o.data) }

// String returns the transport string.
func (p Patch) String() string { return TransportString(p) }

// MarshalJSON writes the bytes as a list of numbers rather than base64.
func (p Patch) MarshalJSON() ([]byte, error) {
	ints := make([]int, len(p.data))
	for i, b := range p.data {
		ints[i] = int(b)
	}
	return json.Marshal(ints)
}

// TransportString renders every byte as a zero-padded decimal triplet with no
// separators. The result is always three times the patch length.
func TransportString(p Patch) string {
	var b strings.Builder
	b.Grow(3 * len(p.data))
	for _, v := range p.data {
		fmt.Fprintf(&b, "%03d", v)
	}
	return b.String()
}

// DebugEntry correlates one non-zero patch byte with the field that wrote it.
type DebugEntry struct {
	Index       int    `json:"index"`
	Value       byte   `json:"value"`
	Description string `json:"description"`
}

// IsHeader reports whether the entry is a block header byte.
func (d DebugEntry) IsHeader() bool {
	return strings.HasPrefix(d.Description, "Head_")
}

// DebugReport lists non-zero bytes in ascending index order.
type DebugReport struct {
	Debug []DebugEntry `json:"debug"`
}

// Encoder walks a Chain against a Layout. It holds no mutable state and is
// safe for concurrent use.
type Encoder struct {
	layout *Layout
	policy Policy
	logger *zap.Logger
}

// EncoderOption configures an Encoder.
type EncoderOption func(*Encoder)

// WithPolicy sets the range and missing-block policies. An invalid policy
// makes every Encode and Debug call fail with the Validate error.
func WithPolicy(p Policy) EncoderOption {
	return func(e *Encoder) { e.policy = p }
}

// WithLogger sets the logger used for clamp and fill notices.
func WithLogger(l *zap.Logger) EncoderOption {
	return func(e *Encoder) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEncoder returns an Encoder over layout with the default policy.
func NewEncoder(layout *Layout, opts ...EncoderOption) *Encoder {
	e := &Encoder{layout: layout, policy: DefaultPolicy(), logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Layout returns the layout the encoder writes.
func (e *Encoder) Layout() *Layout { return e.layout }

// Policy returns the encoder's policies.
func (e *Encoder) Policy() Policy { return e.policy }

// Encode encodes the chain with the default layout and policy.
func Encode(c Chain) (Patch, error) {
	return NewEncoder(DefaultLayout()).Encode(c)
}

// Debug lists the non-zero bytes of the chain's encoding with the default layout and policy.
func Debug(c Chain) (DebugReport, error) {
	return NewEncoder(DefaultLayout()).Debug(c)
}

// Complete returns the chain reordered to layout order with one block per
// slot. Omitted slots are filled or rejected according to the policy; unknown
// and duplicate keys are always rejected.
func (e *Encoder) Complete(c Chain) (Chain, error) {
	if err := e.policy.Validate(); err != nil {
		return Chain{}, err
	}
	byKey := make(map[BlockKey]Block, len(c.Blocks))
	for _, b := range c.Blocks {
		if _, ok := e.layout.Block(b.Key); !ok {
			return Chain{}, &ChainError{Block: b.Key, Detail: "unknown block"}
		}
		if _, dup := byKey[b.Key]; dup {
			return Chain{}, &ChainError{Block: b.Key, Detail: "block appears more than once"}
		}
		byKey[b.Key] = b
	}

	keys := e.layout.Blocks()
	out := Chain{Blocks: make([]Block, 0, len(keys))}
	var missing []BlockKey
	for _, key := range keys {
		b, ok := byKey[key]
		if !ok {
			missing = append(missing, key)
			b = Block{Key: key}
		}
		out.Blocks = append(out.Blocks, b)
	}

	if len(missing) > 0 {
		if e.policy.MissingBlocks == MissingReject {
			return Chain{}, &IncompleteChainError{Missing: missing}
		}
		e.logger.Debug("filled missing blocks", zap.Int("count", len(missing)), zap.Any("blocks", missing))
	}
	return out, nil
}

// Encode produces a fresh patch for c.
func (e *Encoder) Encode(c Chain) (Patch, error) {
	data, _, err := e.encode(c)
	if err != nil {
		return Patch{}, err
	}
	return Patch{data: data}, nil
}

// Debug encodes c and lists every non-zero byte with the name of its field.
func (e *Encoder) Debug(c Chain) (DebugReport, error) {
	data, fields, err := e.encode(c)
	if err != nil {
		return DebugReport{}, err
	}
	return debugReport(data, fields)
}

func debugReport(data []byte, fields map[int]FieldSpec) (DebugReport, error) {
	report := DebugReport{Debug: []DebugEntry{}}
	for i, v := range data {
		if v == 0 {
			continue
		}
		f, ok := fields[i]
		if !ok {
			return DebugReport{}, &SchemaIntegrityError{Offset: i, Detail: "non-zero byte has no field"}
		}
		report.Debug = append(report.Debug, DebugEntry{Index: i, Value: v, Description: f.Description()})
	}
	return report, nil
}

// encode returns the patch bytes and every field it resolved, keyed by offset.
func (e *Encoder) encode(c Chain) ([]byte, map[int]FieldSpec, error) {
	full, err := e.Complete(c)
	if err != nil {
		return nil, nil, err
	}

	data := make([]byte, e.layout.Length())
	fields := make(map[int]FieldSpec)
	claim := func(f FieldSpec) error {
		if f.Offset < 0 || f.Offset+f.Width > len(data) {
			return &SchemaIntegrityError{Block: f.Block, Field: f.Param, Offset: f.Offset,
				Detail: fmt.Sprintf("outside patch of %d bytes", len(data))}
		}
		if prev, ok := fields[f.Offset]; ok {
			return &SchemaIntegrityError{Block: f.Block, Field: f.Param, Offset: f.Offset,
				Detail: "offset already written by " + prev.Description()}
		}
		fields[f.Offset] = f
		return nil
	}

	for _, b := range full.Blocks {
		v, err := e.layout.Variant(b.Key, b.Type)
		if err != nil {
			return nil, nil, err
		}
		specs, err := e.layout.Fields(b)
		if err != nil {
			return nil, nil, err
		}

		known := make(map[string]bool, len(specs))
		for _, f := range specs {
			if err := claim(f); err != nil {
				return nil, nil, err
			}
			if f.Role == RoleHeader {
				data[f.Offset] = e.layout.header(b.Enabled, v)
				continue
			}
			known[f.Param] = true
			val, ok := b.Params[f.Param]
			if !ok || !b.Enabled {
				continue
			}
			raw, err := e.raw(f, val)
			if err != nil {
				return nil, nil, err
			}
			data[f.Offset] = raw
		}

		for name := range b.Params {
			if !known[name] {
				e.logger.Debug("ignoring parameter the block type does not expose",
					zap.String("block", string(b.Key)), zap.String("type", v.Name), zap.String("param", name))
			}
		}
	}
	return data, fields, nil
}

func (e *Encoder) raw(f FieldSpec, v float64) (byte, error) {
	if f.Rule.Legal(v) {
		return f.Rule.Raw(v), nil
	}
	min, max := f.Rule.Bounds()
	if math.IsNaN(v) || math.IsInf(v, 0) || e.policy.OutOfRange == RangeReject {
		err := &OutOfRangeValueError{Block: f.Block, Param: f.Param, Value: v, Min: min, Max: max}
		if f.Rule.Kind == RuleEnum && v >= min && v <= max {
			err.Detail = fmt.Sprintf("is not an enum index in [%g, %g]", min, max)
		}
		return 0, err
	}
	clamped := f.Rule.Clamp(v)
	e.logger.Debug("clamped parameter",
		zap.String("block", string(f.Block)),
		zap.String("param", f.Param),
		zap.Float64("value", v),
		zap.Float64("clamped", clamped))
	return f.Rule.Raw(clamped), nil
}
