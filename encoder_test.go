package main

import (
	"errors"
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// defaultChainBytes is the checked-in encoding of CreateDefaultChain. Any
// change here is a change of the device format and needs review.
var defaultChainBytes = []byte{
	0, 0, 65, 0, 0, 66, 66, 0, 65, 66, 0, 0, 50, 40, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0, 35, 70, 50, 55, 60, 45, 0, 0,
	80, 20, 60, 0, 0, 0, 0, 0, 35, 30, 25, 0, 45, 50, 30, 0,
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

const defaultChainTransport = "000000065000000066066000065066000000050040000000000000000000000000000000" +
	"035070050055060045000000080020060000000000000000035030025000045050030000" +
	"000000000000000000000000000000000000000000000000"

func disabledChain() Chain {
	var c Chain
	for _, key := range DefaultLayout().Blocks() {
		c.Blocks = append(c.Blocks, Block{Key: key})
	}
	return c
}

func withBlock(c Chain, b Block) Chain {
	out := c.Clone()
	out.set(b)
	return out
}

func TestEncodeDefaultChain(t *testing.T) {
	patch, err := Encode(CreateDefaultChain())
	require.NoError(t, err)

	assert.Equal(t, defaultChainBytes, patch.Bytes())
	assert.Equal(t, defaultChainTransport, TransportString(patch))
	assert.Equal(t, defaultChainTransport, patch.String())
}

func TestEncodeIsDeterministic(t *testing.T) {
	chain := CreateDefaultChain()
	want, err := Encode(chain)
	require.NoError(t, err)

	enc := NewEncoder(DefaultLayout())
	var g errgroup.Group
	for i := 0; i < 32; i++ {
		g.Go(func() error {
			got, err := enc.Encode(chain)
			if err != nil {
				return err
			}
			if !got.Equal(want) {
				return errors.New("concurrent encode produced different bytes")
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
}

func TestEncodeReturnsFreshPatch(t *testing.T) {
	patch, err := Encode(CreateDefaultChain())
	require.NoError(t, err)

	raw := patch.Bytes()
	raw[2] = 0
	assert.Equal(t, byte(65), patch.At(2), "mutating Bytes() must not touch the patch")

	again, err := Encode(CreateDefaultChain())
	require.NoError(t, err)
	assert.True(t, patch.Equal(again))
}

func TestTransportString(t *testing.T) {
	tests := []struct {
		name string
		raw  []byte
		want string
	}{
		{name: "empty", raw: nil, want: ""},
		{name: "padding", raw: []byte{0, 7, 42, 255}, want: "000007042255"},
		{name: "max", raw: []byte{255, 255}, want: "255255"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TransportString(NewPatch(tt.raw)))
		})
	}
}

func TestTransportStringLaws(t *testing.T) {
	raw := make([]byte, 256)
	for i := range raw {
		raw[i] = byte(i)
	}
	for _, p := range []Patch{NewPatch(raw), NewPatch(defaultChainBytes)} {
		s := TransportString(p)
		require.Len(t, s, 3*p.Len())
		for i := 0; i < p.Len(); i++ {
			n, err := strconv.Atoi(s[3*i : 3*i+3])
			require.NoError(t, err)
			assert.GreaterOrEqual(t, n, 0)
			assert.LessOrEqual(t, n, 255)
			assert.Equal(t, int(p.At(i)), n, "triplet %d", i)
		}
	}
}

func TestEncodeSingleDrive(t *testing.T) {
	chain := withBlock(disabledChain(), Block{
		Key:     BlockDrive,
		Enabled: true,
		Type:    "overdrive",
		Params:  map[string]float64{"gain": 50},
	})

	patch, err := Encode(chain)
	require.NoError(t, err)

	fields, err := DefaultLayout().Fields(Block{Key: BlockDrive, Type: "overdrive"})
	require.NoError(t, err)
	head, gain := fields[0], fields[1]
	require.Equal(t, RoleHeader, head.Role)
	require.Equal(t, "gain", gain.Param)

	for i := 0; i < patch.Len(); i++ {
		switch i {
		case head.Offset:
			assert.Equal(t, byte(0x40|1), patch.At(i))
		case gain.Offset:
			assert.Equal(t, gain.Rule.Raw(50), patch.At(i))
		default:
			assert.Zero(t, patch.At(i), "offset %d", i)
		}
	}

	report, err := Debug(chain)
	require.NoError(t, err)
	require.Len(t, report.Debug, 2)
	assert.Equal(t, DebugEntry{Index: 4, Value: 65, Description: "Head_drive"}, report.Debug[0])
	assert.Equal(t, DebugEntry{Index: 20, Value: 50, Description: "drive.gain"}, report.Debug[1])
	assert.True(t, report.Debug[0].IsHeader())
	assert.False(t, report.Debug[1].IsHeader())
}

func TestDebugCoversEveryNonZeroByte(t *testing.T) {
	chains := map[string]Chain{
		"default":  CreateDefaultChain(),
		"disabled": disabledChain(),
		"studio": withBlock(CreateDefaultChain(), Block{Key: BlockCompressor, Enabled: true, Type: "studio_comp",
			Params: map[string]float64{"threshold": -20, "ratio": 4, "gain": 10, "release": 70}}),
	}
	for name, chain := range chains {
		t.Run(name, func(t *testing.T) {
			patch, err := Encode(chain)
			require.NoError(t, err)
			report, err := Debug(chain)
			require.NoError(t, err)

			seen := make(map[int]int)
			last := -1
			for _, e := range report.Debug {
				assert.Greater(t, e.Index, last, "entries must be ascending")
				last = e.Index
				seen[e.Index]++
				assert.Equal(t, patch.At(e.Index), e.Value)
				owner, ok := DefaultLayout().Owner(e.Index)
				assert.True(t, ok, "index %d has no field", e.Index)
				assert.Contains(t, e.Description, string(owner))
			}
			for i := 0; i < patch.Len(); i++ {
				if patch.At(i) != 0 {
					assert.Equal(t, 1, seen[i], "index %d", i)
				}
			}
		})
	}
}

func TestDisabledBlockIsZeroed(t *testing.T) {
	chain := withBlock(disabledChain(), Block{
		Key:     BlockDrive,
		Enabled: false,
		Type:    "distortion",
		Params:  map[string]float64{"gain": 90, "tone": 80, "level": 70},
	})
	patch, err := Encode(chain)
	require.NoError(t, err)
	assert.Equal(t, make([]byte, DefaultLayout().Length()), patch.Bytes())

	report, err := Debug(chain)
	require.NoError(t, err)
	assert.Empty(t, report.Debug)
}

func TestScaledParameters(t *testing.T) {
	tests := []struct {
		name   string
		block  Block
		offset int
		want   byte
	}{
		{"cab low cut max", Block{Key: BlockCab, Enabled: true, Type: "jz120", Params: map[string]float64{"low_cut": 300}}, 33, 100},
		{"cab high cut", Block{Key: BlockCab, Enabled: true, Type: "jz120", Params: map[string]float64{"high_cut": 11000}}, 34, 50},
		{"delay time", Block{Key: BlockDelay, Enabled: true, Type: "tape", Params: map[string]float64{"time": 455}}, 40, 46},
		{"eq flat", Block{Key: BlockEQ, Enabled: true, Params: map[string]float64{"band_500hz": 0}}, 50, 30},
		{"eq half dB", Block{Key: BlockEQ, Enabled: true, Params: map[string]float64{"level": -14.5}}, 54, 1},
		{"comp threshold", Block{Key: BlockCompressor, Enabled: true, Type: "studio_comp", Params: map[string]float64{"threshold": -20}}, 15, 40},
		{"comp ratio", Block{Key: BlockCompressor, Enabled: true, Type: "studio_comp", Params: map[string]float64{"ratio": 4}}, 16, 15},
		{"amp bright", Block{Key: BlockAmp, Enabled: true, Type: "jazz_clean", Params: map[string]float64{"bright": 1}}, 30, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			patch, err := Encode(withBlock(disabledChain(), tt.block))
			require.NoError(t, err)
			assert.Equal(t, tt.want, patch.At(tt.offset))
		})
	}
}

func TestEmptyTypeSelectsDefaultVariant(t *testing.T) {
	patch, err := Encode(withBlock(disabledChain(), Block{Key: BlockReverb, Enabled: true}))
	require.NoError(t, err)
	assert.Equal(t, byte(0x41), patch.At(9))
}

func TestUnknownParameterIsIgnored(t *testing.T) {
	base := withBlock(disabledChain(), Block{Key: BlockDrive, Enabled: true, Type: "fuzz", Params: map[string]float64{"gain": 10}})
	extra := withBlock(disabledChain(), Block{Key: BlockDrive, Enabled: true, Type: "fuzz", Params: map[string]float64{"gain": 10, "tone": 99}})

	want, err := Encode(base)
	require.NoError(t, err)
	got, err := Encode(extra)
	require.NoError(t, err)
	assert.True(t, want.Equal(got))
}

func TestOutOfRangePolicy(t *testing.T) {
	hot := withBlock(disabledChain(), Block{Key: BlockDrive, Enabled: true, Params: map[string]float64{"gain": 150, "tone": -5}})

	t.Run("clamp", func(t *testing.T) {
		patch, err := Encode(hot)
		require.NoError(t, err)
		assert.Equal(t, byte(100), patch.At(20))
		assert.Equal(t, byte(0), patch.At(21))
	})

	t.Run("reject", func(t *testing.T) {
		enc := NewEncoder(DefaultLayout(), WithPolicy(Policy{OutOfRange: RangeReject, MissingBlocks: MissingFill}))
		_, err := enc.Encode(hot)
		var rangeErr *OutOfRangeValueError
		require.ErrorAs(t, err, &rangeErr)
		assert.Equal(t, BlockDrive, rangeErr.Block)
		assert.Contains(t, []string{"gain", "tone"}, rangeErr.Param)
		assert.Equal(t, 0.0, rangeErr.Min)
		assert.Equal(t, 100.0, rangeErr.Max)

		_, err = enc.Debug(hot)
		assert.ErrorAs(t, err, &rangeErr)
	})

	t.Run("enum clamp and reject", func(t *testing.T) {
		amp := withBlock(disabledChain(), Block{Key: BlockAmp, Enabled: true, Type: "jazz_clean", Params: map[string]float64{"bright": 0.6}})
		patch, err := Encode(amp)
		require.NoError(t, err)
		assert.Equal(t, byte(1), patch.At(30))

		enc := NewEncoder(DefaultLayout(), WithPolicy(Policy{OutOfRange: RangeReject, MissingBlocks: MissingFill}))
		_, err = enc.Encode(amp)
		var rangeErr *OutOfRangeValueError
		require.ErrorAs(t, err, &rangeErr)
		assert.Equal(t, "bright", rangeErr.Param)
		assert.Equal(t, "amp.bright: value 0.6 is not an enum index in [0, 1]", err.Error())

		_, err = enc.Encode(withBlock(disabledChain(), Block{Key: BlockAmp, Enabled: true, Type: "jazz_clean", Params: map[string]float64{"bright": 3}}))
		assert.EqualError(t, err, "amp.bright: value 3 outside [0, 1]")
	})

	t.Run("NaN is rejected even when clamping", func(t *testing.T) {
		nan := withBlock(disabledChain(), Block{Key: BlockDrive, Enabled: true, Params: map[string]float64{"gain": math.NaN()}})
		_, err := Encode(nan)
		var rangeErr *OutOfRangeValueError
		assert.ErrorAs(t, err, &rangeErr)
	})
}

func TestMissingBlockPolicy(t *testing.T) {
	drive := Block{Key: BlockDrive, Enabled: true, Params: map[string]float64{"gain": 50}}
	partial := Chain{Blocks: []Block{drive}}

	t.Run("fill", func(t *testing.T) {
		got, err := Encode(partial)
		require.NoError(t, err)
		want, err := Encode(withBlock(disabledChain(), drive))
		require.NoError(t, err)
		assert.True(t, want.Equal(got))
	})

	t.Run("reject", func(t *testing.T) {
		enc := NewEncoder(DefaultLayout(), WithPolicy(Policy{OutOfRange: RangeClamp, MissingBlocks: MissingReject}))
		_, err := enc.Encode(partial)
		var incomplete *IncompleteChainError
		require.ErrorAs(t, err, &incomplete)
		assert.Len(t, incomplete.Missing, len(DefaultLayout().Blocks())-1)
		assert.NotContains(t, incomplete.Missing, BlockDrive)
		assert.Contains(t, err.Error(), "noisegate")
	})

	t.Run("complete chain in layout order", func(t *testing.T) {
		reversed := CreateDefaultChain()
		for i, j := 0, len(reversed.Blocks)-1; i < j; i, j = i+1, j-1 {
			reversed.Blocks[i], reversed.Blocks[j] = reversed.Blocks[j], reversed.Blocks[i]
		}
		full, err := NewEncoder(DefaultLayout()).Complete(reversed)
		require.NoError(t, err)
		assert.Equal(t, DefaultLayout().Blocks(), full.Keys())

		patch, err := Encode(reversed)
		require.NoError(t, err)
		assert.Equal(t, defaultChainBytes, patch.Bytes())
	})
}

func TestChainErrors(t *testing.T) {
	tests := []struct {
		name  string
		chain Chain
	}{
		{"unknown block", withBlock(disabledChain(), Block{Key: "wah", Enabled: true})},
		{"unknown type", withBlock(disabledChain(), Block{Key: BlockAmp, Enabled: true, Type: "no_such_amp"})},
		{"unknown type on disabled block", withBlock(disabledChain(), Block{Key: BlockAmp, Type: "no_such_amp"})},
		{"duplicate block", Chain{Blocks: append(disabledChain().Blocks, Block{Key: BlockDrive})}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Encode(tt.chain)
			var chainErr *ChainError
			assert.ErrorAs(t, err, &chainErr)
		})
	}
}

func TestSchemaIntegrityAbortsEncoding(t *testing.T) {
	tests := []struct {
		name  string
		slots []int
	}{
		{"slot past the end", []int{12, 99}},
		{"slot collides with header", []int{2, 13}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := uncheckedLayout(LayoutDef{
				Name:       "broken",
				Length:     16,
				EnableMask: 0x40,
				Blocks: []BlockDef{{
					Key:   BlockNoiseGate,
					Head:  2,
					Slots: tt.slots,
					Variants: []VariantDef{{ID: 1, Name: "noise_gate", Params: []ParamDef{
						{Name: "sensitivity", Slot: 0, Rule: percent()},
						{Name: "decay", Slot: 1, Rule: percent()},
					}}},
				}},
			})
			chain := Chain{Blocks: []Block{{Key: BlockNoiseGate, Enabled: true, Params: map[string]float64{"sensitivity": 10, "decay": 10}}}}

			_, err := NewEncoder(l).Encode(chain)
			var schemaErr *SchemaIntegrityError
			require.ErrorAs(t, err, &schemaErr)
			assert.Equal(t, BlockNoiseGate, schemaErr.Block)
		})
	}
}

// uncheckedLayout indexes def without validating it.
func uncheckedLayout(def LayoutDef) *Layout {
	l := &Layout{def: def, blocks: make(map[BlockKey]int), owners: make(map[int]BlockKey)}
	for i, b := range def.Blocks {
		l.blocks[b.Key] = i
	}
	return l
}

func TestEncoderRejectsUnknownPolicy(t *testing.T) {
	hot := withBlock(disabledChain(), Block{Key: BlockDrive, Enabled: true, Params: map[string]float64{"gain": 500}})
	for _, p := range []Policy{
		{OutOfRange: "wrap", MissingBlocks: MissingFill},
		{OutOfRange: RangeClamp, MissingBlocks: "skip"},
	} {
		enc := NewEncoder(DefaultLayout(), WithPolicy(p))
		_, err := enc.Encode(hot)
		assert.ErrorContains(t, err, "unknown", "%+v", p)
		_, err = enc.Debug(hot)
		assert.Error(t, err)
	}
}

func TestPolicyValidate(t *testing.T) {
	assert.NoError(t, DefaultPolicy().Validate())
	assert.NoError(t, Policy{OutOfRange: RangeReject, MissingBlocks: MissingReject}.Validate())
	assert.Error(t, Policy{OutOfRange: "wrap", MissingBlocks: MissingFill}.Validate())
	assert.Error(t, Policy{OutOfRange: RangeClamp, MissingBlocks: "ignore"}.Validate())
}
