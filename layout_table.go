package main

// plugProLayout is the patch memory map of the Mighty Plug Pro preset format.
// Offsets 0-1 and every offset not listed here are reserved and stay zero.
var plugProLayout = LayoutDef{
	Name:       "Mighty Plug Pro",
	Length:     64,
	EnableMask: 0x40,
	Blocks: []BlockDef{
		{
			Key:   BlockNoiseGate,
			Head:  2,
			Slots: []int{12, 13},
			Variants: []VariantDef{
				{ID: 1, Name: "noise_gate", Params: []ParamDef{
					{Name: "sensitivity", Slot: 0, Rule: percent()},
					{Name: "decay", Slot: 1, Rule: percent()},
				}},
			},
		},
		{
			Key:   BlockCompressor,
			Head:  3,
			Slots: []int{15, 16, 17, 18},
			Variants: []VariantDef{
				{ID: 1, Name: "rose_comp", Params: []ParamDef{
					{Name: "sustain", Slot: 0, Rule: percent()},
					{Name: "level", Slot: 1, Rule: percent()},
				}},
				{ID: 2, Name: "k_comp", Params: []ParamDef{
					{Name: "sustain", Slot: 0, Rule: percent()},
					{Name: "level", Slot: 1, Rule: percent()},
					{Name: "clipping", Slot: 2, Rule: percent()},
				}},
				{ID: 3, Name: "studio_comp", Params: []ParamDef{
					{Name: "threshold", Slot: 0, Rule: linear(-60, 0, 0, 60, "dB")},
					{Name: "ratio", Slot: 1, Rule: linear(1, 20, 0, 95, ":1")},
					{Name: "gain", Slot: 2, Rule: percent()},
					{Name: "release", Slot: 3, Rule: percent()},
				}},
			},
		},
		{
			Key:   BlockDrive,
			Head:  4,
			Slots: []int{20, 21, 22},
			Variants: []VariantDef{
				{ID: 1, Name: "overdrive", Params: gainToneLevel()},
				{ID: 2, Name: "distortion", Params: gainToneLevel()},
				{ID: 3, Name: "fuzz", Params: []ParamDef{
					{Name: "gain", Slot: 0, Rule: percent()},
					{Name: "level", Slot: 1, Rule: percent()},
				}},
			},
		},
		{
			Key:   BlockAmp,
			Head:  5,
			Slots: []int{24, 25, 26, 27, 28, 29, 30},
			Variants: []VariantDef{
				{ID: 1, Name: "jazz_clean", Params: ampParams(ParamDef{Name: "bright", Slot: 6, Rule: enum(0, 1)})},
				{ID: 2, Name: "deluxe_rvb", Params: ampParams(ParamDef{Name: "presence", Slot: 5, Rule: percent()})},
				{ID: 3, Name: "plexi", Params: ampParams(ParamDef{Name: "presence", Slot: 5, Rule: percent()})},
				{ID: 4, Name: "modern_hi_gain", Params: ampParams(ParamDef{Name: "presence", Slot: 5, Rule: percent()})},
			},
		},
		{
			Key:   BlockCab,
			Head:  6,
			Slots: []int{32, 33, 34},
			Variants: []VariantDef{
				{ID: 1, Name: "jz120", Params: cabParams()},
				{ID: 2, Name: "dr112", Params: cabParams()},
				{ID: 3, Name: "tr212", Params: cabParams()},
				{ID: 4, Name: "v30_412", Params: cabParams()},
			},
		},
		{
			Key:   BlockModulation,
			Head:  7,
			Slots: []int{36, 37, 38},
			Variants: []VariantDef{
				{ID: 1, Name: "chorus", Params: []ParamDef{
					{Name: "rate", Slot: 0, Rule: percent()},
					{Name: "depth", Slot: 1, Rule: percent()},
					{Name: "mix", Slot: 2, Rule: percent()},
				}},
				{ID: 2, Name: "phaser", Params: []ParamDef{
					{Name: "rate", Slot: 0, Rule: percent()},
					{Name: "depth", Slot: 1, Rule: percent()},
					{Name: "feedback", Slot: 2, Rule: percent()},
				}},
				{ID: 3, Name: "tremolo", Params: rateDepth()},
				{ID: 4, Name: "vibrato", Params: rateDepth()},
			},
		},
		{
			Key:   BlockDelay,
			Head:  8,
			Slots: []int{40, 41, 42},
			Variants: []VariantDef{
				{ID: 1, Name: "analog", Params: delayParams()},
				{ID: 2, Name: "digital", Params: delayParams()},
				{ID: 3, Name: "tape", Params: delayParams()},
			},
		},
		{
			Key:   BlockReverb,
			Head:  9,
			Slots: []int{44, 45, 46},
			Variants: []VariantDef{
				{ID: 1, Name: "room", Params: reverbParams()},
				{ID: 2, Name: "hall", Params: reverbParams()},
				{ID: 3, Name: "plate", Params: reverbParams()},
				{ID: 4, Name: "spring", Params: reverbParams()},
			},
		},
		{
			Key:   BlockEQ,
			Head:  10,
			Slots: []int{48, 49, 50, 51, 52, 53, 54},
			Variants: []VariantDef{
				{ID: 1, Name: "six_band", Params: []ParamDef{
					{Name: "band_100hz", Slot: 0, Rule: eqGain()},
					{Name: "band_220hz", Slot: 1, Rule: eqGain()},
					{Name: "band_500hz", Slot: 2, Rule: eqGain()},
					{Name: "band_1k2hz", Slot: 3, Rule: eqGain()},
					{Name: "band_2k6hz", Slot: 4, Rule: eqGain()},
					{Name: "band_6k4hz", Slot: 5, Rule: eqGain()},
					{Name: "level", Slot: 6, Rule: eqGain()},
				}},
			},
		},
	},
}

func gainToneLevel() []ParamDef {
	return []ParamDef{
		{Name: "gain", Slot: 0, Rule: percent()},
		{Name: "tone", Slot: 1, Rule: percent()},
		{Name: "level", Slot: 2, Rule: percent()},
	}
}

func ampParams(extra ParamDef) []ParamDef {
	return []ParamDef{
		{Name: "gain", Slot: 0, Rule: percent()},
		{Name: "master", Slot: 1, Rule: percent()},
		{Name: "bass", Slot: 2, Rule: percent()},
		{Name: "middle", Slot: 3, Rule: percent()},
		{Name: "treble", Slot: 4, Rule: percent()},
		extra,
	}
}

func cabParams() []ParamDef {
	return []ParamDef{
		{Name: "level", Slot: 0, Rule: percent()},
		{Name: "low_cut", Slot: 1, Rule: linear(20, 300, 0, 100, "Hz")},
		{Name: "high_cut", Slot: 2, Rule: linear(2000, 20000, 0, 100, "Hz")},
	}
}

func rateDepth() []ParamDef {
	return []ParamDef{
		{Name: "rate", Slot: 0, Rule: percent()},
		{Name: "depth", Slot: 1, Rule: percent()},
	}
}

func delayParams() []ParamDef {
	return []ParamDef{
		{Name: "time", Slot: 0, Rule: linear(0, 1000, 0, 100, "ms")},
		{Name: "feedback", Slot: 1, Rule: percent()},
		{Name: "mix", Slot: 2, Rule: percent()},
	}
}

func reverbParams() []ParamDef {
	return []ParamDef{
		{Name: "decay", Slot: 0, Rule: percent()},
		{Name: "tone", Slot: 1, Rule: percent()},
		{Name: "mix", Slot: 2, Rule: percent()},
	}
}

// eqGain covers -15..+15 dB in half-dB steps.
func eqGain() Rule {
	return linear(-15, 15, 0, 60, "dB")
}
