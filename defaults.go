package main

// CreateDefaultChain returns the factory baseline verified on hardware: gate,
// amp, cab, delay and reverb on; compressor, drive, modulation and EQ off but
// preset to their factory values. Every call returns a fresh chain.
func CreateDefaultChain() Chain {
	return Chain{Blocks: []Block{
		{Key: BlockNoiseGate, Enabled: true, Type: "noise_gate", Params: map[string]float64{
			"sensitivity": 50,
			"decay":       40,
		}},
		{Key: BlockCompressor, Enabled: false, Type: "rose_comp", Params: map[string]float64{
			"sustain": 50,
			"level":   60,
		}},
		{Key: BlockDrive, Enabled: false, Type: "overdrive", Params: map[string]float64{
			"gain":  40,
			"tone":  50,
			"level": 60,
		}},
		{Key: BlockAmp, Enabled: true, Type: "deluxe_rvb", Params: map[string]float64{
			"gain":     35,
			"master":   70,
			"bass":     50,
			"middle":   55,
			"treble":   60,
			"presence": 45,
		}},
		{Key: BlockCab, Enabled: true, Type: "dr112", Params: map[string]float64{
			"level":    80,
			"low_cut":  76,
			"high_cut": 12800,
		}},
		{Key: BlockModulation, Enabled: false, Type: "chorus", Params: map[string]float64{
			"rate":  40,
			"depth": 50,
			"mix":   50,
		}},
		{Key: BlockDelay, Enabled: true, Type: "analog", Params: map[string]float64{
			"time":     350,
			"feedback": 30,
			"mix":      25,
		}},
		{Key: BlockReverb, Enabled: true, Type: "hall", Params: map[string]float64{
			"decay": 45,
			"tone":  50,
			"mix":   30,
		}},
		{Key: BlockEQ, Enabled: false, Type: "six_band", Params: map[string]float64{
			"band_100hz": 0,
			"band_220hz": 0,
			"band_500hz": 0,
			"band_1k2hz": 0,
			"band_2k6hz": 0,
			"band_6k4hz": 0,
			"level":      0,
		}},
	}}
}
