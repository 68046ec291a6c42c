package main

// BlockKey identifies a slot in the effect chain.
type BlockKey string

const (
	BlockNoiseGate  BlockKey = "noisegate"
	BlockCompressor BlockKey = "compressor"
	BlockDrive      BlockKey = "drive"
	BlockAmp        BlockKey = "amp"
	BlockCab        BlockKey = "cab"
	BlockModulation BlockKey = "modulation"
	BlockDelay      BlockKey = "delay"
	BlockReverb     BlockKey = "reverb"
	BlockEQ         BlockKey = "eq"
)

// Block is one effect unit. Params hold logical values (gain 0-100, Hz, dB, ms);
// raw bytes are only ever derived by the encoder.
type Block struct {
	Key     BlockKey           `json:"key"`
	Enabled bool               `json:"enabled"`
	Type    string             `json:"type"`
	Params  map[string]float64 `json:"params,omitempty"`
}

// Chain is the ordered signal path.
type Chain struct {
	Blocks []Block `json:"blocks"`
}

// Block returns the block stored under key.
func (c Chain) Block(key BlockKey) (Block, bool) {
	for _, b := range c.Blocks {
		if b.Key == key {
			return b, true
		}
	}
	return Block{}, false
}

// Keys lists the block keys in chain order.
func (c Chain) Keys() []BlockKey {
	keys := make([]BlockKey, 0, len(c.Blocks))
	for _, b := range c.Blocks {
		keys = append(keys, b.Key)
	}
	return keys
}

// Clone returns a deep copy so callers can tweak a chain without touching the original.
func (c Chain) Clone() Chain {
	out := Chain{Blocks: make([]Block, len(c.Blocks))}
	for i, b := range c.Blocks {
		out.Blocks[i] = b.clone()
	}
	return out
}

// set replaces the block with the same key, or appends it.
func (c *Chain) set(b Block) {
	for i := range c.Blocks {
		if c.Blocks[i].Key == b.Key {
			c.Blocks[i] = b
			return
		}
	}
	c.Blocks = append(c.Blocks, b)
}

func (b Block) clone() Block {
	out := b
	if b.Params != nil {
		out.Params = make(map[string]float64, len(b.Params))
		for k, v := range b.Params {
			out.Params[k] = v
		}
	}
	return out
}
