// Package cabac implements context-adaptive binary arithmetic coding for xvc.
//
// This includes:
// - ContextModel (64-state adaptive probability estimate)
// - Encoder and Decoder engines with a 9-bit range register
// - Contexts, the full set of models per syntax element with their
//   initialization tables and context derivation functions
package cabac

// NumStates is the number of probability states of a ContextModel.
const NumStates = 64

// ContextModel is one adaptive binary probability estimate.
type ContextModel struct {
	state uint8 // LPS probability state, 0 is equiprobable
	mps   uint8 // Most probable symbol
}

// State transition on coding the most probable symbol.
var nextStateMPS = [NumStates]uint8{
	1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16,
	17, 18, 19, 20, 21, 22, 23, 24, 25, 26, 27, 28, 29, 30, 31, 32,
	33, 34, 35, 36, 37, 38, 39, 40, 41, 42, 43, 44, 45, 46, 47, 48,
	49, 50, 51, 52, 53, 54, 55, 56, 57, 58, 59, 60, 61, 62, 62, 63,
}

// State transition on coding the least probable symbol.
var nextStateLPS = [NumStates]uint8{
	0, 0, 1, 2, 2, 4, 4, 5, 6, 7, 8, 9, 9, 11, 11, 12,
	13, 13, 15, 15, 16, 16, 18, 18, 19, 19, 21, 21, 22, 22, 23, 24,
	24, 25, 26, 26, 27, 27, 28, 29, 29, 30, 30, 30, 31, 32, 32, 33,
	33, 33, 34, 34, 35, 35, 35, 36, 36, 36, 37, 37, 37, 38, 38, 63,
}

// Init derives the initial state from a table init value and the slice QP.
func (c *ContextModel) Init(qp int, initValue uint8) {
	qp = clip(qp, 0, 51)
	slope := (int(initValue)>>4)*5 - 45
	offset := (int(initValue&15) << 3) - 16
	s := clip(((slope*qp)>>4)+offset, 1, 126)
	if s >= 64 {
		c.mps = 1
		c.state = uint8(s - 64)
	} else {
		c.mps = 0
		c.state = uint8(63 - s)
	}
}

// State returns the probability state index.
func (c ContextModel) State() uint8 { return c.state }

// MPS returns the most probable symbol.
func (c ContextModel) MPS() uint32 { return uint32(c.mps) }

func (c *ContextModel) updateMPS() {
	c.state = nextStateMPS[c.state]
}

func (c *ContextModel) updateLPS() {
	if c.state == 0 {
		c.mps = 1 - c.mps
	}
	c.state = nextStateLPS[c.state]
}

func clip(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
