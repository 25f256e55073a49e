// Package e2e implements the end-to-end message protection used by the
// light-switch bus message: a stateless CRC-8/counter codec (C1) and a
// stateful communication-health classifier (C2). Grounded on
// original_source/src/BSW/E2E/E2E_P01.cpp (AUTOSAR E2E Profile 01) for
// the CRC table and counter mechanics, adapted to the single, explicit
// algorithm spec.md §4.1 describes.
package e2e

// CheckVerdict classifies one check() call's outcome. The zero value is
// the distinguished invalid default, so a zero-initialized CheckState
// never reports a verdict as if a check had actually run.
type CheckVerdict int

const (
	VerdictUninitialized CheckVerdict = iota
	VerdictInitial
	VerdictOK
	VerdictOKSomeLost
	VerdictWrongCRC
	VerdictWrongSequence
	VerdictRepeated
	VerdictNoNewData
)

func (v CheckVerdict) String() string {
	switch v {
	case VerdictInitial:
		return "INITIAL"
	case VerdictOK:
		return "OK"
	case VerdictOKSomeLost:
		return "OKSOMELOST"
	case VerdictWrongCRC:
		return "WRONGCRC"
	case VerdictWrongSequence:
		return "WRONGSEQUENCE"
	case VerdictRepeated:
		return "REPEATED"
	case VerdictNoNewData:
		return "NONEWDATA"
	default:
		return "UNINITIALIZED"
	}
}

// OKish reports whether a verdict counts as "OK-ish" for the health
// state machine: OK, OKSOMELOST, or INITIAL.
func (v CheckVerdict) OKish() bool {
	return v == VerdictOK || v == VerdictOKSomeLost || v == VerdictInitial
}

// Config is the E2E Profile 01 configuration for one message: byte
// offsets (converted from the bit offsets in spec §6/§9), the DataID
// used in the CRC seed, and the sequence-counter tolerances.
type Config struct {
	DataID             uint16
	CRCByteOffset      int
	CounterByteOffset  int
	MaxDeltaCounter    int
	MaxNoNewOrRepeated int
}

// NewConfigFromBitOffsets converts bit offsets (as given in spec §6/§9)
// to the byte-aligned Config this codec operates on. Only byte-aligned
// layouts are supported, per §9.
func NewConfigFromBitOffsets(dataID uint16, crcOffsetBits, counterOffsetBits, maxDelta, maxNoNew int) Config {
	return Config{
		DataID:             dataID,
		CRCByteOffset:      crcOffsetBits / 8,
		CounterByteOffset:  counterOffsetBits / 8,
		MaxDeltaCounter:    maxDelta,
		MaxNoNewOrRepeated: maxNoNew,
	}
}

const (
	counterMask   = 0x0F
	counterWrap   = 15 // valid counter values: 0..14
	counterMaxVal = 14
)

// ProtectState is the sender-side state: just the running counter.
// Described for symmetry with the receiver (§3); this core never
// transmits a protected frame itself.
type ProtectState struct {
	Counter uint8
}

// Protect writes state.Counter into the counter nibble of buf, computes
// the CRC over [DataID hi, DataID lo, buf except buf[crcOffset]] in
// storage order, writes it at buf[crcOffset], and advances the counter
// modulo 15.
func Protect(cfg Config, state *ProtectState, buf []byte) {
	setCounterNibble(buf, cfg.CounterByteOffset, state.Counter)
	crc := computeCRC(cfg, buf)
	buf[cfg.CRCByteOffset] = crc
	state.Counter = incrementCounter(state.Counter)
}

// CheckState is the receiver-side state C3 owns across ticks.
type CheckState struct {
	LastValidCounter     uint8
	WaitingForFirst      bool
	NoNewOrRepeatedCount int
	LostCount            int
	Verdict              CheckVerdict
}

// NewCheckState returns a check state ready for its first check() call.
func NewCheckState() CheckState {
	return CheckState{WaitingForFirst: true, Verdict: VerdictUninitialized}
}

// Check runs one E2E check cycle. buf == nil means "no frame this
// tick": it increments the no-new-data counter and returns NONEWDATA
// once that reaches cfg.MaxNoNewOrRepeated, otherwise it returns the
// previous verdict unchanged.
func Check(cfg Config, state *CheckState, buf []byte) CheckVerdict {
	if buf == nil {
		state.NoNewOrRepeatedCount++
		if state.NoNewOrRepeatedCount >= cfg.MaxNoNewOrRepeated {
			state.Verdict = VerdictNoNewData
		}
		return state.Verdict
	}

	state.NoNewOrRepeatedCount = 0

	received := computeCRC(cfg, buf)
	expected := buf[cfg.CRCByteOffset]
	if received != expected {
		state.Verdict = VerdictWrongCRC
		return state.Verdict
	}

	receivedCounter := getCounterNibble(buf, cfg.CounterByteOffset)

	if state.WaitingForFirst {
		state.WaitingForFirst = false
		state.LastValidCounter = receivedCounter
		state.Verdict = VerdictInitial
		return state.Verdict
	}

	delta := deltaCounter(receivedCounter, state.LastValidCounter)
	switch {
	case delta == 0:
		state.Verdict = VerdictRepeated
	case delta == 1:
		state.LastValidCounter = receivedCounter
		state.Verdict = VerdictOK
	case delta > 1 && delta <= cfg.MaxDeltaCounter:
		state.LostCount += delta - 1
		state.LastValidCounter = receivedCounter
		state.Verdict = VerdictOKSomeLost
	default:
		state.Verdict = VerdictWrongSequence
	}
	return state.Verdict
}

// deltaCounter computes the forward distance from lastValid to
// received, modulo 15 (always in 0..14). This resolves spec §8/§9's open question on the
// wrap boundary (lastValid=14, received=0) as delta=1 (OK): modulo
// arithmetic naturally treats the wrap as "one ahead", matching the
// convention spec.md mandates.
func deltaCounter(received, lastValid uint8) int {
	return (int(received) - int(lastValid) + counterWrap) % counterWrap
}

func incrementCounter(c uint8) uint8 {
	c++
	if c > counterMaxVal {
		c = 0
	}
	return c
}

func getCounterNibble(buf []byte, byteOffset int) uint8 {
	return buf[byteOffset] & counterMask
}

func setCounterNibble(buf []byte, byteOffset int, counter uint8) {
	buf[byteOffset] = (buf[byteOffset] &^ counterMask) | (counter & counterMask)
}

// computeCRC runs the CRC-8/SAE-J1850 checksum over [DataID hi, DataID
// lo] followed by buf with the CRC byte excised, in storage order.
func computeCRC(cfg Config, buf []byte) uint8 {
	var crc uint8 = crc8Init
	crc = crc8Update(crc, byte(cfg.DataID>>8))
	crc = crc8Update(crc, byte(cfg.DataID))
	for i, b := range buf {
		if i == cfg.CRCByteOffset {
			continue
		}
		crc = crc8Update(crc, b)
	}
	return crc ^ crc8XorOut
}

const (
	crc8Init   = 0xFF
	crc8XorOut = 0xFF
)

func crc8Update(crc, b byte) byte {
	return crc8Table[crc^b]
}

// crc8Table is the SAE-J1850 CRC-8 lookup table for polynomial 0x1D,
// copied from original_source/src/BSW/E2E/E2E_P01.cpp.
var crc8Table = [256]byte{
	0x00, 0x1D, 0x3A, 0x27, 0x74, 0x69, 0x4E, 0x53,
	0xE8, 0xF5, 0xD2, 0xCF, 0x9C, 0x81, 0xA6, 0xBB,
	0xCD, 0xD0, 0xF7, 0xEA, 0xB9, 0xA4, 0x83, 0x9E,
	0x25, 0x38, 0x1F, 0x02, 0x51, 0x4C, 0x6B, 0x76,
	0x87, 0x9A, 0xBD, 0xA0, 0xF3, 0xEE, 0xC9, 0xD4,
	0x6F, 0x72, 0x55, 0x48, 0x1B, 0x06, 0x21, 0x3C,
	0x4A, 0x57, 0x70, 0x6D, 0x3E, 0x23, 0x04, 0x19,
	0xA2, 0xBF, 0x98, 0x85, 0xD6, 0xCB, 0xEC, 0xF1,
	0x13, 0x0E, 0x29, 0x34, 0x67, 0x7A, 0x5D, 0x40,
	0xFB, 0xE6, 0xC1, 0xDC, 0x8F, 0x92, 0xB5, 0xA8,
	0xDE, 0xC3, 0xE4, 0xF9, 0xAA, 0xB7, 0x90, 0x8D,
	0x36, 0x2B, 0x0C, 0x11, 0x42, 0x5F, 0x78, 0x65,
	0x94, 0x89, 0xAE, 0xB3, 0xE0, 0xFD, 0xDA, 0xC7,
	0x7C, 0x61, 0x46, 0x5B, 0x08, 0x15, 0x32, 0x2F,
	0x59, 0x44, 0x63, 0x7E, 0x2D, 0x30, 0x17, 0x0A,
	0xB1, 0xAC, 0x8B, 0x96, 0xC5, 0xD8, 0xFF, 0xE2,
	0x26, 0x3B, 0x1C, 0x01, 0x52, 0x4F, 0x68, 0x75,
	0xCE, 0xD3, 0xF4, 0xE9, 0xBA, 0xA7, 0x80, 0x9D,
	0xEB, 0xF6, 0xD1, 0xCC, 0x9F, 0x82, 0xA5, 0xB8,
	0x03, 0x1E, 0x39, 0x24, 0x77, 0x6A, 0x4D, 0x50,
	0xA1, 0xBC, 0x9B, 0x86, 0xD5, 0xC8, 0xEF, 0xF2,
	0x49, 0x54, 0x73, 0x6E, 0x3D, 0x20, 0x07, 0x1A,
	0x6C, 0x71, 0x56, 0x4B, 0x18, 0x05, 0x22, 0x3F,
	0x84, 0x99, 0xBE, 0xA3, 0xF0, 0xED, 0xCA, 0xD7,
	0x35, 0x28, 0x0F, 0x12, 0x41, 0x5C, 0x7B, 0x66,
	0xDD, 0xC0, 0xE7, 0xFA, 0xA9, 0xB4, 0x93, 0x8E,
	0xF8, 0xE5, 0xC2, 0xDF, 0x8C, 0x91, 0xB6, 0xAB,
	0x10, 0x0D, 0x2A, 0x37, 0x64, 0x79, 0x5E, 0x43,
	0xB2, 0xAF, 0x88, 0x95, 0xC6, 0xDB, 0xFC, 0xE1,
	0x5A, 0x47, 0x60, 0x7D, 0x2E, 0x33, 0x14, 0x09,
	0x7F, 0x62, 0x45, 0x58, 0x0B, 0x16, 0x31, 0x2C,
	0x97, 0x8A, 0xAD, 0xB0, 0xE3, 0xFE, 0xD9, 0xC4,
}
