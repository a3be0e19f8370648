/*
NAME
  filter.go

DESCRIPTION
  filter.go implements XllFilter: per-band inverse prediction, inverse
  pairwise decorrelation, MSB/LSB assembly, hierarchical downmix
  inversion, two-band frequency reassembly, and channel layout
  normalization (spec.md §4.8-§4.11), grounded on filter_band_data,
  undo_down_mix, scale_down_mix and the two-band FIR/IIR chain in
  original_source/libavcodec/dca2_xll.c.

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

// inversePrediction applies spec.md §4.8 step 1: adaptive (reflection
// coefficient, Schur-recursion) or fixed (prefix-sum) prediction inverse,
// in place over msb (which includes the leading DeciHistoryMax history
// region; samples start at msb[DeciHistoryMax:]).
func inversePrediction(msb []int32, nframesamples int, band *Band, c int) {
	samples := msb[DeciHistoryMax : DeciHistoryMax+nframesamples]

	if order := band.AdaptPredOrder[c]; order > 0 {
		coeff := make([]int32, order)
		for j := 0; j < order; j++ {
			rc := band.AdaptReflCoeff[c][j]
			half := (j + 1) / 2
			for k := 0; k < half; k++ {
				a, b := coeff[k], coeff[j-k-1]
				coeff[k] = a + mul16(rc, b)
				coeff[j-k-1] = b + mul16(rc, a)
			}
			coeff[j] = rc
		}
		for t := 0; t+order < len(samples); t++ {
			var errAcc int64
			for k := 0; k < order; k++ {
				errAcc += int64(samples[t+k]) * int64(coeff[order-1-k])
			}
			samples[t+order] = clip23(int64(samples[t+order]) - norm16(errAcc))
		}
		return
	}

	for f := 0; f < band.FixedPredOrder[c]; f++ {
		for t := 1; t < len(samples); t++ {
			samples[t] += samples[t-1]
		}
	}
}

// inversePairwiseDecorrelation applies spec.md §4.8 step 2 across all
// channels of band, then reorders channels per band.OrigOrder.
func inversePairwiseDecorrelation(cs *ChannelSet, band *Band, nframesamples int) {
	if !band.DecorEnabled {
		return
	}
	for p := 0; p < cs.NChannels/2; p++ {
		coeff := band.DecorCoeff[p]
		if coeff == 0 {
			continue
		}
		a := band.MSBSampleBuffer[2*p][DeciHistoryMax : DeciHistoryMax+nframesamples]
		b := band.MSBSampleBuffer[2*p+1][DeciHistoryMax : DeciHistoryMax+nframesamples]
		for t := range a {
			b[t] += mul3(a[t], coeff)
		}
	}

	reordered := make([][]int32, cs.NChannels)
	for c := 0; c < cs.NChannels; c++ {
		reordered[band.OrigOrder[c]] = band.MSBSampleBuffer[c]
	}
	for c := 0; c < cs.NChannels; c++ {
		band.MSBSampleBuffer[c] = reordered[c]
	}
}

// assembleMSBLSB applies spec.md §4.9: combines the MSB residual with the
// LSB section (if present) to produce full-resolution samples.
func assembleMSBLSB(cs *ChannelSet, band *Band, hdr *XllCommonHeader, c int) {
	shift := band.NScalableLSBs[c] + band.BitWidthAdjust[c]
	if band.NScalableLSBs[c] > 0 && band.BitWidthAdjust[c] > 0 {
		shift--
	}
	if hdr.FixedLSBWidth > 0 {
		shift = hdr.FixedLSBWidth
	}
	if shift == 0 {
		return
	}

	msb := band.MSBSampleBuffer[c][DeciHistoryMax:]
	if band.NScalableLSBs[c] > 0 {
		lsb := band.LSBSampleBuffer[c][DeciHistoryMax:]
		for t := range msb {
			var lv int32
			if t < len(lsb) {
				lv = lsb[t] << uint(band.BitWidthAdjust[c])
			}
			msb[t] = msb[t]*(1<<uint(shift)) + lv
		}
		return
	}
	for t := range msb {
		msb[t] *= 1 << uint(shift)
	}
}

// prescaleDownmix walks the hierarchical downmix chain tail-to-head,
// folding each set's downstream scale into its own, per spec.md §4.10
// paragraph 1.
func prescaleDownmix(chsets []ChannelSet) {
	for i := len(chsets) - 2; i >= 0; i-- {
		cs := &chsets[i]
		if !cs.HierChSet || !cs.DmixEmbedded {
			continue
		}
		o := &chsets[i+1]
		for i := range cs.DmixScale {
			cs.DmixScale[i] = mul15(cs.DmixScale[i], o.DmixScale[i])
			cs.DmixScaleInv[i] = mul16(cs.DmixScaleInv[i], o.DmixScaleInv[i])
		}
		for row := range cs.DmixCoeff {
			for col := range cs.DmixCoeff[row] {
				if cs.HierOfs+col < len(o.DmixScale) {
					cs.DmixCoeff[row][col] = mul15(cs.DmixCoeff[row][col], o.DmixScale[cs.HierOfs+col])
				}
			}
		}
	}
}

// undoDownmix applies spec.md §4.10's "active" inversion path for one
// band: subtract mul15(coeff, donor) from each recipient sample.
func undoDownmix(chsets []ChannelSet, idx, bandIdx, nframesamples int) {
	cs := &chsets[idx]
	if idx+1 >= len(chsets) {
		return
	}
	o := &chsets[idx+1]
	if bandIdx >= o.NFreqBands {
		return
	}
	recipientBand := &cs.Bands[bandIdx]
	donorBand := &o.Bands[bandIdx]
	for row := range cs.DmixCoeff {
		donorCh := cs.HierOfs + row
		if donorCh >= o.NChannels {
			continue
		}
		donor := donorBand.MSBSampleBuffer[donorCh][DeciHistoryMax : DeciHistoryMax+nframesamples]
		for col := range cs.DmixCoeff[row] {
			if col >= cs.NChannels {
				continue
			}
			recipient := recipientBand.MSBSampleBuffer[col][DeciHistoryMax : DeciHistoryMax+nframesamples]
			vmul15Sub(recipient, donor, cs.DmixCoeff[row][col])
		}
	}
}

// scaleDownmix applies spec.md §4.10's "inactive" path: restore amplitude
// on downstream samples by multiplying by this set's dmix_scale.
func scaleDownmix(chsets []ChannelSet, idx, nframesamples int) {
	cs := &chsets[idx]
	if idx+1 >= len(chsets) {
		return
	}
	o := &chsets[idx+1]
	for b := 0; b < o.NFreqBands; b++ {
		band := &o.Bands[b]
		for i := 0; i < cs.HierOfs && i < o.NChannels; i++ {
			buf := band.MSBSampleBuffer[i][DeciHistoryMax : DeciHistoryMax+nframesamples]
			for t := range buf {
				buf[t] = mul15(buf[t], cs.DmixScale[i])
			}
		}
	}
}

// reassembleTwoBands applies spec.md §4.11: a fixed 4-coefficient lattice
// followed by an 8-tap, 3-pass-per-tap FIR, then interleaves band0/band1
// into a single full-rate stream. history[1:] carries the previous frame's
// tail of band 0, history[i] seeding the sample i positions before
// band0[0]; history[0] is never written by the decoder (see decodeSegment's
// decimator history unpacking) and is not used.
func reassembleTwoBands(band0, band1 []int32, history [DeciHistoryMax]int32, nframesamples int) []int32 {
	b0 := make([]int32, DeciHistoryMax+nframesamples)
	for i := 1; i < DeciHistoryMax; i++ {
		b0[DeciHistoryMax-i] = history[i]
	}
	copy(b0[DeciHistoryMax:], band0)
	b1 := append([]int32(nil), band1...)

	// Lattice: four sequential elementwise passes at matching time index,
	// each using the other band's just-updated value.
	for i := 0; i < nframesamples; i++ {
		ri := DeciHistoryMax + i
		b0[ri] = clip23(int64(b0[ri]) - int64(mul22(b1[i], lattice4[0])))
		b1[i] = clip23(int64(b1[i]) - int64(mul22(b0[ri], lattice4[1])))
		b0[ri] = clip23(int64(b0[ri]) - int64(mul22(b1[i], lattice4[2])))
		b1[i] = clip23(int64(b1[i]) - int64(mul22(b0[ri], lattice4[3])))
	}

	// FIR: 8 taps, each 3 alternating mul23 passes, band0's window
	// sliding back one sample per tap.
	base := DeciHistoryMax
	for k := 0; k < DeciHistoryMax; k++ {
		c1, c2 := bandCoeff1[k], bandCoeff2[k]
		for i := 0; i < nframesamples; i++ {
			ri := base + i
			b0[ri] = clip23(int64(b0[ri]) - int64(mul23(b1[i], c1)))
			b1[i] = clip23(int64(b1[i]) - int64(mul23(b0[ri], c2)))
			b0[ri] = clip23(int64(b0[ri]) - int64(mul23(b1[i], c1)))
		}
		base--
	}

	out := make([]int32, 2*nframesamples)
	for t := 0; t < nframesamples; t++ {
		out[2*t] = b1[t]
		out[2*t+1] = b0[base+1+t]
	}
	return out
}

// NormalizeLayout remaps wide 7.0/7.1 Lss/Rss positions to Ls/Rs when a
// non-native layout is requested (supplemented feature; spec.md
// SPEC_FULL.md "Channel layout normalization").
func NormalizeLayout(mask SpeakerMask, req RequestChannelLayout) SpeakerMask {
	if req == RequestNative {
		return mask
	}
	if mask.Has(SpeakerLss) || mask.Has(SpeakerRss) {
		mask &^= SpeakerLss.Bit() | SpeakerRss.Bit()
		mask |= SpeakerLs.Bit() | SpeakerRs.Bit()
	}
	return mask
}

// DownmixToStereo downmixes an already-assembled set of output channels
// to L/R using the primary set's own embedded LoRo/LtRt dmix_coeff row
// (supplemented feature; spec.md SPEC_FULL.md "Stereo downmix of the
// assembled output").
func DownmixToStereo(primary *ChannelSet, samples [SpeakerCount][]int32, nframesamples int) (l, r []int32) {
	l = make([]int32, nframesamples)
	r = make([]int32, nframesamples)
	if len(primary.DmixCoeff) < 2 {
		return l, r
	}
	for c := 0; c < primary.NChannels; c++ {
		sp := primary.ChRemap[c]
		src := samples[sp]
		if src == nil {
			continue
		}
		lc := primary.DmixCoeff[0][c]
		rc := primary.DmixCoeff[1][c]
		for t := 0; t < nframesamples && t < len(src); t++ {
			l[t] += mul15(lc, src[t])
			r[t] += mul15(rc, src[t])
		}
	}
	return l, r
}

// MatrixEncodingFor derives the matrix-encoding side-data tag from an
// EXSS representation type and a set's downmix type (supplemented
// feature; spec.md SPEC_FULL.md "Matrix-encoding side data").
func MatrixEncodingFor(repr RepresentationType, dmixApplied bool, dt DownMixType) MatrixEncoding {
	switch {
	case repr == ReprTypeLtRt, dmixApplied && dt == DownMixLtRt:
		return MatrixEncodingDolby
	case repr == ReprTypeLhRh:
		return MatrixEncodingDolbyHeadphone
	default:
		return MatrixEncodingNone
	}
}
