/*
NAME
  decodepath.go

DESCRIPTION
  decodepath.go wires together the per-band filter passes (filter.go),
  hierarchical downmix inversion, two-band reassembly, residual
  combination with the core (spec.md §4.12), and channel-layout/downmix
  selection (spec.md §6 "request_channel_layout") into the two output
  paths Decoder.Decode chooses between: a full XLL filter path and a
  core-only fallback path.

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

// runXLLFilterPath applies spec.md §4.8-§4.12 across every parsed
// channel set and assembles the output Frame.
func (d *Decoder) runXLLFilterPath(asset *ExssAsset) *Frame {
	hdr := d.lastHdr
	if hdr == nil {
		return nil
	}

	prescaleDownmix(d.chsets)

	var mask SpeakerMask
	var samples [SpeakerCount][]int32
	x96Synth := false

	for i := range d.chsets {
		cs := &d.chsets[i]
		if cs.Freq == 2*d.core.OutputRate() {
			x96Synth = true
		}
	}

	var coreFiltered bool
	needsCore := false
	for i := range d.chsets {
		cs := &d.chsets[i]
		if cs.ResidualEncode != (1<<uint(cs.NChannels))-1 {
			needsCore = true
		}
	}
	if needsCore {
		if err := d.core.FilterFixed(x96Synth); err == nil {
			coreFiltered = true
		}
	}

	for i := range d.chsets {
		cs := &d.chsets[i]

		for b := 0; b < cs.NFreqBands; b++ {
			band := &cs.Bands[b]
			for c := 0; c < cs.NChannels; c++ {
				inversePrediction(band.MSBSampleBuffer[c], hdr.NFrameSamples, band, c)
			}
			inversePairwiseDecorrelation(cs, band, hdr.NFrameSamples)
			if !d.disableLSB {
				for c := 0; c < cs.NChannels; c++ {
					assembleMSBLSB(cs, band, hdr, c)
				}
			}
		}

		if cs.HierChSet && cs.DmixEmbedded {
			for b := 0; b < cs.NFreqBands; b++ {
				undoDownmix(d.chsets, i, b, hdr.NFrameSamples)
			}
		} else if i+1 < len(d.chsets) {
			scaleDownmix(d.chsets, i, hdr.NFrameSamples)
		}

		if cs.NFreqBands == 2 {
			for c := 0; c < cs.NChannels; c++ {
				history := cs.Bands[1].DeciHistory[c]
				b0 := cs.Bands[0].MSBSampleBuffer[c][DeciHistoryMax : DeciHistoryMax+hdr.NFrameSamples]
				b1 := cs.Bands[1].MSBSampleBuffer[c][DeciHistoryMax : DeciHistoryMax+hdr.NFrameSamples]
				cs.OutputSamples[cs.ChRemap[c]] = reassembleTwoBands(b0, b1, history, hdr.NFrameSamples)
			}
		} else {
			for c := 0; c < cs.NChannels; c++ {
				cs.OutputSamples[cs.ChRemap[c]] = cs.Bands[0].MSBSampleBuffer[c][DeciHistoryMax : DeciHistoryMax+hdr.NFrameSamples]
			}
		}

		for c := 0; c < cs.NChannels; c++ {
			if cs.ResidualEncode&(1<<uint(c)) != 0 {
				continue
			}
			if coreFiltered {
				combineResidual(d.core, cs, i, c, hdr.NFrameSamples, d.chsets)
			}
			mask |= cs.ChRemap[c].Bit()
			samples[cs.ChRemap[c]] = cs.OutputSamples[cs.ChRemap[c]]
		}
		for c := 0; c < cs.NChannels; c++ {
			if s := cs.OutputSamples[cs.ChRemap[c]]; s != nil && samples[cs.ChRemap[c]] == nil {
				mask |= cs.ChRemap[c].Bit()
				samples[cs.ChRemap[c]] = s
			}
		}
	}

	mask = NormalizeLayout(mask, d.opts.RequestChannelLayout)

	repr := RepresentationType(0)
	if asset != nil {
		repr = asset.RepresentationType
	}

	frame := &Frame{
		ChMask:         mask,
		SampleRate:     d.chsets[0].Freq * (2 / (3 - d.chsets[0].NFreqBands)),
		StorageBitRes:  d.chsets[0].StorageBitRes,
		Samples:        samples,
		Profile:        profileDtsHdMA,
		MatrixEncoding: MatrixEncodingFor(repr, false, d.chsets[0].DmixType),
	}

	if d.opts.RequestChannelLayout == RequestStereo && d.chsets[0].DmixCoeffsPresent && d.chsets[0].DmixEmbedded {
		l, r := DownmixToStereo(&d.chsets[0], samples, hdr.NFrameSamples)
		frame.ChMask = MaskStereo
		frame.Samples = [SpeakerCount][]int32{}
		frame.Samples[SpeakerL] = l
		frame.Samples[SpeakerR] = r
		applied := d.chsets[0].DmixType == DownMixLtRt
		frame.MatrixEncoding = MatrixEncodingFor(repr, applied, d.chsets[0].DmixType)
	}

	return frame
}

// combineResidual implements spec.md §4.12: add the core-reconstructed
// PCM (mapped through CoreBridge.MapSpeaker) to the XLL residual already
// in cs.OutputSamples for channel c, honoring the hierarchical-downmix
// rounding/shift rule.
func combineResidual(core CoreBridge, cs *ChannelSet, idx, c, nframesamples int, chsets []ChannelSet) {
	sp := cs.ChRemap[c]
	ch, ok := core.MapSpeaker(sp)
	if !ok {
		return
	}
	coreSamples := core.OutputSamples(ch)
	residual := cs.OutputSamples[sp]
	if residual == nil {
		residual = make([]int32, nframesamples)
		cs.OutputSamples[sp] = residual
	}

	lsbWidth := 0
	if cs.NFreqBands > 0 {
		lsbWidth = cs.Bands[0].NScalableLSBs[c]
	}
	shift := 24 - cs.PCMBitRes + lsbWidth
	var round int64
	if shift > 0 {
		round = 1 << uint(shift-1)
	}

	hasNext := idx+1 < len(chsets)
	var scaleInv int32
	if hasNext {
		o := &chsets[idx+1]
		if cs.HierOfs+c < len(o.DmixScaleInv) {
			scaleInv = o.DmixScaleInv[cs.HierOfs+c]
		}
	}

	for t := 0; t < nframesamples && t < len(coreSamples); t++ {
		cv := int64(coreSamples[t])
		if hasNext && scaleInv != 0 {
			cv = int64(mul16(int32(cv), scaleInv))
			cv += round
			if shift > 0 {
				cv >>= uint(shift)
			}
			cv = int64(clip23(cv))
		} else if shift > 0 {
			cv = (cv + round) >> uint(shift)
		}
		residual[t] += int32(cv)
	}
}

// runCoreOnlyPath runs the lossy core's float filter path and assembles
// a Frame from its output, for packets with no usable XLL data.
func (d *Decoder) runCoreOnlyPath() *Frame {
	frame := &Frame{
		SampleRate:    d.core.OutputRate(),
		StorageBitRes: 24,
	}
	if err := d.core.FilterFrame(frame); err != nil {
		logDebug("dtsxll: core filter_frame failed", "err", err)
	}
	return frame
}
