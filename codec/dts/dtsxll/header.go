/*
NAME
  header.go

DESCRIPTION
  header.go parses the XLL common header, the per-channel-set sub-header,
  and the downmix coefficient matrix embedded in it (spec.md §4.3, §4.4,
  §4.5), grounded on parse_frame_header/parse_chset_header/
  parse_dmix_coeffs in original_source/libavcodec/dca2_xll.c.

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

import (
	"github.com/ausocean/dts/codec/dts/bits"
	"github.com/pkg/errors"
)

// xllSyncWord is the 32-bit big-endian sync marker that opens every XLL
// frame (spec.md §4.3 step 1, §6).
const xllSyncWord = 0x41A29547

// XllCommonHeader is the parsed result of spec.md §4.3.
type XllCommonHeader struct {
	HeaderSize      int // bytes, including CRC
	FrameSize       int // bytes
	NChSets         int
	NFrameSegs      int
	NSegSamples     int
	NSegSamplesLog2 int // bit width of the isolated-sample count/location fields in hybrid-Rice coding
	NFrameSamples   int
	SegSizeNbits    int
	BandCrcPresent  int // 0..3
	ScalableLSBs    bool
	ChMaskNbits     int
	FixedLSBWidth   int
}

// ceilLog2 returns the smallest n such that 1<<n >= v, for v >= 1.
func ceilLog2(v int) int {
	n := 0
	for (1 << uint(n)) < v {
		n++
	}
	return n
}

// parseCommonHeader implements spec.md §4.3. r must be positioned at the
// start of the frame (before the sync word).
func parseCommonHeader(r *bits.Reader) (*XllCommonHeader, error) {
	sync, err := r.Read(32)
	if err != nil {
		return nil, errors.Wrap(err, "dtsxll: read common header sync")
	}
	if sync != xllSyncWord {
		return nil, errors.Wrap(ErrNeedsSync, "dtsxll: bad xll sync word")
	}

	version, err := r.Read(4)
	if err != nil {
		return nil, errors.Wrap(err, "dtsxll: read stream version")
	}
	if version+1 != 1 {
		return nil, errors.Wrapf(ErrUnsupported, "dtsxll: stream version %d unsupported", version+1)
	}

	headerLen, err := r.Read(8)
	if err != nil {
		return nil, errors.Wrap(err, "dtsxll: read header length")
	}
	h := &XllCommonHeader{HeaderSize: int(headerLen) + 1}

	if !bits.CheckRange(r.Bytes(), 32, h.HeaderSize*8) {
		return nil, errors.Wrap(ErrInvalidData, "dtsxll: common header crc mismatch")
	}

	fsNbits, err := r.Read(5)
	if err != nil {
		return nil, errors.Wrap(err, "dtsxll: read frame_size_nbits")
	}
	frameSize, err := r.Read(int(fsNbits) + 1)
	if err != nil {
		return nil, errors.Wrap(err, "dtsxll: read frame_size")
	}
	h.FrameSize = int(frameSize) + 1
	if h.FrameSize >= pbrMax {
		return nil, errors.Wrapf(ErrOversizePacket, "dtsxll: frame_size %d >= %d", h.FrameSize, pbrMax)
	}

	nchsets, err := r.Read(4)
	if err != nil {
		return nil, errors.Wrap(err, "dtsxll: read nchsets")
	}
	h.NChSets = int(nchsets) + 1
	if h.NChSets > maxChannelSets {
		return nil, errors.Wrapf(ErrInvalidData, "dtsxll: nchsets %d > %d", h.NChSets, maxChannelSets)
	}

	nframesegsLog2, err := r.Read(4)
	if err != nil {
		return nil, errors.Wrap(err, "dtsxll: read nframesegs log2")
	}
	h.NFrameSegs = 1 << nframesegsLog2
	if h.NFrameSegs > 1024 {
		return nil, errors.Wrapf(ErrInvalidData, "dtsxll: nframesegs %d > 1024", h.NFrameSegs)
	}

	nsegsamplesLog2, err := r.Read(4)
	if err != nil {
		return nil, errors.Wrap(err, "dtsxll: read nsegsamples log2")
	}
	if nsegsamplesLog2 == 0 {
		return nil, errors.Wrap(ErrInvalidData, "dtsxll: nsegsamples_log2 must be >= 1")
	}
	h.NSegSamplesLog2 = int(nsegsamplesLog2)
	h.NSegSamples = 1 << nsegsamplesLog2
	if h.NSegSamples > 512 {
		return nil, errors.Wrapf(ErrInvalidData, "dtsxll: nsegsamples %d > 512", h.NSegSamples)
	}

	nframesamplesLog2 := nsegsamplesLog2 + nframesegsLog2
	h.NFrameSamples = 1 << nframesamplesLog2
	if h.NFrameSamples > 65536 {
		return nil, errors.Wrapf(ErrInvalidData, "dtsxll: nframesamples %d > 65536", h.NFrameSamples)
	}

	segSizeNbits, err := r.Read(5)
	if err != nil {
		return nil, errors.Wrap(err, "dtsxll: read seg_size_nbits")
	}
	h.SegSizeNbits = int(segSizeNbits) + 1

	bandCrcPresent, err := r.Read(2)
	if err != nil {
		return nil, errors.Wrap(err, "dtsxll: read band_crc_present")
	}
	h.BandCrcPresent = int(bandCrcPresent)

	scalableLSBs, err := r.ReadBit()
	if err != nil {
		return nil, errors.Wrap(err, "dtsxll: read scalable_lsbs")
	}
	h.ScalableLSBs = scalableLSBs

	chMaskNbits, err := r.Read(5)
	if err != nil {
		return nil, errors.Wrap(err, "dtsxll: read ch_mask_nbits")
	}
	h.ChMaskNbits = int(chMaskNbits) + 1

	if h.ScalableLSBs {
		fixedLSBWidth, err := r.Read(4)
		if err != nil {
			return nil, errors.Wrap(err, "dtsxll: read fixed_lsb_width")
		}
		h.FixedLSBWidth = int(fixedLSBWidth)
	}

	if err := r.SeekBits(h.HeaderSize * 8); err != nil {
		return nil, errors.Wrap(err, "dtsxll: seek past common header")
	}
	return h, nil
}

// chSetParseOptions carries the cross-set context parseChannelSetHeader
// needs that isn't part of the header bitstream itself.
type chSetParseOptions struct {
	hdr                  *XllCommonHeader
	oneToOneMapping      bool
	isFirst              bool
	primaryFreq          int
	primaryPCMBitRes     int
	primaryStorageBitRes int
	nchsets              int
}

// parseChannelSetHeader implements spec.md §4.4; it fills cs in place.
func parseChannelSetHeader(r *bits.Reader, cs *ChannelSet, opt chSetParseOptions) error {
	startBit := r.TellBits()

	headerSize, err := r.Read(10)
	if err != nil {
		return errors.Wrap(err, "dtsxll: read chset header_size")
	}
	hsz := int(headerSize) + 1

	nchannels, err := r.Read(4)
	if err != nil {
		return errors.Wrap(err, "dtsxll: read nchannels")
	}
	cs.NChannels = int(nchannels) + 1
	if cs.NChannels > maxChannels {
		return errors.Wrapf(ErrInvalidData, "dtsxll: nchannels %d > %d", cs.NChannels, maxChannels)
	}

	residualEncode, err := r.Read(cs.NChannels)
	if err != nil {
		return errors.Wrap(err, "dtsxll: read residual_encode")
	}
	cs.ResidualEncode = residualEncode

	pcmBitRes, err := r.Read(5)
	if err != nil {
		return errors.Wrap(err, "dtsxll: read pcm_bit_res")
	}
	cs.PCMBitRes = int(pcmBitRes) + 1

	storageBitRes, err := r.Read(5)
	if err != nil {
		return errors.Wrap(err, "dtsxll: read storage_bit_res")
	}
	cs.StorageBitRes = int(storageBitRes) + 1
	if cs.StorageBitRes != 16 && cs.StorageBitRes != 24 {
		return errors.Wrapf(ErrUnsupported, "dtsxll: storage_bit_res %d not in {16,24}", cs.StorageBitRes)
	}
	if cs.PCMBitRes > cs.StorageBitRes {
		return errors.Wrap(ErrInvalidData, "dtsxll: pcm_bit_res > storage_bit_res")
	}

	freqIdx, err := r.Read(4)
	if err != nil {
		return errors.Wrap(err, "dtsxll: read freq index")
	}
	cs.Freq = samplingFreqsTable[freqIdx]
	if cs.Freq == 0 || cs.Freq > 192000 {
		return errors.Wrapf(ErrUnsupported, "dtsxll: unsupported sampling frequency index %d", freqIdx)
	}
	freqModifier, err := r.Read(2)
	if err != nil {
		return errors.Wrap(err, "dtsxll: read sampling rate modifier")
	}
	if freqModifier != 0 {
		return errors.Wrap(ErrUnsupported, "dtsxll: sampling frequency modifiers unsupported")
	}
	replacementSet, err := r.Read(2)
	if err != nil {
		return errors.Wrap(err, "dtsxll: read replacement set")
	}
	if replacementSet != 0 {
		return errors.Wrap(ErrUnsupported, "dtsxll: replacement sets unsupported")
	}

	if opt.oneToOneMapping {
		if err := parseOneToOneChannelSet(r, cs, opt); err != nil {
			return err
		}
	} else {
		if cs.NChannels != 2 || opt.nchsets != 1 {
			return errors.Wrap(ErrUnsupported, "dtsxll: non 1:1 mapping requires a single 2-channel set")
		}
		mappingCoeffsPresent, err := r.ReadBit()
		if err != nil {
			return errors.Wrap(err, "dtsxll: read mapping coeffs present")
		}
		if mappingCoeffsPresent {
			return errors.Wrap(ErrUnsupported, "dtsxll: custom channel-to-speaker mapping tables unsupported")
		}
		cs.PrimaryChSet = opt.isFirst
		cs.ChMask = MaskStereo
		cs.ChRemap[0] = SpeakerL
		cs.ChRemap[1] = SpeakerR
		cs.DmixType = DownMixLtRt
	}

	if cs.Freq > 96000 {
		cs.NFreqBands = 2
		extraBands, err := r.ReadBit()
		if err != nil {
			return errors.Wrap(err, "dtsxll: read extra frequency bands flag")
		}
		if extraBands {
			return errors.Wrap(ErrUnsupported, "dtsxll: extra frequency bands unsupported")
		}
	} else {
		cs.NFreqBands = 1
	}
	cs.Freq /= 1 << uint(cs.NFreqBands-1)

	if !opt.isFirst {
		if cs.Freq != opt.primaryFreq || cs.PCMBitRes != opt.primaryPCMBitRes || cs.StorageBitRes != opt.primaryStorageBitRes {
			return errors.Wrap(ErrInvalidData, "dtsxll: non-primary set audio characteristics mismatch")
		}
	}

	switch {
	case cs.StorageBitRes <= 8:
		cs.NAbits = 3
	case cs.StorageBitRes <= 16:
		cs.NAbits = 4
	default:
		cs.NAbits = 5
	}
	if opt.nchsets > 1 || cs.NFreqBands > 1 {
		if cs.NAbits < 5 {
			cs.NAbits++
		}
	}

	for b := 0; b < cs.NFreqBands; b++ {
		if err := parseBandHeader(r, cs, &cs.Bands[b], b, opt.hdr); err != nil {
			return err
		}
	}

	if !bits.CheckRange(r.Bytes(), startBit, startBit+hsz*8) {
		return errors.Wrap(ErrInvalidData, "dtsxll: chset sub-header crc mismatch")
	}
	if err := r.SeekBits(startBit + hsz*8); err != nil {
		return errors.Wrap(err, "dtsxll: seek past chset sub-header")
	}
	return nil
}

// parseOneToOneChannelSet parses the 1:1-speaker-mapping branch of
// spec.md §4.4 step 6.
func parseOneToOneChannelSet(r *bits.Reader, cs *ChannelSet, opt chSetParseOptions) error {
	primary, err := r.ReadBit()
	if err != nil {
		return errors.Wrap(err, "dtsxll: read primary_chset")
	}
	if primary != opt.isFirst {
		return errors.Wrap(ErrInvalidData, "dtsxll: primary_chset disagrees with set position")
	}
	cs.PrimaryChSet = primary

	dmixCoeffsPresent, err := r.ReadBit()
	if err != nil {
		return errors.Wrap(err, "dtsxll: read dmix_coeffs_present")
	}
	cs.DmixCoeffsPresent = dmixCoeffsPresent

	if dmixCoeffsPresent {
		embedded, err := r.ReadBit()
		if err != nil {
			return errors.Wrap(err, "dtsxll: read dmix_embedded")
		}
		cs.DmixEmbedded = embedded
		if cs.PrimaryChSet {
			dmixType, err := r.Read(3)
			if err != nil {
				return errors.Wrap(err, "dtsxll: read dmix_type")
			}
			if dmixType >= uint32(downMixTypeCount) {
				return errors.Wrapf(ErrInvalidData, "dtsxll: dmix_type %d out of range", dmixType)
			}
			cs.DmixType = DownMixType(dmixType)
		}
	}

	hierChSet, err := r.ReadBit()
	if err != nil {
		return errors.Wrap(err, "dtsxll: read hier_chset")
	}
	if !hierChSet && opt.nchsets != 1 {
		return errors.Wrap(ErrInvalidData, "dtsxll: non-hierarchical set in a multi-set stream")
	}
	cs.HierChSet = hierChSet

	if cs.DmixCoeffsPresent {
		if err := parseDownmixCoeffs(r, cs, opt); err != nil {
			return err
		}
	}

	maskEnabled, err := r.ReadBit()
	if err != nil {
		return errors.Wrap(err, "dtsxll: read channel-mask-enabled")
	}
	if !maskEnabled {
		return errors.Wrap(ErrUnsupported, "dtsxll: channel mask must be enabled under 1:1 mapping")
	}
	chMask, err := r.ReadLong(opt.hdr.ChMaskNbits)
	if err != nil {
		return errors.Wrap(err, "dtsxll: read ch_mask")
	}
	cs.ChMask = SpeakerMask(chMask)
	if cs.ChMask.PopCount() != cs.NChannels {
		return errors.Wrap(ErrInvalidData, "dtsxll: popcount(ch_mask) != nchannels")
	}
	idx := 0
	for sp := Speaker(0); sp < SpeakerCount && idx < cs.NChannels; sp++ {
		if cs.ChMask.Has(sp) {
			cs.ChRemap[idx] = sp
			idx++
		}
	}
	return nil
}

// parseDownmixCoeffs implements spec.md §4.5. m is the number of donor
// rows: HierOfs for a non-primary set, dmixPrimaryNch[DmixType] for a
// primary set.
func parseDownmixCoeffs(r *bits.Reader, cs *ChannelSet, opt chSetParseOptions) error {
	m := cs.HierOfs
	if cs.PrimaryChSet {
		m = dmixPrimaryNch[cs.DmixType]
	}
	n := cs.NChannels

	cs.DmixCoeff = make([][]int32, m)
	cs.DmixScale = make([]int32, m)
	cs.DmixScaleInv = make([]int32, m)

	for row := 0; row < m; row++ {
		if !cs.PrimaryChSet {
			code, err := r.Read(9)
			if err != nil {
				return errors.Wrap(err, "dtsxll: read dmix scale code")
			}
			sign := int32(code>>8) - 1
			index := int(code&0xff) - dmixTableScaleBias
			if index < 0 || index >= invDmixTableSize {
				return errors.Wrapf(ErrInvalidData, "dtsxll: dmix scale index %d out of range", index)
			}
			scale := dmixTable[index+dmixTableScaleBias]
			scaleInv := invDmixTable[index]
			if sign < 0 {
				scale = -scale
			}
			cs.DmixScale[row] = scale
			cs.DmixScaleInv[row] = scaleInv
		}

		cs.DmixCoeff[row] = make([]int32, n)
		for col := 0; col < n; col++ {
			code, err := r.Read(9)
			if err != nil {
				return errors.Wrap(err, "dtsxll: read dmix coeff code")
			}
			sign := int32(code>>8) - 1
			index := int(code & 0xff)
			if index >= dmixTableSize {
				return errors.Wrapf(ErrInvalidData, "dtsxll: dmix coeff index %d out of range", index)
			}
			coeff := dmixTable[index]
			if !cs.PrimaryChSet {
				coeff = mul16(coeff, cs.DmixScaleInv[row])
			}
			if sign < 0 {
				coeff = -coeff
			}
			cs.DmixCoeff[row][col] = coeff
		}
	}
	return nil
}

// parseBandHeader implements spec.md §4.4 step 10. hdr supplies the
// frame-wide scalable_lsbs, seg_size_nbits and band_crc_present fields
// that the MSB/LSB split presence predicate and section size depend on.
func parseBandHeader(r *bits.Reader, cs *ChannelSet, b *Band, bandIdx int, hdr *XllCommonHeader) error {
	decorEnabled, err := r.ReadBit()
	if err != nil {
		return errors.Wrap(err, "dtsxll: read decor_enabled")
	}
	b.DecorEnabled = decorEnabled

	if decorEnabled && cs.NChannels > 1 {
		bits_ := ceilLog2(cs.NChannels)
		for c := 0; c < cs.NChannels; c++ {
			v, err := r.Read(bits_)
			if err != nil {
				return errors.Wrap(err, "dtsxll: read orig_order")
			}
			if int(v) >= cs.NChannels {
				return errors.Wrapf(ErrInvalidData, "dtsxll: orig_order %d >= nchannels %d", v, cs.NChannels)
			}
			b.OrigOrder[c] = int(v)
		}
		for p := 0; p < cs.NChannels/2; p++ {
			present, err := r.ReadBit()
			if err != nil {
				return errors.Wrap(err, "dtsxll: read decor_coeff present")
			}
			if present {
				v, err := readSignedLinear(r, 7)
				if err != nil {
					return errors.Wrap(err, "dtsxll: read decor_coeff")
				}
				b.DecorCoeff[p] = v
			} else {
				b.DecorCoeff[p] = 0
			}
		}
	} else {
		for c := 0; c < cs.NChannels; c++ {
			b.OrigOrder[c] = c
		}
	}

	for c := 0; c < cs.NChannels; c++ {
		v, err := r.Read(4)
		if err != nil {
			return errors.Wrap(err, "dtsxll: read adapt_pred_order")
		}
		b.AdaptPredOrder[c] = int(v)
		if b.AdaptPredOrder[c] > b.HighestPredOrder {
			b.HighestPredOrder = b.AdaptPredOrder[c]
		}
	}

	for c := 0; c < cs.NChannels; c++ {
		if b.AdaptPredOrder[c] == 0 {
			v, err := r.Read(2)
			if err != nil {
				return errors.Wrap(err, "dtsxll: read fixed_pred_order")
			}
			b.FixedPredOrder[c] = int(v)
		}
	}

	for c := 0; c < cs.NChannels; c++ {
		for j := 0; j < b.AdaptPredOrder[c]; j++ {
			k, err := readSignedLinear(r, 8)
			if err != nil {
				return errors.Wrap(err, "dtsxll: read reflection coefficient code")
			}
			if k == -128 {
				return errors.Wrap(ErrInvalidData, "dtsxll: reserved reflection coefficient index -128")
			}
			mag := k
			if mag < 0 {
				mag = -mag
			}
			rc := reflCoeffTable[mag]
			if k < 0 {
				rc = -rc
			}
			b.AdaptReflCoeff[c][j] = rc
		}
	}

	if cs.DmixEmbedded {
		if bandIdx == 0 {
			b.DmixEmbedded = true
		} else {
			v, err := r.ReadBit()
			if err != nil {
				return errors.Wrap(err, "dtsxll: read band dmix_embedded")
			}
			b.DmixEmbedded = v
		}
	}

	// MSB/LSB split flag: band 0 reuses the common header's scalable_lsbs
	// bit, every other band consumes its own presence bit.
	lsbPresent := false
	if bandIdx == 0 {
		lsbPresent = hdr.ScalableLSBs
	} else {
		v, err := r.ReadBit()
		if err != nil {
			return errors.Wrap(err, "dtsxll: read msb/lsb split present")
		}
		lsbPresent = v
	}

	if lsbPresent {
		size, err := r.ReadLong(hdr.SegSizeNbits)
		if err != nil {
			return errors.Wrap(err, "dtsxll: read lsb_section_size")
		}
		b.LSBSectionSize = int(size)
		if (hdr.BandCrcPresent > 2 || (bandIdx == 0 && hdr.BandCrcPresent > 1)) && b.LSBSectionSize > 0 {
			b.LSBSectionSize += 2
		}
		for c := 0; c < cs.NChannels; c++ {
			v, err := r.Read(4)
			if err != nil {
				return errors.Wrap(err, "dtsxll: read nscalablelsbs")
			}
			b.NScalableLSBs[c] = int(v)
			if b.NScalableLSBs[c] > 0 && b.LSBSectionSize == 0 {
				return errors.Wrap(ErrInvalidData, "dtsxll: nscalablelsbs>0 requires lsb_section_size>0")
			}
		}
	} else {
		b.LSBSectionSize = 0
		for c := 0; c < cs.NChannels; c++ {
			b.NScalableLSBs[c] = 0
		}
	}

	// Scalable resolution flag: independent of the MSB/LSB split flag
	// above, re-evaluated the same way (band 0 reuses scalable_lsbs,
	// every other band consumes a second, distinct presence bit).
	scalablePresent := false
	if bandIdx == 0 {
		scalablePresent = hdr.ScalableLSBs
	} else {
		v, err := r.ReadBit()
		if err != nil {
			return errors.Wrap(err, "dtsxll: read bit_width_adjust present")
		}
		scalablePresent = v
	}

	if scalablePresent {
		for c := 0; c < cs.NChannels; c++ {
			v, err := r.Read(4)
			if err != nil {
				return errors.Wrap(err, "dtsxll: read bit_width_adjust")
			}
			b.BitWidthAdjust[c] = int(v)
		}
	} else {
		for c := 0; c < cs.NChannels; c++ {
			b.BitWidthAdjust[c] = 0
		}
	}

	return nil
}
