/*
NAME
  decoder.go

DESCRIPTION
  decoder.go implements Decoder, the top-level per-packet orchestrator
  (spec.md §4.13 "DcaDecoder orchestration", §4.14 "Cross-consistency",
  §4.12 "Residual combination with the lossy core"), grounded on
  dcadec_decode_frame, validate_hd_ma_frame and filter_hd_ma_frame in
  original_source/libavcodec/dcadec2.c.

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
	"encoding/binary"

	"github.com/ausocean/dts/codec/dts/bits"
	"github.com/ausocean/utils/logging"
	"github.com/pkg/errors"
)

// Log is the package-level diagnostics sink, following codec/jpeg and
// codec/h264/h264dec's convention; nil until a host application sets it.
var Log logging.Logger

// logDebug calls Log.Debug if a logger has been installed.
func logDebug(msg string, args ...interface{}) {
	if Log != nil {
		Log.Debug(msg, args...)
	}
}

const (
	coreSyncWord = 0x7FFE8001
	exssSyncWord = 0x64582025
)

// FrameFlag is a bitmask of conditions attached to a decoded Packet
// result (spec.md §4.13 "packet.flags").
type FrameFlag uint32

const (
	FlagHasCore FrameFlag = 1 << iota
	FlagHasXLL
	FlagRecovery
)

// Packet holds the per-packet decode result flags and the emitted Frame.
type Packet struct {
	Flags FrameFlag
	Frame *Frame
}

// Decoder is the top-level XLL/core orchestrator (spec.md §2 "DcaDecoder").
// A Decoder is not safe for concurrent use; distinct Decoders may run in
// parallel without synchronization (spec.md §5).
type Decoder struct {
	opts Options
	core CoreBridge
	pbr  *PbrBuffer

	chsets     []ChannelSet
	hadXLLLast bool
	lastHdr    *XllCommonHeader
	disableLSB bool

	exss ExssParser
}

// ExssParser is the EXSS asset header collaborator (spec.md §6 "EXSS
// collaborator interface"); its internal parsing is out of scope here.
type ExssParser interface {
	Parse(data []byte) (*ExssAsset, error)
}

// NewDecoder constructs a Decoder around a lossy-core collaborator and an
// EXSS asset parser collaborator.
func NewDecoder(core CoreBridge, exss ExssParser, opts Options) *Decoder {
	return &Decoder{opts: opts, core: core, pbr: NewPbrBuffer(), exss: exss}
}

// Decode processes one DCA packet per spec.md §4.13, returning the
// decoded Packet, ErrNeedsSync when PBR smoothing needs more data, or a
// hard error.
func (d *Decoder) Decode(data []byte) (*Packet, error) {
	if len(data) < minPacketSize {
		return nil, errors.Wrap(ErrShortPacket, "dtsxll: packet shorter than minimum")
	}
	if len(data) > maxPacketSize {
		return nil, errors.Wrap(ErrOversizePacket, "dtsxll: packet larger than maximum")
	}

	pkt := &Packet{}
	off := 0

	if binary.BigEndian.Uint32(data) == coreSyncWord {
		if err := d.core.Parse(data); err != nil {
			return nil, errors.Wrap(err, "dtsxll: core parse")
		}
		pkt.Flags |= FlagHasCore
		off = d.coreFrameSize(data)
	}

	var (
		asset   *ExssAsset
		hasXLL  bool
		xllErr  error
	)
	if off+4 <= len(data) && binary.BigEndian.Uint32(data[off:]) == exssSyncWord && !d.opts.CoreOnly {
		var err error
		asset, err = d.exss.Parse(data[off:])
		if err != nil {
			return nil, errors.Wrap(err, "dtsxll: exss parse")
		}
		if asset.ExtensionMask&ExssExtensionXLL != 0 {
			hasXLL = true
		}
		if err := d.core.ParseExss(data[off:], asset); err != nil {
			return nil, errors.Wrap(err, "dtsxll: core parse exss")
		}
	}

	var frame *Frame
	if hasXLL {
		d.pbr.OnStreamChange(asset.HDStreamID)
		xllData := data[off:]
		if asset.XLLOffset > 0 && asset.XLLOffset < len(xllData) {
			xllData = xllData[asset.XLLOffset:]
		}
		if asset.XLLSize > 0 && asset.XLLSize < len(xllData) {
			xllData = xllData[:asset.XLLSize]
		}
		parse := func(chunk []byte) (int, *ExssAsset, error) {
			if err := d.decodeXLL(chunk, asset, pkt); err != nil {
				return 0, asset, err
			}
			return d.lastHdr.FrameSize, asset, nil
		}
		xllErr = d.pbr.HandlePacket(xllData, parse)
		if xllErr == nil {
			pkt.Flags |= FlagHasXLL
			frame = d.runXLLFilterPath(asset)
		}
	}

	if frame == nil && xllErr != nil {
		switch {
		case errors.Is(xllErr, ErrNeedsSync) && d.hadXLLLast && pkt.Flags&FlagHasCore != 0:
			pkt.Flags |= FlagHasXLL | FlagRecovery
			d.forceLossyOutput()
			frame = d.runCoreOnlyPath()
		case d.opts.Explode:
			return nil, xllErr
		case pkt.Flags&FlagHasCore != 0:
			frame = d.runCoreOnlyPath()
		default:
			return nil, xllErr
		}
	} else if frame == nil && pkt.Flags&FlagHasCore != 0 {
		frame = d.runCoreOnlyPath()
	}

	d.hadXLLLast = pkt.Flags&FlagHasXLL != 0 && pkt.Flags&FlagRecovery == 0
	pkt.Frame = frame
	return pkt, nil
}

// coreFrameSize returns the 4-byte-aligned size of the core frame at the
// start of data; a full core header parser is out of scope (spec.md §1),
// so this reads only what's needed to advance the cursor to the next
// sync candidate.
func (d *Decoder) coreFrameSize(data []byte) int {
	const coreHeaderMinBytes = 14
	if len(data) < coreHeaderMinBytes {
		return len(data)
	}
	r := bits.NewReader(data)
	r.Skip(32 + 1 + 5 + 7)
	fsize, err := r.Read(14)
	if err != nil {
		return len(data)
	}
	size := int(fsize) + 1
	return (size + 3) &^ 3
}

// decodeXLL parses the common header, every channel-set sub-header, the
// NAVI table, and every owned segment's band data (spec.md §4.3-§4.7),
// validating cross-consistency (§4.14) before returning.
func (d *Decoder) decodeXLL(data []byte, asset *ExssAsset, pkt *Packet) error {
	r := bits.NewReader(data)
	hdr, err := parseCommonHeader(r)
	if err != nil {
		return err
	}

	if cap(d.chsets) < hdr.NChSets {
		d.chsets = make([]ChannelSet, hdr.NChSets)
	} else {
		d.chsets = d.chsets[:hdr.NChSets]
		for i := range d.chsets {
			d.chsets[i] = ChannelSet{}
		}
	}

	oneToOne := asset == nil || asset.OneToOneMapChToSpkr
	hierOfs := 0
	for i := range d.chsets {
		cs := &d.chsets[i]
		cs.HierOfs = hierOfs
		opt := chSetParseOptions{
			hdr:             hdr,
			oneToOneMapping: oneToOne,
			isFirst:         i == 0,
			nchsets:         hdr.NChSets,
		}
		if i > 0 {
			opt.primaryFreq = d.chsets[0].Freq
			opt.primaryPCMBitRes = d.chsets[0].PCMBitRes
			opt.primaryStorageBitRes = d.chsets[0].StorageBitRes
		}
		if err := parseChannelSetHeader(r, cs, opt); err != nil {
			return err
		}
		hierOfs += cs.NChannels
	}

	navi, err := parseNavi(r, hdr, func(chset, band int) bool {
		return band < d.chsets[chset].NFreqBands
	})
	if err != nil {
		return err
	}

	for i := range d.chsets {
		if err := decodeChannelSetBandData(r, hdr, &d.chsets[i], navi, i, d.opts.Explode); err != nil {
			return err
		}
	}

	if r.TellBits() != hdr.FrameSize*8 {
		logDebug("dtsxll: frame bit consumption mismatch", "got", r.TellBits(), "want", hdr.FrameSize*8)
	}

	if pkt.Flags&FlagHasCore != 0 {
		if err := d.checkCrossConsistency(hdr); err != nil {
			if d.opts.Explode {
				return err
			}
			return errors.Wrap(err, "dtsxll: falling back to core-only output")
		}
	}

	d.lastHdr = hdr
	return nil
}

// checkCrossConsistency implements spec.md §4.14.
func (d *Decoder) checkCrossConsistency(hdr *XllCommonHeader) error {
	var seen SpeakerMask
	for i := range d.chsets {
		cs := &d.chsets[i]
		if seen&cs.ChMask != 0 {
			return errors.Wrap(ErrInvalidData, "dtsxll: overlapping channel masks across xll sets")
		}
		seen |= cs.ChMask
		if cs.ResidualEncode != (1<<uint(cs.NChannels))-1 {
			for c := 0; c < cs.NChannels; c++ {
				if cs.ResidualEncode&(1<<uint(c)) != 0 {
					continue
				}
				if _, ok := d.core.MapSpeaker(cs.ChRemap[c]); !ok {
					return errors.Wrap(ErrInvalidData, "dtsxll: residual-encoded channel has no core mapping")
				}
			}
		}
	}
	if d.core.OutputRate() != 0 && hdr.NFrameSamples != 0 {
		coreRate := d.core.OutputRate()
		xllRate := d.chsets[0].Freq
		if xllRate == 2*coreRate {
			xllRate /= 2
		}
		if xllRate != coreRate {
			return errors.Wrap(ErrInvalidData, "dtsxll: xll/core sample rate disagreement")
		}
	}
	return nil
}

// forceLossyOutput implements the RECOVERY policy of spec.md §4.13/§7:
// clear bands, flip residual_encode back to "encoded by core" for
// core-mapped channels, disable non-primary embedded downmix and LSB
// scaling for the frame.
func (d *Decoder) forceLossyOutput() {
	for i := range d.chsets {
		cs := &d.chsets[i]
		for b := range cs.Bands[:cs.NFreqBands] {
			cs.Bands[b] = Band{}
		}
		for c := 0; c < cs.NChannels; c++ {
			if _, ok := d.core.MapSpeaker(cs.ChRemap[c]); ok {
				cs.ResidualEncode &^= 1 << uint(c)
			}
		}
		if i > 0 {
			cs.DmixEmbedded = false
		}
	}
	d.disableLSB = true
}
