/*
NAME
  core.go

DESCRIPTION
  core.go declares the external collaborator interfaces the XLL core
  relies on but does not implement itself (spec.md §6 "EXTERNAL
  INTERFACES"): the lossy DCA core decoder and the EXSS asset parser.
  Grounded on the DCA2Context/DCA2ExssAsset fields read by
  original_source/libavcodec/dcadec2.c's filter_hd_ma_frame and
  validate_hd_ma_frame.

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

// ExssAsset holds the fields the XLL core reads out of a parsed EXSS
// asset header (spec.md §3 "ExssAsset"). The EXSS parser itself is an
// external collaborator and out of scope here.
type ExssAsset struct {
	XLLOffset             int
	XLLSize               int
	XLLSyncPresent         bool
	XLLSyncOffset          int
	XLLDelayNFrames        int
	HDStreamID             int
	OneToOneMapChToSpkr    bool
	RepresentationType     RepresentationType
	ExtensionMask          uint32
}

// ExssExtensionXLL marks the XLL extension bit in ExssAsset.ExtensionMask.
const ExssExtensionXLL = 1 << 0

// CoreBridge is the lossy DCA core decoder this package collaborates
// with for residual-encoded channels and core-only fallback (spec.md §6
// "Core collaborator interface"). Implementations live outside this
// package; the lossy core subframe decoder itself (subband ADPCM, VQ,
// LFE interpolation, QMF synthesis) is explicitly out of scope.
type CoreBridge interface {
	// Parse decodes a core frame header from data, populating the
	// bridge's internal frame_size/sample_rate/npcmblocks/speaker-map
	// state.
	Parse(data []byte) error

	// ParseExss decodes core-relevant extensions embedded in an EXSS
	// asset.
	ParseExss(data []byte, asset *ExssAsset) error

	// FilterFixed runs the fixed-point core synthesis path, producing
	// PCM in the bridge's internal output buffers for every core
	// speaker it emits. x96Synth selects the 96kHz/24-bit synthesis
	// path used when a 96kHz primary XLL set pairs with a 48kHz core
	// (supplemented "x96 core synthesis flag" feature).
	FilterFixed(x96Synth bool) error

	// FilterFrame runs the float-point core synthesis path used for
	// non-HD (core-only) output.
	FilterFrame(frame *Frame) error

	// MapSpeaker returns the core output channel index for sp, and
	// whether the core emits that speaker at all.
	MapSpeaker(sp Speaker) (ch int, ok bool)

	// OutputSamples returns the fixed-point PCM the core produced for
	// core output channel ch, valid after a successful FilterFixed.
	OutputSamples(ch int) []int32

	// NPCMSamples returns the number of PCM samples per core output
	// channel produced by the last FilterFixed/FilterFrame call.
	NPCMSamples() int

	// OutputRate returns the core's output sample rate in Hz.
	OutputRate() int
}
