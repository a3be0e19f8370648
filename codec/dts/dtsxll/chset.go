/*
NAME
  chset.go

DESCRIPTION
  chset.go defines the ChannelSet and Band types that hold all per-set and
  per-band XLL decoder state (spec.md §3 "DATA MODEL"), grounded on the
  DCA2XllChSet/DCA2XllBand structures in
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

const (
	// maxChannels is the largest nchannels a single channel set may
	// declare (spec.md §3).
	maxChannels = 16

	// maxChannelSets is the largest nchsets a frame may declare.
	maxChannelSets = 16

	// maxFreqBands is the largest nfreqbands a channel set may have.
	maxFreqBands = 2

	// maxAdaptPredOrder is the largest adaptive predictor order a band
	// may declare per channel.
	maxAdaptPredOrder = 16
)

// ChannelSet holds the decoded sub-header state and sample buffers for
// one XLL channel set (spec.md §3 "ChannelSet").
type ChannelSet struct {
	NChannels       int
	ResidualEncode  uint32 // bit i set => channel i is NOT residually encoded
	PCMBitRes       int
	StorageBitRes   int
	Freq            int // post band-halving
	NFreqBands      int
	PrimaryChSet    bool
	DmixCoeffsPresent bool
	DmixEmbedded    bool
	DmixType        DownMixType
	HierChSet       bool
	HierOfs         int // cumulative channels of prior hierarchical sets

	ChMask   SpeakerMask
	ChRemap  [maxChannels]Speaker

	NAbits int // bits used to read a bit-allocation parameter, in {3,4,5}

	// Downmix matrix: m rows (HierOfs for non-primary sets, or
	// dmixPrimaryNch[DmixType] for primary sets) by NChannels columns.
	DmixCoeff    [][]int32 // Q15, per spec.md §4.5
	DmixScale    []int32   // Q15, length m
	DmixScaleInv []int32   // Q16, length m

	Bands [maxFreqBands]Band

	// OutputSamples holds, after filtering, one slice per output
	// speaker this set contributes (indexed by ChRemap[c]).
	OutputSamples [SpeakerCount][]int32
}

// Band holds per-frequency-band decoder state within a ChannelSet
// (spec.md §3 "Band").
type Band struct {
	DecorEnabled bool
	OrigOrder    [maxChannels]int
	DecorCoeff   [maxChannels / 2]int32

	AdaptPredOrder   [maxChannels]int
	FixedPredOrder   [maxChannels]int
	HighestPredOrder int

	// AdaptReflCoeff[c][j] is the quantized (signed, Q15 magnitude via
	// reflCoeffTable) reflection coefficient for channel c, order j.
	AdaptReflCoeff [maxChannels][maxAdaptPredOrder]int32

	DmixEmbedded bool

	LSBSectionSize int // bytes
	NScalableLSBs  [maxChannels]int
	BitWidthAdjust [maxChannels]int

	// DeciHistory holds band-1's seed history for two-band reassembly
	// (spec.md §4.7 step 4, §4.11); only used when this is band 1.
	DeciHistory [maxChannels][DeciHistoryMax]int32

	// MSBSampleBuffer/LSBSampleBuffer hold the assembled per-channel
	// sample stripes for this band, each with a leading history region
	// of DeciHistoryMax samples (spec.md §9 "Pointer arithmetic and
	// aliased buffers"). Bands decode and filter independently, so these
	// live on Band rather than on the owning ChannelSet.
	MSBSampleBuffer [maxChannels][]int32
	LSBSampleBuffer [maxChannels][]int32
}

// activeChannels reports the channel count backing cs's current
// configuration; a small accessor used by the filter and downmix passes
// instead of re-reading NChannels everywhere.
func (cs *ChannelSet) activeChannels() int { return cs.NChannels }

// ensureSampleBuffers grows every band's per-channel sample buffers to
// hold nframesamples samples plus a leading DeciHistoryMax history
// region, reusing the existing backing array when it is already large
// enough (spec.md §5 "Shared-resource policy").
func (cs *ChannelSet) ensureSampleBuffers(nframesamples int, needLSB bool) {
	want := nframesamples + DeciHistoryMax
	for b := 0; b < cs.NFreqBands; b++ {
		band := &cs.Bands[b]
		for c := 0; c < cs.NChannels; c++ {
			if cap(band.MSBSampleBuffer[c]) < want {
				band.MSBSampleBuffer[c] = make([]int32, want)
			} else {
				band.MSBSampleBuffer[c] = band.MSBSampleBuffer[c][:want]
				for i := range band.MSBSampleBuffer[c] {
					band.MSBSampleBuffer[c][i] = 0
				}
			}
			if needLSB {
				if cap(band.LSBSampleBuffer[c]) < want {
					band.LSBSampleBuffer[c] = make([]int32, want)
				} else {
					band.LSBSampleBuffer[c] = band.LSBSampleBuffer[c][:want]
					for i := range band.LSBSampleBuffer[c] {
						band.LSBSampleBuffer[c][i] = 0
					}
				}
			}
		}
	}
}
