/*
NAME
  speaker.go

DESCRIPTION
  speaker.go defines the DTS speaker position enumeration, speaker masks,
  standard layouts and downmix types used throughout the XLL decoder.

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

// Speaker enumerates the 32 named DTS speaker positions.
type Speaker int

// Speaker positions, ordered to match their bit position in a SpeakerMask.
const (
	SpeakerC Speaker = iota
	SpeakerL
	SpeakerR
	SpeakerLs
	SpeakerRs
	SpeakerLFE1
	SpeakerCs
	SpeakerLsr
	SpeakerRsr
	SpeakerLss
	SpeakerRss
	SpeakerLc
	SpeakerRc
	SpeakerLh
	SpeakerCh
	SpeakerRh
	SpeakerLFE2
	SpeakerLw
	SpeakerRw
	SpeakerOh
	SpeakerLhs
	SpeakerRhs
	SpeakerChr
	SpeakerLhr
	SpeakerRhr
	SpeakerCl
	SpeakerLl
	SpeakerRl
	speakerRsv1
	speakerRsv2
	speakerRsv3
	speakerRsv4

	SpeakerCount
)

// SpeakerMask is a bitmask of Speaker positions, bit i set iff Speaker(i) is
// present.
type SpeakerMask uint32

// Bit returns the mask bit for sp.
func (sp Speaker) Bit() SpeakerMask { return 1 << SpeakerMask(sp) }

// Has reports whether mask includes sp.
func (mask SpeakerMask) Has(sp Speaker) bool { return mask&sp.Bit() != 0 }

// PopCount returns the number of set speaker bits in mask.
func (mask SpeakerMask) PopCount() int {
	n := 0
	for m := mask; m != 0; m &= m - 1 {
		n++
	}
	return n
}

// Standard speaker layouts, derived unions of individual speaker bits.
const (
	MaskMono      = SpeakerMask(1) << SpeakerC
	MaskStereo    = SpeakerMask(1)<<SpeakerL | SpeakerMask(1)<<SpeakerR
	Mask2Point1   = MaskStereo | SpeakerMask(1)<<SpeakerLFE1
	Mask3Point0   = MaskStereo | SpeakerMask(1)<<SpeakerC
	Mask2_1       = MaskStereo | SpeakerMask(1)<<SpeakerCs
	Mask3_1       = Mask3Point0 | SpeakerMask(1)<<SpeakerCs
	Mask2_2       = MaskStereo | SpeakerMask(1)<<SpeakerLs | SpeakerMask(1)<<SpeakerRs
	Mask5Point0   = Mask3Point0 | SpeakerMask(1)<<SpeakerLs | SpeakerMask(1)<<SpeakerRs
	Mask5Point1   = Mask5Point0 | SpeakerMask(1)<<SpeakerLFE1
	Mask7Point0W  = Mask5Point0 | SpeakerMask(1)<<SpeakerLw | SpeakerMask(1)<<SpeakerRw
	Mask7Point1W  = Mask7Point0W | SpeakerMask(1)<<SpeakerLFE1
)

// DownMixType enumerates the embedded downmix configurations a primary
// channel set may declare.
type DownMixType int

const (
	DownMix1Point0 DownMixType = iota
	DownMixLoRo
	DownMixLtRt
	DownMix3Point0
	DownMix2Point1
	DownMix2Point2
	DownMix3Point1

	downMixTypeCount
)

// dmixPrimaryNch gives the number of primary-set channels each DownMixType
// downmixes to; indexed by DownMixType.
var dmixPrimaryNch = [downMixTypeCount]int{1, 2, 2, 3, 3, 4, 4}

// RequestChannelLayout selects the output channel layout a caller wants
// from the decoder; see spec.md §6 "request_channel_layout".
type RequestChannelLayout int

const (
	RequestNone RequestChannelLayout = iota
	RequestStereo
	Request5Point0
	Request5Point1
	RequestNative
)

// MatrixEncoding tags the side-data matrix-encoding hint attached to an
// output Frame.
type MatrixEncoding int

const (
	MatrixEncodingNone MatrixEncoding = iota
	MatrixEncodingDolby
	MatrixEncodingDolbyHeadphone
)

// RepresentationType is the EXSS asset representation type relevant to
// matrix-encoding side data.
type RepresentationType int

const (
	ReprTypeLtRt RepresentationType = 2
	ReprTypeLhRh RepresentationType = 3
)
