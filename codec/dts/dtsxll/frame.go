/*
NAME
  frame.go

DESCRIPTION
  frame.go defines Frame, the decoded PCM output container (spec.md §6
  "Output"), and its conversion to github.com/go-audio/audio.IntBuffer for
  WAV encoding, the same role go-audio plays in exp/flac/decode.go. The
  frame container itself is a collaborator spec.md treats as out of
  scope; this is the minimal shape the XLL filter and core paths need to
  hand samples to a caller.

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

import "github.com/go-audio/audio"

// Frame is a decoded PCM output frame: one planar sample slice per
// speaker present in ChMask, a sample rate, a storage bit resolution
// (spec.md §6 "Sample format"), and the side data attached to it.
type Frame struct {
	ChMask        SpeakerMask
	SampleRate    int
	StorageBitRes int // 16 or 24
	Samples       [SpeakerCount][]int32
	MatrixEncoding MatrixEncoding
	Profile       string
}

// profileDtsHdMA is the profile string attached to a frame whenever XLL
// was present (spec.md §6 "Profile advertised").
const profileDtsHdMA = "DTS-HD Master Audio"

// NChannels returns the number of speakers present in the frame.
func (f *Frame) NChannels() int { return f.ChMask.PopCount() }

// ToIntBuffer converts f to a github.com/go-audio/audio.IntBuffer,
// interleaving channels in ascending Speaker order and left-shifting
// 24-bit storage samples by 8 to occupy the upper 24 bits of a 32-bit
// word (spec.md §6 "Sample format").
func (f *Frame) ToIntBuffer() *audio.IntBuffer {
	var order []Speaker
	for sp := Speaker(0); sp < SpeakerCount; sp++ {
		if f.ChMask.Has(sp) {
			order = append(order, sp)
		}
	}
	nch := len(order)
	if nch == 0 {
		return &audio.IntBuffer{Format: &audio.Format{NumChannels: 0, SampleRate: f.SampleRate}}
	}
	nframes := len(f.Samples[order[0]])
	data := make([]int, nframes*nch)
	shift := 0
	bitDepth := f.StorageBitRes
	if f.StorageBitRes == 24 {
		shift = 8
	}
	for t := 0; t < nframes; t++ {
		for i, sp := range order {
			v := int32(0)
			if t < len(f.Samples[sp]) {
				v = f.Samples[sp][t]
			}
			data[t*nch+i] = int(v) << uint(shift)
		}
	}
	return &audio.IntBuffer{
		Format: &audio.Format{NumChannels: nch, SampleRate: f.SampleRate},
		Data:   data,
		SourceBitDepth: bitDepth,
	}
}
