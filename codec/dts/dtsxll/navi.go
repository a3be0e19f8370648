/*
NAME
  navi.go

DESCRIPTION
  navi.go parses the NAVI segment-size directory (spec.md §4.6), grounded
  on parse_navi in original_source/libavcodec/dca2_xll.c.

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

// NaviTable is the per-frame directory of segment byte sizes, indexed as
// navi[band][seg][chset] (spec.md §3 "NaviTable").
type NaviTable struct {
	NFreqBands int
	NFrameSegs int
	NChSets    int
	sizes      []int // flat, indexed via at()
}

func newNaviTable(nbands, nsegs, nchsets int) *NaviTable {
	return &NaviTable{
		NFreqBands: nbands,
		NFrameSegs: nsegs,
		NChSets:    nchsets,
		sizes:      make([]int, nbands*nsegs*nchsets),
	}
}

func (n *NaviTable) idx(band, seg, chset int) int {
	return (band*n.NFrameSegs+seg)*n.NChSets + chset
}

// At returns the byte size of the (band, seg, chset) slice.
func (n *NaviTable) At(band, seg, chset int) int { return n.sizes[n.idx(band, seg, chset)] }

// parseNavi implements spec.md §4.6. chsetOwnsBand(chset, band) reports
// whether channel set chset has data in frequency band band (it does
// unless band==1 and the set only has one frequency band).
func parseNavi(r *bits.Reader, hdr *XllCommonHeader, chsetOwnsBand func(chset, band int) bool) (*NaviTable, error) {
	navStart := r.TellBits()
	navi := newNaviTable(maxFreqBands, hdr.NFrameSegs, hdr.NChSets)

	for band := 0; band < maxFreqBands; band++ {
		for seg := 0; seg < hdr.NFrameSegs; seg++ {
			for cs := 0; cs < hdr.NChSets; cs++ {
				if !chsetOwnsBand(cs, band) {
					continue
				}
				size, err := r.ReadLong(hdr.SegSizeNbits)
				if err != nil {
					return nil, errors.Wrap(err, "dtsxll: read navi entry")
				}
				sz := int(size) + 1
				if sz >= hdr.FrameSize {
					return nil, errors.Wrapf(ErrInvalidData, "dtsxll: navi entry %d >= frame_size %d", sz, hdr.FrameSize)
				}
				navi.sizes[navi.idx(band, seg, cs)] = sz
			}
		}
	}

	r.AlignToByte()
	if err := r.Skip(16); err != nil {
		return nil, errors.Wrap(err, "dtsxll: skip navi crc")
	}
	if !bits.CheckRange(r.Bytes(), navStart, r.TellBits()) {
		return nil, errors.Wrap(ErrInvalidData, "dtsxll: navi crc mismatch")
	}
	return navi, nil
}
