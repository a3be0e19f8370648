/*
NAME
  ricecode.go

DESCRIPTION
  ricecode.go implements the entropy codes used for XLL residual data:
  zig-zag signed linear codes, unary-prefixed Rice codes, and "Hybrid
  Rice" isolated-sample escape coding (spec.md §4.2), grounded on
  original_source/libavcodec/dca2_xll.c's get_linear/get_rice/get_array
  family of functions.

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

// unaryStopBit and unaryMax are the stop bit and maximum run length for
// every unary prefix read in the XLL bitstream (spec.md §4.1, §4.2).
const (
	unaryStopBit = 1
	unaryMax     = 128
)

// zigzagDecode maps an unsigned zig-zag code back to a signed value:
// 0,1,2,3,4 -> 0,-1,1,-2,2.
func zigzagDecode(u uint32) int32 {
	return int32(u>>1) ^ -int32(u&1)
}

// readSignedLinear reads n bits as an unsigned value and zig-zag decodes
// it. n==0 always yields 0.
func readSignedLinear(r *bits.Reader, n int) (int32, error) {
	if n == 0 {
		return 0, nil
	}
	u, err := r.Read(n)
	if err != nil {
		return 0, errors.Wrap(err, "dtsxll: read signed linear code")
	}
	return zigzagDecode(u), nil
}

// readUnaryRice reads a unary-Rice code with Rice parameter k: a unary
// count v (stop bit 1, capped at unaryMax), combined with k raw bits when
// k > 0.
func readUnaryRice(r *bits.Reader, k int) (uint32, error) {
	v, err := r.ReadUnary(unaryStopBit, unaryMax)
	if err != nil {
		return 0, errors.Wrap(err, "dtsxll: read unary-rice prefix")
	}
	if k == 0 {
		return uint32(v), nil
	}
	low, err := r.Read(k)
	if err != nil {
		return 0, errors.Wrap(err, "dtsxll: read unary-rice remainder")
	}
	return uint32(v)<<uint(k) | low, nil
}

// readSignedRice reads a signed Rice code of parameter k: a zig-zag
// decode of a unary-Rice code.
func readSignedRice(r *bits.Reader, k int) (int32, error) {
	u, err := readUnaryRice(r, k)
	if err != nil {
		return 0, err
	}
	return zigzagDecode(u), nil
}

// hybridRice decodes the "part B" of a segment when Hybrid Rice mode is
// active: an isolated-sample location list followed by a payload where
// listed locations use a signed linear code of width h and all other
// locations use a signed Rice code of parameter riceK.
//
// dst must already be sized to hold nsamples values; nsamplesLog2 is the
// bit width of the location count and of each location. It is not derived
// from nsamples: the caller passes the frame-wide nsegsamples_log2, while
// nsamples is the part-B sample count of the segment.
func hybridRice(r *bits.Reader, dst []int32, nsamples, nsamplesLog2, h, riceK int) error {
	nLoc, err := r.Read(nsamplesLog2)
	if err != nil {
		return errors.Wrap(err, "dtsxll: read isolated sample count")
	}
	isolated := make(map[int]bool, nLoc)
	locs := make([]int, 0, nLoc)
	for i := 0; i < int(nLoc); i++ {
		loc, err := r.Read(nsamplesLog2)
		if err != nil {
			return errors.Wrap(err, "dtsxll: read isolated sample location")
		}
		l := int(loc)
		if l >= nsamples {
			return errors.Wrapf(ErrInvalidData, "dtsxll: isolated sample location %d out of range [0,%d)", l, nsamples)
		}
		if isolated[l] {
			return errors.Wrapf(ErrInvalidData, "dtsxll: duplicate isolated sample location %d", l)
		}
		isolated[l] = true
		locs = append(locs, l)
	}
	for t := 0; t < nsamples; t++ {
		var (
			v   int32
			err error
		)
		if isolated[t] {
			v, err = readSignedLinear(r, h)
		} else {
			v, err = readSignedRice(r, riceK)
		}
		if err != nil {
			return errors.Wrapf(err, "dtsxll: hybrid rice sample %d", t)
		}
		dst[t] = v
	}
	return nil
}
