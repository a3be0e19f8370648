/*
NAME
  bitreader.go

DESCRIPTION
  bitreader.go provides a random-access, big-endian bit reader over a byte
  slice, along with the CRC-16 validator used to check DTS-HD XLL header,
  sub-header, NAVI and band CRC spans.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package bits provides a big-endian, random-access bit reader over a byte
// slice, and a CRC-16 validator for checked bit ranges. Unlike
// codec/h264/h264dec/bits, which streams from an io.Reader and never looks
// backward, this reader must seek to arbitrary absolute bit positions (NAVI
// table jumps, LSB section skips) so it is backed directly by the input
// slice.
package bits

import "github.com/pkg/errors"

// ErrEndOfBuffer is returned whenever a read, peek or seek would consume
// bits past the end of the underlying buffer.
var ErrEndOfBuffer = errors.New("bits: read past end of buffer")

// Reader is a big-endian bit reader over a fixed byte slice, with absolute
// seek and tell support.
type Reader struct {
	buf []byte
	pos int // current position, in bits, from the start of buf.
}

// NewReader returns a Reader over buf, positioned at bit 0.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Bytes returns the underlying buffer, for callers (CRC checks) that need
// to address it directly by byte range.
func (r *Reader) Bytes() []byte { return r.buf }

// BitsLeft returns the number of unread bits remaining in the buffer.
func (r *Reader) BitsLeft() int {
	return len(r.buf)*8 - r.pos
}

// TellBits returns the current absolute read position, in bits.
func (r *Reader) TellBits() int { return r.pos }

// SeekBits moves the read position to the absolute bit offset abs. It is an
// error to seek outside of [0, len(buf)*8].
func (r *Reader) SeekBits(abs int) error {
	if abs < 0 || abs > len(r.buf)*8 {
		return ErrEndOfBuffer
	}
	r.pos = abs
	return nil
}

// AlignToByte advances the read position to the next byte boundary, a
// no-op if already aligned.
func (r *Reader) AlignToByte() {
	if off := r.pos % 8; off != 0 {
		r.pos += 8 - off
	}
}

// Skip advances the read position by n bits.
func (r *Reader) Skip(n int) error {
	return r.SeekBits(r.pos + n)
}

// Read reads n (0..32) bits and returns them as an unsigned value.
func (r *Reader) Read(n int) (uint32, error) {
	v, err := r.peek(n)
	if err != nil {
		return 0, err
	}
	r.pos += n
	return uint32(v), nil
}

// ReadLong is identical to Read but documents call sites that read fields
// wider than a typical flag/enum (segment sizes, channel masks).
func (r *Reader) ReadLong(n int) (uint32, error) {
	return r.Read(n)
}

// ReadBit reads a single bit and returns it as a bool.
func (r *Reader) ReadBit() (bool, error) {
	v, err := r.Read(1)
	if err != nil {
		return false, err
	}
	return v != 0, nil
}

// ReadSigned reads n bits and sign-extends the result as a two's-complement
// value of width n.
func (r *Reader) ReadSigned(n int) (int32, error) {
	v, err := r.Read(n)
	if err != nil {
		return 0, err
	}
	if n == 0 || n == 32 {
		return int32(v), nil
	}
	sign := uint32(1) << (n - 1)
	return int32((v ^ sign) - sign), nil
}

// ReadUnary counts consecutive bits different from stopBit (interpreted as
// 0 or 1), stopping at the first bit equal to stopBit, which is consumed but
// not counted. It fails if max bits have been counted without reading the
// stop bit.
func (r *Reader) ReadUnary(stopBit uint32, max int) (int, error) {
	count := 0
	for count < max {
		b, err := r.Read(1)
		if err != nil {
			return 0, err
		}
		if b == stopBit {
			return count, nil
		}
		count++
	}
	return 0, errors.Errorf("bits: unary code exceeded max of %d bits", max)
}

// peek returns the next n bits (0..32) without advancing the position.
func (r *Reader) peek(n int) (uint64, error) {
	if n < 0 || n > 32 {
		return 0, errors.Errorf("bits: invalid read width %d", n)
	}
	if n == 0 {
		return 0, nil
	}
	if r.pos+n > len(r.buf)*8 {
		return 0, ErrEndOfBuffer
	}

	var v uint64
	bitPos := r.pos
	remaining := n
	for remaining > 0 {
		byteIdx := bitPos / 8
		bitOff := bitPos % 8
		avail := 8 - bitOff
		take := avail
		if take > remaining {
			take = remaining
		}
		shift := avail - take
		mask := byte(0xFF >> bitOff)
		b := (r.buf[byteIdx] & mask) >> uint(shift)
		v = (v << uint(take)) | uint64(b&((1<<uint(take))-1))
		bitPos += take
		remaining -= take
	}
	return v, nil
}

// CRC16 is the polynomial-0x1021, init-0xFFFF, no-final-XOR CRC used
// throughout the XLL bitstream.
type CRC16 struct{}

var crcTable = [16]uint16{
	0x0000, 0x1021, 0x2042, 0x3063, 0x4084, 0x50a5, 0x60c6, 0x70e7,
	0x8108, 0x9129, 0xa14a, 0xb16b, 0xc18c, 0xd1ad, 0xe1ce, 0xf1ef,
}

// Compute returns the CRC-16 register value over data, nibble by nibble.
func Compute(data []byte) uint16 {
	res := uint16(0xFFFF)
	for _, b := range data {
		res = (res << 4) ^ crcTable[(b>>4)^byte(res>>12)]
		res = (res << 4) ^ crcTable[(b&0xF)^byte(res>>12)]
	}
	return res
}

// CheckRange verifies the CRC-16 over the bit range [startBit, endBit) of
// buf, where the trailing two CRC bytes are included in the checked range.
// Both endpoints must be byte-aligned and the span must be at least 16
// bits; a "good" CRC is a zero register after processing every byte.
func CheckRange(buf []byte, startBit, endBit int) bool {
	if startBit%8 != 0 || endBit%8 != 0 {
		return false
	}
	if startBit < 0 || endBit > len(buf)*8 || endBit-startBit < 16 {
		return false
	}
	return Compute(buf[startBit/8:endBit/8]) == 0
}
