/*
NAME
  errors.go

DESCRIPTION
  errors.go defines the sentinel error taxonomy used across the XLL
  decoder (spec.md §7 "ERROR HANDLING DESIGN"), wrapped with
  github.com/pkg/errors at each call site the way codec/h264/h264dec and
  codec/pcm wrap their errors.

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

import "github.com/pkg/errors"

// Sentinel errors returned (possibly wrapped) by parsing and filtering
// operations. Callers should use errors.Is to test for a specific kind,
// since call sites wrap these with contextual detail.
var (
	// ErrNeedsSync is not fatal: it signals that the caller should
	// resynchronize, either via PbrBuffer smoothing or by scanning
	// forward for the next sync word.
	ErrNeedsSync = errors.New("dtsxll: needs sync")

	// ErrInvalidData covers malformed fields, failed CRC checks, and
	// out-of-range values. Propagated unless concealment applies.
	ErrInvalidData = errors.New("dtsxll: invalid data")

	// ErrUnsupported covers well-formed but unsupported configurations:
	// stream versions other than 1, custom channel mapping, replacement
	// sets, frequencies above 192kHz, and storage resolutions other
	// than 16 or 24 bits.
	ErrUnsupported = errors.New("dtsxll: unsupported stream configuration")

	// ErrShortPacket is returned when an input buffer is smaller than
	// the minimum valid DCA packet size.
	ErrShortPacket = errors.New("dtsxll: packet too short")

	// ErrOversizePacket is returned when an input buffer, or a declared
	// frame size within it, exceeds the maximum DCA packet size.
	ErrOversizePacket = errors.New("dtsxll: packet too large")
)

// minPacketSize and maxPacketSize bound a single DCA packet (spec.md §6).
const (
	minPacketSize = 16
	maxPacketSize = 0x104000
)

// pbrMax bounds the Peak-Bit-Rate smoothing buffer (spec.md §3, §4.15);
// it must be at least maxPacketSize since a single frame can be as large
// as a packet.
const pbrMax = maxPacketSize
