/*
NAME
  pbr.go

DESCRIPTION
  pbr.go implements PbrBuffer, the Peak-Bit-Rate smoothing buffer that
  absorbs an XLL frame whose bytes are split across transport packets
  (spec.md §3, §4.15), grounded on the pbr_buffer handling in
  original_source/libavcodec/dca2_xll.c and dcadec2.c.

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

// PbrBuffer is a per-stream smoothing buffer holding bytes carried
// between packets (spec.md §4.15).
type PbrBuffer struct {
	buf         []byte
	length      int
	pbrDelay    int
	hdStreamID  int
	haveStreamID bool
}

// NewPbrBuffer returns an empty PbrBuffer sized to hold one maximal XLL
// frame.
func NewPbrBuffer() *PbrBuffer {
	return &PbrBuffer{buf: make([]byte, pbrMax)}
}

// OnStreamChange clears all carried state when the EXSS asset's
// hd_stream_id changes (spec.md §7 "On hd_stream_id change, PBR is
// cleared.").
func (p *PbrBuffer) OnStreamChange(newID int) {
	if p.haveStreamID && p.hdStreamID == newID {
		return
	}
	p.hdStreamID = newID
	p.haveStreamID = true
	p.length = 0
	p.pbrDelay = 0
}

// parseFunc attempts to parse a complete XLL frame from data, returning
// the decoded frame size in bytes on success, an *ExssAsset to consult
// for sync-skip hints when err wraps ErrNeedsSync, or an error.
type parseFunc func(data []byte) (frameSize int, asset *ExssAsset, err error)

// HandlePacket implements spec.md §4.15 "handle_packet". It returns
// ErrNeedsSync (wrapped) when more data must arrive before a frame can be
// produced, nil when parse succeeded (the frame was parsed either in
// place from data or from the PBR buffer), or a hard error.
func (p *PbrBuffer) HandlePacket(data []byte, parse parseFunc) error {
	if p.length == 0 {
		return p.handleNoSmoothing(data, parse)
	}
	return p.handleSmoothing(data, parse)
}

func (p *PbrBuffer) handleNoSmoothing(data []byte, parse parseFunc) error {
	frameSize, asset, err := parse(data)
	if err != nil {
		if errors.Is(err, ErrNeedsSync) && asset != nil && asset.XLLSyncPresent {
			off := asset.XLLSyncOffset
			if off < 0 || off > len(data) {
				return errors.Wrap(ErrInvalidData, "dtsxll: xll sync offset out of range")
			}
			if asset.XLLDelayNFrames > 0 {
				if err := p.append(data[off:]); err != nil {
					return err
				}
				p.pbrDelay = asset.XLLDelayNFrames
				return errors.Wrap(ErrNeedsSync, "dtsxll: pbr delay in effect")
			}
			frameSize, _, err = parse(data[off:])
			if err != nil {
				return err
			}
			return p.tailAfterSuccess(data[off:], frameSize)
		}
		return err
	}
	return p.tailAfterSuccess(data, frameSize)
}

func (p *PbrBuffer) tailAfterSuccess(data []byte, frameSize int) error {
	if frameSize < len(data) {
		tail := data[frameSize:]
		if err := p.append(tail); err != nil {
			return err
		}
	} else {
		p.length = 0
	}
	p.pbrDelay = 0
	return nil
}

func (p *PbrBuffer) handleSmoothing(data []byte, parse parseFunc) error {
	if err := p.append(data); err != nil {
		return err
	}
	if p.pbrDelay > 0 {
		p.pbrDelay--
		if p.pbrDelay != 0 {
			return errors.Wrap(ErrNeedsSync, "dtsxll: pbr delay countdown")
		}
	}
	frameSize, _, err := parse(p.buf[:p.length])
	if err != nil {
		p.length = 0
		p.pbrDelay = 0
		return err
	}
	if frameSize < p.length {
		remaining := p.length - frameSize
		copy(p.buf, p.buf[frameSize:p.length])
		p.length = remaining
	} else {
		p.length = 0
	}
	return nil
}

// append adds tail to the PBR buffer at offset p.length, after its current
// contents (not overwriting them), failing on overflow.
func (p *PbrBuffer) append(tail []byte) error {
	if p.length+len(tail) > len(p.buf) {
		return errors.Wrap(ErrOversizePacket, "dtsxll: pbr buffer overflow")
	}
	copy(p.buf[p.length:], tail)
	p.length += len(tail)
	return nil
}

// Len reports the number of bytes currently smoothed in the buffer, for
// callers that want to confirm smoothing is in progress.
func (p *PbrBuffer) Len() int { return p.length }
