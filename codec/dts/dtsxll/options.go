/*
NAME
  options.go

DESCRIPTION
  options.go defines Options, the decoder configuration struct (spec.md
  §6 "Configuration options"), modeled on revid/config's typed options
  struct rather than a generic map.

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

// Options configures a Decoder's behaviour.
type Options struct {
	// CoreOnly, if set, skips EXSS/XLL parsing entirely and decodes
	// only the lossy core.
	CoreOnly bool

	// RequestChannelLayout selects the output channel layout.
	RequestChannelLayout RequestChannelLayout

	// Explode, if true, propagates segment-level decode errors instead
	// of concealing them by zero-filling (spec.md §7, §9
	// "Concealment vs propagation").
	Explode bool

	// BitExact, when set, latches core-residual validity only when
	// bit-exact operation is required.
	BitExact bool
}
