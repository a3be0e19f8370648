package dtsxll

import (
	"testing"

	"github.com/pkg/errors"
)

func TestPbrHandlePacketParsesInPlaceWhenComplete(t *testing.T) {
	p := NewPbrBuffer()
	data := []byte{1, 2, 3, 4}
	calls := 0
	err := p.HandlePacket(data, func(d []byte) (int, *ExssAsset, error) {
		calls++
		return len(d), nil, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("parse called %d times; want 1", calls)
	}
	if p.Len() != 0 {
		t.Errorf("Len() = %d; want 0 after a fully-consumed packet", p.Len())
	}
}

func TestPbrHandlePacketCarriesTailIntoBuffer(t *testing.T) {
	p := NewPbrBuffer()
	data := []byte{1, 2, 3, 4, 5, 6}
	err := p.HandlePacket(data, func(d []byte) (int, *ExssAsset, error) {
		return 4, nil, nil // frame is only the first 4 bytes
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Len() != 2 {
		t.Fatalf("Len() = %d; want 2 (trailing bytes carried forward)", p.Len())
	}
}

func TestPbrHandlePacketSmoothsAcrossTwoPackets(t *testing.T) {
	p := NewPbrBuffer()

	// First packet: incomplete frame, needs more data.
	err := p.HandlePacket([]byte{0xAA, 0xBB}, func(d []byte) (int, *ExssAsset, error) {
		return 0, nil, errors.Wrap(ErrNeedsSync, "need more data")
	})
	if !errors.Is(err, ErrNeedsSync) {
		t.Fatalf("first packet: err = %v; want ErrNeedsSync", err)
	}

	if err := p.append(nil); err != nil {
		t.Fatalf("unexpected error priming buffer: %v", err)
	}
	// Simulate the caller's no-smoothing path having appended the first
	// packet already (handleNoSmoothing appends only on the delayed
	// sync-skip path or to carry a tail after a successful parse); drive
	// handleSmoothing directly by forcing buffered state.
	p.length = 2
	copy(p.buf, []byte{0xAA, 0xBB})

	// Second packet completes the frame once buffered bytes are combined.
	err = p.HandlePacket([]byte{0xCC, 0xDD}, func(d []byte) (int, *ExssAsset, error) {
		if len(d) != 4 {
			t.Fatalf("parse saw %d bytes; want 4 (buffered + new)", len(d))
		}
		return 4, nil, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Len() != 0 {
		t.Errorf("Len() = %d; want 0 once the smoothed frame is fully consumed", p.Len())
	}
}

func TestPbrHandlePacketSmoothingDropsStateOnHardFailure(t *testing.T) {
	p := NewPbrBuffer()
	p.length = 2
	copy(p.buf, []byte{0x11, 0x22})

	err := p.HandlePacket([]byte{0x33}, func(d []byte) (int, *ExssAsset, error) {
		return 0, nil, ErrInvalidData
	})
	if !errors.Is(err, ErrInvalidData) {
		t.Fatalf("err = %v; want ErrInvalidData", err)
	}
	if p.Len() != 0 {
		t.Errorf("Len() = %d; want 0 after a hard parse failure", p.Len())
	}
}

func TestPbrOnStreamChangeClearsState(t *testing.T) {
	p := NewPbrBuffer()
	p.length = 10
	p.pbrDelay = 3
	p.OnStreamChange(7)
	if p.Len() != 0 || p.pbrDelay != 0 {
		t.Errorf("OnStreamChange did not clear state: len=%d delay=%d", p.Len(), p.pbrDelay)
	}
	// A repeated call with the same id must not be treated as a change.
	p.length = 5
	p.OnStreamChange(7)
	if p.Len() != 5 {
		t.Errorf("OnStreamChange(same id) cleared state unexpectedly")
	}
}

func TestPbrAppendOverflow(t *testing.T) {
	p := &PbrBuffer{buf: make([]byte, 4)}
	if err := p.append(make([]byte, 5)); !errors.Is(err, ErrOversizePacket) {
		t.Errorf("err = %v; want ErrOversizePacket", err)
	}
}
