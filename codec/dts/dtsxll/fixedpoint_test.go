package dtsxll

import "testing"

func TestNormRoundsHalfUp(t *testing.T) {
	tests := []struct {
		x    int64
		n    uint
		want int64
	}{
		{0, 4, 0},
		{8, 4, 1},  // exactly half, rounds up
		{7, 4, 0},  // below half, rounds down
		{9, 4, 1},
		{-8, 4, 0}, // (-8+8)>>4 = 0
		{100, 0, 100},
	}
	for _, test := range tests {
		if got := norm(test.x, test.n); got != test.want {
			t.Errorf("norm(%d, %d) = %d; want %d", test.x, test.n, got, test.want)
		}
	}
}

func TestMulHelpersUnityCoefficient(t *testing.T) {
	// A unity coefficient (1<<Q) should return the other operand unchanged.
	if got := mul15(1<<15, 1234); got != 1234 {
		t.Errorf("mul15(unity, 1234) = %d; want 1234", got)
	}
	if got := mul16(1<<16, -777); got != -777 {
		t.Errorf("mul16(unity, -777) = %d; want -777", got)
	}
	if got := mul22(1<<22, 42); got != 42 {
		t.Errorf("mul22(unity, 42) = %d; want 42", got)
	}
}

func TestClip23Saturates(t *testing.T) {
	tests := []struct {
		x    int64
		want int32
	}{
		{0, 0},
		{1 << 23, (1 << 23) - 1},
		{-(1 << 23) - 1, -(1 << 23)},
		{100, 100},
	}
	for _, test := range tests {
		if got := clip23(test.x); got != test.want {
			t.Errorf("clip23(%d) = %d; want %d", test.x, got, test.want)
		}
	}
}

func TestClip16Saturates(t *testing.T) {
	tests := []struct {
		x    int64
		want int32
	}{
		{0, 0},
		{1 << 15, (1 << 15) - 1},
		{-(1 << 15) - 1, -(1 << 15)},
	}
	for _, test := range tests {
		if got := clip16(test.x); got != test.want {
			t.Errorf("clip16(%d) = %d; want %d", test.x, got, test.want)
		}
	}
}

func TestVmul15Sub(t *testing.T) {
	dst := []int32{100, 200}
	src := []int32{10, 20}
	vmul15Sub(dst, src, 1<<15) // unity coefficient
	want := []int32{90, 180}
	for i := range want {
		if dst[i] != want[i] {
			t.Errorf("dst[%d] = %d; want %d", i, dst[i], want[i])
		}
	}
}
