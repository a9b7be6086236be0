package varint

import (
	"bytes"
	"math"
	"math/bits"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeUnsigned_KnownVectors(t *testing.T) {
	tests := []struct {
		value uint64
		want  []byte
	}{
		{0, []byte{0x00}},
		{1, []byte{0x01}},
		{127, []byte{0x7F}},
		{128, []byte{0x80, 0x01}},
		{300, []byte{0xAC, 0x02}},
		{624485, []byte{0xE5, 0x8E, 0x26}},
		{math.MaxUint64, []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x01}},
	}

	for _, tt := range tests {
		got := EncodeUnsigned(tt.value)
		assert.Equal(t, tt.want, got, "value %d", tt.value)

		decoded, n, err := DecodeUnsigned(got, 0)
		require.NoError(t, err)
		assert.Equal(t, tt.value, decoded)
		assert.Equal(t, len(got), n)
	}
}

func TestEncodeSigned_KnownVectors(t *testing.T) {
	tests := []struct {
		value int64
		want  []byte
	}{
		{0, []byte{0x00}},
		{2, []byte{0x02}},
		{-1, []byte{0x7F}},
		{-2, []byte{0x7E}},
		{63, []byte{0x3F}},
		{64, []byte{0xC0, 0x00}},
		{-64, []byte{0x40}},
		{-65, []byte{0xBF, 0x7F}},
		{127, []byte{0xFF, 0x00}},
		{-128, []byte{0x80, 0x7F}},
		{-129, []byte{0xFF, 0x7E}},
		{-123456, []byte{0xC0, 0xBB, 0x78}},
	}

	for _, tt := range tests {
		got := EncodeSigned(tt.value)
		assert.Equal(t, tt.want, got, "value %d", tt.value)

		decoded, n, err := DecodeSigned(got, 0)
		require.NoError(t, err)
		assert.Equal(t, tt.value, decoded)
		assert.Equal(t, len(got), n)
	}
}

func TestRoundTrip_Extremes(t *testing.T) {
	unsigned := []uint64{0, 1, 1 << 7, 1<<7 - 1, 1 << 32, 1<<63 - 1, 1 << 63, math.MaxUint64}
	for _, v := range unsigned {
		got, n, err := DecodeUnsigned(EncodeUnsigned(v), 0)
		require.NoError(t, err)
		assert.Equal(t, v, got)
		assert.Equal(t, SizeUnsigned(v), n)
	}

	signed := []int64{0, 1, -1, 63, 64, -64, -65, math.MaxInt32, math.MinInt32, math.MaxInt64, math.MinInt64}
	for _, v := range signed {
		got, n, err := DecodeSigned(EncodeSigned(v), 0)
		require.NoError(t, err)
		assert.Equal(t, v, got)
		assert.Equal(t, SizeSigned(v), n)
		assert.LessOrEqual(t, n, MaxLen64)
	}
}

func TestRoundTrip_RandomAndMinimal(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))

	for i := 0; i < 5000; i++ {
		u := rng.Uint64() >> rng.UintN(64)
		enc := EncodeUnsigned(u)
		got, n, err := DecodeUnsigned(enc, 0)
		require.NoError(t, err)
		require.Equal(t, u, got)
		require.Equal(t, len(enc), n)

		limit := (bits.Len64(u) + 6) / 7
		if limit == 0 {
			limit = 1
		}
		require.LessOrEqual(t, len(enc), limit, "unsigned %d not minimal", u)

		s := int64(rng.Uint64()) >> rng.UintN(64)
		senc := EncodeSigned(s)
		sgot, sn, err := DecodeSigned(senc, 0)
		require.NoError(t, err)
		require.Equal(t, s, sgot)
		require.Equal(t, len(senc), sn)
		require.Equal(t, SizeSigned(s), len(senc))
	}
}

func TestDecodeUnsigned_Offset(t *testing.T) {
	buf := append([]byte{0xAA, 0xBB}, EncodeUnsigned(300)...)
	buf = append(buf, 0x05)

	v, n, err := DecodeUnsigned(buf, 2)
	require.NoError(t, err)
	assert.Equal(t, uint64(300), v)
	assert.Equal(t, 2, n)

	v, n, err = DecodeUnsigned(buf, 4)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), v)
	assert.Equal(t, 1, n)

	_, _, err = DecodeUnsigned(buf, 10)
	assert.ErrorIs(t, err, ErrOffset)
}

func TestDecode_Truncated(t *testing.T) {
	_, _, err := DecodeUnsigned([]byte{0x80, 0x80}, 0)
	assert.ErrorIs(t, err, ErrTruncated)

	_, _, err = DecodeSigned([]byte{0xFF}, 0)
	assert.ErrorIs(t, err, ErrTruncated)

	_, _, err = DecodeUnsigned(nil, 0)
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestDecode_OverflowFailsFast(t *testing.T) {
	// Endless continuation bytes must not be scanned to the end.
	corrupt := make([]byte, 64)
	for i := range corrupt {
		corrupt[i] = 0xFF
	}

	_, n, err := DecodeUnsigned(corrupt, 0)
	assert.ErrorIs(t, err, ErrOverflow)
	assert.LessOrEqual(t, n, MaxLen64+1)

	_, n, err = DecodeSigned(corrupt, 0)
	assert.ErrorIs(t, err, ErrOverflow)
	assert.LessOrEqual(t, n, MaxLen64+1)
}

func TestDecodeSigned_TenthByte(t *testing.T) {
	nine := func(b byte) []byte { return bytes.Repeat([]byte{b}, 9) }

	tests := []struct {
		name string
		buf  []byte
		want int64
		err  error
	}{
		{"max int64", append(nine(0xFF), 0x00), math.MaxInt64, nil},
		{"min int64", append(nine(0x80), 0x7F), math.MinInt64, nil},
		{"bits past 63 on a positive value", append(nine(0xFF), 0x02), 0, ErrOverflow},
		{"bits past 63 on a negative value", append(nine(0x80), 0x3F), 0, ErrOverflow},
		{"continuation on the tenth byte", append(nine(0x80), 0x80, 0x00), 0, ErrOverflow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, n, err := DecodeSigned(tt.buf, 0)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, MaxLen64, n)
		})
	}
}

func TestDecode_StopsAtTerminator(t *testing.T) {
	buf := []byte{0x96, 0x01, 0xFF, 0xFF}
	v, n, err := DecodeUnsigned(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(150), v)
	assert.Equal(t, 2, n)
}
