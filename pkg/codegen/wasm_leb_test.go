package codegen

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPutULEB128(t *testing.T) {
	cases := map[uint64][]byte{
		0:       {0x00},
		1:       {0x01},
		127:     {0x7F},
		128:     {0x80, 0x01},
		624485:  {0xE5, 0x8E, 0x26},
		1 << 20: {0x80, 0x80, 0x40},
	}
	for v, want := range cases {
		got := putULEB128(nil, v)
		require.Equal(t, want, got, "putULEB128(%d)", v)
	}
}

func TestPutSLEB128(t *testing.T) {
	cases := map[int64][]byte{
		0:   {0x00},
		2:   {0x02},
		-2:  {0x7E},
		127: {0xFF, 0x00},
		-64: {0x40},
		-65: {0xBF, 0x7F},
	}
	for v, want := range cases {
		got := putSLEB128(nil, v)
		require.Equal(t, want, got, "putSLEB128(%d)", v)
	}
}

func TestPutName(t *testing.T) {
	got := putName(nil, "abc")
	require.Equal(t, []byte{0x03, 'a', 'b', 'c'}, got)
}

func TestSectionWrapsIDAndLength(t *testing.T) {
	got := section(nil, secMemory, []byte{0xAA, 0xBB})
	require.Equal(t, []byte{byte(secMemory), 0x02, 0xAA, 0xBB}, got)
}
