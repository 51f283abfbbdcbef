package codegen

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInternReusesOffsetForEqualLiterals(t *testing.T) {
	d := newDataLayout()
	a := d.intern("hello")
	b := d.intern("hello")
	require.Equal(t, a, b)

	c := d.intern("world")
	require.NotEqual(t, a, c)
}

func TestInternBytesPrefixesLength(t *testing.T) {
	d := newDataLayout()
	off := d.internBytes([]byte{1, 2, 3})
	require.Equal(t, int32(0), off)
	require.Equal(t, byte(3), d.buf[0]) // length cell, little-endian low byte
	require.Equal(t, []byte{1, 2, 3}, d.buf[4:7])
}

func TestCheckFitsRejectsOverflow(t *testing.T) {
	d := newDataLayout()
	d.buf = make([]byte, heapBase+1)
	err := d.checkFits()
	require.Error(t, err)
	var cel *CompileErrorLike
	require.ErrorAs(t, err, &cel)
	require.Equal(t, "StaticDataOverflow", cel.Kind)
}
