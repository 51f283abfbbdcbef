package ir_test

import (
	"testing"

	"github.com/anistark/waspy/pkg/ir"
	"github.com/stretchr/testify/require"
)

func TestEqualBasicTypes(t *testing.T) {
	require.True(t, ir.Equal(ir.Int, ir.Int))
	require.False(t, ir.Equal(ir.Int, ir.Float))
	require.True(t, ir.Equal(ir.Any, ir.Any))
}

func TestEqualNilHandling(t *testing.T) {
	require.True(t, ir.Equal(nil, nil))
	require.False(t, ir.Equal(ir.Int, nil))
}

func TestEqualListType(t *testing.T) {
	a := &ir.ListType{Elem: ir.Int}
	b := &ir.ListType{Elem: ir.Int}
	c := &ir.ListType{Elem: ir.Str}
	require.True(t, ir.Equal(a, b))
	require.False(t, ir.Equal(a, c))
}

func TestEqualClassTypeByName(t *testing.T) {
	a := &ir.ClassType{Name: "Point"}
	b := &ir.ClassType{Name: "Point"}
	c := &ir.ClassType{Name: "Other"}
	require.True(t, ir.Equal(a, b))
	require.False(t, ir.Equal(a, c))
}

func TestResolveUnknownInArithmeticContext(t *testing.T) {
	unknown := &ir.BasicType{Kind: ir.KindUnknown}
	require.True(t, ir.Equal(ir.Resolve(unknown, true), ir.Int))
	require.True(t, ir.Equal(ir.Resolve(unknown, false), ir.Any))
}

func TestResolveLeavesKnownTypesAlone(t *testing.T) {
	require.True(t, ir.Equal(ir.Resolve(ir.Float, true), ir.Float))
}

func TestIsNumeric(t *testing.T) {
	require.True(t, ir.IsNumeric(ir.Int))
	require.True(t, ir.IsNumeric(ir.Float))
	require.True(t, ir.IsNumeric(ir.Bool))
	require.False(t, ir.IsNumeric(ir.Str))
}

func TestMangledMethodName(t *testing.T) {
	require.Equal(t, "Point::sumxy", ir.MangledMethodName("Point", "sumxy"))
}
