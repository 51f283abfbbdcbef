package semantic_test

import (
	"testing"

	"github.com/anistark/waspy/internal/frontend"
	"github.com/anistark/waspy/pkg/ir"
	"github.com/anistark/waspy/pkg/semantic"
	"github.com/stretchr/testify/require"
)

func convert(t *testing.T, src string) *ir.Module {
	t.Helper()
	file, err := frontend.Parse("t.py", src)
	require.NoError(t, err)
	mod, err := semantic.Convert(file)
	require.NoError(t, err)
	return mod
}

func TestConvertExportsTopLevelFunctions(t *testing.T) {
	mod := convert(t, "def add(a:int,b:int)->int:\n    return a+b\n")
	require.Len(t, mod.Functions, 1)
	require.Equal(t, "add", mod.Functions[0].Name)
	require.True(t, ir.Equal(mod.Functions[0].ReturnType, ir.Int))
}

func TestConvertPreservesAnnotatedTypes(t *testing.T) {
	mod := convert(t, "def f(x:float)->float:\n    return x\n")
	require.True(t, ir.Equal(mod.Functions[0].Params[0].Type, ir.Float))
	require.True(t, ir.Equal(mod.Functions[0].ReturnType, ir.Float))
}

func TestConvertWidensMismatchedCallSiteArgs(t *testing.T) {
	src := "def f(x:int)->int:\n    return x\n" +
		"def g()->int:\n    return f(1.5)\n"
	mod := convert(t, src)
	var f *ir.Function
	for _, fn := range mod.Functions {
		if fn.Name == "f" {
			f = fn
		}
	}
	require.NotNil(t, f)
	require.True(t, ir.Equal(f.Params[0].Type, ir.Any), "mismatched literal call site should widen the param to Any")
}

func TestConvertBuildsClassWithFieldsFromInit(t *testing.T) {
	src := "class Point:\n" +
		"    def __init__(self, x:int, y:int):\n" +
		"        self.x = x\n" +
		"        self.y = y\n" +
		"    def sumxy(self)->int:\n" +
		"        return self.x + self.y\n"
	mod := convert(t, src)
	require.Len(t, mod.Classes, 1)
	cls := mod.Classes[0]
	require.Equal(t, "Point", cls.Name)
	require.Len(t, cls.Fields, 2)
	require.Equal(t, "x", cls.Fields[0].Name)
	require.Equal(t, "y", cls.Fields[1].Name)
	require.NotNil(t, cls.Init)
	require.Len(t, cls.Methods, 1)

	selfType, ok := cls.Init.Params[0].Type.(*ir.ClassType)
	require.True(t, ok)
	require.Equal(t, "Point", selfType.Name)
}

// TestConvertJoinsUnannotatedMethodReturnFromFields exercises spec.md's
// literal Point example, unannotated exactly as written there
// (`def sumxy(self): return self.x+self.y`, no `->int`): the join must
// classify the field-attribute sum as Int without a return annotation.
func TestConvertJoinsUnannotatedMethodReturnFromFields(t *testing.T) {
	src := "class Point:\n" +
		"    def __init__(self, x:int, y:int):\n" +
		"        self.x = x\n" +
		"        self.y = y\n" +
		"    def sumxy(self):\n" +
		"        return self.x + self.y\n"
	mod := convert(t, src)
	require.Len(t, mod.Classes, 1)
	cls := mod.Classes[0]
	require.Len(t, cls.Methods, 1)
	require.True(t, ir.Equal(cls.Methods[0].ReturnType, ir.Int))
}

// TestConvertUnannotatedParamDefaultsToInt covers spec §4.1's default: a
// missing annotation is Int, not Any — widenMismatchedParams is what
// promotes it to Any, and only when a call site actually disagrees.
func TestConvertUnannotatedParamDefaultsToInt(t *testing.T) {
	mod := convert(t, "def f(x):\n    return x\n")
	require.True(t, ir.Equal(mod.Functions[0].Params[0].Type, ir.Int))
}

func TestConvertFailsOnDecoratorlessUnknownFunction(t *testing.T) {
	_, err := frontend.Parse("t.py", "def f()->int:\n    return g()\n")
	require.NoError(t, err) // the parser accepts it; the converter rejects it
	file, err := frontend.Parse("t.py", "def f()->int:\n    return g()\n")
	require.NoError(t, err)
	_, err = semantic.Convert(file)
	require.Error(t, err)
	var cerr *semantic.CompileError
	require.ErrorAs(t, err, &cerr)
}
