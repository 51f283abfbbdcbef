package frontend_test

import (
	"testing"

	"github.com/anistark/waspy/internal/frontend"
	"github.com/anistark/waspy/pkg/codegen"
	"github.com/anistark/waspy/pkg/codegen/wasmtest"
	"github.com/anistark/waspy/pkg/semantic"
	"github.com/stretchr/testify/require"
)

// compileAndLoad runs the full pipeline spec.md §8.3's scenarios are
// defined against: source text in, a running wazero instance out.
func compileAndLoad(t *testing.T, name, src string) *wasmtest.Instance {
	t.Helper()
	file, err := frontend.Parse(name, src)
	require.NoError(t, err)

	module, err := semantic.Convert(file)
	require.NoError(t, err)

	backend := codegen.GetBackend("wasm", &codegen.BackendOptions{})
	require.NotNil(t, backend)

	binary, err := backend.Generate(module)
	require.NoError(t, err)

	instance, err := wasmtest.Load(binary)
	require.NoError(t, err)
	return instance
}

func TestScenarioAddition(t *testing.T) {
	inst := compileAndLoad(t, "add.py", "def add(a:int,b:int)->int:\n    return a+b\n")
	defer inst.Close()

	result, err := inst.CallI32("add", 40, 2)
	require.NoError(t, err)
	require.Equal(t, int32(42), result)
}

func TestScenarioFactorial(t *testing.T) {
	src := "def factorial(n:int)->int:\n" +
		"    result = 1\n" +
		"    i = 1\n" +
		"    while i <= n:\n" +
		"        result = result * i\n" +
		"        i = i + 1\n" +
		"    return result\n"
	inst := compileAndLoad(t, "factorial.py", src)
	defer inst.Close()

	r5, err := inst.CallI32("factorial", 5)
	require.NoError(t, err)
	require.Equal(t, int32(120), r5)

	r0, err := inst.CallI32("factorial", 0)
	require.NoError(t, err)
	require.Equal(t, int32(1), r0)
}

func TestScenarioBranching(t *testing.T) {
	src := "def max_num(a:float,b:float)->float:\n" +
		"    return a if a > b else b\n"
	inst := compileAndLoad(t, "max_num.py", src)
	defer inst.Close()

	r1, err := inst.CallF64("max_num", 42.0, 17.0)
	require.NoError(t, err)
	require.Equal(t, 42.0, r1)

	r2, err := inst.CallF64("max_num", -1.0, -1.0)
	require.NoError(t, err)
	require.Equal(t, -1.0, r2)
}

func TestScenarioFibonacci(t *testing.T) {
	src := "def fib(n:int)->int:\n" +
		"    if n < 2:\n" +
		"        return n\n" +
		"    a = 0\n" +
		"    b = 1\n" +
		"    i = 2\n" +
		"    while i <= n:\n" +
		"        c = a + b\n" +
		"        a = b\n" +
		"        b = c\n" +
		"        i = i + 1\n" +
		"    return b\n"
	inst := compileAndLoad(t, "fib.py", src)
	defer inst.Close()

	for n, want := range map[int32]int32{0: 0, 1: 1, 10: 55} {
		got, err := inst.CallI32("fib", n)
		require.NoError(t, err)
		require.Equal(t, want, got, "fib(%d)", n)
	}
}

func TestScenarioTryExcept(t *testing.T) {
	src := "def safe_div(a:int,b:int)->int:\n" +
		"    try:\n" +
		"        return a // b\n" +
		"    except ZeroDivisionError:\n" +
		"        return -1\n"
	inst := compileAndLoad(t, "safe_div.py", src)
	defer inst.Close()

	r1, err := inst.CallI32("safe_div", 10, 3)
	require.NoError(t, err)
	require.Equal(t, int32(3), r1)

	r2, err := inst.CallI32("safe_div", 10, 0)
	require.NoError(t, err)
	require.Equal(t, int32(-1), r2)
}

func TestScenarioClass(t *testing.T) {
	src := "class Point:\n" +
		"    def __init__(self, x:int, y:int):\n" +
		"        self.x = x\n" +
		"        self.y = y\n" +
		"    def sumxy(self):\n" +
		"        return self.x + self.y\n" +
		"\n" +
		"def make_point(x:int, y:int)->int:\n" +
		"    p = Point(x, y)\n" +
		"    return p\n" +
		"\n" +
		"def make_and_sum(x:int, y:int)->int:\n" +
		"    p = Point(x, y)\n" +
		"    return p.sumxy()\n"
	inst := compileAndLoad(t, "point.py", src)
	defer inst.Close()

	sum, err := inst.CallI32("make_and_sum", 3, 4)
	require.NoError(t, err)
	require.Equal(t, int32(7), sum)

	p1, err := inst.CallI32("make_point", 3, 4)
	require.NoError(t, err)
	require.NotEqual(t, int32(0), p1)

	p2, err := inst.CallI32("make_point", 5, 6)
	require.NoError(t, err)
	require.NotEqual(t, p1, p2, "two instances must occupy distinct memory regions")
}

func TestScenarioPower(t *testing.T) {
	src := "def square(x:int)->int:\n    return x ** 2\n" +
		"def cube_const()->int:\n    return 2 ** 3\n" +
		"def pow_var(base:int, exp:int)->int:\n    return base ** exp\n"
	inst := compileAndLoad(t, "power.py", src)
	defer inst.Close()

	sq, err := inst.CallI32("square", 5)
	require.NoError(t, err)
	require.Equal(t, int32(25), sq)

	cube, err := inst.CallI32("cube_const")
	require.NoError(t, err)
	require.Equal(t, int32(8), cube)

	r, err := inst.CallI32("pow_var", 3, 4)
	require.NoError(t, err)
	require.Equal(t, int32(81), r)

	r0, err := inst.CallI32("pow_var", 7, 0)
	require.NoError(t, err)
	require.Equal(t, int32(1), r0)
}

func TestScenarioModuloByZeroRaises(t *testing.T) {
	src := "def safe_mod(a:int,b:int)->int:\n" +
		"    try:\n" +
		"        return a % b\n" +
		"    except ZeroDivisionError:\n" +
		"        return -1\n"
	inst := compileAndLoad(t, "safe_mod.py", src)
	defer inst.Close()

	r1, err := inst.CallI32("safe_mod", 10, 3)
	require.NoError(t, err)
	require.Equal(t, int32(1), r1)

	r2, err := inst.CallI32("safe_mod", 10, 0)
	require.NoError(t, err)
	require.Equal(t, int32(-1), r2)
}
