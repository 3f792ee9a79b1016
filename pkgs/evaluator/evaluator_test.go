package evaluator_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ivarvong/pyex-sub003/pkgs/api"
	"github.com/ivarvong/pyex-sub003/pkgs/pycontext"
)

func runSource(t *testing.T, src string) (string, *api.Result) {
	t.Helper()
	prog, err := api.Compile(src)
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}
	result := api.Run(prog, api.RunOptions{Capabilities: pycontext.CapabilityConfig{RandomSeed: 1}})
	return api.ExtractOutput(result.Events), &result
}

func TestArithmeticAndPrint(t *testing.T) {
	t.Parallel()
	out, res := runSource(t, "print(1 + 2 * 3)\n")
	assert.NoError(t, res.Err)
	assert.Equal(t, "7\n", out)
}

func TestStringFormatting(t *testing.T) {
	t.Parallel()
	out, res := runSource(t, "name = 'world'\nprint(f'hello {name}')\n")
	assert.NoError(t, res.Err)
	assert.Equal(t, "hello world\n", out)
}

func TestIfElifElse(t *testing.T) {
	t.Parallel()
	src := `
x = 2
if x == 1:
    print("one")
elif x == 2:
    print("two")
else:
    print("other")
`
	out, res := runSource(t, src)
	assert.NoError(t, res.Err)
	assert.Equal(t, "two\n", out)
}

func TestWhileLoopWithBreakAndContinue(t *testing.T) {
	t.Parallel()
	src := `
i = 0
while True:
    i += 1
    if i % 2 == 0:
        continue
    if i > 5:
        break
    print(i)
`
	out, res := runSource(t, src)
	assert.NoError(t, res.Err)
	assert.Equal(t, "1\n3\n5\n", out)
}

func TestForLoopOverRange(t *testing.T) {
	t.Parallel()
	out, res := runSource(t, "for i in range(3):\n    print(i)\n")
	assert.NoError(t, res.Err)
	assert.Equal(t, "0\n1\n2\n", out)
}

func TestFunctionDefAndRecursion(t *testing.T) {
	t.Parallel()
	src := `
def fact(n):
    if n <= 1:
        return 1
    return n * fact(n - 1)

print(fact(5))
`
	out, res := runSource(t, src)
	assert.NoError(t, res.Err)
	assert.Equal(t, "120\n", out)
}

func TestClosureCapturesDefiningEnvironment(t *testing.T) {
	t.Parallel()
	src := `
def make_adder(n):
    def add(x):
        return x + n
    return add

add5 = make_adder(5)
print(add5(10))
`
	out, res := runSource(t, src)
	assert.NoError(t, res.Err)
	assert.Equal(t, "15\n", out)
}

func TestClassAndInheritance(t *testing.T) {
	t.Parallel()
	src := `
class Animal:
    def __init__(self, name):
        self.name = name
    def speak(self):
        return "..."

class Dog(Animal):
    def speak(self):
        return self.name + " says woof"

d = Dog("Rex")
print(d.speak())
`
	out, res := runSource(t, src)
	assert.NoError(t, res.Err)
	assert.Equal(t, "Rex says woof\n", out)
}

func TestExceptionRaiseAndExcept(t *testing.T) {
	t.Parallel()
	src := `
try:
    raise ValueError("bad")
except ValueError as e:
    print("caught:", e)
`
	out, res := runSource(t, src)
	assert.NoError(t, res.Err)
	assert.Equal(t, "caught: bad\n", out)
}

func TestUnhandledExceptionSurfacesAsResultErr(t *testing.T) {
	t.Parallel()
	_, res := runSource(t, "raise ValueError('boom')\n")
	if assert.Error(t, res.Err) {
		assert.Contains(t, res.Err.Error(), "ValueError")
	}
}

func TestFinallyRunsOnException(t *testing.T) {
	t.Parallel()
	src := `
try:
    raise ValueError("x")
except ValueError:
    pass
finally:
    print("cleanup")
`
	out, res := runSource(t, src)
	assert.NoError(t, res.Err)
	assert.Equal(t, "cleanup\n", out)
}

func TestUserSubclassOfBuiltinExceptionInheritsArgsHandling(t *testing.T) {
	t.Parallel()
	src := `
class ConfigError(ValueError):
    pass

try:
    raise ConfigError("missing key")
except Exception as e:
    print("caught:", e)
`
	out, res := runSource(t, src)
	assert.NoError(t, res.Err)
	assert.Equal(t, "caught: missing key\n", out)
}

func TestExceptExceptionCatchesAnyBuiltinError(t *testing.T) {
	t.Parallel()
	src := `
try:
    raise KeyError("missing")
except Exception as e:
    print("caught:", e)
`
	out, res := runSource(t, src)
	assert.NoError(t, res.Err)
	assert.Equal(t, "caught: missing\n", out)
}

func TestListComprehensionWithFilter(t *testing.T) {
	t.Parallel()
	out, res := runSource(t, "print([x * x for x in range(10) if x % 2 == 0])\n")
	assert.NoError(t, res.Err)
	assert.Equal(t, "[0, 4, 16, 36, 64]\n", out)
}

func TestDictAndSetLiterals(t *testing.T) {
	t.Parallel()
	out, res := runSource(t, "d = {'a': 1, 'b': 2}\nprint(d['a'] + d['b'])\n")
	assert.NoError(t, res.Err)
	assert.Equal(t, "3\n", out)
}

func TestCustomBoolDunderControlsTruthiness(t *testing.T) {
	t.Parallel()
	src := `
class Empty:
    def __bool__(self):
        return False

if Empty():
    print("truthy")
else:
    print("falsy")
`
	out, res := runSource(t, src)
	assert.NoError(t, res.Err)
	assert.Equal(t, "falsy\n", out)
}

func TestCustomLenDunderFallsBackForBool(t *testing.T) {
	t.Parallel()
	src := `
class Box:
    def __init__(self, items):
        self.items = items
    def __len__(self):
        return len(self.items)

b = Box([])
print(bool(b))
b2 = Box([1])
print(bool(b2))
`
	out, res := runSource(t, src)
	assert.NoError(t, res.Err)
	assert.Equal(t, "False\nTrue\n", out)
}

func TestCustomIterProtocolDrivesForLoop(t *testing.T) {
	t.Parallel()
	src := `
class Counter:
    def __init__(self, n):
        self.n = n
        self.i = 0
    def __iter__(self):
        return self
    def __next__(self):
        if self.i >= self.n:
            raise StopIteration
        self.i += 1
        return self.i

for v in Counter(3):
    print(v)
`
	out, res := runSource(t, src)
	assert.NoError(t, res.Err)
	assert.Equal(t, "1\n2\n3\n", out)
}

func TestGeneratorFunctionYieldsValuesInOrder(t *testing.T) {
	t.Parallel()
	src := `
def countdown(n):
    while n > 0:
        yield n
        n -= 1

for v in countdown(3):
    print(v)
`
	out, res := runSource(t, src)
	assert.NoError(t, res.Err)
	assert.Equal(t, "3\n2\n1\n", out)
}

func TestSuspendStopsExecutionAndMarksResult(t *testing.T) {
	t.Parallel()
	out, res := runSource(t, "print('before')\nsuspend()\nprint('after')\n")
	assert.True(t, res.Suspended)
	assert.Equal(t, "before\n", out, "statements after suspend() must not execute")
}

func TestMatchStatementDestructures(t *testing.T) {
	t.Parallel()
	src := `
def describe(point):
    match point:
        case (0, 0):
            return "origin"
        case (x, 0):
            return "on x-axis"
        case (x, y):
            return "elsewhere"

print(describe((0, 0)))
print(describe((5, 0)))
print(describe((1, 2)))
`
	out, res := runSource(t, src)
	assert.NoError(t, res.Err)
	assert.Equal(t, "origin\non x-axis\nelsewhere\n", out)
}

func TestComputeBudgetExceededStopsInfiniteLoop(t *testing.T) {
	t.Parallel()
	prog, err := api.Compile("while True:\n    pass\n")
	assert.NoError(t, err)

	result := api.Run(prog, api.RunOptions{MaxSteps: 100})
	if assert.Error(t, result.Err) {
		assert.Contains(t, strings.ToLower(result.Err.Error()), "budget")
	}
}

func TestRecursionLimitRaisesRecursionError(t *testing.T) {
	t.Parallel()
	prog, err := api.Compile("def f():\n    return f()\nf()\n")
	assert.NoError(t, err)

	result := api.Run(prog, api.RunOptions{MaxCallDepth: 10})
	if assert.Error(t, result.Err) {
		assert.Contains(t, result.Err.Error(), "RecursionError")
	}
}

func TestListSortWithKeyFunction(t *testing.T) {
	t.Parallel()
	src := `
words = ["ccc", "a", "bb"]
words.sort(key=len)
print(words)
`
	out, res := runSource(t, src)
	assert.NoError(t, res.Err)
	assert.Equal(t, "['a', 'bb', 'ccc']\n", out)
}
