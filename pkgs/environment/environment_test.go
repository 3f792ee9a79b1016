package environment

import (
	"sort"
	"testing"
)

func TestPutAndGetInnermostScope(t *testing.T) {
	t.Parallel()
	env := New()
	env = env.Put("x", 1)

	v, ok := env.Get("x")
	if !ok || v.(int) != 1 {
		t.Fatalf("Get(x) = %v, %v, want 1, true", v, ok)
	}
}

func TestPutDoesNotMutateParentEnvironment(t *testing.T) {
	t.Parallel()
	base := New().Put("x", 1)
	child := base.Put("x", 2)

	v, _ := base.Get("x")
	if v.(int) != 1 {
		t.Fatalf("base.Get(x) = %v, want 1 (Put must not mutate the receiver)", v)
	}
	v, _ = child.Get("x")
	if v.(int) != 2 {
		t.Fatalf("child.Get(x) = %v, want 2", v)
	}
}

func TestPushScopeShadowsOuterBinding(t *testing.T) {
	t.Parallel()
	env := New().Put("x", 1)
	env = env.PushScope().Put("x", 2)

	v, _ := env.Get("x")
	if v.(int) != 2 {
		t.Fatalf("Get(x) in inner scope = %v, want 2", v)
	}

	env = env.DropTopScope()
	v, _ = env.Get("x")
	if v.(int) != 1 {
		t.Fatalf("Get(x) after DropTopScope = %v, want 1", v)
	}
}

func TestGetFallsThroughToOuterScope(t *testing.T) {
	t.Parallel()
	env := New().Put("x", 1)
	env = env.PushScope()

	v, ok := env.Get("x")
	if !ok || v.(int) != 1 {
		t.Fatalf("Get(x) from inner unshadowed scope = %v, %v, want 1, true", v, ok)
	}
}

func TestDeclareGlobalRedirectsPut(t *testing.T) {
	t.Parallel()
	env := New().Put("x", 1)
	env = env.PushScope().DeclareGlobal("x")
	env = env.SmartPut("x", 2)

	v, _ := env.Get("x")
	if v.(int) != 2 {
		t.Fatalf("Get(x) after global write = %v, want 2", v)
	}

	env = env.DropTopScope()
	v, _ = env.Get("x")
	if v.(int) != 2 {
		t.Fatalf("module scope x = %v, want 2 (global write must land there)", v)
	}
}

func TestDeclareNonlocalRedirectsToEnclosingScope(t *testing.T) {
	t.Parallel()
	env := New().PushScope().Put("x", 1) // enclosing function scope
	env = env.PushScope().DeclareNonlocal("x")
	env = env.SmartPut("x", 2)

	env = env.DropTopScope()
	v, _ := env.Get("x")
	if v.(int) != 2 {
		t.Fatalf("enclosing scope x = %v, want 2", v)
	}
}

func TestDropTopScopePanicsOnModuleScope(t *testing.T) {
	t.Parallel()
	defer func() {
		if recover() == nil {
			t.Fatalf("DropTopScope on the module scope did not panic")
		}
	}()
	New().DropTopScope()
}

func TestSnapshotFlattensVisibleBindings(t *testing.T) {
	t.Parallel()
	env := New().Put("a", 1)
	env = env.PushScope().Put("b", 2)

	snap := env.Snapshot()
	if snap["a"].(int) != 1 || snap["b"].(int) != 2 {
		t.Fatalf("Snapshot() = %v, want a=1 b=2", snap)
	}
}

func TestMergeClosureScopesBuildsThreeFrames(t *testing.T) {
	t.Parallel()
	global := New().Put("g", 1)
	captured := map[string]interface{}{"c": 2}
	frame := map[string]interface{}{"f": 3}

	env := MergeClosureScopes(global, captured, frame)
	if env.Depth() != 3 {
		t.Fatalf("Depth() = %d, want 3", env.Depth())
	}
	for name, want := range map[string]int{"g": 1, "c": 2, "f": 3} {
		v, ok := env.Get(name)
		if !ok || v.(int) != want {
			t.Errorf("Get(%s) = %v, %v, want %d, true", name, v, ok, want)
		}
	}
}

func TestMergeClosureScopesIsIsolatedFromLiveGlobalMutation(t *testing.T) {
	t.Parallel()
	global := New().Put("g", 1)
	env := MergeClosureScopes(global, nil, nil)

	global = global.Put("g", 99)
	v, _ := env.Get("g")
	if v.(int) != 1 {
		t.Fatalf("closure env g = %v, want 1 (must snapshot global at merge time)", v)
	}
}

func TestNamesListsEveryVisibleBindingOnce(t *testing.T) {
	t.Parallel()
	env := New().Put("a", 1).Put("b", 2)
	env = env.PushScope().Put("a", 3)

	names := env.Names()
	sort.Strings(names)
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Fatalf("Names() = %v, want [a b]", names)
	}
}

func TestGlobalBindingsAndWithGlobalBindingsRoundTrip(t *testing.T) {
	t.Parallel()
	env := New().Put("a", 1).Put("b", 2)

	bindings := env.GlobalBindings()
	if len(bindings) != 2 {
		t.Fatalf("GlobalBindings() = %v, want 2 entries", bindings)
	}

	replaced := env.WithGlobalBindings(map[string]interface{}{"c": 3})
	if _, ok := replaced.Get("a"); ok {
		t.Fatalf("WithGlobalBindings must replace, not merge, the module scope")
	}
	v, ok := replaced.Get("c")
	if !ok || v.(int) != 3 {
		t.Fatalf("Get(c) = %v, %v, want 3, true", v, ok)
	}
}

func TestPutAtSourceWritesExistingBindingInPlace(t *testing.T) {
	t.Parallel()
	env := New().Put("x", 1)
	env = env.PushScope()
	env = env.PutAtSource("x", 2)

	env = env.DropTopScope()
	v, _ := env.Get("x")
	if v.(int) != 2 {
		t.Fatalf("module scope x = %v, want 2 (PutAtSource must write the existing binding)", v)
	}
}
