package logger

import "testing"

func TestBuild(t *testing.T) {
	for _, env := range []string{"production", "test", "development", ""} {
		t.Run(env, func(t *testing.T) {
			l, err := build(env)
			if err != nil {
				t.Fatalf("build(%q): %v", env, err)
			}
			if l == nil {
				t.Fatal("expected a logger")
			}
		})
	}
}

func TestInitOnlyOnce(t *testing.T) {
	Init("test")
	first := Get()
	Init("production")

	if Get() != first {
		t.Error("expected later Init calls to keep the first logger")
	}
	if Named("audit") == nil {
		t.Error("expected a named child logger")
	}
}
