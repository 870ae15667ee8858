// Package testutil holds small helpers shared across test suites.
package testutil

import "testing"

// Given, When, and Then label the stages of a scenario test as ordered
// subtests. Later stages see state built by earlier ones, so a scenario reads
// top to bottom like the lifecycle it exercises.
func Given(t *testing.T, desc string, fn func(t *testing.T)) {
	t.Helper()
	stage(t, "Given "+desc, fn)
}

func When(t *testing.T, desc string, fn func(t *testing.T)) {
	t.Helper()
	stage(t, "When "+desc, fn)
}

func Then(t *testing.T, desc string, fn func(t *testing.T)) {
	t.Helper()
	stage(t, "Then "+desc, fn)
}

// stage runs one scenario step and stops the scenario if it fails, since
// later stages depend on its state.
func stage(t *testing.T, name string, fn func(t *testing.T)) {
	t.Helper()
	if !t.Run(name, fn) {
		t.Fatalf("scenario stage failed: %s", name)
	}
}
