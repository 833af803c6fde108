// Package testutils provides utilities for testing code built on avium.
package testutils

import (
	"io"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/zephyrtronium/avium"
)

// testVM is the VM used for all tests.
var testVM *avium.VM

// testHook records the test VM's log entries.
var testHook *test.Hook

var testVMInit sync.Once

// TestingVM returns a VM for testing. The VM is shared by all tests that use
// this package. Its log output is discarded, but entries are recorded by
// LogHook.
func TestingVM() *avium.VM {
	testVMInit.Do(ResetTestingVM)
	return testVM
}

// ResetTestingVM reinitializes the VM returned by TestingVM. It is not safe to
// call this in parallel tests.
func ResetTestingVM() {
	cfg := avium.DefaultConfig()
	cfg.Log.Level = "debug"
	vm, err := avium.NewVM(cfg)
	if err != nil {
		panic(err)
	}
	vm.Log.SetOutput(io.Discard)
	testHook = test.NewLocal(vm.Log)
	testVM = vm
}

// LogHook returns the hook recording the test VM's log entries.
func LogHook() *test.Hook {
	TestingVM()
	return testHook
}

// LastError returns the most recent error-level entry logged by the test VM,
// or nil.
func LastError() *logrus.Entry {
	entries := LogHook().AllEntries()
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].Level == logrus.ErrorLevel {
			return entries[i]
		}
	}
	return nil
}

// Fatal runs f and returns the *avium.FatalError it panics with, or nil if it
// returns normally. Other panics propagate.
func Fatal(f func()) (err *avium.FatalError) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		fe, ok := r.(*avium.FatalError)
		if !ok {
			panic(r)
		}
		err = fe
	}()
	f()
	return nil
}

// CheckFatal is a testing helper to check that f is fatal with the given kind.
func CheckFatal(t *testing.T, kind avium.FatalKind, f func()) {
	t.Helper()
	err := Fatal(f)
	if err == nil {
		t.Fatalf("no fatal error, want %v", kind)
	}
	if err.Kind != kind {
		t.Errorf("wrong fatal error: have %v, want %v", err, kind)
	}
}

// CheckSlots is a testing helper to check that each of the named slots
// resolves on typ and is provided by the type named in the map.
func CheckSlots(t *testing.T, typ *avium.Type, owners map[avium.Slot]string) {
	t.Helper()
	for slot, owner := range owners {
		slot, owner := slot, owner
		t.Run("Have_"+slot.String(), func(t *testing.T) {
			_, o, err := typ.Resolve(slot)
			if err != nil {
				t.Fatal(err)
			}
			if o.Name() != owner {
				t.Errorf("%v provided by wrong type: have %s, want %s", slot, o.Name(), owner)
			}
		})
	}
}

// BenchDummy is a dummy variable to prevent dead code elimination in
// benchmarks.
var BenchDummy interface{}
