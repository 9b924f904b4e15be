// Package moduletest provides shared contract tests that verify any
// module.Module implementation behaves correctly. Every module's test
// file should call TestModuleContract to ensure conformance.
package moduletest

import (
	"context"
	"testing"

	"github.com/studyhallhq/studyhall/internal/store"
	"github.com/studyhallhq/studyhall/pkg/module"
	"go.uber.org/zap"
)

// TestModuleContract runs a suite of behavioral contract tests against
// any module.Module implementation. Call this from each module's _test.go:
//
//	func TestContract(t *testing.T) {
//	    moduletest.TestModuleContract(t, func() module.Module { return roster.New() })
//	}
func TestModuleContract(t *testing.T, factory func() module.Module) {
	t.Helper()

	t.Run("Info_returns_valid_metadata", func(t *testing.T) {
		m := factory()
		info := m.Info()
		if info.Name == "" {
			t.Error("Info().Name must not be empty")
		}
		if info.Version == "" {
			t.Error("Info().Version must not be empty")
		}
		if info.APIVersion < module.APIVersionMin {
			t.Errorf("Info().APIVersion = %d, below minimum %d", info.APIVersion, module.APIVersionMin)
		}
	})

	t.Run("Init_succeeds_with_valid_deps", func(t *testing.T) {
		m := factory()
		deps := testDeps(t, m.Info().Name)
		if err := m.Init(context.Background(), deps); err != nil {
			t.Fatalf("Init() error = %v", err)
		}
	})

	t.Run("Start_after_Init", func(t *testing.T) {
		m := factory()
		deps := testDeps(t, m.Info().Name)
		m.Init(context.Background(), deps)
		if err := m.Start(context.Background()); err != nil {
			t.Fatalf("Start() error = %v", err)
		}
		// Clean up.
		m.Stop(context.Background())
	})

	t.Run("Stop_without_Start_does_not_panic", func(t *testing.T) {
		m := factory()
		deps := testDeps(t, m.Info().Name)
		m.Init(context.Background(), deps)
		if err := m.Stop(context.Background()); err != nil {
			t.Fatalf("Stop() without Start error = %v", err)
		}
	})

	t.Run("Info_is_idempotent", func(t *testing.T) {
		m := factory()
		a := m.Info()
		b := m.Info()
		if a.Name != b.Name || a.Version != b.Version {
			t.Error("Info() must return consistent results")
		}
	})
}

// testDeps builds dependencies with an in-memory store so that
// storage-backed modules can run their migrations during Init.
func testDeps(t *testing.T, name string) module.Dependencies {
	t.Helper()
	db, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	logger, _ := zap.NewDevelopment()
	return module.Dependencies{
		Logger: logger.Named(name),
		Store:  db,
	}
}
