//go:build pact
// +build pact

package pacttest

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

const (
	ProviderName = "orderboard-api"
	ConsumerName = "order-dashboard"

	StateOrdersBaseline = "orders baseline"
	StateOrderExists    = "order with id ORD-PACT-301 exists"
	StateOrderMissing   = "no order with id ORD-PACT-404"
	StateOrdersSeeded   = "orders exist for listing"
)

const (
	ExistingOrderID = "ORD-PACT-301"
	MissingOrderID  = "ORD-PACT-404"
)

const (
	exampleAddress   = "12 Harbor Lane, Pact Harbor"
	exampleCollector = "Pact Collector"
)

// PactDir returns the workspace-level directory for generated pact files.
func PactDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "pacts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact dir: %v", err)
	}
	return dir
}

// PactFile returns the canonical pact file path for the dashboard consumer.
func PactFile(t testing.TB) string {
	t.Helper()
	return filepath.Join(PactDir(t), ConsumerName+"-"+ProviderName+".json")
}

// LogDir returns the log output directory for pact-go.
func LogDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "bin", "pact-logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact log dir: %v", err)
	}
	return dir
}

// ExampleOrderPayload provides stable test data for order interactions.
func ExampleOrderPayload() map[string]any {
	return map[string]any{
		"id":            ExistingOrderID,
		"address":       exampleAddress,
		"status":        "pending",
		"collectorName": exampleCollector,
		"lastUpdated":   "2026-06-12T10:00:00Z",
	}
}

// ExampleCreateOrderBody is the caller-supplied create body; id and
// lastUpdated are server-assigned and absent.
func ExampleCreateOrderBody() map[string]any {
	return map[string]any{
		"address":       exampleAddress,
		"status":        "pending",
		"collectorName": exampleCollector,
	}
}

// projectRoot walks up from this file to the workspace root.
func projectRoot(t testing.TB) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot determine caller for pact paths")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(file), "..", ".."))
}
