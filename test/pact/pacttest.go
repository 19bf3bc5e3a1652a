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
	ProviderName = "school-activities-api"
	ConsumerName = "lesson-shop"

	StateLessonsBaseline = "no lessons exist"
	StateLessonsSeeded   = "lesson 1 exists with inventory"
)

const (
	ExistingLessonID = 1
	SearchTerm       = "art"
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

// PactFile returns the canonical pact file path for the lesson shop consumer.
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

// ExampleLesson provides stable lesson data for pact interactions.
func ExampleLesson() map[string]any {
	return map[string]any{
		"id":                 ExistingLessonID,
		"title":              "Art Club",
		"description":        "Painting and drawing",
		"subject":            "Art",
		"location":           "Hendon",
		"price":              100,
		"AvailableInventory": 5,
	}
}

// ExampleOrder provides a complete order for one unit of the example lesson.
func ExampleOrder() map[string]any {
	return map[string]any{
		"firstName": "Pact",
		"lastName":  "Parent",
		"address":   "1 Contract Road",
		"city":      "London",
		"state":     "LDN",
		"zip":       "NW4 4BT",
		"phone":     "07123456789",
		"method":    "card",
		"cart":      []any{map[string]any{"id": ExistingLessonID}},
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
