package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	tempDir := t.TempDir()

	store, err := New(tempDir)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	if store.db == nil {
		t.Error("Store database is nil")
	}

	dbPath := filepath.Join(tempDir, "ovrsvm-data.db")
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
}

func TestNew_InvalidPath(t *testing.T) {
	_, err := New("/proc/nonexistent/path")
	if err == nil {
		t.Error("Expected error for invalid path, got nil")
	}
}

func TestStoreAndGetRuns(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	base := time.Now()
	records := []RunRecord{
		{Dataset: "iris", Kernel: "rbf", Cost: 1.0, Gamma: 0.25, Classes: []string{"setosa", "versicolor", "virginica"}, Accuracy: 0.96, Rows: 150, Duration: 40 * time.Millisecond, Timestamp: base},
		{Dataset: "iris", Kernel: "linear", Cost: 2.0, Classes: []string{"setosa", "versicolor", "virginica"}, Accuracy: 0.92, Rows: 150, Duration: 12 * time.Millisecond, Timestamp: base.Add(time.Second)},
		{Dataset: "wine", Kernel: "linear", Cost: 1.0, Classes: []string{"1", "2"}, Accuracy: 0.88, Rows: 90, Duration: 9 * time.Millisecond, Timestamp: base},
	}
	for _, r := range records {
		if err := store.StoreRun(r); err != nil {
			t.Fatalf("Failed to store run: %v", err)
		}
	}

	runs, err := store.GetRuns("iris")
	if err != nil {
		t.Fatalf("Failed to get runs: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("Expected 2 iris runs, got %d", len(runs))
	}
	if runs[0].Kernel != "rbf" || runs[1].Kernel != "linear" {
		t.Errorf("Runs out of order: %v", runs)
	}
	if runs[0].Accuracy != 0.96 {
		t.Errorf("Expected accuracy 0.96, got %f", runs[0].Accuracy)
	}
	if len(runs[0].Classes) != 3 {
		t.Errorf("Expected 3 classes, got %d", len(runs[0].Classes))
	}

	all, err := store.GetAllRuns()
	if err != nil {
		t.Fatalf("Failed to get all runs: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("Expected 3 total runs, got %d", len(all))
	}
}

func TestGetRuns_PrefixIsolation(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	// "iris" must not match runs stored for "iris2".
	now := time.Now()
	if err := store.StoreRun(RunRecord{Dataset: "iris2", Kernel: "linear", Timestamp: now}); err != nil {
		t.Fatalf("Failed to store run: %v", err)
	}

	runs, err := store.GetRuns("iris")
	if err != nil {
		t.Fatalf("Failed to get runs: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("Expected no runs for iris, got %d", len(runs))
	}
}

func TestStoreAndGetDatasets(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	record := DatasetRecord{
		Name:           "iris",
		Source:         "/data/iris.csv",
		Rows:           150,
		FeatureColumns: []string{"sepal_len", "sepal_wid", "petal_len", "petal_wid"},
		LabelColumn:    "species",
		Timestamp:      time.Now(),
	}
	if err := store.StoreDataset(record); err != nil {
		t.Fatalf("Failed to store dataset: %v", err)
	}

	datasets, err := store.GetDatasets()
	if err != nil {
		t.Fatalf("Failed to get datasets: %v", err)
	}
	if len(datasets) != 1 {
		t.Fatalf("Expected 1 dataset, got %d", len(datasets))
	}
	if datasets[0].Name != "iris" || datasets[0].Rows != 150 {
		t.Errorf("Unexpected dataset record: %+v", datasets[0])
	}
	if datasets[0].LabelColumn != "species" {
		t.Errorf("Expected label column species, got %s", datasets[0].LabelColumn)
	}
}

func TestStore_Close(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	if err := store.Close(); err != nil {
		t.Errorf("Error closing store: %v", err)
	}
}
