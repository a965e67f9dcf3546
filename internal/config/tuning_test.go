package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultTuningConfig(t *testing.T) {
	cfg := DefaultTuningConfig()

	if cfg.LeafSize == nil || *cfg.LeafSize != 0.6 {
		t.Errorf("Expected LeafSize 0.6, got %v", cfg.LeafSize)
	}
	if cfg.NeighborWidth == nil || *cfg.NeighborWidth != 4 {
		t.Errorf("Expected NeighborWidth 4, got %v", cfg.NeighborWidth)
	}
	if cfg.SphericityThreshold == nil || *cfg.SphericityThreshold != 0.35 {
		t.Errorf("Expected SphericityThreshold 0.35, got %v", cfg.SphericityThreshold)
	}
	if cfg.IncertitudeCoef == nil || *cfg.IncertitudeCoef != 3.0 {
		t.Errorf("Expected IncertitudeCoef 3.0, got %v", cfg.IncertitudeCoef)
	}

	// Getter methods should agree with the explicit defaults.
	empty := EmptyTuningConfig()
	if empty.GetLeafSize() != cfg.GetLeafSize() {
		t.Errorf("GetLeafSize() default mismatch: %f vs %f", empty.GetLeafSize(), cfg.GetLeafSize())
	}
	if empty.GetFastSlam() != true {
		t.Errorf("GetFastSlam() default = %v, want true", empty.GetFastSlam())
	}
	if empty.GetUndistortion() != false {
		t.Errorf("GetUndistortion() default = %v, want false", empty.GetUndistortion())
	}
	if empty.GetMaxEdgePerScanLine() != 200 {
		t.Errorf("GetMaxEdgePerScanLine() = %d, want 200", empty.GetMaxEdgePerScanLine())
	}
	if empty.GetEdgeSinAngleThreshold() != 0.86 {
		t.Errorf("GetEdgeSinAngleThreshold() = %f, want 0.86", empty.GetEdgeSinAngleThreshold())
	}
	if empty.GetGridVoxelSize() != 10.0 {
		t.Errorf("GetGridVoxelSize() = %f, want 10.0", empty.GetGridVoxelSize())
	}
	if empty.GetGridDimX() != 21 || empty.GetGridDimY() != 21 || empty.GetGridDimZ() != 11 {
		t.Errorf("GetGridDim{X,Y,Z}() = (%d,%d,%d), want (21,21,11)", empty.GetGridDimX(), empty.GetGridDimY(), empty.GetGridDimZ())
	}
}

func TestLoadTuningConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test_config.json")

	testJSON := `{
  "leaf_size": 0.3,
  "neighbor_width": 6,
  "max_edge_per_scan_line": 50,
  "use_blob": true,
  "sphericity_threshold": 0.4
}`
	if err := os.WriteFile(configPath, []byte(testJSON), 0o644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := LoadTuningConfig(configPath)
	if err != nil {
		t.Fatalf("LoadTuningConfig returned error: %v", err)
	}

	if cfg.GetLeafSize() != 0.3 {
		t.Errorf("GetLeafSize() = %f, want 0.3", cfg.GetLeafSize())
	}
	if cfg.GetNeighborWidth() != 6 {
		t.Errorf("GetNeighborWidth() = %d, want 6", cfg.GetNeighborWidth())
	}
	if cfg.GetMaxEdgePerScanLine() != 50 {
		t.Errorf("GetMaxEdgePerScanLine() = %d, want 50", cfg.GetMaxEdgePerScanLine())
	}
	if !cfg.GetUseBlob() {
		t.Errorf("GetUseBlob() = false, want true")
	}
	if cfg.GetSphericityThreshold() != 0.4 {
		t.Errorf("GetSphericityThreshold() = %f, want 0.4", cfg.GetSphericityThreshold())
	}

	// Fields absent from the JSON keep their documented defaults.
	if cfg.GetMaxPlanarsPerScanLine() != 200 {
		t.Errorf("GetMaxPlanarsPerScanLine() = %d, want 200 (default)", cfg.GetMaxPlanarsPerScanLine())
	}
}

func TestLoadTuningConfigRejectsNonJSON(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test_config.txt")
	if err := os.WriteFile(configPath, []byte("{}"), 0o644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	if _, err := LoadTuningConfig(configPath); err == nil {
		t.Error("expected error for non-.json config path, got nil")
	}
}

func TestLoadTuningConfigRejectsInvalidValues(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test_config.json")
	testJSON := `{"leaf_size": -1.0}`
	if err := os.WriteFile(configPath, []byte(testJSON), 0o644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	if _, err := LoadTuningConfig(configPath); err == nil {
		t.Error("expected validation error for negative leaf_size, got nil")
	}
}

func TestValidateSphericityThresholdRange(t *testing.T) {
	cfg := EmptyTuningConfig()
	bad := 1.5
	cfg.SphericityThreshold = &bad
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for sphericity_threshold > 1, got nil")
	}
}

func TestValidateGridDimensionsRejectsNonPositive(t *testing.T) {
	cfg := EmptyTuningConfig()
	bad := 0
	cfg.GridDimX = &bad
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for grid_dim_x <= 0, got nil")
	}
}

func TestValidateGridVoxelSizeRejectsNonPositive(t *testing.T) {
	cfg := EmptyTuningConfig()
	bad := -1.0
	cfg.GridVoxelSize = &bad
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for grid_voxel_size <= 0, got nil")
	}
}

func TestLoadTuningConfigOverridesGridParameters(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test_config.json")
	testJSON := `{"grid_voxel_size": 5.0, "grid_dim_x": 11, "grid_dim_y": 11, "grid_dim_z": 7}`
	if err := os.WriteFile(configPath, []byte(testJSON), 0o644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := LoadTuningConfig(configPath)
	if err != nil {
		t.Fatalf("LoadTuningConfig returned error: %v", err)
	}
	if cfg.GetGridVoxelSize() != 5.0 {
		t.Errorf("GetGridVoxelSize() = %f, want 5.0", cfg.GetGridVoxelSize())
	}
	if cfg.GetGridDimX() != 11 || cfg.GetGridDimY() != 11 || cfg.GetGridDimZ() != 7 {
		t.Errorf("GetGridDim{X,Y,Z}() = (%d,%d,%d), want (11,11,7)", cfg.GetGridDimX(), cfg.GetGridDimY(), cfg.GetGridDimZ())
	}
}
