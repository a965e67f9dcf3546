package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultConfigPath is the path MustLoadDefaultConfig searches for a
// tuning defaults file. No such file ships with the repository; the
// built-in defaults are those of DefaultTuningConfig and the Get*
// accessors.
const DefaultConfigPath = "config/slam.defaults.json"

// TuningConfig represents the root configuration for SLAM tuning
// parameters, mirroring the Parameters table of the pipeline: every
// field is a pointer so a partial JSON document only overrides what it
// sets, and the matching Get<Field> accessor supplies the documented
// default when the pointer is nil.
type TuningConfig struct {
	// General
	LeafSize                  *float64 `json:"leaf_size,omitempty"`
	AngleResolutionDeg        *float64 `json:"angle_resolution_deg,omitempty"`
	MaxDistBetweenTwoFrames   *float64 `json:"max_dist_between_two_frames,omitempty"`
	MaxDistanceForICPMatching *float64 `json:"max_distance_for_icp_matching,omitempty"`
	FastSlam                  *bool    `json:"fast_slam,omitempty"`
	Undistortion              *bool    `json:"undistortion,omitempty"`
	DisplayMode               *bool    `json:"display_mode,omitempty"`

	// Rolling grid cell structure (spec 4.3's V, Gx, Gy, Gz; not part of
	// the distilled Parameters table but required to construct a grid).
	GridVoxelSize *float64 `json:"grid_voxel_size,omitempty"`
	GridDimX      *int     `json:"grid_dim_x,omitempty"`
	GridDimY      *int     `json:"grid_dim_y,omitempty"`
	GridDimZ      *int     `json:"grid_dim_z,omitempty"`

	// Keypoints
	NeighborWidth          *int     `json:"neighbor_width,omitempty"`
	MaxEdgePerScanLine     *int     `json:"max_edge_per_scan_line,omitempty"`
	MaxPlanarsPerScanLine  *int     `json:"max_planars_per_scan_line,omitempty"`
	MinDistanceToSensor    *float64 `json:"min_distance_to_sensor,omitempty"`
	EdgeSinAngleThreshold  *float64 `json:"edge_sin_angle_threshold,omitempty"`
	PlaneSinAngleThreshold *float64 `json:"plane_sin_angle_threshold,omitempty"`
	EdgeDepthGapThreshold  *float64 `json:"edge_depth_gap_threshold,omitempty"`
	UseBlob                *bool    `json:"use_blob,omitempty"`
	SphericityThreshold    *float64 `json:"sphericity_threshold,omitempty"`
	IncertitudeCoef        *float64 `json:"incertitude_coef,omitempty"`

	// Ego-motion
	EgoMotionLMMaxIter                    *int     `json:"ego_motion_lm_max_iter,omitempty"`
	EgoMotionICPMaxIter                    *int     `json:"ego_motion_icp_max_iter,omitempty"`
	EgoMotionLineDistanceNbrNeighbors      *int     `json:"ego_motion_line_distance_nbr_neighbors,omitempty"`
	EgoMotionMinimumLineNeighborRejection  *int     `json:"ego_motion_minimum_line_neighbor_rejection,omitempty"`
	EgoMotionLineDistancefactor            *float64 `json:"ego_motion_line_distancefactor,omitempty"`
	EgoMotionPlaneDistanceNbrNeighbors     *int     `json:"ego_motion_plane_distance_nbr_neighbors,omitempty"`
	EgoMotionPlaneDistancefactor1          *float64 `json:"ego_motion_plane_distancefactor1,omitempty"`
	EgoMotionPlaneDistancefactor2          *float64 `json:"ego_motion_plane_distancefactor2,omitempty"`
	EgoMotionMaxLineDistance               *float64 `json:"ego_motion_max_line_distance,omitempty"`
	EgoMotionMaxPlaneDistance              *float64 `json:"ego_motion_max_plane_distance,omitempty"`
	EgoMotionMaxResidualNorm                *float64 `json:"ego_motion_max_residual_norm,omitempty"`

	// Mapping (same shape as ego-motion)
	MappingLMMaxIter                   *int     `json:"mapping_lm_max_iter,omitempty"`
	MappingICPMaxIter                  *int     `json:"mapping_icp_max_iter,omitempty"`
	MappingLineDistanceNbrNeighbors     *int     `json:"mapping_line_distance_nbr_neighbors,omitempty"`
	MappingMinimumLineNeighborRejection *int     `json:"mapping_minimum_line_neighbor_rejection,omitempty"`
	MappingLineDistancefactor           *float64 `json:"mapping_line_distancefactor,omitempty"`
	MappingPlaneDistanceNbrNeighbors    *int     `json:"mapping_plane_distance_nbr_neighbors,omitempty"`
	MappingPlaneDistancefactor1         *float64 `json:"mapping_plane_distancefactor1,omitempty"`
	MappingPlaneDistancefactor2         *float64 `json:"mapping_plane_distancefactor2,omitempty"`
	MappingMaxLineDistance              *float64 `json:"mapping_max_line_distance,omitempty"`
	MappingMaxPlaneDistance             *float64 `json:"mapping_max_plane_distance,omitempty"`
	MappingLineMaxDistInlier            *float64 `json:"mapping_line_max_dist_inlier,omitempty"`
	MappingMaxResidualNorm               *float64 `json:"mapping_max_residual_norm,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyTuningConfig returns a TuningConfig with all fields set to nil;
// its Get* accessors then return the built-in defaults.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// DefaultTuningConfig returns a TuningConfig with every field populated
// from the Parameters table defaults.
func DefaultTuningConfig() *TuningConfig {
	return &TuningConfig{
		LeafSize:                  ptrFloat64(0.6),
		AngleResolutionDeg:        ptrFloat64(0.4),
		MaxDistBetweenTwoFrames:   ptrFloat64(2.5),
		MaxDistanceForICPMatching: ptrFloat64(20.0),
		FastSlam:                  ptrBool(true),
		Undistortion:              ptrBool(false),
		DisplayMode:               ptrBool(false),

		GridVoxelSize: ptrFloat64(10.0),
		GridDimX:      ptrInt(21),
		GridDimY:      ptrInt(21),
		GridDimZ:      ptrInt(11),

		NeighborWidth:          ptrInt(4),
		MaxEdgePerScanLine:     ptrInt(200),
		MaxPlanarsPerScanLine:  ptrInt(200),
		MinDistanceToSensor:    ptrFloat64(3.0),
		EdgeSinAngleThreshold:  ptrFloat64(0.86),
		PlaneSinAngleThreshold: ptrFloat64(0.5),
		EdgeDepthGapThreshold:  ptrFloat64(0.15),
		UseBlob:                ptrBool(false),
		SphericityThreshold:    ptrFloat64(0.35),
		IncertitudeCoef:        ptrFloat64(3.0),

		EgoMotionLMMaxIter:                    ptrInt(15),
		EgoMotionICPMaxIter:                   ptrInt(4),
		EgoMotionLineDistanceNbrNeighbors:      ptrInt(10),
		EgoMotionMinimumLineNeighborRejection:  ptrInt(4),
		EgoMotionLineDistancefactor:            ptrFloat64(5.0),
		EgoMotionPlaneDistanceNbrNeighbors:     ptrInt(5),
		EgoMotionPlaneDistancefactor1:          ptrFloat64(35),
		EgoMotionPlaneDistancefactor2:          ptrFloat64(8),
		EgoMotionMaxLineDistance:               ptrFloat64(0.10),
		EgoMotionMaxPlaneDistance:              ptrFloat64(0.20),
		EgoMotionMaxResidualNorm:               ptrFloat64(0.30),

		MappingLMMaxIter:                    ptrInt(15),
		MappingICPMaxIter:                   ptrInt(3),
		MappingLineDistanceNbrNeighbors:      ptrInt(15),
		MappingMinimumLineNeighborRejection:  ptrInt(5),
		MappingLineDistancefactor:            ptrFloat64(5.0),
		MappingPlaneDistanceNbrNeighbors:     ptrInt(5),
		MappingPlaneDistancefactor1:          ptrFloat64(35),
		MappingPlaneDistancefactor2:          ptrFloat64(8),
		MappingMaxLineDistance:               ptrFloat64(0.2),
		MappingMaxPlaneDistance:              ptrFloat64(0.2),
		MappingLineMaxDistInlier:             ptrFloat64(0.2),
		MappingMaxResidualNorm:               ptrFloat64(0.30),
	}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the max file size.
// Fields omitted from the JSON file retain their default values, so
// partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	// Validate the config file path.
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse JSON into empty config. The Get* methods provide fallback
	// defaults for any fields not specified in the JSON.
	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical tuning defaults from DefaultConfigPath.
// It searches for the file in the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,
		"../../../" + DefaultConfigPath,
		"../../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	if c.LeafSize != nil && *c.LeafSize <= 0 {
		return fmt.Errorf("leaf_size must be positive, got %f", *c.LeafSize)
	}
	if c.MaxDistBetweenTwoFrames != nil && *c.MaxDistBetweenTwoFrames <= 0 {
		return fmt.Errorf("max_dist_between_two_frames must be positive, got %f", *c.MaxDistBetweenTwoFrames)
	}
	if c.NeighborWidth != nil && *c.NeighborWidth < 1 {
		return fmt.Errorf("neighbor_width must be at least 1, got %d", *c.NeighborWidth)
	}
	if c.MaxEdgePerScanLine != nil && *c.MaxEdgePerScanLine < 0 {
		return fmt.Errorf("max_edge_per_scan_line must be non-negative, got %d", *c.MaxEdgePerScanLine)
	}
	if c.MaxPlanarsPerScanLine != nil && *c.MaxPlanarsPerScanLine < 0 {
		return fmt.Errorf("max_planars_per_scan_line must be non-negative, got %d", *c.MaxPlanarsPerScanLine)
	}
	if c.MinDistanceToSensor != nil && *c.MinDistanceToSensor < 0 {
		return fmt.Errorf("min_distance_to_sensor must be non-negative, got %f", *c.MinDistanceToSensor)
	}
	if c.SphericityThreshold != nil && (*c.SphericityThreshold < 0 || *c.SphericityThreshold > 1) {
		return fmt.Errorf("sphericity_threshold must be between 0 and 1, got %f", *c.SphericityThreshold)
	}
	if c.GridVoxelSize != nil && *c.GridVoxelSize <= 0 {
		return fmt.Errorf("grid_voxel_size must be positive, got %f", *c.GridVoxelSize)
	}
	if c.GridDimX != nil && *c.GridDimX <= 0 {
		return fmt.Errorf("grid_dim_x must be positive, got %d", *c.GridDimX)
	}
	if c.GridDimY != nil && *c.GridDimY <= 0 {
		return fmt.Errorf("grid_dim_y must be positive, got %d", *c.GridDimY)
	}
	if c.GridDimZ != nil && *c.GridDimZ <= 0 {
		return fmt.Errorf("grid_dim_z must be positive, got %d", *c.GridDimZ)
	}
	if c.EgoMotionMaxResidualNorm != nil && *c.EgoMotionMaxResidualNorm <= 0 {
		return fmt.Errorf("ego_motion_max_residual_norm must be positive, got %f", *c.EgoMotionMaxResidualNorm)
	}
	if c.MappingMaxResidualNorm != nil && *c.MappingMaxResidualNorm <= 0 {
		return fmt.Errorf("mapping_max_residual_norm must be positive, got %f", *c.MappingMaxResidualNorm)
	}
	return nil
}

func (c *TuningConfig) GetLeafSize() float64 {
	if c.LeafSize == nil {
		return 0.6
	}
	return *c.LeafSize
}

func (c *TuningConfig) GetAngleResolutionDeg() float64 {
	if c.AngleResolutionDeg == nil {
		return 0.4
	}
	return *c.AngleResolutionDeg
}

func (c *TuningConfig) GetMaxDistBetweenTwoFrames() float64 {
	if c.MaxDistBetweenTwoFrames == nil {
		return 2.5 // (90km/h)*(100ms)
	}
	return *c.MaxDistBetweenTwoFrames
}

func (c *TuningConfig) GetMaxDistanceForICPMatching() float64 {
	if c.MaxDistanceForICPMatching == nil {
		return 20.0
	}
	return *c.MaxDistanceForICPMatching
}

func (c *TuningConfig) GetFastSlam() bool {
	if c.FastSlam == nil {
		return true
	}
	return *c.FastSlam
}

func (c *TuningConfig) GetUndistortion() bool {
	if c.Undistortion == nil {
		return false
	}
	return *c.Undistortion
}

func (c *TuningConfig) GetDisplayMode() bool {
	if c.DisplayMode == nil {
		return false
	}
	return *c.DisplayMode
}

func (c *TuningConfig) GetGridVoxelSize() float64 {
	if c.GridVoxelSize == nil {
		return 10.0
	}
	return *c.GridVoxelSize
}

func (c *TuningConfig) GetGridDimX() int {
	if c.GridDimX == nil {
		return 21
	}
	return *c.GridDimX
}

func (c *TuningConfig) GetGridDimY() int {
	if c.GridDimY == nil {
		return 21
	}
	return *c.GridDimY
}

func (c *TuningConfig) GetGridDimZ() int {
	if c.GridDimZ == nil {
		return 11
	}
	return *c.GridDimZ
}

func (c *TuningConfig) GetNeighborWidth() int {
	if c.NeighborWidth == nil {
		return 4
	}
	return *c.NeighborWidth
}

func (c *TuningConfig) GetMaxEdgePerScanLine() int {
	if c.MaxEdgePerScanLine == nil {
		return 200
	}
	return *c.MaxEdgePerScanLine
}

func (c *TuningConfig) GetMaxPlanarsPerScanLine() int {
	if c.MaxPlanarsPerScanLine == nil {
		return 200
	}
	return *c.MaxPlanarsPerScanLine
}

func (c *TuningConfig) GetMinDistanceToSensor() float64 {
	if c.MinDistanceToSensor == nil {
		return 3.0
	}
	return *c.MinDistanceToSensor
}

func (c *TuningConfig) GetEdgeSinAngleThreshold() float64 {
	if c.EdgeSinAngleThreshold == nil {
		return 0.86
	}
	return *c.EdgeSinAngleThreshold
}

func (c *TuningConfig) GetPlaneSinAngleThreshold() float64 {
	if c.PlaneSinAngleThreshold == nil {
		return 0.5
	}
	return *c.PlaneSinAngleThreshold
}

func (c *TuningConfig) GetEdgeDepthGapThreshold() float64 {
	if c.EdgeDepthGapThreshold == nil {
		return 0.15
	}
	return *c.EdgeDepthGapThreshold
}

func (c *TuningConfig) GetUseBlob() bool {
	if c.UseBlob == nil {
		return false
	}
	return *c.UseBlob
}

func (c *TuningConfig) GetSphericityThreshold() float64 {
	if c.SphericityThreshold == nil {
		return 0.35
	}
	return *c.SphericityThreshold
}

func (c *TuningConfig) GetIncertitudeCoef() float64 {
	if c.IncertitudeCoef == nil {
		return 3.0
	}
	return *c.IncertitudeCoef
}

func (c *TuningConfig) GetEgoMotionLMMaxIter() int {
	if c.EgoMotionLMMaxIter == nil {
		return 15
	}
	return *c.EgoMotionLMMaxIter
}

func (c *TuningConfig) GetEgoMotionICPMaxIter() int {
	if c.EgoMotionICPMaxIter == nil {
		return 4
	}
	return *c.EgoMotionICPMaxIter
}

func (c *TuningConfig) GetEgoMotionLineDistanceNbrNeighbors() int {
	if c.EgoMotionLineDistanceNbrNeighbors == nil {
		return 10
	}
	return *c.EgoMotionLineDistanceNbrNeighbors
}

func (c *TuningConfig) GetEgoMotionMinimumLineNeighborRejection() int {
	if c.EgoMotionMinimumLineNeighborRejection == nil {
		return 4
	}
	return *c.EgoMotionMinimumLineNeighborRejection
}

func (c *TuningConfig) GetEgoMotionLineDistancefactor() float64 {
	if c.EgoMotionLineDistancefactor == nil {
		return 5.0
	}
	return *c.EgoMotionLineDistancefactor
}

func (c *TuningConfig) GetEgoMotionPlaneDistanceNbrNeighbors() int {
	if c.EgoMotionPlaneDistanceNbrNeighbors == nil {
		return 5
	}
	return *c.EgoMotionPlaneDistanceNbrNeighbors
}

func (c *TuningConfig) GetEgoMotionPlaneDistancefactor1() float64 {
	if c.EgoMotionPlaneDistancefactor1 == nil {
		return 35
	}
	return *c.EgoMotionPlaneDistancefactor1
}

func (c *TuningConfig) GetEgoMotionPlaneDistancefactor2() float64 {
	if c.EgoMotionPlaneDistancefactor2 == nil {
		return 8
	}
	return *c.EgoMotionPlaneDistancefactor2
}

func (c *TuningConfig) GetEgoMotionMaxLineDistance() float64 {
	if c.EgoMotionMaxLineDistance == nil {
		return 0.10
	}
	return *c.EgoMotionMaxLineDistance
}

func (c *TuningConfig) GetEgoMotionMaxPlaneDistance() float64 {
	if c.EgoMotionMaxPlaneDistance == nil {
		return 0.20
	}
	return *c.EgoMotionMaxPlaneDistance
}

func (c *TuningConfig) GetEgoMotionMaxResidualNorm() float64 {
	if c.EgoMotionMaxResidualNorm == nil {
		return 0.30
	}
	return *c.EgoMotionMaxResidualNorm
}

func (c *TuningConfig) GetMappingLMMaxIter() int {
	if c.MappingLMMaxIter == nil {
		return 15
	}
	return *c.MappingLMMaxIter
}

func (c *TuningConfig) GetMappingICPMaxIter() int {
	if c.MappingICPMaxIter == nil {
		return 3
	}
	return *c.MappingICPMaxIter
}

func (c *TuningConfig) GetMappingLineDistanceNbrNeighbors() int {
	if c.MappingLineDistanceNbrNeighbors == nil {
		return 15
	}
	return *c.MappingLineDistanceNbrNeighbors
}

func (c *TuningConfig) GetMappingMinimumLineNeighborRejection() int {
	if c.MappingMinimumLineNeighborRejection == nil {
		return 5
	}
	return *c.MappingMinimumLineNeighborRejection
}

func (c *TuningConfig) GetMappingLineDistancefactor() float64 {
	if c.MappingLineDistancefactor == nil {
		return 5.0
	}
	return *c.MappingLineDistancefactor
}

func (c *TuningConfig) GetMappingPlaneDistanceNbrNeighbors() int {
	if c.MappingPlaneDistanceNbrNeighbors == nil {
		return 5
	}
	return *c.MappingPlaneDistanceNbrNeighbors
}

func (c *TuningConfig) GetMappingPlaneDistancefactor1() float64 {
	if c.MappingPlaneDistancefactor1 == nil {
		return 35
	}
	return *c.MappingPlaneDistancefactor1
}

func (c *TuningConfig) GetMappingPlaneDistancefactor2() float64 {
	if c.MappingPlaneDistancefactor2 == nil {
		return 8
	}
	return *c.MappingPlaneDistancefactor2
}

func (c *TuningConfig) GetMappingMaxLineDistance() float64 {
	if c.MappingMaxLineDistance == nil {
		return 0.2
	}
	return *c.MappingMaxLineDistance
}

func (c *TuningConfig) GetMappingMaxPlaneDistance() float64 {
	if c.MappingMaxPlaneDistance == nil {
		return 0.2
	}
	return *c.MappingMaxPlaneDistance
}

func (c *TuningConfig) GetMappingLineMaxDistInlier() float64 {
	if c.MappingLineMaxDistInlier == nil {
		return 0.2
	}
	return *c.MappingLineMaxDistInlier
}

func (c *TuningConfig) GetMappingMaxResidualNorm() float64 {
	if c.MappingMaxResidualNorm == nil {
		return 0.30
	}
	return *c.MappingMaxResidualNorm
}
