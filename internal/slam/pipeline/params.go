package pipeline

import (
	"math"

	"github.com/banshee-data/lidar-slam/internal/config"
	"github.com/banshee-data/lidar-slam/internal/slam/egomotion"
	"github.com/banshee-data/lidar-slam/internal/slam/keypoints"
	"github.com/banshee-data/lidar-slam/internal/slam/mapping"
)

func extractorParams(cfg *config.TuningConfig) keypoints.Params {
	return keypoints.Params{
		NeighborWidth:          cfg.GetNeighborWidth(),
		AngleResolutionRad:     cfg.GetAngleResolutionDeg() * math.Pi / 180,
		EdgeSinAngleThreshold:  cfg.GetEdgeSinAngleThreshold(),
		PlaneSinAngleThreshold: cfg.GetPlaneSinAngleThreshold(),
		EdgeDepthGapThreshold:  cfg.GetEdgeDepthGapThreshold(),
		MaxEdgePerScanLine:     cfg.GetMaxEdgePerScanLine(),
		MaxPlanarsPerScanLine:  cfg.GetMaxPlanarsPerScanLine(),
		UseBlob:                cfg.GetUseBlob(),
		SphericityThreshold:    cfg.GetSphericityThreshold(),
		IncertitudeCoef:        cfg.GetIncertitudeCoef(),
	}
}

func egoMotionParams(cfg *config.TuningConfig) egomotion.Params {
	return egomotion.Params{
		ICPMaxIter:              cfg.GetEgoMotionICPMaxIter(),
		LMMaxIter:               cfg.GetEgoMotionLMMaxIter(),
		LineNeighbors:           cfg.GetEgoMotionLineDistanceNbrNeighbors(),
		MinLineNeighbors:        cfg.GetEgoMotionMinimumLineNeighborRejection(),
		LineDistanceFactor:      cfg.GetEgoMotionLineDistancefactor(),
		MaxLineDistance:         cfg.GetEgoMotionMaxLineDistance(),
		RequireDistinctLines:    true,
		PlaneNeighbors:          cfg.GetEgoMotionPlaneDistanceNbrNeighbors(),
		PlaneDistanceFactor1:    cfg.GetEgoMotionPlaneDistancefactor1(),
		PlaneDistanceFactor2:    cfg.GetEgoMotionPlaneDistancefactor2(),
		MaxPlaneDistance:        cfg.GetEgoMotionMaxPlaneDistance(),
		MaxResidualNorm:         cfg.GetEgoMotionMaxResidualNorm(),
		MaxDistBetweenTwoFrames: cfg.GetMaxDistBetweenTwoFrames(),
		Undistortion:            cfg.GetUndistortion(),
	}
}

func mappingParams(cfg *config.TuningConfig) mapping.Params {
	return mapping.Params{
		ICPMaxIter:                cfg.GetMappingICPMaxIter(),
		LMMaxIter:                 cfg.GetMappingLMMaxIter(),
		MaxDistanceForICPMatching: cfg.GetMaxDistanceForICPMatching(),
		LineNeighbors:             cfg.GetMappingLineDistanceNbrNeighbors(),
		MinLineNeighbors:          cfg.GetMappingMinimumLineNeighborRejection(),
		LineDistanceFactor:        cfg.GetMappingLineDistancefactor(),
		MaxLineDistance:           cfg.GetMappingMaxLineDistance(),
		LineMaxDistInlier:         cfg.GetMappingLineMaxDistInlier(),
		PlaneNeighbors:            cfg.GetMappingPlaneDistanceNbrNeighbors(),
		PlaneDistanceFactor1:      cfg.GetMappingPlaneDistancefactor1(),
		PlaneDistanceFactor2:      cfg.GetMappingPlaneDistancefactor2(),
		MaxPlaneDistance:          cfg.GetMappingMaxPlaneDistance(),
		MaxResidualNorm:           cfg.GetMappingMaxResidualNorm(),
		MaxDistBetweenTwoFrames:   cfg.GetMaxDistBetweenTwoFrames(),
		Undistortion:              cfg.GetUndistortion(),
		FastSlam:                  cfg.GetFastSlam(),
	}
}
