package store

import "github.com/banshee-data/lidar-slam/internal/slam/types"

// SaveReport appends one sweep's resulting pose to the trajectory
// table. seq must be monotonically increasing per pipeline instance.
func (s *Store) SaveReport(seq int, report *types.SweepReport) error {
	v := report.Tworld.Vector6()
	_, err := s.Exec(
		`INSERT INTO trajectory_poses (seq, frame_id, skip_reason, rx, ry, rz, tx, ty, tz, num_edges, num_planars)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		seq, report.FrameID, report.SkipReason.String(),
		v[0], v[1], v[2], v[3], v[4], v[5],
		report.NumEdgesSelected, report.NumPlanarsSelected,
	)
	return err
}

// LoadTrajectory returns every persisted pose in sequence order.
func (s *Store) LoadTrajectory() ([]types.Pose, error) {
	rows, err := s.Query(`SELECT rx, ry, rz, tx, ty, tz FROM trajectory_poses ORDER BY seq ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var poses []types.Pose
	for rows.Next() {
		var v [6]float64
		if err := rows.Scan(&v[0], &v[1], &v[2], &v[3], &v[4], &v[5]); err != nil {
			return nil, err
		}
		poses = append(poses, types.PoseFromVector6(v))
	}
	return poses, rows.Err()
}
