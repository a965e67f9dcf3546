package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/lidar-slam/internal/slam/types"
)

func openTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()

	migrationsDir := filepath.Join(dir, "migrations")
	require.NoError(t, os.MkdirAll(migrationsDir, 0o755))

	up, err := os.ReadFile(filepath.Join("migrations", "0001_trajectory.up.sql"))
	require.NoError(t, err)
	down, err := os.ReadFile(filepath.Join("migrations", "0001_trajectory.down.sql"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(migrationsDir, "0001_trajectory.up.sql"), up, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(migrationsDir, "0001_trajectory.down.sql"), down, 0o644))

	s, err := Open(filepath.Join(dir, "trajectory.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	require.NoError(t, s.MigrateUp(migrationsDir))
	return s, migrationsDir
}

func TestMigrateUpReachesVersionOne(t *testing.T) {
	s, migrationsDir := openTestStore(t)
	version, dirty, err := s.MigrateVersion(migrationsDir)
	require.NoError(t, err)
	assert.False(t, dirty, "MigrateVersion reported dirty state after a clean MigrateUp")
	assert.Equal(t, uint(1), version)
}

func TestSaveAndLoadTrajectoryRoundTrips(t *testing.T) {
	s, _ := openTestStore(t)

	reports := []*types.SweepReport{
		{FrameID: "f0", Tworld: types.Identity()},
		{FrameID: "f1", Tworld: types.PoseFromVector6([6]float64{0, 0, 0, 1, 2, 3})},
		{FrameID: "f2", Tworld: types.PoseFromVector6([6]float64{0, 0, 0.1, 2, 4, 6}), SkipReason: types.SkipDiverged},
	}
	for i, r := range reports {
		require.NoError(t, s.SaveReport(i, r))
	}

	poses, err := s.LoadTrajectory()
	require.NoError(t, err)
	require.Len(t, poses, len(reports))
	for i, r := range reports {
		assert.Equal(t, r.Tworld.Vector6(), poses[i].Vector6(), "pose[%d]", i)
	}
}
