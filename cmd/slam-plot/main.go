// Command slam-plot renders the XY top-down trajectory persisted by
// internal/store as a PNG, for visually sanity-checking a run.
package main

import (
	"flag"
	"log"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/lidar-slam/internal/monitoring"
	"github.com/banshee-data/lidar-slam/internal/store"
)

func main() {
	dbPath := flag.String("db", "", "SQLite trajectory database written by a pipeline run")
	out := flag.String("out", "trajectory.png", "output PNG path")
	flag.Parse()

	if *dbPath == "" {
		log.Fatal("slam-plot: -db is required")
	}

	db, err := store.Open(*dbPath)
	if err != nil {
		log.Fatalf("slam-plot: store.Open: %v", err)
	}
	defer db.Close()

	poses, err := db.LoadTrajectory()
	if err != nil {
		log.Fatalf("slam-plot: LoadTrajectory: %v", err)
	}
	if len(poses) == 0 {
		log.Fatal("slam-plot: trajectory is empty, nothing to plot")
	}

	pts := make(plotter.XYs, len(poses))
	for i, p := range poses {
		pts[i] = plotter.XY{X: p.TX, Y: p.TY}
	}

	p := plot.New()
	p.Title.Text = "Trajectory (top-down)"
	p.X.Label.Text = "X (m)"
	p.Y.Label.Text = "Y (m)"

	line, err := plotter.NewLine(pts)
	if err != nil {
		log.Fatalf("slam-plot: NewLine: %v", err)
	}
	line.Width = vg.Points(1)
	p.Add(line)

	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		log.Fatalf("slam-plot: NewScatter: %v", err)
	}
	scatter.Radius = vg.Points(1.5)
	p.Add(scatter)

	if err := p.Save(10*vg.Inch, 10*vg.Inch, *out); err != nil {
		log.Fatalf("slam-plot: Save: %v", err)
	}
	monitoring.Logf("slam-plot: wrote %d poses to %s", len(poses), *out)
}
