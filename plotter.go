package stabilizego

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// Plotter renders a TrajectoryStore's raw, smoothed, and transform rows for
// inspection after a GenerateTransforms or Stabilize run (the Go-native
// stand-in for the original's matplotlib-based plot_trajectory /
// plot_transforms; see DESIGN.md for why this package ships a CSV writer
// rather than a plotting library).
type Plotter interface {
	PlotTrajectory(store *TrajectoryStore) error
	PlotTransforms(store *TrajectoryStore) error
}

// CSVPlotter writes trajectory/transform rows as CSV to an io.Writer,
// letting a caller pipe the data into any external plotting tool.
type CSVPlotter struct {
	w io.Writer
}

// NewCSVPlotter creates a CSVPlotter writing to w.
func NewCSVPlotter(w io.Writer) *CSVPlotter { return &CSVPlotter{w: w} }

// PlotTrajectory writes one row per frame: index, trajectory (dx,dy,dtheta),
// smoothed trajectory (dx,dy,dtheta).
func (p *CSVPlotter) PlotTrajectory(store *TrajectoryStore) error {
	writer := csv.NewWriter(p.w)
	defer writer.Flush()

	if err := writer.Write([]string{"index", "traj_dx", "traj_dy", "traj_dtheta", "smooth_dx", "smooth_dy", "smooth_dtheta"}); err != nil {
		return err
	}
	for i := 0; i < store.Len(); i++ {
		traj := store.Trajectory(i)
		smooth := store.Smoothed(i)
		row := []string{
			strconv.Itoa(i),
			formatFloat(traj.Dx), formatFloat(traj.Dy), formatFloat(traj.Dtheta),
			formatFloat(smooth.Dx), formatFloat(smooth.Dy), formatFloat(smooth.Dtheta),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	return writer.Error()
}

// PlotTransforms writes one row per frame: index, the residual transform
// actually applied (dx, dy, dtheta-in-degrees).
func (p *CSVPlotter) PlotTransforms(store *TrajectoryStore) error {
	writer := csv.NewWriter(p.w)
	defer writer.Flush()

	if err := writer.Write([]string{"index", "dx", "dy", "dtheta_deg"}); err != nil {
		return err
	}
	for i := 0; i < store.Len(); i++ {
		if !store.InRange(i) {
			break
		}
		t := store.Transforms(i)
		row := []string{
			strconv.Itoa(i),
			formatFloat(t.Dx), formatFloat(t.Dy), formatFloat(t.Dtheta * 180 / 3.141592653589793),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	return writer.Error()
}

func formatFloat(v float64) string {
	return fmt.Sprintf("%.6f", v)
}
