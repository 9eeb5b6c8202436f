package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/san-kum/linsim/internal/sim"
)

// CSVHeader lists the columns WriteCSV emits for r.
func CSVHeader(r *sim.Result) []string {
	header := []string{"time", "pos", "vel", "force"}
	if r.ErrorBars {
		header = append(header, "est_pos", "sigma_pos", "est_vel", "sigma_vel")
	}
	return header
}

// WriteCSV writes one row per plotted sample.
func WriteCSV(w io.Writer, r *sim.Result) error {
	n := len(r.Position.Samples)
	if len(r.Velocity.Samples) != n || len(r.Force.Samples) != n {
		return fmt.Errorf("series lengths differ: pos=%d vel=%d force=%d",
			n, len(r.Velocity.Samples), len(r.Force.Samples))
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader(r)); err != nil {
		return err
	}

	for i := 0; i < n; i++ {
		pos, vel := r.Position.Samples[i], r.Velocity.Samples[i]
		row := []string{
			formatFloat(pos.T),
			formatFloat(pos.True),
			formatFloat(vel.True),
			formatFloat(r.Force.Samples[i].True),
		}
		if r.ErrorBars {
			row = append(row,
				formatFloat(pos.Est), formatFloat(pos.Sigma),
				formatFloat(vel.Est), formatFloat(vel.Sigma))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// ExportCSV writes r to path, or to stdout when path is "-".
func ExportCSV(path string, r *sim.Result) error {
	if path == "-" {
		return WriteCSV(os.Stdout, r)
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return WriteCSV(file, r)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 10, 64)
}
