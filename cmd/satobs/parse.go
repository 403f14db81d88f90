package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/signalsfoundry/satobs/internal/logging"
	"github.com/signalsfoundry/satobs/model"
	"github.com/signalsfoundry/satobs/tle"
)

// readElementSets decodes every record in the named files. Rejected records
// are logged, counted by kind and skipped.
func (a *app) readElementSets(ctx context.Context, paths []string) ([]*model.ElementSet, error) {
	var all []*model.ElementSet
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		sets, err := tle.ReadAll(f)
		f.Close()
		for _, e := range unwrapJoined(err) {
			a.metrics.IncParseFailure(tle.KindOf(e).String())
			a.log.Warn(ctx, "skipping element set", logging.String("file", path), logging.Err(e))
		}
		all = append(all, sets...)
	}
	if len(all) == 0 {
		return nil, errors.New("no valid element sets")
	}
	return all, nil
}

func unwrapJoined(err error) []error {
	if err == nil {
		return nil
	}
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		return j.Unwrap()
	}
	return []error{err}
}

// elementSetJSON is the parse command's output shape.
type elementSetJSON struct {
	Name             string    `json:"name,omitempty"`
	CatalogNumber    int       `json:"norad_id"`
	Classification   string    `json:"classification"`
	Designator       string    `json:"designator,omitempty"`
	Epoch            time.Time `json:"epoch"`
	MeanMotionDot    float64   `json:"mean_motion_dot"`
	MeanMotionDDot   float64   `json:"mean_motion_ddot"`
	BStar            float64   `json:"bstar"`
	ElementSetNumber int       `json:"element_set_number"`
	InclinationDeg   float64   `json:"inclination_deg"`
	RAANDeg          float64   `json:"raan_deg"`
	Eccentricity     float64   `json:"eccentricity"`
	ArgOfPerigeeDeg  float64   `json:"arg_of_perigee_deg"`
	MeanAnomalyDeg   float64   `json:"mean_anomaly_deg"`
	MeanMotion       float64   `json:"mean_motion_rev_per_day"`
	RevolutionCount  int       `json:"revolution_count"`
}

func toJSON(es *model.ElementSet) elementSetJSON {
	out := elementSetJSON{
		Name:             es.Name,
		CatalogNumber:    es.CatalogNumber,
		Classification:   es.Classification.Code(),
		Epoch:            es.Epoch,
		MeanMotionDot:    es.MeanMotionDot,
		MeanMotionDDot:   es.MeanMotionDDot,
		BStar:            es.BStar,
		ElementSetNumber: es.ElementSetNumber,
		InclinationDeg:   es.Inclination.Degrees,
		RAANDeg:          es.RightAscension.Degrees,
		Eccentricity:     es.Eccentricity,
		ArgOfPerigeeDeg:  es.ArgOfPerigee.Degrees,
		MeanAnomalyDeg:   es.MeanAnomaly.Degrees,
		MeanMotion:       es.MeanMotion,
		RevolutionCount:  es.RevolutionCount,
	}
	if !es.Designator.IsZero() {
		out.Designator = es.Designator.String()
	}
	return out
}

func newParseCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "parse FILE...",
		Short: "Decode element set files and print them as JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sets, err := a.readElementSets(cmd.Context(), args)
			if err != nil {
				return err
			}
			out := make([]elementSetJSON, 0, len(sets))
			for _, es := range sets {
				out = append(out, toJSON(es))
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(out); err != nil {
				return fmt.Errorf("encode: %w", err)
			}
			return nil
		},
	}
}
