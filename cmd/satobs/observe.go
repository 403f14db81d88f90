package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/signalsfoundry/satobs/core"
	"github.com/signalsfoundry/satobs/model"
)

// observationJSON is one line of observe and track output.
type observationJSON struct {
	CatalogNumber int        `json:"norad_id"`
	Name          string     `json:"name,omitempty"`
	Time          time.Time  `json:"time"`
	Frame         string     `json:"frame"`
	PositionKm    [3]float64 `json:"position_km"`
	VelocityKmS   [3]float64 `json:"velocity_km_s"`
	Look          *lookJSON  `json:"look,omitempty"`
}

type lookJSON struct {
	AzimuthDeg   float64 `json:"azimuth_deg"`
	ElevationDeg float64 `json:"elevation_deg"`
	RangeKm      float64 `json:"range_km"`
	Visible      bool    `json:"visible"`
}

func observationToJSON(es *model.ElementSet, obs *core.Observation) observationJSON {
	p, v := obs.Position.Vec3, obs.Velocity.Vec3
	return observationJSON{
		CatalogNumber: es.CatalogNumber,
		Name:          es.Name,
		Time:          obs.Time,
		Frame:         obs.Position.Frame.Name(),
		PositionKm:    [3]float64{p.X, p.Y, p.Z},
		VelocityKmS:   [3]float64{v.X, v.Y, v.Z},
	}
}

// observer is an optional ground site for look angles.
type observer struct {
	lat, lon float64
	set      bool
}

func (o observer) look(obs *core.Observation) (*lookJSON, error) {
	if !o.set {
		return nil, nil
	}
	la, err := core.LookAngles(core.GeodeticToEarthFixed(o.lat, o.lon, obs.Time), obs)
	if err != nil {
		return nil, err
	}
	return &lookJSON{
		AzimuthDeg:   la.AzimuthDeg,
		ElevationDeg: la.ElevationDeg,
		RangeKm:      la.RangeKm,
		Visible:      la.Visible(),
	}, nil
}

// matchesFilter selects element sets by catalog number or by a
// case-insensitive name substring. An empty filter matches everything.
func matchesFilter(es *model.ElementSet, filter string) bool {
	if filter == "" {
		return true
	}
	if n, err := strconv.Atoi(filter); err == nil {
		return es.CatalogNumber == n
	}
	return strings.Contains(strings.ToLower(es.Name), strings.ToLower(filter))
}

func newObserveCmd(a *app) *cobra.Command {
	var (
		at     string
		filter string
		site   observer
	)
	cmd := &cobra.Command{
		Use:   "observe FILE...",
		Short: "Compute GCRF position and velocity of each satellite at one instant",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			t := time.Now().UTC()
			if at != "" {
				parsed, err := time.Parse(time.RFC3339Nano, at)
				if err != nil {
					return fmt.Errorf("--at: %w", err)
				}
				t = parsed.UTC()
			}
			site.set = cmd.Flags().Changed("lat") || cmd.Flags().Changed("lon")

			sets, err := a.readElementSets(ctx, args)
			if err != nil {
				return err
			}
			svc, err := a.service()
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			observed, failed := 0, 0
			for _, es := range sets {
				if !matchesFilter(es, filter) {
					continue
				}
				obs, err := svc.ObserveAt(ctx, es, t)
				if err != nil {
					// Already logged with the failure kind by the pipeline.
					failed++
					continue
				}
				out := observationToJSON(es, obs)
				if out.Look, err = site.look(obs); err != nil {
					return err
				}
				if err := enc.Encode(out); err != nil {
					return fmt.Errorf("encode: %w", err)
				}
				observed++
			}
			if observed == 0 {
				if failed > 0 {
					return fmt.Errorf("%w for all %d satellites", core.ErrCannotComputePosition, failed)
				}
				return fmt.Errorf("no element set matches %q", filter)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "observation time, RFC 3339 (default now)")
	cmd.Flags().StringVar(&filter, "name", "", "only observe satellites whose name contains this text, or with this catalog number")
	cmd.Flags().Float64Var(&site.lat, "lat", 0, "observer geodetic latitude in degrees, enables look angles")
	cmd.Flags().Float64Var(&site.lon, "lon", 0, "observer longitude in degrees east, enables look angles")
	return cmd
}
