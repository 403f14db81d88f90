package core

import (
	"math"
	"testing"
	"time"
)

func closeTo(a, b, tol float64) bool { return math.Abs(a-b) <= tol }

func TestGeodeticToEarthFixed(t *testing.T) {
	at := time.Date(2021, 11, 12, 14, 0, 0, 0, time.UTC)
	cases := []struct {
		lat, lon float64
		want     Vec3
	}{
		{0, 0, Vec3{X: EarthRadiusKm}},
		{0, 90, Vec3{Y: EarthRadiusKm}},
		{90, 45, Vec3{Z: EarthRadiusKm}},
		{0, 180, Vec3{X: -EarthRadiusKm}},
	}
	for _, c := range cases {
		got := GeodeticToEarthFixed(c.lat, c.lon, at)
		if got.DistanceTo(c.want) > 1e-9 {
			t.Errorf("lat=%v lon=%v: got %+v, want %+v", c.lat, c.lon, got.Vec3, c.want)
		}
		if !got.Tagged || got.Frame.Kind != FrameEarthFixed || !got.Frame.Epoch.Equal(at) {
			t.Errorf("lat=%v lon=%v: expected Earth-fixed tag at %v, got %+v", c.lat, c.lon, at, got.Frame)
		}
	}
}

func TestElevationDegrees(t *testing.T) {
	observer := Vec3{X: EarthRadiusKm}

	if el := ElevationDegrees(observer, Vec3{X: EarthRadiusKm + 500}); !closeTo(el, 90, 1e-9) {
		t.Errorf("overhead elevation = %v, want 90", el)
	}
	if el := ElevationDegrees(observer, Vec3{X: EarthRadiusKm, Y: 1000}); !closeTo(el, 0, 1e-9) {
		t.Errorf("horizon elevation = %v, want 0", el)
	}
	if el := ElevationDegrees(observer, Vec3{X: -EarthRadiusKm}); !closeTo(el, -90, 1e-9) {
		t.Errorf("nadir elevation = %v, want -90", el)
	}
	if el := ElevationDegrees(observer, observer); el != 90 {
		t.Errorf("degenerate elevation = %v, want 90", el)
	}
}

func TestAzimuthDegrees(t *testing.T) {
	observer := Vec3{X: EarthRadiusKm}
	cases := map[string]struct {
		target Vec3
		want   float64
	}{
		"north": {Vec3{X: EarthRadiusKm, Z: 100}, 0},
		"east":  {Vec3{X: EarthRadiusKm, Y: 100}, 90},
		"south": {Vec3{X: EarthRadiusKm, Z: -100}, 180},
		"west":  {Vec3{X: EarthRadiusKm, Y: -100}, 270},
	}
	for name, c := range cases {
		if az := AzimuthDegrees(observer, c.target); !closeTo(az, c.want, 1e-9) {
			t.Errorf("%s: azimuth = %v, want %v", name, az, c.want)
		}
	}
}

func TestLookAnglesOverhead(t *testing.T) {
	at := time.Date(2021, 11, 12, 14, 0, 0, 0, time.UTC)
	observer := GeodeticToEarthFixed(0, 0, at)

	overhead := Vec3{X: EarthRadiusKm + 400}
	inertial, err := EarthFixed(at).ToBaseline(overhead)
	if err != nil {
		t.Fatalf("ToBaseline: %v", err)
	}
	obs := &Observation{Time: at, Position: Tag(inertial, GCRF())}

	look, err := LookAngles(observer, obs)
	if err != nil {
		t.Fatalf("LookAngles: %v", err)
	}
	if !closeTo(look.ElevationDeg, 90, 1e-6) {
		t.Errorf("elevation = %v, want 90", look.ElevationDeg)
	}
	if !closeTo(look.RangeKm, 400, 1e-6) {
		t.Errorf("range = %v, want 400", look.RangeKm)
	}
	if !look.Visible() {
		t.Errorf("overhead satellite should be visible")
	}
}

func TestLookAnglesObserverEpochIgnored(t *testing.T) {
	at := time.Date(2021, 11, 12, 14, 0, 0, 0, time.UTC)
	observer := GeodeticToEarthFixed(0, 0, at.Add(-6*time.Hour))
	obs := &Observation{Time: at, Position: Tag(Vec3{X: -EarthRadiusKm - 400}, EarthFixed(at))}

	look, err := LookAngles(observer, obs)
	if err != nil {
		t.Fatalf("LookAngles: %v", err)
	}
	if look.Visible() {
		t.Errorf("satellite behind the Earth reported visible: %+v", look)
	}
}

func TestLookAnglesRequiresEarthFixedObserver(t *testing.T) {
	obs := &Observation{Time: time.Now(), Position: Tag(Vec3{X: 7000}, GCRF())}
	if _, err := LookAngles(Framed{Vec3: Vec3{X: EarthRadiusKm}}, obs); err == nil {
		t.Errorf("expected error for untagged observer")
	}
	if _, err := LookAngles(Tag(Vec3{X: EarthRadiusKm}, GCRF()), obs); err == nil {
		t.Errorf("expected error for inertial observer")
	}
}

func TestVec3Helpers(t *testing.T) {
	a := Vec3{X: 1, Y: 2, Z: 3}
	b := Vec3{X: 4, Y: 6, Z: 3}
	if got := b.Sub(a); got != (Vec3{X: 3, Y: 4}) {
		t.Errorf("Sub = %+v", got)
	}
	if got := a.Add(b); got != (Vec3{X: 5, Y: 8, Z: 6}) {
		t.Errorf("Add = %+v", got)
	}
	if got := a.Scale(2); got != (Vec3{X: 2, Y: 4, Z: 6}) {
		t.Errorf("Scale = %+v", got)
	}
	if d := a.DistanceTo(b); d != 5 {
		t.Errorf("DistanceTo = %v, want 5", d)
	}
	if dot := a.Dot(b); dot != 25 {
		t.Errorf("Dot = %v, want 25", dot)
	}
}
