package signal

import (
	"testing"
	"time"

	"github.com/hooksense/bitecast/internal/core/model"
)

func TestTimeOfDayBand(t *testing.T) {
	cases := []struct {
		utcHour, tz int
		want        string
	}{
		{4, 0, BandDawn},
		{7, 0, BandDawn},
		{8, 0, BandDay},
		{16, 0, BandDay},
		{17, 0, BandDusk},
		{20, 0, BandDusk},
		{21, 0, BandNight},
		{3, 0, BandNight},
		// Offsets shift the local hour, including across midnight.
		{23, 6, BandDawn},
		{2, -6, BandDusk},
		{2, -5, BandNight},
		{0, 0, BandNight},
	}
	for _, tc := range cases {
		s := model.EnvironmentSnapshot{
			Time:      time.Date(2024, 6, 10, tc.utcHour, 30, 0, 0, time.UTC),
			TzOffsetH: tc.tz,
		}
		if got := timeOfDayBand(s); got != tc.want {
			t.Errorf("hour %d tz %+d: got %q, want %q", tc.utcHour, tc.tz, got, tc.want)
		}
	}
}

func TestMoonBand(t *testing.T) {
	cases := []struct {
		phase float64
		want  string
	}{
		{0.0, BandMoonNew},
		{0.1, BandMoonNew},
		{0.95, BandMoonNew},
		{0.25, BandMoonWaxing},
		{0.39, BandMoonWaxing},
		{0.4, BandMoonFull},
		{0.5, BandMoonFull},
		{0.6, BandMoonFull},
		{0.61, BandMoonWaning},
		{0.89, BandMoonWaning},
	}
	for _, tc := range cases {
		if got := MoonBand(tc.phase); got != tc.want {
			t.Errorf("phase %v: got %q, want %q", tc.phase, got, tc.want)
		}
	}
}

func TestPressureBand(t *testing.T) {
	cases := []struct {
		hpa  float64
		want string
	}{
		{1000, BandPressureLow},
		{1008.9, BandPressureLow},
		{1009, BandPressureMid},
		{1014, BandPressureMid},
		{1019, BandPressureMid},
		{1019.1, BandPressureHigh},
		{1030, BandPressureHigh},
	}
	for _, tc := range cases {
		if got := pressureBand(tc.hpa); got != tc.want {
			t.Errorf("%v hPa: got %q, want %q", tc.hpa, got, tc.want)
		}
	}
}

func TestBandsForProducesCompleteTriple(t *testing.T) {
	b := BandsFor(model.EnvironmentSnapshot{
		Time:        time.Date(2024, 6, 10, 5, 0, 0, 0, time.UTC),
		PressureHPa: 1021,
		MoonPhase:   0.5,
	})
	if !b.Complete() {
		t.Fatalf("triple incomplete: %+v", b)
	}
	if b.Key() != "dawn|full|high" {
		t.Fatalf("key = %q, want dawn|full|high", b.Key())
	}
}
