// Package bitewindows derives scored feeding windows from sun and moon
// context.
package bitewindows

import (
	"math"
	"sort"
	"time"

	"github.com/hooksense/bitecast/internal/core/model"
)

const (
	windowLead  = 45 * time.Minute
	windowTail  = 60 * time.Minute
	nowBoostPad = 3 * time.Hour

	baseMajor = 4.0
	baseMinor = 3.5
)

// Compute returns 1-5 scored feeding windows for the day described by
// sunrise/sunset/moonPhase, sorted by start time. Windows without a
// valid center are silently omitted. Dawn and dusk windows get a +1
// boost when their center is within 3 hours of now.
func Compute(sunrise, sunset time.Time, moonPhase float64, now time.Time) []model.BiteWindow {
	nearFull := moonPhase >= 0.4 && moonPhase <= 0.6
	nearNew := moonPhase <= 0.1 || moonPhase >= 0.9

	var out []model.BiteWindow

	dawn := baseMajor
	dawnWhy := "Low light and cooling water draw feeders to the shallows"
	if nearFull {
		dawn++
		dawnWhy = "Dawn after a bright full-moon night often extends the morning feed"
	}
	if nearNow(sunrise, now) {
		dawn++
	}
	out = appendWindow(out, sunrise, "Dawn feed", dawn, dawnWhy)

	dusk := baseMajor
	if nearNow(sunset, now) {
		dusk++
	}
	out = appendWindow(out, sunset, "Dusk feed", dusk,
		"Fading light triggers the evening feed")

	if nearFull && !sunrise.IsZero() && !sunset.IsZero() {
		mid := sunrise.Add(sunset.Sub(sunrise) / 2)
		out = appendWindow(out, mid, "Midday major", baseMinor,
			"Moon overhead near full phase lines up a midday major")
	}

	if nearNew && !sunrise.IsZero() {
		out = appendWindow(out, sunrise.Add(-6*time.Hour), "Midnight minor", baseMinor,
			"Dark new-moon night concentrates feeding into the minor")
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}

func nearNow(center, now time.Time) bool {
	if center.IsZero() {
		return false
	}
	d := center.Sub(now)
	return d > -nowBoostPad && d < nowBoostPad
}

func appendWindow(ws []model.BiteWindow, center time.Time, label string, score float64, why string) []model.BiteWindow {
	if center.IsZero() {
		return ws
	}
	return append(ws, model.BiteWindow{
		Start:     center.Add(-windowLead),
		End:       center.Add(windowTail),
		Label:     label,
		Score:     clampScore(score),
		Rationale: why,
	})
}

func clampScore(s float64) int {
	n := int(math.Round(s))
	if n < 1 {
		return 1
	}
	if n > 5 {
		return 5
	}
	return n
}
