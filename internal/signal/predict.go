package signal

import (
	"fmt"
	"math"

	"github.com/hooksense/bitecast/internal/core/model"
)

// Tuning constants for the scoring heuristic. Persisted signals embed
// their output, so treat them as contractual.
const (
	dirUpThreshold   = 1.25
	dirDownThreshold = 0.75

	confSampleShare      = 0.6
	confWeightShare      = 0.4
	confDirectionalFloor = 0.6
	confRelevanceFloor   = 0.25

	minSamples   = 5
	forwardHours = 3
)

// predictFor scores one forward slice against the matrix: how does the
// trust-weighted catch rate under these conditions compare to the
// location's overall rate?
func predictFor(m Matrix, sl model.EnvironmentSlice) model.BitePrediction {
	bands := BandsFor(sl.Snapshot)
	p := model.BitePrediction{
		Label:     offsetLabel(sl.OffsetHours),
		Direction: model.BiteFlat,
		Snapshot:  sl.Snapshot,
		Bands:     bands,
	}

	st, ok := m.Slices[bands.Key()]
	if !ok || st.Samples == 0 || m.SampleSize == 0 || m.TotalWeight == 0 {
		return p
	}
	p.SliceWeight = st.Weight
	p.SliceSamples = st.Samples

	slicePerSample := st.Weight / float64(st.Samples)
	globalPerSample := m.TotalWeight / float64(m.SampleSize)
	relative := slicePerSample / globalPerSample

	switch {
	case relative >= dirUpThreshold:
		p.Direction = model.BiteUp
	case relative <= dirDownThreshold:
		p.Direction = model.BiteDown
	}

	sampleRatio := float64(st.Samples) / float64(m.SampleSize)
	weightRatio := st.Weight / m.TotalWeight
	conf := math.Min(1, sampleRatio*confSampleShare+weightRatio*confWeightShare)

	deviation := math.Min(math.Abs(relative-1), 1)
	if p.Direction == model.BiteFlat {
		conf *= 1 - deviation
	} else if conf < confDirectionalFloor {
		conf += (confDirectionalFloor - conf) * deviation
	}

	p.Confidence = clamp01(conf)
	return p
}

func offsetLabel(off int) string {
	if off == 0 {
		return "Now"
	}
	return fmt.Sprintf("+%dh", off)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
