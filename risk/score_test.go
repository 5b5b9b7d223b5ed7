package risk

import (
	"errors"
	"math"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubScorer struct {
	score float64
	err   error
	calls int
}

func (s *stubScorer) Name() string { return "stub" }

func (s *stubScorer) Score(Factors) (float64, error) {
	s.calls++
	return s.score, s.err
}

func TestGeometric_Score(t *testing.T) {
	t.Parallel()

	g := NewGeometric()
	require.NoError(t, g.Validate())

	f := Factors{AssetCoverage: 0.15, TimePressure: 0.5, AgeFactor: 0.9, IncomeStability: 0.8}
	got, err := g.Score(f)
	require.NoError(t, err)
	assert.InDelta(t, math.Pow(0.15*0.5*0.9*0.8, 0.25), got, 1e-12)

	// one zero factor zeroes the score
	f.TimePressure = 0
	got, err = g.Score(f)
	require.NoError(t, err)
	assert.Equal(t, 0.0, got)

	all := Factors{AssetCoverage: 1, TimePressure: 1, AgeFactor: 1, IncomeStability: 1}
	got, _ = g.Score(all)
	assert.InDelta(t, 1.0, got, 1e-12)
}

func TestGeometric_PenalizesWeakFactor(t *testing.T) {
	t.Parallel()

	f := Factors{AssetCoverage: 0.01, TimePressure: 1, AgeFactor: 1, IncomeStability: 1}
	geo, _ := NewGeometric().Score(f)
	arith := (0.01 + 1 + 1 + 1) / 4

	assert.Less(t, geo, arith)
	assert.Equal(t, Low, DefaultThresholds().Level(geo))
}

func TestGeometric_Validate(t *testing.T) {
	t.Parallel()

	assert.Error(t, Geometric{Weights: [4]float64{0.5, 0.5, 0.5, 0.5}}.Validate())
	assert.Error(t, Geometric{Weights: [4]float64{1.5, -0.5, 0, 0}}.Validate())
	assert.NoError(t, Geometric{Weights: [4]float64{0.4, 0.2, 0.2, 0.2}}.Validate())
}

func TestThresholds_Level(t *testing.T) {
	t.Parallel()

	th := DefaultThresholds()
	require.NoError(t, th.Validate())

	tests := []struct {
		score float64
		want  Level
	}{
		{0, Low},
		{0.39, Low},
		{0.4, Low}, // on the cut point rounds down
		{0.41, Medium},
		{0.7, Medium},
		{0.71, High},
		{1, High},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, th.Level(tt.score), "score %.2f", tt.score)
	}

	// monotonic
	prev := -1
	for s := 0.0; s <= 1.0; s += 0.01 {
		idx := th.Level(s).Index()
		require.GreaterOrEqual(t, idx, prev)
		prev = idx
	}
}

func TestThresholds_Validate(t *testing.T) {
	t.Parallel()

	assert.Error(t, Thresholds{Low: 0.7, High: 0.4}.Validate())
	assert.Error(t, Thresholds{Low: 0, High: 0.4}.Validate())
	assert.Error(t, Thresholds{Low: 0.3, High: 1}.Validate())
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	for _, l := range Levels {
		got, err := ParseLevel(string(l))
		require.NoError(t, err)
		assert.Equal(t, l, got)
	}
	_, err := ParseLevel("extreme")
	assert.Error(t, err)
	assert.Equal(t, -1, Level("extreme").Index())
}

func TestFallback_UsesPrimary(t *testing.T) {
	t.Parallel()

	primary := &stubScorer{score: 0.8}
	fb := Fallback{Primary: primary, Secondary: NewGeometric()}

	a := Assess(Factors{AssetCoverage: 0.1, TimePressure: 0.1, AgeFactor: 0.1, IncomeStability: 0.1}, fb, Geometric{}, DefaultThresholds())
	assert.Equal(t, 0.8, a.Score)
	assert.Equal(t, High, a.Level)
	assert.Equal(t, "stub", a.Model)
	assert.Equal(t, 1, primary.calls)
}

func TestFallback_DegradesSilently(t *testing.T) {
	t.Parallel()

	logger, hook := test.NewNullLogger()
	var reported error
	fb := &Fallback{
		Primary:    &stubScorer{err: errors.New("boom")},
		Secondary:  NewGeometric(),
		Log:        logger,
		OnFallback: func(err error) { reported = err },
	}

	f := Factors{AssetCoverage: 0.5, TimePressure: 0.5, AgeFactor: 0.5, IncomeStability: 0.5}
	score, err := fb.Score(f)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, score, 1e-12)
	assert.EqualError(t, reported, "boom")
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)

	a := Assess(f, fb, Geometric{}, DefaultThresholds())
	assert.Equal(t, "geometric", a.Model)
	assert.Equal(t, Medium, a.Level)
}

func TestFallback_NonFiniteScore(t *testing.T) {
	t.Parallel()

	fb := Fallback{Primary: &stubScorer{score: math.NaN()}, Secondary: NewGeometric()}
	a := Assess(Factors{AssetCoverage: 1, TimePressure: 1, AgeFactor: 1, IncomeStability: 1}, fb, Geometric{}, DefaultThresholds())
	assert.InDelta(t, 1.0, a.Score, 1e-12)
	assert.Equal(t, "geometric", a.Model)
}

func TestAssess_ClampsAndDefaults(t *testing.T) {
	t.Parallel()

	f := Factors{AssetCoverage: 0.2, TimePressure: 0.2, AgeFactor: 0.2, IncomeStability: 0.2}

	a := Assess(f, &stubScorer{score: 1.7}, Geometric{}, DefaultThresholds())
	assert.Equal(t, 1.0, a.Score)

	a = Assess(f, &stubScorer{score: -0.3}, Geometric{}, DefaultThresholds())
	assert.Equal(t, 0.0, a.Score)

	a = Assess(f, nil, Geometric{}, DefaultThresholds())
	assert.InDelta(t, 0.2, a.Score, 1e-12)
	assert.Equal(t, "geometric", a.Model)

	var unfitted *Forest
	a = Assess(f, unfitted, Geometric{}, DefaultThresholds())
	assert.Equal(t, "geometric", a.Model)
}

func TestAssess_Deterministic(t *testing.T) {
	t.Parallel()

	f := Factors{AssetCoverage: 0.33, TimePressure: 0.61, AgeFactor: 0.8, IncomeStability: 0.72}
	first := Assess(f, NewGeometric(), Geometric{}, DefaultThresholds())
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Assess(f, NewGeometric(), Geometric{}, DefaultThresholds()))
	}
}

func TestAssess_LastResortUsesConfiguredWeights(t *testing.T) {
	t.Parallel()

	f := Factors{AssetCoverage: 0.9, TimePressure: 0.1, AgeFactor: 0.9, IncomeStability: 0.9}
	custom := Geometric{Weights: [4]float64{0.1, 0.6, 0.1, 0.2}}
	require.NoError(t, custom.Validate())

	a := Assess(f, nil, custom, DefaultThresholds())
	want, _ := custom.Score(f)
	assert.InDelta(t, want, a.Score, 1e-12)
	equal, _ := NewGeometric().Score(f)
	assert.NotEqual(t, equal, a.Score)

	// both sides of a fallback down
	fb := Fallback{Primary: &stubScorer{err: errors.New("offline")}}
	a = Assess(f, fb, custom, DefaultThresholds())
	assert.InDelta(t, want, a.Score, 1e-12)
	assert.Equal(t, "geometric", a.Model)
}
