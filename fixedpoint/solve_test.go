package fixedpoint

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"gonum.org/v1/gonum/floats"

	"github.com/sky-flux/ampe"
)

// solveQuadratic minimizes q by gradient descent with step 1/L in the given
// mode and returns the result.
func solveQuadratic(t *testing.T, q *Quadratic, mode Mode, window int) Result {
	t.Helper()
	res, err := Solve(context.Background(), GradientStep(q, 1/q.Lipschitz()), make([]float64, len(q.B)), Settings{
		Mode:        mode,
		Accelerator: ampe.Config{WindowSize: window, MixingParameter: 1},
		Objective:   q,
		Converger:   ObjectiveGap{Optimum: q.MinValue(), Threshold: 1e-8},
	})
	if err != nil {
		t.Fatalf("%v: %v", mode, err)
	}
	if res.Status != Converged {
		t.Fatalf("%v: status %v, want Converged", mode, res.Status)
	}
	return res
}

func TestSolveQuadraticAccelerationBeatsGradientDescent(t *testing.T) {
	q := QuadraticWithCondition(10, 100)
	plain := solveQuadratic(t, q, Plain, 0)
	for _, mode := range []Mode{Extrapolate, Full} {
		acc := solveQuadratic(t, q, mode, 2)
		if acc.Stats.Iterations >= plain.Stats.Iterations {
			t.Errorf("%v: %d iterations, want fewer than gradient descent (%d)",
				mode, acc.Stats.Iterations, plain.Stats.Iterations)
		}
		if gap := q.Func(acc.X) - q.MinValue(); gap >= 1e-8 {
			t.Errorf("%v: f(x) − f* = %v, want < 1e-8", mode, gap)
		}
	}
}

func TestSolveFeedbackTwoDimensional(t *testing.T) {
	q := QuadraticWithCondition(2, 100)
	plain := solveQuadratic(t, q, Plain, 0)
	acc := solveQuadratic(t, q, Feedback, 2)
	if acc.Stats.Iterations >= plain.Stats.Iterations {
		t.Errorf("feedback: %d iterations, want fewer than %d", acc.Stats.Iterations, plain.Stats.Iterations)
	}
	if !floats.EqualApprox(acc.X, q.Minimizer(), 1e-3) {
		t.Errorf("x = %v, want %v", acc.X, q.Minimizer())
	}
}

func TestSolvePlainReachesMinimizer(t *testing.T) {
	q := QuadraticWithCondition(5, 10)
	res := solveQuadratic(t, q, Plain, 0)
	if res.Stats.MapEvaluations != res.Stats.Iterations {
		t.Errorf("MapEvaluations = %d, Iterations = %d", res.Stats.MapEvaluations, res.Stats.Iterations)
	}
	if len(res.Gradient) != 5 {
		t.Errorf("len(Gradient) = %d, want 5", len(res.Gradient))
	}
}

func TestSolveLogistic(t *testing.T) {
	l := syntheticLogistic(t, 50, 3, 0.1, 5)
	for _, mode := range []Mode{Plain, Extrapolate, Full} {
		res, err := Solve(context.Background(), GradientStep(l, 1/l.Lipschitz()), make([]float64, 3), Settings{
			Mode:        mode,
			Accelerator: ampe.DefaultConfig(),
			Objective:   l,
			Converger:   GradientThreshold(1e-6),
		})
		if err != nil {
			t.Fatalf("%v: %v", mode, err)
		}
		if res.Status != Converged {
			t.Errorf("%v: status %v, want Converged", mode, res.Status)
		}
		if n := floats.Norm(res.Gradient, 2); n >= 1e-6 {
			t.Errorf("%v: ‖∇f‖ = %v, want < 1e-6", mode, n)
		}
	}
}

func TestSolveDefaultConverger(t *testing.T) {
	// g(x) = x/2 has the fixed point 0; the default criterion is ‖g(x) − x‖ < 1e-10.
	half := func(dst, x []float64) { floats.ScaleTo(dst, 0.5, x) }
	res, err := Solve(context.Background(), half, []float64{1, -1}, Settings{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != Converged || res.StepNorm >= 1e-10 {
		t.Errorf("status %v step %v", res.Status, res.StepNorm)
	}
	if !math.IsNaN(res.F) || res.Gradient != nil {
		t.Errorf("F = %v, Gradient = %v without an objective", res.F, res.Gradient)
	}
}

func TestSolveMaxIterations(t *testing.T) {
	q := QuadraticWithCondition(4, 1000)
	res, err := Solve(context.Background(), GradientStep(q, 1/q.Lipschitz()), make([]float64, 4), Settings{
		MaxIterations: 5,
		Objective:     q,
		Converger:     GradientThreshold(1e-12),
	})
	if !errors.Is(err, ErrMaxIterations) {
		t.Fatalf("err = %v, want ErrMaxIterations", err)
	}
	if res.Status != IterationLimit || res.Stats.Iterations != 5 {
		t.Errorf("status %v after %d iterations, want IterationLimit after 5", res.Status, res.Stats.Iterations)
	}
}

func TestSolveCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	x0 := []float64{3, 4}
	res, err := Solve(ctx, func(dst, x []float64) { copy(dst, x) }, x0, Settings{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if res.Status != Canceled || res.Stats.Iterations != 0 {
		t.Errorf("status %v iterations %d", res.Status, res.Stats.Iterations)
	}
	if !floats.Equal(res.X, x0) {
		t.Errorf("X = %v, want starting point %v", res.X, x0)
	}
}

func TestSolveDiverges(t *testing.T) {
	blowUp := func(dst, x []float64) {
		for i := range dst {
			dst[i] = x[i] * 1e300
		}
	}
	for _, mode := range []Mode{Plain, Extrapolate, Feedback, Full} {
		res, err := Solve(context.Background(), blowUp, []float64{10}, Settings{
			Mode:        mode,
			Accelerator: ampe.DefaultConfig(),
		})
		if !errors.Is(err, ErrNotFinite) {
			t.Errorf("%v: err = %v, want ErrNotFinite", mode, err)
		}
		if res.Status != Diverged {
			t.Errorf("%v: status %v, want Diverged", mode, res.Status)
		}
	}
}

func TestSolveInvalidSettings(t *testing.T) {
	id := func(dst, x []float64) { copy(dst, x) }
	if _, err := Solve(context.Background(), id, nil, Settings{}); !errors.Is(err, ErrEmptyStart) {
		t.Errorf("empty start: err = %v, want ErrEmptyStart", err)
	}
	if _, err := Solve(context.Background(), id, []float64{1}, Settings{Converger: GradientThreshold(1)}); !errors.Is(err, ErrMissingObjective) {
		t.Errorf("gradient criterion without objective: err = %v, want ErrMissingObjective", err)
	}
	_, err := Solve(context.Background(), id, []float64{1}, Settings{
		Mode:        Extrapolate,
		Accelerator: ampe.Config{WindowSize: 0, MixingParameter: 1},
	})
	if !errors.Is(err, ampe.ErrInvalidConfig) {
		t.Errorf("bad accelerator config: err = %v, want ampe.ErrInvalidConfig", err)
	}
	if _, err := Solve(context.Background(), id, []float64{1}, Settings{Mode: Mode(42)}); !errors.Is(err, ErrUnknownMode) {
		t.Errorf("unknown mode: err = %v, want ErrUnknownMode", err)
	}
}

func TestSolveLogging(t *testing.T) {
	logger, hook := test.NewNullLogger()
	q := QuadraticWithCondition(3, 10)
	_, err := Solve(context.Background(), GradientStep(q, 1/q.Lipschitz()), make([]float64, 3), Settings{
		MaxIterations: 4,
		Mode:          Extrapolate,
		Accelerator:   ampe.DefaultConfig(),
		Converger:     StepThreshold(0),
		Logger:        logger,
		LogEvery:      2,
	})
	if !errors.Is(err, ErrMaxIterations) {
		t.Fatalf("err = %v, want ErrMaxIterations", err)
	}
	entries := hook.AllEntries()
	if len(entries) != 2 {
		t.Fatalf("got %d log entries, want 2", len(entries))
	}
	for i, e := range entries {
		if e.Level != logrus.InfoLevel {
			t.Errorf("entry %d level %v, want info", i, e.Level)
		}
		if e.Data["mode"] != "extrapolate" {
			t.Errorf("entry %d mode = %v, want extrapolate", i, e.Data["mode"])
		}
		if e.Data["iteration"] != 2*(i+1) {
			t.Errorf("entry %d iteration = %v, want %d", i, e.Data["iteration"], 2*(i+1))
		}
	}
}

func TestConvergers(t *testing.T) {
	loc := &Location{F: 1.5, Gradient: []float64{3e-7, 4e-7}, StepNorm: 1e-3}
	tests := []struct {
		name string
		c    Converger
		want bool
	}{
		{"gradient below", GradientThreshold(1e-6), true},
		{"gradient above", GradientThreshold(1e-7), false},
		{"gap below", ObjectiveGap{Optimum: 1.5 - 1e-9, Threshold: 1e-8}, true},
		{"gap above", ObjectiveGap{Optimum: 1, Threshold: 1e-8}, false},
		{"step below", StepThreshold(1e-2), true},
		{"step above", StepThreshold(1e-4), false},
	}
	for _, tt := range tests {
		if got := tt.c.Converged(loc); got != tt.want {
			t.Errorf("%s: Converged = %v, want %v", tt.name, got, tt.want)
		}
	}
	if GradientThreshold(1).Converged(&Location{}) {
		t.Error("GradientThreshold converged without a gradient")
	}
	if (ObjectiveGap{Threshold: 1}).Converged(&Location{F: math.NaN()}) {
		t.Error("ObjectiveGap converged on NaN")
	}
}

func TestStatusAndModeStrings(t *testing.T) {
	if Converged.String() != "Converged" || Status(99).String() != "Unknown" {
		t.Errorf("Status strings: %v %v", Converged, Status(99))
	}
	if Full.String() != "full" || Mode(99).String() != "unknown" {
		t.Errorf("Mode strings: %v %v", Full, Mode(99))
	}
}

// lowestTracker records the lowest F it is shown and cancels after stop
// calls. It never reports convergence.
type lowestTracker struct {
	calls  int
	stop   int
	cancel context.CancelFunc
	lowest float64
}

func (l *lowestTracker) Converged(loc *Location) bool {
	l.calls++
	if loc.F < l.lowest {
		l.lowest = loc.F
	}
	if l.calls == l.stop && l.cancel != nil {
		l.cancel()
	}
	return false
}

func TestSolveCanceledReturnsBestLocation(t *testing.T) {
	q := QuadraticWithCondition(10, 100)
	for stop := 2; stop <= 8; stop++ {
		ctx, cancel := context.WithCancel(context.Background())
		tracker := &lowestTracker{stop: stop, cancel: cancel, lowest: math.Inf(1)}
		res, err := Solve(ctx, GradientStep(q, 1/q.Lipschitz()), make([]float64, 10), Settings{
			Mode:        Feedback,
			Accelerator: ampe.Config{WindowSize: 2, MixingParameter: 1},
			Objective:   q,
			Converger:   tracker,
		})
		cancel()
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("stop=%d: err = %v, want context.Canceled", stop, err)
		}
		if res.Status != Canceled || res.Stats.Iterations != stop {
			t.Errorf("stop=%d: status %v after %d iterations", stop, res.Status, res.Stats.Iterations)
		}
		if res.F != tracker.lowest {
			t.Errorf("stop=%d: returned f = %v, lowest seen f = %v", stop, res.F, tracker.lowest)
		}
		if got := q.Func(res.X); got != res.F {
			t.Errorf("stop=%d: f(X) = %v, F = %v", stop, got, res.F)
		}
	}
}

func TestSolveIterationLimitReturnsBestLocation(t *testing.T) {
	q := QuadraticWithCondition(10, 100)
	tracker := &lowestTracker{lowest: math.Inf(1)}
	res, err := Solve(context.Background(), GradientStep(q, 1/q.Lipschitz()), make([]float64, 10), Settings{
		MaxIterations: 30,
		Mode:          Feedback,
		Accelerator:   ampe.Config{WindowSize: 2, MixingParameter: 1},
		Objective:     q,
		Converger:     tracker,
	})
	if !errors.Is(err, ErrMaxIterations) {
		t.Fatalf("err = %v, want ErrMaxIterations", err)
	}
	if res.F != tracker.lowest {
		t.Errorf("returned f = %v, lowest seen f = %v", res.F, tracker.lowest)
	}
	grad := make([]float64, 10)
	q.Grad(grad, res.X)
	if !floats.Equal(grad, res.Gradient) {
		t.Errorf("Gradient does not belong to X")
	}
}

func TestModeText(t *testing.T) {
	for _, m := range []Mode{Plain, Extrapolate, Feedback, Full} {
		text, err := m.MarshalText()
		if err != nil {
			t.Fatalf("%v: %v", m, err)
		}
		var got Mode
		if err := got.UnmarshalText(text); err != nil || got != m {
			t.Errorf("UnmarshalText(%q) = %v, %v, want %v", text, got, err, m)
		}
	}
	if _, err := Mode(42).MarshalText(); !errors.Is(err, ErrUnknownMode) {
		t.Errorf("MarshalText(42): err = %v, want ErrUnknownMode", err)
	}
	var m Mode
	if err := m.UnmarshalText([]byte("turbo")); !errors.Is(err, ErrUnknownMode) {
		t.Errorf("UnmarshalText(turbo): err = %v, want ErrUnknownMode", err)
	}
}

func TestSettingsJSONMode(t *testing.T) {
	data, err := json.Marshal(Settings{Mode: Full, Accelerator: ampe.DefaultConfig()})
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	if raw["mode"] != "full" {
		t.Errorf(`"mode" = %v, want "full"`, raw["mode"])
	}

	var s Settings
	if err := json.Unmarshal([]byte(`{"mode": "extrapolate", "max_iterations": 7}`), &s); err != nil {
		t.Fatal(err)
	}
	if s.Mode != Extrapolate || s.MaxIterations != 7 {
		t.Errorf("decoded %+v", s)
	}
}
