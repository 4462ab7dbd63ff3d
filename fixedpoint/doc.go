// Package fixedpoint runs fixed-point iterations x ← g(x), optionally
// accelerated with the ampe package.
//
// It provides:
//
//   - [Solve], the iteration driver, with four [Mode] values: plain
//     iteration, offline extrapolation of the plain sequence, feedback of
//     the extrapolated point, and full two-sequence Anderson acceleration.
//
//   - Convergence criteria ([GradientThreshold], [ObjectiveGap],
//     [StepThreshold]) that decide when to stop.
//
//   - Objectives for experiments: a diagonal [Quadratic] with a chosen
//     condition number and ℓ2-regularized [Logistic] regression, together
//     with [GradientStep] to turn an objective into a map.
//
// # Usage
//
//	q := fixedpoint.QuadraticWithCondition(10, 100)
//	res, err := fixedpoint.Solve(ctx, fixedpoint.GradientStep(q, 1/q.Lipschitz()),
//	    make([]float64, 10), fixedpoint.Settings{
//	        Mode:        fixedpoint.Extrapolate,
//	        Accelerator: ampe.Config{WindowSize: 2, MixingParameter: 1},
//	        Objective:   q,
//	        Converger:   fixedpoint.ObjectiveGap{Optimum: q.MinValue(), Threshold: 1e-8},
//	    })
package fixedpoint
