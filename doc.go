// Package ampe implements Anderson acceleration, also known as Approximate
// Maximum Polynomial Extrapolation, for fixed-point iterations and
// gradient methods.
//
// An Accelerator keeps a bounded window of recent iterates and combines them
// with weights that minimize a regularized norm of the combined residual.
// The caller owns the iteration: it computes g(x) and hands the result in.
// The fixedpoint subpackage provides a ready-made driver loop.
//
// Basic usage:
//
//	acc, err := ampe.New(ampe.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for !converged(x) {
//	    y := gradientStep(x)
//	    xBar, err := acc.Accelerate(y)
//	    ...
//	}
package ampe
