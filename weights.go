package ampe

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const (
	// maxCond is the largest condition number of the scaled Gram matrix
	// solved through its Cholesky factor.
	maxCond = 1e12

	// svdCutoff drops singular values below svdCutoff·σ_max when the
	// bordered system is solved through the pseudo-inverse.
	svdCutoff = 1e-13
)

// combinationWeights returns α minimizing ‖Fα‖² + λ‖α‖² subject to Σα = 1,
// where the columns of F are cols. All columns must have the same length.
//
// The closed form is α = z / Σz with (FᵀF + λI)z = 1. When the Gram matrix
// is singular or badly conditioned the minimum-norm solution of the
// bordered system
//
//	[G  1] [α]   [0]
//	[1ᵀ 0] [μ] = [1]
//
// is used instead. Both agree whenever G is nonsingular.
func combinationWeights(cols [][]float64, lambda float64) []float64 {
	k := len(cols)
	alpha := make([]float64, k)
	if k == 1 {
		alpha[0] = 1
		return alpha
	}

	// Residuals are rescaled to unit max-norm before forming G so that the
	// Gram matrix cannot overflow. The minimizer is unchanged when λ is
	// rescaled with them.
	var maxAbs float64
	for _, c := range cols {
		maxAbs = math.Max(maxAbs, floats.Norm(c, math.Inf(1)))
	}
	var lam float64
	if lambda > 0 {
		lam = lambda / (maxAbs * maxAbs)
	}
	if maxAbs == 0 || math.IsInf(lam, 1) {
		// Either every residual is zero, and any affine combination
		// reproduces the iterates, or the penalty dominates. The uniform
		// weights have minimum norm.
		return uniform(alpha)
	}
	scaled := make([][]float64, k)
	for j, c := range cols {
		scaled[j] = make([]float64, len(c))
		floats.ScaleTo(scaled[j], 1/maxAbs, c)
	}
	g := residualGram(scaled, lam)

	// The constrained minimizer does not change under positive scaling of G.
	var scale float64
	for i := 0; i < k; i++ {
		scale = math.Max(scale, g.At(i, i))
	}
	if scale == 0 {
		return uniform(alpha)
	}
	g.ScaleSym(1/scale, g)

	if !choleskyWeights(g, alpha) {
		borderedWeights(g, alpha)
	}
	if !normalize(alpha) {
		for i := range alpha {
			alpha[i] = 0
		}
		alpha[k-1] = 1
	}
	return alpha
}

func uniform(alpha []float64) []float64 {
	for i := range alpha {
		alpha[i] = 1 / float64(len(alpha))
	}
	return alpha
}

// residualGram builds G = FᵀF + λI.
func residualGram(cols [][]float64, lambda float64) *mat.SymDense {
	k := len(cols)
	f := mat.NewDense(len(cols[0]), k, nil)
	for j, c := range cols {
		f.SetCol(j, c)
	}
	var g mat.SymDense
	g.SymOuterK(1, f.T())
	if lambda > 0 {
		for i := 0; i < k; i++ {
			g.SetSym(i, i, g.At(i, i)+lambda)
		}
	}
	return &g
}

// choleskyWeights solves Gz = 1 and stores z in alpha.
// It reports false when G is not safely positive definite.
func choleskyWeights(g *mat.SymDense, alpha []float64) bool {
	var chol mat.Cholesky
	if ok := chol.Factorize(g); !ok {
		return false
	}
	if chol.Cond() > maxCond {
		return false
	}
	k := len(alpha)
	ones := make([]float64, k)
	for i := range ones {
		ones[i] = 1
	}
	z := mat.NewVecDense(k, alpha)
	if err := chol.SolveVecTo(z, mat.NewVecDense(k, ones)); err != nil {
		return false
	}
	return true
}

// borderedWeights stores in alpha the minimum-norm least-squares solution
// of the bordered system, computed through an SVD pseudo-inverse.
func borderedWeights(g *mat.SymDense, alpha []float64) {
	k := len(alpha)
	n := k + 1
	kkt := mat.NewDense(n, n, nil)
	for i := 0; i < k; i++ {
		for j := 0; j < k; j++ {
			kkt.Set(i, j, g.At(i, j))
		}
		kkt.Set(i, k, 1)
		kkt.Set(k, i, 1)
	}

	for i := range alpha {
		alpha[i] = 0
	}
	var svd mat.SVD
	if ok := svd.Factorize(kkt, mat.SVDThin); !ok {
		return
	}
	values := svd.Values(nil)
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	// The right-hand side is the last unit vector, so uᵢᵀb = U[k, i].
	cutoff := svdCutoff * values[0]
	for i, s := range values {
		if s <= cutoff {
			break
		}
		c := u.At(k, i) / s
		for j := 0; j < k; j++ {
			alpha[j] += c * v.At(j, i)
		}
	}
}

// normalize scales alpha to sum to one.
// It reports false if that is not possible.
func normalize(alpha []float64) bool {
	sum := floats.Sum(alpha)
	if sum == 0 || math.IsNaN(sum) || math.IsInf(sum, 0) {
		return false
	}
	floats.Scale(1/sum, alpha)
	for _, a := range alpha {
		if math.IsNaN(a) || math.IsInf(a, 0) {
			return false
		}
	}
	return true
}
