package fixedpoint

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Map computes dst = g(x). dst and x have the same length and do not
// overlap.
type Map func(dst, x []float64)

// Objective is a differentiable function.
type Objective interface {
	Func(x []float64) float64
	Grad(grad, x []float64)
}

// GradientStep returns the map g(x) = x − step·∇f(x).
func GradientStep(obj Objective, step float64) Map {
	return func(dst, x []float64) {
		obj.Grad(dst, x)
		floats.AddScaledTo(dst, x, -step, dst)
	}
}

// Quadratic is f(x) = ½ xᵀAx − bᵀx with diagonal A.
type Quadratic struct {
	Diag []float64 // diagonal of A, all positive
	B    []float64
}

// NewQuadratic returns a Quadratic after checking that diag is positive
// and matches b in length.
func NewQuadratic(diag, b []float64) (*Quadratic, error) {
	if len(diag) == 0 || len(diag) != len(b) {
		return nil, fmt.Errorf("%w: diagonal length %d, b length %d", ErrInvalidProblem, len(diag), len(b))
	}
	for i, a := range diag {
		if !(a > 0) || math.IsInf(a, 0) {
			return nil, fmt.Errorf("%w: diagonal entry %d is %v, want finite and positive", ErrInvalidProblem, i, a)
		}
	}
	return &Quadratic{Diag: diag, B: b}, nil
}

// QuadraticWithCondition returns a dim-dimensional Quadratic whose
// eigenvalues are evenly spaced on [1, kappa], with b = 1.
func QuadraticWithCondition(dim int, kappa float64) *Quadratic {
	diag := make([]float64, dim)
	switch {
	case dim == 1:
		diag[0] = 1
	case dim > 1:
		floats.Span(diag, 1, kappa)
	}
	b := make([]float64, dim)
	for i := range b {
		b[i] = 1
	}
	return &Quadratic{Diag: diag, B: b}
}

func (q *Quadratic) Func(x []float64) float64 {
	var f float64
	for i, xi := range x {
		f += 0.5*q.Diag[i]*xi*xi - q.B[i]*xi
	}
	return f
}

func (q *Quadratic) Grad(grad, x []float64) {
	for i, xi := range x {
		grad[i] = q.Diag[i]*xi - q.B[i]
	}
}

// Minimizer returns A⁻¹b.
func (q *Quadratic) Minimizer() []float64 {
	x := make([]float64, len(q.B))
	floats.DivTo(x, q.B, q.Diag)
	return x
}

// MinValue returns f at the minimizer, −½ bᵀA⁻¹b.
func (q *Quadratic) MinValue() float64 {
	return -0.5 * floats.Dot(q.B, q.Minimizer())
}

// Lipschitz returns the largest eigenvalue of A.
func (q *Quadratic) Lipschitz() float64 {
	return floats.Max(q.Diag)
}

// Condition returns the ratio of the largest to the smallest eigenvalue.
func (q *Quadratic) Condition() float64 {
	return floats.Max(q.Diag) / floats.Min(q.Diag)
}

// Logistic is the ℓ2-regularized logistic regression loss
//
//	f(w) = (1/n) Σ [log(1 + exp(xᵢᵀw)) − yᵢ xᵢᵀw] + (L2/2)‖w‖²
//
// with labels yᵢ in {0, 1} and samples xᵢ in the rows of X.
type Logistic struct {
	X  *mat.Dense
	Y  []float64
	L2 float64
}

// NewLogistic checks shapes and labels and returns a Logistic.
func NewLogistic(x *mat.Dense, y []float64, l2 float64) (*Logistic, error) {
	if x == nil {
		return nil, fmt.Errorf("%w: nil design matrix", ErrInvalidProblem)
	}
	n, _ := x.Dims()
	if n != len(y) {
		return nil, fmt.Errorf("%w: %d samples, %d labels", ErrInvalidProblem, n, len(y))
	}
	for i, v := range y {
		if v != 0 && v != 1 {
			return nil, fmt.Errorf("%w: label %d is %v, want 0 or 1", ErrInvalidProblem, i, v)
		}
	}
	if l2 < 0 {
		return nil, fmt.Errorf("%w: negative regularization %v", ErrInvalidProblem, l2)
	}
	return &Logistic{X: x, Y: y, L2: l2}, nil
}

// Dim returns the number of features.
func (l *Logistic) Dim() int {
	_, d := l.X.Dims()
	return d
}

func (l *Logistic) margins(w []float64) *mat.VecDense {
	n, _ := l.X.Dims()
	z := mat.NewVecDense(n, nil)
	z.MulVec(l.X, mat.NewVecDense(len(w), w))
	return z
}

func (l *Logistic) Func(w []float64) float64 {
	z := l.margins(w)
	n := len(l.Y)
	var loss float64
	for i := 0; i < n; i++ {
		zi := z.AtVec(i)
		loss += softplus(zi) - l.Y[i]*zi
	}
	return loss/float64(n) + 0.5*l.L2*floats.Dot(w, w)
}

func (l *Logistic) Grad(grad, w []float64) {
	z := l.margins(w)
	n := len(l.Y)
	for i := 0; i < n; i++ {
		z.SetVec(i, (sigmoid(z.AtVec(i))-l.Y[i])/float64(n))
	}
	g := mat.NewVecDense(len(grad), grad)
	g.MulVec(l.X.T(), z)
	floats.AddScaled(grad, l.L2, w)
}

// Lipschitz returns an upper bound on the gradient's Lipschitz constant,
// ‖X‖²_F/(4n) + L2.
func (l *Logistic) Lipschitz() float64 {
	n, _ := l.X.Dims()
	norm := mat.Norm(l.X, 2)
	return norm*norm/(4*float64(n)) + l.L2
}

// softplus computes log(1 + eᶻ) without overflow.
func softplus(z float64) float64 {
	return math.Max(z, 0) + math.Log1p(math.Exp(-math.Abs(z)))
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}
