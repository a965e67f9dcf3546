package lm

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/lidar-slam/internal/slam/residual"
	"github.com/banshee-data/lidar-slam/internal/slam/types"
)

// Options controls one LM minimization run.
type Options struct {
	MaxIterations      int
	MaxTranslationNorm float64 // divergence guard; <=0 disables the check
	InitialLambda      float64
	GradientTolerance  float64
	StepTolerance      float64
}

// DefaultOptions returns conservative defaults used when a caller
// doesn't override them.
func DefaultOptions() Options {
	return Options{
		MaxIterations:      15,
		MaxTranslationNorm: 0,
		InitialLambda:      1e-3,
		GradientTolerance:  1e-9,
		StepTolerance:      1e-10,
	}
}

// Result is the outcome of a Solve call.
type Result struct {
	Pose       types.Pose
	Iterations int
	Diverged   bool
	Cause      types.RejectionCause
}

// Solve minimizes Σ w*(R(t)*X+T(t)-P)^T A (R(t)*X+T(t)-P) over the 6-DoF
// pose, starting from initial, using Levenberg-Marquardt with analytic
// Jacobians (see jacobian.go). Returns Diverged=true when the normal
// equations become singular (every damped solve of an iteration fails)
// or the solution's translation exceeds MaxTranslationNorm, in which
// case Pose equals initial unchanged.
func Solve(terms []residual.Term, initial types.Pose, opts Options) Result {
	if len(terms) == 0 {
		return Result{Pose: initial, Cause: types.InsufficientNeighbors, Diverged: true}
	}

	pose := initial
	lambda := opts.InitialLambda
	if lambda <= 0 {
		lambda = 1e-3
	}

	prevCost, _ := computeCost(terms, pose)

	for iter := 0; iter < opts.MaxIterations; iter++ {
		H, g := accumulateNormalEquations(terms, pose)

		gradNorm := mat.Norm(g, 2)
		if gradNorm < opts.GradientTolerance {
			return Result{Pose: pose, Iterations: iter, Diverged: false}
		}

		// Try increasing damping until a step improves the cost or we
		// give up for this iteration.
		improved := false
		solved := false
		for attempt := 0; attempt < 10; attempt++ {
			damped := dampedHessian(H, lambda)

			var dx mat.VecDense
			if err := dx.SolveVec(damped, g); err != nil {
				lambda *= 10
				continue
			}
			solved = true
			// g is the gradient of 0.5*residual^2 accumulation; the
			// descent step is -H^-1 * g.
			step := [6]float64{-dx.AtVec(0), -dx.AtVec(1), -dx.AtVec(2), -dx.AtVec(3), -dx.AtVec(4), -dx.AtVec(5)}

			stepNorm := vec6Norm(step)
			if stepNorm < opts.StepTolerance {
				return Result{Pose: pose, Iterations: iter, Diverged: false}
			}

			candidate := applyStep(pose, step)
			if opts.MaxTranslationNorm > 0 && translationDelta(candidate, initial) > opts.MaxTranslationNorm {
				return Result{Pose: initial, Iterations: iter, Diverged: true, Cause: types.Diverged}
			}

			cost, ok := computeCost(terms, candidate)
			if !ok {
				return Result{Pose: initial, Iterations: iter, Diverged: true, Cause: types.Singular}
			}
			if cost < prevCost {
				pose = candidate
				prevCost = cost
				lambda /= 10
				improved = true
				break
			}
			lambda *= 10
		}

		if !solved {
			return Result{Pose: initial, Iterations: iter, Diverged: true, Cause: types.Singular}
		}
		if !improved {
			return Result{Pose: pose, Iterations: iter, Diverged: false}
		}
	}

	return Result{Pose: pose, Iterations: opts.MaxIterations, Diverged: false}
}

func accumulateNormalEquations(terms []residual.Term, pose types.Pose) (*mat.SymDense, *mat.VecDense) {
	H := mat.NewSymDense(6, nil)
	g := mat.NewVecDense(6, nil)

	for _, term := range terms {
		if term.W <= 0 {
			continue
		}
		e, J := residualAndJacobian(pose, term)

		// AJ[k] = A * J[:,k] (3-vector), Ae = A * e
		var AJ [6][3]float64
		var Ae [3]float64
		for i := 0; i < 3; i++ {
			for k := 0; k < 6; k++ {
				var sum float64
				for j := 0; j < 3; j++ {
					sum += term.A[i][j] * J[j][k]
				}
				AJ[k][i] = sum
			}
			var sum float64
			for j := 0; j < 3; j++ {
				sum += term.A[i][j] * e[j]
			}
			Ae[i] = sum
		}

		for a := 0; a < 6; a++ {
			var ga float64
			for i := 0; i < 3; i++ {
				ga += J[i][a] * Ae[i]
			}
			g.SetVec(a, g.AtVec(a)+term.W*ga)

			for b := a; b < 6; b++ {
				var hab float64
				for i := 0; i < 3; i++ {
					hab += J[i][a] * AJ[b][i]
				}
				H.SetSym(a, b, H.At(a, b)+term.W*hab)
			}
		}
	}

	return H, g
}

func dampedHessian(H *mat.SymDense, lambda float64) *mat.SymDense {
	n, _ := H.Dims()
	out := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			v := H.At(i, j)
			if i == j {
				v += lambda * v
				if v == 0 {
					v = lambda
				}
			}
			out.SetSym(i, j, v)
		}
	}
	return out
}

func computeCost(terms []residual.Term, pose types.Pose) (float64, bool) {
	cost := 0.0
	for _, term := range terms {
		if term.W <= 0 {
			continue
		}
		e, _ := residualAndJacobian(pose, term)
		var Ae [3]float64
		for i := 0; i < 3; i++ {
			var sum float64
			for j := 0; j < 3; j++ {
				sum += term.A[i][j] * e[j]
			}
			Ae[i] = sum
		}
		var eAe float64
		for i := 0; i < 3; i++ {
			eAe += e[i] * Ae[i]
		}
		cost += term.W * eAe
	}
	if math.IsNaN(cost) {
		return 0, false
	}
	return cost, true
}

func applyStep(pose types.Pose, step [6]float64) types.Pose {
	v := pose.Vector6()
	for i := range v {
		v[i] += step[i]
	}
	return types.PoseFromVector6(v)
}

// translationDelta returns the translation distance candidate has moved
// from initial, the quantity the divergence guard bounds. Comparing
// against initial rather than the origin lets the same guard serve both
// ego-motion (initial is identity, so this equals absolute translation
// norm) and map refinement (initial is the absolute Tworld seed, so a
// runaway step is caught regardless of how far the trajectory has
// already travelled from the origin).
func translationDelta(candidate, initial types.Pose) float64 {
	dx := candidate.TX - initial.TX
	dy := candidate.TY - initial.TY
	dz := candidate.TZ - initial.TZ
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

func vec6Norm(v [6]float64) float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}
