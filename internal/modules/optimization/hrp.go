package optimization

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/quantfolio/quantcore/internal/domain"
)

// hierarchicalRiskParity allocates without inverting the covariance matrix:
// cluster assets by correlation distance, order them along the dendrogram,
// then split risk top-down between the two halves of each cluster in inverse
// proportion to their variances.
func hierarchicalRiskParity(tickers []string, cov, corr *mat.SymDense) ([]float64, error) {
	n := len(tickers)
	if n == 0 {
		return nil, domain.ErrInsufficientData
	}
	if n == 1 {
		return []float64{1}, nil
	}

	order := quasiDiagonalOrder(corr)

	weights := make([]float64, n)
	for i := range weights {
		weights[i] = 1
	}

	stack := [][]int{order}
	for len(stack) > 0 {
		cluster := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if len(cluster) < 2 {
			continue
		}

		split := len(cluster) / 2
		left, right := cluster[:split], cluster[split:]

		leftVar := clusterVariance(cov, left)
		rightVar := clusterVariance(cov, right)

		alpha := 0.5
		if leftVar+rightVar > 0 {
			alpha = 1 - leftVar/(leftVar+rightVar)
		}

		for _, i := range left {
			weights[i] *= alpha
		}
		for _, i := range right {
			weights[i] *= 1 - alpha
		}

		stack = append(stack, left, right)
	}

	total := 0.0
	for _, w := range weights {
		total += w
	}
	if total <= 0 || math.IsNaN(total) {
		return nil, domain.NumericalError(string(MethodHRP), "degenerate cluster variances")
	}
	for i := range weights {
		weights[i] /= total
	}

	return weights, nil
}

// quasiDiagonalOrder runs single-linkage clustering on correlation distance
// and returns the dendrogram leaf order, which places similar assets next to
// each other.
func quasiDiagonalOrder(corr *mat.SymDense) []int {
	n := corr.SymmetricDim()

	dist := func(i, j int) float64 {
		c := corr.At(i, j)
		if c > 1 {
			c = 1
		} else if c < -1 {
			c = -1
		}
		return math.Sqrt(0.5 * (1 - c))
	}

	// Each cluster keeps its member leaves in dendrogram order.
	clusters := make([][]int, n)
	for i := 0; i < n; i++ {
		clusters[i] = []int{i}
	}

	linkage := func(a, b []int) float64 {
		best := math.Inf(1)
		for _, i := range a {
			for _, j := range b {
				if d := dist(i, j); d < best {
					best = d
				}
			}
		}
		return best
	}

	for len(clusters) > 1 {
		bestA, bestB := 0, 1
		bestDist := math.Inf(1)
		for a := 0; a < len(clusters); a++ {
			for b := a + 1; b < len(clusters); b++ {
				if d := linkage(clusters[a], clusters[b]); d < bestDist {
					bestDist = d
					bestA, bestB = a, b
				}
			}
		}

		merged := append(append([]int{}, clusters[bestA]...), clusters[bestB]...)
		clusters[bestA] = merged
		clusters = append(clusters[:bestB], clusters[bestB+1:]...)
	}

	return clusters[0]
}

// clusterVariance is the variance of the cluster under inverse-variance
// member weights, the allocation HRP uses inside a cluster.
func clusterVariance(cov *mat.SymDense, members []int) float64 {
	weights := make([]float64, len(members))
	total := 0.0
	for k, i := range members {
		v := cov.At(i, i)
		if v <= 0 {
			v = 1e-12
		}
		weights[k] = 1 / v
		total += weights[k]
	}
	for k := range weights {
		weights[k] /= total
	}

	variance := 0.0
	for a, i := range members {
		for b, j := range members {
			variance += weights[a] * cov.At(i, j) * weights[b]
		}
	}
	return variance
}
