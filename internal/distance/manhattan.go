package distance

import (
	"ride-dispatch/internal/models"
)

// Manhattan returns the grid distance between a and b
func Manhattan(a, b models.Point) int {
	return a.DistanceTo(b)
}

// PathLength sums the legs between consecutive points
func PathLength(path []models.Point) int {
	total := 0
	for i := 1; i < len(path); i++ {
		total += Manhattan(path[i-1], path[i])
	}
	return total
}

// Matrix holds precomputed pairwise distances for an indexed point list
type Matrix struct {
	n     int
	cells []int
}

// NewMatrix computes all pairwise distances for points
func NewMatrix(points []models.Point) *Matrix {
	n := len(points)
	m := &Matrix{n: n, cells: make([]int, n*n)}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := Manhattan(points[i], points[j])
			m.cells[i*n+j] = d
			m.cells[j*n+i] = d
		}
	}
	return m
}

// Get returns the distance between point i and point j
func (m *Matrix) Get(i, j int) int {
	return m.cells[i*m.n+j]
}

// Size returns the number of points in the matrix
func (m *Matrix) Size() int {
	return m.n
}
