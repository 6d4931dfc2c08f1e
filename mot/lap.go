package mot

import "math"

// smallBlockSize is the largest block (by its longer side) solved with go-hungarian.
// Its recursive search grows too fast beyond a handful of rows, so larger blocks
// go through solveLinearAssignment.
const smallBlockSize = 6

// assignmentBlock is a connected group of rows and columns of IoU matrix.
// Rows and columns of different blocks never share a pair passing the gate.
type assignmentBlock struct {
	rows []int
	cols []int
}

// splitAssignmentBlocks groups rows and columns linked by pairs with IoU >= minIoU.
// Rows and columns without such pairs belong to no block.
func splitAssignmentBlocks(iouMatrix [][]float64, minIoU float64) []assignmentBlock {
	numRows := len(iouMatrix)
	if numRows == 0 {
		return nil
	}
	numCols := len(iouMatrix[0])
	// Union-find over rows [0, numRows) and columns [numRows, numRows+numCols)
	parent := make([]int, numRows+numCols)
	for i := range parent {
		parent[i] = i
	}
	find := func(x int) int {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}
	linked := make([]bool, numRows+numCols)
	for i, row := range iouMatrix {
		for j, iouVal := range row {
			if iouVal <= 0 || iouVal < minIoU {
				continue
			}
			linked[i] = true
			linked[numRows+j] = true
			a, b := find(i), find(numRows+j)
			if a != b {
				parent[a] = b
			}
		}
	}

	blockOf := make(map[int]int)
	blocks := make([]assignmentBlock, 0)
	for node := range parent {
		if !linked[node] {
			continue
		}
		root := find(node)
		idx, ok := blockOf[root]
		if !ok {
			idx = len(blocks)
			blockOf[root] = idx
			blocks = append(blocks, assignmentBlock{})
		}
		if node < numRows {
			blocks[idx].rows = append(blocks[idx].rows, node)
		} else {
			blocks[idx].cols = append(blocks[idx].cols, node-numRows)
		}
	}
	return blocks
}

// solveLinearAssignment finds the assignment of rows to columns with the minimum total cost
// by shortest augmenting paths with potentials (Jonker-Volgenant style), O(n^2 * m).
// The matrix must have at least as many columns as rows.
// Returns column for every row.
func solveLinearAssignment(cost [][]float64) []int {
	n := len(cost)
	if n == 0 {
		return []int{}
	}
	m := len(cost[0])
	// 1-based indexing, index 0 is a virtual column
	u := make([]float64, n+1)
	v := make([]float64, m+1)
	owner := make([]int, m+1)
	way := make([]int, m+1)
	minv := make([]float64, m+1)
	used := make([]bool, m+1)
	for i := 1; i <= n; i++ {
		owner[0] = i
		j0 := 0
		for j := range minv {
			minv[j] = math.Inf(1)
			used[j] = false
		}
		for {
			used[j0] = true
			i0 := owner[j0]
			delta := math.Inf(1)
			j1 := 0
			for j := 1; j <= m; j++ {
				if used[j] {
					continue
				}
				cur := cost[i0-1][j-1] - u[i0] - v[j]
				if cur < minv[j] {
					minv[j] = cur
					way[j] = j0
				}
				if minv[j] < delta {
					delta = minv[j]
					j1 = j
				}
			}
			for j := 0; j <= m; j++ {
				if used[j] {
					u[owner[j]] += delta
					v[j] -= delta
				} else {
					minv[j] -= delta
				}
			}
			j0 = j1
			if owner[j0] == 0 {
				break
			}
		}
		for j0 != 0 {
			j1 := way[j0]
			owner[j0] = owner[j1]
			j0 = j1
		}
	}
	assignment := make([]int, n)
	for j := 1; j <= m; j++ {
		if owner[j] != 0 {
			assignment[owner[j]-1] = j - 1
		}
	}
	return assignment
}

// maximizeIoUAssignment solves maximum total IoU assignment for a matrix of any shape.
// Returns pairs {row, column}.
func maximizeIoUAssignment(iouMatrix [][]float64) [][2]int {
	numRows := len(iouMatrix)
	if numRows == 0 || len(iouMatrix[0]) == 0 {
		return [][2]int{}
	}
	numCols := len(iouMatrix[0])
	transposed := numRows > numCols
	rows, cols := numRows, numCols
	if transposed {
		rows, cols = numCols, numRows
	}
	cost := make([][]float64, rows)
	for i := range cost {
		cost[i] = make([]float64, cols)
		for j := range cost[i] {
			if transposed {
				cost[i][j] = -iouMatrix[j][i]
			} else {
				cost[i][j] = -iouMatrix[i][j]
			}
		}
	}
	assignment := solveLinearAssignment(cost)
	pairs := make([][2]int, 0, rows)
	for i, j := range assignment {
		if transposed {
			pairs = append(pairs, [2]int{j, i})
		} else {
			pairs = append(pairs, [2]int{i, j})
		}
	}
	return pairs
}
