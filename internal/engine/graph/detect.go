package graph

import "sort"

// DetectCycles returns each import cycle once, starting at the module where
// the depth-first walk entered it. Modules and neighbours are visited in
// name order so the result is stable.
func (g *Graph) DetectCycles() [][]string {
	var cycles [][]string
	visited := make(map[string]bool)
	onStack := make(map[string]bool)

	for _, m := range g.tree.Modules() {
		if !visited[m.Name] {
			g.findCycles(m.Name, visited, onStack, nil, &cycles)
		}
	}
	sort.SliceStable(cycles, func(i, j int) bool { return cycles[i][0] < cycles[j][0] })
	return cycles
}

func (g *Graph) findCycles(curr string, visited, onStack map[string]bool, path []string, cycles *[][]string) {
	visited[curr] = true
	onStack[curr] = true
	path = append(path, curr)

	for _, next := range sortedSet(g.imports[curr]) {
		if onStack[next] {
			for i, mod := range path {
				if mod == next {
					cycle := make([]string, len(path)-i)
					copy(cycle, path[i:])
					*cycles = append(*cycles, cycle)
					break
				}
			}
		} else if !visited[next] {
			g.findCycles(next, visited, onStack, path, cycles)
		}
	}

	onStack[curr] = false
}

// FindImportChain returns the shortest import path from one module to
// another, both ends included.
func (g *Graph) FindImportChain(from, to string) ([]string, bool) {
	if g.tree.Module(from) == nil || g.tree.Module(to) == nil {
		return nil, false
	}
	if from == to {
		return []string{from}, true
	}

	queue := []string{from}
	visited := map[string]bool{from: true}
	prev := make(map[string]string)

	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]

		for _, next := range sortedSet(g.imports[curr]) {
			if visited[next] {
				continue
			}
			visited[next] = true
			prev[next] = curr

			if next == to {
				path := []string{to}
				for node := to; node != from; {
					node = prev[node]
					path = append(path, node)
				}
				for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
					path[i], path[j] = path[j], path[i]
				}
				return path, true
			}
			queue = append(queue, next)
		}
	}
	return nil, false
}
