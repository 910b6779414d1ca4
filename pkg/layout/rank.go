package layout

import (
	"sort"
	"strings"
)

// base is the structural part of a layout: ranks and in-rank order. It is
// shared through the cache and must not be modified once built.
type base struct {
	rank  map[string]int
	ranks [][]string
}

type link struct {
	source, target string
}

// signature identifies a graph structure. order is the input node order and
// links must be sorted.
func signature(order []string, links []link) string {
	var sb strings.Builder
	for _, id := range order {
		sb.WriteString(id)
		sb.WriteByte('\n')
	}
	sb.WriteByte(0)
	for _, l := range links {
		sb.WriteString(l.source)
		sb.WriteByte('>')
		sb.WriteString(l.target)
		sb.WriteByte('\n')
	}
	return sb.String()
}

func sortLinks(links []link) {
	sort.Slice(links, func(i, j int) bool {
		if links[i].source != links[j].source {
			return links[i].source < links[j].source
		}
		return links[i].target < links[j].target
	})
}

// buildBase ranks nodes by longest path from the sources after dropping the
// back edges a DFS finds, then orders each rank by predecessor barycenter.
// order is the input node order; ties are otherwise broken by id.
func buildBase(order []string, links []link) *base {
	ids := append([]string(nil), order...)
	sort.Strings(ids)

	out := make(map[string][]string, len(ids))
	indeg := make(map[string]int, len(ids))
	for _, l := range links {
		out[l.source] = append(out[l.source], l.target)
		indeg[l.target]++
	}

	dag := breakCycles(ids, order, out, indeg)

	rank := longestPathRanks(ids, dag)

	maxRank := 0
	for _, r := range rank {
		if r > maxRank {
			maxRank = r
		}
	}
	ranks := make([][]string, maxRank+1)
	for _, id := range ids {
		ranks[rank[id]] = append(ranks[rank[id]], id)
	}

	preds := make(map[string][]string, len(ids))
	for _, src := range ids {
		for _, dst := range dag[src] {
			preds[dst] = append(preds[dst], src)
		}
	}

	pos := make(map[string]int, len(ids))
	for r, members := range ranks {
		if r > 0 {
			bary := make(map[string]float64, len(members))
			for _, id := range members {
				sum := 0.0
				for _, p := range preds[id] {
					sum += float64(pos[p])
				}
				if n := len(preds[id]); n > 0 {
					bary[id] = sum / float64(n)
				}
			}
			sort.SliceStable(members, func(i, j int) bool {
				bi, bj := bary[members[i]], bary[members[j]]
				if bi != bj {
					return bi < bj
				}
				return members[i] < members[j]
			})
		}
		for i, id := range members {
			pos[id] = i
		}
	}

	return &base{rank: rank, ranks: ranks}
}

// breakCycles returns the adjacency without DFS back edges. Traversal starts
// from the sources in id order so authored loops, such as a remedial path
// returning to an earlier activity, are the edges that get dropped. Cycles
// without any source are entered at their first node in input order.
func breakCycles(ids, order []string, out map[string][]string, indeg map[string]int) map[string][]string {
	const (
		unvisited = 0
		visiting  = 1
		visited   = 2
	)

	state := make(map[string]int, len(ids))
	dag := make(map[string][]string, len(ids))

	var dfs func(id string)
	dfs = func(id string) {
		state[id] = visiting
		for _, next := range out[id] {
			switch state[next] {
			case visiting:
				continue
			case unvisited:
				dag[id] = append(dag[id], next)
				dfs(next)
			default:
				dag[id] = append(dag[id], next)
			}
		}
		state[id] = visited
	}

	for _, id := range ids {
		if indeg[id] == 0 && state[id] == unvisited {
			dfs(id)
		}
	}
	for _, id := range order {
		if state[id] == unvisited {
			dfs(id)
		}
	}
	return dag
}

// longestPathRanks assigns each node the length of the longest path from a
// source using Kahn's algorithm.
func longestPathRanks(ids []string, dag map[string][]string) map[string]int {
	indeg := make(map[string]int, len(ids))
	for _, id := range ids {
		for _, next := range dag[id] {
			indeg[next]++
		}
	}

	rank := make(map[string]int, len(ids))
	queue := make([]string, 0, len(ids))
	for _, id := range ids {
		rank[id] = 0
		if indeg[id] == 0 {
			queue = append(queue, id)
		}
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, next := range dag[current] {
			if rank[current]+1 > rank[next] {
				rank[next] = rank[current] + 1
			}
			indeg[next]--
			if indeg[next] == 0 {
				queue = append(queue, next)
			}
		}
	}
	return rank
}
