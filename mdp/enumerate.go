package mdp

import "sort"

// EnumerateStates performs forward reachability from the start state and
// returns every reachable state, sorted ascending by (popcount(Done),
// Elapsed), the topological order backward induction and policy iteration
// need: successors strictly follow their predecessors in this order, per
// the transition invariant.
//
// An "eager" enumeration (all 2^N*T states, for backward induction and
// policy iteration) and a "lazy" one (forward reachability from the start
// state, for value iteration) both reduce to the same forward-reachability
// walk here. Unreachable states can never affect V(start), so eagerly
// materializing them is wasted work regardless of which solver consumes
// the result. Backward induction and policy iteration get the same
// reachable set, just pre-sorted for a single reverse sweep or linear
// system indexing.
func (m *MDP) EnumerateStates() []State {
	start := m.GetStartState()
	visited := map[State]struct{}{start: {}}
	queue := []State{start}
	order := []State{start}

	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]

		for _, a := range m.GetPossibleActions(s) {
			transitions, err := m.GetTransStatesAndProbs(s, a)
			if err != nil {
				// GetPossibleActions already guarantees legality.
				continue
			}
			for _, tr := range transitions {
				if _, seen := visited[tr.State]; !seen {
					visited[tr.State] = struct{}{}
					queue = append(queue, tr.State)
					order = append(order, tr.State)
				}
			}
		}
	}

	sort.Slice(order, func(i, j int) bool {
		pi, pj := Popcount(order[i]), Popcount(order[j])
		if pi != pj {
			return pi < pj
		}
		return order[i].Elapsed < order[j].Elapsed
	})

	return order
}
