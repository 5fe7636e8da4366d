package solve

import "github.com/niceyeti/todolist-mdp/mdp"

// BackwardInduction performs a single reverse-topological sweep: states
// are visited in descending (popcount, elapsed) order, so every
// successor of a state has already been assigned its final value by the
// time the state itself is processed. This is only correct when the MDP
// is a DAG, which package mdp guarantees (every transition strictly
// increases (popcount, elapsed)).
func BackwardInduction(m *mdp.MDP) (*Solution, error) {
	states := m.EnumerateStates() // ascending (popcount, elapsed)

	V := make(map[mdp.State]float64, len(states))
	policy := make(map[mdp.State]mdp.Action, len(states))

	for i := len(states) - 1; i >= 0; i-- {
		s := states[i]
		value, action, ok := m.GetValueAndAction(s, V)
		if ok {
			V[s] = value
			policy[s] = action
		}
		// Terminal states are left out of V; the Bellman step's map
		// lookup convention (missing key => 0) makes this correct for
		// every predecessor that refers to them.
	}

	return &Solution{V: V, Policy: policy}, nil
}
