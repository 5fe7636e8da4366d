package solve

import (
	"gonum.org/v1/gonum/mat"

	"github.com/niceyeti/todolist-mdp/mdp"
)

// PolicyIteration alternates exact policy evaluation (solving the linear
// system (I - gamma*P_pi) V = R_pi) with greedy policy improvement until
// the policy is a fixed point. The evaluation step uses gonum's dense
// solver rather than an iterative approximation, to get an *exact* V
// under the current policy at every iteration.
func PolicyIteration(m *mdp.MDP) (*Solution, error) {
	states := m.EnumerateStates()

	nonTerminal := make([]mdp.State, 0, len(states))
	index := make(map[mdp.State]int, len(states))
	for _, s := range states {
		if !m.IsTerminal(s) {
			index[s] = len(nonTerminal)
			nonTerminal = append(nonTerminal, s)
		}
	}
	n := len(nonTerminal)
	if n == 0 {
		return &Solution{V: map[mdp.State]float64{}, Policy: map[mdp.State]mdp.Action{}}, nil
	}

	// pi0: the first legal (smallest-index) action in every non-terminal
	// state.
	policy := make(map[mdp.State]mdp.Action, n)
	for _, s := range nonTerminal {
		actions := m.GetPossibleActions(s)
		policy[s] = actions[0]
	}

	// Reuse the same backing matrices across iterations to avoid
	// per-iteration allocation.
	a := mat.NewDense(n, n, nil)
	b := mat.NewVecDense(n, nil)
	x := mat.NewVecDense(n, nil)

	gamma := m.Gamma()

	for {
		a.Zero()
		for i := 0; i < n; i++ {
			a.Set(i, i, 1.0)
		}
		b.Zero()

		for i, s := range nonTerminal {
			action := policy[s]
			transitions, err := m.GetTransStatesAndProbs(s, action)
			if err != nil {
				return nil, err
			}
			rowReward := 0.0
			for _, tr := range transitions {
				rowReward += tr.Prob * tr.Reward
				if j, ok := index[tr.State]; ok {
					a.Set(i, j, a.At(i, j)-gamma*tr.Prob)
				}
				// Transitions into a terminal state contribute 0 to
				// gamma*V(s') implicitly, matching the map-default
				// convention used elsewhere.
			}
			b.SetVec(i, rowReward)
		}

		if err := x.SolveVec(a, b); err != nil {
			return nil, &ConvergenceError{Solver: "policy iteration", Diagnostic: err.Error()}
		}

		V := make(map[mdp.State]float64, n)
		for i, s := range nonTerminal {
			V[s] = x.AtVec(i)
		}

		stable := true
		newPolicy := make(map[mdp.State]mdp.Action, n)
		for _, s := range nonTerminal {
			_, action, ok := m.GetValueAndAction(s, V)
			if !ok {
				// Non-terminal states always have a legal action.
				continue
			}
			newPolicy[s] = action
			if action != policy[s] {
				stable = false
			}
		}

		if stable {
			return &Solution{V: V, Policy: policy}, nil
		}
		policy = newPolicy
	}
}
