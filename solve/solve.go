// Package solve implements the three interchangeable MDP solvers: backward
// induction, policy iteration, and value iteration. All three share the
// same contract (package mdp's GetPossibleActions/GetTransStatesAndProbs/
// GetValueAndAction) and must agree on the optimal policy up to ties on
// finite deterministic instances.
package solve

import (
	"fmt"

	"github.com/niceyeti/todolist-mdp/mdp"
)

// ConvergenceError marks a solver's failure to reach a well-defined
// answer: a singular linear system in policy iteration. This should not
// occur for gamma < 1 or an acyclic MDP and is fatal with a diagnostic,
// not retried.
type ConvergenceError struct {
	Solver     string
	Diagnostic string
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("%s did not converge: %s", e.Solver, e.Diagnostic)
}

// Solution is the (V, pi) pair every solver produces.
type Solution struct {
	V      map[mdp.State]float64
	Policy map[mdp.State]mdp.Action
}

// Value returns the value at s, defaulting to 0 for terminal/unvisited
// states, matching the Bellman step's own convention.
func (s *Solution) Value(state mdp.State) float64 {
	return s.V[state]
}
