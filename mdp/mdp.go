// Package mdp builds the Markov Decision Process a ToDoList induces: states,
// legal actions, transitions, rewards, and the shared Bellman operation the
// three solvers in package solve all sit on top of.
package mdp

import (
	"fmt"
	"math/bits"

	"github.com/niceyeti/todolist-mdp/domain"
	"github.com/niceyeti/todolist-mdp/todolist"
)

// ContractError marks a violation of the MDP's operating contract: an
// illegal action, a task count beyond the 64-bit completion mask, or a
// GetReward query for a state that is not a successor. An empty task list
// is not an error (its start state is terminal). These indicate a caller
// bug and are never retried.
type ContractError struct {
	Op     string
	Reason string
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("mdp contract violation in %s: %s", e.Op, e.Reason)
}

// State is the pair (completion mask, elapsed time) a trajectory occupies.
//
// Done tracks which tasks have been resolved one way or another (succeeded,
// failed, or auto-resolved as "free" once their goal is doomed). Fail
// tracks which of those were outright failures. A goal is doomed in a state
// iff Fail intersects any of its task bits; by construction every legal
// action's owning goal is never already doomed (see successor).
//
// This is the two-bitmask encoding this implementation commits to for the
// ambiguous "failed task" treatment the source leaves inconsistent: a
// failure collects its goal's penalty exactly once, at the moment of
// failure, and immediately marks the goal's remaining tasks Done (but not
// Fail) for free, so no further action is ever required or possible on a
// doomed goal. This keeps the completion mask alone sufficient to
// determine terminality (Invariant: is_terminal(s) iff Done is all ones),
// and every transition strictly increases (popcount(Done), Elapsed) in
// lexicographic order, satisfying the successor-ordering invariant even
// though a single failure transition can set more than one bit.
//
// Supports up to 64 tasks; larger instances are a known, documented
// scalability limit (see design notes), not handled here.
type State struct {
	Done    uint64
	Fail    uint64
	Elapsed int
}

// Action selects the next task to attempt: an index into the ToDoList.
type Action int

// MDP is built once from a ToDoList and is immutable thereafter; V and pi
// computed by a solver are said to "live" as long as the MDP (per the
// owning solver, not stored here).
type MDP struct {
	list  *todolist.ToDoList
	gamma float64
	n     int
	// goalMask[gi] is the bitmask of task indices owned by goal gi.
	goalMask []uint64
}

// New builds an MDP over list with discount factor gamma. gamma <= 0
// defaults to 1.0 (undiscounted), per the domain's default.
func New(list *todolist.ToDoList, gamma float64) (*MDP, error) {
	n := list.NumTasks()
	if n > 64 {
		return nil, &ContractError{Op: "New", Reason: "task count exceeds the 64-bit completion mask this implementation supports"}
	}
	if gamma <= 0 {
		gamma = 1.0
	}

	goals := list.GetGoals()
	goalMask := make([]uint64, len(goals))
	for gi := range goals {
		var mask uint64
		for _, idx := range list.IndicesOf(gi) {
			mask |= 1 << uint(idx)
		}
		goalMask[gi] = mask
	}

	return &MDP{list: list, gamma: gamma, n: n, goalMask: goalMask}, nil
}

// Gamma returns the discount factor.
func (m *MDP) Gamma() float64 {
	return m.gamma
}

// NumTasks returns the number of tasks (and thus the number of actions).
func (m *MDP) NumTasks() int {
	return m.n
}

// GetStartState returns the trajectory's initial state: nothing done, zero
// elapsed time. If the ToDoList is empty, the start state is already
// terminal with value 0, per the documented failure mode.
func (m *MDP) GetStartState() State {
	return State{Done: 0, Fail: 0, Elapsed: m.list.StartTime()}
}

// IsTerminal reports whether s has no legal actions remaining.
func (m *MDP) IsTerminal(s State) bool {
	return len(m.GetPossibleActions(s)) == 0
}

// GetPossibleActions returns the legal actions in s: task indices whose
// Done bit is unset, in ascending order.
func (m *MDP) GetPossibleActions(s State) []Action {
	actions := make([]Action, 0, m.n)
	for i := 0; i < m.n; i++ {
		if s.Done&(1<<uint(i)) == 0 {
			actions = append(actions, Action(i))
		}
	}
	return actions
}

// successor computes the (state, reward) pair for a single branch (success
// or failure) of attempting action a from state s.
func (m *MDP) successor(s State, a Action, success bool) (State, float64) {
	i := uint(a)
	task := m.list.TaskAt(int(a))
	tPrime := s.Elapsed + task.TimeEst

	if success {
		newDone := s.Done | (1 << i)
		reward := 0.0
		if goal, ok := m.list.GoalOf(int(a)); ok {
			gi := m.list.GoalIndexOf(int(a))
			if newDone&m.goalMask[gi] == m.goalMask[gi] {
				// Every task of this goal is now Done, and (by the
				// legality invariant on a) the goal was not already
				// doomed, so no task of it has Fail set: it is a clean
				// completion.
				reward = goal.GetReward(tPrime)
			}
		}
		return State{Done: newDone, Fail: s.Fail, Elapsed: tPrime}, reward
	}

	// Failure: mark this task Done+Fail, and free every other un-Done
	// task of the same goal (they become moot, zero-cost, zero-reward).
	newDone := s.Done | (1 << i)
	newFail := s.Fail | (1 << i)
	reward := 0.0
	if gi := m.list.GoalIndexOf(int(a)); gi >= 0 {
		reward = m.goalPenalty(gi)
		newDone |= m.goalMask[gi]
	}
	return State{Done: newDone, Fail: newFail, Elapsed: tPrime}, reward
}

func (m *MDP) goalPenalty(gi int) float64 {
	return m.list.GetGoals()[gi].Penalty
}

// Transition is one (successor state, probability) pair.
type Transition struct {
	State  State
	Prob   float64
	Reward float64
}

// GetTransStatesAndProbs returns the successor states reachable from s by
// action a, with their probabilities. Deterministic tasks (prob == 1)
// yield a single successor; probabilistic tasks yield both the success and
// failure branches.
func (m *MDP) GetTransStatesAndProbs(s State, a Action) ([]Transition, error) {
	if !m.legal(s, a) {
		return nil, &ContractError{Op: "GetTransStatesAndProbs", Reason: fmt.Sprintf("action %d illegal in state with done mask %b", a, s.Done)}
	}

	task := m.list.TaskAt(int(a))
	successState, successReward := m.successor(s, a, true)
	transitions := []Transition{{State: successState, Prob: task.Prob, Reward: successReward}}
	if task.Prob < 1.0 {
		failState, failReward := m.successor(s, a, false)
		transitions = append(transitions, Transition{State: failState, Prob: 1.0 - task.Prob, Reward: failReward})
	}
	return transitions, nil
}

// GetReward returns the reward for a specific (s, a, s') edge. It is
// derived by recomputing the matching branch of GetTransStatesAndProbs;
// callers that already hold the transition list should prefer its Reward
// field.
func (m *MDP) GetReward(s State, a Action, sPrime State) (float64, error) {
	transitions, err := m.GetTransStatesAndProbs(s, a)
	if err != nil {
		return 0, err
	}
	for _, tr := range transitions {
		if tr.State == sPrime {
			return tr.Reward, nil
		}
	}
	return 0, &ContractError{Op: "GetReward", Reason: "sPrime is not a successor of (s, a)"}
}

func (m *MDP) legal(s State, a Action) bool {
	i := int(a)
	if i < 0 || i >= m.n {
		return false
	}
	return s.Done&(1<<uint(i)) == 0
}

// GetQValue returns Q(s,a) = sum over s' of P(s'|s,a) * (R(s,a,s') + gamma*V(s')).
// V is looked up by value; missing entries default to the Go zero value,
// which is correct for not-yet-visited or terminal states.
func (m *MDP) GetQValue(s State, a Action, V map[State]float64) (float64, error) {
	transitions, err := m.GetTransStatesAndProbs(s, a)
	if err != nil {
		return 0, err
	}
	q := 0.0
	for _, tr := range transitions {
		q += tr.Prob * (tr.Reward + m.gamma*V[tr.State])
	}
	return q, nil
}

// GetValueAndAction is the shared Bellman step: the max over legal actions
// of Q(s,a), breaking ties toward the smallest action index. Returns
// ok=false at a terminal state (value is then defined to be 0, per the
// design: every goal's reward or penalty is collected along the way, so a
// terminal state never carries an unresolved obligation).
func (m *MDP) GetValueAndAction(s State, V map[State]float64) (value float64, action Action, ok bool) {
	actions := m.GetPossibleActions(s)
	if len(actions) == 0 {
		return 0, 0, false
	}

	best := 0
	bestQ, _ := m.GetQValue(s, actions[0], V)
	for i := 1; i < len(actions); i++ {
		q, _ := m.GetQValue(s, actions[i], V)
		if q > bestQ {
			bestQ = q
			best = i
		}
	}
	return bestQ, actions[best], true
}

// GetExpectedPseudoReward returns PR(s,a) = Q(s,a) - V(s), the advantage of
// choosing a in s. If transformed is true, the caller is expected to run
// the result through package rewardscale; this function always returns the
// raw, unscaled advantage (scaling never affects policy, so it does not
// belong here).
func (m *MDP) GetExpectedPseudoReward(s State, a Action, V map[State]float64, transformed bool) (float64, error) {
	q, err := m.GetQValue(s, a, V)
	if err != nil {
		return 0, err
	}
	return q - V[s], nil
}

// Popcount is a small helper exposed for solvers that need the eager
// topological sort key directly.
func Popcount(s State) int {
	return bits.OnesCount64(s.Done)
}

// Goals returns the goals backing this MDP's ToDoList.
func (m *MDP) Goals() []domain.Goal {
	return m.list.GetGoals()
}

// List returns the backing ToDoList (read-only by convention; the day
// packer and solvers only read from it).
func (m *MDP) List() *todolist.ToDoList {
	return m.list
}
