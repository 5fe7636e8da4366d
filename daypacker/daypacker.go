// Package daypacker converts a solved MDP's policy into an ordered,
// time-bounded today-list: the user's pinned tasks first, then a greedy
// fill by descending Q-value.
package daypacker

import (
	"fmt"
	"sort"

	"github.com/niceyeti/todolist-mdp/mdp"
	"github.com/niceyeti/todolist-mdp/solve"
)

// ContractError mirrors package mdp's contract violations for day-packing
// specific failures: a pinned task id that does not name a legal action
// from the current walk position.
type ContractError struct {
	Reason string
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("daypacker contract violation: %s", e.Reason)
}

// Item is one scheduled entry in the resulting today-list: the action
// taken and its pseudo-reward at the moment it was chosen.
type Item struct {
	Action       mdp.Action
	PseudoReward float64
}

// Pack walks sol's policy from the MDP's start state, first honoring
// pinned task descriptions in order (today_tasks), then greedily filling
// the remaining duration by descending Q-value, until no further action
// fits or none remain. Bookkeeping always follows the deterministic
// success branch of a chosen action, treating it as if deterministic for
// accounting purposes. This never affects V or pi, which already account
// for failure probability.
func Pack(m *mdp.MDP, sol *solve.Solution, duration int, pinned []string) ([]Item, error) {
	state := m.GetStartState()
	remaining := duration
	out := make([]Item, 0, len(pinned))

	for _, id := range pinned {
		idx, err := m.List().IndexOfDescription(id)
		if err != nil {
			return nil, &ContractError{Reason: err.Error()}
		}
		action := mdp.Action(idx)
		if !legal(m, state, action) {
			return nil, &ContractError{Reason: fmt.Sprintf("pinned task %q is not a legal action from the current position", id)}
		}

		pr, err := m.GetExpectedPseudoReward(state, action, sol.V, false)
		if err != nil {
			return nil, err
		}
		out = append(out, Item{Action: action, PseudoReward: pr})

		next, err := successState(m, state, action)
		if err != nil {
			return nil, err
		}
		remaining -= m.List().TaskAt(idx).TimeEst
		state = next
	}

	for {
		actions := m.GetPossibleActions(state)
		if len(actions) == 0 {
			break
		}

		ranked, err := rankByQValue(m, state, actions, sol.V)
		if err != nil {
			return nil, err
		}

		chosen := -1
		for _, a := range ranked {
			cost := m.List().TaskAt(int(a)).TimeEst
			if cost <= remaining {
				chosen = int(a)
				break
			}
		}
		if chosen < 0 {
			break
		}

		action := mdp.Action(chosen)
		pr, err := m.GetExpectedPseudoReward(state, action, sol.V, false)
		if err != nil {
			return nil, err
		}
		out = append(out, Item{Action: action, PseudoReward: pr})

		next, err := successState(m, state, action)
		if err != nil {
			return nil, err
		}
		remaining -= m.List().TaskAt(chosen).TimeEst
		state = next
	}

	return out, nil
}

func legal(m *mdp.MDP, state mdp.State, action mdp.Action) bool {
	for _, a := range m.GetPossibleActions(state) {
		if a == action {
			return true
		}
	}
	return false
}

// successState returns the deterministic (success-branch) successor of
// action from state, used for bookkeeping during packing.
func successState(m *mdp.MDP, state mdp.State, action mdp.Action) (mdp.State, error) {
	transitions, err := m.GetTransStatesAndProbs(state, action)
	if err != nil {
		return mdp.State{}, err
	}
	// The success branch is always listed first (see mdp.GetTransStatesAndProbs).
	return transitions[0].State, nil
}

// rankByQValue orders actions by descending Q-value, tie-breaking toward
// the smallest task index.
func rankByQValue(m *mdp.MDP, state mdp.State, actions []mdp.Action, V map[mdp.State]float64) ([]mdp.Action, error) {
	type scored struct {
		action mdp.Action
		q      float64
	}
	scoredActions := make([]scored, 0, len(actions))
	for _, a := range actions {
		q, err := m.GetQValue(state, a, V)
		if err != nil {
			return nil, err
		}
		scoredActions = append(scoredActions, scored{action: a, q: q})
	}

	sort.SliceStable(scoredActions, func(i, j int) bool {
		if scoredActions[i].q != scoredActions[j].q {
			return scoredActions[i].q > scoredActions[j].q
		}
		return scoredActions[i].action < scoredActions[j].action
	})

	ranked := make([]mdp.Action, len(scoredActions))
	for i, s := range scoredActions {
		ranked[i] = s.action
	}
	return ranked, nil
}
