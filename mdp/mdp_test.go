package mdp

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/niceyeti/todolist-mdp/domain"
	"github.com/niceyeti/todolist-mdp/todolist"
)

func mustTask(description string, est int, prob float64) domain.Task {
	task, err := domain.NewTask(description, est, prob, false)
	if err != nil {
		panic(err)
	}
	return task
}

func mustGoal(description string, tasks []domain.Task, rewards map[int]float64, penalty float64) domain.Goal {
	g, err := domain.NewGoal(description, description, tasks, rewards, penalty)
	if err != nil {
		panic(err)
	}
	return g
}

// TestSingleTaskSingleGoal covers Scenario B: one goal, one 1-minute task,
// reward {1:100}. V(start) = 100, optimal action = 0.
func TestSingleTaskSingleGoal(t *testing.T) {
	Convey("Given a single goal with a single 1-minute task", t, func() {
		task := mustTask("only task", 1, 1)
		goal := mustGoal("G", []domain.Task{task}, map[int]float64{1: 100}, 0)
		list, err := todolist.New([]domain.Goal{goal}, 0, nil)
		So(err, ShouldBeNil)
		m, err := New(list, 1.0)
		So(err, ShouldBeNil)

		Convey("Then the start state has exactly one legal action", func() {
			start := m.GetStartState()
			actions := m.GetPossibleActions(start)
			So(len(actions), ShouldEqual, 1)
			So(actions[0], ShouldEqual, Action(0))
		})

		Convey("Then Bellman evaluation at the terminal successor yields value 100", func() {
			start := m.GetStartState()
			transitions, err := m.GetTransStatesAndProbs(start, 0)
			So(err, ShouldBeNil)
			So(len(transitions), ShouldEqual, 1)
			So(transitions[0].Reward, ShouldEqual, 100)
			So(m.IsTerminal(transitions[0].State), ShouldBeTrue)

			V := map[State]float64{}
			value, action, ok := m.GetValueAndAction(start, V)
			So(ok, ShouldBeTrue)
			So(action, ShouldEqual, Action(0))
			So(value, ShouldEqual, 100)
		})
	})
}

// TestUnreachableReward covers Scenario C: task time_est=10, reward
// {5:1000, pen 0}. Start value = 0 since the reward is unattainable within
// the deadline, but the optimal action still schedules the task (no
// opportunity cost).
func TestUnreachableReward(t *testing.T) {
	Convey("Given a goal whose only deadline is unreachable", t, func() {
		task := mustTask("only task", 10, 1)
		goal := mustGoal("G", []domain.Task{task}, map[int]float64{5: 1000}, 0)
		list, _ := todolist.New([]domain.Goal{goal}, 0, nil)
		m, _ := New(list, 1.0)

		Convey("Then completing it yields the fallback penalty (0), not the unreachable reward", func() {
			start := m.GetStartState()
			transitions, err := m.GetTransStatesAndProbs(start, 0)
			So(err, ShouldBeNil)
			So(transitions[0].Reward, ShouldEqual, 0)
		})

		Convey("Then the start value is 0 but the action is still chosen (no opportunity cost)", func() {
			V := map[State]float64{}
			value, action, ok := m.GetValueAndAction(m.GetStartState(), V)
			So(ok, ShouldBeTrue)
			So(action, ShouldEqual, Action(0))
			So(value, ShouldEqual, 0)
		})
	})
}

// TestProbabilisticCSHomework covers Scenario D: two tasks p=0.9/p=0.8,
// ests 1 and 2, reward {5:10, pen -10}. Expected V(start) = 4.4.
func TestProbabilisticCSHomework(t *testing.T) {
	Convey("Given the CS-HW two-task probabilistic goal", t, func() {
		t1 := mustTask("part1", 1, 0.9)
		t2 := mustTask("part2", 2, 0.8)
		goal := mustGoal("CS HW", []domain.Task{t1, t2}, map[int]float64{5: 10}, -10)
		list, _ := todolist.New([]domain.Goal{goal}, 0, nil)
		m, _ := New(list, 1.0)

		Convey("Then solving backward from the terminal states gives V(start) = 4.4", func() {
			states := m.EnumerateStates()
			V := map[State]float64{}
			for i := len(states) - 1; i >= 0; i-- {
				s := states[i]
				v, _, ok := m.GetValueAndAction(s, V)
				if ok {
					V[s] = v
				}
			}
			start := m.GetStartState()
			So(V[start], ShouldAlmostEqual, 4.4, 1e-9)
		})
	})
}

// TestSuccessorOrdering covers Invariant 1: every successor has a strictly
// greater (popcount, elapsed) lexicographic key than its predecessor.
func TestSuccessorOrdering(t *testing.T) {
	Convey("Given a probabilistic MDP with failure branches", t, func() {
		t1 := mustTask("a", 5, 0.5)
		t2 := mustTask("b", 3, 1.0)
		goal := mustGoal("G", []domain.Task{t1, t2}, map[int]float64{100: 10}, -5)
		list, _ := todolist.New([]domain.Goal{goal}, 0, nil)
		m, _ := New(list, 1.0)

		Convey("Then every transition strictly increases (popcount, elapsed)", func() {
			for _, s := range m.EnumerateStates() {
				for _, a := range m.GetPossibleActions(s) {
					transitions, err := m.GetTransStatesAndProbs(s, a)
					So(err, ShouldBeNil)
					for _, tr := range transitions {
						pBefore, pAfter := Popcount(s), Popcount(tr.State)
						less := pAfter > pBefore || (pAfter == pBefore && tr.State.Elapsed > s.Elapsed)
						So(less, ShouldBeTrue)
					}
				}
			}
		})
	})
}

// TestTerminalIffNoActions covers Invariant 2.
func TestTerminalIffNoActions(t *testing.T) {
	Convey("Given any reachable state", t, func() {
		t1 := mustTask("a", 5, 0.5)
		t2 := mustTask("b", 3, 1.0)
		goal := mustGoal("G", []domain.Task{t1, t2}, map[int]float64{100: 10}, -5)
		list, _ := todolist.New([]domain.Goal{goal}, 0, nil)
		m, _ := New(list, 1.0)

		Convey("Then is_terminal holds exactly when get_possible_actions is empty", func() {
			for _, s := range m.EnumerateStates() {
				So(m.IsTerminal(s), ShouldEqual, len(m.GetPossibleActions(s)) == 0)
			}
		})
	})
}

// TestIllegalActionIsContractError covers the documented failure mode:
// illegal action attempted is a contract violation.
func TestIllegalActionIsContractError(t *testing.T) {
	Convey("Given a state where a task has already been resolved", t, func() {
		task := mustTask("only task", 1, 1)
		goal := mustGoal("G", []domain.Task{task}, map[int]float64{1: 100}, 0)
		list, _ := todolist.New([]domain.Goal{goal}, 0, nil)
		m, _ := New(list, 1.0)

		start := m.GetStartState()
		transitions, _ := m.GetTransStatesAndProbs(start, 0)
		done := transitions[0].State

		Convey("Then attempting the same action again is a contract error", func() {
			_, err := m.GetTransStatesAndProbs(done, 0)
			So(err, ShouldNotBeNil)
			_, ok := err.(*ContractError)
			So(ok, ShouldBeTrue)
		})
	})
}
