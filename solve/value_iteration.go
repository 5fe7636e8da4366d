package solve

import (
	"context"

	channerics "github.com/niceyeti/channerics/channels"

	"github.com/niceyeti/todolist-mdp/atomicfloat"
	"github.com/niceyeti/todolist-mdp/mdp"
)

// DefaultEpsilon is value iteration's default convergence threshold.
const DefaultEpsilon = 0.1

// ProgressFunc is an optional callback value iteration reports sweep
// progress through: the sweep index and the max Bellman delta observed in
// that sweep. It is called synchronously and should return quickly.
type ProgressFunc func(iteration int, maxDelta float64)

type workResult struct {
	state mdp.State
	value float64
	ok    bool
}

// ValueIteration performs synchronous (Jacobi) Bellman updates, splitting
// each sweep's per-state work across nworkers goroutines whose results are
// fanned into a single reducer so the result is bit-identical to a
// sequential sweep: every worker reads only the previous sweep's V, and
// the new V is populated by one goroutine from the merged worker outputs
// (arrival order varies, but each state's key is written exactly once),
// never mutated concurrently (Gauss-Seidel is forbidden by
// the concurrency model this implements).
func ValueIteration(m *mdp.MDP, epsilon float64, nworkers int, progress ProgressFunc) (*Solution, error) {
	if epsilon <= 0 {
		epsilon = DefaultEpsilon
	}
	if nworkers < 1 {
		nworkers = 1
	}

	states := m.EnumerateStates()
	V := make(map[mdp.State]float64, len(states))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	iteration := 0
	for {
		iteration++
		maxDelta := atomicfloat.NewAtomicFloat64(0)
		newV := make(map[mdp.State]float64, len(states))

		chunks := partition(states, nworkers)
		workers := make([]<-chan workResult, 0, len(chunks))
		for _, chunk := range chunks {
			workers = append(workers, sweepWorker(ctx.Done(), m, chunk, V, maxDelta))
		}

		merged := channerics.Merge(ctx.Done(), workers...)
		for result := range merged {
			if result.ok {
				newV[result.state] = result.value
			}
		}

		if progress != nil {
			progress(iteration, maxDelta.AtomicRead())
		}

		V = newV
		if maxDelta.AtomicRead() <= epsilon {
			break
		}
	}

	policy := make(map[mdp.State]mdp.Action, len(states))
	for _, s := range states {
		if _, action, ok := m.GetValueAndAction(s, V); ok {
			policy[s] = action
		}
	}

	return &Solution{V: V, Policy: policy}, nil
}

// sweepWorker computes Bellman updates for a disjoint slice of states
// against the previous sweep's value table oldV, tracking the largest
// |new - old| it observes into the shared maxDelta.
func sweepWorker(
	done <-chan struct{},
	m *mdp.MDP,
	chunk []mdp.State,
	oldV map[mdp.State]float64,
	maxDelta *atomicfloat.AtomicFloat64,
) <-chan workResult {
	out := make(chan workResult)
	go func() {
		defer close(out)
		for _, s := range chunk {
			value, _, ok := m.GetValueAndAction(s, oldV)
			if ok {
				delta := value - oldV[s]
				if delta < 0 {
					delta = -delta
				}
				maxDelta.TrackMax(delta)
			}
			select {
			case out <- workResult{state: s, value: value, ok: ok}:
			case <-done:
				return
			}
		}
	}()
	return out
}

// partition splits states into at most n contiguous, roughly equal
// chunks, preserving index order within each chunk (the reduction order
// across chunks does not matter since every worker writes disjoint keys
// into the reducer's map sequentially).
func partition(states []mdp.State, n int) [][]mdp.State {
	if n > len(states) {
		n = len(states)
	}
	if n < 1 {
		return [][]mdp.State{states}
	}

	chunks := make([][]mdp.State, 0, n)
	size := (len(states) + n - 1) / n
	for i := 0; i < len(states); i += size {
		end := i + size
		if end > len(states) {
			end = len(states)
		}
		chunks = append(chunks, states[i:end])
	}
	return chunks
}
