package atomicfloat

import (
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestAtomicAdd(t *testing.T) {
	Convey("When AtomicAdd is called", t, func() {
		Convey("When multiple writers add to the value concurrently", func() {
			af := NewAtomicFloat64(0)
			numOps := 3000
			numWriters := 100

			start := make(chan struct{})
			wg := sync.WaitGroup{}
			wg.Add(numWriters)
			adder := func() {
				<-start
				for i := 0; i < numOps; i++ {
					for succeeded := false; !succeeded; _, succeeded = af.AtomicAdd(1.0) {
					}
				}
				wg.Done()
			}

			for i := 0; i < numWriters; i++ {
				go adder()
			}

			time.Sleep(time.Millisecond * 10)
			close(start)
			wg.Wait()

			So(af.AtomicRead(), ShouldEqual, float64(numOps*numWriters))
		})
	})
}

func TestTrackMax(t *testing.T) {
	Convey("When TrackMax is called from many goroutines racing to raise a shared delta", t, func() {
		af := NewAtomicFloat64(0)
		candidates := []float64{0.5, 3.2, 1.1, 9.9, 4.4, 2.0, 9.9, 0.1}

		start := make(chan struct{})
		wg := sync.WaitGroup{}
		wg.Add(len(candidates))
		for _, c := range candidates {
			c := c
			go func() {
				<-start
				af.TrackMax(c)
				wg.Done()
			}()
		}
		close(start)
		wg.Wait()

		Convey("Then the tracked value is the maximum of all candidates", func() {
			So(af.AtomicRead(), ShouldEqual, 9.9)
		})
	})

	Convey("When TrackMax is called with a smaller candidate", t, func() {
		af := NewAtomicFloat64(5.0)
		af.TrackMax(2.0)

		Convey("Then the value is unchanged", func() {
			So(af.AtomicRead(), ShouldEqual, 5.0)
		})
	})
}
