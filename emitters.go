package main

import (
	"sync/atomic"
	"time"
)

// threadedEmitter keeps state.speed requests in flight
type threadedEmitter struct{}

func (emitter *threadedEmitter) emitRequests(state *OPState) {
	if state.getSpeed() <= 0 {
		return
	}
	for {
		for atomic.LoadInt32(&state.inFlight) >= state.getSpeed() {
			select {
			case <-state.inFlightCallback:
			case <-state.stop:
				return
			}
		}
		atomic.AddInt32(&state.inFlight, 1)
		select {
		case state.requests <- 1:
		case <-state.stop:
			return
		}
	}
}

// boundEmitter emits boundBy requests per completed request of another op
type boundEmitter struct {
	boundTo *int64
	boundBy *float64
	emitted int64
}

func (e *boundEmitter) emitRequests(state *OPState) {
	var shouldEmitted float64
	for {
		shouldEmitted = float64(atomic.LoadInt64(e.boundTo)) * *e.boundBy
		for int64(shouldEmitted) > e.emitted {
			e.emitted++
			atomic.AddInt32(&state.inFlight, 1)
			select {
			case state.requests <- 1:
			case <-state.stop:
				return
			}
		}
		select {
		case <-time.After(time.Millisecond):
		case <-state.stop:
			return
		}
	}
}

func newRateEmitter(perSecond int) *rateEmitter {
	var emitEvery time.Duration
	if perSecond > 0 {
		emitEvery = time.Duration(time.Second) / time.Duration(perSecond)
	}
	emitter := new(rateEmitter)
	emitter.emitEvery = emitEvery
	emitter.perSecond = perSecond
	return emitter
}

// rateEmitter emits a fixed number of requests per second regardless of
// how many are still in flight
type rateEmitter struct {
	startedAt    time.Time
	emitEvery    time.Duration
	perSecond    int
	totalEmitted int
}

func (emitter *rateEmitter) emitRequests(state *OPState) {
	if emitter.emitEvery == 0 {
		return
	}
	unlimiter := make(chan struct{}, emitter.perSecond+1)
	go func() {
		for {
			select {
			case <-unlimiter:
			case <-state.stop:
				return
			}
			select {
			case state.requests <- 1:
			case <-state.stop:
				return
			}
		}
	}()

	sleepFor := emitter.emitEvery
	if sleepFor < time.Millisecond {
		sleepFor = time.Millisecond
	}
	emitter.startedAt = time.Now()
	for {
		totalTimePassed := time.Since(emitter.startedAt)
		shouldEmit := int(totalTimePassed / emitter.emitEvery)
		notEmitted := shouldEmit - emitter.totalEmitted
		atomic.AddInt32(&state.inFlight, int32(notEmitted))
		emitter.totalEmitted += notEmitted
		for i := 0; i < notEmitted; i++ {
			select {
			case unlimiter <- struct{}{}:
			case <-state.stop:
				return
			}
		}
		select {
		case <-time.After(sleepFor):
		case <-state.stop:
			return
		}
	}
}
