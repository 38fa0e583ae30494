package main

import "time"

type nullAdjuster struct {
}

func (adjuster *nullAdjuster) adjust(response *Response, state *OPState) {
}

// latencyAdjuster searches for the highest concurrency whose moving average
// latency stays under --max-latency
type latencyAdjuster struct {
	maxLatency  time.Duration
	maxSpeed    int32
	movingCount int
	avgTime     time.Duration
	movingTime  time.Duration
}

func newLatencyAdjuster(maxLatency time.Duration, maxSpeed int) *latencyAdjuster {
	return &latencyAdjuster{maxLatency: maxLatency, maxSpeed: int32(maxSpeed)}
}

const latencyWindow = 5

func (adjuster *latencyAdjuster) adjust(response *Response, state *OPState) {
	adjuster.movingCount++
	adjuster.avgTime += response.latency
	if adjuster.movingCount < latencyWindow {
		return
	}
	adjuster.movingTime = adjuster.avgTime / latencyWindow
	speed := state.getSpeed()
	if response.err != nil || adjuster.movingTime >= adjuster.maxLatency {
		if speed > 1 {
			state.setSpeed(speed - 1)
		}
	} else if speed < adjuster.maxSpeed {
		state.setSpeed(speed + 1)
	}
	adjuster.movingCount = 0
	adjuster.avgTime = 0
}
