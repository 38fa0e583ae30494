package utils

import (
	"math/rand"
	"sort"
	"sync"
	"time"
)

var (
	rngMu sync.Mutex
	rng   = rand.New(rand.NewSource(time.Now().UnixNano()))
)

// Seed makes every random choice of the process reproducible.
func Seed(seed int64) {
	rngMu.Lock()
	defer rngMu.Unlock()
	rng = rand.New(rand.NewSource(seed))
}

// Int63n is a goroutine safe rand.Int63n on the seeded source.
func Int63n(n int64) int64 {
	rngMu.Lock()
	defer rngMu.Unlock()
	return rng.Int63n(n)
}

// Intn is a goroutine safe rand.Intn on the seeded source.
func Intn(n int) int {
	rngMu.Lock()
	defer rngMu.Unlock()
	return rng.Intn(n)
}

// Read fills b with pseudo random bytes from the seeded source.
func Read(b []byte) {
	rngMu.Lock()
	defer rngMu.Unlock()
	rng.Read(b)
}

// WeightedRoller draws sizes in [start, end) so that every bucket of the
// range contributes about the same total volume: small sizes come up often,
// large ones rarely.
type WeightedRoller struct {
	start         int64
	end           int64
	sortedWeights []int64
	stepStart     []int64
	step          int64
	totalWeight   int64
}

func (r *WeightedRoller) Roll() int64 {
	roll := Int63n(r.totalWeight)
	i := sort.Search(len(r.sortedWeights), func(i int) bool {
		return r.sortedWeights[i] > roll
	})
	if i == len(r.sortedWeights) {
		i--
	}
	start := r.stepStart[i]
	end := start + r.step
	if end > r.end {
		end = r.end
	}
	rollDistance := end - start
	if rollDistance <= 0 {
		return start
	}
	return start + Int63n(rollDistance)
}

func NewWeightedRoller(minSize int64, maxSize int64, numBuckets int64) *WeightedRoller {
	if maxSize-minSize < numBuckets {
		numBuckets = maxSize - minSize + 1
	}
	if numBuckets < 1 {
		numBuckets = 1
	}
	precisionMultiplier := numBuckets
	var i int64

	roller := WeightedRoller{
		start: minSize,
		end:   maxSize,
		step:  (maxSize - minSize) / numBuckets,
	}
	if roller.step == 0 {
		roller.step = 1
	}

	for i = 0; i < numBuckets; i++ {
		start := minSize + i*roller.step
		end := start + roller.step
		if end > maxSize {
			end = maxSize
		}
		localWeight := int64(1)
		if start+end > 0 {
			localWeight = (maxSize*precisionMultiplier)/(start+end) + 1
		}
		roller.totalWeight += localWeight
		roller.sortedWeights = append(roller.sortedWeights, roller.totalWeight)
		roller.stepStart = append(roller.stepStart, start)
	}
	return &roller
}
