package main

import (
	"bytes"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mgutz/ansi"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/tigrawap/goxattr/utils"
)

//Request struct
type Request struct {
	targeter  Target
	target    *attrTarget
	startTime time.Time
}

func (r *Request) getTarget() attrTarget {
	if r.target == nil {
		t := r.targeter.get()
		r.target = &t
	}
	return *r.target
}

//Response struct
type Response struct {
	request *Request
	latency time.Duration
	err     error
	size    int
	op      string
}

//OPResults result of specific operation, lately can be printed by different outputters
type OPResults struct {
	Errors         int64
	ErrorKinds     map[string]int64
	Done           int64
	Bytes          uint64
	AverageOps     int64
	AverageGoodOps int64
	FinalSpeed     int
	AverageSpeed   time.Duration
	TopTen         []time.Duration
	Percentiles    map[string]time.Duration
	StaggeredFor   time.Duration
}

//Results of benchmark execution, represents final output, marshalled directly into json in json output mode
type Results struct {
	mu        sync.Mutex
	Writes    OPResults
	Reads     OPResults
	Errors    []string
	Reports   []string
	StartTime time.Time
}

func startWorker(progress *Progress, state *OPState, targeter Target, requester Requester, quit chan struct{}, w *sync.WaitGroup) {
	defer w.Done()
	for {
		select {
		case <-quit:
			return
		case <-state.requests:
			if atomic.AddInt64(&progress.totalRequests, 1) > config.maxRequests {
				return
			}
			requester.request(state.responses, &Request{targeter: targeter, startTime: time.Now()})
		}
	}
}

type op int

//Operation type
const (
	READ op = iota
	WRITE
)

//OPState contains state for OP(READ/WRITE)
type OPState struct {
	color            string
	speed            int32
	done             int64
	errors           int64
	inFlight         int32
	bytes            uint64
	slicesLock       sync.RWMutex
	goodTargets      []attrTarget
	op               op
	name             string
	latencies        timeArray
	totalTime        time.Duration
	errorKinds       map[string]int64
	colored          func(string) string
	responses        chan *Response
	requests         chan int
	progress         chan bool
	inFlightCallback chan int32
	stop             chan struct{}
	timeline         TimeLine
}

func newOPState(op op, color string) *OPState {
	var name string
	if op == WRITE {
		name = "write"
	} else {
		name = "read"
	}
	buffersLen := 1000
	overrides := []int{config.maxChannels, config.writeThreads, config.readThreads}
	for _, o := range overrides {
		if o > buffersLen {
			buffersLen = o
		}
	}
	latenciesCap := config.maxRequests
	if latenciesCap > 1<<20 {
		latenciesCap = 1 << 20
	}
	state := OPState{
		op:               op,
		name:             name,
		color:            color,
		latencies:        make(timeArray, 0, latenciesCap),
		errorKinds:       make(map[string]int64),
		colored:          ansi.ColorFunc(fmt.Sprintf("%s+h:black", color)),
		responses:        make(chan *Response, buffersLen),
		requests:         make(chan int, buffersLen),
		progress:         make(chan bool, buffersLen),
		inFlightCallback: make(chan int32, buffersLen),
		stop:             make(chan struct{}),
	}
	if config.timelineFile != EmptyString {
		state.timeline = make([]RequestTimes, 0, latenciesCap)
	}
	if op == WRITE && config.writeGoodTargets {
		state.goodTargets = make([]attrTarget, 0, latenciesCap)
	}
	return &state
}

// Progress of benchmark
type Progress struct {
	totalRequests int64
	reads         *OPState
	writes        *OPState
}

func (state *OPState) getSpeed() int32 {
	return atomic.LoadInt32(&state.speed)
}

func (state *OPState) setSpeed(speed int32) {
	atomic.StoreInt32(&state.speed, speed)
}

func (state *OPState) getInFlight() int32 {
	return atomic.LoadInt32(&state.inFlight)
}

func (state *OPState) opDone() {
	atomic.AddInt64(&state.done, 1)
	res := atomic.AddInt32(&state.inFlight, -1)
	select {
	case state.inFlightCallback <- res:
	default:
	}
}

func (state *OPState) getDone() int64 {
	return atomic.LoadInt64(&state.done)
}

func processResponses(state *OPState, results *Results, adjuster Adjuster, w *sync.WaitGroup) {
	defer w.Done()
	defer close(state.progress)
	for response := range state.responses {
		state.opDone()
		state.progress <- response.err == nil
		if response.err == nil {
			state.totalTime += response.latency
			state.bytes += uint64(response.size)
			state.slicesLock.Lock()
			if state.op == WRITE && config.writeGoodTargets {
				state.goodTargets = append(state.goodTargets, response.request.getTarget())
			}
			state.latencies = append(state.latencies, response.latency)
			state.slicesLock.Unlock()
		} else {
			atomic.AddInt64(&state.errors, 1)
			state.errorKinds[errorDetail(response.err)]++
			log.Debugf("%s %s: %v", state.name, response.op, response.err)
			if config.verbose {
				results.reportError(response.err.Error())
			}
		}
		if config.timelineFile != EmptyString {
			state.timeline = append(state.timeline, RequestTimes{
				Start:   response.request.startTime,
				Latency: response.latency,
				Success: response.err == nil,
			})
		}
		adjuster.adjust(response, state)
	}
}

type timeArray []time.Duration

func (a timeArray) Len() int {
	return len(a)
}
func (a timeArray) Swap(i, j int) {
	a[i], a[j] = a[j], a[i]
}
func (a timeArray) Less(i, j int) bool {
	return a[i] < a[j]
}

// percentile expects numbers sorted and non-empty
func percentile(numbers timeArray, n int) time.Duration {
	i := len(numbers) * n / 100
	if i >= len(numbers) {
		i = len(numbers) - 1
	}
	if i < 0 {
		return 0
	}
	return numbers[i]
}

func fillResults(results *OPResults, state *OPState, startTime time.Time) {
	results.Percentiles = make(map[string]time.Duration)
	successful := len(state.latencies)
	if successful > 0 {
		results.AverageSpeed = state.totalTime / time.Duration(successful)
		sort.Sort(state.latencies)
		percentiles := []int{99, 95, 90, 80, 70, 60, 50, 40, 30}

		for i := range percentiles {
			s := strconv.Itoa(percentiles[i])
			results.Percentiles[s] = percentile(state.latencies, percentiles[i])
		}
		if config.mode == LowLatency {
			results.FinalSpeed = int(state.getSpeed())
		}

		from := successful - 10
		if from < 0 {
			from = 0
		}
		results.TopTen = state.latencies[from:]
	}

	elapsed := float64(time.Since(startTime).Nanoseconds())
	results.Done = state.getDone()
	results.Errors = atomic.LoadInt64(&state.errors)
	results.ErrorKinds = state.errorKinds
	results.Bytes = state.bytes
	results.AverageOps = int64(float64(results.Done*int64(time.Second))/elapsed) + 1
	results.AverageGoodOps = int64(float64((results.Done-results.Errors)*int64(time.Second))/elapsed) + 1
}

//Operators chosen by config
type Operators struct {
	readEmitter    Emitter
	writeEmitter   Emitter
	readAdjuster   Adjuster
	writeAdjuster  Adjuster
	readRequester  Requester
	writeRequester Requester
	readTarget     Target
	writeTarget    Target
}

func getOperators(progress *Progress) (*Operators, error) {
	operators := new(Operators)
	switch config.mode {
	case LowLatency, ConstantThreads:
		operators.writeEmitter = &threadedEmitter{}
		if config.mode == LowLatency {
			operators.writeAdjuster = newLatencyAdjuster(config.maxLatency, config.maxChannels)
		} else {
			operators.writeAdjuster = &nullAdjuster{}
		}

		if config.rpw != NotSetFloat64 {
			operators.readEmitter = &boundEmitter{
				boundTo: &progress.writes.done,
				boundBy: &config.rpw,
			}
			operators.readAdjuster = &nullAdjuster{}
		} else {
			operators.readEmitter = &threadedEmitter{}
			if config.mode == LowLatency {
				operators.readAdjuster = newLatencyAdjuster(config.maxLatency, config.maxChannels)
			} else {
				operators.readAdjuster = &nullAdjuster{}
			}
		}
	case ConstantRatio:
		operators.readEmitter = newRateEmitter(config.rps)
		operators.writeEmitter = newRateEmitter(config.wps)
		operators.writeAdjuster = &nullAdjuster{}
		operators.readAdjuster = &nullAdjuster{}
	}
	switch config.engine {
	case Sleep:
		operators.writeRequester = newSleepRequester(progress.writes)
		operators.readRequester = newSleepRequester(progress.reads)
	case Xattr:
		readOps := config.metaOps
		if len(readOps) == 0 {
			readOps = metaOps{{"get", 1}}
		}
		operators.writeRequester = newXattrRequester(namespace(), metaOps{{"set", 1}}, config.mkfiles)
		operators.readRequester = newXattrRequester(namespace(), readOps, false)
	case Null:
		operators.writeRequester = &nullRequester{}
		operators.readRequester = &nullRequester{}
	default:
		return nil, errors.Errorf("unknown engine %q", config.engine)
	}

	var err error
	if operators.writeTarget, err = selectTargetByConfig(); err != nil {
		return nil, err
	}
	if config.wps > 0 || config.writeThreads > 0 {
		operators.readTarget = &BoundTarget{
			bound: &progress.writes.goodTargets,
			sync:  progress.writes.slicesLock.RLocker(),
			stop:  progress.reads.stop,
		}
	} else if operators.readTarget, err = selectTargetByConfig(); err != nil {
		return nil, err
	}
	return operators, nil
}

func quitOnInterrupt() chan bool {
	c := make(chan os.Signal, 1)
	quit := make(chan bool, 1)
	signal.Notify(c, syscall.SIGQUIT, syscall.SIGABRT)
	go func() {
		<-c
		quit <- true
	}()
	return quit
}

func quitOnInterruptGracefully() chan bool {
	c := make(chan os.Signal, 1)
	quit := make(chan bool, 1)
	signal.Notify(c, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		<-c
		quit <- true
	}()
	return quit
}

func (r *Results) reportError(s string) {
	r.mu.Lock()
	r.Errors = append(r.Errors, s)
	r.mu.Unlock()
	config.output.reportError(s)
}

func (r *Results) report(s string) {
	r.mu.Lock()
	r.Reports = append(r.Reports, s)
	r.mu.Unlock()
	config.output.report(s)
}

func displayProgress(state *OPState) {
	throttle := time.NewTicker(time.Millisecond)
	defer throttle.Stop()
	output := map[bool]string{
		true:  state.colored("."),
		false: state.colored("E"),
	}
	var buffer bytes.Buffer

	for success := range state.progress {
		if config.engine == Null || !config.showProgress {
			continue
		}
		buffer.WriteString(output[success])
		select {
		case <-throttle.C:
			config.output.progress(buffer.String())
			buffer.Reset()
		default:
		}
	}
	if buffer.Len() > 0 && config.showProgress {
		config.output.progress(buffer.String())
	}
}

func badRateAborter(state *OPState, result *OPResults, rate int, stop chan bool, quit chan struct{}) {
	checkEvery := time.Millisecond * 3
	lastCheck := time.Now()

	for {
		select {
		case <-quit:
			return
		case <-time.After(checkEvery):
		}
		inFlight := state.getInFlight()
		if inFlight > int32(rate) {
			result.StaggeredFor += time.Since(lastCheck)
		}
		if inFlight > int32(rate)*2 && config.stopOnBadRate {
			select {
			case stop <- true:
			default:
			}
		}
		lastCheck = time.Now()
	}
}

func makeLoad() (*Results, error) {
	interrupted := quitOnInterrupt()
	gracefullyInterrupted := quitOnInterruptGracefully()
	stopWorkers := make(chan struct{})
	progress := Progress{
		writes: newOPState(WRITE, "blue"),
		reads:  newOPState(READ, "green"),
	}
	progress.reads.stop = stopWorkers
	progress.writes.stop = stopWorkers
	progress.reads.setSpeed(int32(config.readThreads))
	progress.writes.setSpeed(int32(config.writeThreads))
	operators, err := getOperators(&progress)
	if err != nil {
		return nil, err
	}

	go displayProgress(progress.writes)
	go displayProgress(progress.reads)
	results := Results{
		StartTime: time.Now(),
	}
	stoppedByRate := make(chan bool, 1)
	responseWait := &sync.WaitGroup{}
	responseWait.Add(2)
	workersWait := &sync.WaitGroup{}
	workersWait.Add(config.maxChannels * 2)

	go operators.writeEmitter.emitRequests(progress.writes)
	go operators.readEmitter.emitRequests(progress.reads)

	for i := 0; i < config.maxChannels; i++ {
		go startWorker(&progress, progress.reads, operators.readTarget, operators.readRequester, stopWorkers, workersWait)
		go startWorker(&progress, progress.writes, operators.writeTarget, operators.writeRequester, stopWorkers, workersWait)
	}
	go processResponses(progress.writes, &results, operators.writeAdjuster, responseWait)
	go processResponses(progress.reads, &results, operators.readAdjuster, responseWait)
	if config.mode == ConstantRatio {
		go badRateAborter(progress.writes, &results.Writes, config.wps, stoppedByRate, stopWorkers)
		go badRateAborter(progress.reads, &results.Reads, config.rps, stoppedByRate, stopWorkers)
	}

	forceExit := false
FOR_LOOP:
	for {
		select {
		case <-interrupted:
			forceExit = true
			results.report("Aborted by user")
			break FOR_LOOP
		case <-gracefullyInterrupted:
			results.report("Stopped by user")
			break FOR_LOOP
		case <-stoppedByRate:
			results.reportError("Could not sustain given rate")
			break FOR_LOOP
		case <-time.After(time.Millisecond):
		}
		if progress.reads.getDone()+progress.writes.getDone() >= config.maxRequests {
			results.report("Maximum requests count")
			break FOR_LOOP
		}
	}
	close(stopWorkers)

	workersDone := make(chan struct{})
	go func() {
		workersWait.Wait()
		close(progress.writes.responses)
		close(progress.reads.responses)
		responseWait.Wait()
		close(workersDone)
	}()
	if forceExit {
		// in-flight calls cannot be interrupted, report what finished so far
		select {
		case <-workersDone:
		case <-time.After(time.Second):
			return nil, errors.New("aborted with operations still in flight")
		}
	} else {
		select {
		case <-workersDone:
		case <-time.After(10 * time.Minute):
			return nil, errors.New("workers close timed out")
		}
	}

	fillResults(&results.Writes, progress.writes, results.StartTime)
	fillResults(&results.Reads, progress.reads, results.StartTime)
	if err := buildTimeline(progress.writes, progress.reads); err != nil {
		results.reportError(err.Error())
	}
	if err := dumpWrittenTargets(progress.writes.goodTargets); err != nil {
		results.reportError(err.Error())
	}
	return &results, nil
}

func parseSizes() error {
	var err error
	if config.valueSize, err = humanize.ParseBytes(config.valueSizeInput); err != nil {
		return errors.Wrap(err, "value-size")
	}
	if config.minValueSizeInput != EmptyString {
		if config.minValueSize, err = humanize.ParseBytes(config.minValueSizeInput); err != nil {
			return errors.Wrap(err, "min-value-size")
		}
	}
	if config.maxValueSizeInput != EmptyString {
		if config.maxValueSize, err = humanize.ParseBytes(config.maxValueSizeInput); err != nil {
			return errors.Wrap(err, "max-value-size")
		}
	}
	if config.maxValueSize != 0 && config.minValueSize > config.maxValueSize {
		return errors.New("min value size should be less than max value size")
	}
	return nil
}

func setParams() error {
	if (config.wps != NotSet || config.rps != NotSet) && (config.writeThreads != NotSet || config.readThreads != NotSet) {
		return errors.New("OP/s and threads flags are exclusive")
	}
	if config.writeThreads > config.maxChannels {
		config.maxChannels = config.writeThreads
	}
	if config.readThreads > config.maxChannels {
		config.maxChannels = config.readThreads
	}
	if config.maxChannels < 1 {
		return errors.New("max-channels must be positive")
	}
	return parseSizes()
}

func selectMode() error {
	if config.maxLatency != NotSet {
		config.mode = LowLatency
	} else if config.writeThreads > 0 || config.readThreads > 0 {
		config.mode = ConstantThreads
	} else if config.wps > 0 || config.rps > 0 {
		config.mode = ConstantRatio
	} else {
		return errors.New("should specify one of rps/wps/rt/wt/max-latency")
	}
	return nil
}

func configureMode() {
	switch config.mode {
	case LowLatency:
		if config.writeThreads == NotSet {
			config.writeThreads = 1
		}
		if config.readThreads == NotSet {
			config.readThreads = 1
		}
	case ConstantRatio:
		if config.wps == NotSet {
			config.wps = 0
		}
		if config.rps == NotSet {
			config.rps = 0
		}
	}
	if config.writeThreads == NotSet {
		config.writeThreads = 0
	}
	if config.readThreads == NotSet {
		config.readThreads = 0
	}
}

func configureGoodTargetsStore() {
	if config.wps > 0 || config.writeThreads > 0 || config.writtenTargetsDump != EmptyString {
		config.writeGoodTargets = true
	}
}

func bToMb(b uint64) uint64 {
	return b / 1024 / 1024
}

func startMemoryPrint(quit chan struct{}) {
	if !config.memoryDebug {
		return
	}
	for {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)
		log.WithFields(log.Fields{
			"alloc_mib":       bToMb(m.Alloc),
			"total_alloc_mib": bToMb(m.TotalAlloc),
			"sys_mib":         bToMb(m.Sys),
			"num_gc":          m.NumGC,
		}).Info("Memory info")
		select {
		case <-quit:
			return
		case <-time.After(5 * time.Second):
		}
	}
}

// configureBench validates flags and prepares shared benchmark state
func configureBench() error {
	if err := setParams(); err != nil {
		return err
	}
	if err := selectMode(); err != nil {
		return err
	}
	configureMode()
	configureGoodTargetsStore()
	if config.seed != NotSet {
		utils.Seed(config.seed)
	}
	setRandomData()
	setPayloadGetter()
	return nil
}

func runBench() error {
	if err := configureBench(); err != nil {
		return err
	}
	setMetrics()
	memoryQuit := make(chan struct{})
	defer close(memoryQuit)
	go startMemoryPrint(memoryQuit)

	results, err := makeLoad()
	if err != nil {
		return err
	}
	config.output.printResults(results)
	if config.dumpMetrics {
		dumpMetrics(stdout)
	}
	return nil
}
