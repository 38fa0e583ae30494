package main

// Emitter of requests
type Emitter interface {
	emitRequests(state *OPState)
}

//Adjuster should decide whether change throughput based on response
type Adjuster interface {
	adjust(response *Response, state *OPState)
}

//Requester does actual attribute operations against the filesystem
type Requester interface {
	request(responses chan *Response, request *Request)
}

// Target yields the next (path, attribute name) pair to operate on
type Target interface {
	get() attrTarget
}

// Output renders command results and benchmark progress
type Output interface {
	progress(s string)
	report(s string)
	reportError(s string)
	printResults(r *Results)
	printNames(names []string)
	printValue(value []byte) error
	printPresence(present bool)
	printHealth(native bool, supported bool)
}
