package main

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"github.com/mgutz/ansi"
	"github.com/pkg/errors"
)

var stdout io.Writer = os.Stdout

type HumanOutput struct {
	pb   chan string
	quit chan bool
}
type JSONOutput struct{}

// namesDocument keeps names as []byte so JSON carries them base64 encoded
// instead of replacing invalid UTF-8.
type namesDocument struct {
	Names [][]byte `json:"names"`
}

func newNamesDocument(names []string) namesDocument {
	doc := namesDocument{Names: make([][]byte, 0, len(names))}
	for _, n := range names {
		doc.Names = append(doc.Names, []byte(n))
	}
	return doc
}

type healthDocument struct {
	Native    bool `json:"native"`
	Supported bool `json:"supported"`
}

func newHumanOutput() *HumanOutput {
	o := HumanOutput{
		pb:   make(chan string, 1000),
		quit: make(chan bool),
	}
	go o.printer()
	return &o

}

// printer drops progress once a report interrupted the stream, but keeps
// draining so progress never blocks.
func (o *HumanOutput) printer() {
	stopped := false
	for {
		select {
		case <-o.quit:
			if !stopped {
				fmt.Fprintln(stdout)
			}
			stopped = true
		case s := <-o.pb:
			if !stopped {
				fmt.Fprint(stdout, s)
			}
		}
	}
}

func (o *HumanOutput) progress(s string) {
	o.pb <- s
}

// printableName quotes names a terminal would garble.
func printableName(name string) string {
	if utf8.ValidString(name) && strings.IndexFunc(name, func(r rune) bool { return !unicode.IsPrint(r) }) < 0 {
		return name
	}
	return strconv.Quote(name)
}

func (o *HumanOutput) printNames(names []string) {
	for _, n := range names {
		if config.nullSep {
			fmt.Fprint(stdout, n+"\x00")
		} else {
			fmt.Fprintln(stdout, printableName(n))
		}
	}
}

func (o *HumanOutput) printValue(value []byte) error {
	var err error
	switch config.encoding {
	case EncodingRaw, EmptyString:
		_, err = stdout.Write(value)
	case EncodingHex:
		_, err = fmt.Fprintln(stdout, hex.EncodeToString(value))
	case EncodingBase64:
		_, err = fmt.Fprintln(stdout, base64.StdEncoding.EncodeToString(value))
	default:
		return errors.Errorf("unknown encoding %q", config.encoding)
	}
	return err
}

func (o *HumanOutput) printPresence(present bool) {
	fmt.Fprintln(stdout, present)
}

func (o *HumanOutput) printHealth(native bool, supported bool) {
	status := ansi.Color("available", "green+h")
	if !native {
		status = ansi.Color("unavailable", "red+h")
	}
	fmt.Fprintln(stdout, "Native layer:", status)
	if !supported {
		fmt.Fprintln(stdout, ansi.Color("Extended attributes are not supported on this platform", "yellow"))
	}
}

func (o *HumanOutput) printOpResult(r *OPResults, header string) {
	if r.Done == 0 {
		return
	}
	fmt.Fprintln(stdout, "\n", ansi.Color(header, "blue+h"))
	if r.Done-r.Errors > 0 {
		fmt.Fprintln(stdout, "Average response time:", r.AverageSpeed)
		var keys []int
		for k := range r.Percentiles {
			i, err := strconv.Atoi(k)
			if err == nil {
				keys = append(keys, i)
			}
		}
		sort.Ints(keys)
		for _, k := range keys {
			fmt.Fprintln(stdout, "Percentile", k, "-", r.Percentiles[strconv.Itoa(k)])
		}
		fmt.Fprintln(stdout, "Slowest:", TimesList(r.TopTen))

		if config.mode == LowLatency {
			fmt.Fprintf(stdout, "Threads with latency below %v: %v\n", config.maxLatency, r.FinalSpeed)
		}
	}

	fmt.Fprintln(stdout, "Total requests:", r.Done)
	fmt.Fprintln(stdout, "Total errors:", r.Errors)
	if len(r.ErrorKinds) > 0 {
		var kinds []string
		for k := range r.ErrorKinds {
			kinds = append(kinds, k)
		}
		sort.Strings(kinds)
		for _, k := range kinds {
			fmt.Fprintf(stdout, "  %s: %d\n", ansi.Color(k, "red"), r.ErrorKinds[k])
		}
	}
	if r.Bytes > 0 {
		fmt.Fprintln(stdout, "Value bytes:", humanize.Bytes(r.Bytes))
	}
	fmt.Fprintln(stdout, "Average OP/s: ", r.AverageOps)
	fmt.Fprintln(stdout, "Average good OP/s: ", r.AverageGoodOps)
	fmt.Fprintln(stdout)
}

func (o *HumanOutput) printResults(r *Results) {
	o.printOpResult(&r.Writes, "Writes")
	o.printOpResult(&r.Reads, "Reads")
}

func (o *HumanOutput) stopStream() {
	o.quit <- true

}

func (o *HumanOutput) reportError(s string) {
	o.stopStream()
	fmt.Fprintln(stdout, ansi.Color("Error: ", "red"), s)
}

func (o *HumanOutput) report(s string) {
	o.stopStream()
	fmt.Fprintln(stdout, s)
}

func (o *JSONOutput) encode(v interface{}) {
	b, err := json.Marshal(v)
	if err == nil {
		fmt.Fprintln(stdout, string(b))
	} else {
		fmt.Fprintln(stdout, err.Error())
	}
}

func (o *JSONOutput) progress(s string) {
}

func (o *JSONOutput) printResults(r *Results) {
	o.encode(r)
}

func (o *JSONOutput) printNames(names []string) {
	o.encode(newNamesDocument(names))
}

func (o *JSONOutput) printValue(value []byte) error {
	o.encode(struct {
		Value []byte `json:"value"`
	}{value})
	return nil
}

func (o *JSONOutput) printPresence(present bool) {
	o.encode(struct {
		Present bool `json:"present"`
	}{present})
}

func (o *JSONOutput) printHealth(native bool, supported bool) {
	o.encode(healthDocument{Native: native, Supported: supported})
}

func (o *JSONOutput) report(s string) {
}

func (o *JSONOutput) reportError(s string) {
}
