package main

import (
	"bytes"
	"html/template"
	"os"
	"sort"
	"time"

	"github.com/pkg/errors"
)

// RequestTimes is one finished attribute operation on the timeline
type RequestTimes struct {
	Start   time.Time
	Latency time.Duration
	Success bool
}

type HTMLResult struct {
	TimeLine   ResultingTimeLine
	MaxLatency time.Duration
	Requests   int
}

type TimeLineResult struct {
	Times         RequestTimes
	Opname        string
	Color         string
	Width         float64
	ShowTimestamp bool
}

type TimeLine []RequestTimes
type ResultingTimeLine []TimeLineResult

func (a ResultingTimeLine) Len() int           { return len(a) }
func (a ResultingTimeLine) Swap(i, j int)      { a[i], a[j] = a[j], a[i] }
func (a ResultingTimeLine) Less(i, j int) bool { return a[i].Times.Start.Before(a[j].Times.Start) }

// timestampEvery is the minimal gap between two printed timestamps
const timestampEvery = 300 * time.Millisecond

var timelineTemplate = template.Must(template.New("timeline").Parse(`
<html>
<h3>{{.Requests}} attribute operations, 100% width = {{.MaxLatency}}</h3>
<div style='overflow:hidden; max-width:1024px; margin:0 auto; border:1px dotted'>
	{{ range .TimeLine }}
		{{ if .ShowTimestamp }}
		<div style='width:100%; float:left'>{{.Times.Start}}</div>
		{{ end }}
		<div title='{{.Opname}} {{.Times.Latency}}' style='height:1px; width:{{.Width}}%;background:{{.Color}}; float:left;{{ if not .Times.Success }}border-bottom:1px solid red{{ end }}'></div>
		<div style='height:1px; width:100%; float:left'></div>
	{{ end }}
</div>
</html>
`))

func collectTimeline(states ...*OPState) HTMLResult {
	r := ResultingTimeLine{}
	var maxDuration time.Duration
	for _, state := range states {
		for _, times := range state.timeline {
			if times.Latency > maxDuration {
				maxDuration = times.Latency
			}
		}
	}
	for _, state := range states {
		for _, times := range state.timeline {
			width := 100.0
			if maxDuration > 0 {
				width = float64(times.Latency) / float64(maxDuration) * 100
			}
			if width < 1 {
				width = 1
			}
			r = append(r, TimeLineResult{
				Times:  times,
				Opname: state.name,
				Color:  state.color,
				Width:  width,
			})
		}
	}
	sort.Sort(r)
	lastTimeStamp := time.Time{}
	for i := range r {
		if r[i].Times.Start.Sub(lastTimeStamp) > timestampEvery {
			lastTimeStamp = r[i].Times.Start
			r[i].ShowTimestamp = true
		}
	}
	return HTMLResult{TimeLine: r, MaxLatency: maxDuration, Requests: len(r)}
}

// buildTimeline renders every recorded operation into --timeline-file
func buildTimeline(states ...*OPState) error {
	if config.timelineFile == EmptyString {
		return nil
	}
	b := bytes.Buffer{}
	if err := timelineTemplate.Execute(&b, collectTimeline(states...)); err != nil {
		return errors.Wrap(err, "render timeline")
	}
	return errors.Wrap(os.WriteFile(config.timelineFile, b.Bytes(), 0644), "write timeline")
}
