package main

import (
	"strings"
	"time"
)

// TimesList renders sorted latencies slowest first, rounded to microseconds.
func TimesList(ss []time.Duration) string {
	var b strings.Builder
	for i := len(ss) - 1; i >= 0; i-- {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(ss[i].Round(time.Microsecond).String())
	}
	return b.String()
}
