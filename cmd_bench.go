package main

import (
	"math"
	"time"

	"github.com/spf13/cobra"
)

var cmdBench = &cobra.Command{
	Use:   "bench [flags]",
	Short: "Load-test extended attribute operations",
	Long: `
The "bench" command drives attribute writes (set) and reads (get) against a
set of files and reports latency percentiles, throughput and failures per
error kind.

Targets are built from templates: XXXX is replaced by the request number,
NNNN by random digits and RRRR by random letters. Reads pick among the
attributes written successfully when writes run too.

Pacing is one of:
  --rps/--wps          fixed operations per second
  --rt/--wt            fixed number of concurrent operations
  --max-latency        searches the highest concurrency under the latency
  --rpw                reads per completed write (with --wt or --max-latency)

Examples:
  goxattr bench --path /mnt/t/file-NN --mkfiles --wt 8 --max-requests 10000
  goxattr bench --path /mnt/t/f --name user.bench.RRRR --wps 200 --rps 800
  goxattr bench --path-source files.txt --rt 16 --meta-ops get:8,list:1,has:1
`,
	Args:              cobra.NoArgs,
	DisableAutoGenTag: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBench()
	},
}

func init() {
	f := cmdBench.Flags()
	f.StringVar(&config.path, "path", EmptyString, "File path template, XX.. request number, NN.. random digits, RR.. random letters")
	f.StringVar(&config.pathSourceFile, "path-source", EmptyString, "File with one target per line, \"path\" or \"path<TAB>name\"")
	f.StringVar(&config.name, "name", "user.goxattr.XXXX", "Attribute name template, same placeholders as --path")
	f.StringVar(&config.writtenTargetsDump, "dump-written-targets", EmptyString, "Write successfully set targets to this file, readable by --path-source")
	f.IntVar(&config.rps, "rps", NotSet, "Reads per second")
	f.IntVar(&config.wps, "wps", NotSet, "Writes per second")
	f.Float64Var(&config.rpw, "rpw", NotSetFloat64, "Reads per write in threaded modes")
	f.IntVar(&config.readThreads, "rt", NotSet, "Concurrent reads")
	f.IntVar(&config.writeThreads, "wt", NotSet, "Concurrent writes")
	f.IntVar(&config.maxChannels, "max-channels", 500, "Maximum concurrent operations per direction")
	f.Int64Var(&config.maxRequests, "max-requests", math.MaxInt64, "Stop after this many operations")
	f.DurationVar(&config.maxLatency, "max-latency", time.Duration(NotSet), "Find the highest concurrency whose average latency stays below this value")
	f.StringVar(&config.valueSizeInput, "value-size", "64", "Value size for writes. Examples: 64, 1KiB, 4k")
	f.StringVar(&config.minValueSizeInput, "min-value-size", EmptyString, "Lower bound of random value sizes, needs --max-value-size")
	f.StringVar(&config.maxValueSizeInput, "max-value-size", EmptyString, "Upper bound of random value sizes")
	f.BoolVar(&config.randomFairDistribution, "fair-random", false, "Pick random sizes so every size range writes about the same volume")
	f.IntVar(&config.randomFairBuckets, "fair-random-buckets", 10, "Size ranges used by --fair-random")
	f.Var(&config.metaOps, "meta-ops", "Weighted read side operations, e.g. get:8,list:1,has:1,remove:1")
	f.StringVar(&config.engine, "engine", Xattr, "Operation engine (xattr/sleep/null)")
	f.BoolVar(&config.mkfiles, "mkfiles", false, "Create target files missing before setting attributes on them")
	f.BoolVar(&config.showProgress, "show-progress", true, "Print a mark per finished operation")
	f.BoolVar(&config.stopOnBadRate, "stop-on-bad-rate", false, "Abort when the rate cannot be sustained")
	f.StringVar(&config.timelineFile, "timeline-file", EmptyString, "Write an HTML timeline of every operation")
	f.Int64Var(&config.seed, "seed", NotSet, "Seed for names, sizes and values, random when unset")
	f.BoolVar(&config.memoryDebug, "memory-debug", false, "Log memory statistics every 5 seconds")
	f.BoolVar(&config.prometheus, "prometheus", false, "Serve /metrics on --listen while running")
	f.StringVar(&config.listen, "listen", ":8090", "Metrics address for --prometheus")
	f.BoolVar(&config.dumpMetrics, "dump-metrics", false, "Print recorded metrics after the run")
	cmdRoot.AddCommand(cmdBench)
}
