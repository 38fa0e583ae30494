package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mgutz/ansi"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/tigrawap/goxattr/xattr"
)

var version = "dev"

//Various constants to avoid typos
const (
	LowLatency      = "low-latency"
	ConstantRatio   = "constant"
	ConstantThreads = "constant-threads"
	Sleep           = "sleep"
	Xattr           = "xattr"
	Null            = "null"
	NotSet          = -1
	EmptyString     = ""
	NotSetFloat64   = -1.0
	FormatHuman     = "human"
	FormatJSON      = "json"
	EncodingRaw     = "raw"
	EncodingHex     = "hex"
	EncodingBase64  = "base64"
	EnvPrefix       = "GOXATTR"
)

var config struct {
	namespace    string
	verbose      bool
	outputFormat string
	output       Output
	encoding     string
	nullSep      bool
	valueFile    string

	// bench
	path                   string //path/pattern
	pathSourceFile         string
	name                   string //attribute name/pattern
	writtenTargetsDump     string
	rps                    int
	wps                    int
	rpw                    float64
	writeThreads           int
	readThreads            int
	mkfiles                bool
	maxChannels            int
	memoryDebug            bool
	maxRequests            int64
	valueSize              uint64
	minValueSize           uint64
	maxValueSize           uint64
	valueSizeInput         string
	minValueSizeInput      string
	maxValueSizeInput      string
	metaOps                metaOps
	randomFairDistribution bool
	randomFairBuckets      int
	mode                   string
	engine                 string
	showProgress           bool
	stopOnBadRate          bool
	maxLatency             time.Duration
	timelineFile           string
	seed                   int64
	writeGoodTargets       bool
	prometheus             bool
	dumpMetrics            bool

	// serve
	listen           string
	maxBodySizeInput string
	maxBodySize      uint64
	readTimeout      time.Duration
	writeTimeout     time.Duration
}

// errAbsent makes the process exit with status 2 without printing anything.
var errAbsent = errors.New("attribute absent")

var cmdRoot = &cobra.Command{
	Use:   "goxattr",
	Short: "Read and write extended file attributes",
	Long: `
goxattr lists, reads, writes and removes extended file attributes, serves them
over HTTP and load-tests them.

Values are handled as raw bytes. Failures are reported with a stable symbolic
cause: eperm, enoent, e2big, eagain, efault, enospc, erange, enoattr, enotsup,
edquot, or the raw errno / OS message when no symbol applies.

Every flag can also be set through the environment as GOXATTR_<FLAG>, with
dashes replaced by underscores.
`,
	SilenceErrors:     true,
	SilenceUsage:      true,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := bindEnv(cmd); err != nil {
			return err
		}
		configureLogging()
		return selectPrinter()
	},
}

func init() {
	f := cmdRoot.PersistentFlags()
	f.StringVarP(&config.namespace, "namespace", "n", EmptyString, "Prefix prepended to every attribute name, listings are filtered to it (e.g. user.myapp.)")
	f.BoolVarP(&config.verbose, "verbose", "v", false, "Verbose logging")
	f.StringVarP(&config.outputFormat, "output", "o", FormatHuman, "Output format (human/json)")
}

// bindEnv fills every flag not given on the command line from GOXATTR_*.
func bindEnv(cmd *cobra.Command) error {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return errors.Wrap(err, "bind flags")
	}
	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if bindErr != nil || f.Changed || !v.IsSet(f.Name) {
			return
		}
		// slice-typed flags would be appended to, only scalars come from env
		if strings.HasSuffix(f.Value.Type(), "Slice") {
			return
		}
		if err := cmd.Flags().Set(f.Name, v.GetString(f.Name)); err != nil {
			bindErr = errors.Wrapf(err, "%s_%s", EnvPrefix, strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_")))
		}
	})
	return bindErr
}

func configureLogging() {
	log.SetOutput(os.Stderr)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	if config.verbose {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.InfoLevel)
	}
}

func selectPrinter() error {
	switch config.outputFormat {
	case FormatHuman:
		config.output = newHumanOutput()
	case FormatJSON:
		config.output = &JSONOutput{}
	default:
		return errors.Errorf("unknown output format %q", config.outputFormat)
	}
	return nil
}

func namespace() xattr.Namespace {
	return xattr.Namespace(config.namespace)
}

// exactArgs is cobra.ExactArgs with the usage line in the message.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return errors.Errorf("expected %d arguments, usage: %s", n, cmd.UseLine())
		}
		return nil
	}
}

func main() {
	err := cmdRoot.Execute()
	switch {
	case err == nil:
	case errors.Is(err, errAbsent):
		os.Exit(2)
	default:
		msg := fmt.Sprintf("Error: %v", err)
		if config.outputFormat != FormatJSON {
			msg = ansi.Color(msg, "red")
		}
		fmt.Fprintln(os.Stderr, msg)
		os.Exit(1)
	}
}
