package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/valyala/fasthttp"
)

var cmdServe = &cobra.Command{
	Use:   "serve [flags]",
	Short: "Serve attribute operations over HTTP",
	Long: `
The "serve" command exposes the attribute operations over HTTP:

  GET    /v1/attrs?path=P          list names (JSON, names base64 encoded)
  HEAD   /v1/attr?path=P&name=N    200 when set, 404 when not
  GET    /v1/attr?path=P&name=N    raw value
  PUT    /v1/attr?path=P&name=N    store the request body as value
  DELETE /v1/attr?path=P&name=N    remove
  GET    /v1/health                native layer liveness
  GET    /metrics                  prometheus metrics

Failures return a JSON document with the symbolic error and the errno.
`,
	Args:              cobra.NoArgs,
	DisableAutoGenTag: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		var err error
		config.maxBodySize, err = humanize.ParseBytes(config.maxBodySizeInput)
		if err != nil {
			return errors.Wrap(err, "max-value-size")
		}
		return serve()
	},
}

func init() {
	f := cmdServe.Flags()
	f.StringVar(&config.listen, "listen", ":8090", "Address to listen on")
	f.StringVar(&config.maxBodySizeInput, "max-value-size", "0", "Largest accepted request body, 0 keeps the transport default. Examples: 64KiB, 1MiB")
	f.DurationVar(&config.readTimeout, "read-timeout", 30*time.Second, "Request read timeout")
	f.DurationVar(&config.writeTimeout, "write-timeout", 30*time.Second, "Response write timeout")
	cmdRoot.AddCommand(cmdServe)
}

func newServer() *fasthttp.Server {
	return &fasthttp.Server{
		Handler:            newBridge(namespace()).handle,
		Name:               "goxattr",
		MaxRequestBodySize: int(config.maxBodySize),
		ReadTimeout:        config.readTimeout,
		WriteTimeout:       config.writeTimeout,
	}
}

func serve() error {
	srv := newServer()
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		sig := <-stop
		log.Infof("Received %v, shutting down", sig)
		if err := srv.Shutdown(); err != nil {
			log.Errorf("Shutdown: %v", err)
		}
	}()

	log.Infof("Serving extended attributes on %s (namespace %q)", config.listen, config.namespace)
	return errors.Wrap(srv.ListenAndServe(config.listen), "serve")
}
