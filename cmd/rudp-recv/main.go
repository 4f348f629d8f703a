// Command rudp-recv listens on an ephemeral loopback UDP port, accepts a
// single rudp-send session, and writes the delivered bytes to standard
// output in order.
package main

import (
	"flag"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nimmisuri/custom-transport-protocol/internal/config"
	"github.com/nimmisuri/custom-transport-protocol/internal/diag"
	"github.com/nimmisuri/custom-transport-protocol/internal/receiver"
	"github.com/nimmisuri/custom-transport-protocol/internal/transport"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "optional YAML tunables file")
	metricsAddr := flag.String("metrics", "", "optional host:port to serve Prometheus metrics on")
	flag.Parse()

	sink := diag.Default()
	sink.Session()

	resolved := config.Load(*configPath, sink)

	ep, err := transport.Bind("127.0.0.1:0")
	if err != nil {
		sink.Error(err.Error())
		return 1
	}
	defer ep.Close()
	sink.Bound(ep.LocalPort())

	if *metricsAddr != "" {
		go func() {
			if err := http.ListenAndServe(*metricsAddr, promhttp.Handler()); err != nil && err != http.ErrServerClosed {
				sink.Error("metrics server: " + err.Error())
			}
		}()
	}

	s := receiver.New()
	if err := receiver.Run(s, ep, os.Stdout, sink, resolved.IdleTimeout); err != nil {
		sink.Error(err.Error())
		return 1
	}
	return 0
}
