// Command rudp-send reads bytes from standard input and delivers them,
// reliably and in order, to a rudp-recv listener over UDP.
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/term"

	"github.com/nimmisuri/custom-transport-protocol/internal/config"
	"github.com/nimmisuri/custom-transport-protocol/internal/diag"
	"github.com/nimmisuri/custom-transport-protocol/internal/metrics"
	"github.com/nimmisuri/custom-transport-protocol/internal/sender"
	"github.com/nimmisuri/custom-transport-protocol/internal/transport"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "optional YAML tunables file")
	metricsAddr := flag.String("metrics", "", "optional host:port to serve Prometheus metrics on")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: rudp-send [-config path] [-metrics addr] host:port")
		return 1
	}
	dest := flag.Arg(0)

	sink := diag.Default()
	sink.Session()

	if term.IsTerminal(int(os.Stdin.Fd())) {
		sink.Error("reading from an interactive terminal; pipe or redirect input instead")
	}

	resolved := config.Load(*configPath, sink)

	ep, err := transport.Dial(dest)
	if err != nil {
		sink.Error(err.Error())
		return 1
	}
	defer ep.Close()

	var collector *metrics.Collector
	if *metricsAddr != "" {
		collector = metrics.New(prometheus.Labels{"session": sink.SessionID()})
		reg := prometheus.NewRegistry()
		reg.MustRegister(collector)
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		srv := &http.Server{Addr: *metricsAddr, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				sink.Error("metrics server: " + err.Error())
			}
		}()
	}

	s := sender.New(resolved.Tunables)
	if err := sender.Handshake(s, ep, sink); err != nil {
		sink.Error(err.Error())
		return 1
	}

	observe := func(snap sender.Snapshot) {
		if collector != nil {
			collector.Update(snap)
		}
	}

	if err := sender.Run(s, os.Stdin, ep, sink, observe); err != nil {
		sink.Error(err.Error())
		return 1
	}
	return 0
}
