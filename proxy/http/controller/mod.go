// Package controller implements a controller for the http proxy. It starts
// the server from the start flags and registers the Prometheus handler on
// it.
package controller

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.dedis.ch/acta"
	"go.dedis.ch/acta/cli"
	"go.dedis.ch/acta/cli/node"
	"go.dedis.ch/acta/proxy"
	"go.dedis.ch/acta/proxy/http"
	"golang.org/x/xerrors"
)

const defaultAddr = "127.0.0.1:8080"

const defaultProm = "/metrics"

var defaultRetry = 20
var retryWait = 100 * time.Millisecond

var proxyFac func(string) proxy.Proxy = func(addr string) proxy.Proxy {
	return http.NewHTTP(addr)
}

// NewController returns a new minimal initializer
func NewController() node.Initializer {
	return minimal{}
}

// minimal is an initializer that creates, starts, and injects a client
// proxy.
//
// - implements node.Initializer
type minimal struct{}

// SetCommands implements node.Initializer. It sets the start flags of the
// proxy.
func (m minimal) SetCommands(builder node.Builder) {
	builder.SetStartFlags(
		cli.StringFlag{
			Name:     "clientaddr",
			Required: false,
			Usage:    "the address of the http client",
			Value:    defaultAddr,
		},
		cli.StringFlag{
			Name:     "prompath",
			Required: false,
			Usage:    "the path of the prometheus handler",
			Value:    defaultProm,
		},
	)
}

// OnStart implements node.Initializer. It starts the proxy server, waits
// for the listener, registers the Prometheus collectors and injects the
// proxy.
func (m minimal) OnStart(flags cli.Flags, inj node.Injector) error {
	proxyhttp := proxyFac(flags.String("clientaddr"))

	go proxyhttp.Listen()

	for i := 0; i < defaultRetry && proxyhttp.GetAddr() == nil; i++ {
		time.Sleep(retryWait)
	}

	if proxyhttp.GetAddr() == nil {
		return xerrors.New("failed to start proxy server")
	}

	path := flags.String("prompath")

	for _, c := range acta.PromCollectors {
		err := prometheus.DefaultRegisterer.Register(c)
		if err != nil {
			acta.Logger.Warn().Msgf("failed to register collector: %v", err)
		}
	}

	proxyhttp.RegisterHandler(path, promhttp.Handler().ServeHTTP)

	inj.Inject(proxyhttp)

	acta.Logger.Info().Msgf("started proxy server on %s", proxyhttp.GetAddr())

	return nil
}

// OnStop implements node.Initializer. It stops the http server.
func (m minimal) OnStop(inj node.Injector) error {
	var proxyhttp proxy.Proxy

	err := inj.Resolve(&proxyhttp)
	if err != nil {
		return xerrors.Errorf("failed to resolve the proxy: %v", err)
	}

	proxyhttp.Stop()

	return nil
}
