// Package main implements a daemon hosting the kernel with a bank
// component.
//
//	go run mod.go start
//	go run mod.go --config /tmp/node start --clientaddr 127.0.0.1:8080 \
//	  --genesis genesis.yml
//	go run mod.go --config /tmp/node bank deposit --account XX --amount 100
//	go run mod.go --config /tmp/node access grant --identity XX --level user
//	go run mod.go --config /tmp/node actions list
package main

import (
	"fmt"
	"io"
	"os"

	accessctl "go.dedis.ch/acta/actions/access/controller"
	bankctl "go.dedis.ch/acta/actions/bank/controller"
	"go.dedis.ch/acta/cli/node"
	kernel "go.dedis.ch/acta/core/execution/action/controller"
	db "go.dedis.ch/acta/core/store/kv/controller"
	proxy "go.dedis.ch/acta/proxy/http/controller"
)

func main() {
	err := run(os.Args)
	if err != nil {
		fmt.Printf("%+v\n", err)
	}
}

func run(args []string) error {
	return runWithCfg(args, config{Writer: os.Stdout})
}

type config struct {
	Channel chan os.Signal
	Writer  io.Writer
}

func runWithCfg(args []string, cfg config) error {
	builder := node.NewBuilderWithCfg(
		cfg.Channel,
		cfg.Writer,
		db.NewController(),
		proxy.NewController(),
		kernel.NewController(),
		accessctl.NewController(),
		bankctl.NewController(),
	)

	app := builder.Build()

	return app.Run(args)
}
