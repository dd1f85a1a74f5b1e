// This file contains the http handlers of the kernel. They are registered
// on the proxy server when one is running.

package controller

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.dedis.ch/acta"
	"go.dedis.ch/acta/cli/node"
	"go.dedis.ch/acta/core/execution/action"
	"go.dedis.ch/acta/core/registry"
	"go.dedis.ch/acta/core/txn/signed"
	"go.dedis.ch/acta/proxy"
	"go.dedis.ch/acta/serde"
	sjson "go.dedis.ch/acta/serde/json"
)

func registerHandlers(inj node.Injector, kernel Kernel,
	dispatcher *action.Service, reg *registry.Registry) {

	var proxyhttp proxy.Proxy

	err := inj.Resolve(&proxyhttp)
	if err != nil {
		acta.Logger.Warn().Msg("no proxy server, skipping http handlers")
		return
	}

	txs := txsHandler{
		kernel: kernel,
		ctx:    sjson.NewContext(),
		fac:    signed.NewTransactionFactory(),
	}

	proxyhttp.RegisterHandler("/txs", txs.ServeHTTP)
	proxyhttp.RegisterHandler("/actions", listHandler{list: dispatcher.GetActions}.ServeHTTP)
	proxyhttp.RegisterHandler("/components", listHandler{list: reg.Names}.ServeHTTP)
}

// txsHandler accepts a serialized transaction and executes it.
//
// - implements http.Handler
type txsHandler struct {
	kernel Kernel
	ctx    serde.Context
	fac    signed.TransactionFactory
}

// ServeHTTP implements http.Handler. It decodes the transaction in the
// request body, executes it and replies with the result.
func (h txsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "only POST is allowed", http.StatusMethodNotAllowed)
		return
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to read body: %v", err), http.StatusInternalServerError)
		return
	}

	tx, err := h.fac.TransactionOf(h.ctx, data)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to decode transaction: %v", err), http.StatusBadRequest)
		return
	}

	res, err := h.kernel.Execute(tx)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to execute: %v", err), http.StatusInternalServerError)
		return
	}

	reply := struct {
		Accepted bool   `json:"accepted"`
		Message  string `json:"message,omitempty"`
	}{
		Accepted: res.Accepted,
		Message:  res.Message,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(reply)
}

// listHandler replies with a list of names.
//
// - implements http.Handler
type listHandler struct {
	list func() []string
}

// ServeHTTP implements http.Handler. It replies with the names as a JSON
// array.
func (h listHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.list())
}
