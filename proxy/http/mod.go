package http

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/xid"
	"github.com/rs/zerolog"
	"go.dedis.ch/acta"
	"golang.org/x/xerrors"
)

type key int

const (
	requestIDKey key = 0
)

// NewHTTP creates a new proxy http
func NewHTTP(listenAddr string) *HTTP {
	logger := acta.Logger.With().Str("role", "http proxy").Logger()

	return &HTTP{
		mux:        http.NewServeMux(),
		logger:     logger,
		listenAddr: listenAddr,
		quit:       make(chan struct{}),
	}
}

// HTTP defines a proxy http
//
// - implements proxy.Proxy
type HTTP struct {
	sync.Mutex

	mux        *http.ServeMux
	server     *http.Server
	ln         net.Listener
	logger     zerolog.Logger
	listenAddr string
	quit       chan struct{}
}

// Listen implements proxy.Proxy. This function can be called multiple times
// provided the server is not running, ie. Stop() has been called. It panics if
// the listener cannot be created.
func (h *HTTP) Listen() {
	nextRequestID := func() string {
		return xid.New().String()
	}

	server := &http.Server{
		Handler: tracing(nextRequestID)(logging(h.logger)(h.mux)),
	}

	h.Lock()
	h.server = server
	h.Unlock()

	done := make(chan struct{})

	go func() {
		<-h.quit
		h.logger.Info().Msg("server is shutting down")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		server.SetKeepAlivesEnabled(false)

		err := server.Shutdown(ctx)
		if err != nil {
			h.logger.Fatal().Msgf("could not gracefully shutdown the server: %v", err)
		}

		close(done)
	}()

	lu := &url.URL{Scheme: "http"}
	if strings.HasPrefix(h.listenAddr, ":") {
		lu.Host = "localhost" + h.listenAddr
	} else {
		lu.Host = h.listenAddr
	}

	ln, err := net.Listen("tcp", h.listenAddr)
	if err != nil {
		err = xerrors.Errorf("failed to create conn '%s': %v", h.listenAddr, err)
		h.logger.Err(err).Msg("failed to listen")
		panic(err)
	}

	h.Lock()
	h.ln = ln
	h.Unlock()

	h.logger.Info().Msgf("server is ready to handle requests at %s", ln.Addr())

	err = server.Serve(ln)
	if err != nil && err != http.ErrServerClosed {
		h.logger.Fatal().Msgf("could not listen on %s: %v", h.listenAddr, err)
	}

	<-done
	h.logger.Info().Msg("server stopped")
}

// Stop implements proxy.Proxy. It should be called only once in order to make
// a new Listen() successful.
func (h *HTTP) Stop() {
	// we don't close it so it can be called multiple times without harm
	h.quit <- struct{}{}
}

// GetAddr implements proxy.Proxy. It returns the address the server is
// listening on, or nil if the server is not started.
func (h *HTTP) GetAddr() net.Addr {
	h.Lock()
	defer h.Unlock()

	if h.ln == nil {
		return nil
	}

	return h.ln.Addr()
}

// RegisterHandler implements proxy.Proxy
func (h *HTTP) RegisterHandler(path string, handler func(http.ResponseWriter,
	*http.Request)) {

	h.mux.HandleFunc(path, handler)
}

// logging is a utility function that logs the http server events
func logging(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				requestID, ok := r.Context().Value(requestIDKey).(string)
				if !ok {
					requestID = "unknown"
				}
				logger.Info().Str("requestID", requestID).
					Str("method", r.Method).
					Str("url", r.URL.Path).
					Str("remoteAddr", r.RemoteAddr).
					Str("agent", r.UserAgent()).Msg("")
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// tracing is a utility function that adds header tracing
func tracing(nextRequestID func() string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get("X-Request-Id")
			if requestID == "" {
				requestID = nextRequestID()
			}
			ctx := context.WithValue(r.Context(), requestIDKey, requestID)
			w.Header().Set("X-Request-Id", requestID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
