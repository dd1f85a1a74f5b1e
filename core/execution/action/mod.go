// Package action implements the dispatcher that executes named actions on
// behalf of signed transactions.
//
// An action is a unit of behavior registered under a unique name. The name of
// the action to run travels as a reserved transaction argument. Before an
// action is invoked, the dispatcher checks that the transaction has not been
// processed recently, that its nonce matches the expected one for the
// identity, and that the identity holds the permission level the action
// requires.
//
// While an action runs, the dispatcher holds an active marker with a fresh
// capability token. Components only mutate their state when the token they
// receive validates against the marker, so a component reference leaked
// outside an action cannot be driven directly.
package action

import (
	"context"
	"encoding/binary"
	"fmt"
	"sort"
	"time"

	"github.com/dedis/debugtools/channel"
	"github.com/opentracing/opentracing-go"
	cache "github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/xid"
	"go.dedis.ch/acta"
	"go.dedis.ch/acta/core"
	"go.dedis.ch/acta/core/access"
	"go.dedis.ch/acta/core/execution"
	"go.dedis.ch/acta/core/store"
	"go.dedis.ch/acta/core/store/prefixed"
	"go.dedis.ch/acta/internal/debugsync"
	"golang.org/x/xerrors"
)

const (
	// ActionArg is the argument key in the transaction to look up an action.
	ActionArg = "go.dedis.ch/acta.ActionArg"

	// UID is the storage namespace of the dispatcher, where it keeps the
	// per-identity nonces.
	UID = "DISP"

	// recentTTL is how long a transaction ID stays in the duplicate window.
	recentTTL = 5 * time.Minute

	// watchBuffer is the size of the buffer of a watcher channel.
	watchBuffer = 100
)

// defines prometheus metrics
var (
	promExecutions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "acta_dispatcher_executions_total",
		Help: "total number of action executions",
	}, []string{"action", "accepted"})

	promDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "acta_dispatcher_execution_seconds",
		Help:    "duration of the last action execution",
		Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5},
	})
)

func init() {
	acta.PromCollectors = append(acta.PromCollectors, promExecutions, promDuration)
}

// Token is the capability handed to an action while it runs. Components
// validate it against the dispatcher before mutating their state.
type Token string

// Session carries the capability token of the current execution. It is given
// to the action so that it can prove to components that it is the one
// currently running.
type Session struct {
	token Token
}

// GetToken returns the capability token of the session.
func (sess Session) GetToken() Token {
	return sess.token
}

// Action is the interface to implement to register an action that will be
// executed by the dispatcher.
type Action interface {
	// Execute applies the transaction of the step to the snapshot. The
	// session carries the token components will ask for.
	Execute(sess Session, snap store.Snapshot, step execution.Step) error

	// Requirement returns the permission level an identity must hold to
	// invoke the action.
	Requirement() access.Level
}

// Event is the event sent to watchers after a transaction went through the
// dispatcher.
type Event struct {
	TransactionID []byte
	Action        string
	Identity      access.Identity
	Result        execution.Result
}

// marker is the record of the action currently executing.
type marker struct {
	token    Token
	name     string
	identity access.Identity
	start    time.Time
}

// Service is a dispatcher for registered actions. It serializes executions so
// that at most one action is active at a time.
//
// - implements execution.Service
type Service struct {
	lock       debugsync.Mutex
	markerLock debugsync.RWMutex

	actions map[string]Action
	access  access.Service
	watcher core.Observable
	recent  *cache.Cache
	active  *marker
	tracer  opentracing.Tracer
}

// NewService returns a new empty dispatcher using the access service for the
// permission checks.
func NewService(asrvc access.Service) *Service {
	return &Service{
		actions: map[string]Action{},
		access:  asrvc,
		watcher: core.NewWatcher(),
		recent:  cache.New(recentTTL, 2*recentTTL),
	}
}

// Set stores the action using the name as the key. A transaction can trigger
// this action by using the same name as the action argument.
func (srvc *Service) Set(name string, action Action) {
	if _, ok := srvc.actions[name]; ok {
		panic(xerrors.Errorf("action '%s' already registered", name))
	}

	srvc.actions[name] = action
}

// SetTracer sets the tracer that will receive a span per execution.
func (srvc *Service) SetTracer(tracer opentracing.Tracer) {
	srvc.tracer = tracer
}

// GetActions returns the sorted list of registered action names.
func (srvc *Service) GetActions() []string {
	names := make(sort.StringSlice, 0, len(srvc.actions))
	for name := range srvc.actions {
		names = append(names, name)
	}

	sort.Sort(names)

	return names
}

// GetNonce returns the nonce expected for the next transaction of the
// identity.
func (srvc *Service) GetNonce(str store.Readable, ident access.Identity) (uint64, error) {
	key, err := ident.MarshalText()
	if err != nil {
		return 0, xerrors.Errorf("couldn't marshal identity: %v", err)
	}

	value, err := prefixed.NewReadable(UID, str).Get(key)
	if err != nil {
		return 0, xerrors.Errorf("store failed: %v", err)
	}

	if len(value) != 8 {
		return 0, nil
	}

	return binary.LittleEndian.Uint64(value), nil
}

// Validate returns nil if the token belongs to the action currently
// executing, otherwise the reason why it does not.
func (srvc *Service) Validate(token Token) error {
	srvc.markerLock.RLock()
	defer srvc.markerLock.RUnlock()

	if srvc.active == nil {
		return xerrors.New("no action in progress")
	}

	if srvc.active.token != token {
		return xerrors.New("token mismatch")
	}

	return nil
}

// Watch returns a timed channel populated with the events of the executions
// that happen while the context is active.
func (srvc *Service) Watch(ctx context.Context) channel.Timed[Event] {
	obs := &observer{ch: channel.WithExpiration[Event](watchBuffer)}

	srvc.watcher.Add(obs)

	go func() {
		<-ctx.Done()
		srvc.watcher.Remove(obs)
	}()

	return obs.ch
}

// Execute implements execution.Service. It looks up the action from the
// reserved argument, runs the transaction through the checks and invokes the
// action. A rejected transaction returns a result with a message, while an
// unknown action or a storage failure returns an error.
func (srvc *Service) Execute(snap store.Snapshot, step execution.Step) (execution.Result, error) {
	name := string(step.Current.GetArg(ActionArg))

	action := srvc.actions[name]
	if action == nil {
		return execution.Result{}, xerrors.Errorf("unknown action '%s'", name)
	}

	srvc.lock.Lock()
	defer srvc.lock.Unlock()

	start := time.Now()

	if srvc.tracer != nil {
		span := srvc.tracer.StartSpan("dispatcher.execute")
		span.SetTag("action", name)

		defer span.Finish()
	}

	res, err := srvc.execute(snap, action, name, step)
	if err != nil {
		return execution.Result{}, err
	}

	promDuration.Observe(time.Since(start).Seconds())
	promExecutions.With(prometheus.Labels{
		"action":   name,
		"accepted": fmt.Sprintf("%v", res.Accepted),
	}).Inc()

	srvc.watcher.Notify(Event{
		TransactionID: step.Current.GetID(),
		Action:        name,
		Identity:      step.Current.GetIdentity(),
		Result:        res,
	})

	return res, nil
}

func (srvc *Service) execute(snap store.Snapshot, action Action,
	name string, step execution.Step) (execution.Result, error) {

	tx := step.Current

	key := fmt.Sprintf("%x", tx.GetID())

	_, found := srvc.recent.Get(key)
	if found {
		return reject("transaction already processed"), nil
	}

	nonce, err := srvc.GetNonce(snap, tx.GetIdentity())
	if err != nil {
		return execution.Result{}, xerrors.Errorf("nonce: %v", err)
	}

	if tx.GetNonce() != nonce {
		msg := fmt.Sprintf("nonce is invalid, expected %d, got %d", nonce, tx.GetNonce())
		return reject(msg), nil
	}

	err = srvc.access.Match(snap, action.Requirement(), tx.GetIdentity())
	if err != nil {
		return reject(fmt.Sprintf("identity not authorized: %v", err)), nil
	}

	token := Token(xid.New().String())

	srvc.setMarker(&marker{
		token:    token,
		name:     name,
		identity: tx.GetIdentity(),
		start:    time.Now(),
	})

	err = action.Execute(Session{token: token}, snap, step)

	srvc.setMarker(nil)

	if err != nil {
		return reject(err.Error()), nil
	}

	err = srvc.setNonce(snap, tx.GetIdentity(), nonce+1)
	if err != nil {
		return execution.Result{}, xerrors.Errorf("failed to advance nonce: %v", err)
	}

	srvc.recent.SetDefault(key, struct{}{})

	return execution.Result{Accepted: true}, nil
}

func (srvc *Service) setMarker(m *marker) {
	srvc.markerLock.Lock()
	srvc.active = m
	srvc.markerLock.Unlock()
}

func (srvc *Service) setNonce(snap store.Snapshot, ident access.Identity, nonce uint64) error {
	key, err := ident.MarshalText()
	if err != nil {
		return xerrors.Errorf("couldn't marshal identity: %v", err)
	}

	buffer := make([]byte, 8)
	binary.LittleEndian.PutUint64(buffer, nonce)

	err = prefixed.NewSnapshot(UID, snap).Set(key, buffer)
	if err != nil {
		return xerrors.Errorf("store failed: %v", err)
	}

	return nil
}

func reject(msg string) execution.Result {
	return execution.Result{
		Accepted: false,
		Message:  msg,
	}
}

// observer is the adapter between the watcher and a timed channel.
//
// - implements core.Observer
type observer struct {
	ch channel.Timed[Event]
}

// NotifyCallback implements core.Observer. It pushes the event to the timed
// channel.
func (obs observer) NotifyCallback(event interface{}) {
	obs.ch.Send(event.(Event))
}
