// Switchboard - Plural System Tracking and PluralKit Sync
// Copyright 2026 Switchboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plurapi/switchboard

package pluralkit

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/plurapi/switchboard/internal/logging"
	"github.com/plurapi/switchboard/internal/metrics"
)

// Lane identifies which rate-limit bucket a request consumes. The two
// lanes drain independently so a bulk member sync cannot starve front
// sync traffic, and vice versa.
type Lane string

const (
	LaneMember    Lane = "member"
	LaneFrontSync Lane = "front_sync"
)

const (
	// dispatchInterval is how often queued requests are pulled.
	dispatchInterval = 100 * time.Millisecond

	// quotaInterval is how often per-lane counters reset.
	quotaInterval = 1000 * time.Millisecond

	queueKeyPrefix = "pkreq:"
)

// Request is one queued remote call. Requests are durable: they survive a
// restart and are executed once capacity allows.
type Request struct {
	ID     string `json:"id"`
	Lane   Lane   `json:"lane"`
	Method string `json:"method"`

	// Path is relative to the API base URL and includes any query string.
	Path string `json:"path"`
	Body []byte `json:"body,omitempty"`

	// Token is sent as the Authorization header.
	Token string `json:"token"`

	EnqueuedAt int64 `json:"enqueuedAt"` // unix nanos, orders the queue
}

// Response is the outcome of an executed request. A transport-level
// failure produces no Response at all.
type Response struct {
	StatusCode int
	Body       []byte
}

// Err maps the response status onto the error taxonomy; nil for 2xx.
func (r *Response) Err() error {
	return statusError(r.StatusCode)
}

type laneResult struct {
	resp *Response
	err  error
}

// DispatcherConfig carries the dispatcher tunables.
type DispatcherConfig struct {
	BaseURL            string
	MemberRateLimit    int
	FrontSyncRateLimit int
	MemberAppHeader    string
	FrontSyncAppHeader string
	DispatchTimeout    time.Duration
	RequestTimeout     time.Duration
}

// Dispatcher owns the durable request queue and the per-lane quota
// accounting. Exactly one dispatcher runs per process; callers hold a
// reference rather than reaching for a global.
type Dispatcher struct {
	cfg      DispatcherConfig
	db       *badger.DB
	client   *http.Client
	breaker  *gobreaker.CircuitBreaker[*Response]
	limiters map[Lane]*rate.Limiter

	mu       sync.Mutex
	inFlight map[string]struct{}
	waiters  map[string]chan laneResult
	counters map[Lane]int

	log zerolog.Logger
}

// NewDispatcher creates a dispatcher backed by db for queue durability.
// Call Serve to start the dispatch and quota loops.
func NewDispatcher(cfg DispatcherConfig, db *badger.DB) *Dispatcher {
	cbName := "pluralkit-api"
	metrics.CircuitBreakerState.WithLabelValues(cbName).Set(0)

	breaker := gobreaker.NewCircuitBreaker[*Response](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= 0.6
			if shouldTrip {
				logging.Warn().Uint32("failures", counts.TotalFailures).Float64("failure_rate", failureRatio*100).Msg("[CIRCUIT BREAKER] Opening circuit")
			}
			return shouldTrip
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := breakerStateString(from)
			toStr := breakerStateString(to)
			logging.Info().Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] State transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(breakerStateFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
		},
	})

	return &Dispatcher{
		cfg:     cfg,
		db:      db,
		client:  &http.Client{Timeout: cfg.RequestTimeout},
		breaker: breaker,
		limiters: map[Lane]*rate.Limiter{
			LaneMember:    rate.NewLimiter(rate.Limit(cfg.MemberRateLimit), cfg.MemberRateLimit),
			LaneFrontSync: rate.NewLimiter(rate.Limit(cfg.FrontSyncRateLimit), cfg.FrontSyncRateLimit),
		},
		inFlight: make(map[string]struct{}),
		waiters:  make(map[string]chan laneResult),
		counters: make(map[Lane]int),
		log:      logging.With().Str("component", "pk-dispatcher").Logger(),
	}
}

// String implements suture's service naming.
func (d *Dispatcher) String() string {
	return "pluralkit-dispatcher"
}

// Dispatch enqueues req and blocks until it completes, the dispatch
// timeout elapses, or ctx is canceled. A timed-out request stays queued
// and still executes; only the caller stops waiting.
func (d *Dispatcher) Dispatch(ctx context.Context, req *Request) (*Response, error) {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	req.EnqueuedAt = time.Now().UnixNano()

	ch := make(chan laneResult, 1)
	d.mu.Lock()
	d.waiters[req.ID] = ch
	d.mu.Unlock()

	if err := d.enqueue(req); err != nil {
		d.dropWaiter(req.ID)
		return nil, err
	}

	timeout := d.cfg.DispatchTimeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		return res.resp, res.err
	case <-timer.C:
		d.dropWaiter(req.ID)
		metrics.PKDispatchTimeouts.WithLabelValues(string(req.Lane)).Inc()
		return nil, ErrDispatchTimeout
	case <-ctx.Done():
		d.dropWaiter(req.ID)
		return nil, ctx.Err()
	}
}

// Serve runs the dispatch and quota-reset loops until ctx is canceled.
// Requests left over from a previous run are picked up on the first tick.
func (d *Dispatcher) Serve(ctx context.Context) error {
	d.log.Info().
		Int("member_rate_limit", d.cfg.MemberRateLimit).
		Int("front_sync_rate_limit", d.cfg.FrontSyncRateLimit).
		Msg("Dispatcher starting")

	dispatchTicker := time.NewTicker(dispatchInterval)
	defer dispatchTicker.Stop()
	quotaTicker := time.NewTicker(quotaInterval)
	defer quotaTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.log.Info().Msg("Dispatcher stopping")
			return ctx.Err()
		case <-quotaTicker.C:
			d.mu.Lock()
			d.counters[LaneMember] = 0
			d.counters[LaneFrontSync] = 0
			d.mu.Unlock()
		case <-dispatchTicker.C:
			d.tick(ctx, LaneMember)
			d.tick(ctx, LaneFrontSync)
		}
	}
}

// tick pulls up to the lane's remaining quota from the durable queue and
// executes each pulled request concurrently.
func (d *Dispatcher) tick(ctx context.Context, lane Lane) {
	d.mu.Lock()
	capacity := d.laneLimit(lane) - d.counters[lane]
	if capacity <= 0 {
		d.mu.Unlock()
		return
	}
	skip := make(map[string]struct{}, len(d.inFlight))
	for id := range d.inFlight {
		skip[id] = struct{}{}
	}
	d.mu.Unlock()

	queued, err := d.nextQueued(lane, capacity, skip)
	if err != nil {
		d.log.Error().Err(err).Str("lane", string(lane)).Msg("Failed to read dispatch queue")
		return
	}
	if len(queued) == 0 {
		return
	}

	d.mu.Lock()
	for _, q := range queued {
		d.counters[lane]++
		d.inFlight[q.req.ID] = struct{}{}
	}
	d.mu.Unlock()

	for _, q := range queued {
		go d.execute(ctx, q)
	}
}

func (d *Dispatcher) laneLimit(lane Lane) int {
	if lane == LaneFrontSync {
		return d.cfg.FrontSyncRateLimit
	}
	return d.cfg.MemberRateLimit
}

func (d *Dispatcher) appHeader(lane Lane) string {
	if lane == LaneFrontSync {
		return d.cfg.FrontSyncAppHeader
	}
	return d.cfg.MemberAppHeader
}

// execute performs one queued request, removes it from the queue, and
// delivers the outcome to its waiter if one is still registered.
func (d *Dispatcher) execute(ctx context.Context, q *queuedRequest) {
	req := q.req
	metrics.RecordPKQueueWait(string(req.Lane), time.Since(time.Unix(0, req.EnqueuedAt)))

	// Secondary guard keeping the outbound rate smooth across ticks.
	if err := d.limiters[req.Lane].Wait(ctx); err != nil {
		d.finish(q, laneResult{err: err})
		return
	}

	start := time.Now()
	resp, err := d.breaker.Execute(func() (*Response, error) {
		return d.doHTTP(ctx, req)
	})
	elapsed := time.Since(start)

	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.CircuitBreakerRequests.WithLabelValues("pluralkit-api", "rejected").Inc()
		d.finish(q, laneResult{err: fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)})
	case err != nil:
		metrics.CircuitBreakerRequests.WithLabelValues("pluralkit-api", "failure").Inc()
		metrics.PKTransportErrors.WithLabelValues(string(req.Lane)).Inc()
		d.log.Warn().Err(err).Str("lane", string(req.Lane)).Str("method", req.Method).Str("path", req.Path).Msg("Transport failure")
		d.finish(q, laneResult{err: fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)})
	default:
		metrics.CircuitBreakerRequests.WithLabelValues("pluralkit-api", "success").Inc()
		metrics.RecordPKRequest(string(req.Lane), req.Method, resp.StatusCode, elapsed)
		d.finish(q, laneResult{resp: resp})
	}
}

func (d *Dispatcher) doHTTP(ctx context.Context, req *Request) (*Response, error) {
	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, d.cfg.BaseURL+"/"+req.Path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Authorization", req.Token)
	if len(req.Body) > 0 {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if app := d.appHeader(req.Lane); app != "" {
		httpReq.Header.Set("X-PluralKit-App", app)
	}

	httpResp, err := d.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	return &Response{StatusCode: httpResp.StatusCode, Body: data}, nil
}

// finish removes the request from the durable queue and in-flight set,
// then hands the result to the waiter. Orphaned results (waiter timed out
// or a restart lost it) are dropped.
func (d *Dispatcher) finish(q *queuedRequest, res laneResult) {
	if err := d.removeQueued(q.key); err != nil {
		d.log.Error().Err(err).Str("request_id", q.req.ID).Msg("Failed to remove completed request from queue")
	}

	d.mu.Lock()
	delete(d.inFlight, q.req.ID)
	ch, ok := d.waiters[q.req.ID]
	if ok {
		delete(d.waiters, q.req.ID)
	}
	d.mu.Unlock()

	d.updateQueueDepth(q.req.Lane)

	if ok {
		ch <- res
	}
}

func (d *Dispatcher) dropWaiter(id string) {
	d.mu.Lock()
	delete(d.waiters, id)
	d.mu.Unlock()
}

// queuedRequest pairs a decoded request with its storage key.
type queuedRequest struct {
	key []byte
	req *Request
}

func queueKey(req *Request) []byte {
	return []byte(fmt.Sprintf("%s%s:%020d:%s", queueKeyPrefix, req.Lane, req.EnqueuedAt, req.ID))
}

func (d *Dispatcher) enqueue(req *Request) error {
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal queued request: %w", err)
	}
	err = d.db.Update(func(txn *badger.Txn) error {
		return txn.Set(queueKey(req), data)
	})
	if err != nil {
		return fmt.Errorf("enqueue request: %w", err)
	}
	d.updateQueueDepth(req.Lane)
	return nil
}

// nextQueued returns up to max queued requests for lane in enqueue order,
// skipping any already in flight.
func (d *Dispatcher) nextQueued(lane Lane, max int, skip map[string]struct{}) ([]*queuedRequest, error) {
	var out []*queuedRequest
	err := d.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(queueKeyPrefix + string(lane) + ":")
		for it.Seek(prefix); it.ValidForPrefix(prefix) && len(out) < max; it.Next() {
			item := it.Item()
			req := &Request{}
			err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, req)
			})
			if err != nil {
				return fmt.Errorf("unmarshal queued request %s: %w", item.Key(), err)
			}
			if _, busy := skip[req.ID]; busy {
				continue
			}
			out = append(out, &queuedRequest{key: item.KeyCopy(nil), req: req})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (d *Dispatcher) removeQueued(key []byte) error {
	return d.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	})
}

func (d *Dispatcher) updateQueueDepth(lane Lane) {
	count := 0
	err := d.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(queueKeyPrefix + string(lane) + ":")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		return
	}
	metrics.PKQueueDepth.WithLabelValues(string(lane)).Set(float64(count))
}

func breakerStateFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func breakerStateString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
