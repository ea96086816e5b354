// Package metrics keeps process-local counters and moving averages exposed
// on the metrics endpoint. The registry never blocks and never fails the
// request path; everything is atomics plus a couple of small ring buffers.
package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Circuit breaker status labels reported on the snapshot.
const (
	StatusClosed   = "CLOSED"
	StatusOpen     = "OPEN"
	StatusHalfOpen = "HALF_OPEN"
)

const (
	responseWindowSize = 1000
	upstreamWindowSize = 100
)

// Registry tracks request, cache, token, webhook, and upstream counters.
// All methods are safe for concurrent use.
type Registry struct {
	startedAt atomic.Int64 // unix nanos

	requestsTotal      atomic.Int64
	requestsSucceeded  atomic.Int64
	requestsFailed     atomic.Int64
	requestsRateLimited atomic.Int64

	queriesTotal atomic.Int64
	cacheHits    atomic.Int64
	cacheMisses  atomic.Int64

	tokenFetches   atomic.Int64
	tokenCacheHits atomic.Int64
	tokenRefreshes atomic.Int64

	webhooksReceived  atomic.Int64
	webhooksDuplicate atomic.Int64
	webhooksProcessed atomic.Int64

	upstreamCalls  atomic.Int64
	upstreamErrors atomic.Int64

	mu            sync.RWMutex
	circuitStatus string

	responseTimes *movingWindow
	upstreamTimes *movingWindow
}

// NewRegistry creates a registry with the uptime clock started at now.
func NewRegistry() *Registry {
	r := &Registry{
		circuitStatus: StatusClosed,
		responseTimes: newMovingWindow(responseWindowSize),
		upstreamTimes: newMovingWindow(upstreamWindowSize),
	}
	r.startedAt.Store(time.Now().UnixNano())
	return r
}

// RecordRequest counts an admitted inbound request.
func (r *Registry) RecordRequest() { r.requestsTotal.Add(1) }

// RecordSuccess counts a successful request and tracks its latency.
func (r *Registry) RecordSuccess(latency time.Duration) {
	r.requestsSucceeded.Add(1)
	r.responseTimes.Push(float64(latency.Milliseconds()))
}

// RecordFailure counts a failed request.
func (r *Registry) RecordFailure() { r.requestsFailed.Add(1) }

// RecordRateLimited counts an admission rejection. Rejections are tracked
// separately from request failures.
func (r *Registry) RecordRateLimited() { r.requestsRateLimited.Add(1) }

// RecordQuery counts a catalog read and whether it was served from cache.
func (r *Registry) RecordQuery(cacheHit bool) {
	r.queriesTotal.Add(1)
	if cacheHit {
		r.cacheHits.Add(1)
	} else {
		r.cacheMisses.Add(1)
	}
}

func (r *Registry) RecordTokenFetch()    { r.tokenFetches.Add(1) }
func (r *Registry) RecordTokenCacheHit() { r.tokenCacheHits.Add(1) }
func (r *Registry) RecordTokenRefresh()  { r.tokenRefreshes.Add(1) }

func (r *Registry) RecordWebhookReceived()  { r.webhooksReceived.Add(1) }
func (r *Registry) RecordWebhookDuplicate() { r.webhooksDuplicate.Add(1) }
func (r *Registry) RecordWebhookProcessed() { r.webhooksProcessed.Add(1) }

// RecordUpstreamCall counts an outbound feed call and tracks its latency.
func (r *Registry) RecordUpstreamCall(latency time.Duration, failed bool) {
	r.upstreamCalls.Add(1)
	if failed {
		r.upstreamErrors.Add(1)
	}
	r.upstreamTimes.Push(float64(latency.Milliseconds()))
}

// SetCircuitStatus records the current breaker status label. Wired as the
// breaker's transition callback.
func (r *Registry) SetCircuitStatus(status string) {
	r.mu.Lock()
	r.circuitStatus = status
	r.mu.Unlock()
}

// Snapshot is the JSON shape served by the metrics endpoint.
type Snapshot struct {
	UptimeSeconds int64 `json:"uptime_seconds"`

	Requests struct {
		Total       int64 `json:"total"`
		Successful  int64 `json:"successful"`
		Failed      int64 `json:"failed"`
		RateLimited int64 `json:"rate_limited"`
	} `json:"requests"`

	Catalog struct {
		QueriesTotal      int64   `json:"queries_total"`
		CacheHits         int64   `json:"cache_hits"`
		CacheMisses       int64   `json:"cache_misses"`
		AvgResponseTimeMs float64 `json:"avg_response_time_ms"`
	} `json:"catalog"`

	OAuth struct {
		TokenFetches   int64 `json:"token_fetches"`
		TokenCacheHits int64 `json:"token_cache_hits"`
		Refreshes      int64 `json:"refreshes"`
	} `json:"oauth"`

	Webhooks struct {
		Received  int64 `json:"received"`
		Duplicate int64 `json:"duplicate"`
		Processed int64 `json:"processed"`
	} `json:"webhooks"`

	Upstream struct {
		Calls                int64   `json:"calls"`
		Errors               int64   `json:"errors"`
		AvgCallTimeMs        float64 `json:"avg_call_time_ms"`
		CircuitBreakerStatus string  `json:"circuit_breaker_status"`
	} `json:"upstream"`
}

// Snapshot returns a point-in-time copy of all counters and averages.
func (r *Registry) Snapshot() Snapshot {
	var s Snapshot
	s.UptimeSeconds = int64(time.Since(time.Unix(0, r.startedAt.Load())).Seconds())

	s.Requests.Total = r.requestsTotal.Load()
	s.Requests.Successful = r.requestsSucceeded.Load()
	s.Requests.Failed = r.requestsFailed.Load()
	s.Requests.RateLimited = r.requestsRateLimited.Load()

	s.Catalog.QueriesTotal = r.queriesTotal.Load()
	s.Catalog.CacheHits = r.cacheHits.Load()
	s.Catalog.CacheMisses = r.cacheMisses.Load()
	s.Catalog.AvgResponseTimeMs = r.responseTimes.Average()

	s.OAuth.TokenFetches = r.tokenFetches.Load()
	s.OAuth.TokenCacheHits = r.tokenCacheHits.Load()
	s.OAuth.Refreshes = r.tokenRefreshes.Load()

	s.Webhooks.Received = r.webhooksReceived.Load()
	s.Webhooks.Duplicate = r.webhooksDuplicate.Load()
	s.Webhooks.Processed = r.webhooksProcessed.Load()

	s.Upstream.Calls = r.upstreamCalls.Load()
	s.Upstream.Errors = r.upstreamErrors.Load()
	s.Upstream.AvgCallTimeMs = r.upstreamTimes.Average()

	r.mu.RLock()
	s.Upstream.CircuitBreakerStatus = r.circuitStatus
	r.mu.RUnlock()

	return s
}

// Reset clears all counters and windows and restarts the uptime clock.
func (r *Registry) Reset() {
	r.startedAt.Store(time.Now().UnixNano())

	r.requestsTotal.Store(0)
	r.requestsSucceeded.Store(0)
	r.requestsFailed.Store(0)
	r.requestsRateLimited.Store(0)

	r.queriesTotal.Store(0)
	r.cacheHits.Store(0)
	r.cacheMisses.Store(0)

	r.tokenFetches.Store(0)
	r.tokenCacheHits.Store(0)
	r.tokenRefreshes.Store(0)

	r.webhooksReceived.Store(0)
	r.webhooksDuplicate.Store(0)
	r.webhooksProcessed.Store(0)

	r.upstreamCalls.Store(0)
	r.upstreamErrors.Store(0)

	r.responseTimes.Reset()
	r.upstreamTimes.Reset()

	r.mu.Lock()
	r.circuitStatus = StatusClosed
	r.mu.Unlock()
}
