// Copyright (c) 2026 John Dewey

// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to
// deal in the Software without restriction, including without limitation the
// rights to use, copy, modify, merge, publish, distribute, sublicense, and/or
// sell copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:

// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.

// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING
// FROM, OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER
// DEALINGS IN THE SOFTWARE.

// Package diag records network outcomes and escalates the ones that
// matter.
//
// Every completed exchange lands in a bounded ring of NetEvents. Events
// are classified into kinds; escalated kinds are reported through the
// logger at most once per throttle window per key, while routine
// client errors only leave a debug breadcrumb.
package diag

import (
	"net/http"
	"time"
)

// Synthetic codes carried by responses that never reached the backend.
const (
	CodeMissingConfig  = "missing_config"
	CodeNetworkTimeout = "network_timeout"
	CodeNetworkError   = "network_error"
	CodeClientTimeout  = "client_timeout"
	CodeException      = "exception"
	CodeStorageTimeout = "storage_timeout"
)

// NetEvent is one completed network exchange.
type NetEvent struct {
	// Timestamp is when the exchange completed.
	Timestamp time.Time `json:"timestamp"`
	// Method is the HTTP method.
	Method string `json:"method"`
	// Path is the URL path without query string.
	Path string `json:"path"`
	// Status is the HTTP status, or 0 for synthetic outcomes.
	Status int `json:"status"`
	// DurationMs is the elapsed time in milliseconds.
	DurationMs int64 `json:"duration_ms"`
	// SyntheticCode is set when no real response was received.
	SyntheticCode string `json:"synthetic_code,omitempty"`
	// Via names the layer that recorded the event (e.g., "data", "rpc").
	Via string `json:"via"`
}

// Kind classifies a NetEvent or a non-network diagnostic.
type Kind string

// Event kinds.
const (
	KindOK             Kind = "ok"
	KindAuthFailure    Kind = "auth_failure"
	KindMissingConfig  Kind = "missing_config"
	KindNetworkTimeout Kind = "network_timeout"
	KindNetworkError   Kind = "network_error"
	KindClientTimeout  Kind = "client_timeout"
	KindException      Kind = "exception"
	KindServerError    Kind = "server_error"
	KindRateLimited    Kind = "rate_limited"
	KindNotAcceptable  Kind = "not_acceptable"
	KindClientError    Kind = "client_error"
	KindStorageTimeout Kind = "storage_timeout"
	KindRefreshFailed  Kind = "refresh_failed"
)

// Severity decides what happens to a classified event beyond the ring.
type Severity int

const (
	// SeverityNone events are only kept in the ring.
	SeverityNone Severity = iota
	// SeverityBreadcrumb events are logged at debug level.
	SeverityBreadcrumb
	// SeverityEscalate events are reported, subject to throttling.
	SeverityEscalate
)

// String returns the lowercase name of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityBreadcrumb:
		return "breadcrumb"
	case SeverityEscalate:
		return "escalate"
	default:
		return "none"
	}
}

// Classify maps an event to its kind.
func Classify(
	ev NetEvent,
) Kind {
	switch ev.SyntheticCode {
	case CodeMissingConfig:
		return KindMissingConfig
	case CodeNetworkTimeout:
		return KindNetworkTimeout
	case CodeNetworkError:
		return KindNetworkError
	case CodeClientTimeout:
		return KindClientTimeout
	case CodeException:
		return KindException
	case CodeStorageTimeout:
		return KindStorageTimeout
	}

	switch {
	case ev.Status == http.StatusUnauthorized, ev.Status == http.StatusForbidden:
		return KindAuthFailure
	case ev.Status == http.StatusTooManyRequests:
		return KindRateLimited
	case ev.Status >= http.StatusInternalServerError:
		return KindServerError
	case ev.Status == http.StatusNotAcceptable:
		return KindNotAcceptable
	case ev.Status >= http.StatusBadRequest:
		return KindClientError
	default:
		return KindOK
	}
}

// SeverityOf returns the default severity of a kind. Startup grace is
// applied by the Recorder on top of this.
func SeverityOf(
	kind Kind,
) Severity {
	switch kind {
	case KindAuthFailure,
		KindMissingConfig,
		KindNetworkTimeout,
		KindNetworkError,
		KindClientTimeout,
		KindException,
		KindServerError,
		KindRateLimited,
		KindRefreshFailed:
		return SeverityEscalate
	case KindNotAcceptable, KindClientError, KindStorageTimeout:
		return SeverityBreadcrumb
	default:
		return SeverityNone
	}
}

// IsAuthFailure reports whether status signals a rejected credential.
func IsAuthFailure(
	status int,
) bool {
	return status == http.StatusUnauthorized || status == http.StatusForbidden
}
