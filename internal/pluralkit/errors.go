// Switchboard - Plural System Tracking and PluralKit Sync
// Copyright 2026 Switchboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plurapi/switchboard

package pluralkit

import (
	"errors"
	"fmt"
)

// Sentinel errors for remote API failures. Callers branch on these to
// decide whether a failure is the user's token, their permissions, or the
// remote service itself.
var (
	// ErrInvalidCredential means the stored token was rejected (HTTP 401).
	// The user must re-link their PluralKit account.
	ErrInvalidCredential = errors.New("pluralkit: token is invalid")

	// ErrAccessDenied means the token lacks access to the resource (HTTP 403).
	ErrAccessDenied = errors.New("pluralkit: access denied")

	// ErrRemoteUnavailable means PluralKit could not be reached or
	// answered with a gateway error (transport failure, 502, 503, 504).
	ErrRemoteUnavailable = errors.New("pluralkit: remote unavailable")

	// ErrNotFound means the requested resource does not exist (HTTP 404).
	ErrNotFound = errors.New("pluralkit: not found")

	// ErrDispatchTimeout means a queued request was not completed within
	// the dispatch timeout. The request stays queued and will still be
	// executed; only the caller gave up waiting.
	ErrDispatchTimeout = errors.New("pluralkit: timed out waiting for dispatch")

	// ErrWindowTooDense means a switch window paginated past its safety
	// bound without reaching the window start. The window holds more
	// switches than backward pagination can safely traverse.
	ErrWindowTooDense = errors.New("pluralkit: switch window too dense to paginate")
)

// RemoteError carries a non-2xx status code that has no dedicated
// sentinel. The code is preserved for operator-facing messages.
type RemoteError struct {
	Code int
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("pluralkit: remote error %d", e.Code)
}

// statusError maps a response status code to the error taxonomy. 2xx
// codes map to nil.
func statusError(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == 401:
		return ErrInvalidCredential
	case code == 403:
		return ErrAccessDenied
	case code == 404:
		return ErrNotFound
	case code == 502 || code == 503 || code == 504:
		return ErrRemoteUnavailable
	default:
		return &RemoteError{Code: code}
	}
}
