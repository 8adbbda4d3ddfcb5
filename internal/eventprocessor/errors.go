// Drillwise - Adaptive Recommendations for Skills Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/drillwise

package eventprocessor

import (
	"errors"
	"fmt"
)

// ErrNATSNotEnabled is returned when NATS features are used without the nats build tag.
var ErrNATSNotEnabled = errors.New("NATS event processing not enabled (build with -tags nats)")

// ErrInvalidConfig is returned when configuration is invalid.
var ErrInvalidConfig = errors.New("invalid configuration")

// ErrUnknownTopic is returned when publishing to a topic the consumer does not handle.
var ErrUnknownTopic = errors.New("unknown topic")

// Failure reasons recorded for messages that could not be applied.
const (
	ReasonDecode  = "decode"
	ReasonInvalid = "invalid"
	ReasonApply   = "apply"
)

// PermanentError marks a message that will never succeed, however often it
// is redelivered. Such messages are acknowledged and routed to the poison
// topic instead of being retried.
type PermanentError struct {
	Reason string
	Err    error
}

func (e *PermanentError) Error() string {
	return fmt.Sprintf("%s: %v", e.Reason, e.Err)
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

func permanent(reason string, err error) error {
	return &PermanentError{Reason: reason, Err: err}
}

// IsPermanent reports whether err, or any error it wraps, is a PermanentError.
func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}
