/*
Copyright The Mongo Cluster Operator Contributors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package mongoerr defines the tagged error values used in place of the
// original implementation's exception-and-message-string control flow
// (spec §9 redesign notes).
package mongoerr

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors returned by the replica-set driver and admin-user
// creation path. Wrap with fmt.Errorf("...: %w", Err*) and unwrap with
// errors.Is.
var (
	// ErrNotYetInitialized means Status() has not returned a usable
	// response yet (e.g. connection still being established).
	ErrNotYetInitialized = errors.New("replica set not yet initialized")

	// ErrNoConfigReceived is the discriminator for Mongo's
	// "no replset config has been received" driver error.
	ErrNoConfigReceived = errors.New("no replset config has been received")

	// ErrNotMaster is the discriminator for "not master" responses seen
	// while creating the admin user against a node that is not (yet)
	// primary.
	ErrNotMaster = errors.New("not master")

	// ErrUserAlreadyExists is returned when CreateUser targets a user
	// that has already been created; treated as success by the caller.
	ErrUserAlreadyExists = errors.New("user already exists")
)

// UnexpectedResponse wraps a Mongo admin command response whose "ok"
// field was neither a recognized success nor a recognized transient
// failure.
type UnexpectedResponse struct {
	Command string
	Err     error
}

func (e *UnexpectedResponse) Error() string {
	return fmt.Sprintf("unexpected mongo response to %s: %v", e.Command, e.Err)
}

func (e *UnexpectedResponse) Unwrap() error {
	return e.Err
}

// Classify maps a raw driver error message to one of the sentinel
// values above, falling back to the error itself when no known
// discriminator matches.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, ErrNoConfigReceived.Error()):
		return fmt.Errorf("%w: %s", ErrNoConfigReceived, msg)
	case strings.Contains(msg, "not master"):
		return fmt.Errorf("%w: %s", ErrNotMaster, msg)
	case strings.Contains(msg, "already exists"):
		return fmt.Errorf("%w: %s", ErrUserAlreadyExists, msg)
	default:
		return err
	}
}
