package errs

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// ValidationError reports a unit definition with a bad shape or a name clash.
type ValidationError struct {
	Kind   string
	Name   string
	Path   string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("invalid %s at %s: %s", e.Kind, e.Path, e.Reason)
	}
	return fmt.Sprintf("invalid %s %q: %s", e.Kind, e.Name, e.Reason)
}

// NotFoundError is returned when a named unit is not cached.
type NotFoundError struct {
	Kind        string
	Name        string
	Suggestions []string
}

func (e *NotFoundError) Error() string {
	msg := fmt.Sprintf("%s %q not found", e.Kind, e.Name)
	if len(e.Suggestions) > 0 {
		msg += fmt.Sprintf(" (did you mean %s?)", strings.Join(e.Suggestions, ", "))
	}
	return msg
}

// ImportError wraps a failure of the artifact source while reading a definition.
type ImportError struct {
	Path string
	Err  error
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("failed to import %s: %v", e.Path, e.Err)
}

func (e *ImportError) Unwrap() error {
	return e.Err
}

// DeployDisabledError is returned when deploying a unit that opted out.
type DeployDisabledError struct {
	Kind string
	Name string
}

func (e *DeployDisabledError) Error() string {
	return fmt.Sprintf("%s %q has deployment disabled", e.Kind, e.Name)
}

// RemoteError wraps a failure of the remote command registry.
type RemoteError struct {
	Operation string
	Scope     string
	Err       error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote %s failed for %s: %v", e.Operation, e.Scope, e.Err)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// Reason identifies which guard denied an invocation.
type Reason string

const (
	ReasonDisabled          Reason = "disabled"
	ReasonDevOnly           Reason = "devOnly"
	ReasonOwnerOnly         Reason = "ownerOnly"
	ReasonBetaOnly          Reason = "betaOnly"
	ReasonPremiumOnly       Reason = "premiumOnly"
	ReasonExperiment        Reason = "experiment"
	ReasonGuildOnly         Reason = "guildOnly"
	ReasonChannelOnly       Reason = "channelOnly"
	ReasonNSFW              Reason = "nsfw"
	ReasonClientPermissions Reason = "clientPermissions"
	ReasonUserPermissions   Reason = "userPermissions"
	ReasonCooldown          Reason = "cooldown"
)

// GuardDenied is the expected outcome of a failed guard check. It is not a fault.
type GuardDenied struct {
	Unit      string
	Reason    Reason
	Missing   []string
	Remaining time.Duration
}

func (e *GuardDenied) Error() string {
	switch {
	case e.Reason == ReasonCooldown:
		return fmt.Sprintf("%s denied: cooldown, %s remaining", e.Unit, e.Remaining.Round(time.Millisecond))
	case len(e.Missing) > 0:
		return fmt.Sprintf("%s denied: %s missing %s", e.Unit, e.Reason, strings.Join(e.Missing, ", "))
	default:
		return fmt.Sprintf("%s denied: %s", e.Unit, e.Reason)
	}
}

// BatchError aggregates the per-item failures of a batch operation.
type BatchError struct {
	Op       string
	Failures map[string]error
}

func (e *BatchError) Error() string {
	keys := e.Keys()
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %v", k, e.Failures[k]))
	}
	return fmt.Sprintf("%s: %d failed: %s", e.Op, len(keys), strings.Join(parts, "; "))
}

// Keys returns the failed item keys in sorted order.
func (e *BatchError) Keys() []string {
	keys := make([]string, 0, len(e.Failures))
	for k := range e.Failures {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (e *BatchError) Unwrap() []error {
	out := make([]error, 0, len(e.Failures))
	for _, k := range e.Keys() {
		out = append(out, e.Failures[k])
	}
	return out
}

// Batch returns nil when failures is empty and a *BatchError otherwise.
func Batch(op string, failures map[string]error) error {
	if len(failures) == 0 {
		return nil
	}
	return &BatchError{Op: op, Failures: failures}
}

// IsNotFound reports whether err is or wraps a *NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsDenied reports whether err is or wraps a *GuardDenied.
func IsDenied(err error) bool {
	var d *GuardDenied
	return errors.As(err, &d)
}
