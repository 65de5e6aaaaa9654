package alert

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/jon4hz/neurofit/internal/notify"
)

// FailureKind categorizes why a channel failed.
type FailureKind string

const (
	FailureHTTP       FailureKind = "http"
	FailureConnection FailureKind = "connection"
	FailureOther      FailureKind = "other"
)

// ChannelError is a classified channel failure.
type ChannelError struct {
	Channel    string
	Kind       FailureKind
	StatusCode int
	Err        error
}

func (e *ChannelError) Error() string {
	return fmt.Sprintf("%s channel failed (%s): %v", e.Channel, e.Kind, e.Err)
}

func (e *ChannelError) Unwrap() error {
	return e.Err
}

// classify maps a delivery error onto a failure category.
func classify(channel string, err error) *ChannelError {
	var chErr *ChannelError
	if errors.As(err, &chErr) {
		return chErr
	}

	ce := &ChannelError{Channel: channel, Kind: FailureOther, Err: err}

	var statusErr *notify.StatusError
	var netErr net.Error
	switch {
	case errors.As(err, &statusErr):
		ce.Kind = FailureHTTP
		ce.StatusCode = statusErr.StatusCode
	case errors.Is(err, notify.ErrConnection),
		errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &netErr):
		ce.Kind = FailureConnection
	}
	return ce
}
