package tokenstore

import (
	"errors"
	"fmt"

	"holdermap/internal/solana"
)

// Messages published in State.Error.
const (
	MsgInvalidAddress = "Invalid token address"
	MsgNoHolders      = "No holders found for this token"
	MsgUnexpected     = "Unexpected error fetching token data"
)

// MinAddressLength is the shortest accepted mint address.
const MinAddressLength = 32

var (
	// ErrInvalidAddress is returned for addresses that are not a mint key.
	ErrInvalidAddress = errors.New(MsgInvalidAddress)

	// ErrNoHolders is returned when the provider reports no holder accounts.
	ErrNoHolders = errors.New(MsgNoHolders)

	// ErrSuperseded is returned by a fetch that was replaced by a newer one.
	// Superseded fetches never publish.
	ErrSuperseded = errors.New("fetch superseded")

	// ErrRefreshSkipped is returned by Refresh when there is nothing to refresh.
	ErrRefreshSkipped = errors.New("refresh skipped")
)

// stage identifies which provider call failed.
type stage string

const (
	stageHolders  stage = "RPC"
	stageMetadata stage = "Metadata"
)

// fetchError carries the message published for a failed fetch.
type fetchError struct {
	stage stage
	msg   string
	err   error
}

func (e *fetchError) Error() string { return e.msg }
func (e *fetchError) Unwrap() error { return e.err }

// wrapStageError converts a provider error into its published message.
func wrapStageError(s stage, err error) error {
	var statusErr *solana.StatusError
	if errors.As(err, &statusErr) {
		return &fetchError{
			stage: s,
			msg:   fmt.Sprintf("%s request failed: %s", s, statusErr.StatusText()),
			err:   err,
		}
	}
	return err
}

// Message returns the user-facing text for a fetch error.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var fe *fetchError
	if errors.As(err, &fe) {
		return fe.msg
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return MsgUnexpected
}
