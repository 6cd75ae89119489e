package conversation

import (
	"errors"
	"fmt"
)

var (
	ErrTransport       = errors.New("provider transport error")
	ErrSchema          = errors.New("schema error")
	ErrNotFound        = errors.New("message not found")
	ErrUnsupportedMode = errors.New("mode not implemented")
	ErrStore           = errors.New("store error")

	ErrNoChoices      = errors.New("provider returned no choices")
	ErrHistoryCycle   = errors.New("message chain contains a cycle")
	ErrHistoryTooDeep = errors.New("message chain exceeds max depth")
)

// TransportError reports a failure reaching the provider, including non-2xx answers.
type TransportError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e == nil {
		return ErrTransport.Error()
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s (%s, status %d): %v", ErrTransport, e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s (%s): %v", ErrTransport, e.Provider, e.Err)
}

func (e *TransportError) Is(target error) bool { return target == ErrTransport }
func (e *TransportError) Unwrap() error        { return e.Err }

// SchemaError reports data that does not have the expected shape: provider responses,
// stored records, or corrupted message chains.
type SchemaError struct {
	Reason string
	Err    error
}

func (e *SchemaError) Error() string {
	if e == nil {
		return ErrSchema.Error()
	}
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", ErrSchema, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %v", ErrSchema, e.Reason, e.Err)
}

func (e *SchemaError) Is(target error) bool { return target == ErrSchema }
func (e *SchemaError) Unwrap() error        { return e.Err }

// NotFoundError reports a message id that is referenced but absent from the store.
type NotFoundError struct {
	MessageID string
}

func (e *NotFoundError) Error() string {
	if e == nil {
		return ErrNotFound.Error()
	}
	return fmt.Sprintf("%s: %q", ErrNotFound, e.MessageID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

type UnsupportedModeError struct {
	Mode string
}

func (e *UnsupportedModeError) Error() string {
	if e == nil {
		return ErrUnsupportedMode.Error()
	}
	return fmt.Sprintf("%s: %q", ErrUnsupportedMode, e.Mode)
}

func (e *UnsupportedModeError) Is(target error) bool { return target == ErrUnsupportedMode }

// StoreError reports a failed persistence operation.
type StoreError struct {
	Op  string
	Key string
	Err error
}

func (e *StoreError) Error() string {
	if e == nil {
		return ErrStore.Error()
	}
	return fmt.Sprintf("%s: %s %q: %v", ErrStore, e.Op, e.Key, e.Err)
}

func (e *StoreError) Is(target error) bool { return target == ErrStore }
func (e *StoreError) Unwrap() error        { return e.Err }
