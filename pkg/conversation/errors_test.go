package conversation

import (
	"errors"
	"io"
	"testing"

	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestTypedErrorsMatchSentinels(t *testing.T) {
	cases := []struct {
		err      error
		sentinel error
	}{
		{&TransportError{Provider: "openai", StatusCode: 500, Err: io.EOF}, ErrTransport},
		{&SchemaError{Reason: "x", Err: ErrNoChoices}, ErrSchema},
		{&NotFoundError{MessageID: "m"}, ErrNotFound},
		{&UnsupportedModeError{Mode: "xh"}, ErrUnsupportedMode},
		{&StoreError{Op: "set", Key: "k", Err: io.ErrClosedPipe}, ErrStore},
	}
	for _, c := range cases {
		assert.ErrorIs(t, c.err, c.sentinel)
		wrapped := pkgerrors.Wrap(c.err, "context")
		assert.ErrorIs(t, wrapped, c.sentinel)
		assert.NotEmpty(t, c.err.Error())
	}

	assert.ErrorIs(t, &SchemaError{Reason: "x", Err: ErrNoChoices}, ErrNoChoices)
	assert.ErrorIs(t, &TransportError{Err: io.EOF}, io.EOF)
	assert.False(t, errors.Is(&NotFoundError{}, ErrSchema))
}

func TestTransportErrorMessage(t *testing.T) {
	err := &TransportError{Provider: "openai", StatusCode: 429, Err: errors.New("rate limited")}
	assert.Contains(t, err.Error(), "status 429")
	assert.Contains(t, err.Error(), "openai")
}
