package reporterr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorString(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "without cause",
			err:  New(CodeConfiguration, "report info is required"),
			want: "[CONFIGURATION] report info is required",
		},
		{
			name: "with cause",
			err:  Wrap(CodeTransportSend, "post report", errors.New("connection reset")),
			want: "[TRANSPORT_SEND] post report: connection reset",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestIsCodeThroughWrapping(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := fmt.Errorf("send report: %w", Wrap(CodeTransportSetup, "connect smtp", cause))

	assert.True(t, IsCode(err, CodeTransportSetup))
	assert.False(t, IsCode(err, CodeTransportSend))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, Code(""), CodeOf(errors.New("plain")))
	assert.False(t, IsCode(nil, CodeConfiguration))
}
