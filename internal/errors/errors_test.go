package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorCodes(t *testing.T) {
	codes := []string{
		ErrConfig,
		ErrRange,
		ErrCapacity,
		ErrTerminal,
		ErrRender,
	}

	for _, code := range codes {
		assert.NotEmpty(t, code, "error code should not be empty")
	}

	seen := make(map[string]bool)
	for _, code := range codes {
		assert.False(t, seen[code], "error code %q should be unique", code)
		seen[code] = true
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name       string
		code       string
		message    string
		suggestion string
	}{
		{
			name:       "config error",
			code:       ErrConfig,
			message:    "Invalid configuration in .indica.yaml",
			suggestion: "Check your configuration file syntax",
		},
		{
			name:       "range error",
			code:       ErrRange,
			message:    "Progress 120 is above max 100",
			suggestion: "",
		},
		{
			name:       "terminal error",
			code:       ErrTerminal,
			message:    "Output is not an interactive terminal",
			suggestion: "Falling back to plain line output",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, tt.message, tt.suggestion)

			require.NotNil(t, err)
			assert.Equal(t, tt.code, err.Code)
			assert.Equal(t, tt.message, err.Message)
			assert.Equal(t, tt.suggestion, err.Suggestion)
			assert.Nil(t, err.Cause)
		})
	}
}

func TestErrorFormatting(t *testing.T) {
	tests := []struct {
		name          string
		err           *Error
		expectedParts []string
		notExpected   []string
	}{
		{
			name:          "basic error formatting",
			err:           New(ErrConfig, "Invalid configuration", "Check .indica.yaml syntax"),
			expectedParts: []string{"✗", "Invalid configuration", "Check .indica.yaml syntax"},
		},
		{
			name:          "cause is included",
			err:           WrapWithCode(fmt.Errorf("broken pipe"), ErrRender, "Frame write failed", ""),
			expectedParts: []string{"Frame write failed", "broken pipe"},
		},
		{
			name:          "no suggestion section when empty",
			err:           New(ErrCapacity, "Too many rows", ""),
			expectedParts: []string{"Too many rows"},
			notExpected:   []string{"\n\n  \n"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := tt.err.Error()
			for _, part := range tt.expectedParts {
				assert.Contains(t, out, part)
			}
			for _, part := range tt.notExpected {
				assert.NotContains(t, out, part)
			}
			assert.True(t, strings.HasPrefix(out, "✗ "))
		})
	}
}

func TestWrapDefaultsToRender(t *testing.T) {
	cause := fmt.Errorf("boom")
	err := Wrap(cause, "tick failed")

	assert.Equal(t, ErrRender, err.Code)
	assert.Equal(t, cause, err.Cause)
	assert.True(t, errors.Is(err, cause))
}

func TestIsMatchesByCode(t *testing.T) {
	sentinel := New(ErrTerminal, "terminal unavailable", "")
	other := WrapWithCode(fmt.Errorf("not a tty"), ErrTerminal, "stdout is a pipe", "")

	assert.True(t, errors.Is(other, sentinel))
	assert.False(t, errors.Is(New(ErrRange, "x", ""), sentinel))

	wrapped := fmt.Errorf("starting engine: %w", other)
	assert.True(t, errors.Is(wrapped, sentinel))
}

func TestIsCode(t *testing.T) {
	assert.False(t, IsCode(nil, ErrConfig))
	assert.False(t, IsCode(fmt.Errorf("plain"), ErrConfig))
	assert.True(t, IsCode(New(ErrConfig, "x", ""), ErrConfig))
	assert.True(t, IsCode(fmt.Errorf("ctx: %w", New(ErrCapacity, "x", "")), ErrCapacity))
	assert.False(t, IsCode(New(ErrConfig, "x", ""), ErrRange))
}

func TestShort(t *testing.T) {
	assert.Equal(t, "", Short(nil))
	assert.Equal(t, "plain", Short(fmt.Errorf("plain")))
	assert.Equal(t, "Too many rows", Short(New(ErrCapacity, "Too many rows", "resize")))
	assert.Equal(t, "Frame write failed: EPIPE",
		Short(WrapWithCode(fmt.Errorf("EPIPE"), ErrRender, "Frame write failed", "")))
}
