package capture

import (
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"testing"

	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetMainExceptionCollapsesSequence(t *testing.T) {
	d := NewErrorData(
		CapturedException{Message: "first"},
		CapturedException{Message: "second"},
	)
	require.Len(t, d.Exceptions(), 2)
	assert.Equal(t, "first", d.MainException().Message)

	d.SetMainException(CapturedException{Message: "only"})
	require.Len(t, d.Exceptions(), 1)
	assert.Equal(t, "only", d.MainException().Message)
	assert.Same(t, &d.Exceptions()[0], d.MainException())
}

func TestSetExceptionsMainIsFirst(t *testing.T) {
	d := &ErrorData{}
	assert.Nil(t, d.MainException())

	d.SetMainException(CapturedException{Message: "x"})
	d.SetExceptions([]CapturedException{{Message: "a"}, {Message: "b"}})
	assert.Equal(t, "a", d.MainException().Message)

	d.SetExceptions(nil)
	assert.True(t, d.HasExceptions())
	assert.Equal(t, "a", d.MainException().Message)
}

func TestMainMessagePrefersCustom(t *testing.T) {
	d := NewErrorData(CapturedException{Message: "boom"})
	assert.Equal(t, "boom", d.MainMessage())
	d.CustomMessage = "custom"
	assert.Equal(t, "custom", d.MainMessage())
}

func TestFromErrorFollowsChain(t *testing.T) {
	base := errors.New("disk full")
	err := fmt.Errorf("save settings: %w", base)

	ce := FromError(err)
	assert.Equal(t, "save settings: disk full", ce.Message)
	require.NotNil(t, ce.Inner)
	assert.Equal(t, "disk full", ce.Inner.Message)
	assert.Equal(t, "*errors.errorString", ce.Inner.TypeName)
	assert.Nil(t, ce.Inner.Inner)
}

func TestFromErrorCollectsStackFrames(t *testing.T) {
	err := pkgerrors.Wrap(errors.New("refused"), "connect")

	ce := FromError(err)
	assert.Equal(t, "connect: refused", ce.Message)
	require.NotEmpty(t, ce.Frames)
	assert.Contains(t, ce.Frames[0].Function, "TestFromErrorCollectsStackFrames")
	require.NotNil(t, ce.Inner)
	assert.Equal(t, "refused", ce.Inner.Message)
}

func TestFromPanicParsesStack(t *testing.T) {
	var ce CapturedException
	func() {
		defer func() {
			if r := recover(); r != nil {
				ce = FromPanic(r, debug.Stack())
			}
		}()
		panic("index out of range")
	}()

	assert.Equal(t, "panic", ce.TypeName)
	assert.Equal(t, "index out of range", ce.Message)
	require.NotEmpty(t, ce.Frames)
	for _, f := range ce.Frames {
		assert.False(t, strings.HasPrefix(f.Function, "runtime"), f.Function)
	}
}

func TestParseGoroutineStack(t *testing.T) {
	stack := "goroutine 1 [running]:\n" +
		"runtime/debug.Stack()\n" +
		"\t/usr/local/go/src/runtime/debug/stack.go:24 +0x5e\n" +
		"panic({0x4a5e20?, 0x4e6b70?})\n" +
		"\t/usr/local/go/src/runtime/panic.go:770 +0x132\n" +
		"main.load(...)\n" +
		"\t/src/app/main.go:12\n" +
		"main.main()\n" +
		"\t/src/app/main.go:20 +0x18\n"

	frames := ParseGoroutineStack(stack)
	require.Len(t, frames, 2)
	assert.Equal(t, Frame{Function: "main.load", File: "/src/app/main.go", Line: 12}, frames[0])
	assert.Equal(t, Frame{Function: "main.main", File: "/src/app/main.go", Line: 20}, frames[1])
}

func TestFormatNestedAndFrameless(t *testing.T) {
	ex := CapturedException{
		TypeName: "*fs.PathError",
		Message:  "open a.txt",
		Frames:   []Frame{{Function: "main.run", File: "main.go", Line: 7}},
		Inner: &CapturedException{
			TypeName: "syscall.Errno",
			Message:  "no such file",
		},
	}

	out := Format([]CapturedException{ex})
	assert.Contains(t, out, "Top-level Exception")
	assert.Contains(t, out, "Type:    *fs.PathError")
	assert.Contains(t, out, "at main.run in main.go:line 7")
	assert.Contains(t, out, "Inner Exception 1")
	assert.Contains(t, out, "(no stack trace)")
	assert.Less(t, strings.Index(out, "open a.txt"), strings.Index(out, "no such file"))
}

func TestFormatMultipleExceptionsInOrder(t *testing.T) {
	out := Format([]CapturedException{{Message: "one"}, {Message: "two"}})
	assert.Contains(t, out, "Exception 1")
	assert.Contains(t, out, "Exception 2")
	assert.Less(t, strings.Index(out, "one"), strings.Index(out, "two"))
	assert.Equal(t, "", Format(nil))
}
