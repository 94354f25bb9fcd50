// Package capture turns Go errors and recovered panics into the exception
// records carried by a report.
package capture

import (
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"strings"
	"time"

	pkgerrors "github.com/pkg/errors"
)

// Frame is one call site of a captured stack.
type Frame struct {
	Function string `json:"function"`
	File     string `json:"file"`
	Line     int    `json:"line"`
}

// CapturedException is an immutable record of one failure and its cause chain.
type CapturedException struct {
	TypeName string             `json:"type_name"`
	Message  string             `json:"message"`
	Frames   []Frame            `json:"frames,omitempty"`
	Inner    *CapturedException `json:"inner,omitempty"`
}

// ErrorData holds the exceptions being reported. Once any exception has been
// set the sequence is never empty and the main exception is its first element.
type ErrorData struct {
	exceptions []CapturedException

	// CustomMessage replaces the main exception message in the report when set.
	CustomMessage string
	// ExceptionDate is stamped by the dispatcher.
	ExceptionDate time.Time
	// AppBinary is the binary whose module list is reported; empty means the running one.
	AppBinary string
}

// NewErrorData builds error data from one or more captured exceptions.
func NewErrorData(exceptions ...CapturedException) *ErrorData {
	d := &ErrorData{}
	d.SetExceptions(exceptions)
	return d
}

// SetMainException replaces the whole sequence with e.
func (d *ErrorData) SetMainException(e CapturedException) {
	d.exceptions = []CapturedException{e}
}

// SetExceptions replaces the sequence; the main exception becomes es[0].
// An empty slice leaves the current sequence untouched.
func (d *ErrorData) SetExceptions(es []CapturedException) {
	if len(es) == 0 {
		return
	}
	d.exceptions = append([]CapturedException(nil), es...)
}

// MainException returns the first exception, or nil when none was set.
func (d *ErrorData) MainException() *CapturedException {
	if len(d.exceptions) == 0 {
		return nil
	}
	return &d.exceptions[0]
}

func (d *ErrorData) Exceptions() []CapturedException {
	return d.exceptions
}

// HasExceptions reports whether any exception was set.
func (d *ErrorData) HasExceptions() bool {
	return len(d.exceptions) > 0
}

// MainMessage is the custom message when set, otherwise the main exception message.
func (d *ErrorData) MainMessage() string {
	if d.CustomMessage != "" {
		return d.CustomMessage
	}
	if m := d.MainException(); m != nil {
		return m.Message
	}
	return ""
}

type stackTracer interface {
	StackTrace() pkgerrors.StackTrace
}

// FromError captures err and its Unwrap chain. Layers that only attach a
// stack (same text as their parent) are folded into the parent record.
func FromError(err error) CapturedException {
	if err == nil {
		return CapturedException{TypeName: "<nil>"}
	}

	root := CapturedException{TypeName: fmt.Sprintf("%T", err), Message: err.Error(), Frames: framesOf(err)}
	cur := &root
	for next := errors.Unwrap(err); next != nil; next = errors.Unwrap(next) {
		if next.Error() == cur.Message {
			if len(cur.Frames) == 0 {
				cur.Frames = framesOf(next)
			}
			continue
		}
		cur.Inner = &CapturedException{
			TypeName: fmt.Sprintf("%T", next),
			Message:  next.Error(),
			Frames:   framesOf(next),
		}
		cur = cur.Inner
	}
	return root
}

// FromErrors captures each error in order, skipping nils.
func FromErrors(errs ...error) []CapturedException {
	out := make([]CapturedException, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			out = append(out, FromError(err))
		}
	}
	return out
}

func framesOf(err error) []Frame {
	st, ok := err.(stackTracer)
	if !ok {
		return nil
	}
	trace := st.StackTrace()
	frames := make([]Frame, 0, len(trace))
	for _, f := range trace {
		pc := uintptr(f) - 1
		fn := runtime.FuncForPC(pc)
		if fn == nil {
			frames = append(frames, Frame{Function: "unknown"})
			continue
		}
		file, line := fn.FileLine(pc)
		frames = append(frames, Frame{Function: fn.Name(), File: file, Line: line})
	}
	return frames
}

// FromPanic captures a recovered panic value with the goroutine stack text
// produced by runtime/debug.Stack.
func FromPanic(value any, stack []byte) CapturedException {
	var ce CapturedException
	if err, ok := value.(error); ok {
		ce = FromError(err)
	} else {
		ce = CapturedException{TypeName: "panic", Message: fmt.Sprint(value)}
	}
	if frames := ParseGoroutineStack(string(stack)); len(frames) > 0 {
		ce.Frames = frames
	}
	return ce
}

// ParseGoroutineStack parses the text format of runtime/debug.Stack. Frames of
// the runtime and runtime/debug packages are dropped.
func ParseGoroutineStack(s string) []Frame {
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	var frames []Frame
	for i := 0; i < len(lines); i++ {
		fnLine := strings.TrimSpace(lines[i])
		if fnLine == "" || strings.HasPrefix(fnLine, "goroutine ") {
			continue
		}
		if i+1 >= len(lines) || !strings.HasPrefix(lines[i+1], "\t") {
			continue
		}
		loc := strings.TrimSpace(lines[i+1])
		i++

		fn := strings.TrimPrefix(fnLine, "created by ")
		if idx := strings.Index(fn, " in goroutine "); idx > 0 {
			fn = fn[:idx]
		}
		if strings.HasSuffix(fn, ")") {
			if idx := strings.LastIndex(fn, "("); idx > 0 {
				fn = fn[:idx]
			}
		}
		if fn == "" || fn == "panic" || strings.HasPrefix(fn, "runtime.") || strings.HasPrefix(fn, "runtime/debug.") {
			continue
		}

		if idx := strings.LastIndex(loc, " +0x"); idx > 0 {
			loc = loc[:idx]
		}
		file, line := loc, 0
		if idx := strings.LastIndex(loc, ":"); idx > 0 {
			if n, err := strconv.Atoi(loc[idx+1:]); err == nil {
				file, line = loc[:idx], n
			}
		}
		frames = append(frames, Frame{Function: fn, File: file, Line: line})
	}
	return frames
}
