package dispatch

import "exception-reporter/internal/transport"

// View is the interactive surface driven by the dispatcher.
type View interface {
	transport.EventSink
	UserExplanation() string
	SetSendEnabled(enabled bool)
	ShowProgress(show bool)
	SetProgressMessage(msg string)
	// MailClientSendCompleted runs after every mail client attempt.
	MailClientSendCompleted()
}

// HeadlessView adapts an EventSink for callers without a UI.
type HeadlessView struct {
	Sink        transport.EventSink
	Explanation string
}

func (v HeadlessView) Completed(ok bool) {
	if v.Sink != nil {
		v.Sink.Completed(ok)
	}
}

func (v HeadlessView) ShowError(msg string, err error) {
	if v.Sink != nil {
		v.Sink.ShowError(msg, err)
	}
}

func (v HeadlessView) UserExplanation() string { return v.Explanation }
func (HeadlessView) SetSendEnabled(bool)       {}
func (HeadlessView) ShowProgress(bool)         {}
func (HeadlessView) SetProgressMessage(string) {}
func (HeadlessView) MailClientSendCompleted()  {}
