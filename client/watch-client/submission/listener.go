package submission

// Severity classifies a user-facing notice.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

// Listener is the seam to the presentation layer. The coordinator calls it
// after every observable state change and for every user-facing notice.
// Implementations must not call back into the coordinator synchronously.
type Listener interface {
	// JobUpdated delivers a snapshot of the job after a state change.
	JobUpdated(job Job)

	// Notice delivers a dismissible user-facing message.
	Notice(severity Severity, title, message string)
}

// nopListener is a no-operation listener.
type nopListener struct{}

// NopListener is a singleton Listener that performs no operations. Use this
// when no presentation layer is attached.
var NopListener Listener = &nopListener{}

func (l *nopListener) JobUpdated(job Job)                              {}
func (l *nopListener) Notice(severity Severity, title, message string) {}
