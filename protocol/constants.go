package protocol

// Kernel method names.
const (
	MethodExecute   = "execute"
	MethodInterrupt = "interrupt"
	MethodRestart   = "restart"
	MethodPing      = "ping"
)

// MIMEPlainText is the result key for the textual representation of an
// evaluated value.
const MIMEPlainText = "text/plain"

// ParamCode is the execute parameter holding the code fragment.
const ParamCode = "code"
