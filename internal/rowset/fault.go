package rowset

import (
	"context"
	"errors"
	"fmt"
)

// SOAP fault codes.
const (
	FaultClient = "Client"
	FaultServer = "Server"
)

// Fault codes reported in the detail of a SOAP fault.
const (
	CodeUnknownRowset      = "00HSBC01"
	CodeUnknownColumn      = "00HSBC02"
	CodeNotRestrictable    = "00HSBC03"
	CodeMultiValue         = "00HSBC04"
	CodeUnsupportedProp    = "00HSBC05"
	CodeBadPropertyValue   = "00HSBC06"
	CodeBadRequest         = "00HSBC07"
	CodeUnsupportedCommand = "00HSBC08"
	CodeCancelled          = "00HSBC09"
	CodeNonNullableNull    = "00HSBS01"
	CodeBackend            = "00HSBS02"
	CodeWriter             = "00HSBS03"
	CodeUnknown            = "00UE001"
)

// Fault is a protocol error returned to XMLA clients.
type Fault struct {
	FaultCode string
	Code      string
	Message   string

	// Err is the underlying cause. It is kept for diagnostics and never
	// rendered to clients.
	Err error
}

func (f *Fault) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s (%s): %v", f.Message, f.Code, f.Err)
	}
	return fmt.Sprintf("%s (%s)", f.Message, f.Code)
}

func (f *Fault) Unwrap() error {
	return f.Err
}

// ClientFault returns a fault caused by the request.
func ClientFault(code, format string, args ...any) *Fault {
	return &Fault{FaultCode: FaultClient, Code: code, Message: fmt.Sprintf(format, args...)}
}

// ServerFault returns a fault raised while answering a valid request.
func ServerFault(code string, err error, format string, args ...any) *Fault {
	return &Fault{FaultCode: FaultServer, Code: code, Message: fmt.Sprintf(format, args...), Err: err}
}

// AsFault converts any error into a Fault. Context cancellation becomes
// CodeCancelled and other foreign errors become CodeBackend.
func AsFault(err error) *Fault {
	var f *Fault
	if errors.As(err, &f) {
		return f
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &Fault{FaultCode: FaultClient, Code: CodeCancelled, Message: "Statement was cancelled", Err: err}
	}
	return ServerFault(CodeBackend, err, "Error while populating rowset")
}

// IsFault reports whether err is a Fault with the given code.
func IsFault(err error, code string) bool {
	var f *Fault
	return errors.As(err, &f) && f.Code == code
}
