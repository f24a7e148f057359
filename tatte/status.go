package tatte

import (
	"fmt"
	"strings"
)

// ReturnCode is the outcome of an interface call. Values are stable.
type ReturnCode int

const (
	Success ReturnCode = iota
	// ConfigError: error reading configuration files.
	ConfigError
	// ImageTypeNotSupported: image type, e.g. sketches, is not supported.
	ImageTypeNotSupported
	// RefuseInput: elective refusal to process the input.
	RefuseInput
	// ExtractError: involuntary failure to process the image.
	ExtractError
	// ParseError: cannot parse the input data.
	ParseError
	// TemplateCreationError: elective refusal to produce a template.
	TemplateCreationError
	// EnrollDirError: an operation on the enrollment directory failed.
	EnrollDirError
	// NumDataError: the number of input images is not supported.
	NumDataError
	// TemplateFormatError: one or more templates are in an incorrect format or defective.
	TemplateFormatError
	// InputLocationError: cannot locate the input data.
	InputLocationError
	// VendorError: vendor-defined failure.
	VendorError
	// NotImplemented: the operation is not provided by the implementation.
	NotImplemented
)

var codeNames = [...]string{
	Success:               "Success",
	ConfigError:           "ConfigError",
	ImageTypeNotSupported: "ImageTypeNotSupported",
	RefuseInput:           "RefuseInput",
	ExtractError:          "ExtractError",
	ParseError:            "ParseError",
	TemplateCreationError: "TemplateCreationError",
	EnrollDirError:        "EnrollDirError",
	NumDataError:          "NumDataError",
	TemplateFormatError:   "TemplateFormatError",
	InputLocationError:    "InputLocationError",
	VendorError:           "VendorError",
	NotImplemented:        "NotImplemented",
}

func (c ReturnCode) String() string {
	if c >= 0 && int(c) < len(codeNames) {
		return codeNames[c]
	}
	return fmt.Sprintf("ReturnCode(%d)", int(c))
}

// ReturnCodes lists every defined code in numeric order.
func ReturnCodes() []ReturnCode {
	out := make([]ReturnCode, len(codeNames))
	for i := range codeNames {
		out[i] = ReturnCode(i)
	}
	return out
}

// ParseReturnCode is the inverse of String.
func ParseReturnCode(s string) (ReturnCode, error) {
	for i, name := range codeNames {
		if strings.EqualFold(name, s) {
			return ReturnCode(i), nil
		}
	}
	return 0, fmt.Errorf("unknown return code %q", s)
}

// Category groups return codes by failure kind.
type Category string

const (
	CategoryNone       Category = "none"
	CategoryConfig     Category = "configuration"
	CategoryInput      Category = "input-rejection"
	CategoryProcessing Category = "processing"
	CategoryOther      Category = "catch-all"
)

// Category returns the failure group of c.
func (c ReturnCode) Category() Category {
	switch c {
	case Success:
		return CategoryNone
	case ConfigError, EnrollDirError, InputLocationError:
		return CategoryConfig
	case RefuseInput, ImageTypeNotSupported, NumDataError:
		return CategoryInput
	case ExtractError, ParseError, TemplateCreationError, TemplateFormatError:
		return CategoryProcessing
	default:
		return CategoryOther
	}
}

// ReturnStatus carries a code and an optional diagnostic. Only Success
// permits the caller to trust the outputs of a call.
type ReturnStatus struct {
	Code ReturnCode `json:"code"`
	Info string     `json:"info,omitempty"`
}

// Status builds a ReturnStatus.
func Status(code ReturnCode, info string) ReturnStatus {
	return ReturnStatus{Code: code, Info: info}
}

// Statusf builds a ReturnStatus with a formatted diagnostic.
func Statusf(code ReturnCode, format string, args ...interface{}) ReturnStatus {
	return ReturnStatus{Code: code, Info: fmt.Sprintf(format, args...)}
}

// OK is the successful status.
func OK() ReturnStatus {
	return ReturnStatus{Code: Success}
}

// OK reports whether the call fully succeeded.
func (s ReturnStatus) OK() bool {
	return s.Code == Success
}

func (s ReturnStatus) String() string {
	if s.Info == "" {
		return s.Code.String()
	}
	return s.Code.String() + ": " + s.Info
}

// Err returns nil on success and a *StatusError otherwise.
func (s ReturnStatus) Err() error {
	if s.OK() {
		return nil
	}
	return &StatusError{Status: s}
}

// StatusError adapts a non-success ReturnStatus to the error interface.
type StatusError struct {
	Status ReturnStatus
}

func (e *StatusError) Error() string {
	return "tatte: " + e.Status.String()
}
