package recognition

import "errors"

// FailureMessage is the only text shown to users when analysis fails.
const FailureMessage = "No se pudo analizar la imagen. Por favor, inténtelo de nuevo."

// ErrAnalysisFailed matches every fatal pipeline error.
var ErrAnalysisFailed = errors.New("analysis failed")

// AnalysisError is a fatal pipeline failure. Its message is FailureMessage;
// the underlying cause stays reachable through errors.Is and errors.As.
type AnalysisError struct {
	Stage string
	Err   error
}

func (e *AnalysisError) Error() string {
	return FailureMessage
}

func (e *AnalysisError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrAnalysisFailed}
	}
	return []error{ErrAnalysisFailed, e.Err}
}
