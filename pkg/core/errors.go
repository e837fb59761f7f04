package core

import "fmt"

// ConfigError reports a missing or invalid argument. Nothing is computed when
// one is returned.
type ConfigError struct {
	Field   string // Option or argument name
	Key     string // Offending partition key or file name, if any
	Message string
}

func (e *ConfigError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("configuration error in %s (%s): %s", e.Field, e.Key, e.Message)
	}
	return fmt.Sprintf("configuration error in %s: %s", e.Field, e.Message)
}

// DataDefectError reports an upstream data problem with a specific PSM.
type DataDefectError struct {
	PSM       string
	Candidate string
	Message   string
}

func (e *DataDefectError) Error() string {
	if e.Candidate != "" {
		return fmt.Sprintf("data defect in PSM %s, candidate %s: %s", e.PSM, e.Candidate, e.Message)
	}
	return fmt.Sprintf("data defect in PSM %s: %s", e.PSM, e.Message)
}
