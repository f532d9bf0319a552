package index

import "fmt"

// ConfigError reports invalid arguments detected before any statement is
// sent to the database.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("index configuration: %s", e.Reason)
}

// OperationError wraps a database failure during index creation or drop.
type OperationError struct {
	Op  string
	Err error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *OperationError) Unwrap() error { return e.Err }

// InsertionError wraps a database failure while upserting a vector property.
type InsertionError struct {
	Err error
}

func (e *InsertionError) Error() string {
	return fmt.Sprintf("upserting vector failed: %v", e.Err)
}

func (e *InsertionError) Unwrap() error { return e.Err }
