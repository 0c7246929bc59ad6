package godb

import (
	"errors"
	"fmt"
)

// GoDBErrorCode classifies a [GoDBError]. The set is closed: callers switch
// on it to decide whether an operation is retryable, a transaction must be
// aborted, or a caller's request was malformed.
type GoDBErrorCode int

const (
	// IOError signals a disk read/write failure, including reading past the
	// end of a heap file. Caller-recoverable only by retry.
	IOError GoDBErrorCode = iota

	// TypeMismatchError signals a schema/field type mismatch.
	TypeMismatchError

	// MalformedDataError signals a corrupt or unexpected on-disk encoding.
	MalformedDataError

	// TupleNotFoundError signals a delete or lookup against a tuple/slot
	// that isn't present.
	TupleNotFoundError

	// PageFullError signals a page-local insert with no free slot.
	PageFullError

	// BufferPoolFullError signals that every cached page is dirty, so
	// nothing can be evicted under NO-STEAL.
	BufferPoolFullError

	// IncompatibleTypesError signals an operation given a value or page of
	// the wrong concrete type.
	IncompatibleTypesError

	// AmbiguousNameError signals a field reference that matches more than
	// one column.
	AmbiguousNameError

	// TxnAbortedError signals that the deadlock detector (or an external
	// caller) has invalidated a transaction. The caller must call
	// [BufferPool.TransactionComplete] with commit=false and restart.
	TxnAbortedError

	// IllegalArgumentError signals a construction-time contract
	// violation, such as a STRING aggregate with a non-COUNT op.
	IllegalArgumentError

	// ParseError signals a SQL statement the front end could not parse or
	// does not support.
	ParseError
)

func (c GoDBErrorCode) String() string {
	switch c {
	case IOError:
		return "IO"
	case TypeMismatchError:
		return "TypeMismatch"
	case MalformedDataError:
		return "MalformedData"
	case TupleNotFoundError:
		return "TupleNotFound"
	case PageFullError:
		return "PageFull"
	case BufferPoolFullError:
		return "BufferPoolFull"
	case IncompatibleTypesError:
		return "IncompatibleTypes"
	case AmbiguousNameError:
		return "AmbiguousName"
	case TxnAbortedError:
		return "TxnAborted"
	case IllegalArgumentError:
		return "IllegalArgument"
	case ParseError:
		return "Parse"
	default:
		return "Unknown"
	}
}

// GoDBError is the single error type used throughout godb. It carries a
// closed-set code so callers can branch on failure category (§7 of the
// design) without string matching.
type GoDBError struct {
	code GoDBErrorCode
	msg  string
}

// NewGoDBError constructs a GoDBError of the given code and message.
func NewGoDBError(code GoDBErrorCode, msg string) GoDBError {
	return GoDBError{code, msg}
}

func (e GoDBError) Error() string {
	return fmt.Sprintf("%s: %s", e.code, e.msg)
}

// Code returns the error's classification.
func (e GoDBError) Code() GoDBErrorCode {
	return e.code
}

// IsTxnAborted reports whether err is (or wraps) a TxnAbortedError.
func IsTxnAborted(err error) bool {
	var ge GoDBError
	if errors.As(err, &ge) {
		return ge.code == TxnAbortedError
	}
	return false
}
