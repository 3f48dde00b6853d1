package errors

import "fmt"

// fault is the panic payload used for broken pipeline invariants. Only
// RecoverFault unwraps it; any other panic value is left alone.
type fault struct {
	err *BookTypstError
}

// Faultf aborts the current conversion. It is reserved for conditions that
// indicate a bug in the pipeline itself (mismatched tags, unsupported events),
// never for bad input.
func Faultf(format string, args ...any) {
	panic(fault{err: InternalError(fmt.Sprintf(format, args...), nil).WithContext("fault", true)})
}

// RecoverFault converts a pending fault into *errp. It must be deferred
// directly:
//
//	defer errors.RecoverFault(&err)
func RecoverFault(errp *error) {
	r := recover()
	if r == nil {
		return
	}
	f, ok := r.(fault)
	if !ok {
		panic(r)
	}
	*errp = f.err
}

// IsFault reports whether err came from Faultf.
func IsFault(err error) bool {
	bte, ok := As(err)
	if !ok || bte.Context == nil {
		return false
	}
	v, _ := bte.Context["fault"].(bool)
	return v
}
