package vm

import "errors"

// Facade-level errors: these describe how a caller used the VM wrong
// (invoking an export that doesn't exist, with the wrong argument count),
// as distinct from the interpreter's own wasmerr.Trap family, which
// reports a module misbehaving during execution. Grounded on the
// teacher's "Non-panic errors" block in vm/error.go; the larger
// panic-recovered ExecError list is gone, since that package's recover-
// based control flow is superseded by interp's explicit error returns.
var (
	ErrFuncNotFound      = errors.New("func not found at index")
	ErrWrongNumberOfArgs = errors.New("wrong number of arguments")
)
