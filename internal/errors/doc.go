// Package errors provides coded, categorised errors for the binding layer,
// the storage backends, the sync hub and the CLI.
//
// # Error Categories
//
//   - config: a binder was configured in a way that cannot work (missing base class)
//   - storage: a store rejected or failed an operation
//   - hub: the cross-window relay failed or received a malformed message
//   - cli: invalid configuration files or command usage
//
// # Error Codes
//
// Each code (e.g. "E101") maps to a short message, a longer detail and a
// hint. Errors wrap an underlying cause so errors.Is and errors.As work
// against sentinels exported by the public packages.
//
// # Usage
//
//	err := errors.New("E101").
//	    WithDetail(`modifier "disabled"`).
//	    Wrap(classes.ErrNoBaseClass)
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR E101: No base class was provided
//	//
//	//   modifier "disabled"
//	//
//	//   Hint: Pass BaseClass in the options or call classes.ProvideBaseClass on an ancestor scope
package errors
