// Package errors provides coded, actionable errors for the gravity CLI and
// configuration layer.
//
// Every error carries a code from the registry:
//   - G1xx: configuration (gravity.json, environment overrides)
//   - G2xx: manifest loading, compilation and lookups
//   - G3xx: command-line usage and the serve loop
//
// Errors can point at a position in a JSON document. When they do, Format
// prints the surrounding lines with a caret under the offending column.
//
//	err := errors.New("G102").
//	    WithOffset("gravity.json", data, syntaxErr.Offset).
//	    WithSuggestion("Remove the trailing comma")
//
//	errors.PrintError(err)
//	// ERROR G102: Invalid config file
//	//
//	//   gravity.json:4:3
//	//
//	//        3 │   "port": 4321,
//	//   →    4 │ }
//	//          │ ^
//
// The package also holds the HTTP status name table used by the dispatcher
// for error responses (StatusName, StatusCode).
package errors
