// Package protocol defines the kernel's wire messages and error codes.
//
// Every request and every response is one JSON object on one line:
//
//	{"id":"1","method":"execute","params":{"code":"1+1"}}
//	{"id":"1","result":{"text/plain":"2"}}
//
// The response carries the request's id only when the request supplied a
// non-empty string id. Errors use a closed set of codes:
//
//	parse_error      the line was not valid JSON (never carries an id)
//	execution_error  the evaluator failed while running the code
//	unknown_method   the method is not execute, interrupt, restart or ping
//
// Request decoding is deliberately lenient so that any valid JSON line yields
// a Request; see Request.UnmarshalJSON.
package protocol
