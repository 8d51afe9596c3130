package relay

import "strings"

// Response codes used by the relay's "|"-delimited text envelope
const (
	CodeServerUnreachable   = "0"
	CodeInvalidCredentials  = "1"
	CodeIdentifierInUse     = "2"
	CodeSuccess             = "3"
	CodeInvalidIdentifier   = "4"
	CodeAccountConflict     = "9"
	CodeUpdateRequired      = "201"
	CodeServiceInspection   = "202"
	CodeServiceShuttingDown = "203"
	CodeClientVersionTooOld = "210"
	CodeTransientServer     = "999"
)

// FieldSeparator splits relay response bodies
const FieldSeparator = "|"

// Outcome is a successful interpretation of a relay response body
type Outcome struct {
	// Classified is true for a "3"-prefixed success envelope
	Classified bool

	// Payload is the second token of a classified response
	Payload string

	// Fields holds every token of an unclassified response
	Fields []string
}

var failures = map[string]struct {
	kind    Kind
	message string
}{
	CodeServerUnreachable:   {KindServerUnreachable, "controller not connected to the Internet server"},
	CodeInvalidCredentials:  {KindInvalidCredentials, "login details incorrect"},
	CodeIdentifierInUse:     {KindIdentifierInUse, "the ID you have chosen is already in use"},
	CodeInvalidIdentifier:   {KindInvalidIdentifier, "invalid ID"},
	CodeAccountConflict:     {KindAccountConflict, "the account is already in use by other users"},
	CodeUpdateRequired:      {KindUpdateRequired, "a software update is required"},
	CodeServiceInspection:   {KindServiceInspection, "service inspection in progress"},
	CodeServiceShuttingDown: {KindServiceShuttingDown, "the service is shutting down"},
	CodeClientVersionTooOld: {KindClientVersionTooOld, "this client version is too old"},
	CodeTransientServer:     {KindTransientServer, "please try again later"},
}

// Interpret classifies a relay response body.
//
// Every input maps to exactly one result: a known failure code returns an
// *Error, "3|payload" returns a classified Outcome, and any other first
// token returns all tokens unclassified.
func Interpret(body string) (Outcome, error) {
	tokens := strings.Split(strings.TrimSpace(body), FieldSeparator)
	code := tokens[0]

	if f, ok := failures[code]; ok {
		e := &Error{Kind: f.kind, Code: code, Message: f.message}
		if f.kind == KindServiceInspection && len(tokens) > 1 {
			e.Detail = tokens[1]
		}
		return Outcome{}, e
	}

	if code == CodeSuccess {
		if len(tokens) < 2 {
			return Outcome{}, &Error{Kind: KindMalformedResponse, Code: code, Message: "success response without payload"}
		}
		return Outcome{Classified: true, Payload: tokens[1]}, nil
	}

	return Outcome{Fields: tokens}, nil
}
