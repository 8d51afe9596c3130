// Package relay implements the HTTP side of the Navien relay server:
// login, the gateway directory and the response code taxonomy.
//
// Responses are plain text split on "|". Interpret maps every body to
// exactly one result:
//
//	"3|dXNlcg=="        → Outcome{Classified: true, Payload: "dXNlcg=="}
//	"1"                 → *Error{Kind: KindInvalidCredentials}
//	"202|9-10"          → *Error{Kind: KindServiceInspection, Detail: "9-10"}
//	"0011AABBCC|..."    → Outcome{Fields: [...]} (gateway list)
//
// # Errors
//
// Every failure is an *Error with a Kind. Kind.Advisory separates
// conditions that may clear on their own (inspection, transient server
// errors, network trouble) from fatal ones (bad credentials, rejected
// client version). The client never retries; IsRetryable and Hint are for
// callers.
//
// # Usage Example
//
//	client := relay.NewClient()
//
//	token, err := client.Login(ctx, userID, password)
//	if err != nil {
//	    fmt.Println(relay.Hint(err))
//	    return err
//	}
//
//	gw, err := client.GatewayList(ctx, token)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(gw.MAC)
package relay
