package relay

import (
	"strings"
)

// Gateway is a controller directory entry returned by GatewayList
type Gateway struct {
	// MAC is the controller's hardware address, used to open a device session
	MAC string `json:"mac"`

	// Fields holds every token of the directory response as received
	Fields []string `json:"fields"`
}

func parseGateway(fields []string) (*Gateway, error) {
	if len(fields) == 0 || strings.TrimSpace(fields[0]) == "" {
		return nil, &Error{Kind: KindMalformedResponse, Message: "gateway list without a controller address"}
	}
	return &Gateway{
		MAC:    strings.TrimSpace(fields[0]),
		Fields: fields,
	}, nil
}
