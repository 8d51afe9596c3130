// Package bridge exposes one controller over HTTP and WebSocket.
//
// The bridge runs short status cycles against the controller: connect
// through the relay, read one status frame, send any queued commands in
// the order they arrived, close. Each decoded state is broadcast to all
// WebSocket clients as
//
//	{"type":"state","data":{...DeviceState...}}
//
// and clients queue commands with
//
//	{"type":"command","id":"1","data":{"operation":"room-heat","temperature":21}}
//
// which are acknowledged at once and reported with a "result" message
// after the next cycle. A cycle that ran commands schedules a fresh status
// read shortly afterwards so clients see their effect.
//
// The relay allows few concurrent sessions per account, so the bridge
// never holds a connection open between cycles.
package bridge
