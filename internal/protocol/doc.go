// Package protocol implements the Navien smart-control binary protocol.
//
// This package decodes the status frames a controller sends through the
// relay server and encodes the command frames that change its state. All
// functions are pure: they depend only on their input bytes and on the
// DeviceState a command is built from.
//
// # Status Frame
//
// A single-room controller answers the identification line with a 42-byte
// frame at fixed offsets:
//   - Bytes 0-7: Device identity (echoed back in every command)
//   - Bytes 8-15: Static descriptors (nation, hardware/software revision, room count, ...)
//   - Bytes 16-17: Error code (see ErrorCodeByteOrder)
//   - Bytes 18-33: Set points, mode, schedules, operation flags
//   - Bytes 34-39: Min/max temperature bytes for hot water, central heating and room
//   - Bytes 40-41: Reserved
//
// Controllers with more than one room append room state after byte 41.
// That layout is undocumented; it is kept as ExtraRoomData and reported by
// DeviceState.UnsupportedRoomData.
//
// # Failure Markers
//
// Instead of a status frame the relay may send 44 44 44 44 44 followed by
// zeros, or ten 04 bytes. DecodeState reports both as ErrTransientRead.
//
// # Temperatures
//
// Every temperature is one byte at half-degree resolution:
//
//	TemperatureToByte(22.5)  // 45
//	TemperatureFromByte(45)  // 22.5
//
// # Command Frame
//
//	00 83 15 00 | 8-byte device id | 01 | op | 5 operands
//
// # Usage Example
//
//	state, err := protocol.DecodeState(buf[:n])
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	cmd, err := protocol.RoomHeat(state, 21.5)
//	if err != nil {
//	    log.Fatal(err) // *RangeError when outside the room range
//	}
//	frame := cmd.Encode(state.DeviceID)
//
// The protocol has no acknowledgement: the next status frame is the only
// way to observe the effect of a command.
package protocol
