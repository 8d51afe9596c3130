package protocol

import (
	"encoding/hex"
	"fmt"
)

// Command frame constants
const (
	CommandListSequence = 0x00
	CommandListType     = 0x83 // 131
	CommandDataLength   = 0x15 // 21
	CommandListCount    = 0x00
	CommandSequence     = 0x01

	// CommandFrameSize is the size of an encoded command frame
	CommandFrameSize = 19

	// OperandCount is the number of operand bytes in every command
	OperandCount = 5
)

// Operands are the five operand bytes of a command. Unused slots are zero.
type Operands [OperandCount]byte

// Command is one operation request, independent of the target device
type Command struct {
	Op       OperateMode
	Operands Operands
}

// EncodeCommand builds a command frame
//
// Frame Structure:
//
//	[0]      0x00      List sequence
//	[1]      0x83      Command type
//	[2]      0x15      Data length
//	[3]      0x00      Command count
//	[4-11]   id        Device identity from the last status frame
//	[12]     0x01      Command sequence
//	[13]     op        Operation code
//	[14-18]  operands  Five operand bytes
func EncodeCommand(id DeviceID, op OperateMode, operands Operands) []byte {
	frame := make([]byte, 0, CommandFrameSize)
	frame = append(frame, CommandListSequence, CommandListType, CommandDataLength, CommandListCount)
	frame = append(frame, id[:]...)
	frame = append(frame, CommandSequence, byte(op))
	frame = append(frame, operands[:]...)
	return frame
}

// Encode builds the command frame for the given device
func (c Command) Encode(id DeviceID) []byte {
	return EncodeCommand(id, c.Op, c.Operands)
}

// String returns a debug representation of the command
func (c Command) String() string {
	return fmt.Sprintf("Command{op=%s, operands=%s}", c.Op, hex.EncodeToString(c.Operands[:]))
}

func simple(op OperateMode) Command {
	return Command{Op: op, Operands: Operands{1, 0, 0, 0, 0}}
}

// PowerOn turns the controller on
func PowerOn() Command { return simple(OpPowerOn) }

// PowerOff turns the controller off
func PowerOff() Command { return simple(OpPowerOff) }

// HolidayOn enables holiday (away) mode
func HolidayOn() Command { return simple(OpHolidayOn) }

// HolidayOff disables holiday (away) mode
func HolidayOff() Command { return simple(OpHolidayOff) }

// HotWaterOn switches to hot water only
func HotWaterOn() Command { return simple(OpHotWaterOn) }

// HotWaterOff leaves hot water only mode
func HotWaterOff() Command { return simple(OpHotWaterOff) }

// QuickHotWater requests a hot water boost
func QuickHotWater() Command { return simple(OpQuickHotWater) }

// temperatureCommand checks celsius against the zone bounds reported in
// state before producing the command
func temperatureCommand(op OperateMode, zone Zone, state *DeviceState, celsius float64) (Command, error) {
	if state == nil {
		return Command{}, fmt.Errorf("%w: no device state to check %s range against", ErrInvalidOperand, zone)
	}
	if err := state.CheckTemperature(zone, celsius); err != nil {
		return Command{}, err
	}
	return Command{Op: op, Operands: Operands{1, 0, 0, 0, TemperatureToByte(celsius)}}, nil
}

// RoomHeat sets room temperature control at celsius
func RoomHeat(state *DeviceState, celsius float64) (Command, error) {
	return temperatureCommand(OpRoomHeat, ZoneRoom, state, celsius)
}

// CentralHeat sets central heating control at celsius
func CentralHeat(state *DeviceState, celsius float64) (Command, error) {
	return temperatureCommand(OpCentralHeat, ZoneCentralHeat, state, celsius)
}

// HotWaterTemperature sets the hot water temperature
func HotWaterTemperature(state *DeviceState, celsius float64) (Command, error) {
	return temperatureCommand(OpWaterSetTemp, ZoneHotWater, state, celsius)
}

// IntervalHeating heats for durationMinutes every hourInterval hours
func IntervalHeating(hourInterval, durationMinutes int) (Command, error) {
	if hourInterval < 0 || hourInterval > 0xFF {
		return Command{}, fmt.Errorf("%w: hour interval %d", ErrInvalidOperand, hourInterval)
	}
	if durationMinutes < 0 || durationMinutes > 0xFF {
		return Command{}, fmt.Errorf("%w: duration %d minutes", ErrInvalidOperand, durationMinutes)
	}
	return Command{
		Op:       OpIntervalHeat,
		Operands: Operands{1, 0, 0, byte(hourInterval), byte(durationMinutes)},
	}, nil
}

// Program24h applies a 24-hour schedule
func Program24h(s Schedule) Command {
	return Command{Op: OpProgram24h, Operands: Operands{1, 0, s[0], s[1], s[2]}}
}

// SetHeatLevel sets the heating intensity
func SetHeatLevel(level HeatLevel) (Command, error) {
	if !level.Valid() {
		return Command{}, fmt.Errorf("%w: heat level %d", ErrInvalidOperand, byte(level))
	}
	return Command{Op: OpHeatLevel, Operands: Operands{1, 0, 0, 0, byte(level)}}, nil
}
