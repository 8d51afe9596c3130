package protocol

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"
)

// StatusFrameSize is the size of the fixed status header sent by a
// single-room controller
const StatusFrameSize = 42

// DeviceIDSize is the size of the opaque controller identity
const DeviceIDSize = 8

// ErrorCodeByteOrder is the byte order of the two-byte errorCode field.
// Little-endian matches the observed client on x86 hosts; it has not been
// checked against a capture from a controller reporting an error.
var ErrorCodeByteOrder binary.ByteOrder = binary.LittleEndian

// Status frame field offsets
const (
	offDeviceID          = 0
	offNationCode        = 8
	offHWRev             = 9
	offSWRev             = 10
	offNetType           = 11
	offControlType       = 12
	offBoilerModelType   = 13
	offRoomCount         = 14
	offSMSFlag           = 15
	offErrorCode         = 16 // 2 bytes
	offHotWaterSetTemp   = 18
	offHeatLevel         = 19
	offOptionUseFlags    = 20
	offCurrentMode       = 21
	offCurrentInsideTemp = 22
	offInsideHeatTemp    = 23
	offOndolHeatTemp     = 24
	offRepeatReserveHour = 25
	offRepeatReserveMin  = 26
	offSchedule          = 27 // 3 bytes
	offSimpleReserveTime = 30
	offSimpleReserveMin  = 31
	offOperateMode       = 32
	offTempControlType   = 33
	offHotWaterMin       = 34
	offHotWaterMax       = 35
	offOndolHeatMin      = 36
	offOndolHeatMax      = 37
	offInsideHeatMin     = 38
	offInsideHeatMax     = 39
	offReserve09         = 40
	offReserve10         = 41
)

// Failure markers the relay sends in place of a status frame
var sentinelFrames = [][]byte{
	{0x44, 0x44, 0x44, 0x44, 0x44, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0},
	{0x44, 0x44, 0x44, 0x44, 0x44, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0},
	{0x04, 0x04, 0x04, 0x04, 0x04, 0x04, 0x04, 0x04, 0x04, 0x04},
}

// DeviceID is the opaque 8-byte controller identity echoed in every command
type DeviceID [DeviceIDSize]byte

// ParseDeviceID copies an 8-byte identity out of b
func ParseDeviceID(b []byte) (DeviceID, error) {
	var id DeviceID
	if len(b) != DeviceIDSize {
		return id, fmt.Errorf("%w: got %d bytes", ErrInvalidDeviceID, len(b))
	}
	copy(id[:], b)
	return id, nil
}

// ParseDeviceIDHex parses "01:02:03:04:05:06:07:08" or "0102030405060708"
func ParseDeviceIDHex(s string) (DeviceID, error) {
	raw, err := hex.DecodeString(strings.ReplaceAll(s, ":", ""))
	if err != nil {
		return DeviceID{}, fmt.Errorf("%w: %v", ErrInvalidDeviceID, err)
	}
	return ParseDeviceID(raw)
}

// String renders the identity as colon-separated hex
func (id DeviceID) String() string {
	parts := make([]string, len(id))
	for i, b := range id {
		parts[i] = fmt.Sprintf("%02x", b)
	}
	return strings.Join(parts, ":")
}

// MarshalText implements encoding.TextMarshaler
func (id DeviceID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (id *DeviceID) UnmarshalText(text []byte) error {
	parsed, err := ParseDeviceIDHex(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// DeviceState is a decoded status frame: one snapshot of a controller.
// It is built fresh by DecodeState and never modified afterwards.
type DeviceState struct {
	DeviceID DeviceID `json:"device_id"`

	// Static descriptors
	NationCode      byte `json:"nation_code"`
	HWRev           byte `json:"hw_rev"`
	SWRev           byte `json:"sw_rev"`
	NetType         byte `json:"net_type"`
	ControlType     byte `json:"control_type"`
	BoilerModelType byte `json:"boiler_model_type"`
	RoomCount       byte `json:"room_count"`
	SMSFlag         byte `json:"sms_flag"`

	ErrorCode uint16 `json:"error_code"` // 0 = no error

	HotWaterSetTemp byte        `json:"hot_water_set_temp"`
	HeatLevel       HeatLevel   `json:"heat_level"`
	OptionFlags     OptionFlags `json:"option_flags"`
	CurrentMode     Mode        `json:"current_mode"`

	CurrentInsideTemp byte `json:"current_inside_temp"`
	InsideHeatTemp    byte `json:"inside_heat_temp"`
	OndolHeatTemp     byte `json:"ondol_heat_temp"`

	// Interval heating
	RepeatReserveHour   byte `json:"repeat_reserve_hour"`
	RepeatReserveMinute byte `json:"repeat_reserve_minute"`

	Schedule Schedule `json:"schedule"`

	SimpleReserveSetTime   byte `json:"simple_reserve_set_time"`
	SimpleReserveSetMinute byte `json:"simple_reserve_set_minute"`

	OperateFlags OperateFlags `json:"operate_flags"`
	TempControl  TempControl  `json:"temp_control"`

	// Per-zone bounds (fixed-point temperature bytes)
	HotWaterMin  byte `json:"hot_water_min"`
	HotWaterMax  byte `json:"hot_water_max"`
	OndolHeatMin byte `json:"ondol_heat_min"`
	OndolHeatMax byte `json:"ondol_heat_max"`
	InsideMin    byte `json:"inside_heat_min"`
	InsideMax    byte `json:"inside_heat_max"`

	Reserve09 byte `json:"reserve09"`
	Reserve10 byte `json:"reserve10"`

	// ExtraRoomData holds any bytes after the fixed header. Their layout is
	// unknown; see UnsupportedRoomData.
	ExtraRoomData []byte `json:"extra_room_data,omitempty"`
}

// DecodeState decodes a status frame read from the device session.
//
// The relay's failure markers decode to a *FrameError wrapping
// ErrTransientRead, and anything shorter than StatusFrameSize to a
// *FrameError wrapping ErrTruncatedFrame. Bytes past the fixed header are
// kept in ExtraRoomData rather than decoded.
func DecodeState(data []byte) (*DeviceState, error) {
	if IsSentinelFrame(data) {
		return nil, &FrameError{Err: ErrTransientRead, Length: len(data), Raw: bytes.Clone(data)}
	}
	if len(data) < StatusFrameSize {
		return nil, &FrameError{Err: ErrTruncatedFrame, Length: len(data), Raw: bytes.Clone(data)}
	}

	s := &DeviceState{
		NationCode:             data[offNationCode],
		HWRev:                  data[offHWRev],
		SWRev:                  data[offSWRev],
		NetType:                data[offNetType],
		ControlType:            data[offControlType],
		BoilerModelType:        data[offBoilerModelType],
		RoomCount:              data[offRoomCount],
		SMSFlag:                data[offSMSFlag],
		ErrorCode:              ErrorCodeByteOrder.Uint16(data[offErrorCode : offErrorCode+2]),
		HotWaterSetTemp:        data[offHotWaterSetTemp],
		HeatLevel:              HeatLevel(data[offHeatLevel]),
		OptionFlags:            OptionFlags(data[offOptionUseFlags]),
		CurrentMode:            Mode(data[offCurrentMode]),
		CurrentInsideTemp:      data[offCurrentInsideTemp],
		InsideHeatTemp:         data[offInsideHeatTemp],
		OndolHeatTemp:          data[offOndolHeatTemp],
		RepeatReserveHour:      data[offRepeatReserveHour],
		RepeatReserveMinute:    data[offRepeatReserveMin],
		SimpleReserveSetTime:   data[offSimpleReserveTime],
		SimpleReserveSetMinute: data[offSimpleReserveMin],
		OperateFlags:           OperateFlags(data[offOperateMode]),
		TempControl:            TempControl(data[offTempControlType]),
		HotWaterMin:            data[offHotWaterMin],
		HotWaterMax:            data[offHotWaterMax],
		OndolHeatMin:           data[offOndolHeatMin],
		OndolHeatMax:           data[offOndolHeatMax],
		InsideMin:              data[offInsideHeatMin],
		InsideMax:              data[offInsideHeatMax],
		Reserve09:              data[offReserve09],
		Reserve10:              data[offReserve10],
	}
	copy(s.DeviceID[:], data[offDeviceID:offDeviceID+DeviceIDSize])
	copy(s.Schedule[:], data[offSchedule:offSchedule+3])

	if len(data) > StatusFrameSize {
		s.ExtraRoomData = bytes.Clone(data[StatusFrameSize:])
	}

	return s, nil
}

// IsSentinelFrame reports whether data is exactly one of the relay's
// failure markers
func IsSentinelFrame(data []byte) bool {
	for _, s := range sentinelFrames {
		if bytes.Equal(data, s) {
			return true
		}
	}
	return false
}

// UnsupportedRoomData returns a non-nil error wrapping ErrUnsupportedRoomData
// when the frame carried room state past the fixed header. The fixed fields
// are still valid in that case.
func (s *DeviceState) UnsupportedRoomData() error {
	if len(s.ExtraRoomData) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %d bytes for %d rooms", ErrUnsupportedRoomData, len(s.ExtraRoomData), s.RoomCount)
}

// HasError reports whether the controller is reporting a fault
func (s *DeviceState) HasError() bool {
	return s.ErrorCode != 0
}

// HotWaterSetCelsius returns the hot water set point
func (s *DeviceState) HotWaterSetCelsius() float64 { return TemperatureFromByte(s.HotWaterSetTemp) }

// CurrentInsideCelsius returns the measured room temperature
func (s *DeviceState) CurrentInsideCelsius() float64 {
	return TemperatureFromByte(s.CurrentInsideTemp)
}

// InsideHeatCelsius returns the room heating set point
func (s *DeviceState) InsideHeatCelsius() float64 { return TemperatureFromByte(s.InsideHeatTemp) }

// OndolHeatCelsius returns the central heating set point
func (s *DeviceState) OndolHeatCelsius() float64 { return TemperatureFromByte(s.OndolHeatTemp) }

// RangeBytes returns the min and max wire bytes for a zone
func (s *DeviceState) RangeBytes(zone Zone) (min, max byte) {
	switch zone {
	case ZoneHotWater:
		return s.HotWaterMin, s.HotWaterMax
	case ZoneCentralHeat:
		return s.OndolHeatMin, s.OndolHeatMax
	default:
		return s.InsideMin, s.InsideMax
	}
}

// Range returns the supported Celsius range for a zone
func (s *DeviceState) Range(zone Zone) (min, max float64) {
	lo, hi := s.RangeBytes(zone)
	return TemperatureFromByte(lo), TemperatureFromByte(hi)
}

// CheckTemperature validates celsius against the zone's supported range
func (s *DeviceState) CheckTemperature(zone Zone, celsius float64) error {
	lo, hi := s.RangeBytes(zone)
	return CheckRange(zone, celsius, lo, hi)
}

// String returns a one-line summary
func (s *DeviceState) String() string {
	return fmt.Sprintf("DeviceState{id=%s, mode=%s, room=%.1f°C, error=%d}",
		s.DeviceID, s.CurrentMode, s.CurrentInsideCelsius(), s.ErrorCode)
}
