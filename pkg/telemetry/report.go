// Package telemetry provides the protobuf form of heartbeats which is
// published for monitors.
package telemetry

import (
	"time"

	"github.com/golang/protobuf/proto"

	"github.com/robotalks/blocks.go/pkg/wire"
)

// Report mirrors one heartbeat together with its origin.
type Report struct {
	Device      string `protobuf:"bytes,1,opt,name=device,proto3" json:"device,omitempty"`
	Timestamp   int64  `protobuf:"varint,2,opt,name=timestamp,proto3" json:"timestamp,omitempty"`
	Button      uint32 `protobuf:"varint,3,opt,name=button,proto3" json:"button,omitempty"`
	Temperature uint32 `protobuf:"varint,4,opt,name=temperature,proto3" json:"temperature,omitempty"`
	Humidity    uint32 `protobuf:"varint,5,opt,name=humidity,proto3" json:"humidity,omitempty"`
	Light       uint32 `protobuf:"varint,6,opt,name=light,proto3" json:"light,omitempty"`
	GyroType    uint32 `protobuf:"varint,7,opt,name=gyro_type,json=gyroType,proto3" json:"gyro_type,omitempty"`
	GyroAngle   uint32 `protobuf:"varint,8,opt,name=gyro_angle,json=gyroAngle,proto3" json:"gyro_angle,omitempty"`
	Voice       uint32 `protobuf:"varint,9,opt,name=voice,proto3" json:"voice,omitempty"`
	AccelType   uint32 `protobuf:"varint,10,opt,name=accel_type,json=accelType,proto3" json:"accel_type,omitempty"`
	AccelValue  uint32 `protobuf:"varint,11,opt,name=accel_value,json=accelValue,proto3" json:"accel_value,omitempty"`
	Color       uint32 `protobuf:"varint,12,opt,name=color,proto3" json:"color,omitempty"`
	R           uint32 `protobuf:"varint,13,opt,name=r,proto3" json:"r,omitempty"`
	G           uint32 `protobuf:"varint,14,opt,name=g,proto3" json:"g,omitempty"`
	B           uint32 `protobuf:"varint,15,opt,name=b,proto3" json:"b,omitempty"`
}

// Reset implements proto.Message.
func (m *Report) Reset() { *m = Report{} }

// String implements proto.Message.
func (m *Report) String() string { return proto.CompactTextString(m) }

// ProtoMessage implements proto.Message.
func (*Report) ProtoMessage() {}

// FromHeartbeat creates a Report.
func FromHeartbeat(device string, at time.Time, h *wire.Heartbeat) *Report {
	return &Report{
		Device:      device,
		Timestamp:   at.UnixNano() / int64(time.Millisecond),
		Button:      uint32(h.Button),
		Temperature: uint32(h.Temperature),
		Humidity:    uint32(h.Humidity),
		Light:       uint32(h.Light),
		GyroType:    uint32(h.GyroType),
		GyroAngle:   uint32(h.GyroAngle),
		Voice:       uint32(h.Voice),
		AccelType:   uint32(h.AccelType),
		AccelValue:  uint32(h.AccelValue),
		Color:       uint32(h.Color),
		R:           uint32(h.R),
		G:           uint32(h.G),
		B:           uint32(h.B),
	}
}

// Time returns the report timestamp.
func (m *Report) Time() time.Time {
	return time.Unix(0, m.Timestamp*int64(time.Millisecond))
}

// Heartbeat converts the report back to a heartbeat.
func (m *Report) Heartbeat() *wire.Heartbeat {
	return &wire.Heartbeat{
		Button:      byte(m.Button),
		Temperature: byte(m.Temperature),
		Humidity:    byte(m.Humidity),
		Light:       byte(m.Light),
		GyroType:    byte(m.GyroType),
		GyroAngle:   byte(m.GyroAngle),
		Voice:       byte(m.Voice),
		AccelType:   byte(m.AccelType),
		AccelValue:  byte(m.AccelValue),
		Color:       wire.ColorCode(m.Color),
		R:           byte(m.R),
		G:           byte(m.G),
		B:           byte(m.B),
	}
}

// Encode serializes the report.
func (m *Report) Encode() ([]byte, error) {
	return proto.Marshal(m)
}

// Decode parses a serialized report.
func Decode(data []byte) (*Report, error) {
	m := &Report{}
	if err := proto.Unmarshal(data, m); err != nil {
		return nil, err
	}
	return m, nil
}
