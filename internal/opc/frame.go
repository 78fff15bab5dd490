package opc

import (
	"encoding/binary"
	"errors"

	"github.com/coreman2200/pixelgenie/internal/pixel"
)

// Commands understood by OPC servers (openpixelcontrol.org).
const (
	CmdSetPixels  byte = 0x00
	CmdSysEx      byte = 0xFF
	BroadcastChan byte = 0

	headerLen     = 4
	maxPayloadLen = 0xFFFF

	// Fadecandy firmware configuration SysEx.
	sysIDFadecandy   uint16 = 0x0001
	sysCmdFirmware   uint16 = 0x0002
	cfgNoInterpolate byte   = 0x02
)

var ErrFrameTooLarge = errors.New("opc: payload exceeds 65535 bytes")

// MaxPixels is the largest pixel count a single set-pixels frame can carry.
const MaxPixels = maxPayloadLen / 3

// PixelFrame encodes a set-pixels message for channel.
func PixelFrame(channel byte, pixels []pixel.RGB) ([]byte, error) {
	n := len(pixels) * 3
	if n > maxPayloadLen {
		return nil, ErrFrameTooLarge
	}
	buf := make([]byte, headerLen, headerLen+n)
	buf[0] = channel
	buf[1] = CmdSetPixels
	binary.BigEndian.PutUint16(buf[2:4], uint16(n))
	return pixel.Bytes(buf, pixels), nil
}

// FirmwareConfigFrame encodes the 9-byte firmware configuration message.
func FirmwareConfigFrame(cfg byte) []byte {
	buf := make([]byte, 9)
	buf[0] = BroadcastChan
	buf[1] = CmdSysEx
	binary.BigEndian.PutUint16(buf[2:4], 5)
	binary.BigEndian.PutUint16(buf[4:6], sysIDFadecandy)
	binary.BigEndian.PutUint16(buf[6:8], sysCmdFirmware)
	buf[8] = cfg
	return buf
}

// firmwareConfig returns cfg with the interpolation bit updated.
func firmwareConfig(cfg byte, interpolate bool) byte {
	if interpolate {
		return cfg &^ cfgNoInterpolate
	}
	return cfg | cfgNoInterpolate
}
