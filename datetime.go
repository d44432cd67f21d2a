package frps

import (
	"encoding/binary"
	"time"
)

// DateTime is the decoded form of an FRPS datetime value. Unix carries the
// timestamp; the broken-down calendar fields are carried on the wire
// independently and are not recomputed from Unix.
type DateTime struct {
	// Unix is the seconds since the epoch. Protocols 1 and 2 carry it as a
	// signed 32-bit field; protocol 3 widens it to 64 bits.
	Unix int64

	// Year is the full calendar year. The wire stores year-1600 in 11 bits,
	// so representable years are 1600 through 3647.
	Year uint16

	Month   uint8 // 1..12
	Day     uint8 // 1..31
	Hour    uint8 // 0..23
	Min     uint8 // 0..59
	Sec     uint8 // 0..59
	Weekday uint8 // 0..6, Sunday is 0

	// TimeZone is the offset from UTC in 15-minute steps, negative west.
	TimeZone int8
}

// Payload widths of the datetime wire form, excluding the tag byte.
const (
	dateTimeLen32 = 10 // tz(1) + unix(4) + packed(5)
	dateTimeLen64 = 14 // tz(1) + unix(8) + packed(5)
)

// unpackDateTime decodes a datetime payload. p holds exactly dateTimeLen32 or
// dateTimeLen64 octets.
func unpackDateTime(p []byte) DateTime {
	var dt DateTime
	dt.TimeZone = int8(p[0])
	var packed []byte
	if len(p) == dateTimeLen64 {
		dt.Unix = int64(binary.LittleEndian.Uint64(p[1:9]))
		packed = p[9:]
	} else {
		dt.Unix = int64(int32(binary.LittleEndian.Uint32(p[1:5])))
		packed = p[5:]
	}

	// The calendar fields are packed little-endian into 40 bits:
	// weekday(3) sec(6) min(6) hour(5) day(5) month(4) year(11).
	u := uint64(packed[0]) | uint64(packed[1])<<8 | uint64(packed[2])<<16 |
		uint64(packed[3])<<24 | uint64(packed[4])<<32
	dt.Weekday = uint8(u & 0x07)
	dt.Sec = uint8(u >> 3 & 0x3F)
	dt.Min = uint8(u >> 9 & 0x3F)
	dt.Hour = uint8(u >> 15 & 0x1F)
	dt.Day = uint8(u >> 20 & 0x1F)
	dt.Month = uint8(u >> 25 & 0x0F)
	dt.Year = uint16(u>>29&0x7FF) + 1600
	return dt
}

// packDateTime appends the wire payload of dt to b. wide selects the 64-bit
// timestamp form used by protocol 3.
func packDateTime(b []byte, dt DateTime, wide bool) []byte {
	b = append(b, byte(dt.TimeZone))
	if wide {
		b = binary.LittleEndian.AppendUint64(b, uint64(dt.Unix))
	} else {
		b = binary.LittleEndian.AppendUint32(b, uint32(int32(dt.Unix)))
	}
	year := uint64(0)
	if dt.Year >= 1600 {
		year = uint64(dt.Year-1600) & 0x7FF
	}
	u := uint64(dt.Weekday&0x07) |
		uint64(dt.Sec&0x3F)<<3 |
		uint64(dt.Min&0x3F)<<9 |
		uint64(dt.Hour&0x1F)<<15 |
		uint64(dt.Day&0x1F)<<20 |
		uint64(dt.Month&0x0F)<<25 |
		year<<29
	return append(b,
		byte(u), byte(u>>8), byte(u>>16), byte(u>>24), byte(u>>32))
}

// Time converts dt to a time.Time in the fixed zone the wire carried.
func (dt DateTime) Time() time.Time {
	zone := time.FixedZone("", int(dt.TimeZone)*15*60)
	return time.Unix(dt.Unix, 0).In(zone)
}

// MakeDateTime builds a DateTime from t, capturing t's zone offset and
// broken-down local fields.
func MakeDateTime(t time.Time) DateTime {
	_, offset := t.Zone()
	return DateTime{
		Unix:     t.Unix(),
		Year:     uint16(t.Year()),
		Month:    uint8(t.Month()),
		Day:      uint8(t.Day()),
		Hour:     uint8(t.Hour()),
		Min:      uint8(t.Minute()),
		Sec:      uint8(t.Second()),
		Weekday:  uint8(t.Weekday()),
		TimeZone: int8(offset / (15 * 60)),
	}
}
