package frps

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Encoder writes FRPS wire data to a growing byte buffer. The protocol
// major version chosen at construction controls integer encoding, length
// field widths and datetime layout.
//
// Encoding errors are sticky: the first failed operation is remembered and
// reported by Err, and later operations are ignored.
type Encoder struct {
	buf   []byte
	major byte
	minor byte
	err   error
}

// NewEncoder creates an Encoder for the given protocol major version with
// the given initial capacity. The minor version written in the preamble is
// the canonical one for the major: 2.1, otherwise .0.
func NewEncoder(major byte, capacity int) *Encoder {
	e := &Encoder{
		buf:   make([]byte, 0, capacity),
		major: major,
	}
	if major == Version2 {
		e.minor = 1
	}
	if major < Version1 || major > Version3 {
		e.err = fmt.Errorf("frps: cannot encode protocol version %d", major)
	}
	return e
}

// NewEncoderBuffer creates an Encoder that writes to an existing buffer.
// The buffer will be grown as needed.
func NewEncoderBuffer(major byte, buf []byte) *Encoder {
	e := NewEncoder(major, 0)
	e.buf = buf[:0]
	return e
}

// Reset resets the encoder for reuse, keeping the buffer and version.
func (e *Encoder) Reset() {
	e.buf = e.buf[:0]
	e.err = nil
}

// Bytes returns the encoded bytes. Check Err before using them.
func (e *Encoder) Bytes() []byte {
	return e.buf
}

// Len returns the length of encoded data.
func (e *Encoder) Len() int {
	return len(e.buf)
}

// Err returns the first encoding error, or nil.
func (e *Encoder) Err() error {
	return e.err
}

func (e *Encoder) fail(format string, args ...any) {
	if e.err == nil {
		e.err = fmt.Errorf("frps: "+format, args...)
	}
}

func (e *Encoder) writeByte(b byte) {
	e.buf = append(e.buf, b)
}

func (e *Encoder) writeBytes(b []byte) {
	e.buf = append(e.buf, b...)
}

// writeUintLE writes the low octets little-endian octets of u.
func (e *Encoder) writeUintLE(u uint64, octets int) {
	for i := 0; i < octets; i++ {
		e.buf = append(e.buf, byte(u))
		u >>= 8
	}
}

// writeHead writes a tag whose low bits carry the octet count minus one of
// the following little-endian length or count field. Protocols 2 and 3 only.
func (e *Encoder) writeHead(tag byte, u uint64) {
	n := intOctets(u)
	e.writeByte(tag | byte(n))
	e.writeUintLE(u, n+1)
}

// writeMagic writes the CA 11 preamble with the encoder's version.
func (e *Encoder) writeMagic() {
	e.writeBytes([]byte{Magic0, Magic1, e.major, e.minor})
}

// WriteCallHeader opens a method call envelope: preamble, call tag, method
// name. Arguments follow as plain encoded values.
func (e *Encoder) WriteCallHeader(method string) {
	if e.err != nil {
		return
	}
	if len(method) == 0 || len(method) > MaxMethodLen {
		e.fail("method name length %d out of range", len(method))
		return
	}
	e.writeMagic()
	e.writeByte(TypeCall)
	e.writeByte(byte(len(method)))
	e.writeBytes([]byte(method))
}

// WriteResponseHeader opens a method response envelope. The single body
// value follows as a plain encoded value.
func (e *Encoder) WriteResponseHeader() {
	if e.err != nil {
		return
	}
	e.writeMagic()
	e.writeByte(TypeResponse)
}

// WriteFault writes a complete fault envelope: preamble, fault tag, code,
// message.
func (e *Encoder) WriteFault(code int64, message string) {
	if e.err != nil {
		return
	}
	e.writeMagic()
	e.writeByte(TypeFault)
	e.EncodeInt(code)
	e.EncodeString(message)
}

// EncodeFaultBody writes a fault tag followed by code and message without a
// preamble, replacing the body of an already opened call or response.
func (e *Encoder) EncodeFaultBody(code int64, message string) {
	if e.err != nil {
		return
	}
	e.writeByte(TypeFault)
	e.EncodeInt(code)
	e.EncodeString(message)
}

// EncodeInt writes an integer in the most compact form the protocol
// version allows.
func (e *Encoder) EncodeInt(v int64) {
	if e.err != nil {
		return
	}
	switch e.major {
	case Version1:
		// Minimal sign-extended little-endian octets; the tag parameter is
		// the octet count and tops out at 7.
		for n := 1; n <= 7; n++ {
			shift := uint(64 - 8*n)
			if int64(uint64(v)<<shift)>>shift == v {
				e.writeByte(TypeInt | byte(n))
				e.writeUintLE(uint64(v), n)
				return
			}
		}
		e.fail("integer %d out of range for protocol 1", v)
	case Version2:
		if v >= 0 {
			e.writeHead(TypeIntPos, uint64(v))
			return
		}
		e.writeHead(TypeIntNeg, uint64(-(v+1))+1)
	default:
		e.writeHead(TypeInt, zigzagEncode(v))
	}
}

// EncodeBool writes a boolean value. The value travels in the tag itself.
func (e *Encoder) EncodeBool(v bool) {
	if e.err != nil {
		return
	}
	if v {
		e.writeByte(TypeBool | 1)
		return
	}
	e.writeByte(TypeBool)
}

// EncodeDouble writes an IEEE-754 double, 8 octets little-endian.
func (e *Encoder) EncodeDouble(v float64) {
	if e.err != nil {
		return
	}
	e.writeByte(TypeDouble)
	e.buf = binary.LittleEndian.AppendUint64(e.buf, math.Float64bits(v))
}

// EncodeNull writes a null value. Protocol 1 has no null type.
func (e *Encoder) EncodeNull() {
	if e.err != nil {
		return
	}
	if e.major == Version1 {
		e.fail("protocol 1 has no null type")
		return
	}
	e.writeByte(TypeNull)
}

// EncodeString writes a UTF-8 string value.
func (e *Encoder) EncodeString(s string) {
	if e.err != nil {
		return
	}
	if e.major == Version1 {
		if len(s) > 255 {
			e.fail("string length %d out of range for protocol 1", len(s))
			return
		}
		e.writeByte(TypeString)
		e.writeByte(byte(len(s)))
		e.writeBytes([]byte(s))
		return
	}
	e.writeHead(TypeString, uint64(len(s)))
	e.writeBytes([]byte(s))
}

// EncodeBinary writes a binary value.
func (e *Encoder) EncodeBinary(p []byte) {
	if e.err != nil {
		return
	}
	if e.major == Version1 {
		if len(p) > 255 {
			e.fail("binary length %d out of range for protocol 1", len(p))
			return
		}
		e.writeByte(TypeBinary)
		e.writeByte(byte(len(p)))
		e.writeBytes(p)
		return
	}
	e.writeHead(TypeBinary, uint64(len(p)))
	e.writeBytes(p)
}

// EncodeDateTime writes a datetime value in the version's wire layout.
func (e *Encoder) EncodeDateTime(dt DateTime) {
	if e.err != nil {
		return
	}
	e.writeByte(TypeDateTime)
	e.buf = packDateTime(e.buf, dt, e.major == Version3)
}

// EncodeStructHeader opens a struct of n members. Each member is written as
// EncodeKey followed by one encoded value.
func (e *Encoder) EncodeStructHeader(n int) {
	if e.err != nil {
		return
	}
	if n < 0 {
		e.fail("negative struct member count %d", n)
		return
	}
	if e.major == Version1 {
		if n > 255 {
			e.fail("struct member count %d out of range for protocol 1", n)
			return
		}
		e.writeByte(TypeStruct)
		e.writeByte(byte(n))
		return
	}
	e.writeHead(TypeStruct, uint64(n))
}

// EncodeKey writes a struct member name. Names are 1 to 255 octets.
func (e *Encoder) EncodeKey(name string) {
	if e.err != nil {
		return
	}
	if len(name) == 0 || len(name) > MaxKeyLen {
		e.fail("struct key length %d out of range", len(name))
		return
	}
	e.writeByte(byte(len(name)))
	e.writeBytes([]byte(name))
}

// EncodeArrayHeader opens an array of n items, which are written as n
// encoded values.
func (e *Encoder) EncodeArrayHeader(n int) {
	if e.err != nil {
		return
	}
	if n < 0 {
		e.fail("negative array item count %d", n)
		return
	}
	if e.major == Version1 {
		if n > 255 {
			e.fail("array item count %d out of range for protocol 1", n)
			return
		}
		e.writeByte(TypeArray)
		e.writeByte(byte(n))
		return
	}
	e.writeHead(TypeArray, uint64(n))
}

// EncodeData writes an out-of-band data chunk after a call's arguments or
// around a response body. The length field is at least two octets since a
// fully zero tag byte is not valid.
func (e *Encoder) EncodeData(p []byte) {
	if e.err != nil {
		return
	}
	n := intOctets(uint64(len(p)))
	if n < 1 {
		n = 1
	}
	e.writeByte(byte(n))
	e.writeUintLE(uint64(len(p)), n+1)
	e.writeBytes(p)
}

// EncodeValue writes a whole value tree.
func (e *Encoder) EncodeValue(v *Value) {
	if e.err != nil {
		return
	}
	switch v.Kind {
	case KindNull:
		e.EncodeNull()
	case KindBool:
		e.EncodeBool(v.Bool)
	case KindInt:
		e.EncodeInt(v.Int)
	case KindDouble:
		e.EncodeDouble(v.Double)
	case KindString:
		e.EncodeString(string(v.Bytes))
	case KindBinary:
		e.EncodeBinary(v.Bytes)
	case KindDateTime:
		e.EncodeDateTime(v.DateTime)
	case KindStruct:
		e.EncodeStructHeader(len(v.Members))
		for i := range v.Members {
			e.EncodeKey(v.Members[i].Name)
			e.EncodeValue(&v.Members[i].Value)
		}
	case KindArray:
		e.EncodeArrayHeader(len(v.Items))
		for i := range v.Items {
			e.EncodeValue(&v.Items[i])
		}
	default:
		e.fail("cannot encode value kind %d", v.Kind)
	}
}

// Marshal encodes a whole message with the version it carries.
func Marshal(m *Message) ([]byte, error) {
	major := m.Major
	if major == 0 {
		major = Version3
	}
	e := NewEncoder(major, 64)
	if m.Major != 0 {
		e.minor = m.Minor
	}
	switch m.Kind {
	case MessageCall:
		e.WriteCallHeader(m.Method)
		for i := range m.Values {
			e.EncodeValue(&m.Values[i])
		}
	case MessageResponse:
		e.WriteResponseHeader()
		for i := range m.Values {
			e.EncodeValue(&m.Values[i])
		}
	case MessageFault:
		e.WriteFault(m.FaultCode, m.FaultString)
	}
	if len(m.Data) > 0 {
		e.EncodeData(m.Data)
	}
	if e.err != nil {
		return nil, e.err
	}
	return e.buf, nil
}
