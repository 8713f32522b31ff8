// Package frame decodes the external market-data wire protocol: a header of
// a 64-bit sequence number and an 8-bit message type, followed by one of a
// small set of fixed fields depending on type. Byte layout, socket plumbing
// and the multicast transport itself are external collaborators — this
// package only turns a raw datagram into a typed, in-memory event.
package frame

import (
	"encoding/binary"
	"fmt"
)

// Type identifies the wire message kind, carried as the header's 8-bit tag.
type Type byte

const (
	TypeAdd      Type = 'A'
	TypeExecuted Type = 'E'
	TypeCancel   Type = 'X'
)

const (
	headerSize = 9 // 8-byte sequence + 1-byte type

	addSize      = headerSize + 2 + 2 + 8 + 8 + 1 + 4 + 8 + 4
	executedSize = headerSize + 2 + 2 + 8 + 8 + 4 + 8
	cancelSize   = headerSize + 2 + 2 + 8 + 8 + 4
)

// ErrShort is returned when a buffer is too small for its declared type —
// the §7 "protocol violation" taxonomy entry.
var ErrShort = fmt.Errorf("frame: shorter than its declared type")

// Side is the book side carried on an Add message.
type Side byte

const (
	SideBuy  Side = 'B'
	SideSell Side = 'S'
)

// Event is the decoded, type-agnostic view of one frame. Fields not
// applicable to Type are left zero. Symbol/locate/tracking/timestamp are
// carried only as pass-through metadata; the book never keys on them.
type Event struct {
	Seq      uint64
	Type     Type
	Locate   uint16
	Tracking uint16
	Ts       uint64
	OrderRef uint64
	Side     Side
	Shares   uint32
	Symbol   [8]byte
	Price    uint32 // scaled 1/10000 units, opaque to the matcher

	ExecShares uint32
	MatchNum   uint64

	CancelShares uint32
}

// Decode parses one frame from buf. Unknown message types decode only the
// header and return the Event with its Type field holding the unrecognized
// tag unchanged — callers treat any type outside {Add,Executed,Cancel} as
// a no-op, never an error.
func Decode(buf []byte) (Event, error) {
	if len(buf) < headerSize {
		return Event{}, ErrShort
	}
	var ev Event
	ev.Seq = binary.BigEndian.Uint64(buf[0:8])
	ev.Type = Type(buf[8])

	body := buf[headerSize:]
	switch ev.Type {
	case TypeAdd:
		if len(body) < addSize-headerSize {
			return Event{}, ErrShort
		}
		off := 0
		ev.Locate = binary.BigEndian.Uint16(body[off:])
		off += 2
		ev.Tracking = binary.BigEndian.Uint16(body[off:])
		off += 2
		ev.Ts = binary.BigEndian.Uint64(body[off:])
		off += 8
		ev.OrderRef = binary.BigEndian.Uint64(body[off:])
		off += 8
		ev.Side = Side(body[off])
		off += 1
		ev.Shares = binary.BigEndian.Uint32(body[off:])
		off += 4
		copy(ev.Symbol[:], body[off:off+8])
		off += 8
		ev.Price = binary.BigEndian.Uint32(body[off:])

	case TypeExecuted:
		if len(body) < executedSize-headerSize {
			return Event{}, ErrShort
		}
		off := 0
		ev.Locate = binary.BigEndian.Uint16(body[off:])
		off += 2
		ev.Tracking = binary.BigEndian.Uint16(body[off:])
		off += 2
		ev.Ts = binary.BigEndian.Uint64(body[off:])
		off += 8
		ev.OrderRef = binary.BigEndian.Uint64(body[off:])
		off += 8
		ev.ExecShares = binary.BigEndian.Uint32(body[off:])
		off += 4
		ev.MatchNum = binary.BigEndian.Uint64(body[off:])

	case TypeCancel:
		if len(body) < cancelSize-headerSize {
			return Event{}, ErrShort
		}
		off := 0
		ev.Locate = binary.BigEndian.Uint16(body[off:])
		off += 2
		ev.Tracking = binary.BigEndian.Uint16(body[off:])
		off += 2
		ev.Ts = binary.BigEndian.Uint64(body[off:])
		off += 8
		ev.OrderRef = binary.BigEndian.Uint64(body[off:])
		off += 8
		ev.CancelShares = binary.BigEndian.Uint32(body[off:])

	default:
		// Unknown type: header-only decode, treated as a no-op downstream.
	}
	return ev, nil
}

// Encode serializes ev back to wire bytes, for use by test feeders and
// cmd/feedgen. It is the mirror of Decode and is not on the matcher's hot
// path.
func Encode(ev Event) []byte {
	switch ev.Type {
	case TypeAdd:
		buf := make([]byte, addSize)
		binary.BigEndian.PutUint64(buf[0:], ev.Seq)
		buf[8] = byte(ev.Type)
		off := headerSize
		binary.BigEndian.PutUint16(buf[off:], ev.Locate)
		off += 2
		binary.BigEndian.PutUint16(buf[off:], ev.Tracking)
		off += 2
		binary.BigEndian.PutUint64(buf[off:], ev.Ts)
		off += 8
		binary.BigEndian.PutUint64(buf[off:], ev.OrderRef)
		off += 8
		buf[off] = byte(ev.Side)
		off += 1
		binary.BigEndian.PutUint32(buf[off:], ev.Shares)
		off += 4
		copy(buf[off:off+8], ev.Symbol[:])
		off += 8
		binary.BigEndian.PutUint32(buf[off:], ev.Price)
		return buf

	case TypeExecuted:
		buf := make([]byte, executedSize)
		binary.BigEndian.PutUint64(buf[0:], ev.Seq)
		buf[8] = byte(ev.Type)
		off := headerSize
		binary.BigEndian.PutUint16(buf[off:], ev.Locate)
		off += 2
		binary.BigEndian.PutUint16(buf[off:], ev.Tracking)
		off += 2
		binary.BigEndian.PutUint64(buf[off:], ev.Ts)
		off += 8
		binary.BigEndian.PutUint64(buf[off:], ev.OrderRef)
		off += 8
		binary.BigEndian.PutUint32(buf[off:], ev.ExecShares)
		off += 4
		binary.BigEndian.PutUint64(buf[off:], ev.MatchNum)
		return buf

	case TypeCancel:
		buf := make([]byte, cancelSize)
		binary.BigEndian.PutUint64(buf[0:], ev.Seq)
		buf[8] = byte(ev.Type)
		off := headerSize
		binary.BigEndian.PutUint16(buf[off:], ev.Locate)
		off += 2
		binary.BigEndian.PutUint16(buf[off:], ev.Tracking)
		off += 2
		binary.BigEndian.PutUint64(buf[off:], ev.Ts)
		off += 8
		binary.BigEndian.PutUint64(buf[off:], ev.OrderRef)
		off += 8
		binary.BigEndian.PutUint32(buf[off:], ev.CancelShares)
		return buf

	default:
		buf := make([]byte, headerSize)
		binary.BigEndian.PutUint64(buf[0:], ev.Seq)
		buf[8] = byte(ev.Type)
		return buf
	}
}

// MaxSize is the largest frame this protocol ever produces; callers size
// ring items to at least this many bytes.
const MaxSize = addSize
