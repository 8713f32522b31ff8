package pipeline

import (
	"encoding/binary"
	"fmt"

	"github.com/rishav/exchanged/internal/orderbook"
)

// Ring R3 carries Trade/Listing events between the matcher and the logger
// stage. The wire shape here is internal to this process (unlike the
// external feed's frame layout in package frame) so it is kept minimal: a
// one-byte tag followed by fixed fields, encoded big-endian for consistency
// with the rest of the system's wire conventions.
const (
	tagTrade   = 'T'
	tagListing = 'L'

	tradeWireSize   = 1 + 8 + 8 + 8 + 4 + 8
	listingWireSize = 1 + 8 + 1 + 8
)

// MaxEventWireSize bounds ring R3's item size.
const MaxEventWireSize = tradeWireSize

var errShortEventFrame = fmt.Errorf("pipeline: event frame shorter than its tag declares")

func encodeTrade(t orderbook.Trade) []byte {
	buf := make([]byte, tradeWireSize)
	buf[0] = tagTrade
	binary.BigEndian.PutUint64(buf[1:], t.AggressorID)
	binary.BigEndian.PutUint64(buf[9:], t.RestingID)
	binary.BigEndian.PutUint64(buf[17:], uint64(t.Price))
	binary.BigEndian.PutUint32(buf[25:], t.Quantity)
	binary.BigEndian.PutUint64(buf[29:], uint64(t.Fee))
	return buf
}

func encodeListing(l orderbook.Listing) []byte {
	buf := make([]byte, listingWireSize)
	buf[0] = tagListing
	binary.BigEndian.PutUint64(buf[1:], l.OrderID)
	buf[9] = byte(l.Side)
	binary.BigEndian.PutUint64(buf[10:], uint64(l.Fee))
	return buf
}

// decodeEvent returns exactly one of (trade, listing) populated, based on
// the leading tag byte.
func decodeEvent(buf []byte) (trade *orderbook.Trade, listing *orderbook.Listing, err error) {
	if len(buf) == 0 {
		return nil, nil, errShortEventFrame
	}
	switch buf[0] {
	case tagTrade:
		if len(buf) < tradeWireSize {
			return nil, nil, errShortEventFrame
		}
		t := orderbook.Trade{
			AggressorID: binary.BigEndian.Uint64(buf[1:]),
			RestingID:   binary.BigEndian.Uint64(buf[9:]),
			Price:       int64(binary.BigEndian.Uint64(buf[17:])),
			Quantity:    binary.BigEndian.Uint32(buf[25:]),
			Fee:         orderbook.Fee(binary.BigEndian.Uint64(buf[29:])),
		}
		return &t, nil, nil

	case tagListing:
		if len(buf) < listingWireSize {
			return nil, nil, errShortEventFrame
		}
		l := orderbook.Listing{
			OrderID: binary.BigEndian.Uint64(buf[1:]),
			Side:    orderbook.Side(buf[9]),
			Fee:     orderbook.Fee(binary.BigEndian.Uint64(buf[10:])),
		}
		return nil, &l, nil

	default:
		return nil, nil, errShortEventFrame
	}
}
