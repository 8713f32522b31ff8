package frame

import "testing"

func TestEncodeDecodeAdd(t *testing.T) {
	var sym [8]byte
	copy(sym[:], "ACME")
	want := Event{
		Seq: 42, Type: TypeAdd, Locate: 1, Tracking: 2, Ts: 123456,
		OrderRef: 9001, Side: SideBuy, Shares: 100, Symbol: sym, Price: 10000,
	}
	got, err := Decode(Encode(want))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got != want {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, want)
	}
}

func TestDecodeShortHeaderErrors(t *testing.T) {
	if _, err := Decode([]byte{1, 2, 3}); err != ErrShort {
		t.Fatalf("Decode short = %v, want ErrShort", err)
	}
}

func TestDecodeShortBodyErrors(t *testing.T) {
	buf := Encode(Event{Seq: 1, Type: TypeAdd})
	if _, err := Decode(buf[:headerSize+3]); err != ErrShort {
		t.Fatalf("Decode truncated add = %v, want ErrShort", err)
	}
}

func TestDecodeUnknownTypeIsNoopNotError(t *testing.T) {
	buf := Encode(Event{Seq: 7, Type: 'Z'})
	ev, err := Decode(buf)
	if err != nil {
		t.Fatalf("Decode unknown type: %v", err)
	}
	if ev.Seq != 7 || ev.Type != 'Z' {
		t.Fatalf("unknown-type decode = %+v", ev)
	}
}
