// Command feedgen emits synthetic Add frames to a UDP address, standing in
// for a live market-data feed in demos. It emits no Executed or Cancel
// frames and does not write to a file. It is not part of the core pipeline.
package main

import (
	"fmt"
	"math/rand"
	"net"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rishav/exchanged/internal/frame"
)

func main() {
	var (
		addr  string
		count int
		seed  int64
	)

	root := &cobra.Command{
		Use:   "feedgen",
		Short: "emit synthetic order-book frames for testing",
		RunE: func(cmd *cobra.Command, args []string) error {
			return generate(addr, count, seed)
		},
	}
	root.Flags().StringVar(&addr, "addr", "239.1.1.1:12345", "destination UDP address")
	root.Flags().IntVar(&count, "count", 100, "number of frames to emit")
	root.Flags().Int64Var(&seed, "seed", 1, "PRNG seed")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func generate(addr string, count int, seed int64) error {
	conn, err := net.Dial("udp", addr)
	if err != nil {
		return fmt.Errorf("dialing %s: %w", addr, err)
	}
	defer conn.Close()

	rng := rand.New(rand.NewSource(seed))
	var sym [8]byte
	copy(sym[:], "TEST")

	for i := 1; i <= count; i++ {
		side := frame.SideBuy
		if rng.Intn(2) == 0 {
			side = frame.SideSell
		}
		ev := frame.Event{
			Seq:      uint64(i),
			Type:     frame.TypeAdd,
			Ts:       uint64(time.Now().UnixNano()),
			OrderRef: uint64(i),
			Side:     side,
			Shares:   uint32(1 + rng.Intn(500)),
			Symbol:   sym,
			Price:    uint32(9_000_000 + rng.Intn(2_000_000)),
		}
		if _, err := conn.Write(frame.Encode(ev)); err != nil {
			return fmt.Errorf("writing frame %d: %w", i, err)
		}
	}
	return nil
}
