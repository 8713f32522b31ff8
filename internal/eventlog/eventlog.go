// Package eventlog implements the trade logger stage: a line-oriented,
// human-readable record of every Trade and Listing the matcher emits. It is
// not latency-critical and runs on its own core with idle-sleep, draining
// ring R3 independently of the matcher.
package eventlog

import (
	"bufio"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rishav/exchanged/internal/orderbook"
)

const timeLayout = "2006-01-02 15:04:05"

// Log appends line-oriented ASCII records to a file, per §6's format:
//
//	[<timestamp>] LISTING: OrderID=<u64>, Side=<B|S>, Fee=$<dec>
//	[<timestamp>] TRADE:   AggressorID=<u64> matched RestingID=<u64> for <u32> @ <u64>. Fee=$<dec>
//
// Formatting on-disk beyond this line layout (rotation, compaction, binary
// encoding) is an external collaborator left to the deployment, per spec §1.
type Log struct {
	mu     sync.Mutex
	file   *os.File
	writer *bufio.Writer
}

// Open creates or appends to the log file at path.
func Open(path string) (*Log, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("eventlog: open %s: %w", path, err)
	}
	return &Log{file: f, writer: bufio.NewWriter(f)}, nil
}

// Listing appends one LISTING line, timestamped now.
func (l *Log) Listing(now time.Time, ev orderbook.Listing) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, err := fmt.Fprintf(l.writer, "[%s] LISTING: %s\n", now.Format(timeLayout), ev)
	return err
}

// Trade appends one TRADE line, timestamped now.
func (l *Log) Trade(now time.Time, ev orderbook.Trade) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, err := fmt.Fprintf(l.writer, "[%s] TRADE:   %s\n", now.Format(timeLayout), ev)
	return err
}

// Flush pushes buffered writes to the OS; called periodically by the
// logger stage rather than after every line, since the logger is not on
// the latency-critical path but a flush-per-line would defeat bufio
// entirely.
func (l *Log) Flush() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.writer.Flush()
}

// Close flushes and closes the underlying file.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.writer.Flush(); err != nil {
		l.file.Close()
		return err
	}
	return l.file.Close()
}
