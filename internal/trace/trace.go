package trace

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

// Read decompresses a trace and returns its commands. Blank lines and
// lines starting with '#' are skipped.
func Read(r io.Reader, c Codec) ([]string, error) {
	dec, err := c.Reader(r)
	if err != nil {
		return nil, fmt.Errorf("creating decompressor: %w", err)
	}
	defer dec.Close()

	var lines []string
	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading trace: %w", err)
	}
	return lines, nil
}

// Load opens the trace at raw with src and reads it.
func Load(ctx context.Context, src Source, raw string) ([]string, error) {
	loc, err := ParseLocation(raw)
	if err != nil {
		return nil, err
	}
	rc, err := src.Open(ctx, loc)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return Read(rc, CodecFor(loc.Path))
}

// Write compresses lines with c, one per line.
func Write(w io.Writer, c Codec, lines []string) error {
	enc, err := c.Writer(w)
	if err != nil {
		return fmt.Errorf("creating compressor: %w", err)
	}
	bw := bufio.NewWriter(enc)
	for _, line := range lines {
		if _, err := bw.WriteString(line + "\n"); err != nil {
			_ = enc.Close()
			return fmt.Errorf("writing trace: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		_ = enc.Close()
		return fmt.Errorf("writing trace: %w", err)
	}
	return enc.Close()
}

// WriteFile writes a trace to path, compressing by extension.
func WriteFile(path string, lines []string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating trace file: %w", err)
	}
	if err := Write(f, CodecFor(path), lines); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
