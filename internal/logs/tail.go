package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"animethreads/internal/logging"
)

const pollInterval = 250 * time.Millisecond

// Filter selects log lines by structured field.
type Filter struct {
	RunID     string
	EventType string
	Level     string
}

// Match reports whether line satisfies every field of the filter.
func (f Filter) Match(line string) bool {
	if f.RunID != "" && !hasField(line, logging.FieldRunID, f.RunID) {
		return false
	}
	if f.EventType != "" && !hasField(line, logging.FieldEventType, f.EventType) {
		return false
	}
	if f.Level != "" && !hasLevel(line, f.Level) {
		return false
	}
	return true
}

func hasField(line, key, value string) bool {
	plain := key + "=" + value
	if idx := strings.Index(line, plain); idx >= 0 {
		end := idx + len(plain)
		if end == len(line) || line[end] == ' ' {
			return true
		}
	}
	return strings.Contains(line, strconv.Quote(key)+":"+strconv.Quote(value))
}

func hasLevel(line, level string) bool {
	upper := strings.ToUpper(level)
	lower := strings.ToLower(level)
	return strings.Contains(line, " "+upper+" ") || strings.Contains(line, `"level":"`+lower+`"`)
}

// TailOptions controls Tail.
type TailOptions struct {
	// Offset < 0 reads the last Limit matching lines; otherwise reading
	// starts at the byte offset returned by a previous call.
	Offset int64
	Limit  int
	Follow bool
	Wait   time.Duration
	Filter Filter
}

// TailResult carries the lines read and the offset to resume from.
type TailResult struct {
	Lines  []string
	Offset int64
}

// Tail reads lines from the log file at path. A missing file yields no lines.
func Tail(ctx context.Context, path string, opts TailOptions) (TailResult, error) {
	if opts.Wait < 0 {
		opts.Wait = 0
	}
	var (
		result TailResult
		err    error
	)
	if opts.Offset < 0 {
		result.Lines, result.Offset, err = readLastLines(path, opts.Limit, opts.Filter)
	} else {
		result.Lines, result.Offset, err = readForward(path, opts.Offset, opts.Filter)
	}
	if err != nil {
		return result, err
	}
	if opts.Follow && opts.Wait > 0 && len(result.Lines) == 0 {
		return waitForLines(ctx, path, result.Offset, opts.Wait, opts.Filter)
	}
	return result, nil
}

func readLastLines(path string, limit int, filter Filter) ([]string, int64, error) {
	file, size, err := openLog(path)
	if err != nil || file == nil {
		return nil, 0, err
	}
	defer file.Close()
	if limit <= 0 {
		return nil, size, nil
	}

	ring := make([]string, limit)
	count, idx := 0, 0
	offset, err := scan(file, func(line string) {
		if !filter.Match(line) {
			return
		}
		ring[idx] = line
		idx = (idx + 1) % limit
		if count < limit {
			count++
		}
	})
	if err != nil {
		return nil, 0, err
	}

	lines := make([]string, count)
	if count == limit {
		for i := range count {
			lines[i] = ring[(idx+i)%limit]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, offset, nil
}

func readForward(path string, offset int64, filter Filter) ([]string, int64, error) {
	file, size, err := openLog(path)
	if err != nil || file == nil {
		return nil, 0, err
	}
	defer file.Close()
	if offset > size {
		// Truncated or rotated since the last read.
		offset = 0
	}
	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return nil, 0, fmt.Errorf("seek log file: %w", err)
	}
	var lines []string
	end, err := scan(file, func(line string) {
		if filter.Match(line) {
			lines = append(lines, line)
		}
	})
	if err != nil {
		return nil, 0, err
	}
	return lines, end, nil
}

func openLog(path string) (*os.File, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("open log file: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, 0, fmt.Errorf("stat log file: %w", err)
	}
	if info.IsDir() {
		file.Close()
		return nil, 0, fmt.Errorf("log path %q is a directory", path)
	}
	return file, info.Size(), nil
}

// scan feeds every complete line to fn and returns the offset just past the
// last one. A trailing partial line is left for the next read.
func scan(file *os.File, fn func(string)) (int64, error) {
	offset, err := file.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, fmt.Errorf("determine log offset: %w", err)
	}
	reader := bufio.NewReaderSize(file, 64*1024)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				return offset, nil
			}
			return 0, fmt.Errorf("read log file: %w", err)
		}
		offset += int64(len(line))
		fn(strings.TrimRight(line, "\r\n"))
	}
}

func waitForLines(ctx context.Context, path string, offset int64, wait time.Duration, filter Filter) (TailResult, error) {
	deadline := time.Now().Add(wait)
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	result := TailResult{Offset: offset}
	for {
		lines, newOffset, err := readForward(path, result.Offset, filter)
		if err != nil {
			return result, err
		}
		result.Offset = newOffset
		if len(lines) > 0 {
			result.Lines = lines
			return result, nil
		}
		if time.Now().After(deadline) {
			return result, nil
		}
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		case <-ticker.C:
		}
	}
}
