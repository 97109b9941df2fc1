package logtail

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// Read returns at most maxLines from the end of the file at path. A missing
// file yields no lines.
func Read(path string, maxLines int) ([]string, error) {
	if maxLines <= 0 {
		return nil, nil
	}
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	ring := make([]string, maxLines)
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	count, idx := 0, 0
	for scanner.Scan() {
		ring[idx] = scanner.Text()
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	lines := make([]string, count)
	if count == maxLines {
		for i := range count {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}

// Entry is one decoded zerolog JSON line.
type Entry struct {
	Time    time.Time
	Level   string
	Message string
	Error   string
	// Fields holds the remaining keys, rendered as text.
	Fields map[string]string
}

// Parse decodes a zerolog JSON line. Lines that are not JSON objects come
// back as a message-only entry.
func Parse(line string) Entry {
	var raw map[string]any
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return Entry{Message: line}
	}

	e := Entry{Fields: make(map[string]string, len(raw))}
	for k, v := range raw {
		s := fmt.Sprint(v)
		switch k {
		case "time":
			if ts, err := time.Parse(time.RFC3339, s); err == nil {
				e.Time = ts
			}
		case "level":
			e.Level = s
		case "message":
			e.Message = s
		case "error":
			e.Error = s
		default:
			e.Fields[k] = s
		}
	}
	return e
}

// String renders the entry as "15:04:05 WRN message error=… k=v", with
// fields sorted by key.
func (e Entry) String() string {
	var b strings.Builder
	if !e.Time.IsZero() {
		b.WriteString(e.Time.Local().Format("15:04:05"))
		b.WriteByte(' ')
	}
	if e.Level != "" {
		b.WriteString(levelTag(e.Level))
		b.WriteByte(' ')
	}
	b.WriteString(e.Message)
	if e.Error != "" {
		b.WriteString(" error=")
		b.WriteString(e.Error)
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteByte(' ')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(e.Fields[k])
	}
	return b.String()
}

func levelTag(level string) string {
	switch level {
	case "trace":
		return "TRC"
	case "debug":
		return "DBG"
	case "info":
		return "INF"
	case "warn":
		return "WRN"
	case "error":
		return "ERR"
	case "fatal":
		return "FTL"
	default:
		return strings.ToUpper(level)
	}
}

// Format reads the last maxLines of path and renders each as an Entry.
func Format(path string, maxLines int) ([]string, error) {
	lines, err := Read(path, maxLines)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = Parse(line).String()
	}
	return out, nil
}
