// Package mbox post-processes fetched mailboxes: duplicate-Message-ID
// removal and final placement under the slug-derived filename.
package mbox

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
)

// seenWindow bounds the per-run Message-ID lookahead. Archive responses are
// a single search result set, so duplicates sit close together; the window
// keeps memory flat on very large thread dumps.
const seenWindow = 8192

// Process writes the final mailbox at dst. With dedup enabled the source is
// piped through the duplicate filter; otherwise it is renamed unchanged.
// Returns the number of messages kept and dropped.
func Process(src, dst string, dedup bool) (kept, dropped int, err error) {
	if !dedup {
		n, err := Count(src)
		if err != nil {
			return 0, 0, err
		}
		if err := os.Rename(src, dst); err != nil {
			return 0, 0, fmt.Errorf("place mailbox at %s: %w", dst, err)
		}
		return n, 0, nil
	}

	in, err := os.Open(src)
	if err != nil {
		return 0, 0, fmt.Errorf("open mailbox: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return 0, 0, fmt.Errorf("create %s: %w", dst, err)
	}
	kept, dropped, err = Dedupe(in, out)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return 0, 0, fmt.Errorf("deduplicate mailbox: %w", err)
	}
	os.Remove(src)
	return kept, dropped, nil
}

// Dedupe copies the mbox from r to w, dropping any message whose Message-ID
// was already seen. Order is preserved and messages without a Message-ID are
// always kept, so the pass is stable and idempotent.
func Dedupe(r io.Reader, w io.Writer) (kept, dropped int, err error) {
	seen := newIDWindow(seenWindow)
	var msg bytes.Buffer

	flush := func() error {
		if msg.Len() == 0 {
			return nil
		}
		defer msg.Reset()
		id := messageID(msg.Bytes())
		if id != "" && seen.has(id) {
			dropped++
			return nil
		}
		if id != "" {
			seen.add(id)
		}
		kept++
		_, werr := w.Write(msg.Bytes())
		return werr
	}

	br := bufio.NewReader(r)
	for {
		line, rerr := br.ReadBytes('\n')
		if len(line) > 0 {
			if bytes.HasPrefix(line, []byte("From ")) && msg.Len() > 0 {
				if err := flush(); err != nil {
					return kept, dropped, err
				}
			}
			msg.Write(line)
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return kept, dropped, rerr
		}
	}
	if err := flush(); err != nil {
		return kept, dropped, err
	}
	return kept, dropped, nil
}

// Count returns the number of messages in an mbox file.
func Count(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open mailbox: %w", err)
	}
	defer f.Close()

	n := 0
	br := bufio.NewReader(f)
	for {
		line, err := br.ReadBytes('\n')
		if bytes.HasPrefix(line, []byte("From ")) {
			n++
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, err
		}
	}
	return n, nil
}

// messageID extracts the Message-ID header value from a raw message,
// scanning only the header block.
func messageID(msg []byte) string {
	for _, line := range bytes.Split(msg, []byte("\n")) {
		if len(bytes.TrimSpace(line)) == 0 {
			break // end of headers
		}
		if len(line) > 11 && strings.EqualFold(string(line[:11]), "message-id:") {
			return string(bytes.TrimSpace(line[11:]))
		}
	}
	return ""
}

// idWindow is a bounded FIFO set of Message-IDs.
type idWindow struct {
	max   int
	seen  map[string]struct{}
	order []string
}

func newIDWindow(max int) *idWindow {
	return &idWindow{max: max, seen: make(map[string]struct{})}
}

func (w *idWindow) has(id string) bool {
	_, ok := w.seen[id]
	return ok
}

func (w *idWindow) add(id string) {
	if len(w.order) == w.max {
		delete(w.seen, w.order[0])
		w.order = w.order[1:]
	}
	w.seen[id] = struct{}{}
	w.order = append(w.order, id)
}
