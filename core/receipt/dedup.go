package receipt

import (
	"bufio"
	"bytes"
	"encoding/json"
)

// Dedup parses a receipts.jsonl byte stream and returns one Receipt per
// distinct receiptId, keeping the first occurrence. Per spec.md §5's
// cancellation note, a replayed run recomputes an identical receiptId and
// appends it again; readers must tolerate the duplicate rather than treat
// it as corruption.
func Dedup(jsonl []byte) ([]Receipt, error) {
	seen := map[string]struct{}{}
	var out []Receipt

	scanner := bufio.NewScanner(bytes.NewReader(jsonl))
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var r Receipt
		if err := json.Unmarshal(line, &r); err != nil {
			return nil, err
		}
		if _, dup := seen[r.ReceiptID]; dup {
			continue
		}
		seen[r.ReceiptID] = struct{}{}
		out = append(out, r)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
