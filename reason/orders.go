package reason

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rustyeddy/papertrade/signal"
)

// Order is one parsed, normalized instruction from the reasoner. Size is a
// fraction in [0, 1] regardless of which field the reply used.
type Order struct {
	Symbol string
	Action signal.Action
	Size   float64
	Reason string
}

// rawOrder matches the reply schema. Models emit either "size" or
// "size_pct"; both carry the same fraction in [0, 1], and pointers
// distinguish absent from zero. A literal 5 meaning five percent is out
// of range and fails the reply rather than being silently rescaled.
type rawOrder struct {
	Asset   string   `json:"asset"`
	Action  string   `json:"action"`
	Size    *float64 `json:"size"`
	SizePct *float64 `json:"size_pct"`
	Reason  string   `json:"reason"`
}

// ParseOrders extracts and decodes the JSON order array from a model reply.
// The reply may wrap the array in prose or a markdown fence; the first
// top-level array is taken. Decoding is strict: unknown keys, a missing
// array, or any structurally invalid element fails the whole reply, so a
// half-garbled answer never produces trades.
func ParseOrders(reply string) ([]Order, error) {
	raw, err := extractArray(reply)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()

	var rows []rawOrder
	if err := dec.Decode(&rows); err != nil {
		return nil, fmt.Errorf("parse orders: %w", err)
	}

	orders := make([]Order, 0, len(rows))
	for i, r := range rows {
		o, err := r.normalize()
		if err != nil {
			return nil, fmt.Errorf("parse orders: element %d: %w", i, err)
		}
		orders = append(orders, o)
	}
	return orders, nil
}

func (r rawOrder) normalize() (Order, error) {
	sym := strings.ToUpper(strings.TrimSpace(r.Asset))
	if sym == "" {
		return Order{}, fmt.Errorf("missing asset")
	}

	var action signal.Action
	switch strings.ToUpper(strings.TrimSpace(r.Action)) {
	case "BUY":
		action = signal.ActionBuy
	case "SELL":
		action = signal.ActionSell
	case "HOLD", "":
		action = signal.ActionHold
	default:
		return Order{}, fmt.Errorf("unknown action %q", r.Action)
	}

	var size float64
	switch {
	case r.Size != nil && r.SizePct != nil:
		return Order{}, fmt.Errorf("both size and size_pct set")
	case r.Size != nil:
		size = *r.Size
	case r.SizePct != nil:
		size = *r.SizePct
	}
	if size < 0 || size > 1 {
		return Order{}, fmt.Errorf("size %.4f out of range", size)
	}

	return Order{
		Symbol: sym,
		Action: action,
		Size:   size,
		Reason: strings.TrimSpace(r.Reason),
	}, nil
}

// extractArray returns the first balanced top-level JSON array in the text,
// skipping brackets inside string literals.
func extractArray(s string) ([]byte, error) {
	start := -1
	depth := 0
	inStr := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]
		if inStr {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inStr = false
			}
			continue
		}
		switch c {
		case '"':
			if start >= 0 {
				inStr = true
			}
		case '[':
			if start < 0 {
				start = i
			}
			depth++
		case ']':
			if start < 0 {
				continue
			}
			depth--
			if depth == 0 {
				return []byte(s[start : i+1]), nil
			}
		}
	}
	return nil, fmt.Errorf("parse orders: no JSON array in reply")
}
