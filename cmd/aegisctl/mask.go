package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cuemby/aegis/pkg/gate"
)

// namedMasks are the composite bundles spec.md's capability vocabulary
// names, plus the individual SystemCap bits from gate.BitLabels.
var namedMasks = map[string]uint64{
	"grant-admin":    gate.GrantAdmin,
	"cap-admin":      gate.CapAdmin,
	"delegate-admin": gate.DelegateAdmin,
	"read-only":      gate.ReadOnly,
	"entity-admin":   gate.EntityAdmin,
	"type-admin":     gate.TypeAdmin,
	"all":            gate.All,
}

func init() {
	for i, name := range gate.BitLabels {
		namedMasks[name] = 1 << uint(i)
	}
}

// parseMask accepts a "0x"-prefixed hex literal, a bare decimal integer, or
// one or more "+"-joined names from namedMasks (e.g. "grant-write+cap-read").
func parseMask(s string) (uint64, error) {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return strconv.ParseUint(s[2:], 16, 64)
	}
	if v, err := strconv.ParseUint(s, 10, 64); err == nil {
		return v, nil
	}
	var mask uint64
	for _, part := range strings.Split(s, "+") {
		bit, ok := namedMasks[strings.TrimSpace(part)]
		if !ok {
			return 0, fmt.Errorf("unknown capability name %q", part)
		}
		mask |= bit
	}
	return mask, nil
}
