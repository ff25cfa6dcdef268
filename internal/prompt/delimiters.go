package prompt

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
)

// Delimiters bracket the untrusted user payload inside a prompt. The
// payload is emitted literally between Open and Close; tamper resistance
// comes from picking markers the payload provably does not contain.
type Delimiters struct {
	Open  string
	Close string
}

// planDelimiters and diffDelimiters are the default marker pairs. They are
// only replaced when the payload embeds one of them verbatim.
var (
	planDelimiters = Delimiters{"<<<PLAN>>>", "<<<END_PLAN>>>"}
	diffDelimiters = Delimiters{"<<<DIFF>>>", "<<<END_DIFF>>>"}
)

// randomHexSuffix returns a short random hex string used to derive
// collision-free markers.
func randomHexSuffix() string {
	var buf [4]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// crypto/rand read failures are effectively fatal platform
		// problems; fall back to a fixed suffix rather than panic.
		return "f4llback"
	}
	return hex.EncodeToString(buf[:])
}

// suffixed derives a marker pair carrying the given hex suffix, e.g.
// <<<PLAN_9f3a2b1c>>> / <<<END_PLAN_9f3a2b1c>>>.
func (d Delimiters) suffixed(suffix string) Delimiters {
	inject := func(marker string) string {
		base := strings.TrimSuffix(marker, ">>>")
		return fmt.Sprintf("%s_%s>>>", base, suffix)
	}
	return Delimiters{Open: inject(d.Open), Close: inject(d.Close)}
}

// resolveDelimiters returns a marker pair guaranteed absent from payload.
// The defaults are kept whenever possible so prompts stay deterministic;
// only a payload embedding a marker verbatim (prompt injection through the
// payload) forces a regenerated pair.
func resolveDelimiters(defaults Delimiters, payload string) Delimiters {
	d := defaults
	for strings.Contains(payload, d.Open) ||
		strings.Contains(payload, d.Close) {

		d = defaults.suffixed(randomHexSuffix())
	}
	return d
}
