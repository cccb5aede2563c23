package checkout

import (
	"math/rand"
	"strconv"
	"time"
)

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewOrderID mints "LH-<unix millis>-<9 base36 chars>".
func NewOrderID(now time.Time, rng *rand.Rand) string {
	suffix := make([]byte, 9)
	for i := range suffix {
		suffix[i] = base36[rng.Intn(len(base36))]
	}
	return "LH-" + strconv.FormatInt(now.UnixMilli(), 10) + "-" + string(suffix)
}
