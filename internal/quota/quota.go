// Package quota holds the shared daily send counter. The counter is a
// gate on dispatch attempts, not a ledger of delivered messages: every
// attempt consumes one unit whether or not the send goes through.
package quota

import (
	"context"
	"fmt"
	"time"
)

const keyPrefix = "sms_limit"

// TTL gives counters a 48 hour lifetime, enough slack for clock skew
// and campaigns that straddle midnight.
const TTL = 48 * time.Hour

// Key builds the counter key for an account on a calendar day.
func Key(accountID int, day time.Time) string {
	return fmt.Sprintf("%s:%d:%s", keyPrefix, accountID, day.Format("2006-01-02"))
}

// Store is the atomic counter shared by all dispatch workers. IncrAndGet
// must increment and return the new value in one operation; a
// read-then-write implementation would let concurrent workers slip past
// the limit.
type Store interface {
	IncrAndGet(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
}
