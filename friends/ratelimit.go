package friends

import (
	"strconv"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	// allowedRequests and requestWindow bound how often a single address
	// may call the friend-request endpoint.
	allowedRequests = 5
	requestWindow   = 5 * time.Minute
)

// A RateLimiter counts requests per identifier in one-minute buckets and
// rejects an identifier once the sum over the window exceeds the allowance.
// Buckets live in an expiring LRU sized for window length plus one minute,
// so stale identifiers age out on their own.
type RateLimiter struct {
	mu      sync.Mutex
	buckets *expirable.LRU[string, int]
	now     func() time.Time
}

func NewRateLimiter(window time.Duration) *RateLimiter {
	return &RateLimiter{
		buckets: expirable.NewLRU[string, int](8192, nil, window+time.Minute),
		now:     time.Now,
	}
}

// Allow records one request for name and reports whether it is within the
// allowance: at most allowed requests in the trailing window, this one
// included. All buckets in the window count towards the total.
func (l *RateLimiter) Allow(name string, allowed int, window time.Duration) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	minute := l.now().Truncate(time.Minute)
	key := bucketKey(name, minute)
	count, _ := l.buckets.Get(key)
	l.buckets.Add(key, count+1)

	total := 0
	for ts := minute.Add(-window); !ts.After(minute); ts = ts.Add(time.Minute) {
		if n, ok := l.buckets.Get(bucketKey(name, ts)); ok {
			total += n
		}
	}
	return total <= allowed
}

func bucketKey(name string, ts time.Time) string {
	return name + "|" + strconv.FormatInt(ts.Unix(), 10)
}
