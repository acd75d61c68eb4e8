package history

import (
	"time"

	"github.com/lumi-ai/lumi/internal/store"
)

// Bucket is a recency band for display grouping.
type Bucket string

const (
	BucketToday     Bucket = "Today"
	BucketYesterday Bucket = "Yesterday"
	BucketThisWeek  Bucket = "This Week"
	BucketThisMonth Bucket = "This Month"
	BucketOlder     Bucket = "Older"
)

// Group is one non-empty recency band with its records in load order.
type Group struct {
	Bucket  Bucket
	Records []store.Record
}

// Groups buckets the loaded records by recency relative to now. Bucket
// membership is mutually exclusive and decided in priority order: Today,
// Yesterday, This Week (calendar week starting Monday), This Month, Older.
// Empty buckets are omitted.
func (b *Browser) Groups(now time.Time) []Group {
	recs := b.Records()

	byBucket := make(map[Bucket][]store.Record)
	for _, rec := range recs {
		bucket := bucketFor(rec.CreatedAt, now)
		byBucket[bucket] = append(byBucket[bucket], rec)
	}

	order := []Bucket{BucketToday, BucketYesterday, BucketThisWeek, BucketThisMonth, BucketOlder}
	groups := make([]Group, 0, len(byBucket))
	for _, bucket := range order {
		if recs := byBucket[bucket]; len(recs) > 0 {
			groups = append(groups, Group{Bucket: bucket, Records: recs})
		}
	}
	return groups
}

func bucketFor(createdAt, now time.Time) Bucket {
	createdAt = createdAt.In(now.Location())
	day := func(t time.Time) time.Time {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	}

	today := day(now)
	created := day(createdAt)

	switch {
	case created.Equal(today):
		return BucketToday
	case created.Equal(today.AddDate(0, 0, -1)):
		return BucketYesterday
	case !created.Before(weekStart(today)) && created.Before(today):
		return BucketThisWeek
	case created.Year() == today.Year() && created.Month() == today.Month():
		return BucketThisMonth
	default:
		return BucketOlder
	}
}

// weekStart returns the Monday of day's calendar week.
func weekStart(day time.Time) time.Time {
	wd := int(day.Weekday())
	if wd == 0 {
		wd = 7 // Sunday closes the week
	}
	return day.AddDate(0, 0, -(wd - 1))
}
