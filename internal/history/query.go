package history

import (
	"github.com/lumi-ai/lumi/internal/artifact"
	"github.com/lumi-ai/lumi/internal/store"
)

// BuildQuery is the pure mapping from browser parameters to a store query.
//
// Two rules live here:
//   - the limit asks for pageSize+1 records, so the presence of the extra
//     record decides hasMore;
//   - a non-empty search term forces title-ascending ordering and a prefix
//     range on title, regardless of the requested sort. Prefix scans are
//     only contiguous under that ordering, and keeping the rule in the
//     query builder makes the behavior identical across store drivers.
func BuildQuery(search string, t artifact.Type, sort store.Sort, pageSize int, after *store.Cursor) store.Query {
	q := store.Query{
		Type:  t,
		Sort:  sort,
		Limit: pageSize + 1,
		After: after,
	}
	if search != "" {
		q.TitlePrefix = search
		q.Sort = store.Sort{Field: store.SortByTitle, Desc: false}
	}
	return q
}
