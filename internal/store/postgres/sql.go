package postgres

import (
	"fmt"
	"strings"

	"github.com/lumi-ai/lumi/internal/store"
)

// buildSearchSQL renders a validated store.Query into SQL plus bind args.
// Kept as a pure function so query construction is testable without a
// database.
func buildSearchSQL(ownerID string, q store.Query) (string, []any) {
	var b strings.Builder
	args := []any{ownerID}

	b.WriteString(`SELECT id, owner_id, type, title, payload, score, question_count, created_at
FROM history_records
WHERE owner_id = $1`)

	if q.Type != "" {
		args = append(args, string(q.Type))
		fmt.Fprintf(&b, " AND type = $%d", len(args))
	}

	if q.TitlePrefix != "" {
		args = append(args, q.TitlePrefix)
		fmt.Fprintf(&b, " AND title >= $%d", len(args))
		args = append(args, q.TitlePrefix+store.TitleSentinel)
		fmt.Fprintf(&b, " AND title < $%d", len(args))
	}

	sortCol := "created_at"
	if q.Sort.Field == store.SortByTitle {
		sortCol = "title"
	}
	dir := "ASC"
	cmp := ">"
	if q.Sort.Desc {
		dir = "DESC"
		cmp = "<"
	}

	if q.After != nil {
		var key any = q.After.CreatedAt
		if q.Sort.Field == store.SortByTitle {
			key = q.After.Title
		}
		// Keyset resume: strictly after the cursor row in scan order,
		// with id as the tiebreak (always ascending).
		args = append(args, key)
		keyIdx := len(args)
		args = append(args, q.After.ID)
		fmt.Fprintf(&b, " AND (%s %s $%d OR (%s = $%d AND id > $%d))",
			sortCol, cmp, keyIdx, sortCol, keyIdx, len(args))
	}

	fmt.Fprintf(&b, " ORDER BY %s %s, id ASC", sortCol, dir)

	args = append(args, q.Limit)
	fmt.Fprintf(&b, " LIMIT $%d", len(args))

	return b.String(), args
}
