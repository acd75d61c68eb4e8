package mongo

import (
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/lumi-ai/lumi/internal/store"
)

// buildFilter translates a validated store.Query into a bson filter and sort
// document. The cursor clause mirrors the keyset predicate used by the SQL
// driver: strictly past the anchor on the sort key, with _id ascending as
// the tiebreak on equal keys.
func buildFilter(ownerID string, q store.Query) (filter, sort bson.D) {
	clauses := bson.D{{Key: "owner_id", Value: ownerID}}

	if q.Type != "" {
		clauses = append(clauses, bson.E{Key: "type", Value: string(q.Type)})
	}
	if q.TitlePrefix != "" {
		clauses = append(clauses, bson.E{Key: "title", Value: bson.D{
			{Key: "$gte", Value: q.TitlePrefix},
			{Key: "$lt", Value: q.TitlePrefix + store.TitleSentinel},
		}})
	}

	field := string(q.Sort.Field)
	dir := 1
	if q.Sort.Desc {
		dir = -1
	}
	sort = bson.D{{Key: field, Value: dir}, {Key: "_id", Value: 1}}

	if q.After == nil {
		return clauses, sort
	}

	var anchor any
	switch q.Sort.Field {
	case store.SortByTitle:
		anchor = q.After.Title
	default:
		anchor = q.After.CreatedAt
	}
	op := "$gt"
	if q.Sort.Desc {
		op = "$lt"
	}
	keyset := bson.D{{Key: "$or", Value: bson.A{
		bson.D{{Key: field, Value: bson.D{{Key: op, Value: anchor}}}},
		bson.D{
			{Key: field, Value: anchor},
			{Key: "_id", Value: bson.D{{Key: "$gt", Value: q.After.ID}}},
		},
	}}}

	// $and keeps the keyset $or from clobbering the prefix range on title.
	filter = bson.D{{Key: "$and", Value: bson.A{clauses, keyset}}}
	return filter, sort
}
