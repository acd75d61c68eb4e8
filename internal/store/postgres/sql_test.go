package postgres

import (
	"strings"
	"testing"
	"time"

	"github.com/lumi-ai/lumi/internal/artifact"
	"github.com/lumi-ai/lumi/internal/store"
)

func TestBuildSearchSQLBase(t *testing.T) {
	sql, args := buildSearchSQL("user-1", store.Query{
		Sort:  store.Sort{Field: store.SortByCreatedAt, Desc: true},
		Limit: 15,
	})

	if !strings.Contains(sql, "ORDER BY created_at DESC, id ASC") {
		t.Errorf("missing ordering clause: %s", sql)
	}
	if strings.Contains(sql, "type =") || strings.Contains(sql, "title >=") {
		t.Errorf("unexpected filter clauses: %s", sql)
	}
	if len(args) != 2 || args[0] != "user-1" || args[1] != 15 {
		t.Errorf("args = %v", args)
	}
}

func TestBuildSearchSQLTypeFilter(t *testing.T) {
	sql, args := buildSearchSQL("user-1", store.Query{
		Type:  artifact.TypeQuiz,
		Sort:  store.Sort{Field: store.SortByCreatedAt},
		Limit: 10,
	})

	if !strings.Contains(sql, "AND type = $2") {
		t.Errorf("missing type filter: %s", sql)
	}
	if args[1] != "quiz" {
		t.Errorf("type arg = %v", args[1])
	}
}

func TestBuildSearchSQLPrefixRange(t *testing.T) {
	sql, args := buildSearchSQL("user-1", store.Query{
		TitlePrefix: "Pho",
		Sort:        store.Sort{Field: store.SortByTitle},
		Limit:       15,
	})

	if !strings.Contains(sql, "AND title >= $2 AND title < $3") {
		t.Errorf("missing prefix range: %s", sql)
	}
	if args[1] != "Pho" || args[2] != "Pho"+store.TitleSentinel {
		t.Errorf("range args = %v", args[1:3])
	}
	if !strings.Contains(sql, "ORDER BY title ASC") {
		t.Errorf("prefix query must order by title asc: %s", sql)
	}
}

func TestBuildSearchSQLKeyset(t *testing.T) {
	after := &store.Cursor{ID: "cursor-id", Title: "Biology", CreatedAt: time.Unix(100, 0)}

	t.Run("created_at desc", func(t *testing.T) {
		sql, args := buildSearchSQL("user-1", store.Query{
			Sort:  store.Sort{Field: store.SortByCreatedAt, Desc: true},
			Limit: 15,
			After: after,
		})
		if !strings.Contains(sql, "AND (created_at < $2 OR (created_at = $2 AND id > $3))") {
			t.Errorf("keyset clause wrong: %s", sql)
		}
		if !args[1].(time.Time).Equal(after.CreatedAt) || args[2] != "cursor-id" {
			t.Errorf("keyset args = %v", args)
		}
	})

	t.Run("title asc", func(t *testing.T) {
		sql, args := buildSearchSQL("user-1", store.Query{
			Sort:  store.Sort{Field: store.SortByTitle},
			Limit: 15,
			After: after,
		})
		if !strings.Contains(sql, "AND (title > $2 OR (title = $2 AND id > $3))") {
			t.Errorf("keyset clause wrong: %s", sql)
		}
		if args[1] != "Biology" {
			t.Errorf("keyset key arg = %v", args[1])
		}
	})
}
