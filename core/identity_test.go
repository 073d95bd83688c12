package core

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssignID_Deterministic(t *testing.T) {
	record := NormalizedRecord{
		ID:          "101",
		Title:       "김치찌개",
		Ingredients: "김치, 돼지고기",
		Steps:       "끓인다",
		URL:         "https://example.com/recipe/101",
	}

	id1 := AssignID(record)
	id2 := AssignID(record)
	assert.Equal(t, id1, id2)

	parsed, err := uuid.Parse(id1)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(5), parsed.Version())
}

func TestAssignID_DiffersByURL(t *testing.T) {
	a := NormalizedRecord{Title: "김치찌개", URL: "https://example.com/recipe/1"}
	b := NormalizedRecord{Title: "김치찌개", URL: "https://example.com/recipe/2"}
	assert.NotEqual(t, AssignID(a), AssignID(b))
}

func TestIdentityKey_Priority(t *testing.T) {
	tests := []struct {
		name        string
		title       string
		ingredients string
		url         string
		id          string
		wantKey     string
	}{
		{
			name:    "url wins",
			title:   "김치찌개",
			url:     "https://example.com/r/1",
			id:      "1",
			wantKey: "https://example.com/r/1",
		},
		{
			name:        "title and ingredients without url",
			title:       "김치찌개",
			ingredients: "김치",
			id:          "1",
			wantKey:     "김치찌개|김치",
		},
		{
			name:    "title only still uses concatenation",
			title:   "김치찌개",
			id:      "1",
			wantKey: "김치찌개|",
		},
		{
			name:    "original id when nothing else",
			id:      "42",
			wantKey: "42",
		},
		{
			name:    "whitespace url is ignored",
			url:     "   ",
			id:      "42",
			wantKey: "42",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, stable := IdentityKey(tt.title, tt.ingredients, tt.url, tt.id)
			assert.True(t, stable)
			assert.Equal(t, tt.wantKey, key)
		})
	}
}

func TestIdentityKey_RandomFallback(t *testing.T) {
	key1, stable := IdentityKey("", "", "", "")
	assert.False(t, stable)
	assert.True(t, strings.HasPrefix(key1, "fallback|"))

	key2, _ := IdentityKey("", "", "", "")
	assert.NotEqual(t, key1, key2)
}

func TestPartDocIDs(t *testing.T) {
	record := NormalizedRecord{Title: "김치찌개", URL: "https://example.com/r/1"}

	ids := PartDocIDs(record, 3)
	require.Len(t, ids, 3)
	assert.Equal(t, AssignID(record), ids[0])
	assert.NotEqual(t, ids[0], ids[1])
	assert.NotEqual(t, ids[1], ids[2])
	assert.Equal(t, ids, PartDocIDs(record, 3))
}

func TestHasStableIdentity(t *testing.T) {
	tests := []struct {
		name   string
		record NormalizedRecord
		want   bool
	}{
		{name: "url", record: NormalizedRecord{URL: "https://example.com/1"}, want: true},
		{name: "title only", record: NormalizedRecord{Title: "김치찌개"}, want: true},
		{name: "scraped id", record: NormalizedRecord{ID: "7"}, want: true},
		{name: "steps only", record: NormalizedRecord{Steps: "물을 끓인다.", CombinedText: "요리 제목: \n요리 재료: \n조리 순서: 물을 끓인다."}, want: false},
		{name: "whitespace", record: NormalizedRecord{URL: "  ", ID: " "}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HasStableIdentity(tt.record))
		})
	}
}
