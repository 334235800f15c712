package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeQuery(t *testing.T) {
	tests := map[string]struct {
		raw  string
		want Query
	}{
		"empty":             {"", ""},
		"only spaces":       {"   \t\n", ""},
		"trims":             {"  abc  ", "abc"},
		"collapses spaces":  {"foo   bar\tbaz", "foo bar baz"},
		"folds case":        {"HeLLo World", "hello world"},
		"folds sharp s":     {"Straße", "strasse"},
		"keeps punctuation": {"C++ & Go", "c++ & go"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeQuery(tt.raw))
		})
	}
}

func TestQueryLenCountsRunes(t *testing.T) {
	assert.Equal(t, 3, Query("日本語").Len())
	assert.Equal(t, 0, Query("").Len())
}

func TestQueryIsSearchable(t *testing.T) {
	assert.False(t, Query("").IsSearchable(0))
	assert.False(t, Query("ab").IsSearchable(3))
	assert.True(t, Query("abc").IsSearchable(3))
	assert.True(t, Query("日本語").IsSearchable(3))
}

func TestResultPageClone(t *testing.T) {
	p := ResultPage{Results: []SearchResult{{ID: "1", Title: "a"}}, Total: 1, Page: 1}
	c := p.Clone()
	c.Results[0].Title = "b"

	assert.Equal(t, "a", p.Results[0].Title)
	assert.False(t, p.IsEmpty())
	assert.True(t, ResultPage{}.IsEmpty())
}
