package movies

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	tests := map[string]struct {
		body    string
		want    Movie
		wantErr string
	}{
		"all fields": {
			body: `{"year":1999,"title":"The Matrix","id":"abc"}`,
			want: Movie{ID: "abc", Title: "The Matrix", Year: 1999},
		},
		"year as string": {
			body: `{"year":"2003","title":"Oldboy","id":"x1"}`,
			want: Movie{ID: "x1", Title: "Oldboy", Year: 2003},
		},
		"integral float year": {
			body: `{"year":1984.0,"title":"Brazil","id":"b"}`,
			want: Movie{ID: "b", Title: "Brazil", Year: 1984},
		},
		"numeric title and id": {
			body: `{"year":2009,"title":2012,"id":42}`,
			want: Movie{ID: "42", Title: "2012", Year: 2009},
		},
		"bool title": {
			body: `{"year":2009,"title":true,"id":false}`,
			want: Movie{ID: "False", Title: "True", Year: 2009},
		},
		"large integer year": {
			body: `{"year":10000000000,"title":"Far Future","id":"f"}`,
			want: Movie{ID: "f", Title: "Far Future", Year: 10000000000},
		},
		"exponent year": {
			body: `{"year":1e10,"title":"Far Future","id":"f"}`,
			want: Movie{ID: "f", Title: "Far Future", Year: 10000000000},
		},
		"trailing whitespace": {
			body: "{\"year\":1999,\"title\":\"The Matrix\",\"id\":\"abc\"}\n ",
			want: Movie{ID: "abc", Title: "The Matrix", Year: 1999},
		},
		"extra fields ignored": {
			body: `{"year":1977,"title":"Star Wars","id":"sw","director":"Lucas"}`,
			want: Movie{ID: "sw", Title: "Star Wars", Year: 1977},
		},
		"malformed json": {
			body:    `{"year":1999,`,
			wantErr: "decode body",
		},
		"trailing bracket": {
			body:    `{"year":1999,"title":"The Matrix","id":"abc"}]`,
			wantErr: "extra data",
		},
		"trailing brace": {
			body:    `{"year":1999,"title":"The Matrix","id":"abc"}}`,
			wantErr: "extra data",
		},
		"second object": {
			body:    `{"year":1999,"title":"The Matrix","id":"abc"} {}`,
			wantErr: "extra data",
		},
		"out of range year": {
			body:    `{"year":1e30,"title":"The Matrix","id":"abc"}`,
			wantErr: "not an integer",
		},
		"not an object": {
			body:    `[1,2,3]`,
			wantErr: "decode body",
		},
		"missing year": {
			body:    `{"title":"The Matrix","id":"abc"}`,
			wantErr: `missing field "year"`,
		},
		"missing title": {
			body:    `{"year":1999,"id":"abc"}`,
			wantErr: `missing field "title"`,
		},
		"missing id": {
			body:    `{"year":1999,"title":"The Matrix"}`,
			wantErr: `missing field "id"`,
		},
		"null id": {
			body:    `{"year":1999,"title":"The Matrix","id":null}`,
			wantErr: `missing field "id"`,
		},
		"fractional year": {
			body:    `{"year":1999.5,"title":"The Matrix","id":"abc"}`,
			wantErr: "not an integer",
		},
		"year not numeric": {
			body:    `{"year":"soon","title":"The Matrix","id":"abc"}`,
			wantErr: "not an integer",
		},
		"object title": {
			body:    `{"year":1999,"title":{"en":"The Matrix"},"id":"abc"}`,
			wantErr: "unsupported type",
		},
		"json null": {
			body:    `null`,
			wantErr: `missing field "year"`,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := Decode([]byte(tc.body))
			if tc.wantErr != "" {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidPayload)
				assert.Contains(t, err.Error(), tc.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestDecodeFields(t *testing.T) {
	fields, err := DecodeFields([]byte(`{"year":1999,"title":"The Matrix"}`))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"year": json.Number("1999"), "title": "The Matrix"}, fields)

	_, err = FromFields(fields)
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestDefault(t *testing.T) {
	a, b := Default(), Default()

	assert.Equal(t, DefaultTitle, a.Title)
	assert.Equal(t, DefaultYear, a.Year)
	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
}
