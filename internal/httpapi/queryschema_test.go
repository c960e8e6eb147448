package httpapi

import "testing"

func TestValidateQueryRequestAccepts(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"empty object", `{}`},
		{"leaf filter", `{"filter": {"property": "Status", "select": {"equals": "Done"}}}`},
		{"compound filter", `{"filter": {"and": [{"property": "A", "checkbox": {"equals": true}}, {"or": [{"property": "B", "number": {"greater_than": 3}}]}]}}`},
		{"timestamp sort", `{"sorts": [{"timestamp": "last_edited_time", "direction": "descending"}]}`},
		{"pagination", `{"start_cursor": "abc", "page_size": 100}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := ValidateQueryRequest([]byte(tc.body)); err != nil {
				t.Fatalf("expected valid, got %v", err)
			}
		})
	}
}

func TestValidateQueryRequestRejects(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"not json", `nope`},
		{"unknown field", `{"surprise": true}`},
		{"page size zero", `{"page_size": 0}`},
		{"page size over limit", `{"page_size": 101}`},
		{"page size string", `{"page_size": "lots"}`},
		{"sort without direction", `{"sorts": [{"property": "Name"}]}`},
		{"bad direction", `{"sorts": [{"property": "Name", "direction": "sideways"}]}`},
		{"bad timestamp", `{"sorts": [{"timestamp": "deleted_time", "direction": "ascending"}]}`},
		{"unknown filter key", `{"filter": {"property": "X", "rollup": {}}}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := ValidateQueryRequest([]byte(tc.body)); err == nil {
				t.Fatalf("expected rejection for %s", tc.body)
			}
		})
	}
}
