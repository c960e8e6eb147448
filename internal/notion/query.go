package notion

// DatabaseQuery is the wire shape for querying a database: an optional
// recursive filter, sort directives, and pagination controls.
type DatabaseQuery struct {
	Filter      *Filter `json:"filter,omitempty"`
	Sorts       []Sort  `json:"sorts,omitempty"`
	StartCursor string  `json:"start_cursor,omitempty"`
	PageSize    int     `json:"page_size,omitempty"`
}

type Sort struct {
	Property  string `json:"property,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Direction string `json:"direction"`
}

// Filter is either a compound (And/Or over sub-filters) or a leaf naming a
// property and exactly one kind-specific condition.
type Filter struct {
	And []Filter `json:"and,omitempty"`
	Or  []Filter `json:"or,omitempty"`

	Property    string                `json:"property,omitempty"`
	Title       *TextCondition        `json:"title,omitempty"`
	RichText    *TextCondition        `json:"rich_text,omitempty"`
	Number      *NumberCondition      `json:"number,omitempty"`
	Checkbox    *CheckboxCondition    `json:"checkbox,omitempty"`
	Select      *SelectCondition      `json:"select,omitempty"`
	Status      *SelectCondition      `json:"status,omitempty"`
	MultiSelect *MultiSelectCondition `json:"multi_select,omitempty"`
	Date        *DateCondition        `json:"date,omitempty"`
}

type TextCondition struct {
	Equals         *string `json:"equals,omitempty"`
	DoesNotEqual   *string `json:"does_not_equal,omitempty"`
	Contains       *string `json:"contains,omitempty"`
	DoesNotContain *string `json:"does_not_contain,omitempty"`
	StartsWith     *string `json:"starts_with,omitempty"`
	EndsWith       *string `json:"ends_with,omitempty"`
	IsEmpty        *bool   `json:"is_empty,omitempty"`
	IsNotEmpty     *bool   `json:"is_not_empty,omitempty"`
}

type NumberCondition struct {
	Equals               *float64 `json:"equals,omitempty"`
	DoesNotEqual         *float64 `json:"does_not_equal,omitempty"`
	GreaterThan          *float64 `json:"greater_than,omitempty"`
	LessThan             *float64 `json:"less_than,omitempty"`
	GreaterThanOrEqualTo *float64 `json:"greater_than_or_equal_to,omitempty"`
	LessThanOrEqualTo    *float64 `json:"less_than_or_equal_to,omitempty"`
	IsEmpty              *bool    `json:"is_empty,omitempty"`
	IsNotEmpty           *bool    `json:"is_not_empty,omitempty"`
}

type CheckboxCondition struct {
	Equals *bool `json:"equals,omitempty"`
}

type SelectCondition struct {
	Equals       *string `json:"equals,omitempty"`
	DoesNotEqual *string `json:"does_not_equal,omitempty"`
	IsEmpty      *bool   `json:"is_empty,omitempty"`
	IsNotEmpty   *bool   `json:"is_not_empty,omitempty"`
}

type MultiSelectCondition struct {
	Contains       *string `json:"contains,omitempty"`
	DoesNotContain *string `json:"does_not_contain,omitempty"`
	IsEmpty        *bool   `json:"is_empty,omitempty"`
	IsNotEmpty     *bool   `json:"is_not_empty,omitempty"`
}

// EmptyObject marks relative date windows that take no operand on the wire
// ({"past_week": {}} and friends).
type EmptyObject struct{}

type DateCondition struct {
	Equals     *string      `json:"equals,omitempty"`
	Before     *string      `json:"before,omitempty"`
	After      *string      `json:"after,omitempty"`
	OnOrBefore *string      `json:"on_or_before,omitempty"`
	OnOrAfter  *string      `json:"on_or_after,omitempty"`
	PastWeek   *EmptyObject `json:"past_week,omitempty"`
	PastMonth  *EmptyObject `json:"past_month,omitempty"`
	PastYear   *EmptyObject `json:"past_year,omitempty"`
	NextWeek   *EmptyObject `json:"next_week,omitempty"`
	NextMonth  *EmptyObject `json:"next_month,omitempty"`
	NextYear   *EmptyObject `json:"next_year,omitempty"`
	IsEmpty    *bool        `json:"is_empty,omitempty"`
	IsNotEmpty *bool        `json:"is_not_empty,omitempty"`
}
