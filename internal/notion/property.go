package notion

import (
	"encoding/json"
	"strconv"
	"strings"
)

type PropertyType string

const (
	PropertyTitle          PropertyType = "title"
	PropertyRichText       PropertyType = "rich_text"
	PropertyNumber         PropertyType = "number"
	PropertySelect         PropertyType = "select"
	PropertyMultiSelect    PropertyType = "multi_select"
	PropertyStatus         PropertyType = "status"
	PropertyDate           PropertyType = "date"
	PropertyCheckbox       PropertyType = "checkbox"
	PropertyURL            PropertyType = "url"
	PropertyEmail          PropertyType = "email"
	PropertyPhoneNumber    PropertyType = "phone_number"
	PropertyFormula        PropertyType = "formula"
	PropertyRelation       PropertyType = "relation"
	PropertyRollup         PropertyType = "rollup"
	PropertyPeople         PropertyType = "people"
	PropertyCreatedTime    PropertyType = "created_time"
	PropertyCreatedBy      PropertyType = "created_by"
	PropertyLastEditedTime PropertyType = "last_edited_time"
	PropertyLastEditedBy   PropertyType = "last_edited_by"
)

type SelectOption struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

type DateValue struct {
	Start    string  `json:"start"`
	End      *string `json:"end,omitempty"`
	TimeZone *string `json:"time_zone,omitempty"`
}

type UserRef struct {
	Object string `json:"object,omitempty"`
	ID     string `json:"id"`
	Name   string `json:"name,omitempty"`
}

type RelationRef struct {
	ID string `json:"id"`
}

// FormulaValue is the typed result of a formula property. Type selects which
// of the result fields is populated.
type FormulaValue struct {
	Type    string     `json:"type"`
	String  *string    `json:"string,omitempty"`
	Number  *float64   `json:"number,omitempty"`
	Boolean *bool      `json:"boolean,omitempty"`
	Date    *DateValue `json:"date,omitempty"`
}

// RollupValue keeps the rollup aggregate loosely typed; only the number and
// array shapes are common enough to matter downstream.
type RollupValue struct {
	Type   string          `json:"type"`
	Number *float64        `json:"number,omitempty"`
	Array  json.RawMessage `json:"array,omitempty"`
}

// PropertyValue is one row cell: a tagged union over the property kinds, with
// exactly one data field populated for a known Type. A type discriminator we
// do not recognize never fails the decode; the original tag is kept in Type
// and the full payload in Raw.
type PropertyValue struct {
	ID   string
	Type PropertyType

	Title          []RichTextRun
	RichText       []RichTextRun
	Number         *float64
	Select         *SelectOption
	MultiSelect    []SelectOption
	Status         *SelectOption
	Date           *DateValue
	Checkbox       *bool
	URL            *string
	Email          *string
	PhoneNumber    *string
	Formula        *FormulaValue
	Relation       []RelationRef
	Rollup         *RollupValue
	People         []UserRef
	CreatedTime    *string
	CreatedBy      *UserRef
	LastEditedTime *string
	LastEditedBy   *UserRef

	// Raw holds the original payload for unrecognized kinds.
	Raw json.RawMessage
}

func (v *PropertyValue) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return &DecodeError{Err: err, RawPreview: truncatePreview(data)}
	}
	if raw, ok := fields["id"]; ok {
		_ = json.Unmarshal(raw, &v.ID)
	}
	if raw, ok := fields["type"]; ok {
		if err := json.Unmarshal(raw, &v.Type); err != nil {
			return &DecodeError{Err: err, RawPreview: truncatePreview(data)}
		}
	}
	payload, ok := fields[string(v.Type)]
	if !ok || string(payload) == "null" {
		if !knownPropertyType(v.Type) {
			v.Raw = append(json.RawMessage(nil), data...)
		}
		return nil
	}

	var err error
	switch v.Type {
	case PropertyTitle:
		err = json.Unmarshal(payload, &v.Title)
	case PropertyRichText:
		err = json.Unmarshal(payload, &v.RichText)
	case PropertyNumber:
		err = json.Unmarshal(payload, &v.Number)
	case PropertySelect:
		err = json.Unmarshal(payload, &v.Select)
	case PropertyMultiSelect:
		err = json.Unmarshal(payload, &v.MultiSelect)
	case PropertyStatus:
		err = json.Unmarshal(payload, &v.Status)
	case PropertyDate:
		err = json.Unmarshal(payload, &v.Date)
	case PropertyCheckbox:
		err = json.Unmarshal(payload, &v.Checkbox)
	case PropertyURL:
		err = json.Unmarshal(payload, &v.URL)
	case PropertyEmail:
		err = json.Unmarshal(payload, &v.Email)
	case PropertyPhoneNumber:
		err = json.Unmarshal(payload, &v.PhoneNumber)
	case PropertyFormula:
		err = json.Unmarshal(payload, &v.Formula)
	case PropertyRelation:
		err = json.Unmarshal(payload, &v.Relation)
	case PropertyRollup:
		err = json.Unmarshal(payload, &v.Rollup)
	case PropertyPeople:
		err = json.Unmarshal(payload, &v.People)
	case PropertyCreatedTime:
		err = json.Unmarshal(payload, &v.CreatedTime)
	case PropertyCreatedBy:
		err = json.Unmarshal(payload, &v.CreatedBy)
	case PropertyLastEditedTime:
		err = json.Unmarshal(payload, &v.LastEditedTime)
	case PropertyLastEditedBy:
		err = json.Unmarshal(payload, &v.LastEditedBy)
	default:
		v.Raw = append(json.RawMessage(nil), data...)
		return nil
	}
	if err != nil {
		return &DecodeError{Err: err, RawPreview: truncatePreview(data)}
	}
	return nil
}

func knownPropertyType(t PropertyType) bool {
	switch t {
	case PropertyTitle, PropertyRichText, PropertyNumber, PropertySelect,
		PropertyMultiSelect, PropertyStatus, PropertyDate, PropertyCheckbox,
		PropertyURL, PropertyEmail, PropertyPhoneNumber, PropertyFormula,
		PropertyRelation, PropertyRollup, PropertyPeople, PropertyCreatedTime,
		PropertyCreatedBy, PropertyLastEditedTime, PropertyLastEditedBy:
		return true
	}
	return false
}

// DisplayValue projects the value onto plain text. The per-kind rules are
// fixed: title and rich_text concatenate their runs, number renders without
// trailing zeros, select and status use the option name, multi_select joins
// option names with ", ", date renders start and optionally " - " plus end,
// checkbox renders Yes or No, url/email/phone render the raw string, formula
// recurses into its typed result, and every other kind renders empty.
func (v PropertyValue) DisplayValue() string {
	switch v.Type {
	case PropertyTitle:
		return PlainText(v.Title)
	case PropertyRichText:
		return PlainText(v.RichText)
	case PropertyNumber:
		return formatNumber(v.Number)
	case PropertySelect:
		return optionName(v.Select)
	case PropertyStatus:
		return optionName(v.Status)
	case PropertyMultiSelect:
		names := make([]string, 0, len(v.MultiSelect))
		for _, option := range v.MultiSelect {
			names = append(names, option.Name)
		}
		return strings.Join(names, ", ")
	case PropertyDate:
		return formatDate(v.Date)
	case PropertyCheckbox:
		if v.Checkbox != nil && *v.Checkbox {
			return "Yes"
		}
		return "No"
	case PropertyURL:
		return derefString(v.URL)
	case PropertyEmail:
		return derefString(v.Email)
	case PropertyPhoneNumber:
		return derefString(v.PhoneNumber)
	case PropertyFormula:
		return v.Formula.displayValue()
	default:
		return ""
	}
}

func (f *FormulaValue) displayValue() string {
	if f == nil {
		return ""
	}
	switch f.Type {
	case "string":
		return derefString(f.String)
	case "number":
		return formatNumber(f.Number)
	case "boolean":
		if f.Boolean != nil && *f.Boolean {
			return "Yes"
		}
		return "No"
	case "date":
		return formatDate(f.Date)
	default:
		return ""
	}
}

func formatNumber(n *float64) string {
	if n == nil {
		return ""
	}
	return strconv.FormatFloat(*n, 'f', -1, 64)
}

func formatDate(d *DateValue) string {
	if d == nil {
		return ""
	}
	if d.End != nil && *d.End != "" {
		return d.Start + " - " + *d.End
	}
	return d.Start
}

func optionName(option *SelectOption) string {
	if option == nil {
		return ""
	}
	return option.Name
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
