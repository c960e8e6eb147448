package notion

import "encoding/json"

type SelectConfig struct {
	Options []SelectOption `json:"options"`
}

type StatusGroup struct {
	ID        string   `json:"id,omitempty"`
	Name      string   `json:"name"`
	Color     string   `json:"color,omitempty"`
	OptionIDs []string `json:"option_ids,omitempty"`
}

type StatusConfig struct {
	Options []SelectOption `json:"options"`
	Groups  []StatusGroup  `json:"groups,omitempty"`
}

type NumberConfig struct {
	Format string `json:"format,omitempty"`
}

type FormulaConfig struct {
	Expression string `json:"expression"`
}

type RelationConfig struct {
	DatabaseID string `json:"database_id"`
}

type RollupConfig struct {
	RelationPropertyName string `json:"relation_property_name,omitempty"`
	RollupPropertyName   string `json:"rollup_property_name,omitempty"`
	Function             string `json:"function,omitempty"`
}

// PropertyDefinition is a database column declaration. It mirrors the tag set
// of PropertyValue but carries kind configuration instead of cell data. Most
// kinds declare an empty configuration object; only the ones below carry
// anything worth keeping. Unrecognized kinds keep their tag and raw payload.
type PropertyDefinition struct {
	ID   string
	Name string
	Type PropertyType

	Select      *SelectConfig
	MultiSelect *SelectConfig
	Status      *StatusConfig
	Number      *NumberConfig
	Formula     *FormulaConfig
	Relation    *RelationConfig
	Rollup      *RollupConfig

	Raw json.RawMessage
}

func (d *PropertyDefinition) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return &DecodeError{Err: err, RawPreview: truncatePreview(data)}
	}
	if raw, ok := fields["id"]; ok {
		_ = json.Unmarshal(raw, &d.ID)
	}
	if raw, ok := fields["name"]; ok {
		_ = json.Unmarshal(raw, &d.Name)
	}
	if raw, ok := fields["type"]; ok {
		if err := json.Unmarshal(raw, &d.Type); err != nil {
			return &DecodeError{Err: err, RawPreview: truncatePreview(data)}
		}
	}
	if !knownPropertyType(d.Type) {
		d.Raw = append(json.RawMessage(nil), data...)
		return nil
	}
	payload, ok := fields[string(d.Type)]
	if !ok || string(payload) == "null" {
		return nil
	}

	var err error
	switch d.Type {
	case PropertySelect:
		err = json.Unmarshal(payload, &d.Select)
	case PropertyMultiSelect:
		err = json.Unmarshal(payload, &d.MultiSelect)
	case PropertyStatus:
		err = json.Unmarshal(payload, &d.Status)
	case PropertyNumber:
		err = json.Unmarshal(payload, &d.Number)
	case PropertyFormula:
		err = json.Unmarshal(payload, &d.Formula)
	case PropertyRelation:
		err = json.Unmarshal(payload, &d.Relation)
	case PropertyRollup:
		err = json.Unmarshal(payload, &d.Rollup)
	}
	if err != nil {
		return &DecodeError{Err: err, RawPreview: truncatePreview(data)}
	}
	return nil
}
