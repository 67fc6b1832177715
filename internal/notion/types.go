package notion

// Page is one database row as returned by the query endpoint. Only the
// property shapes the reminder reads are decoded.
type Page struct {
	ID         string              `json:"id"`
	Icon       *Icon               `json:"icon,omitempty"`
	Properties map[string]Property `json:"properties"`
}

type Icon struct {
	Type  string `json:"type"`
	Emoji string `json:"emoji,omitempty"`
}

// Property is a typed property value. Pointer fields keep JSON null apart
// from zero values.
type Property struct {
	Type     string     `json:"type"`
	Checkbox *bool      `json:"checkbox,omitempty"`
	Number   *float64   `json:"number,omitempty"`
	Formula  *Formula   `json:"formula,omitempty"`
	RichText []RichText `json:"rich_text,omitempty"`
	Title    []RichText `json:"title,omitempty"`
}

type Formula struct {
	Type    string   `json:"type"`
	Number  *float64 `json:"number,omitempty"`
	String  *string  `json:"string,omitempty"`
	Boolean *bool    `json:"boolean,omitempty"`
}

type RichText struct {
	PlainText string `json:"plain_text"`
}

// Number returns the numeric value of a formula or number property.
func (p Page) Number(name string) (float64, bool) {
	prop, ok := p.Properties[name]
	if !ok {
		return 0, false
	}
	if prop.Formula != nil && prop.Formula.Number != nil {
		return *prop.Formula.Number, true
	}
	if prop.Number != nil {
		return *prop.Number, true
	}
	return 0, false
}

// Text returns the plain text of the first rich text fragment.
func (p Page) Text(name string) (string, bool) {
	prop, ok := p.Properties[name]
	if !ok || len(prop.RichText) == 0 {
		return "", false
	}
	return prop.RichText[0].PlainText, true
}

// Title returns the plain text of the first title fragment. A blank
// fragment is returned as is; only a missing or empty title is absent.
func (p Page) Title(name string) (string, bool) {
	prop, ok := p.Properties[name]
	if !ok || len(prop.Title) == 0 {
		return "", false
	}
	return prop.Title[0].PlainText, true
}

// Emoji returns the page icon emoji, if the icon is an emoji.
func (p Page) Emoji() (string, bool) {
	if p.Icon == nil || p.Icon.Emoji == "" {
		return "", false
	}
	return p.Icon.Emoji, true
}

// Filter is a single property filter. Only checkbox conditions are needed.
type Filter struct {
	Property string             `json:"property"`
	Checkbox *CheckboxCondition `json:"checkbox,omitempty"`
}

type CheckboxCondition struct {
	Equals bool `json:"equals"`
}

// CheckboxEquals builds a filter matching rows whose checkbox equals v.
func CheckboxEquals(property string, v bool) Filter {
	return Filter{Property: property, Checkbox: &CheckboxCondition{Equals: v}}
}

type SortDirection string

const (
	Ascending SortDirection = "ascending"
)

type Sort struct {
	Property  string        `json:"property"`
	Direction SortDirection `json:"direction"`
}

type queryRequest struct {
	Filter *Filter `json:"filter,omitempty"`
	Sorts  []Sort  `json:"sorts,omitempty"`
}

type queryResponse struct {
	Results []Page `json:"results"`
	HasMore bool   `json:"has_more"`
}
