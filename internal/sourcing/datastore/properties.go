package datastore

import (
	"encoding/json"
	"strings"

	"github.com/build-flow-labs/vendorscore/schema"
)

// Properties holds a page's raw property values keyed by property name.
// Accessors decode lazily and return neutral values (0, false, "") for
// missing or malformed properties, so one bad cell never rejects a row.
type Properties map[string]json.RawMessage

type richText struct {
	PlainText string `json:"plain_text"`
	Text      *struct {
		Content string `json:"content"`
	} `json:"text"`
}

func (r richText) String() string {
	if r.PlainText != "" {
		return r.PlainText
	}
	if r.Text != nil {
		return r.Text.Content
	}
	return ""
}

type selectOption struct {
	Name string `json:"name"`
}

type property struct {
	Title       []richText     `json:"title"`
	RichText    []richText     `json:"rich_text"`
	Select      *selectOption  `json:"select"`
	MultiSelect []selectOption `json:"multi_select"`
	Number      *float64       `json:"number"`
	Email       *string        `json:"email"`
	Checkbox    *bool          `json:"checkbox"`
	Date        *struct {
		Start string `json:"start"`
	} `json:"date"`
	Relation []struct {
		ID string `json:"id"`
	} `json:"relation"`
	CreatedTime string `json:"created_time"`
}

func (p Properties) get(name string) (property, bool) {
	raw, ok := p[name]
	if !ok {
		return property{}, false
	}
	var prop property
	if err := json.Unmarshal(raw, &prop); err != nil {
		return property{}, false
	}
	return prop, true
}

// Has reports whether the property is present at all.
func (p Properties) Has(name string) bool {
	_, ok := p[name]
	return ok
}

func joinText(parts []richText) string {
	var b strings.Builder
	for _, t := range parts {
		b.WriteString(t.String())
	}
	return b.String()
}

// Title returns the concatenated title text.
func (p Properties) Title(name string) string {
	prop, _ := p.get(name)
	return joinText(prop.Title)
}

// Text returns the concatenated rich text.
func (p Properties) Text(name string) string {
	prop, _ := p.get(name)
	return joinText(prop.RichText)
}

// Select returns the selected option name.
func (p Properties) Select(name string) string {
	prop, _ := p.get(name)
	if prop.Select == nil {
		return ""
	}
	return prop.Select.Name
}

// MultiSelect returns every selected option name.
func (p Properties) MultiSelect(name string) []string {
	prop, _ := p.get(name)
	var out []string
	for _, o := range prop.MultiSelect {
		if o.Name != "" {
			out = append(out, o.Name)
		}
	}
	return out
}

// Number returns the number and whether it was set.
func (p Properties) Number(name string) (float64, bool) {
	prop, _ := p.get(name)
	if prop.Number == nil {
		return 0, false
	}
	return *prop.Number, true
}

// Float returns the number or 0.
func (p Properties) Float(name string) float64 {
	v, _ := p.Number(name)
	return v
}

// Int returns the number truncated to an int, or 0.
func (p Properties) Int(name string) int {
	return int(p.Float(name))
}

// Email returns the email address or "".
func (p Properties) Email(name string) string {
	prop, _ := p.get(name)
	if prop.Email == nil {
		return ""
	}
	return *prop.Email
}

// Checkbox returns the checkbox state, false when absent.
func (p Properties) Checkbox(name string) bool {
	prop, _ := p.get(name)
	return prop.Checkbox != nil && *prop.Checkbox
}

// Date returns the start date, or the zero Date when absent or unparseable.
func (p Properties) Date(name string) schema.Date {
	prop, _ := p.get(name)
	if prop.Date == nil {
		return schema.Date{}
	}
	d, err := schema.ParseDate(prop.Date.Start)
	if err != nil {
		return schema.Date{}
	}
	return d
}

// RelationID returns the first related page ID.
func (p Properties) RelationID(name string) string {
	prop, _ := p.get(name)
	if len(prop.Relation) == 0 {
		return ""
	}
	return prop.Relation[0].ID
}
