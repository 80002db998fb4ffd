package domain

import (
	"slices"
	"strconv"
	"strings"
	"time"
)

// CustomFieldType names the schema type of a project custom field.
type CustomFieldType string

// CustomFieldType values.
const (
	FieldText        CustomFieldType = "text"
	FieldNumber      CustomFieldType = "number"
	FieldSelect      CustomFieldType = "select"
	FieldMultiSelect CustomFieldType = "multiselect"
	FieldBoolean     CustomFieldType = "boolean"
	FieldDate        CustomFieldType = "date"
	FieldURL         CustomFieldType = "url"
)

var validFieldTypes = []CustomFieldType{FieldText, FieldNumber, FieldSelect, FieldMultiSelect, FieldBoolean, FieldDate, FieldURL}

// ValueKind is the closed set of scalar kinds a stored custom field value can hold.
type ValueKind string

// ValueKind values.
const (
	KindText   ValueKind = "text"
	KindNumber ValueKind = "number"
	KindBool   ValueKind = "bool"
	KindDate   ValueKind = "date"
)

// CustomField describes one project-scoped field stored in Task.CustomFields under Name.
type CustomField struct {
	ID        string
	ProjectID string
	Name      string
	Label     string
	Type      CustomFieldType
	Options   []string
	Required  bool
}

// CustomFieldValue is a tagged scalar; only the member selected by Kind is meaningful.
type CustomFieldValue struct {
	Kind   ValueKind
	Text   string
	Number float64
	Bool   bool
	Date   time.Time
}

// NewCustomField validates a schema descriptor.
func NewCustomField(id, projectID, name, label string, fieldType CustomFieldType, options []string, required bool) (CustomField, error) {
	id = strings.TrimSpace(id)
	name = strings.TrimSpace(name)
	label = strings.TrimSpace(label)
	if id == "" {
		return CustomField{}, ErrInvalidID
	}
	if name == "" {
		return CustomField{}, ErrInvalidFieldName
	}
	fieldType = CustomFieldType(strings.ToLower(strings.TrimSpace(string(fieldType))))
	if !slices.Contains(validFieldTypes, fieldType) {
		return CustomField{}, ErrInvalidFieldType
	}
	if label == "" {
		label = name
	}
	return CustomField{
		ID:        id,
		ProjectID: strings.TrimSpace(projectID),
		Name:      name,
		Label:     label,
		Type:      fieldType,
		Options:   normalizeStringList(options),
		Required:  required,
	}, nil
}

// AppliesTo reports whether the field is in scope for a project. Fields without a project are global.
func (f CustomField) AppliesTo(projectID string) bool {
	return f.ProjectID == "" || f.ProjectID == projectID
}

// ValueKind maps the schema type onto the stored scalar kind.
func (t CustomFieldType) ValueKind() ValueKind {
	switch t {
	case FieldNumber:
		return KindNumber
	case FieldBoolean:
		return KindBool
	case FieldDate:
		return KindDate
	default:
		return KindText
	}
}

// TextValue wraps a string.
func TextValue(s string) CustomFieldValue {
	return CustomFieldValue{Kind: KindText, Text: s}
}

// NumberValue wraps a number.
func NumberValue(n float64) CustomFieldValue {
	return CustomFieldValue{Kind: KindNumber, Number: n}
}

// BoolValue wraps a boolean.
func BoolValue(b bool) CustomFieldValue {
	return CustomFieldValue{Kind: KindBool, Bool: b}
}

// DateValue wraps a date, truncated to the day in UTC.
func DateValue(t time.Time) CustomFieldValue {
	return CustomFieldValue{Kind: KindDate, Date: TruncateDay(t)}
}

// String renders the value for display.
func (v CustomFieldValue) String() string {
	switch v.Kind {
	case KindNumber:
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	case KindBool:
		if v.Bool {
			return "yes"
		}
		return "no"
	case KindDate:
		if v.Date.IsZero() {
			return ""
		}
		return v.Date.Format(time.DateOnly)
	default:
		return v.Text
	}
}

// ParseCustomFieldValue converts raw text into the value kind the schema type expects.
// Unparseable input degrades to a text value.
func ParseCustomFieldValue(fieldType CustomFieldType, raw string) CustomFieldValue {
	raw = strings.TrimSpace(raw)
	switch fieldType.ValueKind() {
	case KindNumber:
		if n, err := strconv.ParseFloat(raw, 64); err == nil {
			return NumberValue(n)
		}
	case KindBool:
		if b, err := strconv.ParseBool(raw); err == nil {
			return BoolValue(b)
		}
	case KindDate:
		if d, err := time.Parse(time.DateOnly, raw); err == nil {
			return DateValue(d)
		}
	}
	return TextValue(raw)
}

func cloneCustomFields(in map[string]CustomFieldValue) map[string]CustomFieldValue {
	if in == nil {
		return nil
	}
	out := make(map[string]CustomFieldValue, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}
