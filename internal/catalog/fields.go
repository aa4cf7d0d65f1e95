package catalog

// fields.go defines the per-entity column contracts. The column order is
// also the export order, so it must stay stable.

// FieldKind is the expected data type of a column.
type FieldKind int

const (
	FieldText FieldKind = iota
	FieldNumber
)

// FieldSpec describes one business column of an entity kind.
type FieldSpec struct {
	Name     string
	Kind     FieldKind
	Required bool // non-nullable: blank cells are rejected, NULL never stored
}

// KeyColumn is the business key column shared by both entity kinds.
const KeyColumn = "sku"

var productSpecs = []FieldSpec{
	{Name: "sku", Kind: FieldText, Required: true},
	{Name: "name", Kind: FieldText, Required: true},
	{Name: "category", Kind: FieldText},
	{Name: "units", Kind: FieldText},
	{Name: "price", Kind: FieldNumber, Required: true},
	{Name: "amount", Kind: FieldNumber},
	{Name: "description", Kind: FieldText},
	{Name: "url", Kind: FieldText},
}

var benchmarkSpecs = []FieldSpec{
	{Name: "sku", Kind: FieldText, Required: true},
	{Name: "name", Kind: FieldText, Required: true},
	{Name: "category", Kind: FieldText, Required: true},
	{Name: "units", Kind: FieldText, Required: true},
	{Name: "price", Kind: FieldNumber, Required: true},
	{Name: "amount", Kind: FieldNumber, Required: true},
	{Name: "description", Kind: FieldText, Required: true},
}

// Specs returns the column contract for an entity kind, in export order.
func Specs(kind EntityKind) []FieldSpec {
	if kind == BenchmarkRow {
		return benchmarkSpecs
	}
	return productSpecs
}

// Columns returns the entity's column names in export order.
func Columns(kind EntityKind) []string {
	specs := Specs(kind)
	cols := make([]string, len(specs))
	for i, s := range specs {
		cols[i] = s.Name
	}
	return cols
}

// specByName finds a column's spec. The second return is false for
// columns the entity does not define.
func specByName(kind EntityKind, name string) (FieldSpec, bool) {
	for _, s := range Specs(kind) {
		if s.Name == name {
			return s, true
		}
	}
	return FieldSpec{}, false
}
