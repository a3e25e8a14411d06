package ingest

// Kind is the storage type of a schema column.
type Kind int

const (
	KindInt Kind = iota
	KindFloat
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindText:
		return "text"
	}
	return "unknown"
}

// sqlType is the snapshot column type.
func (k Kind) sqlType() string {
	switch k {
	case KindInt:
		return "INTEGER"
	case KindFloat:
		return "REAL"
	}
	return "TEXT"
}

// Column is one required record column.
type Column struct {
	Name string
	Kind Kind
}

// Column names after normalisation.
const (
	ColPadID        = "pad_id"
	ColComponentID  = "component_id"
	ColSizeMin      = "size_min"
	ColSizeMax      = "size_max"
	ColVolume       = "volume"
	ColRealVol      = "real_vol"
	ColArea         = "area"
	ColRealArea     = "real_area"
	ColPosX         = "pos_x"
	ColPosY         = "pos_y"
	ColIdno         = "idno"
	ColProductGroup = "product_group"
	ColLineID       = "lineid"
	ColPanelID      = "panel_id"
)

// Schema is the ordered set of columns every source must provide.
var Schema = []Column{
	{ColPadID, KindInt},
	{ColComponentID, KindText},
	{ColSizeMin, KindFloat},
	{ColSizeMax, KindFloat},
	{ColVolume, KindFloat},
	{ColRealVol, KindInt},
	{ColArea, KindFloat},
	{ColRealArea, KindInt},
	{ColPosX, KindFloat},
	{ColPosY, KindFloat},
	{ColIdno, KindInt},
	{ColProductGroup, KindText},
	{ColLineID, KindText},
	{ColPanelID, KindText},
}

// columnAliases maps a normalised name to the schema column it may stand in
// for when that column is absent. Exports that write LineID normalise to
// line_id.
var columnAliases = map[string]string{
	"line_id": ColLineID,
}

// SchemaNames returns the schema column names in order.
func SchemaNames() []string {
	names := make([]string, len(Schema))
	for i, c := range Schema {
		names[i] = c.Name
	}
	return names
}

func schemaKind(name string) (Kind, bool) {
	for _, c := range Schema {
		if c.Name == name {
			return c.Kind, true
		}
	}
	return 0, false
}

// sameColumnSet reports whether names is exactly the schema column set,
// ignoring order.
func sameColumnSet(names []string) bool {
	if len(names) != len(Schema) {
		return false
	}
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if _, ok := schemaKind(n); !ok || seen[n] {
			return false
		}
		seen[n] = true
	}
	return true
}
