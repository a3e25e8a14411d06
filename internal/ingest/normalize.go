package ingest

import "strings"

// abbreviations pass through lowercased without any splitting.
var abbreviations = map[string]bool{
	"IDNO":  true,
	"DID":   true,
	"SKU":   true,
	"FIDL":  true,
	"MFGPN": true,
}

// NormalizeColumn converts an inspection export header to its snake_case
// record name. The rules are applied in order and the first match wins:
//
//	IDNO, DID, SKU, FIDL, MFGPN  -> lowercased
//	contains "ID"                -> every "ID" becomes "_id"
//	contains "BR"                -> every "BR" becomes "_br_"
//	contains "DB"                -> every "DB" becomes "_db_"
//	otherwise                    -> "_" before each non-leading A-Z
//
// The result is lowercased and stripped of leading and trailing underscores.
// Snapshot column names depend on these rules, so they must stay stable.
func NormalizeColumn(name string) string {
	var res string
	switch {
	case abbreviations[name]:
		res = name
	case strings.Contains(name, "ID"):
		res = strings.ReplaceAll(name, "ID", "_id")
	case strings.Contains(name, "BR"):
		res = strings.ReplaceAll(name, "BR", "_br_")
	case strings.Contains(name, "DB"):
		res = strings.ReplaceAll(name, "DB", "_db_")
	default:
		var b strings.Builder
		for i := 0; i < len(name); i++ {
			ch := name[i]
			if i > 0 && ch >= 'A' && ch <= 'Z' {
				b.WriteByte('_')
			}
			b.WriteByte(ch)
		}
		res = b.String()
	}
	return strings.Trim(strings.ToLower(res), "_")
}
