package stylecss

// Palette is the fixed Excel default colour palette (indices 0-55) used
// to resolve BIFF XF/font colour-index fields to `#RRGGBB`, grounded on
// the 56-entry table the OOXML/BIFF ecosystem ships verbatim across
// implementations. Indices 64 and above are "automatic" (spec's colour
// resolution rule) and resolve to the empty string so callers omit any
// colour declaration rather than emit a bogus one.
var Palette = [56]string{
	"#000000", "#FFFFFF", "#FF0000", "#00FF00",
	"#0000FF", "#FFFF00", "#FF00FF", "#00FFFF",
	"#800000", "#008000", "#000080", "#808000",
	"#800080", "#008080", "#C0C0C0", "#808080",
	"#9999FF", "#993366", "#FFFFCC", "#CCFFFF",
	"#660066", "#FF8080", "#0066CC", "#CCCCFF",
	"#000080", "#FF00FF", "#FFFF00", "#00FFFF",
	"#800080", "#800000", "#008080", "#0000FF",
	"#00CCFF", "#CCFFFF", "#CCFFCC", "#FFFF99",
	"#99CCFF", "#FF99CC", "#CC99FF", "#FFCC99",
	"#3366FF", "#33CCCC", "#99CC00", "#FFCC00",
	"#FF9900", "#FF6600", "#666699", "#969696",
	"#003366", "#339966", "#003300", "#333300",
	"#993300", "#993366", "#333399", "#333333",
}

// ResolveColor maps a BIFF colour index to its `#RRGGBB` form. Indices
// >= 64 are the automatic/system colours spec §6 says to omit entirely;
// indices outside the table also resolve to empty rather than panic,
// since a malformed index shouldn't abort style resolution.
func ResolveColor(index int) string {
	if index < 0 || index >= len(Palette) {
		return ""
	}
	return Palette[index]
}
