package layer

// DefaultColor is used for component types without a palette entry.
const DefaultColor = "#000000"

// palette maps a component type to its layer colour.
var palette = map[string]string{
	"C": "#FFD700", // capacitor
	"D": "#FF4500", // diode
	"E": "#00CED1", // eeprom
	"F": "#FF69B4", // fuse
	"L": "#7FFF00", // inductor
	"P": "#1E90FF", // power ic, port
	"Q": "#FF8C00", // transistor
	"R": "#D2691E", // resistor
	"T": "#BA55D3", // transformer, terminal
	"U": "#00FF7F", // ic
	"Y": "#00BFFF", // crystal
}

// Color returns the palette colour of componentType.
func Color(componentType string) string {
	if c, ok := palette[componentType]; ok {
		return c
	}
	return DefaultColor
}
