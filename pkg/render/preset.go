package render

// Preset controls how pages are drawn for export.
type Preset struct {
	Name string
	// ShowFrames outlines every frame and prints its label.
	ShowFrames bool
	// Scale is the raster scale used for PNG and preview output.
	Scale float64
}

var (
	HighQualityPrint = Preset{Name: "[High Quality Print]", Scale: 2}
	Proof            = Preset{Name: "[Proof]", ShowFrames: true, Scale: 1}
)

// Presets lists the known presets. The first entry is the fallback.
var Presets = []Preset{HighQualityPrint, Proof}

// LookupPreset returns the preset with the given name.
func LookupPreset(name string) (Preset, bool) {
	for _, p := range Presets {
		if p.Name == name {
			return p, true
		}
	}
	return Preset{}, false
}

// ResolvePreset returns the named preset, or the first preset when the name
// is empty or unknown.
func ResolvePreset(name string) Preset {
	if p, ok := LookupPreset(name); ok {
		return p
	}
	return Presets[0]
}

// PresetNames returns the names of all known presets.
func PresetNames() []string {
	names := make([]string, len(Presets))
	for i, p := range Presets {
		names[i] = p.Name
	}
	return names
}
