package model

// PaperProfile is a named physical sheet format.
type PaperProfile struct {
	Name        string  `json:"name" toml:"name"`
	Description string  `json:"description" toml:"description"`
	Width       float64 `json:"width" toml:"width"`   // mm
	Height      float64 `json:"height" toml:"height"` // mm
	MarginX     float64 `json:"margin_x" toml:"margin_x"`
	MarginY     float64 `json:"margin_y" toml:"margin_y"`
	IsBuiltIn   bool    `json:"-" toml:"-"`
}

// Built-in paper formats, portrait.
var PaperProfiles = []PaperProfile{
	{Name: "A4", Description: "ISO A4", Width: 210, Height: 297, MarginX: 4, MarginY: 2, IsBuiltIn: true},
	{Name: "A5", Description: "ISO A5", Width: 148, Height: 210, MarginX: 3, MarginY: 2, IsBuiltIn: true},
	{Name: "A3", Description: "ISO A3", Width: 297, Height: 420, MarginX: 5, MarginY: 3, IsBuiltIn: true},
	{Name: "Letter", Description: "US Letter", Width: 215.9, Height: 279.4, MarginX: 4, MarginY: 2, IsBuiltIn: true},
	{Name: "Stockbook", Description: "Stockbook page insert", Width: 230, Height: 305, MarginX: 6, MarginY: 4, IsBuiltIn: true},
}

// CustomPaperProfiles holds user defined formats loaded at startup.
var CustomPaperProfiles []PaperProfile

// AllPaperProfiles returns the built-in formats followed by the custom ones.
func AllPaperProfiles() []PaperProfile {
	all := make([]PaperProfile, 0, len(PaperProfiles)+len(CustomPaperProfiles))
	all = append(all, PaperProfiles...)
	return append(all, CustomPaperProfiles...)
}

// GetPaperProfile looks a format up by name. Custom formats shadow built-in
// ones of the same name.
func GetPaperProfile(name string) (PaperProfile, bool) {
	for _, p := range CustomPaperProfiles {
		if p.Name == name {
			return p, true
		}
	}
	for _, p := range PaperProfiles {
		if p.Name == name {
			return p, true
		}
	}
	return PaperProfile{}, false
}

// PaperProfileNames lists every available format name.
func PaperProfileNames() []string {
	var names []string
	for _, p := range AllPaperProfiles() {
		names = append(names, p.Name)
	}
	return names
}

// ApplyToSettings copies the paper size and margins into s.
func (p PaperProfile) ApplyToSettings(s *Settings) {
	s.PaperWidth = p.Width
	s.PaperHeight = p.Height
	s.MarginX = p.MarginX
	s.MarginY = p.MarginY
}
