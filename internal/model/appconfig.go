package model

// AppConfig is the on-disk configuration of the stamppaper tool: the layout
// settings plus the collaborators around the engine.
type AppConfig struct {
	Layout Settings `json:"layout" toml:"layout"`

	// Rig link
	SerialPort string `json:"serial_port" toml:"serial_port"` // empty = no rig
	BaudRate   int    `json:"baud_rate" toml:"baud_rate"`

	// Archive
	LedgerPath string `json:"ledger_path" toml:"ledger_path"` // empty = no ledger
	InboxDir   string `json:"inbox_dir" toml:"inbox_dir"`     // front-side stamp crops waiting for layout
}

// DefaultAppConfig returns an AppConfig populated with DefaultSettings and a
// 9600 baud rig link, matching the rig firmware default.
func DefaultAppConfig() AppConfig {
	return AppConfig{
		Layout:     DefaultSettings(),
		SerialPort: "",
		BaudRate:   9600,
		LedgerPath: "",
		InboxDir:   "inbox",
	}
}
