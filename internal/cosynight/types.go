package cosynight

// Wire types for the CosyNight cloud API. Field tags follow the vendor's
// JSON, including the misspelled "requieresUpdate" the server actually
// sends.

// Device is one blanket registered to the account.
type Device struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Active         bool   `json:"active"`
	RequiresUpdate bool   `json:"requieresUpdate"`
}

// Status is the device status as returned by Device/GetStatus.
type Status struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Active         bool   `json:"active"`
	BodySetting    int    `json:"bodySetting"` // 0..9
	FeetSetting    int    `json:"feetSetting"` // 0..9
	Heartbeat      int    `json:"heartbeat"`
	Timer          int    `json:"timer"` // seconds remaining
	RequiresUpdate bool   `json:"requieresUpdate"`
}

// Quickstart is the command payload for Device/Quickstart. Both zones
// plus a timer span in seconds; all zeros stops the blanket.
type Quickstart struct {
	ID          string `json:"id"`
	BodySetting int    `json:"bodySetting"`
	FeetSetting int    `json:"feetSetting"`
	Timespan    int    `json:"timespan"` // seconds
}

type deviceListResponse struct {
	Devices []Device `json:"devices"`
}
