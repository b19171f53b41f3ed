package services

import (
	"github.com/mileusna/useragent"
)

// Device is a parsed user-agent snapshot stored on login audit records.
type Device struct {
	Browser string
	OS      string
	Kind    string
}

// ParseDevice extracts browser, OS and device class from a User-Agent header.
func ParseDevice(header string) Device {
	ua := useragent.Parse(header)

	kind := "desktop"
	switch {
	case ua.Mobile:
		kind = "mobile"
	case ua.Tablet:
		kind = "tablet"
	case ua.Bot:
		kind = "bot"
	}

	return Device{
		Browser: ua.Name + " " + ua.Version,
		OS:      ua.OS,
		Kind:    kind,
	}
}
