package wireless

// ParseBand maps the UCI two-letter band code to a Band.
func ParseBand(code string) Band {
	switch code {
	case "2g":
		return Band24GHz
	case "5g":
		return Band5GHz
	default:
		return BandUnknown
	}
}

// Normalize turns a raw wireless dump into radios and networks.
//
// Output order follows the dump. A network inherits the band of its
// radio and is reported disabled whenever that radio is disabled,
// regardless of its own flag. A network whose radio is missing from the
// dump keeps its own flag and an unknown band.
func Normalize(dump *Dump) ([]Radio, []Ssid) {
	if dump == nil {
		return []Radio{}, []Ssid{}
	}

	radios := make([]Radio, 0)
	byDevice := make(map[string]Radio)
	for _, sec := range dump.Values.OfType(TypeDevice) {
		r := Radio{
			Device:   sec.Name,
			Band:     ParseBand(sec.String("band")),
			Disabled: sec.Flag("disabled"),
		}
		radios = append(radios, r)
		if _, seen := byDevice[r.Device]; !seen {
			byDevice[r.Device] = r
		}
	}

	ssids := make([]Ssid, 0)
	for _, sec := range dump.Values.OfType(TypeInterface) {
		device := sec.String("device")
		radio, ok := byDevice[device]

		band := BandUnknown
		if ok {
			band = radio.Band
		}

		ifname := sec.String("ifname")
		if ifname == "" {
			ifname = sec.Name
		}

		ssids = append(ssids, Ssid{
			Ifname:   ifname,
			Device:   device,
			Band:     band,
			Name:     sec.String("ssid"),
			Mode:     sec.String("mode"),
			Hidden:   sec.Flag("hidden"),
			Disabled: sec.Flag("disabled") || (ok && radio.Disabled),
		})
	}

	return radios, ssids
}
