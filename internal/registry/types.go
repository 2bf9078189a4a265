package registry

import "strings"

// devicePage is one page of /api/dcim/devices/.
type devicePage struct {
	Count   int            `json:"count"`
	Next    *string        `json:"next"`
	Results []deviceRecord `json:"results"`
}

type deviceRecord struct {
	ID         int            `json:"id"`
	Name       string         `json:"name"`
	Site       *namedRef      `json:"site"`
	DeviceType *deviceTypeRef `json:"device_type"`
	PrimaryIP  *ipRef         `json:"primary_ip"`
}

type namedRef struct {
	Name string `json:"name"`
}

type deviceTypeRef struct {
	Model string `json:"model"`
}

type ipRef struct {
	Address string `json:"address"` // CIDR, e.g. 10.0.0.1/24
}

func (r deviceRecord) toDevice() Device {
	d := Device{
		Name:  r.Name,
		Site:  NotAvailable,
		Model: NotAvailable,
	}

	if r.PrimaryIP != nil {
		d.Address = StripPrefixLen(r.PrimaryIP.Address)
	}

	if r.Site != nil && r.Site.Name != "" {
		d.Site = r.Site.Name
	}

	if r.DeviceType != nil && r.DeviceType.Model != "" {
		d.Model = r.DeviceType.Model
	}

	return d
}

// StripPrefixLen drops the "/len" suffix of an interface address.
func StripPrefixLen(addr string) string {
	addr = strings.TrimSpace(addr)
	if i := strings.IndexByte(addr, '/'); i >= 0 {
		return addr[:i]
	}

	return addr
}
