package tracker

import "net"

// GeoResolver maps a client IP to an ISO country code. Resolution is
// best-effort and side-effect-free: a miss returns ok=false, never an
// error, and the event is recorded with a NULL country.
type GeoResolver interface {
	Country(ip string) (string, bool)
}

// NopGeoResolver resolves nothing. Used when no geo database is wired.
type NopGeoResolver struct{}

func (NopGeoResolver) Country(string) (string, bool) { return "", false }

// CIDRGeoResolver resolves countries from a static CIDR table, for
// deployments that ship a small curated range list instead of a full
// geo database.
type CIDRGeoResolver struct {
	ranges []cidrRange
}

type cidrRange struct {
	net     *net.IPNet
	country string
}

// NewCIDRGeoResolver builds a resolver from CIDR → country pairs.
// Invalid CIDRs are skipped.
func NewCIDRGeoResolver(table map[string]string) *CIDRGeoResolver {
	r := &CIDRGeoResolver{}
	for cidr, country := range table {
		_, n, err := net.ParseCIDR(cidr)
		if err != nil {
			continue
		}
		r.ranges = append(r.ranges, cidrRange{net: n, country: country})
	}
	return r
}

func (r *CIDRGeoResolver) Country(ip string) (string, bool) {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return "", false
	}
	for _, rng := range r.ranges {
		if rng.net.Contains(parsed) {
			return rng.country, true
		}
	}
	return "", false
}
