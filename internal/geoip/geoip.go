package geoip

import (
	"fmt"
	"net"
	"sync"

	"github.com/oschwald/geoip2-golang"

	"v2deck/internal/logger"
)

var (
	asnReader     *geoip2.Reader
	countryReader *geoip2.Reader
	once          sync.Once
)

// Init loads the MMDB files. Missing databases are not fatal; lookups then
// degrade to empty metadata.
func Init(asnPath, countryPath string) {
	once.Do(func() {
		var err error
		if asnPath != "" {
			if asnReader, err = geoip2.Open(asnPath); err != nil {
				logger.Log.Debugf("ASN database unavailable at %s: %v", asnPath, err)
			}
		}
		if countryPath != "" {
			if countryReader, err = geoip2.Open(countryPath); err != nil {
				logger.Log.Debugf("Country database unavailable at %s: %v", countryPath, err)
			}
		}
	})
}

type Result struct {
	ISP     string
	Country string
}

// Lookup resolves ISP and country for an IP. Returns an error only for a
// malformed address or when no database at all is loaded.
func Lookup(ipStr string) (*Result, error) {
	if asnReader == nil && countryReader == nil {
		return nil, fmt.Errorf("geoip databases not loaded")
	}

	ip := net.ParseIP(ipStr)
	if ip == nil {
		return nil, fmt.Errorf("invalid ip: %s", ipStr)
	}

	res := &Result{}
	if asnReader != nil {
		if asn, err := asnReader.ASN(ip); err == nil {
			res.ISP = asn.AutonomousSystemOrganization
		}
	}
	if countryReader != nil {
		if c, err := countryReader.Country(ip); err == nil {
			res.Country = c.Country.IsoCode
		}
	}
	return res, nil
}
