package notify

import (
	"regexp"
	"strings"
)

var (
	uspsPattern  = regexp.MustCompile(`^\d+[A-Z]{2}\d+US$`)
	fedexPattern = regexp.MustCompile(`^\d{12}$`)
)

// CarrierLink derives a carrier tracking hyperlink from the tracking
// number's lexical pattern. Precedence is fixed: USPS international pattern,
// then the UPS 1Z prefix, then 12-digit FedEx, and USPS as the fallback for
// anything unrecognized.
func CarrierLink(trackingNumber string) string {
	switch {
	case uspsPattern.MatchString(trackingNumber):
		return uspsLink(trackingNumber)
	case strings.HasPrefix(trackingNumber, "1Z"):
		return "https://www.ups.com/track?tracknum=" + trackingNumber
	case fedexPattern.MatchString(trackingNumber):
		return "https://www.fedex.com/fedextrack/?trknbr=" + trackingNumber
	default:
		return uspsLink(trackingNumber)
	}
}

func uspsLink(trackingNumber string) string {
	return "https://tools.usps.com/go/TrackConfirmAction?tLabels=" + trackingNumber
}
