package listings

import (
	"errors"
	"strings"
)

var ErrStudentEmailRequired = errors.New("listings: student account required, use a university email")

var commercialDomains = map[string]struct{}{
	"gmail.com": {}, "googlemail.com": {}, "yahoo.com": {}, "yahoo.co.uk": {},
	"outlook.com": {}, "hotmail.com": {}, "live.com": {}, "msn.com": {},
	"icloud.com": {}, "me.com": {}, "aol.com": {}, "proton.me": {},
	"protonmail.com": {}, "zoho.com": {}, "mail.com": {}, "yandex.com": {},
	"gmx.com": {}, "gmx.net": {},
}

var disposableMarkers = []string{"tempmail", "10minutemail", "guerrillamail", "mailinator", "trashmail", "disposable"}

// IsStudentEmail rejects personal webmail and disposable inbox domains.
func IsStudentEmail(email string) bool {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return false
	}
	domain := strings.ToLower(strings.TrimSpace(email[at+1:]))
	if domain == "" {
		return false
	}
	if _, ok := commercialDomains[domain]; ok {
		return false
	}
	for _, marker := range disposableMarkers {
		if strings.Contains(domain, marker) {
			return false
		}
	}
	return true
}
