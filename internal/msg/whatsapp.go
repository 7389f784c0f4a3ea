package msg

import (
	"fmt"
	"net/url"
	"strings"
)

// WhatsAppLink builds a wa.me deep link that opens a chat with the message
// pre-filled. The phone number keeps digits only; a leading 00 becomes
// nothing since wa.me wants the bare country-prefixed number.
func WhatsAppLink(phone, message string) (string, error) {
	digits := digitsOnly(phone)
	digits = strings.TrimPrefix(digits, "00")
	if len(digits) < 7 {
		return "", fmt.Errorf("phone number too short: %q", phone)
	}
	link := "https://wa.me/" + digits
	if message != "" {
		link += "?text=" + url.QueryEscape(message)
	}
	return link, nil
}

// SMSLink builds an sms: URI that opens the default messenger with the
// text pre-filled. Same number cleanup as WhatsAppLink.
func SMSLink(phone, message string) (string, error) {
	digits := digitsOnly(phone)
	digits = strings.TrimPrefix(digits, "00")
	if len(digits) < 7 {
		return "", fmt.Errorf("phone number too short: %q", phone)
	}
	link := "sms:+" + digits
	if message != "" {
		link += "?body=" + url.QueryEscape(message)
	}
	return link, nil
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
