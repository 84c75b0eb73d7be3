package filter

import "regexp"

// ContactFilter blocks messages that try to move the exchange off
// platform by sharing an email address or phone number.
type ContactFilter struct {
	email *regexp.Regexp
	phone *regexp.Regexp
}

type Result struct {
	IsClean bool
	Message string
}

var (
	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	// Seven or more digits allowing separators, with optional leading +.
	phonePattern = regexp.MustCompile(`\+?\d[\d\s().\-]{5,}\d`)
)

func New() *ContactFilter {
	return &ContactFilter{
		email: emailPattern,
		phone: phonePattern,
	}
}

func (f *ContactFilter) CheckForContactInfo(text string) Result {
	if text == "" {
		return Result{IsClean: true}
	}
	if f.email.MatchString(text) {
		return Result{Message: "message appears to contain an email address"}
	}
	if m := f.phone.FindString(text); m != "" && countDigits(m) >= 7 {
		return Result{Message: "message appears to contain a phone number"}
	}
	return Result{IsClean: true}
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}
