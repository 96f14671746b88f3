// Package validation holds the single definition of every intake-form rule.
// The form controller and the HTTP handlers both call into this package, so
// browser-equivalent and authoritative checks can never disagree.
package validation

import (
	"regexp"
	"strings"
)

const (
	maxEmailLen    = 255
	minPasswordLen = 8
	maxPasswordLen = 128
	minNameLen     = 2
	maxNameLen     = 100
	minDetailsLen  = 10
	maxDetailsLen  = 5000
)

var (
	emailPattern   = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	namePattern    = regexp.MustCompile(`^[a-zA-ZăâîșțĂÂÎȘȚ\s\-']+$`)
	phonePattern   = regexp.MustCompile(`^\+?[0-9\s\-()]{8,20}$`)
	upperPattern   = regexp.MustCompile(`[A-Z]`)
	lowerPattern   = regexp.MustCompile(`[a-z]`)
	digitPattern   = regexp.MustCompile(`[0-9]`)
	htmlTagPattern = regexp.MustCompile(`<[^>]*>`)
	jsProtoPattern = regexp.MustCompile(`(?i)javascript:`)
	vbProtoPattern = regexp.MustCompile(`(?i)vbscript:`)
	dataURIPattern = regexp.MustCompile(`(?i)data:`)
	handlerPattern = regexp.MustCompile(`(?i)on\w+\s*=`)
)

// Whitelists for the enumerated intake fields.
var (
	ProjectTypes = []string{"prezentare", "magazin", "aplicatie", "saas", "altele"}
	Budgets      = []string{"<300", "300-800", "800-1700", ">1700"}
	Timelines    = []string{"1-2saptamani", "2-4saptamani", "1-2luni", ">2luni"}
)

// User-facing messages, kept in Romanian to match the site.
const (
	MsgEmailRequired   = "Email-ul este obligatoriu"
	MsgEmailInvalid    = "Adresă de email invalidă"
	MsgEmailTooLong    = "Email-ul este prea lung"
	MsgPasswordShort   = "Parola trebuie să aibă cel puțin 8 caractere"
	MsgPasswordLong    = "Parola este prea lungă"
	MsgPasswordUpper   = "Parola trebuie să conțină cel puțin o literă mare"
	MsgPasswordLower   = "Parola trebuie să conțină cel puțin o literă mică"
	MsgPasswordDigit   = "Parola trebuie să conțină cel puțin o cifră"
	MsgNameShort       = "Numele trebuie să aibă cel puțin 2 caractere"
	MsgNameLong        = "Numele este prea lung"
	MsgNameCharset     = "Numele conține caractere invalide"
	MsgPhoneInvalid    = "Număr de telefon invalid"
	MsgDetailsShort    = "Descrierea trebuie să aibă cel puțin 10 caractere"
	MsgDetailsLong     = "Descrierea este prea lungă"
	MsgProjectType     = "Selectează un tip de proiect valid"
	MsgBudget          = "Selectează un buget valid"
	MsgTimeline        = "Selectează un termen valid"
	MsgGDPRConsent     = "Trebuie să accepți politica de confidențialitate"
	MsgValidationError = "Validare eșuată"
)

// Error carries a user-facing rejection reason.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string { return e.Field + ": " + e.Message }

func fail(field, msg string) *Error { return &Error{Field: field, Message: msg} }

// Email validates and normalizes an email address. Accepts iff the trimmed
// value matches a single-@, dotted-domain shape with no consecutive dots and
// at most 255 characters.
func Email(raw string) (string, *Error) {
	email := strings.TrimSpace(raw)
	if email == "" {
		return "", fail("email", MsgEmailRequired)
	}
	if len(email) > maxEmailLen {
		return "", fail("email", MsgEmailTooLong)
	}
	if strings.Contains(email, "..") || !emailPattern.MatchString(email) {
		return "", fail("email", MsgEmailInvalid)
	}
	return email, nil
}

// Password enforces the account-creation policy: 8-128 characters with at
// least one uppercase letter, one lowercase letter and one digit.
func Password(raw string) *Error {
	switch {
	case len(raw) < minPasswordLen:
		return fail("password", MsgPasswordShort)
	case len(raw) > maxPasswordLen:
		return fail("password", MsgPasswordLong)
	case !upperPattern.MatchString(raw):
		return fail("password", MsgPasswordUpper)
	case !lowerPattern.MatchString(raw):
		return fail("password", MsgPasswordLower)
	case !digitPattern.MatchString(raw):
		return fail("password", MsgPasswordDigit)
	}
	return nil
}

// Name validates a person's name: 2-100 chars, Latin letters plus Romanian
// diacritics, spaces, hyphens and apostrophes.
func Name(raw string) (string, *Error) {
	name := strings.TrimSpace(raw)
	if len([]rune(name)) < minNameLen {
		return "", fail("name", MsgNameShort)
	}
	if len([]rune(name)) > maxNameLen {
		return "", fail("name", MsgNameLong)
	}
	if !namePattern.MatchString(name) {
		return "", fail("name", MsgNameCharset)
	}
	return name, nil
}

// Phone validates an optional phone number in loose international format.
func Phone(raw string) (string, *Error) {
	phone := strings.TrimSpace(raw)
	if phone == "" {
		return "", nil
	}
	if !phonePattern.MatchString(phone) {
		return "", fail("phone", MsgPhoneInvalid)
	}
	return phone, nil
}

// Details validates and sanitizes the free-text project description.
func Details(raw string) (string, *Error) {
	details := SanitizeText(raw)
	if len([]rune(details)) < minDetailsLen {
		return "", fail("details", MsgDetailsShort)
	}
	if len([]rune(details)) > maxDetailsLen {
		return "", fail("details", MsgDetailsLong)
	}
	return details, nil
}

// ProjectType validates against the project-type whitelist.
func ProjectType(raw string) *Error {
	if !contains(ProjectTypes, raw) {
		return fail("projectType", MsgProjectType)
	}
	return nil
}

// Budget validates against the budget-bracket whitelist.
func Budget(raw string) *Error {
	if !contains(Budgets, raw) {
		return fail("budget", MsgBudget)
	}
	return nil
}

// Timeline validates against the timeline-bracket whitelist.
func Timeline(raw string) *Error {
	if !contains(Timelines, raw) {
		return fail("timeline", MsgTimeline)
	}
	return nil
}

// GDPRConsent accepts only an explicit true.
func GDPRConsent(consented bool) *Error {
	if !consented {
		return fail("gdprConsent", MsgGDPRConsent)
	}
	return nil
}

// SanitizeText strips known XSS vectors from free text. Denylist transform,
// not a parser; treated as defense in depth, never as the security boundary.
func SanitizeText(input string) string {
	if input == "" {
		return ""
	}
	out := htmlTagPattern.ReplaceAllString(input, "")
	out = jsProtoPattern.ReplaceAllString(out, "")
	out = handlerPattern.ReplaceAllString(out, "")
	out = dataURIPattern.ReplaceAllString(out, "")
	out = vbProtoPattern.ReplaceAllString(out, "")
	return strings.TrimSpace(out)
}

// EscapeHTML escapes entities for safe interpolation into HTML email bodies.
func EscapeHTML(unsafe string) string {
	r := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&#039;",
	)
	return r.Replace(unsafe)
}

// HoneypotFieldNames are the hidden form fields used to trap bots.
var HoneypotFieldNames = []string{"website", "company_website", "url", "fax"}

// HoneypotTriggered reports whether any honeypot field holds non-whitespace
// content.
func HoneypotTriggered(fields map[string]string) bool {
	for _, name := range HoneypotFieldNames {
		if strings.TrimSpace(fields[name]) != "" {
			return true
		}
	}
	return false
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
