package validation

import "github.com/hrldev/portal-service/internal/models"

// ValidateLeadSubmission runs every intake-form rule over a submission and
// returns the sanitized copy plus a field->message map of rejections. The map
// is empty iff the submission is acceptable. Both the form controller and the
// submit handler call this, so the two sides always agree.
func ValidateLeadSubmission(sub *models.LeadSubmission) (*models.LeadSubmission, map[string]string) {
	errs := make(map[string]string)
	clean := *sub

	if err := ProjectType(sub.ProjectType); err != nil {
		errs[err.Field] = err.Message
	}
	if err := Budget(sub.Budget); err != nil {
		errs[err.Field] = err.Message
	}
	if err := Timeline(sub.Timeline); err != nil {
		errs[err.Field] = err.Message
	}
	if details, err := Details(sub.Details); err != nil {
		errs[err.Field] = err.Message
	} else {
		clean.Details = details
	}
	if name, err := Name(sub.Name); err != nil {
		errs[err.Field] = err.Message
	} else {
		clean.Name = SanitizeText(name)
	}
	if email, err := Email(sub.Email); err != nil {
		errs[err.Field] = err.Message
	} else {
		clean.Email = email
	}
	if phone, err := Phone(sub.Phone); err != nil {
		errs[err.Field] = err.Message
	} else {
		clean.Phone = phone
	}
	if err := GDPRConsent(sub.GDPRConsent); err != nil {
		errs[err.Field] = err.Message
	}

	return &clean, errs
}

// ValidateLeadStep validates only the fields collected by one form step,
// mirroring how the multi-step controller gates advancement. Steps are
// 1-based: projectType, budget, timeline, details, contact.
func ValidateLeadStep(step int, sub *models.LeadSubmission) map[string]string {
	errs := make(map[string]string)

	switch step {
	case 1:
		if err := ProjectType(sub.ProjectType); err != nil {
			errs[err.Field] = err.Message
		}
	case 2:
		if err := Budget(sub.Budget); err != nil {
			errs[err.Field] = err.Message
		}
	case 3:
		if err := Timeline(sub.Timeline); err != nil {
			errs[err.Field] = err.Message
		}
	case 4:
		if _, err := Details(sub.Details); err != nil {
			errs[err.Field] = err.Message
		}
	case 5:
		if _, err := Name(sub.Name); err != nil {
			errs[err.Field] = err.Message
		}
		if _, err := Email(sub.Email); err != nil {
			errs[err.Field] = err.Message
		}
		if _, err := Phone(sub.Phone); err != nil {
			errs[err.Field] = err.Message
		}
		if err := GDPRConsent(sub.GDPRConsent); err != nil {
			errs[err.Field] = err.Message
		}
	}

	return errs
}
