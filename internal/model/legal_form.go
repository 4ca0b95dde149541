package model

import "time"

// FormType identifies the kind of legal document.
type FormType string

const (
	FormNOIM                FormType = "noim"
	FormDeclaration         FormType = "declaration_of_no_legal_impediment"
	FormMarriageCertificate FormType = "marriage_certificate"
	FormIdentityEvidence    FormType = "identity_evidence"
	FormDivorceEvidence     FormType = "divorce_evidence"
	FormOther               FormType = "other"
)

// MandatoryFormType must exist for a couple to be anything but incomplete.
const MandatoryFormType = FormNOIM

// NOIMNoticeDays is the minimum notice period before a ceremony.
const NOIMNoticeDays = 30

// IsValid checks if the form type is known.
func (t FormType) IsValid() bool {
	switch t {
	case FormNOIM, FormDeclaration, FormMarriageCertificate, FormIdentityEvidence, FormDivorceEvidence, FormOther:
		return true
	}
	return false
}

// FormStatus is the lifecycle state of a legal form.
type FormStatus string

const (
	FormRequired  FormStatus = "required"
	FormSubmitted FormStatus = "submitted"
	FormApproved  FormStatus = "approved"
	FormRejected  FormStatus = "rejected"
	FormExpired   FormStatus = "expired"
)

// IsValid checks if the form status is known.
func (s FormStatus) IsValid() bool {
	switch s {
	case FormRequired, FormSubmitted, FormApproved, FormRejected, FormExpired:
		return true
	}
	return false
}

// IsOutstanding reports whether the form still needs action from the celebrant.
func (s FormStatus) IsOutstanding() bool {
	return s == FormRequired || s == FormSubmitted
}

// LegalForm is a compliance document tracked for a couple.
type LegalForm struct {
	ID                string
	UserID            string
	CoupleID          string
	CeremonyID        *string
	FormType          FormType
	Status            FormStatus
	DeadlineDate      *time.Time
	SubmittedDate     *time.Time
	ApprovedDate      *time.Time
	ExpiryDate        *time.Time
	DocumentReference string
	Notes             string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

var formTransitions = map[FormStatus][]FormStatus{
	FormRequired:  {FormSubmitted, FormApproved, FormExpired},
	FormSubmitted: {FormApproved, FormRejected, FormExpired},
	FormRejected:  {FormSubmitted, FormExpired},
	FormApproved:  {FormExpired},
}

// CanTransitionTo reports whether a form may move from s to next. A rejected
// form may be resubmitted; expired is terminal.
func (s FormStatus) CanTransitionTo(next FormStatus) bool {
	if s == next {
		return true
	}
	for _, allowed := range formTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}
