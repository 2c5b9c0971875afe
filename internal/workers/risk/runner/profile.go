package runner

import (
	"context"
	"fmt"

	"credit-risk-workers/internal/risk"
)

// ProfileLoader fetches a stored applicant profile.
type ProfileLoader interface {
	Get(ctx context.Context, applicantID string) (*risk.ApplicantProfile, error)
}

// ProfileInput is embedded by workers that accept either an inline profile or
// an applicant id to look up.
type ProfileInput struct {
	ApplicantID string                 `json:"applicantId"`
	Profile     *risk.ApplicantProfile `json:"profile,omitempty"`
}

// Resolve returns the inline profile when present, otherwise the stored one.
func (in ProfileInput) Resolve(ctx context.Context, loader ProfileLoader) (risk.ApplicantProfile, error) {
	if in.Profile != nil {
		p := *in.Profile
		if p.ApplicantID == "" {
			p.ApplicantID = in.ApplicantID
		}
		return p, nil
	}
	if in.ApplicantID == "" {
		return risk.ApplicantProfile{}, fmt.Errorf("%w: applicantId or profile is required", ErrInvalidInput)
	}
	if loader == nil {
		return risk.ApplicantProfile{}, fmt.Errorf("%w: no applicant store configured, pass profile inline", ErrInvalidInput)
	}
	p, err := loader.Get(ctx, in.ApplicantID)
	if err != nil {
		return risk.ApplicantProfile{}, err
	}
	return *p, nil
}
