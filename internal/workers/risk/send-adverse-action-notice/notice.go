// internal/workers/risk/send-adverse-action-notice/notice.go
package sendadverseactionnotice

import (
	"bytes"
	"text/template"

	"credit-risk-workers/internal/risk"
)

var featureLabels = map[risk.FeatureName]string{
	risk.FeatureCreditScore:       "Credit score",
	risk.FeatureDTIRatio:          "Monthly debt obligations relative to income",
	risk.FeaturePaymentHistory:    "Repayment history",
	risk.FeatureCreditUtilization: "Use of available credit card limits",
	risk.FeatureEmploymentType:    "Employment type",
	risk.FeatureTotalAssets:       "Declared assets",
	risk.FeatureCreditAge:         "Length of credit history",
	risk.FeatureInquiries:         "Number of recent credit inquiries",
}

var noticeTemplate = template.Must(template.New("notice").Parse(`Dear applicant,

{{if .Conditional -}}
Your credit application {{.ApplicantID}} can be approved subject to additional conditions.
{{- else -}}
We are unable to approve your credit application {{.ApplicantID}} at this time.
{{- end}}
{{if .Factors}}
The main factors that affected this decision were:
{{range .Factors}}  - {{.}}
{{end}}{{end}}
You may request a copy of the information used in this decision and ask for it
to be reviewed by contacting us within 60 days of this notice.
`))

type noticeData struct {
	ApplicantID string
	Conditional bool
	Factors     []string
}

// adverseDecision reports whether d obliges us to tell the applicant why.
func adverseDecision(d risk.Decision) bool {
	return d == risk.DecisionReject || d == risk.DecisionConditionalApprove
}

func renderNotice(applicantID string, d risk.Decision, a risk.RiskAssessment) (string, error) {
	data := noticeData{
		ApplicantID: applicantID,
		Conditional: d == risk.DecisionConditionalApprove,
	}
	for _, f := range a.Summary.TopRiskIncreasing {
		label, ok := featureLabels[f]
		if !ok {
			label = string(f)
		}
		data.Factors = append(data.Factors, label)
	}

	var buf bytes.Buffer
	if err := noticeTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
