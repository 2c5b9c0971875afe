// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"
)

const registryVersion = "1.0.0"

// Builtin returns the catalogue of the risk workers shipped in this repo.
func Builtin() *ActivityRegistry {
	profileErrors := []string{"PROFILE_PARSE_FAILED", "INVALID_INPUT", "APPLICANT_NOT_FOUND", "APPLICANT_LOOKUP_FAILED", "QUERY_TIMEOUT"}

	return &ActivityRegistry{
		Version:     registryVersion,
		LastUpdated: "2026-05-04",
		Activities: []Activity{
			{
				ID:          "assess-applicant-risk",
				DisplayName: "Assess Applicant Risk",
				Description: "Scores an applicant profile and returns the decision with its explanation",
				Category:    "risk",
				TaskType:    "assess-applicant-risk",
				Inputs:      []string{"applicantId", "profile"},
				Outputs:     []string{"assessment", "decision", "predictedRisk", "decisionReasons", "topRiskIncreasing"},
				ErrorCodes:  profileErrors,
				Tags:        []string{"scoring"},
			},
			{
				ID:          "simulate-applicant-risk",
				DisplayName: "Simulate Applicant Risk",
				Description: "Re-assesses a profile with partial overrides for what-if analysis",
				Category:    "risk",
				TaskType:    "simulate-applicant-risk",
				Inputs:      []string{"applicantId", "profile", "overrides"},
				Outputs:     []string{"assessment", "decision", "predictedRisk", "baselineDecision", "baselineRisk", "riskDelta", "decisionChanged"},
				ErrorCodes:  profileErrors,
				Tags:        []string{"scoring", "what-if"},
			},
			{
				ID:          "generate-counterfactuals",
				DisplayName: "Generate Counterfactuals",
				Description: "Lists the single-feature changes that would move the applicant's risk",
				Category:    "risk",
				TaskType:    "generate-counterfactuals",
				Inputs:      []string{"applicantId", "profile"},
				Outputs:     []string{"applicantId", "baselineDecision", "baselineRisk", "scenarios", "decisionFlips"},
				ErrorCodes:  profileErrors,
				Tags:        []string{"explanation", "what-if"},
			},
			{
				ID:          "request-risk-advisory",
				DisplayName: "Request Risk Advisory",
				Description: "Asks the remote advisory service for a second opinion, falling back to the local decision",
				Category:    "risk",
				TaskType:    "request-risk-advisory",
				Inputs:      []string{"applicantId", "assessment"},
				Outputs:     []string{"finalDecision", "decisionSource", "localDecision", "narrative", "advisorModel", "advisorRisk", "advisorError"},
				ErrorCodes:  []string{"INVALID_INPUT", "ADVISOR_TIMEOUT", "ADVISOR_UNAVAILABLE", "ADVISOR_RESPONSE_INVALID"},
				Timeout:     "15s",
				Retries:     3,
				Tags:        []string{"advisory"},
			},
			{
				ID:          "record-risk-decision",
				DisplayName: "Record Risk Decision",
				Description: "Persists the final decision, indexes it for audit and publishes a decision event",
				Category:    "persistence",
				TaskType:    "record-risk-decision",
				Inputs:      []string{"applicantId", "assessment", "finalDecision", "decisionSource"},
				Outputs:     []string{"assessmentRecordId", "finalDecision", "indexed", "published", "eventId", "messageId"},
				ErrorCodes:  []string{"INVALID_INPUT", "DATABASE_INSERT_FAILED", "QUERY_TIMEOUT"},
				Retries:     3,
				Tags:        []string{"audit"},
			},
			{
				ID:          "send-adverse-action-notice",
				DisplayName: "Send Adverse Action Notice",
				Description: "Emails the applicant the principal reasons behind a reject or conditional approval",
				Category:    "communication",
				TaskType:    "send-adverse-action-notice",
				Inputs:      []string{"applicantId", "email", "assessment", "finalDecision"},
				Outputs:     []string{"noticeSent", "decision", "messageId", "skippedReason"},
				ErrorCodes:  []string{"INVALID_INPUT", "NOTIFICATION_SEND_FAILED"},
				Retries:     3,
				Tags:        []string{"compliance"},
			},
		},
	}
}

func LoadRegistry(path string) (*ActivityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg ActivityRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse registry %s: %w", path, err)
	}
	return &reg, nil
}

// LoadWithOverrides returns the builtin catalogue with the activities from
// path merged over it. An empty path yields the builtin catalogue.
func LoadWithOverrides(path string) (*ActivityRegistry, error) {
	reg := Builtin()
	if path == "" {
		return reg, nil
	}
	overrides, err := LoadRegistry(path)
	if err != nil {
		return nil, err
	}
	reg.Merge(overrides)
	if err := reg.Validate(); err != nil {
		return nil, err
	}
	return reg, nil
}

// Merge replaces activities with the same ID and appends new ones.
func (r *ActivityRegistry) Merge(other *ActivityRegistry) {
	index := make(map[string]int, len(r.Activities))
	for i, a := range r.Activities {
		index[a.ID] = i
	}
	for _, a := range other.Activities {
		if i, ok := index[a.ID]; ok {
			r.Activities[i] = a
			continue
		}
		index[a.ID] = len(r.Activities)
		r.Activities = append(r.Activities, a)
	}
	if other.Version != "" {
		r.Version = other.Version
	}
	r.LastUpdated = time.Now().UTC().Format("2006-01-02")
}

func (r *ActivityRegistry) Find(taskType string) (Activity, bool) {
	for _, a := range r.Activities {
		if a.TaskType == taskType {
			return a, true
		}
	}
	return Activity{}, false
}

func (r *ActivityRegistry) TaskTypes() []string {
	out := make([]string, 0, len(r.Activities))
	for _, a := range r.Activities {
		out = append(out, a.TaskType)
	}
	return out
}

// Validate reports every activity with a missing id or task type and every duplicate.
func (r *ActivityRegistry) Validate() error {
	var errs []error
	ids := map[string]bool{}
	taskTypes := map[string]bool{}
	for i, a := range r.Activities {
		if a.ID == "" {
			errs = append(errs, fmt.Errorf("activities[%d]: id is required", i))
		} else if ids[a.ID] {
			errs = append(errs, fmt.Errorf("activities[%d]: duplicate id %q", i, a.ID))
		}
		if a.TaskType == "" {
			errs = append(errs, fmt.Errorf("activities[%d]: taskType is required", i))
		} else if taskTypes[a.TaskType] {
			errs = append(errs, fmt.Errorf("activities[%d]: duplicate taskType %q", i, a.TaskType))
		}
		ids[a.ID] = true
		taskTypes[a.TaskType] = true
	}
	return errors.Join(errs...)
}
