// pkg/registry/schema.go
package registry

type ActivityRegistry struct {
	Version     string     `json:"version" yaml:"version"`
	LastUpdated string     `json:"lastUpdated" yaml:"lastUpdated"`
	Activities  []Activity `json:"activities" yaml:"activities"`
}

// Activity describes one worker task type as it is modelled in BPMN.
type Activity struct {
	ID                   string   `json:"id" yaml:"id"`
	DisplayName          string   `json:"displayName" yaml:"displayName"`
	Description          string   `json:"description" yaml:"description"`
	Category             string   `json:"category" yaml:"category"`
	Version              string   `json:"version" yaml:"version"`
	TaskType             string   `json:"taskType" yaml:"taskType"`
	ImplementationStatus string   `json:"implementationStatus" yaml:"implementationStatus"`
	Inputs               []string `json:"inputs" yaml:"inputs"`
	Outputs              []string `json:"outputs" yaml:"outputs"`
	ErrorCodes           []string `json:"errorCodes" yaml:"errorCodes"`
	Timeout              string   `json:"timeout" yaml:"timeout"`
	Retries              int      `json:"retries" yaml:"retries"`
	Tags                 []string `json:"tags" yaml:"tags"`
}
