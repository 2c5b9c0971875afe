// cmd/risk-cli/app.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"credit-risk-workers/internal/common/config"
	"credit-risk-workers/internal/risk"
	"credit-risk-workers/pkg/registry"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

const (
	formatJSON = "json"
	formatYAML = "yaml"
)

const (
	outputFlag    = "output"
	configFlag    = "config"
	profileFlag   = "profile"
	overridesFlag = "overrides"
	registryFlag  = "registry"
)

// Flags are built per command tree; urfave/cli keeps parse state on the flag values.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    outputFlag,
			Aliases: []string{"o"},
			Usage:   "Output format [json, yaml]",
			Value:   formatJSON,
		},
		&cli.StringFlag{
			Name:  configFlag,
			Usage: "YAML file with a risk section (or a bare risk section); defaults are used when omitted",
		},
	}
}

func profileFlags(withOverrides bool) []cli.Flag {
	flags := []cli.Flag{&cli.StringFlag{
		Name:     profileFlag,
		Usage:    "Applicant profile file (.json, .yaml or .yml)",
		Required: true,
	}}
	if withOverrides {
		flags = append(flags, &cli.StringFlag{
			Name:     overridesFlag,
			Usage:    "Partial profile file applied on top of --profile",
			Required: true,
		})
	}
	return flags
}

// app keeps the output stream so tests can capture it.
type app struct {
	out io.Writer
}

func newApp(out io.Writer) *cli.Command {
	a := &app{out: out}
	return &cli.Command{
		Name:    "risk-cli",
		Usage:   "Score applicant profiles offline with the credit risk engine",
		Version: version,
		Flags:   globalFlags(),
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			switch cmd.String(outputFlag) {
			case formatJSON, formatYAML, "yml":
				return ctx, nil
			}
			return ctx, fmt.Errorf("unsupported output format %q", cmd.String(outputFlag))
		},
		Commands: []*cli.Command{
			{
				Name:   "assess",
				Usage:  "Assess a profile and print the full explanation",
				Flags:  profileFlags(false),
				Action: a.assess,
			},
			{
				Name:   "simulate",
				Usage:  "Assess a profile with overrides and compare against the baseline",
				Flags:  profileFlags(true),
				Action: a.simulate,
			},
			{
				Name:   "counterfactuals",
				Usage:  "Run the configured perturbations against a profile",
				Flags:  profileFlags(false),
				Action: a.counterfactuals,
			},
			{
				Name:  "config",
				Usage: "Inspect risk configuration",
				Commands: []*cli.Command{
					{
						Name:   "validate",
						Usage:  "Check the risk section against the schema and compile it",
						Action: a.validateConfig,
					},
					{
						Name:   "show",
						Usage:  "Print the effective risk configuration",
						Action: a.showConfig,
					},
				},
			},
			{
				Name:   "activities",
				Usage:  "List the worker activity catalogue",
				Flags: []cli.Flag{&cli.StringFlag{
					Name:  registryFlag,
					Usage: "JSON activity catalogue merged over the builtin one",
				}},
				Action: a.activities,
			},
		},
	}
}

func (a *app) engine(cmd *cli.Command) (*risk.Engine, error) {
	rc, err := a.riskConfig(cmd)
	if err != nil {
		return nil, err
	}
	return risk.NewEngine(rc)
}

func (a *app) riskConfig(cmd *cli.Command) (risk.Config, error) {
	path := cmd.String(configFlag)
	if path == "" {
		return risk.DefaultConfig(), nil
	}
	return config.LoadRisk(path)
}

func (a *app) assess(ctx context.Context, cmd *cli.Command) error {
	e, err := a.engine(cmd)
	if err != nil {
		return err
	}
	var p risk.ApplicantProfile
	if err := readDocument(cmd.String(profileFlag), &p); err != nil {
		return err
	}
	return a.print(cmd, e.Assess(p))
}

type simulation struct {
	Baseline        risk.RiskAssessment `json:"baseline" yaml:"baseline"`
	Simulated       risk.RiskAssessment `json:"simulated" yaml:"simulated"`
	RiskDelta       float64             `json:"riskDelta" yaml:"riskDelta"`
	DecisionChanged bool                `json:"decisionChanged" yaml:"decisionChanged"`
}

func (a *app) simulate(ctx context.Context, cmd *cli.Command) error {
	e, err := a.engine(cmd)
	if err != nil {
		return err
	}
	var (
		p risk.ApplicantProfile
		o risk.ProfileOverrides
	)
	if err := readDocument(cmd.String(profileFlag), &p); err != nil {
		return err
	}
	if err := readDocument(cmd.String(overridesFlag), &o); err != nil {
		return err
	}

	baseline := e.Assess(p)
	simulated := e.Simulate(p, o)
	return a.print(cmd, simulation{
		Baseline:        baseline,
		Simulated:       simulated,
		RiskDelta:       simulated.PredictedRisk - baseline.PredictedRisk,
		DecisionChanged: simulated.Decision != baseline.Decision,
	})
}

func (a *app) counterfactuals(ctx context.Context, cmd *cli.Command) error {
	e, err := a.engine(cmd)
	if err != nil {
		return err
	}
	var p risk.ApplicantProfile
	if err := readDocument(cmd.String(profileFlag), &p); err != nil {
		return err
	}
	return a.print(cmd, e.Counterfactuals(p))
}

func (a *app) validateConfig(ctx context.Context, cmd *cli.Command) error {
	if _, err := a.riskConfig(cmd); err != nil {
		return err
	}
	source := cmd.String(configFlag)
	if source == "" {
		source = "builtin defaults"
	}
	fmt.Fprintf(a.out, "risk configuration is valid (%s)\n", source)
	return nil
}

func (a *app) showConfig(ctx context.Context, cmd *cli.Command) error {
	rc, err := a.riskConfig(cmd)
	if err != nil {
		return err
	}
	return a.print(cmd, rc)
}

func (a *app) activities(ctx context.Context, cmd *cli.Command) error {
	reg, err := registry.LoadWithOverrides(cmd.String(registryFlag))
	if err != nil {
		return err
	}
	return a.print(cmd, reg)
}

func (a *app) print(cmd *cli.Command, v interface{}) error {
	if f := cmd.String(outputFlag); f == formatYAML || f == "yml" {
		enc := yaml.NewEncoder(a.out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	}

	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// readDocument decodes a JSON or YAML file into v. YAML is normalized through
// JSON so both formats share the same field names and decimal handling.
func readDocument(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var doc interface{}
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		if data, err = json.Marshal(doc); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
