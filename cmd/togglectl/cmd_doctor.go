package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/adminkit/toggle/client"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose configuration and connectivity",
		Long:  "Run diagnostic checks against config, server, readiness and auth",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor()
		},
	}
}

type checkResult struct {
	Name   string
	Passed bool
	Detail string
	Hint   string
}

func runDoctor() error {
	fmt.Println("\ntogglectl doctor")
	fmt.Println("================")

	results := doctorChecks()

	fmt.Println()
	allPassed := true
	for _, r := range results {
		mark := "✅"
		if !r.Passed {
			mark = "❌"
			allPassed = false
		}
		if r.Detail != "" {
			fmt.Printf("%s %s: %s\n", mark, r.Name, r.Detail)
		} else {
			fmt.Printf("%s %s\n", mark, r.Name)
		}
		if !r.Passed && r.Hint != "" {
			fmt.Printf("   Hint: %s\n", r.Hint)
		}
	}

	fmt.Println()
	if !allPassed {
		fmt.Println("❌ Some checks failed.")
		return fmt.Errorf("doctor found issues")
	}
	fmt.Println("✅ All checks passed!")

	return nil
}

func doctorChecks() []checkResult {
	var results []checkResult

	cfgPath, cfg, cfgErr := loadProfiles()
	if cfgErr != nil {
		results = append(results, checkResult{
			Name: "Config file", Passed: false,
			Detail: cfgPath,
			Hint:   "Run: togglectl init",
		})
	} else {
		results = append(results, checkResult{
			Name: "Config file", Passed: true,
			Detail: fmt.Sprintf("found (%s)", cfgPath),
		})
	}

	url, apiKey := resolveSettings(cfg)
	results = append(results, checkResult{Name: "Server URL", Passed: true, Detail: url})

	if apiKey == "" {
		results = append(results, checkResult{
			Name: "API key", Passed: false,
			Hint: "Set --api-key, TOGGLE_API_KEY, or run togglectl init",
		})
	} else {
		results = append(results, checkResult{Name: "API key", Passed: true, Detail: "configured"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c := client.New(url, client.WithAPIKey(apiKey))

	health, err := c.Health(ctx)
	if err != nil {
		return append(results, checkResult{
			Name: "Server reachable", Passed: false,
			Detail: url,
			Hint:   fmt.Sprintf("Is toggled running? Error: %v", err),
		})
	}
	results = append(results, checkResult{Name: "Server reachable", Passed: true, Detail: health.Version})

	ready, err := c.Ready(ctx)
	switch {
	case err == nil:
		res := checkResult{Name: "Server ready", Passed: true}
		if ready.Pool != nil {
			res.Detail = fmt.Sprintf("pool %d/%d in use", ready.Pool.Acquired, ready.Pool.Total)
		}
		results = append(results, res)
	case ready != nil:
		results = append(results, checkResult{
			Name: "Server ready", Passed: false,
			Detail: fmt.Sprintf("%v", ready.Checks),
			Hint:   "Check the server's database, schema and redis",
		})
	default:
		results = append(results, checkResult{Name: "Server ready", Passed: false, Hint: err.Error()})
	}

	if apiKey != "" {
		if _, _, err := c.Audit.Query(ctx, &client.AuditQueryOptions{Limit: 1}); err != nil {
			hint := fmt.Sprintf("Error: %v", err)
			if client.IsUnauthorized(err) {
				hint = "The key was not accepted by any allowed guard. Check it with: toggled apikey create"
			}
			results = append(results, checkResult{Name: "Authentication", Passed: false, Hint: hint})
		} else {
			results = append(results, checkResult{Name: "Authentication", Passed: true, Detail: "valid"})
		}
	}

	return results
}
