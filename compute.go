package main

import (
	"encoding/json"
	"os"

	"github.com/Unaro/excel-analytics-sub001/csv"
	"github.com/Unaro/excel-analytics-sub001/dashboard"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"hermannm.dev/devlog/log"
	"hermannm.dev/wrap"
)

func newComputeCommand() *cobra.Command {
	var dataPath, configPath string

	cmd := &cobra.Command{
		Use:   "compute",
		Short: "Compute a dashboard over a CSV file and print the result as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := setup()
			if err != nil {
				return err
			}

			computer, err := newComputer(conf.Compute)
			if err != nil {
				log.ErrorCause(err, "failed to set up computation")
				return err
			}

			request, err := readDashboardRequest(dataPath, configPath)
			if err != nil {
				log.ErrorCause(err, "failed to read dashboard")
				return err
			}

			response, err := computer.Compute(cmd.Context(), request)
			if err != nil {
				log.ErrorCause(err, "failed to compute dashboard")
				return err
			}

			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			return encoder.Encode(response)
		},
	}

	cmd.Flags().StringVar(&dataPath, "data", "", "CSV file with the rows to compute over")
	cmd.Flags().StringVar(
		&configPath,
		"config",
		"",
		"YAML or JSON file with the dashboard configuration (groups, templates, virtual metrics, filters)",
	)
	_ = cmd.MarkFlagRequired("data")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}

// Reads the dashboard configuration from a YAML file (JSON being a subset of YAML), and the rows
// from a CSV file with a header row.
func readDashboardRequest(dataPath string, configPath string) (dashboard.Request, error) {
	configFile, err := os.ReadFile(configPath)
	if err != nil {
		return dashboard.Request{}, wrap.Error(err, "failed to read dashboard config file")
	}

	// The request types only carry JSON tags, so the YAML document goes through JSON
	var decoded any
	if err := yaml.Unmarshal(configFile, &decoded); err != nil {
		return dashboard.Request{}, wrap.Error(err, "failed to parse dashboard config file")
	}
	configJSON, err := json.Marshal(decoded)
	if err != nil {
		return dashboard.Request{}, wrap.Error(err, "dashboard config is not representable as JSON")
	}

	var request dashboard.Request
	if err := json.Unmarshal(configJSON, &request); err != nil {
		return dashboard.Request{}, wrap.Error(err, "invalid dashboard config")
	}

	dataFile, err := os.Open(dataPath)
	if err != nil {
		return dashboard.Request{}, wrap.Error(err, "failed to open data file")
	}
	defer dataFile.Close()

	_, rows, err := csv.ReadDataset(dataFile)
	if err != nil {
		return dashboard.Request{}, wrap.Errorf(err, "failed to read rows from '%s'", dataPath)
	}
	request.Data = rows

	return request, nil
}
