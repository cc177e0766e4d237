package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var engineCmd = &cobra.Command{
	Use:   "engine",
	Short: "Inspect or toggle the dispatch engine",
}

func init() {
	engineCmd.AddCommand(engineStatusCmd)
	engineCmd.AddCommand(engineActivateCmd)
	engineCmd.AddCommand(engineDeactivateCmd)
}

var engineStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the activation gate state",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		client := mustClient()
		data, err := client.Get("/api/v1/engine")
		if err != nil {
			return err
		}
		var resp EngineStatusResponse
		if err := unmarshal(data, &resp); err != nil {
			return err
		}
		printEngineStatus(resp)
		return nil
	},
}

var engineActivateCmd = &cobra.Command{
	Use:   "activate",
	Short: "Open the activation gate",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		return setEngineActive(true)
	},
}

var engineDeactivateCmd = &cobra.Command{
	Use:   "deactivate",
	Short: "Close the activation gate; entry points become no-ops",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		return setEngineActive(false)
	},
}

func setEngineActive(active bool) error {
	client := mustClient()
	data, err := client.Put("/api/v1/engine", map[string]any{"active": active})
	if err != nil {
		return err
	}
	var resp EngineStatusResponse
	if err := unmarshal(data, &resp); err != nil {
		return err
	}
	printEngineStatus(resp)
	return nil
}

func printEngineStatus(resp EngineStatusResponse) {
	switch flagOutput {
	case outputJSON:
		printJSON(resp)
	case outputYAML:
		printYAML(resp)
	default:
		state := "inactive"
		if resp.Active {
			state = "active"
		}
		fmt.Printf("Engine: %s\n", state)
	}
}

var (
	flagFireType    string
	flagFirePayload string
	flagFireFile    string
)

func init() {
	fireCmd.Flags().StringVar(&flagFireType, "type", "", "Event type to fire (required)")
	fireCmd.Flags().StringVar(&flagFirePayload, "payload", "", "Inline JSON payload")
	fireCmd.Flags().StringVar(&flagFireFile, "file", "", "Read JSON payload from file")
	_ = fireCmd.MarkFlagRequired("type")
}

var fireCmd = &cobra.Command{
	Use:   "fire",
	Short: "Fire a test event through the dispatch pipeline",
	Long: `Fire submits a test event to the task substrate exactly as a real
event firing would, so subscriptions can be verified end to end
without mutating commerce state.`,
	Args: cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		payload := []byte(flagFirePayload)
		if flagFireFile != "" {
			data, err := os.ReadFile(flagFireFile)
			if err != nil {
				return fmt.Errorf("read payload file: %w", err)
			}
			payload = data
		}
		if len(payload) == 0 {
			return fmt.Errorf("a payload is required: pass --payload or --file")
		}
		if !json.Valid(payload) {
			return fmt.Errorf("payload is not valid JSON")
		}

		client := mustClient()
		_, err := client.Post("/api/v1/events/test", map[string]any{
			"event_type": flagFireType,
			"payload":    json.RawMessage(payload),
		})
		if err != nil {
			return err
		}

		fmt.Printf("Event %s queued for delivery.\n", flagFireType)
		return nil
	},
}
