package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	flagWebhookApp    string
	flagWebhookName   string
	flagWebhookURL    string
	flagWebhookEvents string
)

func init() {
	createWebhookCmd.Flags().StringVar(&flagWebhookApp, "app", "", "Owning app id (required)")
	createWebhookCmd.Flags().StringVar(&flagWebhookName, "name", "", "Webhook name")
	createWebhookCmd.Flags().StringVar(&flagWebhookURL, "url", "", "Delivery target URL (required)")
	createWebhookCmd.Flags().StringVar(&flagWebhookEvents, "events", "", "Comma-separated event types (required)")
	_ = createWebhookCmd.MarkFlagRequired("app")
	_ = createWebhookCmd.MarkFlagRequired("url")
	_ = createWebhookCmd.MarkFlagRequired("events")

	updateWebhookCmd.Flags().StringVar(&flagWebhookName, "name", "", "New webhook name")
	updateWebhookCmd.Flags().StringVar(&flagWebhookURL, "url", "", "New delivery target URL")
	updateWebhookCmd.Flags().StringVar(&flagWebhookEvents, "events", "", "New comma-separated event types")
}

var createWebhookCmd = &cobra.Command{
	Use:   "create-webhook",
	Short: "Register a new webhook subscription",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		client := mustClient()

		body := map[string]any{
			"app_id":      flagWebhookApp,
			"target_url":  flagWebhookURL,
			"event_types": splitEvents(flagWebhookEvents),
		}
		if flagWebhookName != "" {
			body["name"] = flagWebhookName
		}

		data, err := client.Post("/api/v1/webhooks", body)
		if err != nil {
			return err
		}
		var wh WebhookResponse
		if err := unmarshal(data, &wh); err != nil {
			return err
		}

		fmt.Printf("Webhook %s created.\n", wh.ID)
		return printWebhooks([]WebhookResponse{wh}, nil)
	},
}

var updateWebhookCmd = &cobra.Command{
	Use:   "update-webhook <id>",
	Short: "Update a webhook subscription",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := mustClient()

		body := map[string]any{}
		if cmd.Flags().Changed("name") {
			body["name"] = flagWebhookName
		}
		if cmd.Flags().Changed("url") {
			body["target_url"] = flagWebhookURL
		}
		if cmd.Flags().Changed("events") {
			body["event_types"] = splitEvents(flagWebhookEvents)
		}
		if len(body) == 0 {
			return fmt.Errorf("nothing to update: pass --name, --url, or --events")
		}

		data, err := client.Put("/api/v1/webhooks/"+args[0], body)
		if err != nil {
			return err
		}
		var wh WebhookResponse
		if err := unmarshal(data, &wh); err != nil {
			return err
		}
		return printWebhooks([]WebhookResponse{wh}, nil)
	},
}

var deleteWebhookCmd = &cobra.Command{
	Use:   "delete-webhook <id>",
	Short: "Delete a webhook subscription",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		client := mustClient()
		if err := client.Delete("/api/v1/webhooks/" + args[0]); err != nil {
			return err
		}
		fmt.Printf("Webhook %s deleted.\n", args[0])
		return nil
	},
}

var enableWebhookCmd = &cobra.Command{
	Use:   "enable-webhook <id>",
	Short: "Enable a webhook subscription",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		return setWebhookActive(args[0], true)
	},
}

var disableWebhookCmd = &cobra.Command{
	Use:   "disable-webhook <id>",
	Short: "Disable a webhook subscription",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		return setWebhookActive(args[0], false)
	},
}

func setWebhookActive(id string, active bool) error {
	client := mustClient()

	action := "disable"
	if active {
		action = "enable"
	}

	data, err := client.Post("/api/v1/webhooks/"+id+"/"+action, nil)
	if err != nil {
		return err
	}
	var wh WebhookResponse
	if err := unmarshal(data, &wh); err != nil {
		return err
	}
	return printWebhooks([]WebhookResponse{wh}, nil)
}

func splitEvents(s string) []string {
	parts := strings.Split(s, ",")
	events := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			events = append(events, trimmed)
		}
	}
	return events
}
