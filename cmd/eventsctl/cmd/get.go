package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

var (
	flagPage      int
	flagPerPage   int
	flagAppID     string
	flagEventType string
	flagStatus    string
)

var getCmd = &cobra.Command{
	Use:   "get",
	Short: "Display one or many resources",
}

func init() {
	getCmd.PersistentFlags().IntVar(&flagPage, "page", 1, "Page number")
	getCmd.PersistentFlags().IntVar(&flagPerPage, "per-page", 20, "Results per page")

	getWebhooksCmd.Flags().StringVar(&flagAppID, "app", "", "Filter by owning app id")
	getWebhooksCmd.Flags().StringVar(&flagEventType, "event-type", "", "Filter by subscribed event type")
	getDeliveriesCmd.Flags().StringVar(&flagStatus, "status", "", "Filter by delivery status: pending, success, failed")

	getCmd.AddCommand(getWebhooksCmd)
	getCmd.AddCommand(getDeliveriesCmd)
	getCmd.AddCommand(getAppsCmd)
	getCmd.AddCommand(getEventTypesCmd)
}

var getWebhooksCmd = &cobra.Command{
	Use:   "webhooks [id]",
	Short: "List webhooks, or show one by id",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		client := mustClient()

		if len(args) == 1 {
			data, err := client.Get("/api/v1/webhooks/" + args[0])
			if err != nil {
				return err
			}
			var wh WebhookResponse
			if err := unmarshal(data, &wh); err != nil {
				return err
			}
			return printWebhooks([]WebhookResponse{wh}, nil)
		}

		query := fmt.Sprintf("?page=%d&per_page=%d", flagPage, flagPerPage)
		if flagAppID != "" {
			query += "&app_id=" + flagAppID
		}
		if flagEventType != "" {
			query += "&event_type=" + flagEventType
		}

		data, err := client.Get("/api/v1/webhooks" + query)
		if err != nil {
			return err
		}
		var resp WebhookListResponse
		if err := unmarshal(data, &resp); err != nil {
			return err
		}
		return printWebhooks(resp.Data, &resp)
	},
}

func printWebhooks(hooks []WebhookResponse, list *WebhookListResponse) error {
	switch flagOutput {
	case outputJSON:
		if list != nil {
			printJSON(list)
		} else {
			printJSON(hooks[0])
		}
	case outputYAML:
		if list != nil {
			printYAML(list)
		} else {
			printYAML(hooks[0])
		}
	default:
		t := newTable("ID", "APP", "TARGET", "ACTIVE", "EVENTS", "CREATED")
		for _, wh := range hooks {
			t.AddRow(
				wh.ID,
				wh.AppID,
				wh.TargetURL,
				boolToStr(wh.IsActive),
				strconv.Itoa(len(wh.EventTypes)),
				shortTime(wh.CreatedAt),
			)
		}
		t.Flush()
		if list != nil {
			printPagination(list.Total, list.Page, list.PerPage, list.TotalPages)
		}
	}
	return nil
}

var getDeliveriesCmd = &cobra.Command{
	Use:   "deliveries <webhook-id>",
	Short: "List delivery attempts for a webhook",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		client := mustClient()

		query := fmt.Sprintf("?page=%d&per_page=%d", flagPage, flagPerPage)
		if flagStatus != "" {
			query += "&status=" + flagStatus
		}

		data, err := client.Get("/api/v1/webhooks/" + args[0] + "/deliveries" + query)
		if err != nil {
			return err
		}
		var resp DeliveryListResponse
		if err := unmarshal(data, &resp); err != nil {
			return err
		}

		switch flagOutput {
		case outputJSON:
			printJSON(resp)
		case outputYAML:
			printYAML(resp)
		default:
			t := newTable("ID", "EVENT", "STATUS", "CODE", "ATTEMPT", "DURATION", "CREATED")
			for _, d := range resp.Data {
				code := "-"
				if d.ResponseCode != nil {
					code = strconv.Itoa(*d.ResponseCode)
				}
				duration := "-"
				if d.DurationMs != nil {
					duration = strconv.FormatInt(*d.DurationMs, 10) + "ms"
				}
				t.AddRow(d.ID, d.EventType, d.Status, code, strconv.Itoa(d.Attempt), duration, shortTime(d.CreatedAt))
			}
			t.Flush()
			printPagination(resp.Total, resp.Page, resp.PerPage, resp.TotalPages)
		}
		return nil
	},
}

var getAppsCmd = &cobra.Command{
	Use:   "apps",
	Short: "List installed apps",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		client := mustClient()

		data, err := client.Get("/api/v1/apps")
		if err != nil {
			return err
		}
		var apps []AppResponse
		if err := unmarshal(data, &apps); err != nil {
			return err
		}

		switch flagOutput {
		case outputJSON:
			printJSON(apps)
		case outputYAML:
			printYAML(apps)
		default:
			t := newTable("ID", "NAME", "ACTIVE", "GATEWAY", "CREATED")
			for _, a := range apps {
				t.AddRow(a.ID, a.Name, boolToStr(a.IsActive), a.GatewayID, shortTime(a.CreatedAt))
			}
			t.Flush()
		}
		return nil
	},
}

var getEventTypesCmd = &cobra.Command{
	Use:   "event-types",
	Short: "List supported event types",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		client := mustClient()

		data, err := client.Get("/api/v1/events/types")
		if err != nil {
			return err
		}
		var resp EventTypesResponse
		if err := unmarshal(data, &resp); err != nil {
			return err
		}

		switch flagOutput {
		case outputJSON:
			printJSON(resp)
		case outputYAML:
			printYAML(resp)
		default:
			fmt.Println(strings.Join(resp.EventTypes, "\n"))
		}
		return nil
	},
}
