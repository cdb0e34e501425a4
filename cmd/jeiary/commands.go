package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jeiary/jeiary/internal/config"
	"github.com/jeiary/jeiary/internal/storage"
)

// --- chat ---

var chatCmd = &cobra.Command{
	Use:   "chat <message>",
	Short: "Send one message to the assistant",
	Long: `Send one natural-language message through the assistant.

Examples:
  jeiary chat "add a team lunch tomorrow from 12:00 to 13:00"
  jeiary chat "what should I cook for dinner?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		message := strings.Join(args, " ")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post("/v1/ai/chat", map[string]string{"message": message})
		if err != nil {
			return err
		}

		var result struct {
			Reply    string `json:"reply"`
			Schedule *struct {
				ID    string `json:"id"`
				Title string `json:"title"`
				Date  string `json:"date"`
			} `json:"schedule"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		fmt.Println(result.Reply)
		if result.Schedule != nil {
			printSuccess("Saved schedule %s", result.Schedule.ID)
		}
		return nil
	},
}

// --- parse ---

var parseCmd = &cobra.Command{
	Use:   "parse <text>",
	Short: "Extract schedule fields from text without saving",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.Join(args, " ")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post("/v1/ai/parse", map[string]string{"text": text})
		if err != nil {
			return err
		}

		var result struct {
			Schedule *struct {
				Title     string `json:"title"`
				Date      string `json:"date"`
				StartTime string `json:"start_time"`
				EndTime   string `json:"end_time"`
				Content   string `json:"content"`
			} `json:"schedule"`
			Clarification string `json:"clarification"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		if result.Clarification != "" {
			fmt.Println(result.Clarification)
			return nil
		}
		sc := result.Schedule
		printStatus("Title", "%s", sc.Title)
		printStatus("Date", "%s", sc.Date)
		printStatus("Time", "%s ~ %s", sc.StartTime, sc.EndTime)
		if sc.Content != "" {
			printStatus("Content", "%s", sc.Content)
		}
		return nil
	},
}

// --- schedule ---

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Manage schedules directly",
}

var scheduleListCmd = &cobra.Command{
	Use:   "list",
	Short: "List schedules for a date or a month",
	RunE: func(cmd *cobra.Command, args []string) error {
		date, _ := cmd.Flags().GetString("date")
		year, _ := cmd.Flags().GetInt("year")
		month, _ := cmd.Flags().GetInt("month")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		var path string
		switch {
		case date != "":
			path = "/v1/schedules?date=" + date
		case year != 0 && month != 0:
			path = fmt.Sprintf("/v1/schedules?year=%d&month=%d", year, month)
		default:
			path = "/v1/schedules?date=" + time.Now().Format("2006-01-02")
		}

		resp, err := client.get(path)
		if err != nil {
			return err
		}

		var result struct {
			Schedules []struct {
				ID        string `json:"id"`
				Title     string `json:"title"`
				Date      string `json:"date"`
				StartTime string `json:"start_time"`
				EndTime   string `json:"end_time"`
			} `json:"schedules"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		if len(result.Schedules) == 0 {
			fmt.Println("No schedules found.")
			return nil
		}
		for _, sc := range result.Schedules {
			fmt.Printf("%s  %s  %s ~ %s  %s\n",
				colorize(colorCyan, sc.ID[:8]),
				sc.Date,
				sc.StartTime,
				sc.EndTime,
				sc.Title,
			)
		}
		return nil
	},
}

var scheduleAddCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Create a schedule",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		date, _ := cmd.Flags().GetString("date")
		start, _ := cmd.Flags().GetString("start")
		end, _ := cmd.Flags().GetString("end")
		content, _ := cmd.Flags().GetString("content")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post("/v1/schedules", map[string]string{
			"title":      strings.Join(args, " "),
			"date":       date,
			"start_time": start,
			"end_time":   end,
			"content":    content,
		})
		if err != nil {
			return err
		}

		var result struct {
			ID string `json:"id"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printSuccess("Created schedule %s", result.ID)
		return nil
	},
}

var scheduleDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a schedule by ID",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.delete("/v1/schedules/" + args[0])
		if err != nil {
			return err
		}

		var result map[string]string
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printSuccess("Deleted schedule %s", args[0])
		return nil
	},
}

func init() {
	scheduleListCmd.Flags().String("date", "", "list schedules on this date (YYYY-MM-DD)")
	scheduleListCmd.Flags().Int("year", 0, "list schedules in this year (with --month)")
	scheduleListCmd.Flags().Int("month", 0, "list schedules in this month (with --year)")
	scheduleAddCmd.Flags().String("date", "", "date (YYYY-MM-DD)")
	scheduleAddCmd.Flags().String("start", "", "start time (HH:MM)")
	scheduleAddCmd.Flags().String("end", "", "end time (HH:MM)")
	scheduleAddCmd.Flags().String("content", "", "optional notes")
	scheduleCmd.AddCommand(scheduleListCmd)
	scheduleCmd.AddCommand(scheduleAddCmd)
	scheduleCmd.AddCommand(scheduleDeleteCmd)
}

// --- notifications ---

var notificationsCmd = &cobra.Command{
	Use:   "notifications",
	Short: "List recent notifications",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get("/v1/notifications")
		if err != nil {
			return err
		}

		var result struct {
			Notifications []struct {
				ID        string `json:"id"`
				Type      string `json:"type"`
				Content   string `json:"content"`
				IsRead    bool   `json:"is_read"`
				CreatedAt string `json:"created_at"`
			} `json:"notifications"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		if len(result.Notifications) == 0 {
			fmt.Println("No notifications.")
			return nil
		}
		for _, n := range result.Notifications {
			marker := " "
			if !n.IsRead {
				marker = colorize(colorBold, "*")
			}
			fmt.Printf("%s %s  %s  %s\n", marker, colorize(colorCyan, n.ID[:8]), n.Type, n.Content)
		}
		return nil
	},
}

// --- user ---

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage local accounts",
}

// userCreateCmd writes straight to storage because a fresh install has no
// token to call the API with.
var userCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create an account and print its API token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		store, err := storage.Open(cfg.Storage.DataDir)
		if err != nil {
			return fmt.Errorf("opening storage: %w", err)
		}
		defer store.Close()

		u := storage.User{
			ID:        uuid.New().String(),
			Name:      args[0],
			Token:     uuid.New().String(),
			CreatedAt: time.Now(),
		}
		if err := store.CreateUser(u); err != nil {
			return fmt.Errorf("creating user: %w", err)
		}

		printSuccess("Created user %s (%s)", u.Name, u.ID)
		fmt.Printf("export JEIARY_TOKEN=%s\n", u.Token)
		return nil
	},
}

func init() {
	userCmd.AddCommand(userCreateCmd)
}
