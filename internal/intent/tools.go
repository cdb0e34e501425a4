package intent

import "github.com/jeiary/jeiary/internal/ollama"

// Tool names the model may select. Kept as constants so coercion and tests
// reference one spelling.
const (
	toolCreateSchedule = "CreateSchedule"
	toolUpdateSchedule = "UpdateSchedule"
	toolDeleteSchedule = "DeleteSchedule"
	toolGeneralChat    = "GeneralChat"
)

// toolSchemas returns the four tool definitions bound to the routing call.
func toolSchemas() []ollama.Tool {
	return []ollama.Tool{
		{
			Type: "function",
			Function: ollama.ToolFunction{
				Name:        toolCreateSchedule,
				Description: "Create a new calendar entry. Use when the user clearly asks to add, book, or schedule something.",
				Parameters: ollama.ToolParams{
					Type: "object",
					Properties: map[string]ollama.ToolParameter{
						"title":      {Type: "string", Description: "Short title of the schedule, e.g. 'lunch with Sam'"},
						"date":       {Type: "string", Description: "Date in YYYY-MM-DD format"},
						"start_time": {Type: "string", Description: "Start time in 24-hour HH:MM format"},
						"end_time":   {Type: "string", Description: "End time in 24-hour HH:MM format. If the user didn't say, use start time plus one hour."},
						"content":    {Type: "string", Description: "Optional details, location, or notes"},
					},
					Required: []string{"title", "date", "start_time", "end_time"},
				},
			},
		},
		{
			Type: "function",
			Function: ollama.ToolFunction{
				Name:        toolUpdateSchedule,
				Description: "Modify an existing calendar entry. Use when the user asks to move, rename, or change a schedule.",
				Parameters: ollama.ToolParams{
					Type: "object",
					Properties: map[string]ollama.ToolParameter{
						"search_keyword": {Type: "string", Description: "Keyword to find the schedule to change, e.g. 'lunch', 'meeting'"},
						"date":           {Type: "string", Description: "Date of the schedule to change, YYYY-MM-DD"},
						"title":          {Type: "string", Description: "New title, if changing"},
						"start_time":     {Type: "string", Description: "New start time HH:MM, if changing"},
						"end_time":       {Type: "string", Description: "New end time HH:MM, if changing"},
						"content":        {Type: "string", Description: "New details, if changing"},
					},
				},
			},
		},
		{
			Type: "function",
			Function: ollama.ToolFunction{
				Name:        toolDeleteSchedule,
				Description: "Cancel an existing calendar entry. Use when the user asks to delete or cancel a schedule.",
				Parameters: ollama.ToolParams{
					Type: "object",
					Properties: map[string]ollama.ToolParameter{
						"search_keyword": {Type: "string", Description: "Keyword to find the schedule to cancel"},
						"date":           {Type: "string", Description: "Date of the schedule to cancel, YYYY-MM-DD"},
					},
				},
			},
		},
		{
			Type: "function",
			Function: ollama.ToolFunction{
				Name:        toolGeneralChat,
				Description: "Use for greetings, small talk, questions, and anything unrelated to managing schedules.",
				Parameters: ollama.ToolParams{
					Type: "object",
					Properties: map[string]ollama.ToolParameter{
						"response": {Type: "string", Description: "A natural reply to the user"},
					},
				},
			},
		},
	}
}
