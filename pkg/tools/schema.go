package tools

import "github.com/aretw0/canopy/pkg/domain"

// Names returns the operation names in a stable order.
func Names() []string {
	return []string{OpHistory, OpDescribe, OpChildren, OpParents}
}

// Definitions returns the schemas of the four operations, as offered to the model.
func Definitions() []domain.Tool {
	pathParam := func(desc string) map[string]any {
		return map[string]any{"type": "string", "description": desc}
	}

	return []domain.Tool{
		{
			Name:        OpHistory,
			Description: "Get the recent message history of a topic, oldest first.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"path": pathParam("Full topic path, e.g. home/bedroom/lamp"),
					"limit": map[string]any{
						"type":        "integer",
						"description": "Number of most recent messages to return (default 10, max 20)",
						"minimum":     1,
						"maximum":     HistoryMaxLimit,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        OpDescribe,
			Description: "Describe a topic: current value, retained flag, message count and child count.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"path": pathParam("Full topic path"),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        OpChildren,
			Description: "List the direct children of a topic. An empty path lists the top-level topics.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"path": pathParam("Full topic path; empty for the root"),
					"limit": map[string]any{
						"type":        "integer",
						"description": "Maximum number of children to return (default 20, max 50)",
						"minimum":     1,
						"maximum":     ChildrenMaxLimit,
					},
				},
			},
		},
		{
			Name:        OpParents,
			Description: "Show the ancestor hierarchy of a topic, from the top level down to the topic.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"path": pathParam("Full topic path"),
				},
				"required": []string{"path"},
			},
		},
	}
}
