package prompts

import "github.com/JaimeStill/verdant/pkg/openapi"

var stageEnum = []any{string(StageClassify), string(StageRecommend)}

var schemas = map[string]*openapi.Schema{
	"Prompt": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"id":           {Type: "string", Format: "uuid"},
			"name":         {Type: "string"},
			"stage":        {Type: "string", Enum: stageEnum},
			"instructions": {Type: "string"},
			"description":  {Type: "string"},
			"active":       {Type: "boolean"},
			"created_at":   {Type: "string", Format: "date-time"},
		},
	},
	"CreatePrompt": {
		Type:     "object",
		Required: []string{"name", "stage", "instructions"},
		Properties: map[string]*openapi.Schema{
			"name":         {Type: "string"},
			"stage":        {Type: "string", Enum: stageEnum},
			"instructions": {Type: "string"},
			"description":  {Type: "string"},
		},
	},
	"PromptPage": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"data":        {Type: "array", Items: openapi.SchemaRef("Prompt")},
			"total":       {Type: "integer"},
			"page":        {Type: "integer"},
			"page_size":   {Type: "integer"},
			"total_pages": {Type: "integer"},
		},
	},
	"StageContent": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"stage":   {Type: "string", Enum: stageEnum},
			"content": {Type: "string"},
		},
	},
}
