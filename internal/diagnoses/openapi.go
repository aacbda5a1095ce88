package diagnoses

import "github.com/JaimeStill/verdant/pkg/openapi"

var severityEnum = []any{"Critical", "Medium", "Low", "None"}

var schemas = map[string]*openapi.Schema{
	"Diagnosis": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"id":             {Type: "string", Format: "uuid"},
			"user_id":        {Type: "string"},
			"crop_name":      {Type: "string"},
			"confidence":     {Type: "number", Description: "Top probability in percent, one decimal place"},
			"diagnosis":      {Type: "string"},
			"severity":       {Type: "string", Enum: severityEnum},
			"treatment_plan": {Type: "string"},
			"key_symptoms":   {Type: "array", Items: &openapi.Schema{Type: "string"}},
			"image_key":      {Type: "string"},
			"model_name":     {Type: "string"},
			"created_at":     {Type: "string", Format: "date-time"},
		},
	},
	"DiagnosisPage": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"data":        {Type: "array", Items: openapi.SchemaRef("Diagnosis")},
			"total":       {Type: "integer"},
			"page":        {Type: "integer"},
			"page_size":   {Type: "integer"},
			"total_pages": {Type: "integer"},
		},
	},
	"DiagnosisSearch": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"page":           {Type: "integer"},
			"page_size":      {Type: "integer"},
			"search":         {Type: "string"},
			"sort":           {Type: "string", Example: "-created_at"},
			"severity":       {Type: "string", Enum: severityEnum},
			"crop_name":      {Type: "string"},
			"diagnosis":      {Type: "string"},
			"created_after":  {Type: "string", Format: "date-time"},
			"created_before": {Type: "string", Format: "date-time"},
		},
	},
}
