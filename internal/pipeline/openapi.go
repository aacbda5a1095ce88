package pipeline

import "github.com/JaimeStill/verdant/pkg/openapi"

func cropEnum() []any {
	out := make([]any, len(cropTypes))
	for i, c := range cropTypes {
		out[i] = string(c)
	}
	return out
}

var schemas = map[string]*openapi.Schema{
	"AnalysisFile": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"name":    {Type: "string"},
			"size_mb": {Type: "number"},
			"status":  {Type: "string", Enum: []any{"pending", "analyzed", "skipped"}},
		},
	},
	"AnalysisSession": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"id":        {Type: "string", Format: "uuid"},
			"crop_type": {Type: "string", Enum: cropEnum()},
			"user_id":   {Type: "string"},
			"files":     {Type: "array", Items: openapi.SchemaRef("AnalysisFile")},
			"status":    {Type: "string", Enum: []any{"idle", "uploading", "predicting", "complete", "error"}},
			"progress":  {Type: "integer", Description: "0 to 100"},
			"stage":     {Type: "string", Enum: []any{"capture", "classify", "generate", "persist"}},
			"predictions": {Type: "array", Items: &openapi.Schema{
				Type: "object",
				Properties: map[string]*openapi.Schema{
					"label":       {Type: "string"},
					"probability": {Type: "number"},
				},
			}},
			"result": {
				Type: "object",
				Properties: map[string]*openapi.Schema{
					"label":      {Type: "string"},
					"confidence": {Type: "number"},
				},
			},
			"recommendation": {
				Type: "object",
				Properties: map[string]*openapi.Schema{
					"severity":       {Type: "string", Enum: []any{"Critical", "Medium", "Low", "None"}},
					"treatment_plan": {Type: "string"},
					"key_symptoms":   {Type: "array", Items: &openapi.Schema{Type: "string"}},
				},
			},
		},
	},
	"AnalysisOutcome": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"diagnosis": openapi.SchemaRef("Diagnosis"),
			"location":  {Type: "string", Example: "/dashboard/analysis/3f2b6c1e-8d0a-4c55-9a43-6b1f0e2d7c19"},
			"session":   openapi.SchemaRef("AnalysisSession"),
		},
	},
	"CropTypes": {
		Type:  "array",
		Items: &openapi.Schema{Type: "string", Enum: cropEnum()},
	},
	"ModelStatus": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"loaded": {Type: "boolean"},
			"model": {
				Type: "object",
				Properties: map[string]*openapi.Schema{
					"name":       {Type: "string"},
					"labels":     {Type: "array", Items: &openapi.Schema{Type: "string"}},
					"image_size": {Type: "integer"},
					"tensors":    {Type: "integer"},
					"loaded_at":  {Type: "string", Format: "date-time"},
				},
			},
		},
	},
}
