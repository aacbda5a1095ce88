package prompts

const classifySpec = `Respond with a single JSON object and nothing else. Each key is one of the labels listed in the prompt, spelled exactly as given, and each value is a number between 0 and 1:

{
  "<label 1>": <probability>,
  "<label 2>": <probability>
}

Constraints:
- Include every label exactly once
- Do not invent labels that are not in the list
- Probabilities should sum to approximately 1`

const recommendSpec = `Respond with a JSON object exactly like this (no extra text):

{
  "severity": "",
  "treatment_plan": "",
  "key_symptoms": []
}

Field constraints:
- severity: must be one of "Critical", "Medium", "Low", "None".
  Critical = crop loss likely without immediate treatment.
  Medium = treatment needed within days.
  Low = monitor and treat if it spreads.
  None = healthy leaf, no treatment needed.
- treatment_plan: non-empty plain text describing concrete steps,
  products, and application rates.
- key_symptoms: array of short strings naming visible symptoms; an
  empty array when the leaf is healthy.

Fill the fields based on the prediction.`

var specs = map[Stage]string{
	StageClassify:  classifySpec,
	StageRecommend: recommendSpec,
}

// Spec returns the output specification appended to a stage's
// instructions. Specifications are fixed because the pipeline parses the
// model output against them.
func Spec(stage Stage) (string, error) {
	text, ok := specs[stage]
	if !ok {
		return "", ErrInvalidStage
	}
	return text, nil
}
