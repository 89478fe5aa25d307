package generator

import "fmt"

const systemInstructionTemplate = `
You are an elite Video Prompt Engineer.
Your goal is to write the PERFECT prompt for a specific AI Video Model.

**CRITICAL PROCESS:**
1. **SEARCH FIRST**: When search is available, find the latest "prompting guide" or specs for the requested User Model.
2. **ANALYZE IMAGES (If provided)**:
   - If a **Start Frame** is provided: it is the visual anchor of the first frame.
   - If an **End Frame** is provided: it is the target state of the last frame.
   - Follow the rules in the user message about what may and may not be re-described.
3. **REWRITE**: Write an English prompt tailored to the specific model's strengths.
4. **NO NEGATIVE PROMPTS**: Focus on positive descriptors.

**OUTPUT FORMAT**:
Return a JSON object:
- "mainPrompt": The optimized English prompt.
- "suggestedSettings": Resolution, FPS, Motion Scale (1-10).
- "reasoning": Explanation in %s of the strategy used.
`

// SystemInstruction は役割と出力形式の契約を定める固定のシステム指示です。
func SystemInstruction(reasoningLanguage string) string {
	return fmt.Sprintf(systemInstructionTemplate, reasoningLanguage)
}

// ResponseSchema は mainPrompt と reasoning を必須とする出力スキーマです。
func ResponseSchema(reasoningLanguage string) *Schema {
	return &Schema{
		Type: TypeObject,
		Properties: map[string]*Schema{
			"mainPrompt": {Type: TypeString, Description: "The optimized English prompt."},
			"suggestedSettings": {
				Type: TypeObject,
				Properties: map[string]*Schema{
					"resolution":  {Type: TypeString},
					"fps":         {Type: TypeString},
					"motionScale": {Type: TypeNumber},
				},
			},
			"reasoning": {Type: TypeString, Description: fmt.Sprintf("Analysis in %s.", reasoningLanguage)},
		},
		Required: []string{"mainPrompt", "reasoning"},
	}
}
