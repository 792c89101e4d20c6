package providers

import "fmt"

// DefaultSystemPrompt 是代码生成的默认系统提示词，可在设置中覆盖。
const DefaultSystemPrompt = "You are a helpful assistant that generates Python code for Rhino 8. " +
	"Return ONLY executable code without explanations or markdown formatting."

// userMessageTemplate 固定了代码生成规则集；%s 依次为单位制与用户提示。
const userMessageTemplate = `Document settings:
- Units: %[1]s

IMPORTANT:
- Return ONLY executable Python code
- DO NOT include any explanations or comments
- Work with the current unit system (%[1]s)
- DO NOT use functions or classes
- ALL numeric values MUST be declared as variables with '_value' suffix
- ALL variable declarations MUST be at the start of the script
- Convert any measurements in the prompt to %[1]s

Generate code for: %[2]s`

// BuildUserMessage 组装携带文档单位制与生成规则集的用户消息。
func BuildUserMessage(units, prompt string) string {
	if units == "" {
		units = "millimeters"
	}
	return fmt.Sprintf(userMessageTemplate, units, prompt)
}
