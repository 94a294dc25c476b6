package analysis

import "fmt"

// analysisPromptTemplate instructs the model to return the exact JSON record
// the Parse contract expects. Keys listed here must stay in sync with the
// Report struct.
const analysisPromptTemplate = `You are a senior code reviewer. Analyze the following source code, fix every
error you find, and respond with ONLY a JSON object - no prose before or
after it. The JSON must contain exactly these keys:

{
  "detected_language": "<language name>",
  "quality_score": <0-100 integer>,
  "maintainability_index": <0-100 integer>,
  "readability_score": <0-100 integer>,
  "integrity_check": "<short verdict on code integrity>",
  "plagiarism_check": "<short verdict on plagiarism likelihood>",
  "error_table": [{"line": <line number>, "error": "<description>"}],
  "final_code": "<the complete corrected code>",
  "target_complexity": "<achievable big-O after optimization>",
  "code_explanation": [{"line": <line number>, "code": "<line of code>", "explanation": "<what it does>"}],
  "complexity": {
    "time":  {"best": "<big-O>", "average": "<big-O>", "worst": "<big-O>", "desc": "<one sentence>"},
    "space": {"best": "<big-O>", "average": "<big-O>", "worst": "<big-O>", "desc": "<one sentence>"}
  }
}

Target language for the corrected code: %s

Source code:
%s`

// chatPromptTemplate wraps a free-form assistant question. The reply is plain
// text, not JSON.
const chatPromptTemplate = `You are a helpful programming assistant for a code analysis workspace.
Answer the user's question clearly and concisely in plain text.

%sUser question: %s`

// BuildAnalysisPrompt renders the structured-task prompt for one code
// submission.
func BuildAnalysisPrompt(code, targetLanguage string) string {
	if targetLanguage == "" {
		targetLanguage = "same as the detected language"
	}
	return fmt.Sprintf(analysisPromptTemplate, targetLanguage, code)
}

// BuildChatPrompt renders the free-text chat prompt, including the user's
// current editor contents when provided.
func BuildChatPrompt(message, codeContext string) string {
	contextBlock := ""
	if codeContext != "" {
		contextBlock = fmt.Sprintf("The user is currently working on this code:\n```\n%s\n```\n\n", codeContext)
	}
	return fmt.Sprintf(chatPromptTemplate, contextBlock, message)
}
