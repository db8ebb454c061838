package optimizer

import (
	"fmt"
	"strings"
)

// DefaultPromptTemplate takes, in order: resume text, job description,
// comma-joined missing keywords and newline-joined suggestions.
const DefaultPromptTemplate = `You are an ATS resume optimization assistant.

Rewrite the following resume to match the job description **without inventing fake experiences**.

Rules:
- Keep only real experience
- Add missing keywords naturally where appropriate
- Improve phrasing and structure
- Add measurable achievements where possible (but realistic)
- Maintain professional ATS-friendly formatting (plain text)
- Fix structure issues (skills, summary, education, experience)
- DO NOT hallucinate new jobs, dates, or education

Resume:
%s

Job Description:
%s

Missing Keywords:
%s

Structural + improvement suggestions:
%s

Return output in this JSON format:
{
  "resume": "...optimized resume text...",
  "changes": ["change1", "change2"]
}`

const templateSlots = 4

// ValidateTemplate checks that a custom template has exactly the four %s
// slots BuildPrompt fills and no other formatting verbs.
func ValidateTemplate(tpl string) error {
	if strings.TrimSpace(tpl) == "" {
		return fmt.Errorf("prompt template is empty")
	}
	if n := strings.Count(tpl, "%s"); n != templateSlots {
		return fmt.Errorf("prompt template needs %d %%s placeholders, found %d", templateSlots, n)
	}
	out := fmt.Sprintf(tpl, "", "", "", "")
	if strings.Contains(out, "%!") {
		return fmt.Errorf("prompt template contains formatting verbs other than %%s")
	}
	return nil
}

// BuildPrompt fills tpl with the rewrite inputs
func BuildPrompt(tpl, resume, jobDescription string, missing, suggestions []string) string {
	return fmt.Sprintf(tpl,
		resume,
		jobDescription,
		strings.Join(missing, ", "),
		strings.Join(suggestions, "\n"))
}
