package ai

import (
	"fmt"
	"strings"
)

// Input limits applied before text is placed in a prompt
const (
	maxAnalysisInputChars = 10000
	maxRephraseJDChars    = 5000
)

// DefaultRephraseInstruction is used when a rephrase request names none
const DefaultRephraseInstruction = "Optimize for impact and relevance to JD."

// DefaultSystemPrompts are the system instructions per operation
var DefaultSystemPrompts = map[string]string{
	"optimize": `You are an ATS resume optimization assistant with a strict commitment to honesty.

- NEVER invent employers, job titles, dates, degrees or certifications
- Only add a keyword when the resume already shows the matching skill or experience
- Keep formatting plain text so applicant tracking systems can read it`,

	"analyze": `You are an expert Resume Analyzer and ATS Optimization Specialist.
You compare resumes with job descriptions and report scores and gaps as raw JSON only.`,

	"rephrase": `You are an expert Resume Editor committed to "Ethical Optimization".
You rephrase resume content to align with a job description while strictly maintaining factual accuracy.`,
}

// DefaultAnalyzePrompt takes the job description then the resume
const DefaultAnalyzePrompt = `Analyze the following Resume against the Job Description (JD).

JOB DESCRIPTION:
%s

RESUME:
%s

Perform a deep gap analysis and scoring based on these criteria:
1. Keyword Coverage (0-100): Are critical hard skills and tools present?
2. Semantic Similarity (0-100): Does the resume convey the same meaning/context?
3. Seniority Match (0-100): Does the experience level align?

Return the output STRICTLY in this JSON format (no markdown formatting, just raw JSON):
{
  "scores": {
    "total": number,
    "keyword_coverage": number,
    "semantic_similarity": number,
    "seniority_match": number
  },
  "gaps": {
    "missing_keywords": ["string"],
    "weak_matches": [
      { "resume_term": "string", "jd_preference": "string", "reason": "string" }
    ]
  },
  "over_represented": ["string"],
  "seniority_analysis": {
    "jd_level": "string",
    "resume_level": "string",
    "status": "Match" | "Underqualified" | "Overqualified",
    "reason": "string"
  }
}

"total" is the weighted average (0.5 * keyword) + (0.3 * semantic) + (0.2 * seniority).
"missing_keywords" lists high priority hard skills absent from the resume.
"over_represented" lists skills in the resume that the JD does not ask for.`

// DefaultRephrasePrompt takes the job description, the original content and
// the instruction
const DefaultRephrasePrompt = `Rephrase the following resume content to better align with the Job Description (JD).

JOB DESCRIPTION:
%s

ORIGINAL CONTENT:
"%s"

INSTRUCTION: %s

RULES:
1. NEVER invent skills, tools, or experiences.
2. NEVER exaggerate quantitative results.
3. ONLY incorporate JD keywords if they accurately describe the work.
4. Use active voice and strong action verbs.
5. Front-load achievements (Impact-First Restructuring).

Return ONLY the optimized text. Do not include explanations or markdown formatting.`

// userPromptSlots is the number of %s placeholders each user template fills
var userPromptSlots = map[string]int{
	"analyze":  2,
	"rephrase": 3,
}

// resolvePrompt returns the configured prompt, or the default when none is set.
// Prompt files are already read into the configured text at config load.
func resolvePrompt(fromConfig, fromDefault string) string {
	if fromConfig != "" {
		return fromConfig
	}
	return fromDefault
}

// validateUserPrompt checks that a custom user template for operation has the
// placeholders its caller fills
func validateUserPrompt(operation, tpl string) error {
	want, ok := userPromptSlots[operation]
	if !ok || tpl == "" {
		return nil
	}
	if got := strings.Count(tpl, "%s"); got != want {
		return fmt.Errorf("%s user prompt needs %d %%s placeholders, found %d", operation, want, got)
	}
	return nil
}
