package services

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/legalese-app/legalese-core/internal/core/domain"
)

const analysisSystemPrompt = `You review legal documents for contract risk and return structured findings.

Rules for highlightedSections:
- "text" must be copied verbatim from the document, including punctuation and spacing. Never paraphrase it.
- Prefer a sentence or a short paragraph per highlight; avoid very long excerpts.
- Positions are recomputed from "text" on our side, so an exact quote matters more than the offsets.

Concentrate on termination, liability, intellectual property, payment, and renewal provisions,
and on anything a party should negotiate. Give a practical suggestion for every highlight.

Answer with one JSON object of this shape and nothing else:

{
  "summary": "what the document is and what it does",
  "keyObligations": ["obligation of a party"],
  "riskAssessment": {
    "termination": 0-10,
    "liability": 0-10,
    "intellectualProperty": 0-10,
    "payment": 0-10,
    "renewal": 0-10
  },
  "highlightedSections": [
    {
      "text": "verbatim quote from the document",
      "startPosition": 0,
      "endPosition": 0,
      "type": "termination|liability|intellectual_property|payment|renewal|general",
      "severity": "low|medium|high",
      "riskLevel": 0-10,
      "comment": "why the clause matters",
      "suggestion": "what to ask for or change"
    }
  ],
  "aiComments": [
    {"position": 0, "text": "note about this point in the text", "type": "warning|info|suggestion", "severity": "low|medium|high"}
  ],
  "documentStructure": {
    "sections": [
      {"title": "section heading", "level": 1, "startPosition": 0, "endPosition": 0, "subsections": []}
    ]
  },
  "plainEnglishExplanations": {
    "termination": "plain-language explanation",
    "liability": "plain-language explanation",
    "payment": "plain-language explanation",
    "other_key_terms": "plain-language explanation"
  },
  "confidenceScore": 0-100
}`

const analysisUserPrompt = `Analyse the legal document below and assess its risks.

Document:
%s

Look in particular for:
1. termination clauses and notice periods
2. limitations of liability and indemnities
3. ownership and licensing of intellectual property
4. payment terms, penalties, and collection
5. renewal and amendment procedures
6. compliance and regulatory duties
7. dispute resolution

Positions are character offsets into the document exactly as given above.`

const chatInstructions = `Instructions:
- Answer questions about this analysis helpfully and professionally.
- Point to the relevant part of the document when it helps.
- Explain legal concepts in plain English.
- If a question goes beyond the analysis, say that you can only discuss what it covers.
- Keep answers concise; use bullet points where they aid clarity.
- Never invent facts that are not in the analysis or the excerpt.`

// analysisMessages builds the conversation sent for a structured analysis
func analysisMessages(documentText string) []domain.ChatMessage {
	return []domain.ChatMessage{
		{Role: domain.ChatRoleSystem, Content: analysisSystemPrompt},
		{Role: domain.ChatRoleUser, Content: fmt.Sprintf(analysisUserPrompt, documentText)},
	}
}

// chatSystemPrompt gives the assistant the analysis and the opening of the
// document. excerptRunes bounds the excerpt in runes.
func chatSystemPrompt(a *domain.Analysis, excerptRunes int) string {
	var sb strings.Builder
	sb.WriteString("You are a legal assistant helping a user understand the analysis of their document.\n\n")

	sb.WriteString("Document summary:\n")
	if a.Summary != "" {
		sb.WriteString(a.Summary)
	} else {
		sb.WriteString("No summary available.")
	}

	sb.WriteString("\n\nKey obligations:\n")
	if len(a.KeyObligations) == 0 {
		sb.WriteString("None identified.")
	}
	for _, o := range a.KeyObligations {
		sb.WriteString("- ")
		sb.WriteString(o)
		sb.WriteString("\n")
	}

	sb.WriteString("\nRisk assessment (0-10):\n")
	risk, _ := json.MarshalIndent(a.RiskAssessment, "", "  ")
	sb.Write(risk)

	sb.WriteString("\n\nDocument excerpt:\n")
	sb.WriteString(a.Source().Head(excerptRunes))

	sb.WriteString("\n\n")
	sb.WriteString(chatInstructions)
	return sb.String()
}
