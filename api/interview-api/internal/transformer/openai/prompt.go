// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_transformer_openai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/flosch/pongo2/v6"
	"github.com/rapidaai/interview/pkg/types"
	"github.com/rapidaai/interview/pkg/utils"
)

const (
	questionSystemPrompt   = "You are an expert technical and HR interviewer."
	evaluationSystemPrompt = "You are an expert interview evaluator. Return only valid JSON."

	fallbackQuestion = "Tell me about your relevant experience for this role."
)

var questionTemplate = pongo2.Must(pongo2.FromString(`{% autoescape off %}You are conducting a {{ interview_type }} interview.

Job Description:
{{ jd }}

Candidate's Resume:
{{ resume }}
{% if history %}
Previous Questions and Answers:
{% for qa in history %}
Q{{ forloop.Counter }}: {{ qa.Question }}
A{{ forloop.Counter }}: {{ qa.Answer }}
{% endfor %}{% endif %}
This is question {{ number }} out of {{ total }} questions total.

Generate ONE relevant {{ interview_type }} interview question that:
- Is appropriate for question number {{ number }} (start easier, get progressively harder)
- Relates to the job requirements
- Builds upon previous answers if any
- Is specific and clear
- For technical interviews: focus on skills, problem-solving, coding experience
- For HR interviews: focus on soft skills, culture fit, scenarios

Return ONLY the question text, nothing else.{% endautoescape %}`))

var evaluationTemplate = pongo2.Must(pongo2.FromString(`{% autoescape off %}Evaluate this {{ interview_type }} interview answer.

Job Requirements:
{{ jd }}

Question: {{ question }}
Answer: {{ answer }}

Provide:
1. A score from 0-10 (0=poor, 10=excellent)
2. Brief constructive feedback (2-3 sentences)

Consider:
- Relevance to the question
- Depth of knowledge
- Communication clarity
- Alignment with job requirements

Return ONLY valid JSON in this exact format:
{"score": 8, "feedback": "Your feedback here"}{% endautoescape %}`))

func renderQuestionPrompt(setup types.InterviewSetup, history []types.QAPair, number, total int) (string, error) {
	out, err := questionTemplate.Execute(pongo2.Context{
		"interview_type": string(setup.InterviewType),
		"jd":             setup.JDText,
		"resume":         setup.ResumeText,
		"history":        history,
		"number":         number,
		"total":          total,
	})
	if err != nil {
		return "", fmt.Errorf("openai: render question prompt: %w", err)
	}
	return out, nil
}

func renderEvaluationPrompt(setup types.InterviewSetup, question, answer string) (string, error) {
	out, err := evaluationTemplate.Execute(pongo2.Context{
		"interview_type": string(setup.InterviewType),
		"jd":             setup.JDText,
		"question":       question,
		"answer":         answer,
	})
	if err != nil {
		return "", fmt.Errorf("openai: render evaluation prompt: %w", err)
	}
	return out, nil
}

// parseEvaluation reads the model's JSON verdict, tolerating markdown fences.
func parseEvaluation(text string) (types.AnswerEvaluation, error) {
	body := strings.TrimSpace(text)
	if _, after, ok := strings.Cut(body, "```json"); ok {
		body, _, _ = strings.Cut(after, "```")
	} else if _, after, ok := strings.Cut(body, "```"); ok {
		body, _, _ = strings.Cut(after, "```")
	}

	var verdict struct {
		Score    *float64 `json:"score"`
		Feedback string   `json:"feedback"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(body)), &verdict); err != nil {
		return types.AnswerEvaluation{}, fmt.Errorf("openai: unparsable evaluation: %w", err)
	}
	if verdict.Score == nil {
		return types.AnswerEvaluation{}, fmt.Errorf("openai: evaluation without score")
	}
	return types.AnswerEvaluation{
		Score:    utils.Clamp(*verdict.Score, 0, 10),
		Feedback: strings.TrimSpace(verdict.Feedback),
	}, nil
}
