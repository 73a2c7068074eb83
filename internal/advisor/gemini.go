package advisor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com"

// Gemini calls the Gemini generateContent API for advisory classification.
// Every method honors the Advisor failure contract: a bounded timeout and a
// neutral default on any error.
type Gemini struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	timeout    time.Duration
}

var _ Advisor = (*Gemini)(nil)

// NewGemini builds a Gemini-backed advisor. timeout bounds each call
// end to end, including the HTTP round trip.
func NewGemini(apiKey, model string, timeout time.Duration) *Gemini {
	return &Gemini{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    defaultBaseURL,
		apiKey:     apiKey,
		model:      model,
		timeout:    timeout,
	}
}

// NewGeminiWithBaseURL is NewGemini pointed at a non-default endpoint.
// Used by tests to stand in a local server.
func NewGeminiWithBaseURL(baseURL, apiKey, model string, timeout time.Duration) *Gemini {
	g := NewGemini(apiKey, model, timeout)
	g.baseURL = baseURL
	return g
}

// VerifyTask asks the model whether the task looks valid and how to
// categorize it. Any failure yields {isValid:true, suggestedCategory:input}.
func (g *Gemini) VerifyTask(ctx context.Context, in TaskInput) TaskVerification {
	prompt := fmt.Sprintf(`You are a task verification assistant for a hyper-local task marketplace in Kerala, India.
Analyze the following task and provide:
1. Is this a valid, reasonable task? (true/false)
2. Suggested category (home_maintenance, healthcare, delivery, caregiving, tech_support, other)
3. Any safety concerns or red flags
4. Suggestions to improve the task description

Task Details:
Title: %s
Description: %s
Category: %s

Respond in JSON format:
{
  "isValid": boolean,
  "suggestedCategory": string,
  "safetyConcerns": [string],
  "suggestions": [string]
}`, in.Title, in.Description, in.Category)

	payload, err := g.generate(ctx, prompt)
	if err != nil {
		log.Printf("advisor: task verification failed, using defaults: %v", err)
		return fallbackTaskVerification(in)
	}

	var result TaskVerification
	if err := json.Unmarshal(payload, &result); err != nil {
		log.Printf("advisor: task verification payload malformed, using defaults: %v", err)
		return fallbackTaskVerification(in)
	}
	if result.SuggestedCategory == "" {
		result.SuggestedCategory = in.Category
	}
	return result
}

// MatchHelper scores how well a helper fits a task, 0-100.
// Any failure yields DefaultMatchScore.
func (g *Gemini) MatchHelper(ctx context.Context, in MatchInput) int {
	skills := "None listed"
	if len(in.Helper.Skills) > 0 {
		skills = strings.Join(in.Helper.Skills, ", ")
	}

	prompt := fmt.Sprintf(`You are a matching assistant for a hyper-local task marketplace.
Evaluate how well this helper matches the task requirements.

Task:
Title: %s
Description: %s
Category: %s
Urgency: %s

Helper Profile:
Name: %s
Skills: %s
Trust Score: %d
Completed Tasks: %d

Provide a match score (0-100) and reasoning.
Respond in JSON format:
{
  "matchScore": number,
  "reasoning": string,
  "recommendations": [string]
}`, in.Task.Title, in.Task.Description, in.Task.Category, in.Urgency,
		in.Helper.Name, skills, in.Helper.TrustScore, in.Helper.CompletedTasks)

	payload, err := g.generate(ctx, prompt)
	if err != nil {
		log.Printf("advisor: match scoring failed, using default %d: %v", DefaultMatchScore, err)
		return DefaultMatchScore
	}

	var result struct {
		MatchScore *int `json:"matchScore"`
	}
	if err := json.Unmarshal(payload, &result); err != nil || result.MatchScore == nil {
		log.Printf("advisor: match score payload malformed, using default %d", DefaultMatchScore)
		return DefaultMatchScore
	}
	score := *result.MatchScore
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// VerifyUser checks a registration for red flags.
// Any failure yields {isValid:true, notes:"verification pending"}.
func (g *Gemini) VerifyUser(ctx context.Context, in UserInput) UserVerification {
	city := in.City
	if city == "" {
		city = "Not provided"
	}

	prompt := fmt.Sprintf(`You are a user verification assistant for a trust-based marketplace.
Analyze the user registration information for any red flags.

User Data:
Name: %s
Email: %s
Phone: %s
Location: %s

Check for:
1. Obvious fake/spam patterns
2. Suspicious information
3. Professional appearance

Respond in JSON format:
{
  "isValid": boolean,
  "notes": string
}`, in.Name, in.Email, in.Phone, city)

	payload, err := g.generate(ctx, prompt)
	if err != nil {
		log.Printf("advisor: user verification failed, using defaults: %v", err)
		return fallbackUserVerification()
	}

	var result UserVerification
	if err := json.Unmarshal(payload, &result); err != nil {
		log.Printf("advisor: user verification payload malformed, using defaults: %v", err)
		return fallbackUserVerification()
	}
	return result
}

type genPart struct {
	Text string `json:"text"`
}

type genContent struct {
	Parts []genPart `json:"parts"`
}

type generateRequest struct {
	Contents []genContent `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content genContent `json:"content"`
	} `json:"candidates"`
}

// generate runs one prompt and returns the first structured JSON payload
// found in the model's text response.
func (g *Gemini) generate(ctx context.Context, prompt string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	req := generateRequest{
		Contents: []genContent{{Parts: []genPart{{Text: prompt}}}},
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", g.baseURL, g.model, g.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("call gemini: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gemini returned status %d", resp.StatusCode)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var gr generateResponse
	if err := json.Unmarshal(respBody, &gr); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("empty response")
	}

	text := gr.Candidates[0].Content.Parts[0].Text
	payload, ok := extractJSON(text)
	if !ok {
		return nil, fmt.Errorf("no JSON payload in response text")
	}
	return payload, nil
}

// extractJSON pulls the first balanced JSON object out of free text. Models
// routinely wrap the payload in prose or markdown fences, so anything before
// the first '{' and after its matching '}' is ignored.
func extractJSON(text string) ([]byte, bool) {
	start := -1
	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(text); i++ {
		c := text[i]
		if start == -1 {
			if c == '{' {
				start = i
				depth = 1
			}
			continue
		}
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					candidate := []byte(text[start : i+1])
					if json.Valid(candidate) {
						return candidate, true
					}
					return nil, false
				}
			}
		}
	}
	return nil, false
}
