package extractor

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

// Extraction status markers carried in the reserved result fields.
const (
	StatusSuccess   = "success"
	StatusLLMFailed = "llm_failed"
	StatusFailed    = "failed"
)

// ErrNotParseable is returned when a service response contains no JSON
// object. The orchestrator treats it as transient and retries.
var ErrNotParseable = errors.New("extractor: response not parseable")

// Result is the validated 23-field extraction schema: 21 semantic fields
// plus the reserved extraction_status and error_message fields. After
// Validate every field is present; missing service fields carry defaults.
type Result struct {
	CallSummary        string  `json:"call_summary"`
	Intent             string  `json:"intent"`
	IssueCategory      string  `json:"issue_category"`
	Outcome            string  `json:"outcome"`
	Sentiment          string  `json:"sentiment"`
	SentimentScore     float64 `json:"sentiment_score"`
	CustomerName       string  `json:"customer_name"`
	AgentName          string  `json:"agent_name"`
	ShowroomName       string  `json:"showroom_name"`
	Location           string  `json:"location"`
	CarModel           string  `json:"car_model"`
	DateMentioned      string  `json:"date_mentioned"`
	Amount             string  `json:"amount"`
	BookingID          string  `json:"booking_id"`
	PhoneNumber        string  `json:"phone_number"`
	IsLead             bool    `json:"is_lead"`
	Priority           string  `json:"priority"`
	Urgency            string  `json:"urgency"`
	NextAction         string  `json:"next_action"`
	AgentPerformance   string  `json:"agent_performance"`
	AdditionalInsights string  `json:"additional_insights"`
	ExtractionStatus   string  `json:"extraction_status"`
	ErrorMessage       string  `json:"error_message"`
}

// Report lists the fields Validate had to repair: Defaulted fields were
// absent or untypeable, Coerced fields held enum values outside the
// defined set. Both are non-fatal.
type Report struct {
	Defaulted []string
	Coerced   []string
}

var (
	sentimentValues   = map[string]bool{"positive": true, "neutral": true, "negative": true}
	levelValues       = map[string]bool{"high": true, "medium": true, "low": true}
	performanceValues = map[string]bool{"good": true, "average": true, "poor": true}
)

// Defaults returns a Result with every field at its defined default: empty
// strings, false, 0.0, and the neutral/medium/average enum values.
func Defaults() Result {
	return Result{
		Sentiment:        "neutral",
		Priority:         "medium",
		Urgency:          "medium",
		AgentPerformance: "average",
	}
}

// Validate parses a raw service response and enforces the schema. A response
// with no JSON object fails with ErrNotParseable; one that parses but misses
// or mistypes fields degrades to per-field defaults instead of failing the
// record. Enum values outside their set coerce to the default and are
// flagged in the report. The sentiment score is clamped to [0, 1].
func Validate(raw string) (Result, *Report, error) {
	obj, ok := extractObject(raw)
	if !ok {
		return Result{}, nil, ErrNotParseable
	}

	rep := &Report{}
	r := Defaults()

	r.CallSummary = getString(obj, "call_summary", rep)
	r.Intent = getString(obj, "intent", rep)
	r.IssueCategory = getString(obj, "issue_category", rep)
	r.Outcome = getString(obj, "outcome", rep)
	r.Sentiment = getEnum(obj, "sentiment", sentimentValues, "neutral", rep)
	r.SentimentScore = clamp(getFloat(obj, "sentiment_score", rep), 0, 1)
	r.CustomerName = getString(obj, "customer_name", rep)
	r.AgentName = getString(obj, "agent_name", rep)
	r.ShowroomName = getString(obj, "showroom_name", rep)
	r.Location = getString(obj, "location", rep)
	r.CarModel = getString(obj, "car_model", rep)
	r.DateMentioned = getString(obj, "date_mentioned", rep)
	r.Amount = getString(obj, "amount", rep)
	r.BookingID = getString(obj, "booking_id", rep)
	r.PhoneNumber = getString(obj, "phone_number", rep)
	r.IsLead = getBool(obj, "is_lead", rep)
	r.Priority = getEnum(obj, "priority", levelValues, "medium", rep)
	r.Urgency = getEnum(obj, "urgency", levelValues, "medium", rep)
	r.NextAction = getString(obj, "next_action", rep)
	r.AgentPerformance = getEnum(obj, "agent_performance", performanceValues, "average", rep)
	r.AdditionalInsights = getString(obj, "additional_insights", rep)
	r.ExtractionStatus = StatusSuccess

	return r, rep, nil
}

// extractObject locates and decodes the JSON object in a raw response.
// Markdown code fences are stripped first; if the whole text still does not
// parse, the outermost brace span is tried.
func extractObject(raw string) (map[string]interface{}, bool) {
	text := stripFences(strings.TrimSpace(raw))

	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(text), &obj); err == nil && obj != nil {
		return obj, true
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		if err := json.Unmarshal([]byte(text[start:end+1]), &obj); err == nil && obj != nil {
			return obj, true
		}
	}
	return nil, false
}

func stripFences(text string) string {
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}
	return strings.TrimSpace(text)
}

func getString(obj map[string]interface{}, key string, rep *Report) string {
	v, ok := obj[key]
	if !ok || v == nil {
		rep.Defaulted = append(rep.Defaulted, key)
		return ""
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	}
	rep.Defaulted = append(rep.Defaulted, key)
	return ""
}

func getFloat(obj map[string]interface{}, key string, rep *Report) float64 {
	v, ok := obj[key]
	if !ok || v == nil {
		rep.Defaulted = append(rep.Defaulted, key)
		return 0
	}
	switch t := v.(type) {
	case float64:
		return t
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil {
			return f
		}
	}
	rep.Defaulted = append(rep.Defaulted, key)
	return 0
}

func getBool(obj map[string]interface{}, key string, rep *Report) bool {
	v, ok := obj[key]
	if !ok || v == nil {
		rep.Defaulted = append(rep.Defaulted, key)
		return false
	}
	switch t := v.(type) {
	case bool:
		return t
	case string:
		if b, err := strconv.ParseBool(strings.TrimSpace(t)); err == nil {
			return b
		}
	case float64:
		return t != 0
	}
	rep.Defaulted = append(rep.Defaulted, key)
	return false
}

func getEnum(obj map[string]interface{}, key string, values map[string]bool, def string, rep *Report) string {
	v, ok := obj[key]
	if !ok || v == nil {
		rep.Defaulted = append(rep.Defaulted, key)
		return def
	}
	s, ok := v.(string)
	if !ok {
		rep.Defaulted = append(rep.Defaulted, key)
		return def
	}
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		rep.Defaulted = append(rep.Defaulted, key)
		return def
	}
	if !values[s] {
		rep.Coerced = append(rep.Coerced, key)
		return def
	}
	return s
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
