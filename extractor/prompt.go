package extractor

import "fmt"

// promptTemplate is the fixed instruction describing the 23-field schema.
// The first placeholder is the call's original language, the second the
// normalized transcript.
const promptTemplate = `You are an expert at analyzing customer service call transcripts from automobile showrooms and service centers.

The following is a transcript from a call originally in %s (now romanized/translated to English):

TRANSCRIPT:
%s

Extract the following information and return ONLY a valid JSON object (no markdown, no extra text):

{
  "call_summary": "A 2-line summary of the call",
  "intent": "Primary intent/purpose of the customer's call",
  "issue_category": "One of: technical, sales, booking, complaint, general_inquiry, service_related, test_drive, price_inquiry, other",
  "sentiment": "One of: positive, neutral, negative",
  "sentiment_score": 0.5,
  "customer_name": "Customer's name if mentioned",
  "agent_name": "Agent's name if mentioned",
  "showroom_name": "Showroom or service center name if mentioned",
  "car_model": "Car model(s) discussed (e.g., Tata Nexon, Punch, etc.)",
  "location": "Location/city mentioned",
  "date_mentioned": "Any dates mentioned in the call",
  "amount": "Any price/amount discussed (numeric value only)",
  "booking_id": "Booking or order ID if mentioned",
  "phone_number": "Phone number if mentioned",
  "is_lead": true,
  "priority": "One of: high, medium, low",
  "urgency": "One of: high, medium, low",
  "next_action": "Recommended or mentioned next action",
  "outcome": "Outcome of the call if evident",
  "agent_performance": "One of: good, average, poor",
  "additional_insights": "Any other relevant business insights"
}

Rules:
- Use empty string "" for missing text fields
- Use null for missing numeric fields
- Use false for missing boolean fields
- Ensure all field names match exactly as shown
- Return ONLY valid JSON, no markdown formatting`

func buildPrompt(transcript, language string) string {
	if language == "" {
		language = "an unspecified language"
	}
	return fmt.Sprintf(promptTemplate, language, transcript)
}
