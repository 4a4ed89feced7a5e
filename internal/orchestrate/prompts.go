package orchestrate

import "fmt"

// StudyPlanPrompt asks for the schedule as a bare JSON array.
func StudyPlanPrompt(syllabus, days, difficulty string) string {
	return fmt.Sprintf(`You are an academic planning agent that creates structured study schedules.

Input:
- Syllabus/Topics: %[1]s
- Number of days: %[2]s
- Difficulty level: %[3]s

Task:
Create a detailed day-by-day study schedule. Return ONLY valid JSON (no markdown, no code fences).

JSON Structure:
[
  {
    "day": 1,
    "time_slot": "9:00 AM - 11:00 AM",
    "topic": "Topic Name",
    "description": "Brief description of what will be covered",
    "activities": ["Activity 1", "Activity 2"],
    "expected_outcome": "What the student should achieve"
  }
]

Rules:
1. Divide each day into 3-5 study sessions of 1-2 hours each
2. Leave breaks between sessions
3. Adjust complexity to the difficulty level: %[3]s
4. Start with the basics and build up
5. Return ONLY the JSON array, nothing else
`, syllabus, days, difficulty)
}

// NotesPrompt asks for markdown study notes on topic.
func NotesPrompt(topic string) string {
	return fmt.Sprintf(`You are a concise academic notes generator.

Create clear, well-structured, exam-focused notes in MARKDOWN for the topic below.

Topic: %s

Formatting:
- Use ## and ### headers
- Use nested bullet points
- Use **bold** for key terms and *italics* for emphasis
- Put formulas in code blocks
- Stay on the topic and keep it beginner friendly

Return markdown only, without code fences around the whole answer.
`, topic)
}

// ResourcesPrompt asks for curated learning resources grouped by topic.
func ResourcesPrompt(material string) string {
	return fmt.Sprintf(`You are a resource-curation agent.

For the study material below, list 2-4 high-quality learning resources per topic in MARKDOWN.

Rules:
- Only real, well-known resources (official documentation, university courses, established channels and blogs)
- Group resources under a ## header per topic
- Use clickable links: [Title](URL)
- Add a one-line description per resource

Study material:
%s

Return markdown only, without code fences around the whole answer.
`, material)
}
