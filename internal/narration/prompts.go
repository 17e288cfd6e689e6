package narration

import (
	"fmt"
	"strings"

	"slidecast/internal/textutil"
)

// styleInstructions maps a narration style to the delivery guidance embedded
// in the prompt. Unrecognized styles fall back to Human-like.
var styleInstructions = map[string]string{
	"Human-like": `**Narration Style: Human-like**
Write as if you're speaking naturally to an audience:
- Use conversational transitions
- Add natural connectives between slides
- Reference specific points
- Explain rather than just repeat: Don't read bullet points verbatim, explain their meaning
- Use natural pauses indicated by paragraph breaks for longer content
- Make it sound like you're genuinely reading and explaining the slides`,
	"Formal": `**Narration Style: Formal**
Write in a formal, structured manner:
- Use formal transitions
- Maintain professional language throughout
- Avoid contractions and casual expressions
- Present information systematically and authoritatively
- Keep transitions professional and clear`,
	"Concise": `**Narration Style: Concise**
Write brief, to-the-point narration:
- Get straight to the point, avoid unnecessary words
- Use direct transitions
- Focus on key points only
- Keep sentences short and clear
- Minimize filler words and phrases
- Be efficient with transitions between slides`,
	"Storytelling": `**Narration Style: Storytelling**
Write as a narrative that tells a story:
- Create a narrative arc across slides
- Use storytelling transitions
- Build connections between slides like chapters in a story
- Use descriptive language to paint a picture
- Create anticipation
- Make the presentation feel like a cohesive narrative`,
	"Conversational": `**Narration Style: Conversational**
Write in a friendly, approachable conversational style:
- Use casual, friendly transitions
- Include rhetorical questions (Do not overuse rhetorical questions)
- Use everyday language and relatable examples
- Create a dialogue feel
- Make transitions feel like natural conversation flow`,
	"Professional": `**Narration Style: Professional**
Write in a polished, business-appropriate style:
- Use professional transitions
- Maintain a balanced, confident tone
- Use clear, structured language
- Include appropriate business terminology
- Create smooth, logical transitions
- Present information with authority and clarity`,
}

func styleInstructionsFor(style string) string {
	if instructions, ok := styleInstructions[style]; ok {
		return instructions
	}
	return styleInstructions["Human-like"]
}

const dynamicLengthInstructions = `**Dynamic Length**: Adjust the narration length based on slide content complexity.
- You are responsible for determining the current slide's complexity before writing the narration based on speaker notes and rewritten slide content.
- Simple slides (low complexity): 50-100 words, concise and clear
- Medium complexity slides: 100-200 words, with added explanation
- Complex slides (high complexity): 200-400 words, structured into multiple paragraphs if needed
- Use the Content Complexity indicator to guide narration length
- Never exceed 400 words under any circumstances`

const fixedLengthInstructions = `**Fixed Length**: Keep narration consistent across slides:
- Aim for %d-%d words per slide
- Maintain similar length for all slides regardless of content complexity
- Break into paragraphs only if exceeding 200 words
- Use "\n\n" (double newline) for paragraph breaks when needed`

// complexityLabel buckets a slide by the combined word count of its rewritten
// content and speaker notes.
func complexityLabel(content, notes string) string {
	total := textutil.WordCount(content) + textutil.WordCount(notes)
	switch {
	case total > 150:
		return "High"
	case total > 50:
		return "Medium"
	default:
		return "Low"
	}
}

// lengthTarget produces the per-slide word target hint.
func lengthTarget(settings Settings, complexity string) string {
	if !settings.DynamicLength {
		return fmt.Sprintf("Aim for %d-%d words.", settings.MinWords, settings.MaxWords)
	}
	switch complexity {
	case "Low":
		return "Aim for 50-100 words."
	case "Medium":
		return "Aim for 100-200 words."
	default:
		return `Aim for 200-400 words, split into 2-3 paragraphs using \n\n if needed.`
	}
}

const narrationPrompt = `You are a professional presenter creating a %s narration script.

%s

%s

Tone: Maintain a %s tone throughout.

IMPORTANT CONTEXT RULES:
- You may ONLY use the past narrations provided below as cross-slide context.
- Do NOT invent, reference, or imply any other slides beyond what is provided.
- Generally avoid repeating the same phrases, sentence structures, or opening flows from previous narrations.
- Reuse wording from past narrations only when it is necessary for clarity or continuity, and do not overuse it.
- DO NOT mention slide numbers in your narration (e.g., don't say "On slide 3" or "This slide shows"). The slide number is provided only for your reference to maintain proper order.

Past narrations (most recent last):
%s

Current slide to narrate:
- Content Complexity: %s
- Length target: %s
- Rewritten Content (This is the explanation of the content of the current slide):
%s
- Speaker Notes:
%s

Structure requirements for THIS slide:
- Start in a way that fits the context, but vary the opening so it does not feel repetitive.
- Use a transition from previous narrations only when it adds value; avoid forced connectors.
- Explain the slide content meaningfully (do not read or restate bullets verbatim).
- Incorporate relevant speaker notes naturally, only when they add value and context.
- %s
%s
Return your response as a JSON object with exactly this key:
{
  "narration": "plain text narration here"
}

CRITICAL:
- Only return valid JSON, no markdown, no extra text.
- The narration must be plain text only
- NO markdown formatting, NO markdown syntax (no **, *, _, #, [], (), etc.), NO code blocks.
- If you need paragraph breaks, represent them using the two-character sequence \n\n (backslash-n-backslash-n) inside the JSON string.
- Do NOT include literal newlines or literal tabs inside the JSON string value (they must be escaped as \n and \t).`

const (
	interiorClosingInstruction = "End with a transition to the next slide only if clearly suggested by the speaker notes."
	finalClosingInstruction    = "Do NOT add a transition to a next slide; close the narration naturally."
)

const emptyContextBlock = "[No previous narrations available]"

// buildContextBlock renders the trailing narration window, most recent last.
// slideNumber is the 1-based ordinal of the slide being narrated.
func buildContextBlock(previous []string, slideNumber, window int) string {
	if window > len(previous) {
		window = len(previous)
	}
	if window <= 0 {
		return emptyContextBlock
	}
	recent := previous[len(previous)-window:]
	lines := make([]string, 0, len(recent))
	for i, narration := range recent {
		contextSlide := slideNumber - len(recent) + i
		lines = append(lines, fmt.Sprintf("- Slide %d narration: %s", contextSlide, narration))
	}
	return strings.Join(lines, "\n")
}

func buildNarrationPrompt(settings Settings, content, notes string, previous []string, slideNumber, totalSlides int) string {
	complexity := complexityLabel(content, notes)
	lengthInstructions := dynamicLengthInstructions
	if !settings.DynamicLength {
		lengthInstructions = fmt.Sprintf(fixedLengthInstructions, settings.MinWords, settings.MaxWords)
	}

	closing := interiorClosingInstruction
	if slideNumber == totalSlides {
		closing = finalClosingInstruction
	}

	customBlock := "\n"
	if custom := strings.TrimSpace(settings.CustomInstructions); custom != "" {
		customBlock = fmt.Sprintf("\nADDITIONAL CUSTOM INSTRUCTIONS:\n%s\n\n", custom)
	}

	return fmt.Sprintf(narrationPrompt,
		strings.ToLower(settings.Style),
		styleInstructionsFor(settings.Style),
		lengthInstructions,
		settings.Tone,
		buildContextBlock(previous, slideNumber, settings.ContextWindow),
		complexity,
		lengthTarget(settings, complexity),
		content,
		notes,
		closing,
		customBlock,
	)
}

const refinementPrompt = `You are an expert presentation speech writer.
I have a list of narrations for a presentation, one for each slide.
The current narrations might have awkward phrasing or lack smooth transitions between slides.

Your task is to REWRITE the narrations to improve the flow, coherence, and "speakability".

CRITICAL RULES:
1. Keep the same TONE: %s
2. Maintain the STYLE: %s.
3. DO NOT change the core meaning or content. Just smooth out the wording.
4. Ensure logical transitions between slides where appropriate.
5. Formatting should be natural speech.
6. RETURN DATA MUST BE A JSON ARRAY of objects.

Input Data:
%s

Output Format (JSON ONLY):
[
    {
        "slide_number": 1,
        "refined_narration": "..."
    },
    ...
]`
