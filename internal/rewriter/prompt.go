package rewriter

import (
	"fmt"
	"strings"
)

// slideRewritePrompt asks the model to turn one rendered slide image into
// normalized descriptive text. The response contract is a single JSON object
// with a rewritten_content key; anything else is handled by the repair parser
// downstream.
const slideRewritePrompt = `You are an expert presentation script writer. Analyze this slide image and create a clear, engaging narration script that explains the content on the slide.

- Make it structured, clear, and concise
- Explain the slide content meaningfully.
- Focus on explaining things that contain text such as charts, tables, lists, etc.
- Only describe those that are directly useful and relevant to the main information. Ignore images, icons, or visuals used solely for aesthetics (Example: a company logo, a chart with no data, a company related picture, etc.)
- Maintain the key information and meaning
- DO NOT mention the slide number in your response (it's provided only for context)
- Tone: %s
- Audience: %s

CRITICAL JSON RESPONSE REQUIREMENTS:
- Return your response as a JSON object with exactly this structure:
{
    "rewritten_content": "narration script explaining slide content here"
}

- The "rewritten_content" value must be plain text only - NO markdown formatting, NO markdown syntax (no **, *, _, #, [], etc.), NO special formatting characters
- IMPORTANT: Do NOT use double quotes (") inside the rewritten_content string - use single quotes (') if you need to quote something, or rephrase to avoid quotes entirely
- Escape any special JSON characters properly
- Only return valid JSON, no markdown formatting or additional text outside the JSON object`

// textOnlyRewritePrompt is used when rendering degraded and no slide image is
// available; the original extracted slide text stands in for the image.
const textOnlyRewritePrompt = `You are an expert presentation script writer. The slide image is unavailable, so work from the extracted slide text below and create a clear, engaging narration script that explains the slide.

Extracted slide text:
%s

- Make it structured, clear, and concise
- Maintain the key information and meaning
- DO NOT mention the slide number in your response
- Tone: %s
- Audience: %s

Return your response as a JSON object with exactly this structure:
{
    "rewritten_content": "narration script explaining slide content here"
}

Only return valid JSON, no markdown formatting or additional text outside the JSON object.`

func buildPrompt(hasImage bool, originalText, tone, audience string) string {
	tone = strings.TrimSpace(tone)
	audience = strings.TrimSpace(audience)
	if hasImage {
		return fmt.Sprintf(slideRewritePrompt, tone, audience)
	}
	return fmt.Sprintf(textOnlyRewritePrompt, strings.TrimSpace(originalText), tone, audience)
}
