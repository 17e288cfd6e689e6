package outputs

import (
	"fmt"

	"github.com/gomutex/godocx"
	"github.com/gomutex/godocx/docx"

	"slidecast/internal/queue"
)

const (
	docxFont     = "Calibri"
	docxFontSize = 11
)

func writeDocx(path, title string, slides []queue.SlideRecord) error {
	doc, err := godocx.NewDocument()
	if err != nil {
		return err
	}

	addStyledRun(doc.AddParagraph(""), fmt.Sprintf("Narration Script for %s", title), true, 16)
	doc.AddParagraph("")

	for _, slide := range slides {
		addStyledRun(doc.AddParagraph(""), fmt.Sprintf("Slide %d", slide.Ordinal), true, 14)

		addStyledRun(doc.AddParagraph(""), "Narration:", true, docxFontSize)
		addStyledRun(doc.AddParagraph(""), slide.Narration, false, docxFontSize)

		if slide.SpeakerNotes != "" {
			addStyledRun(doc.AddParagraph(""), "Speaker Notes:", true, docxFontSize)
			addStyledRun(doc.AddParagraph(""), slide.SpeakerNotes, false, docxFontSize)
		}
		doc.AddParagraph("")
	}

	return doc.SaveTo(path)
}

func addStyledRun(p *docx.Paragraph, text string, bold bool, size uint64) {
	run := p.AddText(text).Font(docxFont).Size(size).Color("000000")
	if bold {
		run.Bold(true)
	}
}
