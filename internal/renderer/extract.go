package renderer

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

const (
	drawingNamespace      = "http://schemas.openxmlformats.org/drawingml/2006/main"
	presentationNamespace = "http://schemas.openxmlformats.org/presentationml/2006/main"
	notesRelationship     = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/notesSlide"
)

var slideFilePattern = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// extractSlides reads speaker notes and slide text straight from the pptx
// package. Both slices are index-aligned by slide ordinal; notes entries are
// empty strings for slides without a notes page.
func extractSlides(sourcePath string) (notes []string, texts []string, err error) {
	archive, err := zip.OpenReader(sourcePath)
	if err != nil {
		return nil, nil, fmt.Errorf("open pptx package: %w", err)
	}
	defer archive.Close()

	files := make(map[string]*zip.File, len(archive.File))
	slideNumbers := make([]int, 0, len(archive.File))
	for _, file := range archive.File {
		files[file.Name] = file
		if match := slideFilePattern.FindStringSubmatch(file.Name); match != nil {
			n, convErr := strconv.Atoi(match[1])
			if convErr != nil {
				continue
			}
			slideNumbers = append(slideNumbers, n)
		}
	}
	sort.Ints(slideNumbers)

	notes = make([]string, 0, len(slideNumbers))
	texts = make([]string, 0, len(slideNumbers))
	for _, n := range slideNumbers {
		slideName := fmt.Sprintf("ppt/slides/slide%d.xml", n)
		text, err := readShapeText(files[slideName], false)
		if err != nil {
			return nil, nil, fmt.Errorf("slide %d: %w", n, err)
		}
		texts = append(texts, text)

		notesName, err := notesTarget(files, n)
		if err != nil {
			return nil, nil, fmt.Errorf("slide %d: %w", n, err)
		}
		note := ""
		if notesName != "" {
			note, err = readShapeText(files[notesName], true)
			if err != nil {
				return nil, nil, fmt.Errorf("slide %d notes: %w", n, err)
			}
		}
		notes = append(notes, note)
	}
	return notes, texts, nil
}

type relationships struct {
	Relationships []struct {
		Type   string `xml:"Type,attr"`
		Target string `xml:"Target,attr"`
	} `xml:"Relationship"`
}

// notesTarget resolves the notes-slide part for a given slide through its
// relationship file. Slides without a notes page have no such relationship.
func notesTarget(files map[string]*zip.File, slideNumber int) (string, error) {
	relsName := fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", slideNumber)
	relsFile, ok := files[relsName]
	if !ok {
		return "", nil
	}
	reader, err := relsFile.Open()
	if err != nil {
		return "", fmt.Errorf("open relationships: %w", err)
	}
	defer reader.Close()

	var rels relationships
	if err := xml.NewDecoder(reader).Decode(&rels); err != nil {
		return "", fmt.Errorf("decode relationships: %w", err)
	}
	for _, rel := range rels.Relationships {
		if rel.Type != notesRelationship {
			continue
		}
		resolved := path.Clean(path.Join("ppt/slides", rel.Target))
		if _, ok := files[resolved]; ok {
			return resolved, nil
		}
	}
	return "", nil
}

// readShapeText walks a slide (or notes slide) part and concatenates its text
// runs, one line per paragraph and a blank line between shapes. With bodyOnly
// set, only body placeholder shapes contribute, which skips the slide-number
// and header placeholders on notes pages.
func readShapeText(file *zip.File, bodyOnly bool) (string, error) {
	if file == nil {
		return "", nil
	}
	reader, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("open part: %w", err)
	}
	defer reader.Close()

	decoder := xml.NewDecoder(reader)
	var (
		blocks    []string
		shape     strings.Builder
		paragraph strings.Builder
		inShape   bool
		inRun     bool
		shapeKind string
	)

	flushParagraph := func() {
		line := strings.TrimSpace(paragraph.String())
		paragraph.Reset()
		if line == "" {
			return
		}
		if shape.Len() > 0 {
			shape.WriteByte('\n')
		}
		shape.WriteString(line)
	}
	flushShape := func() {
		text := strings.TrimSpace(shape.String())
		shape.Reset()
		if text == "" {
			return
		}
		if bodyOnly && shapeKind != "body" {
			return
		}
		blocks = append(blocks, text)
	}

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("decode part: %w", err)
		}
		switch elem := token.(type) {
		case xml.StartElement:
			switch {
			case elem.Name.Space == presentationNamespace && elem.Name.Local == "sp":
				inShape = true
				shapeKind = ""
				shape.Reset()
				paragraph.Reset()
			case elem.Name.Space == presentationNamespace && elem.Name.Local == "ph":
				for _, attr := range elem.Attr {
					if attr.Name.Local == "type" {
						shapeKind = attr.Value
					}
				}
			case elem.Name.Space == drawingNamespace && elem.Name.Local == "t":
				inRun = true
			}
		case xml.EndElement:
			switch {
			case elem.Name.Space == drawingNamespace && elem.Name.Local == "t":
				inRun = false
			case elem.Name.Space == drawingNamespace && elem.Name.Local == "p":
				if inShape {
					flushParagraph()
				}
			case elem.Name.Space == presentationNamespace && elem.Name.Local == "sp":
				flushParagraph()
				flushShape()
				inShape = false
			}
		case xml.CharData:
			if inShape && inRun {
				paragraph.Write(elem)
			}
		}
	}
	return strings.Join(blocks, "\n\n"), nil
}
