package services

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ehisj/CustomerAIAgent/internal/chunker"

	"github.com/ledongthuc/pdf"
	"github.com/xuri/excelize/v2"
)

// ExtractedDocument is the result of pulling text out of an uploaded file.
type ExtractedDocument struct {
	Text     string
	Filetype string
}

// SupportedExtensions lists the document formats ExtractText accepts.
var SupportedExtensions = []string{".txt", ".md", ".json", ".pdf", ".docx", ".xlsx"}

// ExtractText parses file content according to its extension and returns
// the raw text. It fails with ErrUnsupportedFormat for unknown extensions
// and ErrEmptyDocument when nothing extractable remains.
func ExtractText(content []byte, filename string) (*ExtractedDocument, error) {
	ext := strings.ToLower(filepath.Ext(filename))

	var text string
	var err error

	switch ext {
	case ".txt", ".md", ".json":
		text = string(content)
	case ".pdf":
		text, err = extractPDF(content)
	case ".docx":
		text, err = extractDOCX(content)
	case ".xlsx":
		text, err = extractXLSX(content)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, err
	}

	if chunker.Normalize(text) == "" {
		return nil, ErrEmptyDocument
	}

	return &ExtractedDocument{Text: text, Filetype: strings.TrimPrefix(ext, ".")}, nil
}

func extractPDF(content []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("failed to read PDF: %w", err)
	}

	var builder strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		fonts := make(map[string]*pdf.Font)
		text, err := page.GetPlainText(fonts)
		if err != nil {
			continue
		}
		builder.WriteString(text)
		builder.WriteString("\n")
	}
	return builder.String(), nil
}

// docx files are zip archives; the body text lives in word/document.xml as
// <w:t> runs with <w:p> paragraph boundaries.
func extractDOCX(content []byte) (string, error) {
	archive, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("failed to open docx archive: %w", err)
	}

	var document io.ReadCloser
	for _, file := range archive.File {
		if file.Name == "word/document.xml" {
			document, err = file.Open()
			if err != nil {
				return "", fmt.Errorf("failed to open document.xml: %w", err)
			}
			break
		}
	}
	if document == nil {
		return "", fmt.Errorf("docx has no word/document.xml")
	}
	defer document.Close()

	decoder := xml.NewDecoder(document)
	var builder strings.Builder
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to parse document.xml: %w", err)
		}

		switch elem := token.(type) {
		case xml.StartElement:
			if elem.Name.Local == "t" {
				var text string
				if err := decoder.DecodeElement(&text, &elem); err != nil {
					return "", fmt.Errorf("failed to decode text run: %w", err)
				}
				builder.WriteString(text)
			}
		case xml.EndElement:
			if elem.Name.Local == "p" {
				builder.WriteString("\n")
			}
		}
	}
	return builder.String(), nil
}

func extractXLSX(content []byte) (string, error) {
	workbook, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("failed to open xlsx: %w", err)
	}
	defer workbook.Close()

	var builder strings.Builder
	for _, sheet := range workbook.GetSheetList() {
		rows, err := workbook.GetRows(sheet)
		if err != nil {
			return "", fmt.Errorf("failed to read sheet %s: %w", sheet, err)
		}
		for _, row := range rows {
			line := strings.TrimSpace(strings.Join(row, " "))
			if line != "" {
				builder.WriteString(line)
				builder.WriteString("\n")
			}
		}
	}
	return builder.String(), nil
}
