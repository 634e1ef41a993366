package services

import (
	"archive/zip"
	"bytes"
	"errors"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestExtractTextPlainFormats(t *testing.T) {
	for _, filename := range []string{"notes.txt", "readme.md", "data.json"} {
		doc, err := ExtractText([]byte("hello support team"), filename)
		if err != nil {
			t.Fatalf("ExtractText(%s): %v", filename, err)
		}
		if doc.Text != "hello support team" {
			t.Errorf("%s: text = %q", filename, doc.Text)
		}
	}

	doc, err := ExtractText([]byte("x"), "UPPER.TXT")
	if err != nil {
		t.Fatalf("uppercase extension: %v", err)
	}
	if doc.Filetype != "txt" {
		t.Errorf("filetype = %q, want txt", doc.Filetype)
	}
}

func TestExtractTextUnsupportedFormat(t *testing.T) {
	_, err := ExtractText([]byte("binary"), "photo.png")
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestExtractTextEmptyDocument(t *testing.T) {
	_, err := ExtractText([]byte("  \n\t "), "empty.txt")
	if !errors.Is(err, ErrEmptyDocument) {
		t.Errorf("expected ErrEmptyDocument, got %v", err)
	}
}

func TestExtractDOCX(t *testing.T) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	f, err := w.Create("word/document.xml")
	if err != nil {
		t.Fatal(err)
	}
	_, err = f.Write([]byte(`<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>First paragraph.</w:t></w:r></w:p>
    <w:p><w:r><w:t>Second </w:t></w:r><w:r><w:t>paragraph.</w:t></w:r></w:p>
  </w:body>
</w:document>`))
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	doc, err := ExtractText(buf.Bytes(), "policy.docx")
	if err != nil {
		t.Fatalf("ExtractText docx: %v", err)
	}
	if doc.Filetype != "docx" {
		t.Errorf("filetype = %q, want docx", doc.Filetype)
	}
	if !bytes.Contains([]byte(doc.Text), []byte("First paragraph.")) ||
		!bytes.Contains([]byte(doc.Text), []byte("Second paragraph.")) {
		t.Errorf("docx text missing paragraphs: %q", doc.Text)
	}
}

func TestExtractDOCXMalformed(t *testing.T) {
	if _, err := ExtractText([]byte("not a zip"), "broken.docx"); err == nil {
		t.Error("expected error for malformed docx")
	}
}

func TestExtractXLSX(t *testing.T) {
	workbook := excelize.NewFile()
	if err := workbook.SetSheetRow("Sheet1", "A1", &[]any{"plan", "price"}); err != nil {
		t.Fatal(err)
	}
	if err := workbook.SetSheetRow("Sheet1", "A2", &[]any{"pro", "29"}); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := workbook.Write(&buf); err != nil {
		t.Fatal(err)
	}

	doc, err := ExtractText(buf.Bytes(), "pricing.xlsx")
	if err != nil {
		t.Fatalf("ExtractText xlsx: %v", err)
	}
	if !bytes.Contains([]byte(doc.Text), []byte("plan price")) ||
		!bytes.Contains([]byte(doc.Text), []byte("pro 29")) {
		t.Errorf("xlsx text missing rows: %q", doc.Text)
	}
}
