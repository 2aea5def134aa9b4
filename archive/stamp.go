package archive

import (
	"bytes"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Properties are written into a snapshot's document info dictionary.
type Properties struct {
	Title    string
	Subject  string
	Keywords string
}

func (p Properties) toMap() map[string]string {
	m := make(map[string]string, 3)
	if p.Title != "" {
		m["Title"] = p.Title
	}
	if p.Subject != "" {
		m["Subject"] = p.Subject
	}
	if p.Keywords != "" {
		m["Keywords"] = p.Keywords
	}
	return m
}

// Stamp validates pdf and returns a copy carrying props. When pdfcpu cannot
// read the document the original bytes are returned along with the error,
// so the caller can still archive it unstamped.
func Stamp(pdf []byte, props Properties) (stamped []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			stamped, err = pdf, fmt.Errorf("pdfcpu stamp: %v", r)
		}
	}()

	m := props.toMap()
	if len(m) == 0 {
		return pdf, nil
	}

	conf := model.NewDefaultConfiguration()
	var out bytes.Buffer
	if err := api.AddProperties(bytes.NewReader(pdf), &out, m, conf); err != nil {
		return pdf, fmt.Errorf("pdfcpu stamp: %w", err)
	}
	return out.Bytes(), nil
}

// Validate reports whether pdf is a well-formed PDF document. Snapshots
// that fail are archived as printed, without properties.
func Validate(pdf []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdfcpu validate: %v", r)
		}
	}()

	conf := model.NewDefaultConfiguration()
	if err := api.Validate(bytes.NewReader(pdf), conf); err != nil {
		return fmt.Errorf("pdfcpu validate: %w", err)
	}
	return nil
}
