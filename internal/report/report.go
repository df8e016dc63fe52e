// Package report renders a scorecard into exportable documents. JSON is
// the canonical machine format; Excel serves the download button. PDF
// rendering is delegated to an external service and not handled here.
package report

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sustainboard/esg-cli/internal/model"
)

// Document is the JSON report payload.
type Document struct {
	CompanyID        string               `json:"company_id"`
	CompanyName      string               `json:"company_name,omitempty"`
	Period           string               `json:"period"`
	OverallScore     int                  `json:"overall_score"`
	Grade            model.Grade          `json:"grade"`
	Risk             model.RiskLevel      `json:"risk"`
	RiskColor        string               `json:"risk_color"`
	DataCompleteness int                  `json:"data_completeness"`
	Pillars          []model.PillarResult `json:"pillars"`
	History          []HistoryPoint       `json:"history"`
	Narrative        string               `json:"narrative,omitempty"`
	GeneratedAt      time.Time            `json:"generated_at"`
}

// HistoryPoint is one period of the score trend.
type HistoryPoint struct {
	Period       string      `json:"period"`
	OverallScore int         `json:"overall_score"`
	Grade        model.Grade `json:"grade"`
}

// Builder renders reports. The printer localizes numbers in the Excel
// output.
type Builder struct {
	printer *message.Printer
}

// NewBuilder returns a Builder with English number formatting.
func NewBuilder() *Builder {
	return &Builder{printer: message.NewPrinter(language.English)}
}

func buildDocument(card *model.Scorecard, company *model.Company, history []model.Scorecard, narrative string) *Document {
	doc := &Document{
		CompanyID:        card.CompanyID,
		Period:           card.Period,
		OverallScore:     card.OverallScore,
		Grade:            card.OverallGrade,
		Risk:             card.OverallRisk,
		RiskColor:        card.RiskColor,
		DataCompleteness: card.DataCompleteness,
		Pillars:          card.PillarResults(),
		History:          []HistoryPoint{},
		Narrative:        narrative,
		GeneratedAt:      card.GeneratedAt,
	}
	if company != nil {
		doc.CompanyName = company.Name
	}
	// History runs oldest to newest.
	for i := len(history) - 1; i >= 0; i-- {
		doc.History = append(doc.History, HistoryPoint{
			Period:       history[i].Period,
			OverallScore: history[i].OverallScore,
			Grade:        history[i].OverallGrade,
		})
	}
	return doc
}

// JSON renders the report as indented JSON.
func (b *Builder) JSON(card *model.Scorecard, company *model.Company, history []model.Scorecard, narrative string) ([]byte, error) {
	doc := buildDocument(card, company, history, narrative)
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, eris.Wrap(err, "report: marshal json")
	}
	return out, nil
}

// Excel renders the report as an xlsx workbook with a summary sheet, one
// row per requirement gap, and a score history sheet.
func (b *Builder) Excel(card *model.Scorecard, company *model.Company, history []model.Scorecard, narrative string) ([]byte, error) {
	doc := buildDocument(card, company, history, narrative)

	f := xlsx.NewFile()
	if err := b.summarySheet(f, doc); err != nil {
		return nil, err
	}
	if err := b.gapsSheet(f, doc); err != nil {
		return nil, err
	}
	if err := b.historySheet(f, doc); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, eris.Wrap(err, "report: write xlsx")
	}
	return buf.Bytes(), nil
}

func (b *Builder) summarySheet(f *xlsx.File, doc *Document) error {
	sheet, err := f.AddSheet("Summary")
	if err != nil {
		return eris.Wrap(err, "report: add summary sheet")
	}

	addPair := func(label, value string) {
		row := sheet.AddRow()
		row.AddCell().Value = label
		row.AddCell().Value = value
	}

	title := "ESG Scorecard"
	if doc.CompanyName != "" {
		title = doc.CompanyName + " ESG Scorecard"
	}
	addPair(title, doc.Period)
	addPair("Overall Score", b.printer.Sprintf("%d / 100", doc.OverallScore))
	addPair("Grade", string(doc.Grade))
	addPair("Risk Level", string(doc.Risk))
	addPair("Data Completeness", b.printer.Sprintf("%d%%", doc.DataCompleteness))
	addPair("Generated", doc.GeneratedAt.Format(time.RFC3339))

	sheet.AddRow()
	header := sheet.AddRow()
	for _, h := range []string{"Pillar", "Score", "Completeness", "Missing Critical"} {
		header.AddCell().Value = h
	}
	for _, pr := range doc.Pillars {
		row := sheet.AddRow()
		row.AddCell().Value = string(pr.Pillar)
		row.AddCell().SetFloatWithFormat(pr.Score, "0.00")
		row.AddCell().Value = b.printer.Sprintf("%d%%", pr.Completeness)
		row.AddCell().SetInt(len(pr.MissingCritical))
	}

	if doc.Narrative != "" {
		sheet.AddRow()
		row := sheet.AddRow()
		row.AddCell().Value = "Executive Summary"
		sheet.AddRow().AddCell().Value = doc.Narrative
	}
	return nil
}

func (b *Builder) gapsSheet(f *xlsx.File, doc *Document) error {
	sheet, err := f.AddSheet("Gaps")
	if err != nil {
		return eris.Wrap(err, "report: add gaps sheet")
	}

	header := sheet.AddRow()
	for _, h := range []string{"Pillar", "Requirement", "Label", "Critical"} {
		header.AddCell().Value = h
	}
	for _, pr := range doc.Pillars {
		for _, miss := range pr.Missing {
			row := sheet.AddRow()
			row.AddCell().Value = string(pr.Pillar)
			row.AddCell().Value = miss.Key
			row.AddCell().Value = miss.Label
			row.AddCell().SetBool(miss.Critical)
		}
	}
	return nil
}

func (b *Builder) historySheet(f *xlsx.File, doc *Document) error {
	sheet, err := f.AddSheet("History")
	if err != nil {
		return eris.Wrap(err, "report: add history sheet")
	}

	header := sheet.AddRow()
	for _, h := range []string{"Period", "Overall Score", "Grade"} {
		header.AddCell().Value = h
	}
	for _, p := range doc.History {
		row := sheet.AddRow()
		row.AddCell().Value = p.Period
		row.AddCell().SetInt(p.OverallScore)
		row.AddCell().Value = string(p.Grade)
	}
	return nil
}
