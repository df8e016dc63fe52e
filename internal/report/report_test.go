package report

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sustainboard/esg-cli/internal/model"
)

func testCard() *model.Scorecard {
	return &model.Scorecard{
		CompanyID:        "c1",
		Period:           "2026-Q1",
		OverallScore:     62,
		OverallGrade:     model.GradeC,
		OverallRisk:      model.RiskMedium,
		RiskColor:        "amber",
		DataCompleteness: 48,
		Environmental: model.PillarResult{
			Pillar: model.PillarEnvironmental, Score: 41.25, Completeness: 40,
			Missing: []model.MissingItem{
				{Key: "scope1_emissions", Label: "Scope 1 emissions", Critical: true},
				{Key: "renewable_pct", Label: "Renewable energy share"},
			},
			MissingCritical: []string{"scope1_emissions"},
		},
		Social:     model.PillarResult{Pillar: model.PillarSocial, Score: 70, Completeness: 75},
		Governance: model.PillarResult{Pillar: model.PillarGovernance, Score: 80, Completeness: 88},
		GeneratedAt: time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC),
	}
}

func testHistory() []model.Scorecard {
	return []model.Scorecard{
		{Period: "2026-Q1", OverallScore: 62, OverallGrade: model.GradeC},
		{Period: "2025-Q4", OverallScore: 47, OverallGrade: model.GradeD},
	}
}

func TestJSONReport(t *testing.T) {
	b := NewBuilder()
	company := &model.Company{ID: "c1", Name: "Acme Textiles"}

	out, err := b.JSON(testCard(), company, testHistory(), "A solid quarter.")
	require.NoError(t, err)

	var doc Document
	require.NoError(t, json.Unmarshal(out, &doc))
	assert.Equal(t, "Acme Textiles", doc.CompanyName)
	assert.Equal(t, 62, doc.OverallScore)
	assert.Equal(t, model.GradeC, doc.Grade)
	assert.Len(t, doc.Pillars, 3)
	assert.Equal(t, "A solid quarter.", doc.Narrative)

	// History runs oldest to newest.
	require.Len(t, doc.History, 2)
	assert.Equal(t, "2025-Q4", doc.History[0].Period)
	assert.Equal(t, "2026-Q1", doc.History[1].Period)
}

func TestJSONReportWithoutCompanyOrNarrative(t *testing.T) {
	out, err := NewBuilder().JSON(testCard(), nil, nil, "")
	require.NoError(t, err)

	var doc Document
	require.NoError(t, json.Unmarshal(out, &doc))
	assert.Empty(t, doc.CompanyName)
	assert.Empty(t, doc.Narrative)
	assert.NotNil(t, doc.History)
}

func TestExcelReportStructure(t *testing.T) {
	out, err := NewBuilder().Excel(testCard(), &model.Company{Name: "Acme"}, testHistory(), "Summary text.")
	require.NoError(t, err)
	require.NotEmpty(t, out)

	f, err := xlsx.OpenReaderAt(bytes.NewReader(out), int64(len(out)))
	require.NoError(t, err)
	require.Len(t, f.Sheets, 3)
	assert.Equal(t, "Summary", f.Sheets[0].Name)
	assert.Equal(t, "Gaps", f.Sheets[1].Name)
	assert.Equal(t, "History", f.Sheets[2].Name)

	// Gaps sheet: header plus one row per missing item.
	gaps := f.Sheets[1]
	require.Len(t, gaps.Rows, 3)
	assert.Equal(t, "scope1_emissions", gaps.Rows[1].Cells[1].Value)

	// History sheet oldest first after the header.
	history := f.Sheets[2]
	require.Len(t, history.Rows, 3)
	assert.Equal(t, "2025-Q4", history.Rows[1].Cells[0].Value)
}
