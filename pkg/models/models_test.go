package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestAmountJSONRoundTrip(t *testing.T) {
	a := Amt(2950.5, "INR")
	data, err := json.Marshal(a)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"value":2950.5,"currency":"INR"}` {
		t.Errorf("marshal: got %s", data)
	}

	var got Amount
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if !got.IsAvailable() || got.Value != 2950.5 || got.Currency != "INR" {
		t.Errorf("round trip: %+v", got)
	}
}

func TestAmountUnavailableMarshalsAsNull(t *testing.T) {
	data, err := json.Marshal(Unavailable())
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "null" {
		t.Errorf("unavailable must serialize as null, got %s", data)
	}

	var got Amount
	if err := json.Unmarshal([]byte("null"), &got); err != nil {
		t.Fatal(err)
	}
	if got.IsAvailable() {
		t.Error("null must unmarshal as unavailable")
	}
}

func TestAmountZeroIsNotUnavailable(t *testing.T) {
	zero := Amt(0, "INR")
	if !zero.IsAvailable() {
		t.Error("an explicit zero is a real value, not unavailable")
	}
	data, _ := json.Marshal(zero)
	if string(data) == "null" {
		t.Error("explicit zero must not serialize as null")
	}
}

func TestStatementItemAbsent(t *testing.T) {
	stmt := FinancialStatement{
		Ticker:   "NSE:RELIANCE",
		Kind:     StatementIncome,
		Currency: "INR",
	}
	stmt.Set(LineRevenue, Amt(9e12, "INR"))

	if got := stmt.Item(LineRevenue); !got.IsAvailable() || got.Value != 9e12 {
		t.Errorf("revenue: %+v", got)
	}
	if got := stmt.Item(LineNetIncome); got.IsAvailable() {
		t.Errorf("absent line item must be unavailable, got %+v", got)
	}
}

func TestPeriodSameType(t *testing.T) {
	annual := Period{Type: PeriodAnnual, Label: "FY2025"}
	quarterly := Period{Type: PeriodQuarterly, Label: "Mar 2025"}
	if !annual.SameType(Period{Type: PeriodAnnual, Label: "FY2024"}) {
		t.Error("two annual periods should match")
	}
	if annual.SameType(quarterly) {
		t.Error("annual and quarterly must not match")
	}
}

func TestReportSectionsFixedShape(t *testing.T) {
	sections := ReportSections()
	if len(sections) != 8 {
		t.Fatalf("expected 8 sections, got %d", len(sections))
	}
	if sections[0] != SectionOverview {
		t.Errorf("first section: got %q", sections[0])
	}
	if sections[len(sections)-1] != SectionConclusion {
		t.Errorf("last section: got %q", sections[len(sections)-1])
	}
	for _, id := range sections {
		if SectionTitle(id) == "" {
			t.Errorf("section %q has no title", id)
		}
	}
}

func TestReportDocumentSection(t *testing.T) {
	doc := &ReportDocument{
		Ticker:      "NSE:RELIANCE",
		GeneratedAt: time.Now(),
		Sections: []ReportSection{
			{ID: SectionOverview, Title: "Overview", Status: StatusComplete},
			{ID: SectionRisk, Title: "Risk", Status: StatusPartial},
		},
	}
	if s := doc.Section(SectionRisk); s == nil || s.Status != StatusPartial {
		t.Errorf("Section(risk): %+v", s)
	}
	if s := doc.Section(SectionValuation); s != nil {
		t.Errorf("missing section should be nil, got %+v", s)
	}
}
