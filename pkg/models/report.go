package models

import "time"

// SectionID identifies one of the fixed report sections.
type SectionID string

const (
	SectionOverview     SectionID = "overview"
	SectionStrategic    SectionID = "strategic_developments"
	SectionOrderBook    SectionID = "order_book"
	SectionRisk         SectionID = "risk"
	SectionCompetitive  SectionID = "competitive_analysis"
	SectionValuation    SectionID = "valuation"
	SectionCatalysts    SectionID = "catalysts"
	SectionConclusion   SectionID = "conclusion"
)

// ReportSections returns the fixed section list in display order. Every
// report contains every section; sections with no data are marked
// insufficient rather than omitted, so any renderer can rely on the shape.
func ReportSections() []SectionID {
	return []SectionID{
		SectionOverview,
		SectionStrategic,
		SectionOrderBook,
		SectionRisk,
		SectionCompetitive,
		SectionValuation,
		SectionCatalysts,
		SectionConclusion,
	}
}

// SectionTitle returns the human-readable title for a section.
func SectionTitle(id SectionID) string {
	switch id {
	case SectionOverview:
		return "Overview"
	case SectionStrategic:
		return "Strategic Developments"
	case SectionOrderBook:
		return "Order Book"
	case SectionRisk:
		return "Risk"
	case SectionCompetitive:
		return "Competitive Analysis"
	case SectionValuation:
		return "Valuation"
	case SectionCatalysts:
		return "Catalysts"
	case SectionConclusion:
		return "Conclusion"
	default:
		return string(id)
	}
}

// SectionStatus describes how much of a section's data could be attached.
type SectionStatus string

const (
	StatusComplete     SectionStatus = "complete"
	StatusPartial      SectionStatus = "partial"
	StatusInsufficient SectionStatus = "insufficient_data"
)

// SectionContent holds whatever structured data a section carries. Fields
// are optional; a renderer shows what is present.
type SectionContent struct {
	Profile   *CompanyProfile `json:"profile,omitempty"`
	Quote     *Quote          `json:"quote,omitempty"`
	Metrics   []DerivedMetric `json:"metrics,omitempty"`
	News      []NewsArticle   `json:"news,omitempty"`
	Narrative string          `json:"narrative,omitempty"` // LLM summary, when available
	Notes     []string        `json:"notes,omitempty"`     // degradation notes, e.g. provider failures
}

// ReportSection is one section of a report document.
type ReportSection struct {
	ID      SectionID      `json:"id"`
	Title   string         `json:"title"`
	Status  SectionStatus  `json:"status"`
	Content SectionContent `json:"content"`
}

// ReportDocument is the renderer-agnostic output of the presentation
// assembler: an ordered collection of sections plus run metadata.
type ReportDocument struct {
	Ticker      string          `json:"ticker"`
	GeneratedAt time.Time       `json:"generated_at"`
	Partial     bool            `json:"partial"` // true when the run was cancelled mid-flight
	Sections    []ReportSection `json:"sections"`
}

// Section returns the section with the given id, or nil.
func (d *ReportDocument) Section(id SectionID) *ReportSection {
	for i := range d.Sections {
		if d.Sections[i].ID == id {
			return &d.Sections[i]
		}
	}
	return nil
}
