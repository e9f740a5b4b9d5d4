package report

import "server/internal/domain"

// SectionID is the stable identifier of one document section. The catalogue
// is keyed on these rather than on display titles, and enrichment eligibility
// is part of the spec itself.
type SectionID string

const (
	SectionExecutiveSummary    SectionID = "executive_summary"
	SectionTechnologyOverview  SectionID = "technology_overview"
	SectionMarketAnalysis      SectionID = "market_analysis"
	SectionCompetitiveScene    SectionID = "competitive_landscape"
	SectionTechnicalFeasibility SectionID = "technical_feasibility"
	SectionPatentLandscape     SectionID = "patent_landscape"
	SectionRegulatory          SectionID = "regulatory_compliance"
	SectionFinancialProjection SectionID = "financial_projections"
	SectionGoToMarket          SectionID = "go_to_market"
	SectionRoadmap             SectionID = "implementation_roadmap"
	SectionRisks               SectionID = "risks_recommendations"
	SectionPatentAppendix      SectionID = "patent_appendix"
)

// SectionSpec describes one section: its display title, the instruction set
// handed to the generative backend, and whether external patent facts are
// attached as ground truth.
type SectionSpec struct {
	ID            SectionID
	Title         string
	Instructions  string
	UseEnrichment bool
}

var sectionCatalogue = map[SectionID]SectionSpec{
	SectionExecutiveSummary: {
		ID:    SectionExecutiveSummary,
		Title: "Executive Summary",
		Instructions: "Write an executive summary of the technology assessment. " +
			"Cover the core value proposition, the maturity of the underlying technology, and a one-paragraph overall verdict. " +
			"Use at most two heading levels and keep it under five paragraphs.",
	},
	SectionTechnologyOverview: {
		ID:    SectionTechnologyOverview,
		Title: "Technology Overview",
		Instructions: "Describe the underlying technology: operating principle, key components, current state of the art, and maturity level (TRL estimate). " +
			"Include a subsection on notable technical constraints.",
	},
	SectionMarketAnalysis: {
		ID:    SectionMarketAnalysis,
		Title: "Market Analysis",
		Instructions: "Analyze the addressable market: segments, estimated size, growth drivers, and adoption barriers. " +
			"Include a comparison table of at least three market segments with columns for size, growth, and fit.",
	},
	SectionCompetitiveScene: {
		ID:    SectionCompetitiveScene,
		Title: "Competitive Landscape",
		Instructions: "Identify the main categories of competitors and representative players in each. " +
			"Include a comparison table contrasting approaches, strengths, and weaknesses. Do not invent named companies' financial figures.",
	},
	SectionTechnicalFeasibility: {
		ID:    SectionTechnicalFeasibility,
		Title: "Technical Feasibility",
		Instructions: "Assess technical feasibility: critical engineering challenges, dependency on external infrastructure, and manufacturability. " +
			"Rank the top risks in an ordered list from most to least severe.",
	},
	SectionPatentLandscape: {
		ID:    SectionPatentLandscape,
		Title: "IP & Patent Landscape",
		Instructions: "Assess the intellectual property position around the idea. " +
			"Summarize prior art, identify crowded claim areas, and flag freedom-to-operate concerns. " +
			"Treat the supplied patent records as the only source of truth for existing filings; do not invent patents beyond them. " +
			"If no records are supplied, state that no closely related filings were found in the search window.",
		UseEnrichment: true,
	},
	SectionRegulatory: {
		ID:    SectionRegulatory,
		Title: "Regulatory & Compliance",
		Instructions: "Outline the regulatory regimes the product would fall under in the US and EU, required certifications, and compliance timelines. " +
			"Use one subsection per jurisdiction.",
	},
	SectionFinancialProjection: {
		ID:    SectionFinancialProjection,
		Title: "Financial Projections",
		Instructions: "Sketch an indicative cost structure and a three-year revenue scenario (conservative, base, optimistic) as a table. " +
			"State every assumption explicitly; mark all figures as illustrative.",
	},
	SectionGoToMarket: {
		ID:    SectionGoToMarket,
		Title: "Go-to-Market Strategy",
		Instructions: "Propose a go-to-market strategy: beachhead segment, channel mix, pricing posture, and the first three partnerships to pursue.",
	},
	SectionRoadmap: {
		ID:    SectionRoadmap,
		Title: "Implementation Roadmap",
		Instructions: "Lay out a phased implementation roadmap from prototype to production with indicative durations per phase and exit criteria for each phase. " +
			"Present the phases as an ordered list.",
	},
	SectionRisks: {
		ID:    SectionRisks,
		Title: "Risks & Recommendations",
		Instructions: "Summarize the principal technology, market, and execution risks, then give concrete recommendations. " +
			"Close with a go / no-go / investigate-further verdict and its rationale.",
	},
	SectionPatentAppendix: {
		ID:    SectionPatentAppendix,
		Title: "Appendix: Patent Records",
		Instructions: "Present the supplied patent records as a reference table with columns for publication number, title, assignee, status, and date. " +
			"Use only the supplied records; add a one-line relevance note per record. " +
			"If no records are supplied, state that the appendix is empty because the search returned no results.",
		UseEnrichment: true,
	},
}

var tierOrder = map[domain.ReportTier][]SectionID{
	domain.TierBasic: {
		SectionExecutiveSummary,
		SectionTechnologyOverview,
		SectionMarketAnalysis,
		SectionPatentLandscape,
		SectionRisks,
	},
	domain.TierAdvanced: {
		SectionExecutiveSummary,
		SectionTechnologyOverview,
		SectionMarketAnalysis,
		SectionCompetitiveScene,
		SectionTechnicalFeasibility,
		SectionPatentLandscape,
		SectionRoadmap,
		SectionRisks,
	},
	domain.TierComprehensive: {
		SectionExecutiveSummary,
		SectionTechnologyOverview,
		SectionMarketAnalysis,
		SectionCompetitiveScene,
		SectionTechnicalFeasibility,
		SectionPatentLandscape,
		SectionRegulatory,
		SectionFinancialProjection,
		SectionGoToMarket,
		SectionRoadmap,
		SectionRisks,
		SectionPatentAppendix,
	},
}

// tierCosts is the static token price per tier, fixed at submission time.
var tierCosts = map[domain.ReportTier]int{
	domain.TierBasic:         2500,
	domain.TierAdvanced:      5500,
	domain.TierComprehensive: 9500,
}

// TierSections returns the ordered section specs for the tier. The returned
// slice is a copy; callers may not mutate the catalogue.
func TierSections(tier domain.ReportTier) []SectionSpec {
	ids, ok := tierOrder[tier]
	if !ok {
		return nil
	}
	specs := make([]SectionSpec, 0, len(ids))
	for _, id := range ids {
		specs = append(specs, sectionCatalogue[id])
	}
	return specs
}

// TierCost returns the token cost of the tier, or 0 for an unknown tier.
func TierCost(tier domain.ReportTier) int {
	return tierCosts[tier]
}
