package ai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ltran/procurement/internal/model"
)

const parseRFPSystemPrompt = `You are an expert procurement assistant. Parse the user's natural language description into a structured RFP.
Return ONLY valid JSON with this exact structure:
{
  "title": "Brief descriptive title",
  "description": "Full description of what needs to be procured",
  "budget": number (extract numerical value only),
  "deliveryTimeline": "timeline string",
  "items": [{"name": "item name", "quantity": number, "specifications": "specs"}],
  "paymentTerms": "payment terms",
  "warrantyRequirements": "warranty info",
  "additionalRequirements": "any other requirements"
}`

const extractSystemPrompt = `You are an expert at extracting structured data from vendor proposals.
Parse the vendor's email response and extract pricing, terms, and other details.
Return ONLY valid JSON with this structure:
{
  "totalPrice": number,
  "breakdown": [{"item": "name", "unitPrice": number, "quantity": number, "totalPrice": number}],
  "deliveryTimeline": "timeline",
  "paymentTerms": "terms",
  "warranty": "warranty info",
  "additionalTerms": "other terms or conditions"
}`

const analyzeSystemPrompt = `Analyze this vendor proposal against the RFP requirements.
Return ONLY valid JSON:
{
  "score": number (0-100),
  "strengths": ["strength1", "strength2"],
  "weaknesses": ["weakness1", "weakness2"],
  "summary": "brief summary",
  "recommendation": "recommendation text"
}`

const compareSystemPrompt = `You are a procurement expert analyzing vendor proposals.
Provide a comprehensive comparison and recommendation.
Return ONLY valid JSON with this structure:
{
  "overallRecommendation": "Which vendor to choose and why",
  "comparisonSummary": "Brief comparison of all vendors",
  "vendorAnalyses": [
    {
      "vendorName": "name",
      "score": number (0-100),
      "strengths": ["strength1", "strength2"],
      "weaknesses": ["weakness1", "weakness2"],
      "summary": "brief summary"
    }
  ],
  "keyConsiderations": ["consideration1", "consideration2"]
}`

// rfpDraft mirrors the oracle's RFP JSON shape.
type rfpDraft struct {
	Title                  string           `json:"title"`
	Description            string           `json:"description"`
	Budget                 float64          `json:"budget"`
	DeliveryTimeline       string           `json:"deliveryTimeline"`
	Items                  []model.LineItem `json:"items"`
	PaymentTerms           string           `json:"paymentTerms"`
	WarrantyRequirements   string           `json:"warrantyRequirements"`
	AdditionalRequirements string           `json:"additionalRequirements"`
}

// ParseRFP turns a buyer's natural language description into a draft
// RFP.
func (c *Client) ParseRFP(ctx context.Context, naturalLanguageInput string) (*model.RFP, error) {
	var draft rfpDraft
	if err := c.completeJSON(ctx, parseRFPSystemPrompt, naturalLanguageInput, 0.3, &draft); err != nil {
		return nil, fmt.Errorf("parsing rfp: %w", err)
	}

	if draft.Title == "" {
		return nil, fmt.Errorf("parsing rfp: oracle returned no title")
	}

	return &model.RFP{
		Title:                  draft.Title,
		Description:            draft.Description,
		Budget:                 draft.Budget,
		DeliveryTimeline:       draft.DeliveryTimeline,
		Items:                  draft.Items,
		PaymentTerms:           draft.PaymentTerms,
		WarrantyRequirements:   draft.WarrantyRequirements,
		AdditionalRequirements: draft.AdditionalRequirements,
		Status:                 model.RFPStatusDraft,
	}, nil
}

// ExtractProposal extracts structured commercial terms from a vendor's
// reply. The RFP is serialized into the prompt as context. A
// non-conforming payload is a hard failure.
func (c *Client) ExtractProposal(ctx context.Context, rfp *model.RFP, emailContent string) (*model.ParsedData, error) {
	rfpJSON, err := json.Marshal(rfp)
	if err != nil {
		return nil, fmt.Errorf("serializing rfp context: %w", err)
	}

	user := fmt.Sprintf("RFP Context: %s\n\nVendor Response:\n%s", rfpJSON, emailContent)

	var parsed model.ParsedData
	if err := c.completeJSON(ctx, extractSystemPrompt, user, 0.3, &parsed); err != nil {
		return nil, fmt.Errorf("extracting proposal: %w", err)
	}

	if err := validateParsedData(&parsed); err != nil {
		return nil, fmt.Errorf("extracting proposal: %w", err)
	}

	return &parsed, nil
}

// AnalyzeProposal scores extracted proposal data against the RFP.
func (c *Client) AnalyzeProposal(ctx context.Context, rfp *model.RFP, parsed *model.ParsedData) (*model.AIAnalysis, error) {
	rfpJSON, err := json.Marshal(rfp)
	if err != nil {
		return nil, fmt.Errorf("serializing rfp context: %w", err)
	}
	parsedJSON, err := json.Marshal(parsed)
	if err != nil {
		return nil, fmt.Errorf("serializing proposal data: %w", err)
	}

	user := fmt.Sprintf("RFP: %s\n\nProposal: %s", rfpJSON, parsedJSON)

	var analysis model.AIAnalysis
	if err := c.completeJSON(ctx, analyzeSystemPrompt, user, 0.4, &analysis); err != nil {
		return nil, fmt.Errorf("analyzing proposal: %w", err)
	}

	if analysis.Score < 0 || analysis.Score > 100 {
		return nil, fmt.Errorf("analyzing proposal: score %d out of range", analysis.Score)
	}

	return &analysis, nil
}

// VendorAnalysis is one vendor's entry in a comparison result.
type VendorAnalysis struct {
	VendorName string   `json:"vendorName"`
	Score      int      `json:"score"`
	Strengths  []string `json:"strengths"`
	Weaknesses []string `json:"weaknesses"`
	Summary    string   `json:"summary"`
}

// Comparison is the cross-vendor analysis for an RFP.
type Comparison struct {
	OverallRecommendation string           `json:"overallRecommendation"`
	ComparisonSummary     string           `json:"comparisonSummary"`
	VendorAnalyses        []VendorAnalysis `json:"vendorAnalyses"`
	KeyConsiderations     []string         `json:"keyConsiderations"`
}

// ProposalSummary is the condensed per-vendor view handed to the
// comparison prompt.
type ProposalSummary struct {
	Vendor           string  `json:"vendor"`
	TotalPrice       float64 `json:"totalPrice"`
	DeliveryTimeline string  `json:"deliveryTimeline"`
	PaymentTerms     string  `json:"paymentTerms"`
	Warranty         string  `json:"warranty"`
}

// CompareProposals analyzes all proposals for an RFP side by side.
func (c *Client) CompareProposals(ctx context.Context, rfp *model.RFP, summaries []ProposalSummary) (*Comparison, error) {
	if len(summaries) == 0 {
		return nil, fmt.Errorf("comparing proposals: no proposals provided")
	}

	rfpJSON, err := json.Marshal(rfp)
	if err != nil {
		return nil, fmt.Errorf("serializing rfp context: %w", err)
	}
	proposalsJSON, err := json.Marshal(summaries)
	if err != nil {
		return nil, fmt.Errorf("serializing proposal summaries: %w", err)
	}

	user := fmt.Sprintf("RFP Details: %s\n\nProposals: %s", rfpJSON, proposalsJSON)

	var comparison Comparison
	if err := c.completeJSON(ctx, compareSystemPrompt, user, 0.4, &comparison); err != nil {
		return nil, fmt.Errorf("comparing proposals: %w", err)
	}

	return &comparison, nil
}

// validateParsedData enforces the extraction output shape contract.
func validateParsedData(p *model.ParsedData) error {
	if p.TotalPrice < 0 {
		return fmt.Errorf("negative total price %v", p.TotalPrice)
	}
	if p.TotalPrice == 0 && len(p.Breakdown) == 0 {
		return fmt.Errorf("payload carries neither a total price nor a breakdown")
	}
	for i, row := range p.Breakdown {
		if row.Item == "" {
			return fmt.Errorf("breakdown row %d has no item name", i)
		}
		if row.UnitPrice < 0 || row.TotalPrice < 0 || row.Quantity < 0 {
			return fmt.Errorf("breakdown row %d has negative values", i)
		}
	}
	return nil
}
