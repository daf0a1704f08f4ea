package ingest

import (
	"context"
	"errors"
	"sync"

	"github.com/ltran/procurement/internal/logger"
	"github.com/ltran/procurement/internal/mail"
	"github.com/ltran/procurement/internal/model"
	"github.com/ltran/procurement/internal/store"
)

// Oracle is the subset of the extraction service the pipeline needs.
type Oracle interface {
	ExtractProposal(ctx context.Context, rfp *model.RFP, emailContent string) (*model.ParsedData, error)
	AnalyzeProposal(ctx context.Context, rfp *model.RFP, parsed *model.ParsedData) (*model.AIAnalysis, error)
}

// Pipeline consumes inbound messages and turns qualifying ones into
// stored proposals. Each message is processed on its own goroutine, so
// a slow extraction never blocks the mailbox feed; the proposals table
// constraint keeps concurrent duplicates out.
type Pipeline struct {
	store     store.Store
	oracle    Oracle
	corr      *Correlator
	inboxAddr string
	log       *logger.Logger

	wg sync.WaitGroup
}

// NewPipeline builds a pipeline. inboxAddr is the watched mailbox
// address, recorded as the recipient on received ledger entries.
func NewPipeline(s store.Store, oracle Oracle, corr *Correlator, inboxAddr string, log *logger.Logger) *Pipeline {
	return &Pipeline{
		store:     s,
		oracle:    oracle,
		corr:      corr,
		inboxAddr: inboxAddr,
		log:       log,
	}
}

// Run consumes messages until the channel closes, then waits for all
// in-flight processing to finish.
func (p *Pipeline) Run(ctx context.Context, messages <-chan mail.InboundMessage) {
	for msg := range messages {
		msg := msg
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			p.Process(ctx, &msg)
		}()
	}
	p.wg.Wait()
}

// Process runs one inbound message through correlation, extraction and
// analysis. Expected discards are silent; every attempt that resolves
// a vendor ends in exactly one ledger entry.
func (p *Pipeline) Process(ctx context.Context, msg *mail.InboundMessage) {
	// Captured before resolution so failure entries always carry the
	// address exactly as it appeared on the wire.
	sender := msg.From.Addr

	cand, err := p.corr.Resolve(ctx, msg)
	if err != nil {
		p.log.Error("correlation failed", "from", sender, "error", err)
		p.recordFailure(ctx, nil, sender, msg, err)
		return
	}
	if cand == nil {
		return
	}

	p.log.Info("processing proposal",
		"vendor", cand.Vendor.Name, "rfp", cand.RFP.Title, "subject", msg.Subject)

	content := msg.Body()
	parsed, err := p.oracle.ExtractProposal(ctx, cand.RFP, content)
	if err != nil {
		p.log.Error("proposal extraction failed",
			"vendor", cand.Vendor.Name, "rfp_id", cand.RFP.ID, "error", err)
		p.recordFailure(ctx, cand, sender, msg, err)
		return
	}

	proposal := &model.Proposal{
		RFPID:      cand.RFP.ID,
		VendorID:   cand.Vendor.ID,
		ParsedData: *parsed,
		RawContent: content,
		Status:     model.ProposalStatusParsed,
		EmailMetadata: model.EmailMetadata{
			MessageID:  msg.MessageID,
			ReceivedAt: msg.Date,
			Subject:    msg.Subject,
			From:       sender,
		},
		Attachments: msg.Attachments,
	}
	if err := p.store.CreateProposal(ctx, proposal); err != nil {
		if errors.Is(err, store.ErrDuplicateProposal) {
			p.log.Debug("lost duplicate race, discarding",
				"vendor", cand.Vendor.Name, "rfp_id", cand.RFP.ID)
			return
		}
		p.log.Error("storing proposal failed",
			"vendor", cand.Vendor.Name, "rfp_id", cand.RFP.ID, "error", err)
		p.recordFailure(ctx, cand, sender, msg, err)
		return
	}

	// Analysis is best effort. A failure here leaves the proposal in
	// the parsed state; the stored terms are already usable.
	if analysis, err := p.oracle.AnalyzeProposal(ctx, cand.RFP, parsed); err != nil {
		p.log.Warn("proposal analysis failed, keeping parsed state",
			"proposal_id", proposal.ID, "error", err)
	} else if err := p.store.SetProposalAnalysis(ctx, proposal.ID, analysis); err != nil {
		p.log.Error("storing analysis failed", "proposal_id", proposal.ID, "error", err)
	}

	if err := p.store.AppendEmailLog(ctx, &model.EmailLog{
		RFPID:     cand.RFP.ID,
		VendorID:  cand.Vendor.ID,
		Direction: model.DirectionReceived,
		Subject:   msg.Subject,
		Body:      content,
		From:      sender,
		To:        p.inboxAddr,
		MessageID: msg.MessageID,
		Outcome:   model.OutcomeSuccess,
	}); err != nil {
		p.log.Error("recording received log failed", "proposal_id", proposal.ID, "error", err)
	}

	p.log.Info("proposal stored",
		"proposal_id", proposal.ID, "vendor", cand.Vendor.Name, "rfp", cand.RFP.Title)
}

func (p *Pipeline) recordFailure(ctx context.Context, cand *Candidate, sender string, msg *mail.InboundMessage, cause error) {
	entry := &model.EmailLog{
		Direction: model.DirectionReceived,
		Subject:   msg.Subject,
		From:      sender,
		To:        p.inboxAddr,
		MessageID: msg.MessageID,
		Outcome:   model.OutcomeFailed,
		Error:     cause.Error(),
	}
	if cand != nil {
		entry.RFPID = cand.RFP.ID
		entry.VendorID = cand.Vendor.ID
	}
	if err := p.store.AppendEmailLog(ctx, entry); err != nil {
		p.log.Error("recording failure log failed", "from", sender, "error", err)
	}
}
