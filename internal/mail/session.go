package mail

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	gomail "github.com/emersion/go-message/mail"

	"github.com/ltran/procurement/internal/logger"
	"github.com/ltran/procurement/internal/model"
)

// lookbackDays bounds the fetch window so a restart does not replay an
// unbounded backlog.
const lookbackDays = 7

// Session holds one authenticated IMAP connection with INBOX selected.
// It emits normalized inbound messages on Messages(): an explicit poll
// at startup, IDLE push notifications afterwards, and a periodic
// fallback poll in between. Connection errors are fatal for the
// session; there is no automatic reconnect in this version.
type Session struct {
	cfg    model.IMAPConfig
	log    *logger.Logger
	client *imapclient.Client

	messages chan InboundMessage
	notify   chan struct{}
	healthy  atomic.Bool
}

// Dial connects and authenticates the mailbox session and selects
// INBOX. Discovery never marks messages seen (fetches use BODY.PEEK).
func Dial(cfg model.IMAPConfig, log *logger.Logger) (*Session, error) {
	s := &Session{
		cfg:      cfg,
		log:      log,
		messages: make(chan InboundMessage, 16),
		notify:   make(chan struct{}, 1),
	}

	opts := &imapclient.Options{
		UnilateralDataHandler: &imapclient.UnilateralDataHandler{
			Mailbox: func(data *imapclient.UnilateralDataMailbox) {
				if data.NumMessages != nil {
					s.signal()
				}
			},
		},
	}

	addr := cfg.Host + ":" + cfg.Port

	var client *imapclient.Client
	var err error
	if cfg.TLS {
		client, err = imapclient.DialTLS(addr, opts)
	} else {
		client, err = imapclient.DialStartTLS(addr, opts)
	}
	if err != nil {
		return nil, fmt.Errorf("connecting to IMAP %s: %w", addr, err)
	}

	if err := client.Login(cfg.Username, cfg.Password).Wait(); err != nil {
		_ = client.Logout().Wait()
		return nil, fmt.Errorf("authenticating %s: %w", cfg.Username, err)
	}

	if _, err := client.Select("INBOX", nil).Wait(); err != nil {
		_ = client.Logout().Wait()
		return nil, fmt.Errorf("selecting INBOX: %w", err)
	}

	s.client = client
	s.healthy.Store(true)

	return s, nil
}

// Messages returns the channel of normalized inbound messages. It is
// closed when the session terminates.
func (s *Session) Messages() <-chan InboundMessage {
	return s.messages
}

// Healthy reports whether the session connection is still usable.
func (s *Session) Healthy() bool {
	return s.healthy.Load()
}

// Run drives the session until ctx is canceled or the connection
// fails. It performs the startup poll immediately, then alternates
// between IDLE waits and fetch cycles. A connection error is logged
// and terminates the session cleanly; callers see the closed message
// channel and the dropped Healthy flag.
func (s *Session) Run(ctx context.Context) error {
	defer close(s.messages)
	defer s.healthy.Store(false)

	pollInterval := time.Duration(s.cfg.PollIntervalSec) * time.Second
	if pollInterval <= 0 {
		pollInterval = 5 * time.Minute
	}

	// Messages may have arrived before the listener attached.
	s.fetchCycle(ctx)

	for {
		idleCmd, err := s.client.Idle()
		if err != nil {
			s.log.Error("mailbox idle failed, terminating listener", "error", err)
			return fmt.Errorf("starting IDLE: %w", err)
		}

		timer := time.NewTimer(pollInterval)

		var stopped bool
		select {
		case <-ctx.Done():
			stopped = true
		case <-s.notify:
		case <-timer.C:
		}
		timer.Stop()

		if err := idleCmd.Close(); err != nil {
			s.log.Error("mailbox connection lost, terminating listener", "error", err)
			return fmt.Errorf("stopping IDLE: %w", err)
		}
		if err := idleCmd.Wait(); err != nil {
			s.log.Error("mailbox connection lost, terminating listener", "error", err)
			return fmt.Errorf("finishing IDLE: %w", err)
		}

		if stopped {
			_ = s.client.Logout().Wait()
			return ctx.Err()
		}

		s.fetchCycle(ctx)
	}
}

// Close tears the connection down out-of-band (used on shutdown paths
// that cannot wait for Run to observe ctx cancellation).
func (s *Session) Close() error {
	s.healthy.Store(false)
	return s.client.Close()
}

// signal notes that new mail arrived without blocking the IMAP reader
// goroutine that delivers unilateral data.
func (s *Session) signal() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// fetchCycle searches for unread messages within the lookback window,
// fetches their full bodies, and emits each successfully decoded
// message. One malformed message is logged and skipped; the batch
// continues. A fresh search is issued every cycle.
func (s *Session) fetchCycle(ctx context.Context) {
	since := time.Now().AddDate(0, 0, -lookbackDays)
	criteria := &imap.SearchCriteria{
		Since:   since,
		NotFlag: []imap.Flag{imap.FlagSeen},
	}

	searchData, err := s.client.UIDSearch(criteria, nil).Wait()
	if err != nil {
		s.log.Error("searching for unread messages", "error", err)
		return
	}

	uids := searchData.AllUIDs()
	if len(uids) == 0 {
		s.log.Debug("no unread messages in lookback window")
		return
	}

	s.log.Info("fetching unread messages", "count", len(uids))

	bodySection := &imap.FetchItemBodySection{Peek: true}
	fetchOpts := &imap.FetchOptions{
		Envelope:    true,
		Flags:       true,
		UID:         true,
		BodySection: []*imap.FetchItemBodySection{bodySection},
	}

	fetchCmd := s.client.Fetch(imap.UIDSetNum(uids...), fetchOpts)
	defer func() {
		if err := fetchCmd.Close(); err != nil {
			s.log.Error("closing fetch", "error", err)
		}
	}()

	for {
		msg := fetchCmd.Next()
		if msg == nil {
			break
		}

		buf, err := msg.Collect()
		if err != nil {
			s.log.Warn("collecting message failed, skipping", "error", err)
			continue
		}

		decoded, err := decodeMessage(buf, bodySection)
		if err != nil {
			s.log.Warn("decoding message failed, skipping",
				"uid", uint32(buf.UID), "error", err)
			continue
		}

		select {
		case s.messages <- *decoded:
		case <-ctx.Done():
			return
		}
	}
}

// decodeMessage turns a fetched buffer into a normalized record.
func decodeMessage(
	buf *imapclient.FetchMessageBuffer,
	section *imap.FetchItemBodySection,
) (*InboundMessage, error) {
	if buf.Envelope == nil {
		return nil, fmt.Errorf("message has no envelope")
	}

	m := &InboundMessage{
		UID:       uint32(buf.UID),
		MessageID: buf.Envelope.MessageID,
		Subject:   buf.Envelope.Subject,
		Date:      buf.Envelope.Date,
	}

	if len(buf.Envelope.From) == 0 {
		return nil, fmt.Errorf("message has no sender")
	}
	from := buf.Envelope.From[0]
	m.From = Address{Name: from.Name, Addr: from.Addr()}

	for _, to := range buf.Envelope.To {
		m.To = append(m.To, to.Addr())
	}

	rawBody := buf.FindBodySection(section)
	if rawBody == nil {
		return nil, fmt.Errorf("message has no body section")
	}

	textBody, htmlBody, attachments := parseMIMEBody(rawBody)
	m.TextBody = textBody
	m.HTMLBody = htmlBody
	m.Attachments = attachments

	return m, nil
}

// parseMIMEBody parses a raw RFC 2822 message body using go-message
// and extracts the text/plain body, text/html body, and attachment
// metadata.
func parseMIMEBody(raw []byte) (
	textBody string, htmlBody string, attachments []model.AttachmentInfo,
) {
	reader := bytes.NewReader(raw)

	mr, err := gomail.CreateReader(reader)
	if err != nil {
		// If parsing fails, try treating the whole thing as plain text
		return string(raw), "", nil
	}
	defer mr.Close()

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}

		switch h := part.Header.(type) {
		case *gomail.InlineHeader:
			contentType, _, _ := h.ContentType()
			body, readErr := io.ReadAll(part.Body)
			if readErr != nil {
				continue
			}

			switch {
			case strings.HasPrefix(contentType, "text/plain"):
				textBody = string(body)
			case strings.HasPrefix(contentType, "text/html"):
				htmlBody = string(body)
			}

		case *gomail.AttachmentHeader:
			filename, _ := h.Filename()
			contentType, _, _ := h.ContentType()

			// Read to get size without storing content
			body, readErr := io.ReadAll(part.Body)
			if readErr != nil {
				continue
			}

			attachments = append(attachments, model.AttachmentInfo{
				Filename:    filename,
				ContentType: contentType,
				Size:        int64(len(body)),
			})
		}
	}

	return textBody, htmlBody, attachments
}
